package tools

import (
	"context"
	"time"

	"mentorloop-go/pkg/storage"
)

// BlobStore 抽象工具依赖的对象存储操作，生产实现委托给 pkg/storage。
type BlobStore interface {
	// UploadBytes 上传字节内容并返回可下载的预签名 URL。
	UploadBytes(ctx context.Context, bucketName, objectName string, data []byte, contentType string) (string, error)
	// StatObject 校验对象存在。
	StatObject(ctx context.Context, bucketName, objectName string) error
	// PresignedURL 为已存在的对象生成预签名下载链接。
	PresignedURL(bucketName, objectName string, expiry time.Duration) (string, error)
}

type minioBlobStore struct{}

// NewMinioBlobStore 返回基于全局 MinIO 客户端的 BlobStore 实现。
func NewMinioBlobStore() BlobStore { return minioBlobStore{} }

func (minioBlobStore) UploadBytes(ctx context.Context, bucketName, objectName string, data []byte, contentType string) (string, error) {
	return storage.UploadBytes(ctx, bucketName, objectName, data, contentType)
}

func (minioBlobStore) StatObject(ctx context.Context, bucketName, objectName string) error {
	return storage.StatObject(ctx, bucketName, objectName)
}

func (minioBlobStore) PresignedURL(bucketName, objectName string, expiry time.Duration) (string, error) {
	return storage.GetPresignedURL(bucketName, objectName, expiry)
}
