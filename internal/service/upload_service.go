package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"time"

	"mentorloop-go/internal/apperr"
	"mentorloop-go/internal/model"
	"mentorloop-go/pkg/log"
	"mentorloop-go/pkg/storage"

	"github.com/google/uuid"
)

// presignedURLExpiry 是附件下载链接的有效期。
const presignedURLExpiry = 24 * time.Hour

// UploadService 接口定义了学员附件上传相关的业务操作。
type UploadService interface {
	// UploadAttachment 将文件写入对象存储，返回可挂到消息上的附件描述。
	UploadAttachment(ctx context.Context, studentID uint, fileName string, size int64, reader io.Reader) (*model.Attachment, error)
}

type uploadService struct {
	bucketName string
}

// NewUploadService 创建一个新的 UploadService 实例。
func NewUploadService(bucketName string) UploadService {
	return &uploadService{bucketName: bucketName}
}

func (s *uploadService) UploadAttachment(ctx context.Context, studentID uint, fileName string, size int64, reader io.Reader) (*model.Attachment, error) {
	if fileName == "" {
		return nil, apperr.InvalidInputf("文件名不能为空")
	}

	contentType := mime.TypeByExtension(filepath.Ext(fileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// 对象路径带 uuid 前缀，避免同名文件互相覆盖。
	objectName := fmt.Sprintf("attachments/%d/%s-%s", studentID, uuid.New().String(), fileName)
	if _, err := storage.UploadStream(ctx, s.bucketName, objectName, reader, size, contentType); err != nil {
		return nil, apperr.Upstreamf("上传附件失败: %v", err)
	}

	url, err := storage.GetPresignedURL(s.bucketName, objectName, presignedURLExpiry)
	if err != nil {
		// 预签名失败不回滚上传，下载链接可以之后重新生成。
		log.Warnf("[UploadService] 生成预签名 URL 失败, object: %s, error: %v", objectName, err)
	}

	log.Infof("[UploadService] 学员 %d 上传附件: %s", studentID, objectName)
	return &model.Attachment{
		Filename:    fileName,
		URL:         url,
		MimeType:    contentType,
		StoragePath: objectName,
	}, nil
}
