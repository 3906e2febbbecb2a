// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mentorloop-go/internal/model"

	"github.com/go-redis/redis/v8"
)

// MemoryRepository 定义了学员长期记忆的操作接口。
// 记忆按 (student, type, key) 寻址，覆盖写入为后写者胜出的 upsert 语义。
type MemoryRepository interface {
	// Get 读取一条记忆；键不存在时返回 (nil, nil)，不视为错误。
	Get(ctx context.Context, studentID uint, memType, key string) (*model.MemoryRecord, error)
	Set(ctx context.Context, studentID uint, memType, key string, value interface{}) error
	// ListByStudent 返回学员的全部记忆条目（上下文组装用）。
	ListByStudent(ctx context.Context, studentID uint) ([]model.MemoryRecord, error)
}

type redisMemoryRepository struct {
	redisClient *redis.Client
}

// NewMemoryRepository 创建一个新的 MemoryRepository 实例。
func NewMemoryRepository(redisClient *redis.Client) MemoryRepository {
	return &redisMemoryRepository{redisClient: redisClient}
}

func memoryKey(studentID uint, memType, key string) string {
	return fmt.Sprintf("memory:%d:%s:%s", studentID, memType, key)
}

// Get 从 Redis 读取一条记忆条目。
func (r *redisMemoryRepository) Get(ctx context.Context, studentID uint, memType, key string) (*model.MemoryRecord, error) {
	jsonData, err := r.redisClient.Get(ctx, memoryKey(studentID, memType, key)).Result()
	if err == redis.Nil {
		return nil, nil // 键不存在
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get memory record: %w", err)
	}
	var record model.MemoryRecord
	if err := json.Unmarshal([]byte(jsonData), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal memory record: %w", err)
	}
	return &record, nil
}

// Set 以 upsert 语义写入一条记忆条目。
func (r *redisMemoryRepository) Set(ctx context.Context, studentID uint, memType, key string, value interface{}) error {
	record := model.MemoryRecord{
		Key:       key,
		Type:      memType,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	jsonData, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal memory record: %w", err)
	}
	if err := r.redisClient.Set(ctx, memoryKey(studentID, memType, key), jsonData, 0).Err(); err != nil {
		return fmt.Errorf("failed to set memory record: %w", err)
	}
	return nil
}

// ListByStudent 扫描 memory:{studentID}:* 返回该学员的全部记忆。
func (r *redisMemoryRepository) ListByStudent(ctx context.Context, studentID uint) ([]model.MemoryRecord, error) {
	pattern := fmt.Sprintf("memory:%d:*", studentID)
	keys, err := r.redisClient.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to scan memory keys: %w", err)
	}
	records := make([]model.MemoryRecord, 0, len(keys))
	for _, k := range keys {
		jsonData, getErr := r.redisClient.Get(ctx, k).Result()
		if getErr != nil {
			continue
		}
		var record model.MemoryRecord
		if unmarshalErr := json.Unmarshal([]byte(jsonData), &record); unmarshalErr != nil {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}
