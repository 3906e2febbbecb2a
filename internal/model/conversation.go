// Package model 包含了应用的数据模型定义。
package model

import "time"

// Conversation 对应 'conversations' 表。每个学员至多一个会话，
// 首次发消息时按 get-or-create 语义惰性创建。
type Conversation struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	StudentID uint      `gorm:"uniqueIndex;not null" json:"studentId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Conversation) TableName() string {
	return "conversations"
}

// MemoryRecord 是存放在 Redis 中的长期记忆条目，
// 键为 (student, type, key)，覆盖写入时后写者胜出。
type MemoryRecord struct {
	Key       string      `json:"key"`
	Type      string      `json:"type"`
	Value     interface{} `json:"value"`
	UpdatedAt time.Time   `json:"updatedAt"`
}
