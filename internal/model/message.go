// Package model 包含了应用的数据模型定义。
package model

import "time"

// 消息角色常量。student 消息由学员提交，agent 消息由草稿晋升产生。
const (
	RoleStudent = "student"
	RoleAgent   = "agent"
	RoleMentor  = "mentor"
	RoleSystem  = "system"
)

// Attachment 描述一条消息携带的附件引用。
type Attachment struct {
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	MimeType    string `json:"mimeType"`
	StoragePath string `json:"storagePath"`
}

// ToolCallRecord 记录草稿生成期间一次工具调用的 {name, input, result} 三元组。
// 导师审核界面依赖它展示本轮产生了哪些副作用（PDF、语音条等）。
type ToolCallRecord struct {
	Name   string                 `json:"name"`
	Input  map[string]interface{} `json:"input"`
	Result ToolResult             `json:"result"`
}

// ToolResult 是工具处理器的结构化返回。
type ToolResult struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Message 对应 'messages' 表，是追加式的已发布消息日志。
// 出现在这张表里本身就意味着对学员可见：草稿存放在独立的 drafts 表，
// 只有审批通过后才会被复制晋升到这里，因此不需要 status 字段。
type Message struct {
	ID             string           `gorm:"type:varchar(36);primaryKey" json:"id"`
	ConversationID uint             `gorm:"index;not null" json:"conversationId"`
	Role           string           `gorm:"type:varchar(16);not null" json:"role"`
	Content        string           `gorm:"type:text;not null" json:"content"`
	// ThreadKey 在创建时由 DeriveSubjectKey 推导一次后固化，读取端不再重算。
	ThreadKey   string           `gorm:"type:varchar(64);index" json:"threadKey"`
	ToolCalls   []ToolCallRecord `gorm:"serializer:json" json:"toolCalls,omitempty"`
	Attachments []Attachment     `gorm:"serializer:json" json:"attachments,omitempty"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"createdAt"`
	// ReleasedAt 仅对由草稿晋升而来的 agent 消息有值，记录审批时刻。
	ReleasedAt *time.Time `gorm:"default:null" json:"releasedAt,omitempty"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Message) TableName() string {
	return "messages"
}
