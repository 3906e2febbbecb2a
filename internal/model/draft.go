// Package model 包含了应用的数据模型定义。
package model

import "time"

// 草稿生命周期状态。pending 是唯一的活动状态；
// released / rejected 均为终态，没有任何转换回到 pending。
const (
	DraftStatusPending  = "pending"
	DraftStatusReleased = "released"
	DraftStatusRejected = "rejected"
)

// Draft 对应 'drafts' 表：等待导师处置的 AI 草稿。
// 草稿与永久消息日志分表存储，审批通过时复制晋升为一条 role=agent 的
// Message，驳回时保留行并写入终态，保证审计历史不丢失。
type Draft struct {
	ID             string           `gorm:"type:varchar(36);primaryKey" json:"id"`
	ConversationID uint             `gorm:"index;not null" json:"conversationId"`
	StudentID      uint             `gorm:"index;not null" json:"studentId"`
	Content        string           `gorm:"type:text;not null" json:"content"`
	ToolCalls      []ToolCallRecord `gorm:"serializer:json" json:"toolCalls,omitempty"`
	Attachments    []Attachment     `gorm:"serializer:json" json:"attachments,omitempty"`
	Status         string           `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	RejectReason   string           `gorm:"type:varchar(255)" json:"rejectReason,omitempty"`
	// ReleasedMessageID 在晋升后指向日志中的消息，便于追溯。
	ReleasedMessageID string    `gorm:"type:varchar(36)" json:"releasedMessageId,omitempty"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Draft) TableName() string {
	return "drafts"
}

// PendingDraftView 是导师全局分诊视图中的一条记录：
// 草稿本体加上来源学员信息，以及触发它的那条学员消息（按
// “同会话中 createdAt 早于草稿的最近一条 student 消息”启发式关联）。
type PendingDraftView struct {
	Draft          Draft    `json:"draft"`
	StudentName    string   `json:"studentName"`
	StudentPhase   string   `json:"studentPhase"`
	TriggerMessage *Message `json:"triggerMessage,omitempty"`
}
