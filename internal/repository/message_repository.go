// Package repository 提供了数据访问层的实现。
package repository

import (
	"time"

	"mentorloop-go/internal/model"

	"gorm.io/gorm"
)

// MessageRepository 定义了已发布消息日志的操作接口。
// 日志是追加式的：只有 Create，没有任何更新或删除入口。
type MessageRepository interface {
	Create(msg *model.Message) error
	FindByID(id string) (*model.Message, error)
	// FindByConversation 按创建时间升序返回会话内全部消息。
	FindByConversation(conversationID uint) ([]model.Message, error)
	// FindRecent 按创建时间降序返回会话内最近 limit 条消息。
	FindRecent(conversationID uint, limit int) ([]model.Message, error)
	// FindLastStudentBefore 返回会话内 createdAt 早于 t 的最近一条学员消息，
	// 用于把草稿启发式关联到触发它的那条提问。没有命中时返回 nil。
	FindLastStudentBefore(conversationID uint, t time.Time) (*model.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建一个新的 MessageRepository 实例。
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create 追加一条消息到日志。
func (r *messageRepository) Create(msg *model.Message) error {
	return r.db.Create(msg).Error
}

// FindByID 根据消息 ID 查找消息。
func (r *messageRepository) FindByID(id string) (*model.Message, error) {
	var msg model.Message
	err := r.db.Where("id = ?", id).First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// FindByConversation 按创建时间升序返回会话内全部消息。
func (r *messageRepository) FindByConversation(conversationID uint) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC").Find(&msgs).Error
	return msgs, err
}

// FindRecent 按创建时间降序返回会话内最近 limit 条消息。
func (r *messageRepository) FindRecent(conversationID uint, limit int) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at DESC").Limit(limit).Find(&msgs).Error
	return msgs, err
}

// FindLastStudentBefore 返回会话内早于 t 的最近一条学员消息。
func (r *messageRepository) FindLastStudentBefore(conversationID uint, t time.Time) (*model.Message, error) {
	var msg model.Message
	err := r.db.Where("conversation_id = ? AND role = ? AND created_at < ?",
		conversationID, model.RoleStudent, t).
		Order("created_at DESC").First(&msg).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}
