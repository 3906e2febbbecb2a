// Package repository 提供了数据访问层的实现。
package repository

import (
	"errors"

	"mentorloop-go/internal/model"

	"gorm.io/gorm"
)

// ConversationRepository 定义了会话记录的操作接口。
// 每个学员至多一个会话，唯一索引兜底 get-or-create 的并发竞争。
type ConversationRepository interface {
	GetOrCreate(studentID uint) (*model.Conversation, error)
	FindByID(id uint) (*model.Conversation, error)
	FindByStudentID(studentID uint) (*model.Conversation, error)
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// GetOrCreate 获取或惰性创建该学员的会话。
func (r *conversationRepository) GetOrCreate(studentID uint) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.Where("student_id = ?", studentID).First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	conv = model.Conversation{StudentID: studentID}
	if createErr := r.db.Create(&conv).Error; createErr != nil {
		// 并发创建时唯一索引冲突：重读已有记录
		var existing model.Conversation
		if findErr := r.db.Where("student_id = ?", studentID).First(&existing).Error; findErr == nil {
			return &existing, nil
		}
		return nil, createErr
	}
	return &conv, nil
}

// FindByID 根据会话 ID 查找会话。
func (r *conversationRepository) FindByID(id uint) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.First(&conv, id).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindByStudentID 根据学员 ID 查找会话。
func (r *conversationRepository) FindByStudentID(studentID uint) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.Where("student_id = ?", studentID).First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}
