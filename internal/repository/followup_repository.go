// Package repository 提供了数据访问层的实现。
package repository

import (
	"mentorloop-go/internal/model"

	"gorm.io/gorm"
)

// FollowupRepository 定义了跟进提醒的持久化操作。
type FollowupRepository interface {
	Create(f *model.Followup) error
	ListPending() ([]model.Followup, error)
	ListByStudent(studentID uint) ([]model.Followup, error)
	MarkDone(id uint) error
}

type followupRepository struct {
	db *gorm.DB
}

// NewFollowupRepository 创建一个新的 FollowupRepository 实例。
func NewFollowupRepository(db *gorm.DB) FollowupRepository {
	return &followupRepository{db: db}
}

// Create 写入一条跟进提醒。
func (r *followupRepository) Create(f *model.Followup) error {
	return r.db.Create(f).Error
}

// ListPending 按到期时间升序返回全部未完成的跟进提醒。
func (r *followupRepository) ListPending() ([]model.Followup, error) {
	var fs []model.Followup
	err := r.db.Where("done = ?", false).Order("due_at ASC").Find(&fs).Error
	return fs, err
}

// ListByStudent 返回某学员的全部跟进提醒。
func (r *followupRepository) ListByStudent(studentID uint) ([]model.Followup, error) {
	var fs []model.Followup
	err := r.db.Where("student_id = ?", studentID).Order("due_at ASC").Find(&fs).Error
	return fs, err
}

// MarkDone 将一条跟进提醒标记为已处理。
func (r *followupRepository) MarkDone(id uint) error {
	return r.db.Model(&model.Followup{}).Where("id = ?", id).Update("done", true).Error
}
