// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"time"

	"mentorloop-go/internal/model"

	"gorm.io/gorm"
)

// StudentRepository 接口定义了学员档案的持久化操作。
type StudentRepository interface {
	Create(student *model.Student) error
	FindByID(id uint) (*model.Student, error)
	FindByUserID(userID uint) (*model.Student, error)
	Update(student *model.Student) error
	FindAll() ([]model.Student, error)
	// FindInactiveSince 返回最后活跃时间早于 cutoff 的学员（跟进扫描用）。
	FindInactiveSince(cutoff time.Time) ([]model.Student, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository 创建一个新的 StudentRepository 实例。
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

// Create 在数据库中创建一个新的学员档案。
func (r *studentRepository) Create(student *model.Student) error {
	return r.db.Create(student).Error
}

// FindByID 根据学员 ID 查找档案。
func (r *studentRepository) FindByID(id uint) (*model.Student, error) {
	var student model.Student
	err := r.db.First(&student, id).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByUserID 根据账户 ID 查找学员档案。
func (r *studentRepository) FindByUserID(userID uint) (*model.Student, error) {
	var student model.Student
	err := r.db.Where("user_id = ?", userID).First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// Update 更新一条已存在的学员档案。
func (r *studentRepository) Update(student *model.Student) error {
	return r.db.Save(student).Error
}

// FindAll 检索所有学员档案。
func (r *studentRepository) FindAll() ([]model.Student, error) {
	var students []model.Student
	err := r.db.Find(&students).Error
	return students, err
}

// FindInactiveSince 返回最后活跃时间早于 cutoff 的学员。
func (r *studentRepository) FindInactiveSince(cutoff time.Time) ([]model.Student, error) {
	var students []model.Student
	err := r.db.Where("last_active_at < ?", cutoff).Find(&students).Error
	return students, err
}
