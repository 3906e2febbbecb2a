// Package repository 提供了数据访问层的实现。
package repository

import (
	"mentorloop-go/internal/model"

	"gorm.io/gorm"
)

// DraftRepository 定义了草稿的持久化操作。
// 状态只会从 pending 走向 released / rejected，行本身永不删除。
type DraftRepository interface {
	Create(draft *model.Draft) error
	FindByID(id string) (*model.Draft, error)
	// FindPendingByConversation 按创建时间降序返回某会话的待审草稿。
	FindPendingByConversation(conversationID uint) ([]model.Draft, error)
	// FindAllPending 按创建时间降序返回系统内全部待审草稿（分诊视图）。
	FindAllPending() ([]model.Draft, error)
	Update(draft *model.Draft) error
	// Promote 在一个事务内把草稿晋升进消息日志：插入消息行并落草稿终态。
	Promote(draft *model.Draft, msg *model.Message) error
}

type draftRepository struct {
	db *gorm.DB
}

// NewDraftRepository 创建一个新的 DraftRepository 实例。
func NewDraftRepository(db *gorm.DB) DraftRepository {
	return &draftRepository{db: db}
}

// Create 持久化一条新草稿。
func (r *draftRepository) Create(draft *model.Draft) error {
	return r.db.Create(draft).Error
}

// FindByID 根据草稿 ID 查找草稿。
func (r *draftRepository) FindByID(id string) (*model.Draft, error) {
	var draft model.Draft
	err := r.db.Where("id = ?", id).First(&draft).Error
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// FindPendingByConversation 按创建时间降序返回某会话的待审草稿。
func (r *draftRepository) FindPendingByConversation(conversationID uint) ([]model.Draft, error) {
	var drafts []model.Draft
	err := r.db.Where("conversation_id = ? AND status = ?", conversationID, model.DraftStatusPending).
		Order("created_at DESC").Find(&drafts).Error
	return drafts, err
}

// FindAllPending 按创建时间降序返回全部待审草稿。
func (r *draftRepository) FindAllPending() ([]model.Draft, error) {
	var drafts []model.Draft
	err := r.db.Where("status = ?", model.DraftStatusPending).
		Order("created_at DESC").Find(&drafts).Error
	return drafts, err
}

// Update 更新一条草稿（内容迭代或状态落终态）。
func (r *draftRepository) Update(draft *model.Draft) error {
	return r.db.Save(draft).Error
}

// Promote 在一个事务内插入晋升消息并更新草稿为 released。
func (r *draftRepository) Promote(draft *model.Draft, msg *model.Message) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Save(draft).Error
	})
}
