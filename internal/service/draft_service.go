// Package service 包含了应用的业务逻辑层。
package service

import (
	"errors"
	"fmt"
	"time"

	"mentorloop-go/internal/apperr"
	"mentorloop-go/internal/model"
	"mentorloop-go/internal/repository"
	"mentorloop-go/pkg/log"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 草稿生命周期事件名，推送给导师端的订阅连接。
const (
	DraftEventCreated  = "draft_created"
	DraftEventReleased = "draft_released"
	DraftEventRejected = "draft_rejected"
)

// DraftNotifier 把草稿生命周期事件推给订阅者（导师端 WebSocket）。
// 实现必须是非阻塞的：通知失败绝不影响状态转换本身。
type DraftNotifier interface {
	NotifyDraftEvent(event string, draft *model.Draft)
}

// DraftService 是草稿生命周期的唯一权威：创建、读取、转换
// 全部经由它完成，其他组件不直接改写草稿状态。
type DraftService interface {
	CreateDraft(conversationID, studentID uint, content string, toolCalls []model.ToolCallRecord, attachments []model.Attachment) (*model.Draft, error)
	ListPending(conversationID uint) ([]model.Draft, error)
	// ListAllPending 返回系统内全部待审草稿，并附带来源学员
	// 与触发消息（导师分诊视图）。
	ListAllPending() ([]model.PendingDraftView, error)
	Approve(draftID string, attachments []model.Attachment) (*model.Message, error)
	EditAndApprove(draftID, newContent string, attachments []model.Attachment) (*model.Message, error)
	Reject(draftID, reason string) error
	// UpdateContent 在保持 pending 状态的前提下修改草稿内容（导师迭代编辑）。
	UpdateContent(draftID, content string) (*model.Draft, error)
}

type draftService struct {
	draftRepo   repository.DraftRepository
	messageRepo repository.MessageRepository
	studentRepo repository.StudentRepository
	notifier    DraftNotifier
}

// NewDraftService 创建一个新的 DraftService 实例。
func NewDraftService(
	draftRepo repository.DraftRepository,
	messageRepo repository.MessageRepository,
	studentRepo repository.StudentRepository,
	notifier DraftNotifier,
) DraftService {
	return &draftService{
		draftRepo:   draftRepo,
		messageRepo: messageRepo,
		studentRepo: studentRepo,
		notifier:    notifier,
	}
}

// CreateDraft 持久化一条 pending 草稿。内容为空视为无效输入。
func (s *draftService) CreateDraft(conversationID, studentID uint, content string, toolCalls []model.ToolCallRecord, attachments []model.Attachment) (*model.Draft, error) {
	if content == "" {
		return nil, apperr.InvalidInputf("draft content is empty")
	}
	draft := &model.Draft{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		StudentID:      studentID,
		Content:        content,
		ToolCalls:      toolCalls,
		Attachments:    attachments,
		Status:         model.DraftStatusPending,
	}
	if err := s.draftRepo.Create(draft); err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}
	log.Infof("草稿已创建: draftID=%s, conversationID=%d", draft.ID, conversationID)
	s.notifier.NotifyDraftEvent(DraftEventCreated, draft)
	return draft, nil
}

// ListPending 返回某会话的待审草稿，新的在前。
func (s *draftService) ListPending(conversationID uint) ([]model.Draft, error) {
	return s.draftRepo.FindPendingByConversation(conversationID)
}

// ListAllPending 返回全部待审草稿并补充分诊上下文。
// 触发消息按"同会话中早于草稿创建时间的最近一条学员消息"启发式关联。
func (s *draftService) ListAllPending() ([]model.PendingDraftView, error) {
	drafts, err := s.draftRepo.FindAllPending()
	if err != nil {
		return nil, err
	}
	views := make([]model.PendingDraftView, 0, len(drafts))
	for _, d := range drafts {
		view := model.PendingDraftView{Draft: d}
		if student, serr := s.studentRepo.FindByID(d.StudentID); serr == nil {
			view.StudentName = student.Name
			view.StudentPhase = student.Phase
		}
		trigger, terr := s.messageRepo.FindLastStudentBefore(d.ConversationID, d.CreatedAt)
		if terr != nil {
			log.Warnf("关联触发消息失败: draftID=%s, err=%v", d.ID, terr)
		} else {
			view.TriggerMessage = trigger
		}
		views = append(views, view)
	}
	return views, nil
}

// Approve 把草稿晋升进消息日志。附加附件做增量合并。
// 对已 released 的草稿幂等：直接返回此前晋升出的消息。
func (s *draftService) Approve(draftID string, attachments []model.Attachment) (*model.Message, error) {
	draft, err := s.findDraft(draftID)
	if err != nil {
		return nil, err
	}
	return s.release(draft, draft.Content, attachments)
}

// EditAndApprove 先替换内容再晋升。原草稿以 Subject 头开头而新内容
// 没有时，把原主题行前置回去，保证线程分组在编辑后不漂移。
func (s *draftService) EditAndApprove(draftID, newContent string, attachments []model.Attachment) (*model.Message, error) {
	if newContent == "" {
		return nil, apperr.InvalidInputf("new content is empty")
	}
	draft, err := s.findDraft(draftID)
	if err != nil {
		return nil, err
	}

	content := newContent
	if subject, hadSubject := SubjectLine(draft.Content); hadSubject {
		if _, newHasSubject := SubjectLine(newContent); !newHasSubject {
			content = fmt.Sprintf("%s %s\n\n%s", subjectPrefix, subject, newContent)
		}
	}
	return s.release(draft, content, attachments)
}

// Reject 把草稿落为 rejected 终态，保留行以供审计。
// 重复驳回是无操作；驳回已 released 的草稿是无效输入。
func (s *draftService) Reject(draftID, reason string) error {
	draft, err := s.findDraft(draftID)
	if err != nil {
		return err
	}
	switch draft.Status {
	case model.DraftStatusRejected:
		return nil // 幂等
	case model.DraftStatusReleased:
		return apperr.InvalidInputf("draft %s already released", draftID)
	}

	draft.Status = model.DraftStatusRejected
	draft.RejectReason = reason
	if err := s.draftRepo.Update(draft); err != nil {
		return fmt.Errorf("failed to reject draft: %w", err)
	}
	log.Infof("草稿已驳回: draftID=%s, reason=%s", draftID, reason)
	s.notifier.NotifyDraftEvent(DraftEventRejected, draft)
	return nil
}

// UpdateContent 修改 pending 草稿的内容，不发生状态转换。
func (s *draftService) UpdateContent(draftID, content string) (*model.Draft, error) {
	if content == "" {
		return nil, apperr.InvalidInputf("draft content is empty")
	}
	draft, err := s.findDraft(draftID)
	if err != nil {
		return nil, err
	}
	if draft.Status != model.DraftStatusPending {
		return nil, apperr.InvalidInputf("draft %s is not pending", draftID)
	}
	draft.Content = content
	if err := s.draftRepo.Update(draft); err != nil {
		return nil, fmt.Errorf("failed to update draft content: %w", err)
	}
	return draft, nil
}

// release 是 Approve / EditAndApprove 共用的晋升路径。
func (s *draftService) release(draft *model.Draft, content string, attachments []model.Attachment) (*model.Message, error) {
	switch draft.Status {
	case model.DraftStatusRejected:
		return nil, apperr.InvalidInputf("draft %s already rejected", draft.ID)
	case model.DraftStatusReleased:
		// 幂等：返回此前晋升出的消息
		if draft.ReleasedMessageID != "" {
			if msg, err := s.messageRepo.FindByID(draft.ReleasedMessageID); err == nil {
				return msg, nil
			}
		}
		return nil, apperr.InvalidInputf("draft %s already released", draft.ID)
	}

	now := time.Now()
	msg := &model.Message{
		ID:             uuid.NewString(),
		ConversationID: draft.ConversationID,
		Role:           model.RoleAgent,
		Content:        content,
		ThreadKey:      DeriveSubjectKey(content),
		ToolCalls:      draft.ToolCalls,
		Attachments:    append(append([]model.Attachment{}, draft.Attachments...), attachments...),
		ReleasedAt:     &now,
	}

	draft.Status = model.DraftStatusReleased
	draft.Content = content
	draft.ReleasedMessageID = msg.ID
	if len(attachments) > 0 {
		draft.Attachments = msg.Attachments
	}

	if err := s.draftRepo.Promote(draft, msg); err != nil {
		return nil, fmt.Errorf("failed to promote draft: %w", err)
	}
	log.Infof("草稿已发布: draftID=%s, messageID=%s", draft.ID, msg.ID)
	s.notifier.NotifyDraftEvent(DraftEventReleased, draft)
	return msg, nil
}

// findDraft 把底层的记录缺失统一映射为 NotFound。
func (s *draftService) findDraft(draftID string) (*model.Draft, error) {
	draft, err := s.draftRepo.FindByID(draftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("draft %s", draftID)
		}
		return nil, err
	}
	return draft, nil
}
