// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mentorloop-go/internal/apperr"
	"mentorloop-go/internal/model"
	"mentorloop-go/internal/repository"
	"mentorloop-go/pkg/kafka"
	"mentorloop-go/pkg/log"
	"mentorloop-go/pkg/tasks"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskProducer 抽象了草稿生成任务的投递（Kafka 生产者）。
type TaskProducer interface {
	ProduceDraftTask(task tasks.DraftGenerationTask) error
}

// KafkaTaskProducer 是基于 pkg/kafka 全局生产者的默认实现。
type KafkaTaskProducer struct{}

// ProduceDraftTask 投递一个草稿生成任务。
func (KafkaTaskProducer) ProduceDraftTask(task tasks.DraftGenerationTask) error {
	return kafka.ProduceDraftTask(task)
}

// ConversationService 定义了学员侧会话操作的接口。
type ConversationService interface {
	// SubmitStudentMessage 落库一条学员消息并触发后台草稿生成，
	// 立即返回已持久化的消息供客户端与乐观回显对账。
	SubmitStudentMessage(ctx context.Context, student *model.Student, content string, attachments []model.Attachment) (*model.Message, error)
	// ListVisibleMessages 返回学员可见的全部消息。草稿存放在独立的
	// drafts 表，消息日志里结构上不可能出现未审内容。
	ListVisibleMessages(studentID uint) ([]model.Message, error)
	// ListThreads 返回按派生主题键分组的线程视图（读取时投影）。
	ListThreads(studentID uint) ([]model.ThreadView, error)
}

type conversationService struct {
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository
	studentRepo      repository.StudentRepository
	producer         TaskProducer
}

// NewConversationService 创建一个新的 ConversationService 实例。
func NewConversationService(
	conversationRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	studentRepo repository.StudentRepository,
	producer TaskProducer,
) ConversationService {
	return &conversationService{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		studentRepo:      studentRepo,
		producer:         producer,
	}
}

// SubmitStudentMessage 持久化学员消息并投递生成任务。
// 学员消息不经过草稿门禁：落库即可见（role=student 永远不进草稿态）。
func (s *conversationService) SubmitStudentMessage(ctx context.Context, student *model.Student, content string, attachments []model.Attachment) (*model.Message, error) {
	if content == "" {
		return nil, apperr.InvalidInputf("message content is empty")
	}

	conv, err := s.conversationRepo.GetOrCreate(student.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create conversation: %w", err)
	}

	msg := &model.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           model.RoleStudent,
		Content:        content,
		ThreadKey:      DeriveSubjectKey(content),
		Attachments:    attachments,
	}
	if err := s.messageRepo.Create(msg); err != nil {
		return nil, fmt.Errorf("failed to persist student message: %w", err)
	}

	// 活跃时间只在提交路径更新；失败不影响消息本身
	student.LastActiveAt = time.Now()
	if err := s.studentRepo.Update(student); err != nil {
		log.Warnf("更新学员活跃时间失败: studentID=%d, err=%v", student.ID, err)
	}

	// 异步触发草稿生成。投递失败对学员静默：本轮不会出现 AI 回复，
	// 由导师侧通过日志发现并补发。
	task := tasks.DraftGenerationTask{
		MessageID:      msg.ID,
		ConversationID: conv.ID,
		StudentID:      student.ID,
	}
	if err := s.producer.ProduceDraftTask(task); err != nil {
		log.Errorf("投递草稿生成任务失败: messageID=%s, err=%v", msg.ID, err)
	}

	return msg, nil
}

// ListVisibleMessages 按时间升序返回学员会话内的全部已发布消息。
func (s *conversationService) ListVisibleMessages(studentID uint) ([]model.Message, error) {
	conv, err := s.conversationRepo.FindByStudentID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []model.Message{}, nil // 还没有会话
		}
		return nil, err
	}
	return s.messageRepo.FindByConversation(conv.ID)
}

// ListThreads 把可见消息投影为线程视图。
func (s *conversationService) ListThreads(studentID uint) ([]model.ThreadView, error) {
	messages, err := s.ListVisibleMessages(studentID)
	if err != nil {
		return nil, err
	}
	return ProjectThreads(messages), nil
}
