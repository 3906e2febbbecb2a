package service

import (
	"errors"
	"time"

	"mentorloop-go/internal/apperr"
	"mentorloop-go/internal/model"
	"mentorloop-go/internal/repository"
	"mentorloop-go/pkg/log"

	"gorm.io/gorm"
)

// inactiveDefaultDays 是未指定阈值时判定学员不活跃的天数。
const inactiveDefaultDays = 7

// StudentService 接口定义了学员档案与阶段进度相关的业务操作。
type StudentService interface {
	GetByUserID(userID uint) (*model.Student, error)
	GetByID(id uint) (*model.Student, error)
	ListAll() ([]model.Student, error)
	// MarkPhaseComplete 将 phase1 学员转入 phase2，并重置阶段起始时间。
	MarkPhaseComplete(studentID uint) (*model.Student, error)
	SetResearchTopic(studentID uint, topic string) (*model.Student, error)
	// ListInactive 返回超过 days 天没有发过消息的学员，days<=0 时使用默认阈值。
	ListInactive(days int) ([]model.Student, error)
	ListFollowups(studentID uint) ([]model.Followup, error)
	ListPendingFollowups() ([]model.Followup, error)
	ResolveFollowup(followupID uint) error
}

type studentService struct {
	studentRepo  repository.StudentRepository
	followupRepo repository.FollowupRepository
}

// NewStudentService 创建一个新的 StudentService 实例。
func NewStudentService(studentRepo repository.StudentRepository, followupRepo repository.FollowupRepository) StudentService {
	return &studentService{
		studentRepo:  studentRepo,
		followupRepo: followupRepo,
	}
}

func (s *studentService) GetByUserID(userID uint) (*model.Student, error) {
	student, err := s.studentRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("用户 %d 没有学员档案", userID)
		}
		return nil, err
	}
	return student, nil
}

func (s *studentService) GetByID(id uint) (*model.Student, error) {
	student, err := s.studentRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("学员 %d 不存在", id)
		}
		return nil, err
	}
	return student, nil
}

func (s *studentService) ListAll() ([]model.Student, error) {
	return s.studentRepo.FindAll()
}

// MarkPhaseComplete 由导师触发：phase1 学员升入 phase2。
// 已处于 phase2 的学员再次标记视为无效输入，不产生任何写入。
func (s *studentService) MarkPhaseComplete(studentID uint) (*model.Student, error) {
	student, err := s.GetByID(studentID)
	if err != nil {
		return nil, err
	}
	if student.Phase != model.PhaseOne {
		return nil, apperr.InvalidInputf("学员 %d 已处于 %s 阶段", studentID, student.Phase)
	}

	student.Phase = model.PhaseTwo
	student.PhaseStartedAt = time.Now()
	if err := s.studentRepo.Update(student); err != nil {
		return nil, err
	}
	log.Infof("[StudentService] 学员 %d 进入 phase2", studentID)
	return student, nil
}

func (s *studentService) SetResearchTopic(studentID uint, topic string) (*model.Student, error) {
	if topic == "" {
		return nil, apperr.InvalidInputf("研究方向不能为空")
	}
	student, err := s.GetByID(studentID)
	if err != nil {
		return nil, err
	}
	student.ResearchTopic = topic
	if err := s.studentRepo.Update(student); err != nil {
		return nil, err
	}
	return student, nil
}

func (s *studentService) ListInactive(days int) ([]model.Student, error) {
	if days <= 0 {
		days = inactiveDefaultDays
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	return s.studentRepo.FindInactiveSince(cutoff)
}

func (s *studentService) ListFollowups(studentID uint) ([]model.Followup, error) {
	return s.followupRepo.ListByStudent(studentID)
}

func (s *studentService) ListPendingFollowups() ([]model.Followup, error) {
	return s.followupRepo.ListPending()
}

func (s *studentService) ResolveFollowup(followupID uint) error {
	return s.followupRepo.MarkDone(followupID)
}
