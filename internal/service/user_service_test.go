package service

import (
	"testing"

	"mentorloop-go/internal/apperr"
	"mentorloop-go/internal/model"
	"mentorloop-go/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	nextID uint
	users  map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[string]*model.User)}
}

func (r *fakeUserRepo) Create(user *model.User) error {
	user.ID = r.nextID
	r.nextID++
	cp := *user
	r.users[user.Username] = &cp
	return nil
}

func (r *fakeUserRepo) FindByUsername(username string) (*model.User, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) FindByID(userID uint) (*model.User, error) {
	for _, u := range r.users {
		if u.ID == userID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(user *model.User) error {
	cp := *user
	r.users[user.Username] = &cp
	return nil
}

type fakeFollowupRepo struct {
	nextID    uint
	followups map[uint]*model.Followup
}

func newFakeFollowupRepo() *fakeFollowupRepo {
	return &fakeFollowupRepo{nextID: 1, followups: make(map[uint]*model.Followup)}
}

func (r *fakeFollowupRepo) Create(f *model.Followup) error {
	f.ID = r.nextID
	r.nextID++
	cp := *f
	r.followups[f.ID] = &cp
	return nil
}

func (r *fakeFollowupRepo) ListPending() ([]model.Followup, error) {
	var out []model.Followup
	for _, f := range r.followups {
		if !f.Done {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *fakeFollowupRepo) ListByStudent(studentID uint) ([]model.Followup, error) {
	var out []model.Followup
	for _, f := range r.followups {
		if f.StudentID == studentID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *fakeFollowupRepo) MarkDone(id uint) error {
	if f, ok := r.followups[id]; ok {
		f.Done = true
	}
	return nil
}

func newUserFixture() (UserService, *fakeUserRepo, *fakeStudentRepo) {
	userRepo := newFakeUserRepo()
	studentRepo := newFakeStudentRepo()
	jwtManager := token.NewJWTManager("test-secret", 1, 1)
	svc := NewUserService(userRepo, studentRepo, jwtManager, nil)
	return svc, userRepo, studentRepo
}

func TestRegisterCreatesUserAndProfile(t *testing.T) {
	svc, userRepo, studentRepo := newUserFixture()

	user, err := svc.Register("xiaowang", "secret123", "w@example.com", "小王")
	require.NoError(t, err)
	assert.Equal(t, model.UserRoleStudent, user.Role)
	// 密码只存哈希
	assert.NotEqual(t, "secret123", user.Password)

	stored, err := userRepo.FindByUsername("xiaowang")
	require.NoError(t, err)
	assert.Equal(t, "w@example.com", stored.Email)

	// 学员档案随注册创建，固定从 phase1 开始
	profile, err := studentRepo.FindByUserID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "小王", profile.Name)
	assert.Equal(t, model.PhaseOne, profile.Phase)
	assert.False(t, profile.PhaseStartedAt.IsZero())
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	svc, _, _ := newUserFixture()
	_, err := svc.Register("xiaowang", "secret123", "", "")
	require.NoError(t, err)

	_, err = svc.Register("xiaowang", "other", "", "")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestRegisterRejectsEmptyCredentials(t *testing.T) {
	svc, _, _ := newUserFixture()
	_, err := svc.Register("", "pwd", "", "")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = svc.Register("user", "", "", "")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestLoginIssuesTokens(t *testing.T) {
	svc, _, _ := newUserFixture()
	_, err := svc.Register("xiaowang", "secret123", "", "")
	require.NoError(t, err)

	access, refresh, err := svc.Login("xiaowang", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	_, _, err = svc.Login("xiaowang", "wrong")
	assert.Error(t, err)
	_, _, err = svc.Login("nobody", "secret123")
	assert.Error(t, err)
}

func TestRefreshTokenIssuesNewPair(t *testing.T) {
	svc, _, _ := newUserFixture()
	_, err := svc.Register("xiaowang", "secret123", "", "")
	require.NoError(t, err)

	_, refresh, err := svc.Login("xiaowang", "secret123")
	require.NoError(t, err)

	newAccess, newRefresh, err := svc.RefreshToken(refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, newAccess)
	assert.NotEmpty(t, newRefresh)

	_, _, err = svc.RefreshToken("garbage")
	assert.Error(t, err)
}

func TestStudentServicePhaseTransition(t *testing.T) {
	studentRepo := newFakeStudentRepo()
	followupRepo := newFakeFollowupRepo()
	svc := NewStudentService(studentRepo, followupRepo)

	require.NoError(t, studentRepo.Create(&model.Student{ID: 1, Phase: model.PhaseOne}))

	student, err := svc.MarkPhaseComplete(1)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseTwo, student.Phase)
	assert.False(t, student.PhaseStartedAt.IsZero())

	// 已在 phase2 的学员重复标记是无效输入
	_, err = svc.MarkPhaseComplete(1)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.MarkPhaseComplete(99)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStudentServiceResearchTopic(t *testing.T) {
	studentRepo := newFakeStudentRepo()
	svc := NewStudentService(studentRepo, newFakeFollowupRepo())
	require.NoError(t, studentRepo.Create(&model.Student{ID: 1, Phase: model.PhaseTwo}))

	student, err := svc.SetResearchTopic(1, "图神经网络")
	require.NoError(t, err)
	assert.Equal(t, "图神经网络", student.ResearchTopic)

	_, err = svc.SetResearchTopic(1, "")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}
