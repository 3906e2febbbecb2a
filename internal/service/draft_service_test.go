package service

import (
	"sort"
	"testing"
	"time"

	"mentorloop-go/internal/apperr"
	"mentorloop-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ---- 内存版仓储，替代 MySQL ----

type fakeDraftRepo struct {
	drafts map[string]*model.Draft
	// promoted 记录 Promote 落下的消息，模拟事务成功
	promoted []*model.Message
}

func newFakeDraftRepo() *fakeDraftRepo {
	return &fakeDraftRepo{drafts: make(map[string]*model.Draft)}
}

func (r *fakeDraftRepo) Create(draft *model.Draft) error {
	cp := *draft
	r.drafts[draft.ID] = &cp
	return nil
}

func (r *fakeDraftRepo) FindByID(id string) (*model.Draft, error) {
	d, ok := r.drafts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDraftRepo) FindPendingByConversation(conversationID uint) ([]model.Draft, error) {
	var out []model.Draft
	for _, d := range r.drafts {
		if d.ConversationID == conversationID && d.Status == model.DraftStatusPending {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDraftRepo) FindAllPending() ([]model.Draft, error) {
	var out []model.Draft
	for _, d := range r.drafts {
		if d.Status == model.DraftStatusPending {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDraftRepo) Update(draft *model.Draft) error {
	cp := *draft
	r.drafts[draft.ID] = &cp
	return nil
}

func (r *fakeDraftRepo) Promote(draft *model.Draft, msg *model.Message) error {
	cp := *draft
	r.drafts[draft.ID] = &cp
	mcp := *msg
	r.promoted = append(r.promoted, &mcp)
	return nil
}

type fakeMessageRepo struct {
	messages map[string]*model.Message
	clock    time.Time
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		messages: make(map[string]*model.Message),
		clock:    time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

// Create 模拟 autoCreateTime：未显式给出时间时按递增时钟补齐。
func (r *fakeMessageRepo) Create(msg *model.Message) error {
	cp := *msg
	if cp.CreatedAt.IsZero() {
		r.clock = r.clock.Add(time.Second)
		cp.CreatedAt = r.clock
	}
	r.messages[msg.ID] = &cp
	return nil
}

func (r *fakeMessageRepo) FindByID(id string) (*model.Message, error) {
	m, ok := r.messages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMessageRepo) FindByConversation(conversationID uint) ([]model.Message, error) {
	var out []model.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			out = append(out, *m)
		}
	}
	// 接口契约：时间升序
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeMessageRepo) FindRecent(conversationID uint, limit int) ([]model.Message, error) {
	msgs, _ := r.FindByConversation(conversationID)
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	// 接口契约：时间降序
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt.After(msgs[j].CreatedAt) })
	return msgs, nil
}

func (r *fakeMessageRepo) FindLastStudentBefore(conversationID uint, t time.Time) (*model.Message, error) {
	var last *model.Message
	for _, m := range r.messages {
		if m.ConversationID != conversationID || m.Role != model.RoleStudent {
			continue
		}
		if m.CreatedAt.After(t) {
			continue
		}
		if last == nil || m.CreatedAt.After(last.CreatedAt) {
			cp := *m
			last = &cp
		}
	}
	return last, nil
}

type fakeStudentRepo struct {
	students map[uint]*model.Student
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{students: make(map[uint]*model.Student)}
}

func (r *fakeStudentRepo) Create(s *model.Student) error {
	cp := *s
	r.students[s.ID] = &cp
	return nil
}

func (r *fakeStudentRepo) FindByID(id uint) (*model.Student, error) {
	s, ok := r.students[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeStudentRepo) FindByUserID(userID uint) (*model.Student, error) {
	for _, s := range r.students {
		if s.UserID == userID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeStudentRepo) Update(s *model.Student) error {
	cp := *s
	r.students[s.ID] = &cp
	return nil
}

func (r *fakeStudentRepo) FindAll() ([]model.Student, error) {
	var out []model.Student
	for _, s := range r.students {
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeStudentRepo) FindInactiveSince(cutoff time.Time) ([]model.Student, error) {
	var out []model.Student
	for _, s := range r.students {
		if s.LastActiveAt.Before(cutoff) {
			out = append(out, *s)
		}
	}
	return out, nil
}

// spyNotifier 记录广播出的事件序列。
type spyNotifier struct {
	events []string
}

func (n *spyNotifier) NotifyDraftEvent(event string, draft *model.Draft) {
	n.events = append(n.events, event)
}

func newDraftFixture() (DraftService, *fakeDraftRepo, *fakeMessageRepo, *spyNotifier) {
	draftRepo := newFakeDraftRepo()
	messageRepo := newFakeMessageRepo()
	studentRepo := newFakeStudentRepo()
	notifier := &spyNotifier{}
	svc := NewDraftService(draftRepo, messageRepo, studentRepo, notifier)
	return svc, draftRepo, messageRepo, notifier
}

func TestCreateDraftRejectsEmptyContent(t *testing.T) {
	svc, _, _, _ := newDraftFixture()
	_, err := svc.CreateDraft(1, 1, "", nil, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestCreateDraftIsPending(t *testing.T) {
	svc, _, _, notifier := newDraftFixture()
	draft, err := svc.CreateDraft(1, 1, "Subject: 答疑\n\n建议先复习第 3 讲。", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, model.DraftStatusPending, draft.Status)
	assert.NotEmpty(t, draft.ID)
	assert.Equal(t, []string{DraftEventCreated}, notifier.events)
}

func TestApprovePromotesDraftToMessage(t *testing.T) {
	svc, draftRepo, _, notifier := newDraftFixture()
	draft, err := svc.CreateDraft(7, 1, "Subject: 梯度消失\n\n试试梯度裁剪。", nil, nil)
	require.NoError(t, err)

	msg, err := svc.Approve(draft.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAgent, msg.Role)
	assert.Equal(t, uint(7), msg.ConversationID)
	assert.Equal(t, "梯度消失", msg.ThreadKey)
	require.NotNil(t, msg.ReleasedAt)

	stored, err := draftRepo.FindByID(draft.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DraftStatusReleased, stored.Status)
	assert.Equal(t, msg.ID, stored.ReleasedMessageID)
	assert.Equal(t, []string{DraftEventCreated, DraftEventReleased}, notifier.events)
}

func TestApproveIsIdempotent(t *testing.T) {
	svc, _, messageRepo, _ := newDraftFixture()
	draft, err := svc.CreateDraft(1, 1, "内容", nil, nil)
	require.NoError(t, err)

	first, err := svc.Approve(draft.ID, nil)
	require.NoError(t, err)
	// 幂等依赖消息日志里能查到此前晋升的行
	require.NoError(t, messageRepo.Create(first))

	second, err := svc.Approve(draft.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestApproveMergesAttachmentsAdditively(t *testing.T) {
	svc, _, _, _ := newDraftFixture()
	toolAtt := model.Attachment{Filename: "roadmap.pdf", StoragePath: "roadmaps/1/a.pdf"}
	draft, err := svc.CreateDraft(1, 1, "路线图在附件里。", nil, []model.Attachment{toolAtt})
	require.NoError(t, err)

	mentorAtt := model.Attachment{Filename: "补充.pdf", StoragePath: "extra/b.pdf"}
	msg, err := svc.Approve(draft.ID, []model.Attachment{mentorAtt})
	require.NoError(t, err)
	require.Len(t, msg.Attachments, 2)
	assert.Equal(t, "roadmap.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, "补充.pdf", msg.Attachments[1].Filename)
}

func TestEditAndApprovePreservesSubject(t *testing.T) {
	svc, _, _, _ := newDraftFixture()
	draft, err := svc.CreateDraft(1, 1, "Subject: 选题建议\n\n初稿内容。", nil, nil)
	require.NoError(t, err)

	msg, err := svc.EditAndApprove(draft.ID, "导师改写后的内容。", nil)
	require.NoError(t, err)
	subject, ok := SubjectLine(msg.Content)
	require.True(t, ok)
	assert.Equal(t, "选题建议", subject)
	// 分组键不因编辑而漂移
	assert.Equal(t, "选题建议", msg.ThreadKey)
}

func TestEditAndApproveKeepsNewSubject(t *testing.T) {
	svc, _, _, _ := newDraftFixture()
	draft, err := svc.CreateDraft(1, 1, "Subject: 旧主题\n\n初稿。", nil, nil)
	require.NoError(t, err)

	msg, err := svc.EditAndApprove(draft.ID, "Subject: 新主题\n\n改写。", nil)
	require.NoError(t, err)
	assert.Equal(t, "新主题", msg.ThreadKey)
}

func TestRejectSemantics(t *testing.T) {
	svc, draftRepo, _, _ := newDraftFixture()
	draft, err := svc.CreateDraft(1, 1, "不合适的回复", nil, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Reject(draft.ID, "语气不对"))
	stored, _ := draftRepo.FindByID(draft.ID)
	assert.Equal(t, model.DraftStatusRejected, stored.Status)
	assert.Equal(t, "语气不对", stored.RejectReason)

	// 重复驳回是无操作
	require.NoError(t, svc.Reject(draft.ID, "再驳一次"))
	stored, _ = draftRepo.FindByID(draft.ID)
	assert.Equal(t, "语气不对", stored.RejectReason)

	// 驳回后不能再批准
	_, err = svc.Approve(draft.ID, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestRejectReleasedDraftFails(t *testing.T) {
	svc, _, _, _ := newDraftFixture()
	draft, err := svc.CreateDraft(1, 1, "内容", nil, nil)
	require.NoError(t, err)
	_, err = svc.Approve(draft.ID, nil)
	require.NoError(t, err)

	err = svc.Reject(draft.ID, "来晚了")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestUnknownDraftIsNotFound(t *testing.T) {
	svc, _, _, _ := newDraftFixture()
	_, err := svc.Approve("no-such-draft", nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	err = svc.Reject("no-such-draft", "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateContentOnlyWhilePending(t *testing.T) {
	svc, _, _, _ := newDraftFixture()
	draft, err := svc.CreateDraft(1, 1, "第一版", nil, nil)
	require.NoError(t, err)

	updated, err := svc.UpdateContent(draft.ID, "第二版")
	require.NoError(t, err)
	assert.Equal(t, "第二版", updated.Content)
	assert.Equal(t, model.DraftStatusPending, updated.Status)

	_, err = svc.Approve(draft.ID, nil)
	require.NoError(t, err)
	_, err = svc.UpdateContent(draft.ID, "第三版")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}
