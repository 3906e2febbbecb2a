package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"mentorloop-go/internal/config"
	"mentorloop-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMemoryRepo struct {
	records map[string]*model.MemoryRecord
}

func newFakeMemoryRepo() *fakeMemoryRepo {
	return &fakeMemoryRepo{records: make(map[string]*model.MemoryRecord)}
}

func (r *fakeMemoryRepo) key(studentID uint, memType, key string) string {
	return memType + ":" + key
}

func (r *fakeMemoryRepo) Get(ctx context.Context, studentID uint, memType, key string) (*model.MemoryRecord, error) {
	rec, ok := r.records[r.key(studentID, memType, key)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeMemoryRepo) Set(ctx context.Context, studentID uint, memType, key string, value interface{}) error {
	r.records[r.key(studentID, memType, key)] = &model.MemoryRecord{
		Key: key, Type: memType, Value: value, UpdatedAt: time.Now(),
	}
	return nil
}

func (r *fakeMemoryRepo) ListByStudent(ctx context.Context, studentID uint) ([]model.MemoryRecord, error) {
	var out []model.MemoryRecord
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	return out, nil
}

type fakeCatalog struct {
	resources []model.Resource
}

func (c *fakeCatalog) FindByPhase(ctx context.Context, phase string) ([]model.Resource, error) {
	var out []model.Resource
	for _, r := range c.resources {
		if r.Phase == phase {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestAssembleSystemMessageContent(t *testing.T) {
	messageRepo := newFakeMessageRepo()
	memoryRepo := newFakeMemoryRepo()
	require.NoError(t, memoryRepo.Set(context.Background(), 1, "fact", "interests", "强化学习"))
	catalog := &fakeCatalog{resources: []model.Resource{
		{ResourceID: "p1-video", Phase: model.PhaseOne, Category: "video", Title: "核心课程", Summary: "必修视频"},
		{ResourceID: "p2-paper", Phase: model.PhaseTwo, Category: "reading", Title: "论文清单", Summary: "研究阶段"},
	}}

	assembler := NewContextAssembler(messageRepo, memoryRepo, catalog)
	student := &model.Student{ID: 1, Phase: model.PhaseOne, VideosWatched: 5, PhaseStartedAt: time.Now()}

	messages, err := assembler.Assemble(context.Background(), student, 1, []string{"附件正文摘录"})
	require.NoError(t, err)
	require.NotEmpty(t, messages)

	sys := messages[0]
	assert.Equal(t, "system", sys.Role)
	// 阶段规则、记忆、资源目录、附件摘录都应出现在 system 消息里
	assert.Contains(t, sys.Content, "phase1")
	assert.Contains(t, sys.Content, "interests")
	assert.Contains(t, sys.Content, "核心课程")
	assert.NotContains(t, sys.Content, "论文清单") // 其他阶段的资源不注入
	assert.Contains(t, sys.Content, "附件正文摘录")
}

func TestAssembleHistoryIsChronological(t *testing.T) {
	messageRepo := newFakeMessageRepo()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, messageRepo.Create(&model.Message{ID: "m1", ConversationID: 1, Role: model.RoleStudent, Content: "第一问", CreatedAt: base}))
	require.NoError(t, messageRepo.Create(&model.Message{ID: "m2", ConversationID: 1, Role: model.RoleAgent, Content: "第一答", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, messageRepo.Create(&model.Message{ID: "m3", ConversationID: 1, Role: model.RoleStudent, Content: "第二问", CreatedAt: base.Add(2 * time.Minute)}))

	assembler := NewContextAssembler(messageRepo, newFakeMemoryRepo(), &fakeCatalog{})
	student := &model.Student{ID: 1, Phase: model.PhaseOne, PhaseStartedAt: time.Now()}

	messages, err := assembler.Assemble(context.Background(), student, 1, nil)
	require.NoError(t, err)
	require.Len(t, messages, 4) // system + 3 条历史

	assert.Equal(t, "user", messages[1].Role)
	assert.Equal(t, "第一问", messages[1].Content)
	assert.Equal(t, "assistant", messages[2].Role)
	assert.Equal(t, "user", messages[3].Role)
	assert.Equal(t, "第二问", messages[3].Content)
}

func TestPhaseRulesPhaseOne(t *testing.T) {
	student := &model.Student{Phase: model.PhaseOne, VideosWatched: 12, PhaseStartedAt: time.Now().AddDate(0, 0, -5)}
	rules := PhaseRules(student, time.Now())
	assert.Contains(t, rules, "phase1")
	assert.Contains(t, rules, "12")
	assert.NotContains(t, rules, "提示")
}

func TestPhaseRulesPhaseOneAdvisory(t *testing.T) {
	config.Conf.Agent.Phase1AdvisoryDays = 30
	student := &model.Student{Phase: model.PhaseOne, PhaseStartedAt: time.Now().AddDate(0, 0, -45)}
	rules := PhaseRules(student, time.Now())
	assert.Contains(t, rules, "提示")
	assert.Contains(t, rules, "45")
}

func TestPhaseRulesPhaseTwo(t *testing.T) {
	config.Conf.Agent.Phase2AdvisoryDays = 60
	student := &model.Student{Phase: model.PhaseTwo, ResearchTopic: "图神经网络", PhaseStartedAt: time.Now().AddDate(0, 0, -10)}
	rules := PhaseRules(student, time.Now())
	assert.Contains(t, rules, "phase2")
	assert.Contains(t, rules, "图神经网络")
	assert.False(t, strings.Contains(rules, "提示"))

	// 超过阈值后出现收尾提示
	student.PhaseStartedAt = time.Now().AddDate(0, 0, -90)
	rules = PhaseRules(student, time.Now())
	assert.Contains(t, rules, "提示")
}
