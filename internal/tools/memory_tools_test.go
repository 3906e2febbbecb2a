package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"mentorloop-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo 是 MemoryRepository 的内存实现。
type memRepo struct {
	records map[string]*model.MemoryRecord
	getErr  error
	setErr  error
	sets    int
}

func newMemRepo() *memRepo {
	return &memRepo{records: make(map[string]*model.MemoryRecord)}
}

func (r *memRepo) addr(studentID uint, memType, key string) string {
	return memType + ":" + key
}

func (r *memRepo) Get(ctx context.Context, studentID uint, memType, key string) (*model.MemoryRecord, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	rec, ok := r.records[r.addr(studentID, memType, key)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *memRepo) Set(ctx context.Context, studentID uint, memType, key string, value interface{}) error {
	if r.setErr != nil {
		return r.setErr
	}
	r.sets++
	r.records[r.addr(studentID, memType, key)] = &model.MemoryRecord{
		Key: key, Type: memType, Value: value, UpdatedAt: time.Now(),
	}
	return nil
}

func (r *memRepo) ListByStudent(ctx context.Context, studentID uint) ([]model.MemoryRecord, error) {
	var out []model.MemoryRecord
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	return out, nil
}

var toolCtx = Context{StudentID: 1, Phase: model.PhaseOne}

func TestGetMemoryAbsentKeyIsNullNotError(t *testing.T) {
	tool := NewGetMemoryTool(newMemRepo())
	result := tool.Execute(context.Background(), toolCtx, map[string]interface{}{"key": "interests"})
	require.True(t, result.Success)
	assert.Equal(t, "interests", result.Data["key"])
	assert.Nil(t, result.Data["value"])
}

func TestGetMemoryMissingParamDoesNotTouchRepo(t *testing.T) {
	repo := newMemRepo()
	repo.getErr = errors.New("repo must not be called")
	tool := NewGetMemoryTool(repo)

	result := tool.Execute(context.Background(), toolCtx, map[string]interface{}{})
	assert.False(t, result.Success)
	assert.Equal(t, "Missing required parameter: key", result.Error)
}

func TestSetMemoryUpsertIsLastWriteWins(t *testing.T) {
	repo := newMemRepo()
	tool := NewSetMemoryTool(repo)

	r1 := tool.Execute(context.Background(), toolCtx, map[string]interface{}{"key": "interests", "value": "CV"})
	require.True(t, r1.Success)
	r2 := tool.Execute(context.Background(), toolCtx, map[string]interface{}{"key": "interests", "value": "NLP"})
	require.True(t, r2.Success)

	rec, err := repo.Get(context.Background(), 1, defaultMemoryType, "interests")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "NLP", rec.Value)
}

func TestAppendMemoryCreatesListOnFirstAppend(t *testing.T) {
	repo := newMemRepo()
	tool := NewAppendMemoryTool(repo)

	result := tool.Execute(context.Background(), toolCtx, map[string]interface{}{"key": "blockers", "value": "CUDA 安装失败"})
	require.True(t, result.Success)
	list, ok := result.Data["value"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"CUDA 安装失败"}, list)
}

func TestAppendMemoryConcatenates(t *testing.T) {
	repo := newMemRepo()
	tool := NewAppendMemoryTool(repo)

	_ = tool.Execute(context.Background(), toolCtx, map[string]interface{}{"key": "blockers", "value": "a"})
	result := tool.Execute(context.Background(), toolCtx, map[string]interface{}{"key": "blockers", "value": "b"})
	require.True(t, result.Success)
	assert.Equal(t, []interface{}{"a", "b"}, result.Data["value"])
}

func TestAppendMemoryCoercesScalarToList(t *testing.T) {
	repo := newMemRepo()
	// 既有值是标量（此前由 set 写入）
	require.NoError(t, repo.Set(context.Background(), 1, defaultMemoryType, "blockers", "旧值"))

	tool := NewAppendMemoryTool(repo)
	result := tool.Execute(context.Background(), toolCtx, map[string]interface{}{"key": "blockers", "value": "新值"})
	require.True(t, result.Success)
	assert.Equal(t, []interface{}{"旧值", "新值"}, result.Data["value"])
}

func TestAppendMemoryValidatesBeforeWriting(t *testing.T) {
	repo := newMemRepo()
	tool := NewAppendMemoryTool(repo)

	result := tool.Execute(context.Background(), toolCtx, map[string]interface{}{"key": "blockers"})
	assert.False(t, result.Success)
	assert.Equal(t, "Missing required parameter: value", result.Error)
	assert.Zero(t, repo.sets)
}
