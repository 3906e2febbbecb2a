package tools

import (
	"context"
	"testing"

	"mentorloop-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTool 是可编程的测试工具。
type stubTool struct {
	name     string
	executed int
	result   model.ToolResult
}

func (t *stubTool) Name() string        { return t.name }
func (t *stubTool) Description() string { return "测试用工具" }
func (t *stubTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{"key": stringProp("键")},
		"required":   []string{"key"},
	}
}
func (t *stubTool) Execute(ctx context.Context, tc Context, input map[string]interface{}) model.ToolResult {
	t.executed++
	return t.result
}

func TestRegistryRejectsDuplicateName(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubTool{name: "echo"}))
	err := r.Register(&stubTool{name: "echo"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistryMustRegisterPanicsOnDuplicate(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&stubTool{name: "echo"})
	assert.Panics(t, func() { r.MustRegister(&stubTool{name: "echo"}) })
}

func TestRegistryExecuteUnknownToolIsToolNotFound(t *testing.T) {
	r := NewRegistry()
	result := r.Execute(context.Background(), Context{StudentID: 1}, "invented_by_model", nil)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "ToolNotFound")
	assert.Contains(t, result.Error, "invented_by_model")
}

func TestRegistryExecuteDispatchesByName(t *testing.T) {
	r := NewRegistry()
	tool := &stubTool{name: "echo", result: model.ToolResult{Success: true}}
	r.MustRegister(tool)

	result := r.Execute(context.Background(), Context{StudentID: 1}, "echo", map[string]interface{}{"key": "v"})
	assert.True(t, result.Success)
	assert.Equal(t, 1, tool.executed)
}

func TestRegistrySpecs(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&stubTool{name: "a"})
	r.MustRegister(&stubTool{name: "b"})

	specs := r.Specs()
	require.Len(t, specs, 2)
	names := []string{specs[0].Name, specs[1].Name}
	assert.ElementsMatch(t, []string{"a", "b"}, names)
	assert.NotEmpty(t, specs[0].Parameters)
}

func TestRequireStringValidatesBeforeActing(t *testing.T) {
	// 缺参
	_, errRes := requireString(map[string]interface{}{}, "key")
	require.NotNil(t, errRes)
	assert.False(t, errRes.Success)
	assert.Equal(t, "Missing required parameter: key", errRes.Error)

	// 空串同样视为缺参
	_, errRes = requireString(map[string]interface{}{"key": ""}, "key")
	require.NotNil(t, errRes)

	// 正常取值
	v, errRes := requireString(map[string]interface{}{"key": "interests"}, "key")
	assert.Nil(t, errRes)
	assert.Equal(t, "interests", v)
}
