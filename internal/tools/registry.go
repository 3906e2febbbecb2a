package tools

import (
	"context"
	"fmt"
	"sync"

	"mentorloop-go/internal/model"
	"mentorloop-go/pkg/llm"
)

// Registry 按名称管理工具目录。注册期拒绝重名；
// 调用期对未注册的名字返回 ToolNotFound 结果而不是抛错，
// 这样模型臆造的工具名只会降级为一条失败记录。
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry 创建一个空的工具注册表。
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register 注册一个工具；重名时返回错误。
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("tool '%s' already registered", t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

// MustRegister 注册一个工具，重名时 panic。启动期装配用。
func (r *Registry) MustRegister(t Tool) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Get 按名称查找工具。
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Execute 执行一次命名调用并返回结构化结果。
func (r *Registry) Execute(ctx context.Context, tc Context, name string, input map[string]interface{}) model.ToolResult {
	t, ok := r.Get(name)
	if !ok {
		return errResult("ToolNotFound: no tool registered under '%s'", name)
	}
	return t.Execute(ctx, tc, input)
}

// Specs 导出全部工具的声明，提供给 LLM 请求。
func (r *Registry) Specs() []llm.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]llm.ToolSpec, 0, len(r.tools))
	for _, t := range r.tools {
		specs = append(specs, llm.ToolSpec{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return specs
}
