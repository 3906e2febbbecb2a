// Package tools 实现了模型在生成草稿期间可调用的工具目录。
// 每个工具先校验必填参数再执行副作用；校验失败时返回结构化错误结果，
// 不产生任何部分副作用。
package tools

import (
	"context"
	"fmt"

	"mentorloop-go/internal/model"
)

// Context 携带本次调用的学员身份与当前阶段。
// 它对处理器只读：处理器可以读取，但绝不回写这个共享对象。
type Context struct {
	StudentID uint
	Phase     string
}

// Tool 是单个可调用能力的契约。
type Tool interface {
	// Name 返回工具的注册名。
	Name() string
	// Description 返回提供给模型的功能描述。
	Description() string
	// Parameters 返回 JSON Schema 形式的入参描述。
	Parameters() map[string]interface{}
	// Execute 执行工具。实现必须遵循先校验后执行的纪律。
	Execute(ctx context.Context, tc Context, input map[string]interface{}) model.ToolResult
}

// errResult 构造一个失败结果。
func errResult(format string, args ...interface{}) model.ToolResult {
	return model.ToolResult{Success: false, Error: fmt.Sprintf(format, args...)}
}

// okResult 构造一个成功结果。
func okResult(data map[string]interface{}) model.ToolResult {
	return model.ToolResult{Success: true, Data: data}
}

// requireString 从输入中取出必填字符串参数。
// 缺失或为空时返回统一格式的错误结果。
func requireString(input map[string]interface{}, name string) (string, *model.ToolResult) {
	v, ok := input[name]
	if !ok {
		r := errResult("Missing required parameter: %s", name)
		return "", &r
	}
	s, ok := v.(string)
	if !ok || s == "" {
		r := errResult("Missing required parameter: %s", name)
		return "", &r
	}
	return s, nil
}

// optionalString 从输入中取出可选字符串参数，缺失时返回 def。
func optionalString(input map[string]interface{}, name, def string) string {
	if v, ok := input[name]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

// stringProp 构造 JSON Schema 的字符串属性描述。
func stringProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}
