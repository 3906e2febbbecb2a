// Package apperr 定义了核心流程共享的错误分类。
// 各层通过 errors.Is 判定类别，handler 层据此映射 HTTP 状态码。
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 表示引用的草稿、学员或会话不存在。调用方不应自动重试。
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput 表示必填字段缺失或为空，未产生任何副作用。
	ErrInvalidInput = errors.New("invalid input")
	// ErrToolExecution 表示工具处理器的副作用中途失败。
	// 该错误只记录在工具调用结果里，不会中断草稿的持久化。
	ErrToolExecution = errors.New("tool execution failed")
	// ErrUpstreamUnavailable 表示 LLM 或对象存储等上游调用整体失败。
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// NotFoundf 构造一个携带上下文描述的 NotFound 错误。
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// InvalidInputf 构造一个携带上下文描述的 InvalidInput 错误。
func InvalidInputf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Upstreamf 包装上游调用失败。
func Upstreamf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUpstreamUnavailable, fmt.Sprintf(format, args...))
}
