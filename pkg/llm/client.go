// Package llm provides a client for interacting with Large Language Models.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"mentorloop-go/internal/config"

	openai "github.com/sashabaranov/go-openai"
)

// Message 表示一条角色消息。assistant 消息可能携带模型请求的工具调用；
// tool 消息携带某次调用的执行结果（ToolCallID 对应请求 id）。
type Message struct {
	Role       string
	Content    string
	Name       string
	ToolCallID string
	ToolCalls  []ToolCallRequest
}

// ToolCallRequest 是模型在一轮生成中请求执行的一次工具调用。
type ToolCallRequest struct {
	ID        string
	Name      string
	Arguments map[string]interface{}
}

// ToolSpec 声明一个可供模型调用的工具（名称 + JSON Schema 参数描述）。
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// ChatResult 是一轮补全的结果：终文本，或零到多个待执行的工具调用。
type ChatResult struct {
	Text      string
	ToolCalls []ToolCallRequest
	// Assistant 是模型返回的原始 assistant 消息，
	// 多轮工具往返时调用方将它追加进历史后再继续。
	Assistant Message
}

// Client defines the interface for an LLM client.
type Client interface {
	// Chat 以 role-based 消息与可选工具目录执行一次补全。
	Chat(ctx context.Context, messages []Message, tools []ToolSpec) (*ChatResult, error)
}

type openaiClient struct {
	cfg    config.LLMConfig
	client *openai.Client
}

// NewClient creates a new LLM client based on the config.
func NewClient(cfg config.LLMConfig) Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &openaiClient{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

// Chat 调用 chat completions 接口，并把工具调用请求转换回内部类型。
func (c *openaiClient) Chat(ctx context.Context, messages []Message, tools []ToolSpec) (*ChatResult, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.cfg.Model,
		Messages: convertMessages(messages),
	}
	// 从全局配置注入生成参数（若非零值）
	if c.cfg.Generation.Temperature != 0 {
		req.Temperature = float32(c.cfg.Generation.Temperature)
	}
	if c.cfg.Generation.TopP != 0 {
		req.TopP = float32(c.cfg.Generation.TopP)
	}
	if c.cfg.Generation.MaxTokens != 0 {
		req.MaxTokens = c.cfg.Generation.MaxTokens
	}
	for _, t := range tools {
		req.Tools = append(req.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to call chat api: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat api returned no choices")
	}

	choice := resp.Choices[0].Message
	result := &ChatResult{
		Text: choice.Content,
		Assistant: Message{
			Role:    openai.ChatMessageRoleAssistant,
			Content: choice.Content,
		},
	}
	for _, tc := range choice.ToolCalls {
		args := map[string]interface{}{}
		if tc.Function.Arguments != "" {
			// 容错：参数不是合法 JSON 时按空参数处理，由工具校验兜底
			_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		}
		call := ToolCallRequest{ID: tc.ID, Name: tc.Function.Name, Arguments: args}
		result.ToolCalls = append(result.ToolCalls, call)
		result.Assistant.ToolCalls = append(result.Assistant.ToolCalls, call)
	}
	return result, nil
}

// convertMessages 将内部消息转换为 openai 请求格式。
func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		cm := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			argBytes, _ := json.Marshal(tc.Arguments)
			cm.ToolCalls = append(cm.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(argBytes),
				},
			})
		}
		out = append(out, cm)
	}
	return out
}
