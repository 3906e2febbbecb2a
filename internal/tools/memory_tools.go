package tools

import (
	"context"

	"mentorloop-go/internal/model"
	"mentorloop-go/internal/repository"
)

// 记忆类型的默认值；模型未显式给出 type 时使用。
const defaultMemoryType = "fact"

// GetMemoryTool 读取一条学员长期记忆。键不存在返回 value=null 的成功结果。
type GetMemoryTool struct {
	memoryRepo repository.MemoryRepository
}

// NewGetMemoryTool 创建 get_student_memory 工具。
func NewGetMemoryTool(memoryRepo repository.MemoryRepository) *GetMemoryTool {
	return &GetMemoryTool{memoryRepo: memoryRepo}
}

func (t *GetMemoryTool) Name() string { return "get_student_memory" }

func (t *GetMemoryTool) Description() string {
	return "读取学员的一条长期记忆。键不存在时返回 null，不是错误。"
}

func (t *GetMemoryTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"key":  stringProp("记忆键，例如 interests"),
			"type": stringProp("记忆类别，默认 fact"),
		},
		"required": []string{"key"},
	}
}

// Execute 读取记忆；绝不产生副作用。
func (t *GetMemoryTool) Execute(ctx context.Context, tc Context, input map[string]interface{}) model.ToolResult {
	key, errRes := requireString(input, "key")
	if errRes != nil {
		return *errRes
	}
	memType := optionalString(input, "type", defaultMemoryType)

	record, err := t.memoryRepo.Get(ctx, tc.StudentID, memType, key)
	if err != nil {
		return errResult("读取记忆失败: %v", err)
	}
	var value interface{}
	if record != nil {
		value = record.Value
	}
	return okResult(map[string]interface{}{"key": key, "value": value})
}

// SetMemoryTool 以 (student, type, key) 为键 upsert 一条记忆。
type SetMemoryTool struct {
	memoryRepo repository.MemoryRepository
}

// NewSetMemoryTool 创建 set_student_memory 工具。
func NewSetMemoryTool(memoryRepo repository.MemoryRepository) *SetMemoryTool {
	return &SetMemoryTool{memoryRepo: memoryRepo}
}

func (t *SetMemoryTool) Name() string { return "set_student_memory" }

func (t *SetMemoryTool) Description() string {
	return "写入（覆盖）学员的一条长期记忆。"
}

func (t *SetMemoryTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"key":   stringProp("记忆键"),
			"value": stringProp("记忆内容"),
			"type":  stringProp("记忆类别，默认 fact"),
		},
		"required": []string{"key", "value"},
	}
}

// Execute 校验参数后执行 upsert。
func (t *SetMemoryTool) Execute(ctx context.Context, tc Context, input map[string]interface{}) model.ToolResult {
	key, errRes := requireString(input, "key")
	if errRes != nil {
		return *errRes
	}
	value, ok := input["value"]
	if !ok || value == nil {
		return errResult("Missing required parameter: value")
	}
	memType := optionalString(input, "type", defaultMemoryType)

	if err := t.memoryRepo.Set(ctx, tc.StudentID, memType, key, value); err != nil {
		return errResult("写入记忆失败: %v", err)
	}
	return okResult(map[string]interface{}{"key": key, "value": value})
}

// AppendMemoryTool 在已有记忆上追加一个元素。
// 实现是读取-拼接-写回：对同一键的并发追加是后写者胜出的竞争，
// 这是本领域可接受的已知限制，不在此处加锁修正。
type AppendMemoryTool struct {
	memoryRepo repository.MemoryRepository
}

// NewAppendMemoryTool 创建 append_student_memory 工具。
func NewAppendMemoryTool(memoryRepo repository.MemoryRepository) *AppendMemoryTool {
	return &AppendMemoryTool{memoryRepo: memoryRepo}
}

func (t *AppendMemoryTool) Name() string { return "append_student_memory" }

func (t *AppendMemoryTool) Description() string {
	return "在学员的一条长期记忆上追加一个元素；键不存在时创建单元素列表。"
}

func (t *AppendMemoryTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"key":   stringProp("记忆键"),
			"value": stringProp("要追加的内容"),
			"type":  stringProp("记忆类别，默认 fact"),
		},
		"required": []string{"key", "value"},
	}
}

// Execute 读取现值、拼接后整体写回。
func (t *AppendMemoryTool) Execute(ctx context.Context, tc Context, input map[string]interface{}) model.ToolResult {
	key, errRes := requireString(input, "key")
	if errRes != nil {
		return *errRes
	}
	value, ok := input["value"]
	if !ok || value == nil {
		return errResult("Missing required parameter: value")
	}
	memType := optionalString(input, "type", defaultMemoryType)

	record, err := t.memoryRepo.Get(ctx, tc.StudentID, memType, key)
	if err != nil {
		return errResult("读取记忆失败: %v", err)
	}

	var merged []interface{}
	if record != nil && record.Value != nil {
		if list, isList := record.Value.([]interface{}); isList {
			merged = append(merged, list...)
		} else {
			merged = append(merged, record.Value)
		}
	}
	merged = append(merged, value)

	if err := t.memoryRepo.Set(ctx, tc.StudentID, memType, key, merged); err != nil {
		return errResult("写入记忆失败: %v", err)
	}
	return okResult(map[string]interface{}{"key": key, "value": merged})
}
