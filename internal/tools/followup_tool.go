package tools

import (
	"context"
	"time"

	"mentorloop-go/internal/model"
	"mentorloop-go/internal/repository"
)

// FollowupTool 为学员登记一条跟进提醒，供导师界面列出。
type FollowupTool struct {
	followupRepo repository.FollowupRepository
}

// NewFollowupTool 创建 schedule_followup 工具。
func NewFollowupTool(followupRepo repository.FollowupRepository) *FollowupTool {
	return &FollowupTool{followupRepo: followupRepo}
}

func (t *FollowupTool) Name() string { return "schedule_followup" }

func (t *FollowupTool) Description() string {
	return "为学员安排一条跟进提醒（例如长时间不活跃时），默认三天后到期。"
}

func (t *FollowupTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"reason": stringProp("跟进原因"),
			"days":   map[string]interface{}{"type": "integer", "description": "几天后到期，默认 3"},
		},
		"required": []string{"reason"},
	}
}

// Execute 校验参数后写入跟进提醒。
func (t *FollowupTool) Execute(ctx context.Context, tc Context, input map[string]interface{}) model.ToolResult {
	reason, errRes := requireString(input, "reason")
	if errRes != nil {
		return *errRes
	}

	days := 3
	if v, ok := input["days"]; ok {
		// JSON 数字解码为 float64
		if f, isFloat := v.(float64); isFloat && f > 0 {
			days = int(f)
		}
	}

	followup := &model.Followup{
		StudentID: tc.StudentID,
		Reason:    reason,
		DueAt:     time.Now().AddDate(0, 0, days),
	}
	if err := t.followupRepo.Create(followup); err != nil {
		return errResult("写入跟进提醒失败: %v", err)
	}
	return okResult(map[string]interface{}{
		"followupId": followup.ID,
		"reason":     reason,
		"dueAt":      followup.DueAt.Format(time.RFC3339),
	})
}
