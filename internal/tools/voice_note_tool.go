package tools

import (
	"context"
	"fmt"
	"time"

	"mentorloop-go/internal/config"
	"mentorloop-go/internal/model"
)

// VoiceNoteTool 按 (phase, note_type) 查找预置的语音条静态资产。
// 资产缺失时返回描述性的 NotFound 错误，绝不发出一个坏链接。
type VoiceNoteTool struct {
	minioCfg config.MinIOConfig
	// assets 是 "phase:note_type" -> 对象存储路径 的静态映射，来自配置。
	assets map[string]string
	store  BlobStore
}

// NewVoiceNoteTool 创建 send_voice_note 工具。
func NewVoiceNoteTool(minioCfg config.MinIOConfig, assets map[string]string, store BlobStore) *VoiceNoteTool {
	return &VoiceNoteTool{minioCfg: minioCfg, assets: assets, store: store}
}

func (t *VoiceNoteTool) Name() string { return "send_voice_note" }

func (t *VoiceNoteTool) Description() string {
	return "向学员发送一条与当前阶段匹配的预置导师语音条。"
}

func (t *VoiceNoteTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"note_type": stringProp("语音条类型，例如 encouragement / milestone"),
		},
		"required": []string{"note_type"},
	}
}

// Execute 查表并校验资产存在后才产出链接。
func (t *VoiceNoteTool) Execute(ctx context.Context, tc Context, input map[string]interface{}) model.ToolResult {
	noteType, errRes := requireString(input, "note_type")
	if errRes != nil {
		return *errRes
	}

	assetKey := fmt.Sprintf("%s:%s", tc.Phase, noteType)
	objectName, ok := t.assets[assetKey]
	if !ok {
		return errResult("NotFound: 阶段 %s 没有类型为 '%s' 的语音条资产", tc.Phase, noteType)
	}

	// 防御坏链接：映射存在但对象缺失时同样按 NotFound 处理
	if err := t.store.StatObject(ctx, t.minioCfg.BucketName, objectName); err != nil {
		return errResult("NotFound: 语音条资产 '%s' 在存储中不存在", objectName)
	}

	url, err := t.store.PresignedURL(t.minioCfg.BucketName, objectName, 7*24*time.Hour)
	if err != nil {
		return errResult("生成语音条链接失败: %v", err)
	}
	return okResult(map[string]interface{}{
		"noteType":    noteType,
		"url":         url,
		"storagePath": objectName,
		"mimeType":    "audio/mpeg",
	})
}
