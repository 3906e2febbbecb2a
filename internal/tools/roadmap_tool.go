package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"mentorloop-go/internal/config"
	"mentorloop-go/internal/model"
	"mentorloop-go/internal/repository"
	"mentorloop-go/pkg/llm"
	"mentorloop-go/pkg/pdf"
)

// roadmapPrompt 要求模型仅输出结构化 JSON，便于直接解析成 RoadmapDoc。
const roadmapPrompt = `你是一名资深导师。针对主题「%s」为处于 %s 阶段的学员生成一份学习路线图。
只输出 JSON，不要任何额外文本，结构为：
{"title": "...", "summary": "...", "sections": [{"title": "...", "items": ["...", "..."]}]}`

// RoadmapTool 生成学习路线图：内容生成、PDF 渲染与入库是三个独立步骤，
// 渲染或持久化失败时必须显式报错，而不是返回一个坏链接。
// 同步执行，可能耗时数十秒。
type RoadmapTool struct {
	llmClient   llm.Client
	studentRepo repository.StudentRepository
	minioCfg    config.MinIOConfig
	store       BlobStore
	renderPDF   func(pdf.RoadmapDoc) ([]byte, error)
}

// NewRoadmapTool 创建 generate_roadmap 工具。
func NewRoadmapTool(llmClient llm.Client, studentRepo repository.StudentRepository, minioCfg config.MinIOConfig, store BlobStore) *RoadmapTool {
	return &RoadmapTool{
		llmClient:   llmClient,
		studentRepo: studentRepo,
		minioCfg:    minioCfg,
		store:       store,
		renderPDF:   pdf.RenderRoadmap,
	}
}

func (t *RoadmapTool) Name() string { return "generate_roadmap" }

func (t *RoadmapTool) Description() string {
	return "为学员生成个性化学习路线图，渲染 PDF 并持久化，返回下载链接。"
}

func (t *RoadmapTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"topic": stringProp("路线图主题，例如学员的研究方向"),
		},
		"required": []string{"topic"},
	}
}

// Execute 生成 → 渲染 → 上传 → 回写档案摘要。
func (t *RoadmapTool) Execute(ctx context.Context, tc Context, input map[string]interface{}) model.ToolResult {
	topic, errRes := requireString(input, "topic")
	if errRes != nil {
		return *errRes
	}

	// 1. 内容生成（无副作用）
	doc, err := t.generateContent(ctx, topic, tc.Phase)
	if err != nil {
		return errResult("生成路线图内容失败: %v", err)
	}

	// 2. 渲染 PDF。内容已经生成成功，渲染失败要单独呈现：
	//    把摘要放进 data，让导师看到内容本身没有丢。
	pdfBytes, err := t.renderPDF(*doc)
	if err != nil {
		return model.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("路线图内容已生成，但 PDF 渲染失败: %v", err),
			Data:    map[string]interface{}{"title": doc.Title, "summary": doc.Summary},
		}
	}

	// 3. 持久化到对象存储
	objectName := fmt.Sprintf("roadmaps/%d/%d.pdf", tc.StudentID, time.Now().UnixMilli())
	url, err := t.store.UploadBytes(ctx, t.minioCfg.BucketName, objectName, pdfBytes, "application/pdf")
	if err != nil {
		return model.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("路线图内容已生成，但 PDF 持久化失败: %v", err),
			Data:    map[string]interface{}{"title": doc.Title, "summary": doc.Summary},
		}
	}

	// 4. 回写学员档案摘要
	if student, findErr := t.studentRepo.FindByID(tc.StudentID); findErr == nil {
		student.RoadmapSummary = doc.Summary
		if updateErr := t.studentRepo.Update(student); updateErr != nil {
			// 产物已持久化，摘要回写失败只降级为错误信息
			return model.ToolResult{
				Success: false,
				Error:   fmt.Sprintf("路线图已生成并持久化，但档案摘要回写失败: %v", updateErr),
				Data:    roadmapData(doc, url, objectName),
			}
		}
	}

	return okResult(roadmapData(doc, url, objectName))
}

// generateContent 调用模型产出结构化路线图 JSON。
func (t *RoadmapTool) generateContent(ctx context.Context, topic, phase string) (*pdf.RoadmapDoc, error) {
	result, err := t.llmClient.Chat(ctx, []llm.Message{
		{Role: "user", Content: fmt.Sprintf(roadmapPrompt, topic, phase)},
	}, nil)
	if err != nil {
		return nil, err
	}

	// 容忍模型在 JSON 外包裹 markdown 代码栅栏
	text := strings.TrimSpace(result.Text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var doc pdf.RoadmapDoc
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &doc); err != nil {
		return nil, fmt.Errorf("解析路线图 JSON 失败: %w", err)
	}
	if doc.Title == "" {
		doc.Title = topic
	}
	return &doc, nil
}

func roadmapData(doc *pdf.RoadmapDoc, url, objectName string) map[string]interface{} {
	return map[string]interface{}{
		"title":       doc.Title,
		"summary":     doc.Summary,
		"url":         url,
		"storagePath": objectName,
		"filename":    doc.Title + ".pdf",
		"mimeType":    "application/pdf",
	}
}
