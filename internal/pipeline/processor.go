// Package pipeline 实现后台草稿生成管道：消费 Kafka 任务，
// 组装上下文，驱动模型与工具往返，最终落一条待审草稿。
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"mentorloop-go/internal/apperr"
	"mentorloop-go/internal/model"
	"mentorloop-go/internal/repository"
	"mentorloop-go/internal/service"
	"mentorloop-go/internal/tools"
	"mentorloop-go/pkg/llm"
	"mentorloop-go/pkg/log"
	"mentorloop-go/pkg/storage"
	"mentorloop-go/pkg/tasks"
	"mentorloop-go/pkg/tika"

	"gorm.io/gorm"
)

// Processor 把一条学员消息加工成一条待审草稿。
// 它实现 kafka.TaskProcessor，返回错误时消费端会按重试策略重投。
type Processor struct {
	llmClient    llm.Client
	assembler    service.ContextAssembler
	registry     *tools.Registry
	draftService service.DraftService
	studentRepo  repository.StudentRepository
	messageRepo  repository.MessageRepository
	tikaClient   *tika.Client
	bucketName   string
	// maxToolRounds 限定模型与工具往返的轮数上限，防止失控循环。
	maxToolRounds int
}

// NewProcessor 创建一个新的 Processor 实例。tikaClient 可以为 nil，
// 此时附件只按文件名提示注入上下文，不做正文提取。
func NewProcessor(
	llmClient llm.Client,
	assembler service.ContextAssembler,
	registry *tools.Registry,
	draftService service.DraftService,
	studentRepo repository.StudentRepository,
	messageRepo repository.MessageRepository,
	tikaClient *tika.Client,
	bucketName string,
	maxToolRounds int,
) *Processor {
	if maxToolRounds <= 0 {
		maxToolRounds = 4
	}
	return &Processor{
		llmClient:     llmClient,
		assembler:     assembler,
		registry:      registry,
		draftService:  draftService,
		studentRepo:   studentRepo,
		messageRepo:   messageRepo,
		tikaClient:    tikaClient,
		bucketName:    bucketName,
		maxToolRounds: maxToolRounds,
	}
}

// Process 处理一条草稿生成任务。学员侧早已收到乐观回执，
// 这里的失败对学员不可见，由 Kafka 重试兜底。
func (p *Processor) Process(ctx context.Context, task tasks.DraftGenerationTask) error {
	log.Infof("[Pipeline] 开始处理草稿生成任务, messageId: %s, studentId: %d", task.MessageID, task.StudentID)

	// 引用实体缺失归类为 NotFound，消费端据此放弃重试
	student, err := p.studentRepo.FindByID(task.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("学员 %d 不存在", task.StudentID)
		}
		return fmt.Errorf("加载学员 %d 失败: %w", task.StudentID, err)
	}
	trigger, err := p.messageRepo.FindByID(task.MessageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("触发消息 %s 不存在", task.MessageID)
		}
		return fmt.Errorf("加载触发消息 %s 失败: %w", task.MessageID, err)
	}

	attachmentTexts := p.extractAttachmentTexts(ctx, trigger)

	messages, err := p.assembler.Assemble(ctx, student, task.ConversationID, attachmentTexts)
	if err != nil {
		return fmt.Errorf("组装上下文失败: %w", err)
	}

	content, records, draftAttachments, err := p.runToolLoop(ctx, student, messages)
	if err != nil {
		return err
	}

	draft, err := p.draftService.CreateDraft(task.ConversationID, task.StudentID, content, records, draftAttachments)
	if err != nil {
		return fmt.Errorf("落草稿失败: %w", err)
	}

	log.Infof("[Pipeline] 草稿已生成等待审核, draftId: %s, toolCalls: %d", draft.ID, len(records))
	return nil
}

// runToolLoop 驱动模型与工具的多轮往返，直到模型产出终文本或达到轮数上限。
// 工具执行失败不会中断生成：失败结果原样回喂给模型并记录在案。
func (p *Processor) runToolLoop(ctx context.Context, student *model.Student, messages []llm.Message) (string, []model.ToolCallRecord, []model.Attachment, error) {
	toolCtx := tools.Context{StudentID: student.ID, Phase: student.Phase}
	var records []model.ToolCallRecord
	var draftAttachments []model.Attachment

	for round := 0; round < p.maxToolRounds; round++ {
		result, err := p.llmClient.Chat(ctx, messages, p.registry.Specs())
		if err != nil {
			return "", nil, nil, apperr.Upstreamf("模型调用失败: %v", err)
		}
		if len(result.ToolCalls) == 0 {
			return result.Text, records, draftAttachments, nil
		}

		messages = append(messages, result.Assistant)
		for _, tc := range result.ToolCalls {
			toolResult := p.registry.Execute(ctx, toolCtx, tc.Name, tc.Arguments)
			records = append(records, model.ToolCallRecord{
				Name:   tc.Name,
				Input:  tc.Arguments,
				Result: toolResult,
			})
			if !toolResult.Success {
				log.Warnf("[Pipeline] 工具 %s 执行失败: %s", tc.Name, toolResult.Error)
			}
			if att := attachmentFromToolResult(tc.Name, toolResult); att != nil {
				draftAttachments = append(draftAttachments, *att)
			}

			payload, err := json.Marshal(toolResult)
			if err != nil {
				payload = []byte(`{"success":false,"error":"结果序列化失败"}`)
			}
			messages = append(messages, llm.Message{
				Role:       "tool",
				Content:    string(payload),
				Name:       tc.Name,
				ToolCallID: tc.ID,
			})
		}
	}

	// 轮数耗尽仍未给出终文本：不带工具再补一轮，逼模型收口
	result, err := p.llmClient.Chat(ctx, messages, nil)
	if err != nil {
		return "", nil, nil, apperr.Upstreamf("模型收口调用失败: %v", err)
	}
	return result.Text, records, draftAttachments, nil
}

// extractAttachmentTexts 下载触发消息上的附件并经 Tika 提取正文。
// 单个附件失败只记日志跳过，不影响整体生成。
func (p *Processor) extractAttachmentTexts(ctx context.Context, trigger *model.Message) []string {
	if trigger == nil || len(trigger.Attachments) == 0 || p.tikaClient == nil {
		return nil
	}

	var texts []string
	for _, att := range trigger.Attachments {
		if att.StoragePath == "" {
			continue
		}
		data, err := storage.DownloadBytes(ctx, p.bucketName, att.StoragePath)
		if err != nil {
			log.Warnf("[Pipeline] 下载附件失败, object: %s, error: %v", att.StoragePath, err)
			continue
		}
		text, err := p.tikaClient.ExtractText(bytes.NewReader(data), att.Filename)
		if err != nil {
			log.Warnf("[Pipeline] 提取附件文本失败, file: %s, error: %v", att.Filename, err)
			continue
		}
		if text != "" {
			texts = append(texts, fmt.Sprintf("[%s]\n%s", att.Filename, text))
		}
	}
	return texts
}

// attachmentFromToolResult 把产出文件的工具结果转成草稿附件，
// 审批通过后它们会随草稿一并晋升到消息上。
func attachmentFromToolResult(toolName string, result model.ToolResult) *model.Attachment {
	if !result.Success || result.Data == nil {
		return nil
	}
	switch toolName {
	case "generate_roadmap", "send_voice_note":
	default:
		return nil
	}

	storagePath, _ := result.Data["storagePath"].(string)
	if storagePath == "" {
		return nil
	}
	url, _ := result.Data["url"].(string)
	mimeType, _ := result.Data["mimeType"].(string)
	filename, _ := result.Data["filename"].(string)
	if filename == "" {
		if noteType, ok := result.Data["noteType"].(string); ok {
			filename = noteType + ".mp3"
		} else {
			filename = storagePath
		}
	}
	return &model.Attachment{
		Filename:    filename,
		URL:         url,
		MimeType:    mimeType,
		StoragePath: storagePath,
	}
}
