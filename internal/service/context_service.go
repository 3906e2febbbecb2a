// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mentorloop-go/internal/config"
	"mentorloop-go/internal/model"
	"mentorloop-go/internal/repository"
	"mentorloop-go/pkg/es"
	"mentorloop-go/pkg/llm"
	"mentorloop-go/pkg/log"
)

// ResourceCatalog 抽象了按阶段检索学习资源目录的能力。
type ResourceCatalog interface {
	FindByPhase(ctx context.Context, phase string) ([]model.Resource, error)
}

// esResourceCatalog 是基于 Elasticsearch 的资源目录实现。
type esResourceCatalog struct {
	cfg config.ElasticsearchConfig
}

// NewESResourceCatalog 创建一个基于 Elasticsearch 的资源目录。
func NewESResourceCatalog(cfg config.ElasticsearchConfig) ResourceCatalog {
	return &esResourceCatalog{cfg: cfg}
}

// FindByPhase 返回该阶段的全部目录资源。
func (c *esResourceCatalog) FindByPhase(ctx context.Context, phase string) ([]model.Resource, error) {
	return es.SearchByPhase(ctx, c.cfg.IndexName, phase, "", 50)
}

// ContextAssembler 为一轮生成组装提示上下文。
// 保证：组装是当前存储状态的纯函数，过程中不发生任何写入；
// 一切记忆变更只能由生成期间的显式工具调用完成。
type ContextAssembler interface {
	Assemble(ctx context.Context, student *model.Student, conversationID uint, attachmentTexts []string) ([]llm.Message, error)
}

type contextAssembler struct {
	messageRepo repository.MessageRepository
	memoryRepo  repository.MemoryRepository
	catalog     ResourceCatalog
}

// NewContextAssembler 创建一个新的 ContextAssembler 实例。
func NewContextAssembler(
	messageRepo repository.MessageRepository,
	memoryRepo repository.MemoryRepository,
	catalog ResourceCatalog,
) ContextAssembler {
	return &contextAssembler{
		messageRepo: messageRepo,
		memoryRepo:  memoryRepo,
		catalog:     catalog,
	}
}

// Assemble 组装 system 消息与最近历史，返回按时间升序的消息序列。
func (a *contextAssembler) Assemble(ctx context.Context, student *model.Student, conversationID uint, attachmentTexts []string) ([]llm.Message, error) {
	var sys strings.Builder

	// (a) 固定人设前导
	persona := config.Conf.Agent.Persona
	if persona == "" {
		persona = "你是一名耐心、务实的 AI 编程导师，以简洁可执行的建议回复学员。"
	}
	sys.WriteString(persona)
	sys.WriteString("\n\n")

	// (b) 阶段行为规则，由学员当前阶段唯一确定
	sys.WriteString(PhaseRules(student, time.Now()))
	sys.WriteString("\n")

	// (d) 长期记忆事实
	memories, err := a.memoryRepo.ListByStudent(ctx, student.ID)
	if err != nil {
		// 记忆读取失败只降级：少一段上下文，不阻断本轮生成
		log.Warnf("读取学员记忆失败: studentID=%d, err=%v", student.ID, err)
	} else if len(memories) > 0 {
		sys.WriteString("\n已记录的学员情况:\n")
		for _, m := range memories {
			sys.WriteString(fmt.Sprintf("- [%s] %s: %v\n", m.Type, m.Key, m.Value))
		}
	}

	// (e) 阶段相关的资源目录摘要
	resources, err := a.catalog.FindByPhase(ctx, student.Phase)
	if err != nil {
		log.Warnf("读取资源目录失败: phase=%s, err=%v", student.Phase, err)
	} else if len(resources) > 0 {
		sys.WriteString("\n可推荐的资源目录:\n")
		for _, r := range resources {
			sys.WriteString(fmt.Sprintf("- (%s) %s: %s\n", r.Category, r.Title, r.Summary))
		}
	}

	// 附件文本（经 Tika 提取，已在上游截断）
	for i, text := range attachmentTexts {
		sys.WriteString(fmt.Sprintf("\n学员附件 %d 的内容摘录:\n%s\n", i+1, text))
	}

	messages := []llm.Message{{Role: "system", Content: sys.String()}}

	// (c) 最近 N 轮历史：按最近优先取出后恢复时间正序
	history, err := a.messageRepo.FindRecent(conversationID, config.Conf.Agent.HistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}
	for i := len(history) - 1; i >= 0; i-- {
		m := history[i]
		role := "assistant"
		if m.Role == model.RoleStudent {
			role = "user"
		}
		messages = append(messages, llm.Message{Role: role, Content: m.Content})
	}
	return messages, nil
}

// PhaseRules 返回阶段专属的行为规则文本。纯函数：只读学员档案。
// 阶段停留天数超过阈值时附加转换就绪提示，仅为提示文本，不做任何写入。
func PhaseRules(student *model.Student, now time.Time) string {
	var b strings.Builder
	days := student.DaysInPhase(now)

	switch student.Phase {
	case model.PhaseTwo:
		b.WriteString("当前为 phase2（研究项目阶段）：围绕学员的研究课题给出推进建议，")
		b.WriteString("优先引用已登记的研究方向")
		if student.ResearchTopic != "" {
			b.WriteString(fmt.Sprintf("（%s）", student.ResearchTopic))
		}
		b.WriteString("，鼓励产出可验证的阶段性成果。")
		if days > config.Conf.Agent.Phase2AdvisoryDays {
			b.WriteString(fmt.Sprintf("\n提示：学员已在 phase2 停留 %d 天，可关注项目收尾与成果整理。", days))
		}
	default:
		b.WriteString("当前为 phase1（视频课程阶段）：以课程进度为主线答疑，")
		b.WriteString(fmt.Sprintf("学员已完成 %d 个视频，引导按目录顺序推进。", student.VideosWatched))
		if days > config.Conf.Agent.Phase1AdvisoryDays {
			b.WriteString(fmt.Sprintf("\n提示：学员已在 phase1 停留 %d 天，如课程接近完成可评估进入 phase2 的就绪度。", days))
		}
	}
	return b.String()
}
