// Package service 包含了应用的业务逻辑层。
package service

import (
	"sort"
	"strings"

	"mentorloop-go/internal/model"
)

// subjectPrefix 是用于线程分组的主题头。
const subjectPrefix = "Subject:"

const (
	subjectKeyMaxLen = 50
	previewMaxLen    = 100
)

// SubjectLine 返回内容首行的 Subject 头（保留原始大小写），
// 以及该行是否存在。只识别第一行。
func SubjectLine(content string) (string, bool) {
	line := firstLine(content)
	if len(line) >= len(subjectPrefix) && strings.EqualFold(line[:len(subjectPrefix)], subjectPrefix) {
		return strings.TrimSpace(line[len(subjectPrefix):]), true
	}
	return "", false
}

// SubjectForDisplay 提取用于展示的主题：Subject 头的剩余部分，
// 否则取首个非空行并截断到约 50 字符。
func SubjectForDisplay(content string) string {
	if subject, ok := SubjectLine(content); ok {
		return subject
	}
	line := firstNonBlankLine(content)
	return truncateRunes(line, subjectKeyMaxLen)
}

// DeriveSubjectKey 推导分组键：展示主题做大小写不敏感的归一化。
// 消息创建时调用一次并固化到行上，读取端不再重算。
func DeriveSubjectKey(content string) string {
	return strings.ToLower(strings.TrimSpace(SubjectForDisplay(content)))
}

// StripSubject 返回去掉首行 Subject 头（以及其后空行）的正文。
func StripSubject(content string) string {
	if _, ok := SubjectLine(content); !ok {
		return content
	}
	idx := strings.Index(content, "\n")
	if idx < 0 {
		return ""
	}
	return strings.TrimLeft(content[idx+1:], "\n")
}

// ProjectThreads 把按时间升序排列的消息列表投影成线程视图。
// 纯函数：相同输入总是产出相同的分组与排序。
func ProjectThreads(messages []model.Message) []model.ThreadView {
	type group struct {
		subject string
		msgs    []model.Message
	}
	groups := make(map[string]*group)
	order := make([]string, 0)

	for _, m := range messages {
		key := m.ThreadKey
		if key == "" {
			// 历史数据兜底：行上没有固化键时按内容重新推导
			key = DeriveSubjectKey(m.Content)
		}
		g, ok := groups[key]
		if !ok {
			g = &group{subject: SubjectForDisplay(m.Content)}
			groups[key] = g
			order = append(order, key)
		}
		g.msgs = append(g.msgs, m)
	}

	threads := make([]model.ThreadView, 0, len(groups))
	for _, key := range order {
		g := groups[key]
		last := g.msgs[len(g.msgs)-1]
		threads = append(threads, model.ThreadView{
			Subject:  g.subject,
			Preview:  truncateRunes(StripSubject(last.Content), previewMaxLen),
			LastAt:   model.LocalTime(last.CreatedAt),
			Messages: g.msgs,
		})
	}

	// 线程按最近一条消息的时间降序排列
	sort.SliceStable(threads, func(i, j int) bool {
		li := threads[i].Messages[len(threads[i].Messages)-1].CreatedAt
		lj := threads[j].Messages[len(threads[j].Messages)-1].CreatedAt
		return li.After(lj)
	})
	return threads
}

func firstLine(content string) string {
	if idx := strings.Index(content, "\n"); idx >= 0 {
		return strings.TrimRight(content[:idx], "\r")
	}
	return content
}

func firstNonBlankLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
