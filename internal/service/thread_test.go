package service

import (
	"strings"
	"testing"
	"time"

	"mentorloop-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectLine(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantOK  bool
	}{
		{"标准主题头", "Subject: 梯度消失\n正文", "梯度消失", true},
		{"大小写不敏感", "subject: 选题建议\n正文", "选题建议", true},
		{"保留原始大小写", "Subject: Transformer 论文\n正文", "Transformer 论文", true},
		{"只识别首行", "你好\nSubject: 不算数", "", false},
		{"无主题头", "今天课程卡住了", "", false},
		{"只有主题行", "Subject: 单行", "单行", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SubjectLine(tt.content)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveSubjectKey(t *testing.T) {
	// 相同内容推导出的键必须稳定
	key1 := DeriveSubjectKey("Subject: 梯度消失\n求助")
	key2 := DeriveSubjectKey("Subject: 梯度消失\n完全不同的正文")
	assert.Equal(t, key1, key2)

	// 归一化为小写
	assert.Equal(t,
		DeriveSubjectKey("Subject: Attention Is All You Need"),
		DeriveSubjectKey("subject: attention is all you need"),
	)

	// 无主题头时取首个非空行
	assert.Equal(t, "今天卡住了", DeriveSubjectKey("\n\n今天卡住了\n细节"))

	// 超长首行截断到约 50 字符
	long := strings.Repeat("很", 80)
	key := DeriveSubjectKey(long)
	assert.LessOrEqual(t, len([]rune(key)), 51)
}

func TestStripSubject(t *testing.T) {
	assert.Equal(t, "正文内容", StripSubject("Subject: 主题\n\n正文内容"))
	assert.Equal(t, "无主题正文", StripSubject("无主题正文"))
	assert.Equal(t, "", StripSubject("Subject: 只有主题"))
}

func TestProjectThreadsGroupsByStoredKey(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	messages := []model.Message{
		{ID: "m1", Content: "Subject: 梯度消失\n第一问", ThreadKey: "梯度消失", CreatedAt: base},
		{ID: "m2", Content: "Subject: 选题\n另一个话题", ThreadKey: "选题", CreatedAt: base.Add(time.Minute)},
		{ID: "m3", Content: "Subject: 梯度消失\n追问", ThreadKey: "梯度消失", CreatedAt: base.Add(2 * time.Minute)},
	}

	threads := ProjectThreads(messages)
	require.Len(t, threads, 2)

	// 线程按最近一条消息时间降序：梯度消失(m3) 在前
	assert.Equal(t, "梯度消失", threads[0].Subject)
	require.Len(t, threads[0].Messages, 2)
	// 线程内保持时间升序
	assert.Equal(t, "m1", threads[0].Messages[0].ID)
	assert.Equal(t, "m3", threads[0].Messages[1].ID)
	assert.Equal(t, "选题", threads[1].Subject)
}

func TestProjectThreadsFallsBackToDerivedKey(t *testing.T) {
	// 历史行可能没有固化键，投影时按内容重新推导
	messages := []model.Message{
		{ID: "m1", Content: "Subject: 旧数据\n正文", CreatedAt: time.Now()},
		{ID: "m2", Content: "subject: 旧数据\n回复", CreatedAt: time.Now().Add(time.Second)},
	}
	threads := ProjectThreads(messages)
	require.Len(t, threads, 1)
	assert.Len(t, threads[0].Messages, 2)
}

func TestProjectThreadsPreview(t *testing.T) {
	long := strings.Repeat("长", 150)
	messages := []model.Message{
		{ID: "m1", Content: "Subject: 预览\n" + long, ThreadKey: "预览", CreatedAt: time.Now()},
	}
	threads := ProjectThreads(messages)
	require.Len(t, threads, 1)
	// 预览去掉主题头并截断，带省略号
	assert.True(t, strings.HasSuffix(threads[0].Preview, "…"))
	assert.LessOrEqual(t, len([]rune(threads[0].Preview)), 101)
	assert.False(t, strings.HasPrefix(threads[0].Preview, "Subject:"))
}

func TestProjectThreadsEmpty(t *testing.T) {
	assert.Empty(t, ProjectThreads(nil))
}
