// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// DraftGenerationTask 描述一次后台草稿生成任务：学员的一条新消息
// 已经落库并得到乐观回显，管道消费该任务产出待审草稿。
type DraftGenerationTask struct {
	MessageID      string `json:"message_id"`
	ConversationID uint   `json:"conversation_id"`
	StudentID      uint   `json:"student_id"`
}
