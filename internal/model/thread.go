// Package model 包含了应用的数据模型定义。
package model

// ThreadView 是读取时投影出来的消息线程，不对应任何存储实体。
// Subject 保留首条消息的原始大小写；分组本身按大小写不敏感的键进行。
type ThreadView struct {
	Subject  string    `json:"subject"`
	Preview  string    `json:"preview"`
	LastAt   LocalTime `json:"lastAt"`
	Messages []Message `json:"messages"`
}
