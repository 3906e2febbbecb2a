// Package model 包含了应用的数据模型定义。
package model

import "time"

// Resource 定义了存储在 Elasticsearch 资源目录索引中的文档结构。
// phase1 资源是课程视频主题，phase2 资源是研究方向分类。
type Resource struct {
	ResourceID string `json:"resource_id"`
	Phase      string `json:"phase"`
	Category   string `json:"category"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Summary    string `json:"summary"`
}

// Followup 对应 'followups' 表：针对不活跃学员的跟进提醒，
// 由 schedule_followup 工具写入，导师界面列出。
type Followup struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	StudentID uint      `gorm:"index;not null" json:"studentId"`
	Reason    string    `gorm:"type:varchar(255);not null" json:"reason"`
	DueAt     time.Time `gorm:"not null" json:"dueAt"`
	Done      bool      `gorm:"not null;default:false" json:"done"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Followup) TableName() string {
	return "followups"
}
