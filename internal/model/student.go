// Package model 包含了应用的数据模型定义。
package model

import "time"

// 学员阶段常量。phase1 为视频课程阶段，phase2 为研究项目阶段。
const (
	PhaseOne = "phase1"
	PhaseTwo = "phase2"
)

// Student 对应 'students' 表，保存学员档案与阶段进度。
// 它由阶段转换操作和记录记忆事实的工具调用修改。
type Student struct {
	ID            uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint   `gorm:"uniqueIndex;not null" json:"userId"`
	Name          string `gorm:"type:varchar(100);not null" json:"name"`
	Phase         string `gorm:"type:varchar(16);not null;default:'phase1'" json:"phase"`
	ResearchTopic string `gorm:"type:varchar(255)" json:"researchTopic"`
	// VideosWatched 是 phase1 的进度计数。
	VideosWatched int `gorm:"not null;default:0" json:"videosWatched"`
	// RoadmapSummary 由 generate_roadmap 工具回写。
	RoadmapSummary string    `gorm:"type:text" json:"roadmapSummary"`
	EnrolledAt     time.Time `gorm:"autoCreateTime" json:"enrolledAt"`
	PhaseStartedAt time.Time `gorm:"not null" json:"phaseStartedAt"`
	LastActiveAt   time.Time `json:"lastActiveAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Student) TableName() string {
	return "students"
}

// DaysInPhase 返回学员在当前阶段已停留的天数。
func (s *Student) DaysInPhase(now time.Time) int {
	if s.PhaseStartedAt.IsZero() {
		return 0
	}
	return int(now.Sub(s.PhaseStartedAt).Hours() / 24)
}
