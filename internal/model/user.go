// Package model 包含了应用的数据模型定义。
package model

import "time"

// 用户角色常量。mentor 角色可访问审核界面。
const (
	UserRoleStudent = "student"
	UserRoleMentor  = "mentor"
	UserRoleAdmin   = "admin"
)

// User 对应 'users' 表，保存账户与认证信息。
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	Email     string    `gorm:"type:varchar(255);not null" json:"email"`
	Role      string    `gorm:"type:varchar(16);not null;default:'student'" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (User) TableName() string {
	return "users"
}

// IsMentor 判断该账户是否具备导师侧权限。
func (u *User) IsMentor() bool {
	return u.Role == UserRoleMentor || u.Role == UserRoleAdmin
}
