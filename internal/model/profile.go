package model

import "time"

// 业务角色
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleMember  = "member"
)

// Profile 用户档案，对应 profiles（id 与认证服务用户 id 一致）
type Profile struct {
	ID           string    `gorm:"type:uuid;primaryKey"                         json:"id"`
	Email        string    `gorm:"type:varchar(255);not null"                   json:"email"`
	FullName     string    `gorm:"type:varchar(100);not null;default:''"        json:"full_name"`
	Role         string    `gorm:"type:varchar(20);not null;default:'member'"   json:"role"` // admin | manager | member
	Department   string    `gorm:"type:varchar(100);not null;default:''"        json:"department"`
	JobTitle     string    `gorm:"type:varchar(100);not null;default:''"        json:"job_title"`
	EmployeeCode *string   `gorm:"type:varchar(20);uniqueIndex"                 json:"employee_code,omitempty"`
	StoreID      *string   `gorm:"type:uuid"                                    json:"store_id,omitempty"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"           json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"           json:"updated_at"`
}

// TableName 指定表名
func (Profile) TableName() string { return "profiles" }

// IsValidRole 判断是否为合法业务角色
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleMember:
		return true
	}
	return false
}
