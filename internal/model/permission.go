package model

import "time"

// RolePermission 角色权限表，对应 role_permissions
// permission_key 为点分命名空间，如 employee.employee.create；支持 * 通配（仅策略侧）
type RolePermission struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"            json:"id"`
	Role          string    `gorm:"type:varchar(50);not null"           json:"role"`
	PermissionKey string    `gorm:"type:varchar(120);not null"          json:"permission_key"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"  json:"created_at"`
}

func (RolePermission) TableName() string { return "role_permissions" }

// 属性规则作用的档案字段
const (
	AttributeJobTitle   = "job_title"
	AttributeDepartment = "department"
)

// 属性规则匹配方式
const (
	MatchContains = "contains"
	MatchPrefix   = "prefix"
	MatchEquals   = "equals"
)

// RoleAttributeRule 档案属性派生角色规则，对应 role_attribute_rules
// 例如：职称包含「督导」→ 派生角色 supervisor；部门前缀「人资」→ 派生角色 hr
type RoleAttributeRule struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"           json:"id"`
	Attribute string    `gorm:"type:varchar(20);not null"          json:"attribute"`  // job_title | department
	MatchType string    `gorm:"type:varchar(20);not null"          json:"match_type"` // contains | prefix | equals
	Pattern   string    `gorm:"type:varchar(100);not null"         json:"pattern"`
	Role      string    `gorm:"type:varchar(50);not null"          json:"role"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (RoleAttributeRule) TableName() string { return "role_attribute_rules" }
