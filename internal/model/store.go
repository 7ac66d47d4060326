package model

import "time"

// Store 门店，对应 stores
type Store struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	StoreCode string    `gorm:"type:varchar(20);not null;uniqueIndex"          json:"store_code"`
	Name      string    `gorm:"type:varchar(100);not null"                     json:"name"`
	Region    string    `gorm:"type:varchar(50);not null;default:''"           json:"region"`
	IsActive  bool      `gorm:"not null;default:true"                          json:"is_active"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

func (Store) TableName() string { return "stores" }

// 门店管理角色类型
const (
	StoreRoleSupervisor   = "supervisor"
	StoreRoleStoreManager = "store_manager"
)

// StoreManager 人员-门店管理关系，对应 store_managers（多对多）
// role_type=store_manager 且 is_primary=true 的行按 (user, store) 独占，重新指派时整体替换
type StoreManager struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"           json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index"           json:"user_id"`
	StoreID   string    `gorm:"type:uuid;not null;index"           json:"store_id"`
	RoleType  string    `gorm:"type:varchar(20);not null"          json:"role_type"` // supervisor | store_manager
	IsPrimary bool      `gorm:"not null;default:false"             json:"is_primary"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	// 关联
	Profile *Profile `gorm:"foreignKey:UserID;references:ID" json:"profile,omitempty"`
}

func (StoreManager) TableName() string { return "store_managers" }

// StoreEmployee 门店员工，对应 store_employees
type StoreEmployee struct {
	ID           string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	EmployeeCode string     `gorm:"type:varchar(20);not null;uniqueIndex"          json:"employee_code"`
	Name         string     `gorm:"type:varchar(100);not null"                     json:"name"`
	StoreID      string     `gorm:"type:uuid;not null;index"                       json:"store_id"`
	Position     string     `gorm:"type:varchar(50);not null;default:''"           json:"position"`
	IsActive     bool       `gorm:"not null;default:true"                          json:"is_active"`
	HiredAt      *time.Time `gorm:"type:date"                                     json:"hired_at,omitempty"`
	CreatedAt    time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

func (StoreEmployee) TableName() string { return "store_employees" }
