package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyStaffStatus 员工月度状态快照，对应 monthly_staff_status
// 唯一约束 (employee_code, store_id, year_month)；year_month 形如 YYYYMM
type MonthlyStaffStatus struct {
	ID                 string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	EmployeeCode       string          `gorm:"type:varchar(20);not null"                      json:"employee_code"`
	EmployeeName       string          `gorm:"type:varchar(100);not null"                     json:"employee_name"`
	StoreID            string          `gorm:"type:uuid;not null"                             json:"store_id"`
	YearMonth          string          `gorm:"type:char(6);not null"                          json:"year_month"`
	Position           string          `gorm:"type:varchar(50);not null;default:''"           json:"position"`
	EmploymentStatus   string          `gorm:"type:varchar(20);not null;default:'active'"     json:"employment_status"`
	WorkDays           decimal.Decimal `gorm:"type:numeric(5,1);not null;default:0"           json:"work_days"`
	BaseBonus          decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"base_bonus"`
	TransportAllowance decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"transport_allowance"`
	MealAllowance      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"meal_allowance"`
	TotalAmount        decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"total_amount"`
	CreatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

func (MonthlyStaffStatus) TableName() string { return "monthly_staff_status" }

// 员工异动类型
const (
	MovementOnboard  = "onboard"
	MovementTransfer = "transfer"
	MovementLeave    = "leave"
	MovementResign   = "resign"
)

// EmployeeMovementHistory 员工异动记录，对应 employee_movement_history（只追加）
type EmployeeMovementHistory struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"           json:"id"`
	EmployeeCode  string    `gorm:"type:varchar(20);not null;index"    json:"employee_code"`
	EmployeeName  string    `gorm:"type:varchar(100);not null"         json:"employee_name"`
	MovementType  string    `gorm:"type:varchar(20);not null"          json:"movement_type"` // transfer | resign | onboard | leave
	FromStoreID   *string   `gorm:"type:uuid"                          json:"from_store_id,omitempty"`
	ToStoreID     *string   `gorm:"type:uuid"                          json:"to_store_id,omitempty"`
	OldPosition   string    `gorm:"type:varchar(50);not null;default:''" json:"old_position"`
	NewPosition   string    `gorm:"type:varchar(50);not null;default:''" json:"new_position"`
	EffectiveDate time.Time `gorm:"type:date;not null"                 json:"effective_date"`
	Note          string    `gorm:"type:text"                          json:"note,omitempty"`
	CreatedBy     string    `gorm:"type:uuid;not null"                 json:"created_by"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (EmployeeMovementHistory) TableName() string { return "employee_movement_history" }

// 升迁记录状态
const (
	PromotionPending  = "pending"
	PromotionAccepted = "accepted"
	PromotionRejected = "rejected"
)

// EmployeePromotionHistory 员工升迁记录，对应 employee_promotion_history（只追加）
// 已通过的升迁由数据库触发器同步至月度状态
type EmployeePromotionHistory struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"                    json:"id"`
	EmployeeCode  string    `gorm:"type:varchar(20);not null;index"             json:"employee_code"`
	EmployeeName  string    `gorm:"type:varchar(100);not null"                  json:"employee_name"`
	StoreID       string    `gorm:"type:uuid;not null"                          json:"store_id"`
	OldPosition   string    `gorm:"type:varchar(50);not null"                   json:"old_position"`
	NewPosition   string    `gorm:"type:varchar(50);not null"                   json:"new_position"`
	EffectiveDate time.Time `gorm:"type:date;not null"                          json:"effective_date"`
	Status        string    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Note          string    `gorm:"type:text"                                   json:"note,omitempty"`
	CreatedBy     string    `gorm:"type:uuid;not null"                          json:"created_by"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"          json:"created_at"`
}

func (EmployeePromotionHistory) TableName() string { return "employee_promotion_history" }
