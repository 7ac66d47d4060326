package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SupportStaffBonus 支援人员奖金，对应 support_staff_bonus
// 按 (store_id, year_month) 整批替换
type SupportStaffBonus struct {
	ID           string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	EmployeeCode string          `gorm:"type:varchar(20);not null"                      json:"employee_code"`
	EmployeeName string          `gorm:"type:varchar(100);not null"                     json:"employee_name"`
	StoreID      string          `gorm:"type:uuid;not null"                             json:"store_id"`
	YearMonth    string          `gorm:"type:char(6);not null"                          json:"year_month"`
	SupportDays  decimal.Decimal `gorm:"type:numeric(5,1);not null;default:0"           json:"support_days"`
	Amount       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"amount"`
	Note         string          `gorm:"type:text"                                      json:"note,omitempty"`
	CreatedBy    string          `gorm:"type:uuid;not null"                             json:"created_by"`
	CreatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

func (SupportStaffBonus) TableName() string { return "support_staff_bonus" }

// MealAllowanceRecord 伙食补贴，对应 meal_allowance_records
// 唯一约束 (employee_code, store_id, year_month)，写入为 upsert
type MealAllowanceRecord struct {
	ID           string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	EmployeeCode string          `gorm:"type:varchar(20);not null"                      json:"employee_code"`
	EmployeeName string          `gorm:"type:varchar(100);not null"                     json:"employee_name"`
	StoreID      string          `gorm:"type:uuid;not null"                             json:"store_id"`
	YearMonth    string          `gorm:"type:char(6);not null"                          json:"year_month"`
	Days         decimal.Decimal `gorm:"type:numeric(5,1);not null;default:0"           json:"days"`
	Amount       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"amount"`
	Note         string          `gorm:"type:text"                                      json:"note,omitempty"`
	UpdatedBy    string          `gorm:"type:uuid;not null"                             json:"updated_by"`
	CreatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

func (MealAllowanceRecord) TableName() string { return "meal_allowance_records" }

// TransportExpense 交通费，对应 transport_expenses
// 唯一约束 (employee_code, store_id, year_month)，写入为 upsert
type TransportExpense struct {
	ID           string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	EmployeeCode string          `gorm:"type:varchar(20);not null"                      json:"employee_code"`
	EmployeeName string          `gorm:"type:varchar(100);not null"                     json:"employee_name"`
	StoreID      string          `gorm:"type:uuid;not null"                             json:"store_id"`
	YearMonth    string          `gorm:"type:char(6);not null"                          json:"year_month"`
	Trips        int             `gorm:"not null;default:0"                             json:"trips"`
	Amount       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"amount"`
	Note         string          `gorm:"type:text"                                      json:"note,omitempty"`
	UpdatedBy    string          `gorm:"type:uuid;not null"                             json:"updated_by"`
	CreatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

func (TransportExpense) TableName() string { return "transport_expenses" }
