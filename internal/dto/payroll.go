package dto

import "github.com/shopspring/decimal"

// ── 月度状态 / 奖金 / 补贴 DTO ──

// MonthlyStaffStatusResponse 员工月度状态响应
type MonthlyStaffStatusResponse struct {
	ID                 string          `json:"id"`
	EmployeeCode       string          `json:"employee_code"`
	EmployeeName       string          `json:"employee_name"`
	StoreID            string          `json:"store_id"`
	YearMonth          string          `json:"year_month"`
	Position           string          `json:"position"`
	EmploymentStatus   string          `json:"employment_status"`
	WorkDays           decimal.Decimal `json:"work_days"`
	BaseBonus          decimal.Decimal `json:"base_bonus"`
	TransportAllowance decimal.Decimal `json:"transport_allowance"`
	MealAllowance      decimal.Decimal `json:"meal_allowance"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
}

// BonusItemInput 支援奖金明细
type BonusItemInput struct {
	EmployeeCode string          `json:"employee_code" binding:"required,max=20"`
	EmployeeName string          `json:"employee_name" binding:"required,min=1,max=100"`
	SupportDays  decimal.Decimal `json:"support_days"`
	Amount       decimal.Decimal `json:"amount"`
	Note         string          `json:"note"          binding:"omitempty,max=500"`
}

// ReplaceBonusRequest 整批替换某门店某月的支援奖金
type ReplaceBonusRequest struct {
	StoreID   string           `json:"store_id"   binding:"required,uuid"`
	YearMonth string           `json:"year_month" binding:"required,yearmonth"`
	Items     []BonusItemInput `json:"items"      binding:"omitempty,max=500,dive"`
}

// SupportStaffBonusResponse 支援奖金响应
type SupportStaffBonusResponse struct {
	ID           string          `json:"id"`
	EmployeeCode string          `json:"employee_code"`
	EmployeeName string          `json:"employee_name"`
	StoreID      string          `json:"store_id"`
	YearMonth    string          `json:"year_month"`
	SupportDays  decimal.Decimal `json:"support_days"`
	Amount       decimal.Decimal `json:"amount"`
	Note         string          `json:"note,omitempty"`
}

// BonusBatchResponse 整批奖金结果
type BonusBatchResponse struct {
	StoreID   string                      `json:"store_id"`
	YearMonth string                      `json:"year_month"`
	Total     decimal.Decimal             `json:"total"`
	Items     []SupportStaffBonusResponse `json:"items"`
}

// UpsertMealAllowanceRequest 新增或更新伙食补贴
type UpsertMealAllowanceRequest struct {
	EmployeeCode string          `json:"employee_code" binding:"required,max=20"`
	EmployeeName string          `json:"employee_name" binding:"required,min=1,max=100"`
	StoreID      string          `json:"store_id"      binding:"required,uuid"`
	YearMonth    string          `json:"year_month"    binding:"required,yearmonth"`
	Days         decimal.Decimal `json:"days"`
	Amount       decimal.Decimal `json:"amount"`
	Note         string          `json:"note"          binding:"omitempty,max=500"`
}

// MealAllowanceResponse 伙食补贴响应
type MealAllowanceResponse struct {
	ID           string          `json:"id"`
	EmployeeCode string          `json:"employee_code"`
	EmployeeName string          `json:"employee_name"`
	StoreID      string          `json:"store_id"`
	YearMonth    string          `json:"year_month"`
	Days         decimal.Decimal `json:"days"`
	Amount       decimal.Decimal `json:"amount"`
	Note         string          `json:"note,omitempty"`
	UpdatedAt    string          `json:"updated_at"`
}

// ImportRowError 导入失败的行
type ImportRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportResultResponse 导入结果
type ImportResultResponse struct {
	Imported int              `json:"imported"`
	Skipped  []ImportRowError `json:"skipped"`
}

// UpsertTransportExpenseRequest 新增或更新交通费
type UpsertTransportExpenseRequest struct {
	EmployeeCode string          `json:"employee_code" binding:"required,max=20"`
	EmployeeName string          `json:"employee_name" binding:"required,min=1,max=100"`
	StoreID      string          `json:"store_id"      binding:"required,uuid"`
	YearMonth    string          `json:"year_month"    binding:"required,yearmonth"`
	Trips        int             `json:"trips"         binding:"min=0,max=1000"`
	Amount       decimal.Decimal `json:"amount"`
	Note         string          `json:"note"          binding:"omitempty,max=500"`
}

// TransportExpenseResponse 交通费响应
type TransportExpenseResponse struct {
	ID           string          `json:"id"`
	EmployeeCode string          `json:"employee_code"`
	EmployeeName string          `json:"employee_name"`
	StoreID      string          `json:"store_id"`
	YearMonth    string          `json:"year_month"`
	Trips        int             `json:"trips"`
	Amount       decimal.Decimal `json:"amount"`
	Note         string          `json:"note,omitempty"`
	UpdatedAt    string          `json:"updated_at"`
}
