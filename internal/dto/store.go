package dto

import "github.com/shopspring/decimal"

// ── 门店 DTO ──

// StoreListRequest 门店列表查询参数
type StoreListRequest struct {
	Region          string `form:"region"           binding:"omitempty,max=50"`
	IncludeInactive bool   `form:"include_inactive"`
}

// StoreResponse 门店响应
type StoreResponse struct {
	ID        string `json:"id"`
	StoreCode string `json:"store_code"`
	Name      string `json:"name"`
	Region    string `json:"region"`
	IsActive  bool   `json:"is_active"`
}

// ManagerBrief 门店管理人员
type ManagerBrief struct {
	UserID     string `json:"user_id"`
	FullName   string `json:"full_name"`
	JobTitle   string `json:"job_title,omitempty"`
	StoreCount int    `json:"store_count,omitempty"`
	IsPrimary  bool   `json:"is_primary"`
}

// StoreWithSupervisorsResponse 门店及其督导、店长
type StoreWithSupervisorsResponse struct {
	StoreResponse
	Supervisors   []ManagerBrief `json:"supervisors"`
	StoreManagers []ManagerBrief `json:"store_managers"`
}

// ReplaceStoreManagerRequest 整体替换某人的主店长门店
type ReplaceStoreManagerRequest struct {
	StoreIDs []string `json:"store_ids" binding:"omitempty,max=50,dive,uuid"`
}

// StoreSummaryRequest 门店月度汇总查询参数
type StoreSummaryRequest struct {
	YearMonth string `form:"year_month" binding:"required,yearmonth"`
	Region    string `form:"region"     binding:"omitempty,max=50"`
}

// StoreSummaryResponse 门店月度汇总
type StoreSummaryResponse struct {
	StoreResponse
	YearMonth          string          `json:"year_month"`
	HeadCount          int64           `json:"head_count"`
	StaffTotal         decimal.Decimal `json:"staff_total"`
	SupportBonusTotal  decimal.Decimal `json:"support_bonus_total"`
	MealAllowanceTotal decimal.Decimal `json:"meal_allowance_total"`
	TransportTotal     decimal.Decimal `json:"transport_total"`
	LastInspectionDate *string         `json:"last_inspection_date,omitempty"`
	LastInspectionRate *string         `json:"last_inspection_rate,omitempty"` // 得分率，如 "92.50%"
}
