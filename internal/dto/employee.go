package dto

// ── 员工 / 异动 / 升迁 DTO ──

// StoreEmployeeListRequest 门店员工列表查询参数
type StoreEmployeeListRequest struct {
	StoreID         string `form:"store_id"         binding:"omitempty,uuid"`
	Keyword         string `form:"keyword"          binding:"omitempty,max=50"`
	IncludeInactive bool   `form:"include_inactive"`
	PaginationRequest
}

// CreateStoreEmployeeRequest 新增门店员工请求
type CreateStoreEmployeeRequest struct {
	EmployeeCode string `json:"employee_code" binding:"required,max=20"`
	Name         string `json:"name"          binding:"required,min=1,max=100"`
	StoreID      string `json:"store_id"      binding:"required,uuid"`
	Position     string `json:"position"      binding:"omitempty,max=50"`
	HiredAt      string `json:"hired_at"      binding:"omitempty,datetime=2006-01-02"`
}

// StoreEmployeeResponse 门店员工响应
type StoreEmployeeResponse struct {
	ID           string  `json:"id"`
	EmployeeCode string  `json:"employee_code"`
	Name         string  `json:"name"`
	StoreID      string  `json:"store_id"`
	Position     string  `json:"position"`
	IsActive     bool    `json:"is_active"`
	HiredAt      *string `json:"hired_at,omitempty"`
}

// CreateMovementRequest 登记员工异动请求
type CreateMovementRequest struct {
	EmployeeCode  string  `json:"employee_code"  binding:"required,max=20"`
	EmployeeName  string  `json:"employee_name"  binding:"required,min=1,max=100"`
	MovementType  string  `json:"movement_type"  binding:"required,oneof=onboard transfer leave resign"`
	FromStoreID   *string `json:"from_store_id"  binding:"omitempty,uuid"`
	ToStoreID     *string `json:"to_store_id"    binding:"omitempty,uuid"`
	OldPosition   string  `json:"old_position"   binding:"omitempty,max=50"`
	NewPosition   string  `json:"new_position"   binding:"omitempty,max=50"`
	EffectiveDate string  `json:"effective_date" binding:"required,datetime=2006-01-02"`
	Note          string  `json:"note"           binding:"omitempty,max=1000"`
}

// MovementListRequest 异动记录查询参数
type MovementListRequest struct {
	EmployeeCode string `form:"employee_code" binding:"omitempty,max=20"`
	StoreID      string `form:"store_id"      binding:"omitempty,uuid"`
	MovementType string `form:"movement_type" binding:"omitempty,oneof=onboard transfer leave resign"`
	DateRangeQuery
	PaginationRequest
}

// MovementResponse 异动记录响应
type MovementResponse struct {
	ID            uint64  `json:"id"`
	EmployeeCode  string  `json:"employee_code"`
	EmployeeName  string  `json:"employee_name"`
	MovementType  string  `json:"movement_type"`
	FromStoreID   *string `json:"from_store_id,omitempty"`
	ToStoreID     *string `json:"to_store_id,omitempty"`
	OldPosition   string  `json:"old_position,omitempty"`
	NewPosition   string  `json:"new_position,omitempty"`
	EffectiveDate string  `json:"effective_date"`
	Note          string  `json:"note,omitempty"`
	CreatedBy     string  `json:"created_by"`
	CreatedAt     string  `json:"created_at"`
}

// CreatePromotionRequest 登记员工升迁请求
type CreatePromotionRequest struct {
	EmployeeCode  string `json:"employee_code"  binding:"required,max=20"`
	EmployeeName  string `json:"employee_name"  binding:"required,min=1,max=100"`
	StoreID       string `json:"store_id"       binding:"required,uuid"`
	OldPosition   string `json:"old_position"   binding:"required,max=50"`
	NewPosition   string `json:"new_position"   binding:"required,max=50,nefield=OldPosition"`
	EffectiveDate string `json:"effective_date" binding:"required,datetime=2006-01-02"`
	Note          string `json:"note"           binding:"omitempty,max=1000"`
}

// PromotionListRequest 升迁记录查询参数
type PromotionListRequest struct {
	EmployeeCode string `form:"employee_code" binding:"omitempty,max=20"`
	StoreID      string `form:"store_id"      binding:"omitempty,uuid"`
	Status       string `form:"status"        binding:"omitempty,oneof=pending accepted rejected"`
	PaginationRequest
}

// PromotionResponse 升迁记录响应
type PromotionResponse struct {
	ID            uint64 `json:"id"`
	EmployeeCode  string `json:"employee_code"`
	EmployeeName  string `json:"employee_name"`
	StoreID       string `json:"store_id"`
	OldPosition   string `json:"old_position"`
	NewPosition   string `json:"new_position"`
	EffectiveDate string `json:"effective_date"`
	Status        string `json:"status"`
	Note          string `json:"note,omitempty"`
	CreatedBy     string `json:"created_by"`
	CreatedAt     string `json:"created_at"`
}
