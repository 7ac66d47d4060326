package dto

import "github.com/shopspring/decimal"

// ── 巡检 DTO ──

// InspectionItemInput 巡检项
type InspectionItemInput struct {
	ID       string          `json:"id"        binding:"required,max=64"`
	Title    string          `json:"title"     binding:"required,max=200"`
	MaxScore decimal.Decimal `json:"max_score"`
}

// InspectionSectionInput 巡检分区
type InspectionSectionInput struct {
	ID    string                `json:"id"    binding:"required,max=64"`
	Title string                `json:"title" binding:"required,max=200"`
	Items []InspectionItemInput `json:"items" binding:"required,min=1,dive"`
}

// CreateInspectionTemplateRequest 创建巡检模板请求
type CreateInspectionTemplateRequest struct {
	Name     string                   `json:"name"     binding:"required,min=1,max=100"`
	Sections []InspectionSectionInput `json:"sections" binding:"required,min=1,dive"`
}

// UpdateInspectionTemplateRequest 更新巡检模板请求
type UpdateInspectionTemplateRequest struct {
	Name     *string                  `json:"name"     binding:"omitempty,min=1,max=100"`
	Sections []InspectionSectionInput `json:"sections" binding:"omitempty,min=1,dive"`
	IsActive *bool                    `json:"is_active"`
}

// InspectionItemResponse 巡检项响应
type InspectionItemResponse struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	MaxScore decimal.Decimal `json:"max_score"`
}

// InspectionSectionResponse 巡检分区响应
type InspectionSectionResponse struct {
	ID    string                   `json:"id"`
	Title string                   `json:"title"`
	Items []InspectionItemResponse `json:"items"`
}

// InspectionTemplateResponse 巡检模板响应
type InspectionTemplateResponse struct {
	ID        string                      `json:"id"`
	Name      string                      `json:"name"`
	Sections  []InspectionSectionResponse `json:"sections"`
	MaxScore  decimal.Decimal             `json:"max_score"`
	IsActive  bool                        `json:"is_active"`
	CreatedAt string                      `json:"created_at"`
	UpdatedAt string                      `json:"updated_at"`
}

// InspectionResultInput 巡检明细
type InspectionResultInput struct {
	SectionID string          `json:"section_id" binding:"required,max=64"`
	ItemID    string          `json:"item_id"    binding:"required,max=64"`
	Score     decimal.Decimal `json:"score"`
	IsChecked bool            `json:"is_checked"`
	Note      string          `json:"note"       binding:"omitempty,max=500"`
}

// CreateInspectionRequest 提交巡检请求
type CreateInspectionRequest struct {
	TemplateID     string                  `json:"template_id"     binding:"required,uuid"`
	StoreID        string                  `json:"store_id"        binding:"required,uuid"`
	InspectionDate string                  `json:"inspection_date" binding:"required,datetime=2006-01-02"`
	Note           string                  `json:"note"            binding:"omitempty,max=2000"`
	Results        []InspectionResultInput `json:"results"         binding:"required,min=1,dive"`
}

// InspectionListRequest 巡检列表查询参数
type InspectionListRequest struct {
	StoreID string `form:"store_id" binding:"omitempty,uuid"`
	DateRangeQuery
	PaginationRequest
}

// InspectionResultResponse 巡检明细响应
type InspectionResultResponse struct {
	SectionID string          `json:"section_id"`
	ItemID    string          `json:"item_id"`
	Score     decimal.Decimal `json:"score"`
	IsChecked bool            `json:"is_checked"`
	Note      string          `json:"note,omitempty"`
}

// InspectionResponse 巡检记录响应
type InspectionResponse struct {
	ID             string                     `json:"id"`
	TemplateID     string                     `json:"template_id"`
	StoreID        string                     `json:"store_id"`
	InspectorID    string                     `json:"inspector_id"`
	InspectionDate string                     `json:"inspection_date"`
	TotalScore     decimal.Decimal            `json:"total_score"`
	MaxScore       decimal.Decimal            `json:"max_score"`
	Note           string                     `json:"note,omitempty"`
	Results        []InspectionResultResponse `json:"results,omitempty"`
	CreatedAt      string                     `json:"created_at"`
}
