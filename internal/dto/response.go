package dto

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// ── 通用查询 ──

// StoreMonthQuery 按门店 + 年月查询（year_month 形如 202403）
type StoreMonthQuery struct {
	StoreID   string `form:"store_id"   binding:"required,uuid"`
	YearMonth string `form:"year_month" binding:"required,yearmonth"`
}

// DateRangeQuery 日期区间查询参数（闭区间，YYYY-MM-DD）
type DateRangeQuery struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to"   binding:"omitempty,datetime=2006-01-02"`
}

// UserBrief 用户简要信息
type UserBrief struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	JobTitle string `json:"job_title,omitempty"`
}
