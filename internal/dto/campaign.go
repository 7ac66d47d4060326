package dto

// ── 活动 DTO ──

// CreateCampaignRequest 创建活动请求
type CreateCampaignRequest struct {
	Title            string `json:"title"              binding:"required,min=1,max=200"`
	Description      string `json:"description"        binding:"omitempty,max=5000"`
	PublishToAdmin   *bool  `json:"publish_to_admin"`
	PublishToManager bool   `json:"publish_to_manager"`
	PublishToMember  bool   `json:"publish_to_member"`
	StartDate        string `json:"start_date"         binding:"required,datetime=2006-01-02"`
	EndDate          string `json:"end_date"           binding:"required,datetime=2006-01-02"`
}

// UpdateCampaignRequest 更新活动请求
type UpdateCampaignRequest struct {
	Title            *string `json:"title"              binding:"omitempty,min=1,max=200"`
	Description      *string `json:"description"        binding:"omitempty,max=5000"`
	PublishToAdmin   *bool   `json:"publish_to_admin"`
	PublishToManager *bool   `json:"publish_to_manager"`
	PublishToMember  *bool   `json:"publish_to_member"`
	StartDate        *string `json:"start_date"         binding:"omitempty,datetime=2006-01-02"`
	EndDate          *string `json:"end_date"           binding:"omitempty,datetime=2006-01-02"`
}

// CampaignResponse 活动响应
type CampaignResponse struct {
	ID               string                     `json:"id"`
	Title            string                     `json:"title"`
	Description      string                     `json:"description,omitempty"`
	PublishToAdmin   bool                       `json:"publish_to_admin"`
	PublishToManager bool                       `json:"publish_to_manager"`
	PublishToMember  bool                       `json:"publish_to_member"`
	StartDate        string                     `json:"start_date"`
	EndDate          string                     `json:"end_date"`
	Schedules        []CampaignScheduleResponse `json:"schedules,omitempty"`
	CreatedAt        string                     `json:"created_at"`
	UpdatedAt        string                     `json:"updated_at"`
}

// CreateScheduleRequest 创建活动排期请求
type CreateScheduleRequest struct {
	Title     string  `json:"title"      binding:"required,min=1,max=200"`
	StoreID   *string `json:"store_id"   binding:"omitempty,uuid"`
	StartDate string  `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string  `json:"end_date"   binding:"required,datetime=2006-01-02"`
	Note      string  `json:"note"       binding:"omitempty,max=1000"`
}

// UpdateScheduleRequest 更新活动排期请求
type UpdateScheduleRequest struct {
	Title     *string `json:"title"      binding:"omitempty,min=1,max=200"`
	StoreID   *string `json:"store_id"   binding:"omitempty,uuid"`
	StartDate *string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"end_date"   binding:"omitempty,datetime=2006-01-02"`
	Note      *string `json:"note"       binding:"omitempty,max=1000"`
}

// CampaignScheduleResponse 活动排期响应
type CampaignScheduleResponse struct {
	ID         string  `json:"id"`
	CampaignID string  `json:"campaign_id"`
	Title      string  `json:"title"`
	StoreID    *string `json:"store_id,omitempty"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	Note       string  `json:"note,omitempty"`
}
