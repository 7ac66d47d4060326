package dto

// ── 用户档案 DTO ──

// ProfileListRequest 档案列表查询参数
type ProfileListRequest struct {
	Role       string `form:"role"       binding:"omitempty,oneof=admin manager member"`
	Department string `form:"department" binding:"omitempty,max=100"`
	Keyword    string `form:"keyword"    binding:"omitempty,max=50"`
	PaginationRequest
}

// UpdateProfileRequest 管理员更新档案请求
type UpdateProfileRequest struct {
	FullName     *string `json:"full_name"     binding:"omitempty,min=1,max=100"`
	Role         *string `json:"role"          binding:"omitempty,oneof=admin manager member"`
	Department   *string `json:"department"    binding:"omitempty,max=100"`
	JobTitle     *string `json:"job_title"     binding:"omitempty,max=100"`
	EmployeeCode *string `json:"employee_code" binding:"omitempty,max=20"`
	StoreID      *string `json:"store_id"      binding:"omitempty,uuid"`
}

// ResetPasswordRequest 管理员重置密码请求
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// ProfileResponse 档案响应
type ProfileResponse struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	FullName     string   `json:"full_name"`
	Role         string   `json:"role"`
	Department   string   `json:"department"`
	JobTitle     string   `json:"job_title"`
	EmployeeCode *string  `json:"employee_code,omitempty"`
	StoreID      *string  `json:"store_id,omitempty"`
	Roles        []string `json:"roles,omitempty"` // 参与权限评估的全部角色（含派生角色）
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}
