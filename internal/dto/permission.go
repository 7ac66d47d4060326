package dto

// ── 权限策略 DTO ──

// PermissionCheckRequest 权限自检参数
type PermissionCheckRequest struct {
	Key string `form:"key" binding:"required,permkey"`
}

// PermissionCheckResponse 权限自检结果
type PermissionCheckResponse struct {
	Allowed bool     `json:"allowed"`
	Key     string   `json:"key"`
	Message string   `json:"message,omitempty"`
	Mode    string   `json:"mode"`
	Roles   []string `json:"roles"`
}

// CreatePolicyRequest 新增策略请求
type CreatePolicyRequest struct {
	Role          string `json:"role"           binding:"required,max=50"`
	PermissionKey string `json:"permission_key" binding:"required,max=120,policykey"`
}

// PolicyListRequest 策略列表查询参数
type PolicyListRequest struct {
	Role string `form:"role" binding:"omitempty,max=50"`
}

// PolicyResponse 策略响应
type PolicyResponse struct {
	ID            uint64 `json:"id"`
	Role          string `json:"role"`
	PermissionKey string `json:"permission_key"`
	CreatedAt     string `json:"created_at"`
}

// CreateAttributeRuleRequest 新增属性派生规则请求
type CreateAttributeRuleRequest struct {
	Attribute string `json:"attribute"  binding:"required,oneof=job_title department"`
	MatchType string `json:"match_type" binding:"required,oneof=contains prefix equals"`
	Pattern   string `json:"pattern"    binding:"required,max=100"`
	Role      string `json:"role"       binding:"required,max=50"`
}

// AttributeRuleResponse 属性派生规则响应
type AttributeRuleResponse struct {
	ID        uint64 `json:"id"`
	Attribute string `json:"attribute"`
	MatchType string `json:"match_type"`
	Pattern   string `json:"pattern"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}
