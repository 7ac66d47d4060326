package dto

// ── 任务模板 DTO ──

// StepInput 模板步骤
type StepInput struct {
	ID          string `json:"id"          binding:"required,max=64"`
	Title       string `json:"title"       binding:"required,max=200"`
	Description string `json:"description" binding:"omitempty,max=1000"`
}

// CreateTemplateRequest 创建任务模板请求
type CreateTemplateRequest struct {
	Title       string      `json:"title"        binding:"required,min=1,max=200"`
	Description string      `json:"description"  binding:"omitempty,max=2000"`
	Steps       []StepInput `json:"steps_schema" binding:"required,min=1,dive"`
}

// UpdateTemplateRequest 更新任务模板请求（version 用于乐观锁）
type UpdateTemplateRequest struct {
	Title       *string     `json:"title"        binding:"omitempty,min=1,max=200"`
	Description *string     `json:"description"  binding:"omitempty,max=2000"`
	Steps       []StepInput `json:"steps_schema" binding:"omitempty,min=1,dive"`
	Version     int         `json:"version"      binding:"required,min=1"`
}

// TemplateResponse 任务模板响应
type TemplateResponse struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Steps       []StepResponse `json:"steps_schema"`
	Version     int            `json:"version"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

// StepResponse 步骤响应
type StepResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Checked     bool   `json:"checked"`
}

// ── 任务实例 DTO ──

// CreateAssignmentRequest 派发任务请求
type CreateAssignmentRequest struct {
	TemplateID      string   `json:"template_id"      binding:"required,uuid"`
	AssignedTo      string   `json:"assigned_to"      binding:"required,uuid"`
	CollaboratorIDs []string `json:"collaborator_ids" binding:"omitempty,max=20,dive,uuid"`
	DueDate         string   `json:"due_date"         binding:"omitempty,datetime=2006-01-02"`
}

// AssignmentListRequest 任务列表查询参数
type AssignmentListRequest struct {
	Status     string `form:"status"      binding:"omitempty,oneof=pending in_progress completed archived"`
	AssignedTo string `form:"assigned_to" binding:"omitempty,uuid"`
	All        bool   `form:"all"` // 查看全部任务（需 task.assignment.read_all）
	PaginationRequest
}

// ToggleStepRequest 勾选/取消勾选步骤请求
// Checked 为空时按当前状态取反
type ToggleStepRequest struct {
	Checked *bool  `json:"checked"`
	Note    string `json:"note"    binding:"omitempty,max=500"`
}

// CommentRequest 步骤备注请求
type CommentRequest struct {
	StepID string `json:"step_id" binding:"required,max=64"`
	Note   string `json:"note"    binding:"required,min=1,max=1000"`
}

// CollaboratorsRequest 添加协作者请求
type CollaboratorsRequest struct {
	UserIDs []string `json:"user_ids" binding:"required,min=1,max=20,dive,uuid"`
}

// ProgressResponse 任务进度
type ProgressResponse struct {
	Checked int `json:"checked"`
	Total   int `json:"total"`
}

// AssignmentResponse 任务实例响应
type AssignmentResponse struct {
	ID            string            `json:"id"`
	TemplateID    string            `json:"template_id"`
	Title         string            `json:"title"`
	Steps         []StepResponse    `json:"steps"`
	AssignedTo    string            `json:"assigned_to"`
	AssignedBy    string            `json:"assigned_by"`
	Status        string            `json:"status"`
	DueDate       *string           `json:"due_date,omitempty"`
	CompletedAt   *string           `json:"completed_at,omitempty"`
	ArchivedAt    *string           `json:"archived_at,omitempty"`
	Collaborators []string          `json:"collaborators"`
	Progress      *ProgressResponse `json:"progress,omitempty"` // 仅详情返回
	CreatedAt     string            `json:"created_at"`
	UpdatedAt     string            `json:"updated_at"`
}

// TaskLogResponse 任务日志响应
type TaskLogResponse struct {
	ID        uint64 `json:"id"`
	UserID    string `json:"user_id"`
	StepID    string `json:"step_id"`
	Action    string `json:"action"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ArchiveGroupResponse 归档任务按月分组（key 形如 2024/03）
type ArchiveGroupResponse struct {
	Key   string               `json:"key"`
	Items []AssignmentResponse `json:"items"`
}
