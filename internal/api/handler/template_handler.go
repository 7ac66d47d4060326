package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"pharmacy-ops/backend/internal/dto"
	"pharmacy-ops/backend/internal/service"
	"pharmacy-ops/backend/pkg/response"
)

// TemplateHandler 任务模板 HTTP 处理器
type TemplateHandler struct {
	templateSvc service.TemplateService
}

// NewTemplateHandler 创建 TemplateHandler
func NewTemplateHandler(templateSvc service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateSvc: templateSvc}
}

// ListTemplates 模板列表
// GET /api/v1/templates?keyword=
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	list, err := h.templateSvc.List(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		h.handleTemplateError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// GetTemplate 模板详情
// GET /api/v1/templates/:id
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	tpl, err := h.templateSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleTemplateError(c, err)
		return
	}
	response.OK(c, tpl)
}

// CreateTemplate 创建模板
// POST /api/v1/templates
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req dto.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	tpl, err := h.templateSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleTemplateError(c, err)
		return
	}
	response.Created(c, tpl)
}

// UpdateTemplate 更新模板（乐观锁）
// PUT /api/v1/templates/:id
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	var req dto.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	tpl, err := h.templateSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleTemplateError(c, err)
		return
	}
	response.OK(c, tpl)
}

// DeleteTemplate 删除模板
// DELETE /api/v1/templates/:id
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.templateSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleTemplateError(c, err)
		return
	}
	response.OK(c, nil)
}

// handleTemplateError 统一处理模板模块业务错误
func (h *TemplateHandler) handleTemplateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTemplateNotFound):
		response.NotFound(c, 40001, "任务模板不存在")
	case errors.Is(err, service.ErrTemplateStepDuplicate):
		response.BadRequest(c, 40002, err.Error())
	case errors.Is(err, service.ErrTemplateVersionConflict):
		response.Conflict(c, 40003, "模板已被他人修改，请刷新后重试")
	default:
		response.InternalError(c, err)
	}
}
