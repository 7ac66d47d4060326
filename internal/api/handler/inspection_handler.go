package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"pharmacy-ops/backend/internal/dto"
	"pharmacy-ops/backend/internal/service"
	"pharmacy-ops/backend/pkg/response"
)

// InspectionHandler 巡检 HTTP 处理器
type InspectionHandler struct {
	inspectionSvc service.InspectionService
}

// NewInspectionHandler 创建 InspectionHandler
func NewInspectionHandler(inspectionSvc service.InspectionService) *InspectionHandler {
	return &InspectionHandler{inspectionSvc: inspectionSvc}
}

// ────────────────────── 巡检模板 ──────────────────────

// ListTemplates 巡检模板列表
// GET /api/v1/inspection-templates?include_inactive=true
func (h *InspectionHandler) ListTemplates(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"

	list, err := h.inspectionSvc.ListTemplates(c.Request.Context(), includeInactive)
	if err != nil {
		h.handleInspectionError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// GetTemplate 巡检模板详情
// GET /api/v1/inspection-templates/:id
func (h *InspectionHandler) GetTemplate(c *gin.Context) {
	tpl, err := h.inspectionSvc.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleInspectionError(c, err)
		return
	}
	response.OK(c, tpl)
}

// CreateTemplate 创建巡检模板
// POST /api/v1/inspection-templates
func (h *InspectionHandler) CreateTemplate(c *gin.Context) {
	var req dto.CreateInspectionTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	tpl, err := h.inspectionSvc.CreateTemplate(c.Request.Context(), &req)
	if err != nil {
		h.handleInspectionError(c, err)
		return
	}
	response.Created(c, tpl)
}

// UpdateTemplate 更新巡检模板
// PUT /api/v1/inspection-templates/:id
func (h *InspectionHandler) UpdateTemplate(c *gin.Context) {
	var req dto.UpdateInspectionTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	tpl, err := h.inspectionSvc.UpdateTemplate(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleInspectionError(c, err)
		return
	}
	response.OK(c, tpl)
}

// DeleteTemplate 删除巡检模板
// DELETE /api/v1/inspection-templates/:id
func (h *InspectionHandler) DeleteTemplate(c *gin.Context) {
	if err := h.inspectionSvc.DeleteTemplate(c.Request.Context(), c.Param("id")); err != nil {
		h.handleInspectionError(c, err)
		return
	}
	response.OK(c, nil)
}

// ────────────────────── 巡检记录 ──────────────────────

// ListInspections 巡检记录列表
// GET /api/v1/inspections
func (h *InspectionHandler) ListInspections(c *gin.Context) {
	var req dto.InspectionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.inspectionSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleInspectionError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetInspection 巡检记录详情
// GET /api/v1/inspections/:id
func (h *InspectionHandler) GetInspection(c *gin.Context) {
	insp, err := h.inspectionSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleInspectionError(c, err)
		return
	}
	response.OK(c, insp)
}

// CreateInspection 提交巡检
// POST /api/v1/inspections
func (h *InspectionHandler) CreateInspection(c *gin.Context) {
	var req dto.CreateInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	inspectorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	insp, err := h.inspectionSvc.Create(c.Request.Context(), &req, inspectorID)
	if err != nil {
		h.handleInspectionError(c, err)
		return
	}
	response.Created(c, insp)
}

// DeleteInspection 删除巡检记录（明细与主记录同一事务）
// DELETE /api/v1/inspections/:id
func (h *InspectionHandler) DeleteInspection(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.inspectionSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleInspectionError(c, err)
		return
	}
	response.OK(c, nil)
}

// handleInspectionError 统一处理巡检模块业务错误
func (h *InspectionHandler) handleInspectionError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrInspectionTemplateNotFound):
		response.NotFound(c, 70001, "巡检模板不存在")
	case errors.Is(err, service.ErrInspectionTemplateInactive):
		response.BadRequest(c, 70002, "巡检模板已停用")
	case errors.Is(err, service.ErrInspectionTemplateInUse):
		response.Conflict(c, 70003, "巡检模板已被巡检记录引用，无法删除")
	case errors.Is(err, service.ErrInspectionSectionDuplicate),
		errors.Is(err, service.ErrInspectionItemDuplicate),
		errors.Is(err, service.ErrInspectionMaxScore):
		response.BadRequest(c, 70004, err.Error())
	case errors.Is(err, service.ErrInspectionNotFound):
		response.NotFound(c, 70005, "巡检记录不存在")
	case errors.Is(err, service.ErrInspectionUnknownItem),
		errors.Is(err, service.ErrInspectionResultDuplicate),
		errors.Is(err, service.ErrInspectionScoreRange):
		response.BadRequest(c, 70006, err.Error())
	case errors.Is(err, service.ErrStoreNotFound):
		response.BadRequest(c, 70007, "门店不存在")
	default:
		response.InternalError(c, err)
	}
}
