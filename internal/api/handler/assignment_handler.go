package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"pharmacy-ops/backend/internal/dto"
	"pharmacy-ops/backend/internal/service"
	"pharmacy-ops/backend/pkg/response"
)

// AssignmentHandler 任务实例 HTTP 处理器
type AssignmentHandler struct {
	assignmentSvc service.AssignmentService
}

// NewAssignmentHandler 创建 AssignmentHandler
func NewAssignmentHandler(assignmentSvc service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentSvc: assignmentSvc}
}

// CreateAssignment 由模板派发任务
// POST /api/v1/assignments
func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	a, err := h.assignmentSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.Created(c, a)
}

// ListAssignments 我的任务（负责人或协作者）；all=true 时查看全部
// GET /api/v1/assignments
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	var req dto.AssignmentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, total, err := h.assignmentSvc.List(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetAssignment 任务详情（含已勾选步骤）
// GET /api/v1/assignments/:id
func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	a, err := h.assignmentSvc.GetByID(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, a)
}

// ToggleStep 勾选/取消勾选步骤
// POST /api/v1/assignments/:id/steps/:stepId/toggle
func (h *AssignmentHandler) ToggleStep(c *gin.Context) {
	var req dto.ToggleStepRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	a, err := h.assignmentSvc.ToggleStep(c.Request.Context(), c.Param("id"), c.Param("stepId"), &req, callerID)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, a)
}

// Comment 为步骤追加备注
// POST /api/v1/assignments/:id/comments
func (h *AssignmentHandler) Comment(c *gin.Context) {
	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	log, err := h.assignmentSvc.Comment(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.Created(c, log)
}

// ListLogs 任务日志
// GET /api/v1/assignments/:id/logs
func (h *AssignmentHandler) ListLogs(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	logs, err := h.assignmentSvc.ListLogs(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, gin.H{"list": logs})
}

// Archive 归档
// POST /api/v1/assignments/:id/archive
func (h *AssignmentHandler) Archive(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	a, err := h.assignmentSvc.Archive(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, a)
}

// Unarchive 取消归档
// POST /api/v1/assignments/:id/unarchive
func (h *AssignmentHandler) Unarchive(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	a, err := h.assignmentSvc.Unarchive(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, a)
}

// DeleteAssignment 删除任务
// DELETE /api/v1/assignments/:id
func (h *AssignmentHandler) DeleteAssignment(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.assignmentSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, nil)
}

// AddCollaborators 添加协作者
// POST /api/v1/assignments/:id/collaborators
func (h *AssignmentHandler) AddCollaborators(c *gin.Context) {
	var req dto.CollaboratorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	a, err := h.assignmentSvc.AddCollaborators(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, a)
}

// RemoveCollaborator 移除协作者
// DELETE /api/v1/assignments/:id/collaborators/:userId
func (h *AssignmentHandler) RemoveCollaborator(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.assignmentSvc.RemoveCollaborator(c.Request.Context(), c.Param("id"), c.Param("userId"), callerID); err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, nil)
}

// ArchivedGroups 管理员归档视图
// GET /api/v1/admin/assignments/archived
func (h *AssignmentHandler) ArchivedGroups(c *gin.Context) {
	groups, err := h.assignmentSvc.ArchivedGroups(c.Request.Context())
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, gin.H{"groups": groups})
}

// handleAssignmentError 统一处理任务模块业务错误
func (h *AssignmentHandler) handleAssignmentError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 41001, "任务不存在")
	case errors.Is(err, service.ErrAssignmentForbidden):
		response.Forbidden(c, 41002, "只有任务负责人或协作者可以操作该任务")
	case errors.Is(err, service.ErrAssignmentArchived):
		response.Conflict(c, 41003, "任务已归档，不可再修改")
	case errors.Is(err, service.ErrAssignmentNotCompleted):
		response.Conflict(c, 41004, "只有已完成的任务可以归档")
	case errors.Is(err, service.ErrAssignmentNotArchived):
		response.Conflict(c, 41005, "任务未归档")
	case errors.Is(err, service.ErrStepNotFound):
		response.NotFound(c, 41006, "任务中不存在该步骤")
	case errors.Is(err, service.ErrAssigneeNotFound):
		response.BadRequest(c, 41007, "负责人不存在")
	case errors.Is(err, service.ErrCollaboratorNotFound):
		response.BadRequest(c, 41008, "协作者不存在")
	case errors.Is(err, service.ErrCollaboratorIsAssignee):
		response.BadRequest(c, 41009, "负责人不能同时是协作者")
	case errors.Is(err, service.ErrTemplateNotFound):
		response.NotFound(c, 40001, "任务模板不存在")
	default:
		response.InternalError(c, err)
	}
}
