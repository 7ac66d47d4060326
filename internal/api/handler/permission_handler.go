package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"pharmacy-ops/backend/internal/dto"
	"pharmacy-ops/backend/internal/service"
	"pharmacy-ops/backend/pkg/response"
)

// PermissionHandler 权限策略 HTTP 处理器
type PermissionHandler struct {
	permSvc service.PermissionService
}

// NewPermissionHandler 创建 PermissionHandler
func NewPermissionHandler(permSvc service.PermissionService) *PermissionHandler {
	return &PermissionHandler{permSvc: permSvc}
}

// Check 当前用户权限自检
// GET /api/v1/permissions/check?key=
func (h *PermissionHandler) Check(c *gin.Context) {
	var req dto.PermissionCheckRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "权限键格式应为 <模块>.<资源>.<动作>")
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.permSvc.Check(c.Request.Context(), userID, req.Key)
	if err != nil {
		h.handlePermissionError(c, err)
		return
	}
	response.OK(c, result)
}

// ListPolicies 策略列表
// GET /api/v1/admin/permissions
func (h *PermissionHandler) ListPolicies(c *gin.Context) {
	var req dto.PolicyListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.permSvc.ListPolicies(c.Request.Context(), &req)
	if err != nil {
		h.handlePermissionError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// CreatePolicy 新增策略
// POST /api/v1/admin/permissions
func (h *PermissionHandler) CreatePolicy(c *gin.Context) {
	var req dto.CreatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	policy, err := h.permSvc.CreatePolicy(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handlePermissionError(c, err)
		return
	}
	response.Created(c, policy)
}

// DeletePolicy 删除策略
// DELETE /api/v1/admin/permissions/:id
func (h *PermissionHandler) DeletePolicy(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.permSvc.DeletePolicy(c.Request.Context(), id, callerID); err != nil {
		h.handlePermissionError(c, err)
		return
	}
	response.OK(c, nil)
}

// ListAttributeRules 属性派生规则列表
// GET /api/v1/admin/permissions/rules
func (h *PermissionHandler) ListAttributeRules(c *gin.Context) {
	list, err := h.permSvc.ListAttributeRules(c.Request.Context())
	if err != nil {
		h.handlePermissionError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// CreateAttributeRule 新增属性派生规则
// POST /api/v1/admin/permissions/rules
func (h *PermissionHandler) CreateAttributeRule(c *gin.Context) {
	var req dto.CreateAttributeRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	rule, err := h.permSvc.CreateAttributeRule(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handlePermissionError(c, err)
		return
	}
	response.Created(c, rule)
}

// DeleteAttributeRule 删除属性派生规则
// DELETE /api/v1/admin/permissions/rules/:id
func (h *PermissionHandler) DeleteAttributeRule(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.permSvc.DeleteAttributeRule(c.Request.Context(), id, callerID); err != nil {
		h.handlePermissionError(c, err)
		return
	}
	response.OK(c, nil)
}

// Reload 重新加载策略
// POST /api/v1/admin/permissions/reload
func (h *PermissionHandler) Reload(c *gin.Context) {
	if err := h.permSvc.Reload(c.Request.Context()); err != nil {
		h.handlePermissionError(c, err)
		return
	}
	response.OK(c, nil)
}

// handlePermissionError 统一处理权限模块业务错误
func (h *PermissionHandler) handlePermissionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPolicyNotFound):
		response.NotFound(c, 30001, "权限策略不存在")
	case errors.Is(err, service.ErrPolicyDuplicate):
		response.Conflict(c, 30002, "该角色已拥有此权限")
	case errors.Is(err, service.ErrRuleNotFound):
		response.NotFound(c, 30003, "派生规则不存在")
	case errors.Is(err, service.ErrRuleDuplicate):
		response.Conflict(c, 30004, "派生规则已存在")
	default:
		response.InternalError(c, err)
	}
}

func parseUintParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, 10001, "ID 格式错误")
		return 0, false
	}
	return id, true
}
