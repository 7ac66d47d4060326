package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmacy-ops/backend/internal/dto"
	"pharmacy-ops/backend/internal/service"
	"pharmacy-ops/backend/pkg/response"
)

// ProfileHandler 用户档案 HTTP 处理器
type ProfileHandler struct {
	profileSvc service.ProfileService
}

// NewProfileHandler 创建 ProfileHandler
func NewProfileHandler(profileSvc service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileSvc: profileSvc}
}

// GetMe 获取当前用户档案
// GET /api/v1/me
func (h *ProfileHandler) GetMe(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	profile, err := h.profileSvc.GetMe(c.Request.Context(), userID)
	if err != nil {
		h.handleProfileError(c, err)
		return
	}
	response.OK(c, profile)
}

// ListProfiles 档案列表
// GET /api/v1/profiles
func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	var req dto.ProfileListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.profileSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleProfileError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// UpdateProfile 更新档案
// PUT /api/v1/profiles/:id
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	profile, err := h.profileSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleProfileError(c, err)
		return
	}
	response.OK(c, profile)
}

// ResetPassword 管理员重置密码
// POST /api/v1/profiles/:id/reset-password
func (h *ProfileHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "密码长度应为 8-72 位")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.profileSvc.ResetPassword(c.Request.Context(), c.Param("id"), &req, callerID); err != nil {
		h.handleProfileError(c, err)
		return
	}
	response.OK(c, nil)
}

// handleProfileError 统一处理档案模块业务错误
func (h *ProfileHandler) handleProfileError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProfileNotFound):
		response.NotFound(c, 20001, "用户档案不存在")
	case errors.Is(err, service.ErrEmployeeCodeTaken):
		response.Conflict(c, 20002, "工号已被其他档案使用")
	case errors.Is(err, service.ErrCannotDemoteSelf):
		response.BadRequest(c, 20003, "不能修改自己的管理员角色")
	case errors.Is(err, service.ErrPasswordResetDisabled):
		response.Error(c, http.StatusServiceUnavailable, 20004, "未配置认证服务特权密钥，无法重置密码")
	case errors.Is(err, service.ErrAuthUserNotFound):
		response.NotFound(c, 20005, "认证服务中不存在该用户")
	case errors.Is(err, service.ErrStoreNotFound):
		response.BadRequest(c, 20006, "门店不存在")
	default:
		response.InternalError(c, err)
	}
}
