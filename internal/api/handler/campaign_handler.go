package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmacy-ops/backend/internal/authz"
	"pharmacy-ops/backend/internal/dto"
	"pharmacy-ops/backend/internal/service"
	"pharmacy-ops/backend/pkg/response"
)

// CampaignHandler 活动与排期 HTTP 处理器
type CampaignHandler struct {
	campaignSvc service.CampaignService
	profileSvc  service.ProfileService
	authz       service.Authorizer
}

// NewCampaignHandler 创建 CampaignHandler
func NewCampaignHandler(campaignSvc service.CampaignService, profileSvc service.ProfileService, authorizer service.Authorizer) *CampaignHandler {
	return &CampaignHandler{campaignSvc: campaignSvc, profileSvc: profileSvc, authz: authorizer}
}

// ListCampaigns 对当前角色可见的活动
// GET /api/v1/campaigns
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	role, ok := h.viewerRole(c)
	if !ok {
		return
	}

	list, err := h.campaignSvc.ListVisible(c.Request.Context(), role)
	if err != nil {
		h.handleCampaignError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// GetCampaign 活动详情（含排期）
// GET /api/v1/campaigns/:id
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	role, ok := h.viewerRole(c)
	if !ok {
		return
	}

	campaign, err := h.campaignSvc.GetByID(c.Request.Context(), c.Param("id"), role)
	if err != nil {
		h.handleCampaignError(c, err)
		return
	}
	response.OK(c, campaign)
}

// Calendar 可见活动排期的 iCalendar 订阅
// GET /api/v1/campaigns/calendar.ics
func (h *CampaignHandler) Calendar(c *gin.Context) {
	role, ok := h.viewerRole(c)
	if !ok {
		return
	}

	ics, err := h.campaignSvc.Calendar(c.Request.Context(), role)
	if err != nil {
		h.handleCampaignError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(ics))
}

// CreateCampaign 创建活动
// POST /api/v1/campaigns
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req dto.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	campaign, err := h.campaignSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleCampaignError(c, err)
		return
	}
	response.Created(c, campaign)
}

// UpdateCampaign 更新活动
// PUT /api/v1/campaigns/:id
func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	var req dto.UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	campaign, err := h.campaignSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleCampaignError(c, err)
		return
	}
	response.OK(c, campaign)
}

// DeleteCampaign 删除活动（排期级联删除）
// DELETE /api/v1/campaigns/:id
func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.campaignSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleCampaignError(c, err)
		return
	}
	response.OK(c, nil)
}

// CreateSchedule 新增排期
// POST /api/v1/campaigns/:id/schedules
func (h *CampaignHandler) CreateSchedule(c *gin.Context) {
	var req dto.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	schedule, err := h.campaignSvc.CreateSchedule(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleCampaignError(c, err)
		return
	}
	response.Created(c, schedule)
}

// UpdateSchedule 更新排期
// PUT /api/v1/campaigns/:id/schedules/:scheduleId
func (h *CampaignHandler) UpdateSchedule(c *gin.Context) {
	var req dto.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	schedule, err := h.campaignSvc.UpdateSchedule(c.Request.Context(), c.Param("id"), c.Param("scheduleId"), &req)
	if err != nil {
		h.handleCampaignError(c, err)
		return
	}
	response.OK(c, schedule)
}

// DeleteSchedule 删除排期
// DELETE /api/v1/campaigns/:id/schedules/:scheduleId
func (h *CampaignHandler) DeleteSchedule(c *gin.Context) {
	if err := h.campaignSvc.DeleteSchedule(c.Request.Context(), c.Param("id"), c.Param("scheduleId")); err != nil {
		h.handleCampaignError(c, err)
		return
	}
	response.OK(c, nil)
}

// viewerRole 有活动编辑权限者查看全部，其余按档案角色过滤发布范围
func (h *CampaignHandler) viewerRole(c *gin.Context) (string, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return "", false
	}
	ctx := c.Request.Context()

	editor, err := h.authz.Check(ctx, userID, authz.KeyCampaignUpdate)
	if err != nil {
		response.InternalError(c, err)
		return "", false
	}
	if editor {
		return "", true
	}

	me, err := h.profileSvc.GetMe(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			response.Forbidden(c, 50005, "未找到用户档案，无法判断可见范围")
			return "", false
		}
		response.InternalError(c, err)
		return "", false
	}
	return me.Role, true
}

// handleCampaignError 统一处理活动模块业务错误
func (h *CampaignHandler) handleCampaignError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrCampaignNotFound):
		response.NotFound(c, 50001, "活动不存在")
	case errors.Is(err, service.ErrCampaignHidden):
		// 未发布的活动对该角色等同于不存在
		response.NotFound(c, 50001, "活动不存在")
	case errors.Is(err, service.ErrScheduleNotFound):
		response.NotFound(c, 50002, "活动排期不存在")
	case errors.Is(err, service.ErrScheduleOutOfSpan):
		response.BadRequest(c, 50003, "排期必须落在活动起止日期内")
	case errors.Is(err, service.ErrStoreNotFound):
		response.BadRequest(c, 50004, "门店不存在")
	default:
		response.InternalError(c, err)
	}
}
