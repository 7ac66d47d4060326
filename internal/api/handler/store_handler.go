package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"pharmacy-ops/backend/internal/dto"
	"pharmacy-ops/backend/internal/service"
	"pharmacy-ops/backend/pkg/response"
)

// StoreHandler 门店 HTTP 处理器
type StoreHandler struct {
	storeSvc service.StoreService
}

// NewStoreHandler 创建 StoreHandler
func NewStoreHandler(storeSvc service.StoreService) *StoreHandler {
	return &StoreHandler{storeSvc: storeSvc}
}

// ListStores 门店列表
// GET /api/v1/stores
func (h *StoreHandler) ListStores(c *gin.Context) {
	var req dto.StoreListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.storeSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleStoreError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// ListWithSupervisors 门店及督导、店长
// GET /api/v1/stores/with-supervisors
func (h *StoreHandler) ListWithSupervisors(c *gin.Context) {
	var req dto.StoreListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.storeSvc.ListWithSupervisors(c.Request.Context(), &req)
	if err != nil {
		h.handleStoreError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// Summary 门店月度汇总
// GET /api/v1/stores/summary?year_month=
func (h *StoreHandler) Summary(c *gin.Context) {
	var req dto.StoreSummaryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "year_month 格式应为 YYYYMM")
		return
	}

	list, err := h.storeSvc.Summary(c.Request.Context(), &req)
	if err != nil {
		h.handleStoreError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// ReplaceStoreManagers 整体替换某人的主店长门店
// PUT /api/v1/store-managers/:userId
func (h *StoreHandler) ReplaceStoreManagers(c *gin.Context) {
	var req dto.ReplaceStoreManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.storeSvc.ReplaceStoreManagers(c.Request.Context(), c.Param("userId"), &req, callerID); err != nil {
		h.handleStoreError(c, err)
		return
	}
	response.OK(c, nil)
}

// handleStoreError 统一处理门店模块业务错误
func (h *StoreHandler) handleStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStoreNotFound):
		response.BadRequest(c, 60001, "门店不存在")
	case errors.Is(err, service.ErrManagerNotFound):
		response.NotFound(c, 60002, "人员档案不存在")
	default:
		response.InternalError(c, err)
	}
}
