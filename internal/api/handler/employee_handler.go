package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"pharmacy-ops/backend/internal/dto"
	"pharmacy-ops/backend/internal/service"
	"pharmacy-ops/backend/pkg/response"
)

// EmployeeHandler 门店员工、异动与升迁 HTTP 处理器
type EmployeeHandler struct {
	employeeSvc service.EmployeeService
}

// NewEmployeeHandler 创建 EmployeeHandler
func NewEmployeeHandler(employeeSvc service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employeeSvc: employeeSvc}
}

// ListEmployees 门店员工列表
// GET /api/v1/store-employees
func (h *EmployeeHandler) ListEmployees(c *gin.Context) {
	var req dto.StoreEmployeeListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.employeeSvc.ListEmployees(c.Request.Context(), &req)
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// CreateEmployee 新增门店员工
// POST /api/v1/store-employees
func (h *EmployeeHandler) CreateEmployee(c *gin.Context) {
	var req dto.CreateStoreEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	e, err := h.employeeSvc.CreateEmployee(c.Request.Context(), &req)
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}
	response.Created(c, e)
}

// ListMovements 异动记录
// GET /api/v1/employee-movements
func (h *EmployeeHandler) ListMovements(c *gin.Context) {
	var req dto.MovementListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.employeeSvc.ListMovements(c.Request.Context(), &req)
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// CreateMovement 登记异动
// POST /api/v1/employee-movements
func (h *EmployeeHandler) CreateMovement(c *gin.Context) {
	var req dto.CreateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	mv, err := h.employeeSvc.CreateMovement(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}
	response.Created(c, mv)
}

// ListPromotions 升迁记录
// GET /api/v1/employee-promotions
func (h *EmployeeHandler) ListPromotions(c *gin.Context) {
	var req dto.PromotionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.employeeSvc.ListPromotions(c.Request.Context(), &req)
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// CreatePromotion 登记升迁
// POST /api/v1/employee-promotions
func (h *EmployeeHandler) CreatePromotion(c *gin.Context) {
	var req dto.CreatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	p, err := h.employeeSvc.CreatePromotion(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleEmployeeError(c, err)
		return
	}
	response.Created(c, p)
}

// handleEmployeeError 统一处理员工模块业务错误
func (h *EmployeeHandler) handleEmployeeError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrEmployeeDuplicate):
		response.Conflict(c, 80001, "员工工号已存在")
	case errors.Is(err, service.ErrMovementStores):
		response.BadRequest(c, 80002, "异动门店与异动类型不匹配")
	case errors.Is(err, service.ErrMovementSameStore):
		response.BadRequest(c, 80003, "调动的调出与调入门店不能相同")
	case errors.Is(err, service.ErrPromotionSamePosition):
		response.BadRequest(c, 80004, "升迁前后职位不能相同")
	case errors.Is(err, service.ErrStoreNotFound):
		response.BadRequest(c, 80005, "门店不存在")
	default:
		response.InternalError(c, err)
	}
}
