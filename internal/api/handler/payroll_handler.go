package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmacy-ops/backend/internal/dto"
	"pharmacy-ops/backend/internal/service"
	"pharmacy-ops/backend/pkg/response"
)

// maxImportSize 餐补导入文件大小上限
const maxImportSize = 5 << 20

// PayrollHandler 月度人事台账 HTTP 处理器：员工状态、支援奖金、餐补、交通费
type PayrollHandler struct {
	payrollSvc service.PayrollService
}

// NewPayrollHandler 创建 PayrollHandler
func NewPayrollHandler(payrollSvc service.PayrollService) *PayrollHandler {
	return &PayrollHandler{payrollSvc: payrollSvc}
}

// bindStoreMonth 绑定 store_id + year_month 查询参数
func bindStoreMonth(c *gin.Context) (*dto.StoreMonthQuery, bool) {
	var q dto.StoreMonthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "store_id 必填，year_month 格式应为 YYYYMM")
		return nil, false
	}
	return &q, true
}

// ListStaffStatus 员工月度状态
// GET /api/v1/monthly-staff-status?store_id=&year_month=
func (h *PayrollHandler) ListStaffStatus(c *gin.Context) {
	q, ok := bindStoreMonth(c)
	if !ok {
		return
	}

	list, err := h.payrollSvc.ListStaffStatus(c.Request.Context(), q)
	if err != nil {
		h.handlePayrollError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// ────────────────────── 支援奖金 ──────────────────────

// ListBonus 查询某门店某月的奖金批次
// GET /api/v1/support-staff-bonus?store_id=&year_month=
func (h *PayrollHandler) ListBonus(c *gin.Context) {
	q, ok := bindStoreMonth(c)
	if !ok {
		return
	}

	batch, err := h.payrollSvc.ListBonus(c.Request.Context(), q)
	if err != nil {
		h.handlePayrollError(c, err)
		return
	}
	response.OK(c, batch)
}

// ReplaceBonus 整批替换某门店某月的奖金
// PUT /api/v1/support-staff-bonus
func (h *PayrollHandler) ReplaceBonus(c *gin.Context) {
	var req dto.ReplaceBonusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	batch, err := h.payrollSvc.ReplaceBonus(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handlePayrollError(c, err)
		return
	}
	response.OK(c, batch)
}

// ────────────────────── 餐补 ──────────────────────

// ListMealAllowances 餐补列表
// GET /api/v1/meal-allowances?store_id=&year_month=
func (h *PayrollHandler) ListMealAllowances(c *gin.Context) {
	q, ok := bindStoreMonth(c)
	if !ok {
		return
	}

	list, err := h.payrollSvc.ListMealAllowances(c.Request.Context(), q)
	if err != nil {
		h.handlePayrollError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// UpsertMealAllowance 新增或更新餐补
// PUT /api/v1/meal-allowances
func (h *PayrollHandler) UpsertMealAllowance(c *gin.Context) {
	var req dto.UpsertMealAllowanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	row, err := h.payrollSvc.UpsertMealAllowance(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handlePayrollError(c, err)
		return
	}
	response.OK(c, row)
}

// DeleteMealAllowance 删除餐补
// DELETE /api/v1/meal-allowances/:id
func (h *PayrollHandler) DeleteMealAllowance(c *gin.Context) {
	if err := h.payrollSvc.DeleteMealAllowance(c.Request.Context(), c.Param("id")); err != nil {
		h.handlePayrollError(c, err)
		return
	}
	response.OK(c, nil)
}

// ImportMealAllowances 从 Excel 批量导入餐补（multipart 字段 file）
// POST /api/v1/meal-allowances/import?store_id=&year_month=
func (h *PayrollHandler) ImportMealAllowances(c *gin.Context) {
	q, ok := bindStoreMonth(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 92004, "请上传 Excel 文件")
		return
	}
	if fh.Size > maxImportSize {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "上传文件过大")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	defer f.Close()

	result, err := h.payrollSvc.ImportMealAllowances(c.Request.Context(), q, f, callerID)
	if err != nil {
		h.handlePayrollError(c, err)
		return
	}
	response.OK(c, result)
}

// ────────────────────── 交通费 ──────────────────────

// ListTransportExpenses 交通费列表
// GET /api/v1/transport-expenses?store_id=&year_month=
func (h *PayrollHandler) ListTransportExpenses(c *gin.Context) {
	q, ok := bindStoreMonth(c)
	if !ok {
		return
	}

	list, err := h.payrollSvc.ListTransportExpenses(c.Request.Context(), q)
	if err != nil {
		h.handlePayrollError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// UpsertTransportExpense 新增或更新交通费
// PUT /api/v1/transport-expenses
func (h *PayrollHandler) UpsertTransportExpense(c *gin.Context) {
	var req dto.UpsertTransportExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	row, err := h.payrollSvc.UpsertTransportExpense(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handlePayrollError(c, err)
		return
	}
	response.OK(c, row)
}

// DeleteTransportExpense 删除交通费
// DELETE /api/v1/transport-expenses/:id
func (h *PayrollHandler) DeleteTransportExpense(c *gin.Context) {
	if err := h.payrollSvc.DeleteTransportExpense(c.Request.Context(), c.Param("id")); err != nil {
		h.handlePayrollError(c, err)
		return
	}
	response.OK(c, nil)
}

// handlePayrollError 统一处理台账模块业务错误
func (h *PayrollHandler) handlePayrollError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStoreNotFound):
		response.BadRequest(c, 90001, "门店不存在")
	case errors.Is(err, service.ErrBonusDuplicateEmployee):
		response.BadRequest(c, 91001, err.Error())
	case errors.Is(err, service.ErrNegativeAmount):
		response.BadRequest(c, 91002, err.Error())
	case errors.Is(err, service.ErrMealAllowanceNotFound):
		response.NotFound(c, 92001, "餐补记录不存在")
	case errors.Is(err, service.ErrImportFile):
		response.BadRequest(c, 92002, "无法解析上传的 Excel 文件")
	case errors.Is(err, service.ErrImportEmpty):
		response.BadRequest(c, 92003, "Excel 文件中没有数据行")
	case errors.Is(err, service.ErrTransportNotFound):
		response.NotFound(c, 93001, "交通费记录不存在")
	default:
		response.InternalError(c, err)
	}
}
