package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"pharmacy-ops/backend/internal/service"
	"pharmacy-ops/backend/pkg/response"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Session    *SessionHandler
	Profile    *ProfileHandler
	Permission *PermissionHandler
	Template   *TemplateHandler
	Assignment *AssignmentHandler
	Campaign   *CampaignHandler
	Store      *StoreHandler
	Inspection *InspectionHandler
	Employee   *EmployeeHandler
	Payroll    *PayrollHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
// revoker 为 nil 时注销接口只做无状态响应（未启用 Redis）
func NewHandler(svc *service.Service, authorizer service.Authorizer, revoker TokenRevoker) *Handler {
	return &Handler{
		Session:    NewSessionHandler(revoker),
		Profile:    NewProfileHandler(svc.Profile),
		Permission: NewPermissionHandler(svc.Permission),
		Template:   NewTemplateHandler(svc.Template),
		Assignment: NewAssignmentHandler(svc.Assignment),
		Campaign:   NewCampaignHandler(svc.Campaign, svc.Profile, authorizer),
		Store:      NewStoreHandler(svc.Store),
		Inspection: NewInspectionHandler(svc.Inspection),
		Employee:   NewEmployeeHandler(svc.Employee),
		Payroll:    NewPayrollHandler(svc.Payroll),
		Export:     NewExportHandler(svc.Export),
	}
}

// handleCommonError 处理跨模块的通用业务错误，已处理返回 true
func handleCommonError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 10006, "日期格式错误，应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrDateRange):
		response.BadRequest(c, 10007, "开始日期不能晚于结束日期")
	default:
		return false
	}
	return true
}
