package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"pharmacy-ops/backend/internal/service"
	"pharmacy-ops/backend/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportBonus 导出支援奖金工作簿
// GET /api/v1/export/support-staff-bonus.xlsx?store_id=&year_month=
func (h *ExportHandler) ExportBonus(c *gin.Context) {
	q, ok := bindStoreMonth(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.BonusWorkbook(c.Request.Context(), q)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	response.Attachment(c, filename, contentTypeXLSX, buf.Bytes())
}

// ExportStaffStatus 导出员工月度状态 PDF
// GET /api/v1/export/monthly-staff-status.pdf?store_id=&year_month=
func (h *ExportHandler) ExportStaffStatus(c *gin.Context) {
	q, ok := bindStoreMonth(c)
	if !ok {
		return
	}

	body, filename, err := h.exportSvc.StaffStatusPDF(c.Request.Context(), q)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	response.Attachment(c, filename, contentTypePDF, body)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStoreNotFound):
		response.NotFound(c, 99001, "门店不存在")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c, err)
	default:
		response.InternalError(c, err)
	}
}
