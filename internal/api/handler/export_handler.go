package handler

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"easypro/backend/internal/dto"
	"easypro/backend/internal/service"
	"easypro/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportPayments 导出付款明细
// GET /api/v1/export/payments?from=2026-03-01&to=2026-04-01
func (h *ExportHandler) ExportPayments(c *gin.Context) {
	var req dto.PaymentExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "from / to 必须为 YYYY-MM-DD")
		return
	}

	// binding 已校验格式
	from, _ := time.Parse(time.DateOnly, req.From)
	to, _ := time.Parse(time.DateOnly, req.To)

	buf, filename, err := h.exportSvc.ExportPayments(c.Request.Context(), from, to)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	sendXLSX(c, buf, filename)
}

// ExportWriterEarnings 导出写手收入汇总
// GET /api/v1/export/writers
func (h *ExportHandler) ExportWriterEarnings(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportWriterEarnings(c.Request.Context())
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	sendXLSX(c, buf, filename)
}

func sendXLSX(c *gin.Context, buf *bytes.Buffer, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportInvalidRange):
		response.BadRequest(c, 17001, "导出时间范围无效：结束日期必须晚于开始日期")
	case errors.Is(err, service.ErrExportRangeTooLong):
		response.BadRequest(c, 17002, "导出时间范围不能超过 366 天")
	default:
		response.InternalError(c)
	}
}
