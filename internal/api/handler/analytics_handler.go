package handler

import (
	"github.com/gin-gonic/gin"

	"easypro/backend/internal/service"
	"easypro/backend/pkg/response"
)

// AnalyticsHandler 报表模块 HTTP 处理器
type AnalyticsHandler struct {
	analyticsSvc service.AnalyticsService
}

// NewAnalyticsHandler 创建 AnalyticsHandler
func NewAnalyticsHandler(analyticsSvc service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsSvc: analyticsSvc}
}

// AdminDashboard 管理员看板
// GET /api/v1/analytics/admin
func (h *AnalyticsHandler) AdminDashboard(c *gin.Context) {
	result, err := h.analyticsSvc.AdminDashboard(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, result)
}

// WriterDashboard 写手看板；管理员可通过 writer_id 查看任一写手
// GET /api/v1/analytics/writer
func (h *AnalyticsHandler) WriterDashboard(c *gin.Context) {
	writerID, ok := scopeWriterID(c)
	if !ok {
		return
	}
	if writerID == "" {
		writerID = c.Query("writer_id")
		if writerID == "" {
			response.BadRequest(c, 10001, "writer_id 不能为空")
			return
		}
	}

	result, err := h.analyticsSvc.WriterDashboard(c.Request.Context(), writerID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, result)
}
