package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"easypro/backend/internal/dto"
	"easypro/backend/internal/service"
	"easypro/backend/pkg/response"
)

const (
	defaultCalendarDays = 14
	maxCalendarDays     = 90
)

// ShiftHandler 班次模块 HTTP 处理器
type ShiftHandler struct {
	shiftSvc service.ShiftService
}

// NewShiftHandler 创建 ShiftHandler
func NewShiftHandler(shiftSvc service.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftSvc: shiftSvc}
}

// GetCurrent 当前班次（必要时惰性换班）
// GET /api/v1/shifts/current
func (h *ShiftHandler) GetCurrent(c *gin.Context) {
	shift, err := h.shiftSvc.GetCurrentShift(c.Request.Context())
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OK(c, shift)
}

// Create 手动开启新班次
// POST /api/v1/shifts
func (h *ShiftHandler) Create(c *gin.Context) {
	var req dto.CreateShiftRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
	}

	shift, err := h.shiftSvc.CreateNewShift(c.Request.Context(), req.MaxPagesPerShift)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.Created(c, shift)
}

// UpdateQuota 调整当前班次页数配额
// PUT /api/v1/shifts/current/quota
func (h *ShiftHandler) UpdateQuota(c *gin.Context) {
	var req dto.UpdateShiftQuotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	shift, err := h.shiftSvc.UpdateMaxPages(c.Request.Context(), req.MaxPagesPerShift)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OK(c, shift)
}

// List 历史班次
// GET /api/v1/shifts
func (h *ShiftHandler) List(c *gin.Context) {
	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.shiftSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Calendar 班次日历订阅（iCalendar）
// GET /api/v1/shifts/calendar.ics?days=14
func (h *ShiftHandler) Calendar(c *gin.Context) {
	days := defaultCalendarDays
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxCalendarDays {
			response.BadRequest(c, 10001, "days 必须在 1-90 之间")
			return
		}
		days = n
	}

	data, err := h.shiftSvc.CalendarICS(c.Request.Context(), days)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="shifts.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

// handleShiftError 统一处理班次模块业务错误
func (h *ShiftHandler) handleShiftError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoActiveShift):
		response.Conflict(c, 13001, "当前没有可用班次")
	case errors.Is(err, service.ErrInvalidMaxPages):
		response.BadRequest(c, 13002, "班次页数配额必须大于 0")
	default:
		response.FromError(c, err)
	}
}
