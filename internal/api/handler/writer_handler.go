package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"easypro/backend/internal/dto"
	"easypro/backend/internal/service"
	"easypro/backend/pkg/response"
)

// WriterHandler 写手模块 HTTP 处理器
type WriterHandler struct {
	writerSvc     service.WriterService
	submissionSvc service.SubmissionService
}

// NewWriterHandler 创建 WriterHandler
func NewWriterHandler(writerSvc service.WriterService, submissionSvc service.SubmissionService) *WriterHandler {
	return &WriterHandler{writerSvc: writerSvc, submissionSvc: submissionSvc}
}

// List 写手列表
// GET /api/v1/writers
func (h *WriterHandler) List(c *gin.Context) {
	var req dto.WriterListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.writerSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleWriterError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Get 写手详情
// GET /api/v1/writers/:id
func (h *WriterHandler) Get(c *gin.Context) {
	writer, err := h.writerSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleWriterError(c, err)
		return
	}

	response.OK(c, writer)
}

// GetMe 当前写手档案
// GET /api/v1/writers/me
func (h *WriterHandler) GetMe(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	writer, err := h.writerSvc.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		h.handleWriterError(c, err)
		return
	}

	response.OK(c, writer)
}

// GetMyProgress 当前写手本班次进度
// GET /api/v1/writers/me/progress
func (h *WriterHandler) GetMyProgress(c *gin.Context) {
	writerID, ok := MustGetWriterID(c)
	if !ok {
		return
	}
	h.progress(c, writerID)
}

// GetProgress 指定写手本班次进度
// GET /api/v1/writers/:id/progress
func (h *WriterHandler) GetProgress(c *gin.Context) {
	h.progress(c, c.Param("id"))
}

func (h *WriterHandler) progress(c *gin.Context, writerID string) {
	result, err := h.submissionSvc.CalculateWriterProgress(c.Request.Context(), writerID)
	if err != nil {
		h.handleWriterError(c, err)
		return
	}

	response.OK(c, result)
}

// ChangeStatus 警告 / 观察 / 停职 / 恢复
// POST /api/v1/writers/:id/status
func (h *WriterHandler) ChangeStatus(c *gin.Context) {
	var req dto.ChangeWriterStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	writer, err := h.writerSvc.ChangeStatus(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleWriterError(c, err)
		return
	}

	response.OK(c, writer)
}

// ListStatusLogs 写手状态变更历史
// GET /api/v1/writers/:id/status-logs
func (h *WriterHandler) ListStatusLogs(c *gin.Context) {
	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.writerSvc.ListStatusLogs(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleWriterError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// handleWriterError 统一处理写手模块业务错误
func (h *WriterHandler) handleWriterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWriterNotFound):
		response.NotFound(c, 12001, "写手不存在")
	case errors.Is(err, service.ErrInvalidStatusAction):
		response.BadRequest(c, 12002, "无效的状态操作")
	case errors.Is(err, service.ErrWriterAlreadyActive):
		response.Conflict(c, 12003, "写手已处于正常状态")
	case errors.Is(err, service.ErrWriterStatusTransition):
		response.Conflict(c, 12004, "写手当前状态不允许该操作")
	case errors.Is(err, service.ErrNoActiveShift):
		response.Conflict(c, 13001, "当前没有可用班次")
	default:
		response.FromError(c, err)
	}
}
