package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"easypro/backend/internal/dto"
	"easypro/backend/internal/service"
	"easypro/backend/pkg/response"
	"easypro/backend/pkg/storage"
)

// SubmissionHandler 提交审核模块 HTTP 处理器
type SubmissionHandler struct {
	submissionSvc service.SubmissionService
	st            storage.Storage
	limits        storage.Limits
}

// NewSubmissionHandler 创建 SubmissionHandler
func NewSubmissionHandler(submissionSvc service.SubmissionService, st storage.Storage, limits storage.Limits) *SubmissionHandler {
	return &SubmissionHandler{submissionSvc: submissionSvc, st: st, limits: limits}
}

// Create 写手提交工作量（JSON 或 multipart，附件字段 files）
// POST /api/v1/submissions
func (h *SubmissionHandler) Create(c *gin.Context) {
	var req dto.CreateSubmissionRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	writerID, ok := MustGetWriterID(c)
	if !ok {
		return
	}

	files, ok := saveUploads(c, h.st, "submissions", h.limits)
	if !ok {
		return
	}

	result, err := h.submissionSvc.Create(c.Request.Context(), &req, files, writerID)
	if err != nil {
		discardFiles(c, h.st, storedPaths(files))
		h.handleSubmissionError(c, err)
		return
	}

	response.Created(c, result)
}

// List 提交列表；写手只能看到自己的提交
// GET /api/v1/submissions
func (h *SubmissionHandler) List(c *gin.Context) {
	var req dto.SubmissionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	scope, ok := scopeWriterID(c)
	if !ok {
		return
	}

	list, total, err := h.submissionSvc.List(c.Request.Context(), &req, scope)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Get 提交详情
// GET /api/v1/submissions/:id
func (h *SubmissionHandler) Get(c *gin.Context) {
	scope, ok := scopeWriterID(c)
	if !ok {
		return
	}

	sub, err := h.submissionSvc.Get(c.Request.Context(), c.Param("id"), scope)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	response.OK(c, sub)
}

// DownloadAttachment 下载提交附件
// GET /api/v1/submissions/:id/attachments/:index
func (h *SubmissionHandler) DownloadAttachment(c *gin.Context) {
	scope, ok := scopeWriterID(c)
	if !ok {
		return
	}

	sub, err := h.submissionSvc.Get(c.Request.Context(), c.Param("id"), scope)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	serveAttachment(c, h.st, sub.Attachments)
}

// Review 审核提交；通过时计入写手收入
// POST /api/v1/submissions/:id/review
func (h *SubmissionHandler) Review(c *gin.Context) {
	var req dto.ReviewSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	sub, err := h.submissionSvc.Review(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	response.OK(c, sub)
}

// handleSubmissionError 统一处理提交模块业务错误
func (h *SubmissionHandler) handleSubmissionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		response.NotFound(c, 15001, "提交记录不存在")
	case errors.Is(err, service.ErrSubmissionForbidden):
		response.Forbidden(c, 15002, "无权访问该提交记录")
	case errors.Is(err, service.ErrWriterSuspended):
		response.Forbidden(c, 15003, "写手已停职，不能提交")
	case errors.Is(err, service.ErrOrderClosedForSubmission):
		response.Conflict(c, 15004, "订单已提交或已取消，不能继续提交")
	case errors.Is(err, service.ErrSubmissionAlreadyReviewed):
		response.Conflict(c, 15005, "提交已审核，不能重复审核")
	case errors.Is(err, service.ErrInvalidReviewStatus):
		response.BadRequest(c, 15006, "审核结果只能是 approved 或 rejected")
	case errors.Is(err, service.ErrInvalidPages):
		response.BadRequest(c, 15007, "页数与单价必须大于 0")
	case errors.Is(err, service.ErrNoActiveShift):
		response.Conflict(c, 13001, "当前没有可用班次")
	case errors.Is(err, service.ErrOrderNotFound):
		response.NotFound(c, 14001, "订单不存在")
	case errors.Is(err, service.ErrOrderForbidden):
		response.Forbidden(c, 14002, "无权访问该订单")
	case errors.Is(err, service.ErrWriterNotFound):
		response.NotFound(c, 12001, "写手不存在")
	default:
		response.FromError(c, err)
	}
}
