package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"easypro/backend/internal/dto"
	"easypro/backend/internal/service"
	"easypro/backend/pkg/response"
)

// PaymentHandler 付款模块 HTTP 处理器
type PaymentHandler struct {
	paymentSvc service.PaymentService
}

// NewPaymentHandler 创建 PaymentHandler
func NewPaymentHandler(paymentSvc service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

// Create 创建付款并立即扣减写手余额
// POST /api/v1/payments
func (h *PaymentHandler) Create(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	payment, err := h.paymentSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handlePaymentError(c, err)
		return
	}

	response.Created(c, payment)
}

// MarkPaid 标记到账
// POST /api/v1/payments/:id/paid
func (h *PaymentHandler) MarkPaid(c *gin.Context) {
	var req dto.MarkPaymentPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	payment, err := h.paymentSvc.MarkAsPaid(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handlePaymentError(c, err)
		return
	}

	response.OK(c, payment)
}

// MarkFailed 标记失败并退回余额
// POST /api/v1/payments/:id/failed
func (h *PaymentHandler) MarkFailed(c *gin.Context) {
	var req dto.MarkPaymentFailedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	payment, err := h.paymentSvc.MarkAsFailed(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handlePaymentError(c, err)
		return
	}

	response.OK(c, payment)
}

// List 付款列表；写手只能看到自己的付款
// GET /api/v1/payments
func (h *PaymentHandler) List(c *gin.Context) {
	var req dto.PaymentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	scope, ok := scopeWriterID(c)
	if !ok {
		return
	}

	list, total, err := h.paymentSvc.List(c.Request.Context(), &req, scope)
	if err != nil {
		h.handlePaymentError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Get 付款详情
// GET /api/v1/payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	scope, ok := scopeWriterID(c)
	if !ok {
		return
	}

	payment, err := h.paymentSvc.Get(c.Request.Context(), c.Param("id"), scope)
	if err != nil {
		h.handlePaymentError(c, err)
		return
	}

	response.OK(c, payment)
}

// ListLogs 付款审计日志
// GET /api/v1/payments/:id/logs
func (h *PaymentHandler) ListLogs(c *gin.Context) {
	scope, ok := scopeWriterID(c)
	if !ok {
		return
	}

	logs, err := h.paymentSvc.ListLogs(c.Request.Context(), c.Param("id"), scope)
	if err != nil {
		h.handlePaymentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": logs})
}

// handlePaymentError 统一处理付款模块业务错误
func (h *PaymentHandler) handlePaymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPaymentNotFound):
		response.NotFound(c, 16001, "付款记录不存在")
	case errors.Is(err, service.ErrPaymentForbidden):
		response.Forbidden(c, 16002, "无权访问该付款记录")
	case errors.Is(err, service.ErrPaymentInvalidAmount):
		response.BadRequest(c, 16003, "付款金额必须大于 0")
	case errors.Is(err, service.ErrInsufficientBalance):
		response.Conflict(c, 16004, "付款金额超过写手当前余额")
	case errors.Is(err, service.ErrPaymentAlreadySettled):
		response.Conflict(c, 16005, "付款已到账或已失败，不能重复处理")
	case errors.Is(err, service.ErrInvalidPaymentStatus):
		response.BadRequest(c, 16006, "无效的付款状态")
	case errors.Is(err, service.ErrWriterNotFound):
		response.NotFound(c, 12001, "写手不存在")
	default:
		response.FromError(c, err)
	}
}
