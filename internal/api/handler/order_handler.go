package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"easypro/backend/internal/dto"
	"easypro/backend/internal/service"
	pkgerrors "easypro/backend/pkg/errors"
	"easypro/backend/pkg/response"
	"easypro/backend/pkg/storage"
)

// OrderHandler 订单模块 HTTP 处理器
type OrderHandler struct {
	orderSvc service.OrderService
	st       storage.Storage
	limits   storage.Limits
}

// NewOrderHandler 创建 OrderHandler
func NewOrderHandler(orderSvc service.OrderService, st storage.Storage, limits storage.Limits) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc, st: st, limits: limits}
}

// Create 管理员创建订单（JSON 或 multipart，附件字段 files）
// POST /api/v1/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	files, ok := saveUploads(c, h.st, "orders", h.limits)
	if !ok {
		return
	}

	order, err := h.orderSvc.Create(c.Request.Context(), &req, files, callerID)
	if err != nil {
		discardFiles(c, h.st, storedPaths(files))
		h.handleOrderError(c, err)
		return
	}

	response.Created(c, order)
}

// CreateExternal 写手登记外部订单，自动指派给本人
// POST /api/v1/orders/external
func (h *OrderHandler) CreateExternal(c *gin.Context) {
	var req dto.CreateExternalOrderRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	writerID, ok := MustGetWriterID(c)
	if !ok {
		return
	}

	files, ok := saveUploads(c, h.st, "orders", h.limits)
	if !ok {
		return
	}

	order, err := h.orderSvc.CreateExternal(c.Request.Context(), &req, files, writerID, callerID)
	if err != nil {
		discardFiles(c, h.st, storedPaths(files))
		h.handleOrderError(c, err)
		return
	}

	response.Created(c, order)
}

// List 订单列表；写手只能看到指派给自己的订单
// GET /api/v1/orders
func (h *OrderHandler) List(c *gin.Context) {
	var req dto.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	scope, ok := scopeWriterID(c)
	if !ok {
		return
	}

	list, total, err := h.orderSvc.List(c.Request.Context(), &req, scope)
	if err != nil {
		h.handleOrderError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Get 订单详情
// GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	scope, ok := scopeWriterID(c)
	if !ok {
		return
	}

	order, err := h.orderSvc.Get(c.Request.Context(), c.Param("id"), scope)
	if err != nil {
		h.handleOrderError(c, err)
		return
	}

	response.OK(c, order)
}

// DownloadAttachment 下载订单附件
// GET /api/v1/orders/:id/attachments/:index
func (h *OrderHandler) DownloadAttachment(c *gin.Context) {
	scope, ok := scopeWriterID(c)
	if !ok {
		return
	}

	order, err := h.orderSvc.Get(c.Request.Context(), c.Param("id"), scope)
	if err != nil {
		h.handleOrderError(c, err)
		return
	}

	serveAttachment(c, h.st, order.Attachments)
}

// Update 修改订单（乐观锁 version）
// PUT /api/v1/orders/:id
func (h *OrderHandler) Update(c *gin.Context) {
	var req dto.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	order, err := h.orderSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleOrderError(c, err)
		return
	}

	response.OK(c, order)
}

// Assign 指派写手
// POST /api/v1/orders/:id/assign
func (h *OrderHandler) Assign(c *gin.Context) {
	var req dto.AssignOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	order, err := h.orderSvc.AssignToWriter(c.Request.Context(), c.Param("id"), req.WriterID, callerID)
	if err != nil {
		h.handleOrderError(c, err)
		return
	}

	response.OK(c, order)
}

// Start 标记为进行中
// POST /api/v1/orders/:id/start
func (h *OrderHandler) Start(c *gin.Context) {
	h.advance(c, h.orderSvc.MarkInProgress)
}

// Submit 标记为已提交
// POST /api/v1/orders/:id/submit
func (h *OrderHandler) Submit(c *gin.Context) {
	h.advance(c, h.orderSvc.MarkSubmitted)
}

type advanceFunc func(ctx context.Context, id, scopeWriterID, callerID string) (*dto.OrderResponse, error)

func (h *OrderHandler) advance(c *gin.Context, fn advanceFunc) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	scope, ok := scopeWriterID(c)
	if !ok {
		return
	}

	order, err := fn(c.Request.Context(), c.Param("id"), scope, callerID)
	if err != nil {
		h.handleOrderError(c, err)
		return
	}

	response.OK(c, order)
}

// Cancel 取消订单，可附带写手处罚
// POST /api/v1/orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	var req dto.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	order, err := h.orderSvc.CancelOrder(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleOrderError(c, err)
		return
	}

	response.OK(c, order)
}

// Delete 删除无提交记录的待开始订单，并清理附件
// DELETE /api/v1/orders/:id
func (h *OrderHandler) Delete(c *gin.Context) {
	paths, err := h.orderSvc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleOrderError(c, err)
		return
	}

	discardFiles(c, h.st, paths)
	response.OK(c, nil)
}

// handleOrderError 统一处理订单模块业务错误
func (h *OrderHandler) handleOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		response.NotFound(c, 14001, "订单不存在")
	case errors.Is(err, service.ErrOrderForbidden):
		response.Forbidden(c, 14002, "无权访问该订单")
	case errors.Is(err, service.ErrOrderNumberExists):
		response.Conflict(c, 14003, "订单号已存在")
	case errors.Is(err, service.ErrOrderInvalidAmount):
		response.BadRequest(c, 14004, "页数与单价必须大于 0")
	case errors.Is(err, service.ErrOrderClosed):
		response.Conflict(c, 14005, "订单已提交或已取消，不能修改")
	case errors.Is(err, service.ErrOrderTransition), errors.Is(err, service.ErrOrderNotAssigned):
		response.Conflict(c, 14006, err.Error())
	case errors.Is(err, service.ErrOrderNotCancellable):
		response.Conflict(c, 14007, "订单已提交或已取消，不能取消")
	case errors.Is(err, service.ErrOrderNotDeletable):
		response.Conflict(c, 14008, "仅可删除无提交记录的待开始订单")
	case errors.Is(err, service.ErrWriterCannotTakeOrders):
		response.Conflict(c, 14009, "写手已停职，不能接单")
	case errors.Is(err, service.ErrInvalidConsequence):
		response.BadRequest(c, 14010, "无效的取消处罚类型")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 14011, "订单已被他人修改，请刷新后重试")
	case errors.Is(err, service.ErrWriterNotFound):
		response.NotFound(c, 12001, "写手不存在")
	default:
		response.FromError(c, err)
	}
}
