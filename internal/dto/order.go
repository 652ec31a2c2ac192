package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── 订单模块 DTO ──

// CreateOrderRequest 管理员创建订单（JSON 或 multipart）
type CreateOrderRequest struct {
	OrderNumber string          `json:"order_number" form:"order_number" binding:"omitempty,order_number"`
	Subject     string          `json:"subject"      form:"subject"      binding:"required,min=2,max=255"`
	Description string          `json:"description"  form:"description"  binding:"omitempty,max=5000"`
	Deadline    time.Time       `json:"deadline"     form:"deadline"     binding:"required"`
	Pages       decimal.Decimal `json:"pages"        form:"pages"        binding:"required,gt=0"`
	CostPerPage decimal.Decimal `json:"cost_per_page" form:"cost_per_page" binding:"required,gt=0"`
	WriterID    string          `json:"writer_id"    form:"writer_id"    binding:"omitempty,uuid"`
}

// CreateExternalOrderRequest 写手自行登记外部订单
type CreateExternalOrderRequest struct {
	OrderNumber string          `json:"order_number" form:"order_number" binding:"omitempty,order_number"`
	Subject     string          `json:"subject"      form:"subject"      binding:"required,min=2,max=255"`
	Description string          `json:"description"  form:"description"  binding:"omitempty,max=5000"`
	Deadline    time.Time       `json:"deadline"     form:"deadline"     binding:"required"`
	Pages       decimal.Decimal `json:"pages"        form:"pages"        binding:"required,gt=0"`
	CostPerPage decimal.Decimal `json:"cost_per_page" form:"cost_per_page" binding:"required,gt=0"`
}

// UpdateOrderRequest 更新订单请求
type UpdateOrderRequest struct {
	Subject     *string          `json:"subject"       binding:"omitempty,min=2,max=255"`
	Description *string          `json:"description"   binding:"omitempty,max=5000"`
	Deadline    *time.Time       `json:"deadline"`
	Pages       *decimal.Decimal `json:"pages"         binding:"omitempty,gt=0"`
	CostPerPage *decimal.Decimal `json:"cost_per_page" binding:"omitempty,gt=0"`
	Version     int              `json:"version"       binding:"required,min=1"`
}

// AssignOrderRequest 指派写手请求
type AssignOrderRequest struct {
	WriterID string `json:"writer_id" binding:"required,uuid"`
}

// CancelOrderRequest 取消订单请求
type CancelOrderRequest struct {
	Reason      string `json:"reason"      binding:"required,min=2,max=500"`
	Consequence string `json:"consequence" binding:"omitempty,oneof=warning probation suspension"`
}

// OrderListRequest 订单列表查询参数
type OrderListRequest struct {
	PaginationRequest
	Status   string `form:"status"    binding:"omitempty,oneof=assigned in_progress submitted cancelled"`
	WriterID string `form:"writer_id" binding:"omitempty,uuid"`
	Keyword  string `form:"keyword"   binding:"omitempty,max=50"`
}

// AttachmentResponse 附件
type AttachmentResponse struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// OrderResponse 订单响应
type OrderResponse struct {
	ID                      string               `json:"id"`
	OrderNumber             string               `json:"order_number"`
	Subject                 string               `json:"subject"`
	Description             string               `json:"description,omitempty"`
	Deadline                string               `json:"deadline"`
	Pages                   decimal.Decimal      `json:"pages"`
	CostPerPage             decimal.Decimal      `json:"cost_per_page"`
	TotalAmount             decimal.Decimal      `json:"total_amount"`
	WriterID                string               `json:"writer_id,omitempty"`
	WriterName              string               `json:"writer_name,omitempty"`
	Status                  string               `json:"status"`
	CancellationReason      string               `json:"cancellation_reason,omitempty"`
	CancellationConsequence string               `json:"cancellation_consequence,omitempty"`
	CancelledAt             string               `json:"cancelled_at,omitempty"`
	IsExternal              bool                 `json:"is_external"`
	Attachments             []AttachmentResponse `json:"attachments,omitempty"`
	Version                 int                  `json:"version"`
	CreatedAt               string               `json:"created_at"`
	UpdatedAt               string               `json:"updated_at"`
}
