package dto

import "github.com/shopspring/decimal"

// ── 付款模块 DTO ──

// CreatePaymentRequest 创建付款请求
type CreatePaymentRequest struct {
	WriterID string          `json:"writer_id" binding:"required,uuid"`
	Amount   decimal.Decimal `json:"amount"    binding:"required,gt=0"`
	Notes    string          `json:"notes"     binding:"omitempty,max=1000"`
}

// MarkPaymentPaidRequest 标记到账请求
type MarkPaymentPaidRequest struct {
	Method               string `json:"method"                binding:"required,max=50"`
	TransactionReference string `json:"transaction_reference" binding:"omitempty,max=255"`
	Notes                string `json:"notes"                 binding:"omitempty,max=1000"`
}

// MarkPaymentFailedRequest 标记失败请求
type MarkPaymentFailedRequest struct {
	Reason string `json:"reason" binding:"required,min=2,max=1000"`
}

// PaymentListRequest 付款列表查询参数（status 兼容历史取值）
type PaymentListRequest struct {
	PaginationRequest
	Status   string `form:"status"    binding:"omitempty,oneof=pending pending_approval approved payment_pending paid failed"`
	WriterID string `form:"writer_id" binding:"omitempty,uuid"`
}

// PaymentExportRequest 付款导出时间范围（含 from，不含 to）
type PaymentExportRequest struct {
	From string `form:"from" binding:"required,datetime=2006-01-02"`
	To   string `form:"to"   binding:"required,datetime=2006-01-02"`
}

// PaymentResponse 付款响应
type PaymentResponse struct {
	ID                   string          `json:"id"`
	WriterID             string          `json:"writer_id"`
	WriterName           string          `json:"writer_name,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	Status               string          `json:"status"`
	Method               string          `json:"method,omitempty"`
	TransactionReference string          `json:"transaction_reference,omitempty"`
	Notes                string          `json:"notes,omitempty"`
	CreatedBy            string          `json:"created_by"`
	ProcessedBy          string          `json:"processed_by,omitempty"`
	PaidAt               string          `json:"paid_at,omitempty"`
	FailedAt             string          `json:"failed_at,omitempty"`
	CreatedAt            string          `json:"created_at"`
}

// PaymentLogResponse 付款日志响应
type PaymentLogResponse struct {
	ID        string                 `json:"id"`
	Event     string                 `json:"event"`
	Amount    decimal.Decimal        `json:"amount"`
	Status    string                 `json:"status"`
	ActorID   string                 `json:"actor_id,omitempty"`
	Snapshot  map[string]interface{} `json:"snapshot,omitempty"`
	CreatedAt string                 `json:"created_at"`
}
