package queue

import (
	"time"

	"github.com/shopspring/decimal"
)

// 路由键
const (
	RoutingShiftRolled         = "shift.rolled"
	RoutingSubmissionCreated   = "submission.created"
	RoutingSubmissionReviewed  = "submission.reviewed"
	RoutingOrderCancelled      = "order.cancelled"
	RoutingPaymentSettled      = "payment.settled"
	RoutingWriterStatusChanged = "writer.status_changed"
)

// ShiftRolledEvent 换班完成
type ShiftRolledEvent struct {
	ShiftID          string    `json:"shift_id"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	MaxPagesPerShift int       `json:"max_pages_per_shift"`
	WritersReset     int64     `json:"writers_reset"`
}

// SubmissionEvent 提交创建 / 审核
type SubmissionEvent struct {
	SubmissionID string          `json:"submission_id"`
	OrderID      string          `json:"order_id"`
	WriterID     string          `json:"writer_id"`
	Status       string          `json:"status"`
	PagesWorked  decimal.Decimal `json:"pages_worked"`
	Amount       decimal.Decimal `json:"amount"`
	OrderStatus  string          `json:"order_status,omitempty"`
	ExceedsQuota bool            `json:"exceeds_quota,omitempty"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// OrderCancelledEvent 订单取消
type OrderCancelledEvent struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	WriterID    string    `json:"writer_id,omitempty"`
	Consequence string    `json:"consequence,omitempty"`
	Reason      string    `json:"reason"`
	CancelledBy string    `json:"cancelled_by"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// PaymentSettledEvent 付款到账或失败
type PaymentSettledEvent struct {
	PaymentID  string          `json:"payment_id"`
	WriterID   string          `json:"writer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"`
	Reference  string          `json:"reference,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// WriterStatusChangedEvent 写手状态变更
type WriterStatusChangedEvent struct {
	WriterID       string     `json:"writer_id"`
	PreviousStatus string     `json:"previous_status"`
	NewStatus      string     `json:"new_status"`
	Action         string     `json:"action"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	OccurredAt     time.Time  `json:"occurred_at"`
}
