package dto

import "github.com/shopspring/decimal"

// ── 写手模块 DTO ──

// WriterListRequest 写手列表查询参数
type WriterListRequest struct {
	PaginationRequest
	Status  string `form:"status"  binding:"omitempty,oneof=active probation suspended"`
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}

// ChangeWriterStatusRequest 变更写手状态请求
type ChangeWriterStatusRequest struct {
	Action       string `json:"action"        binding:"required,oneof=warning probation suspension activation"`
	Reason       string `json:"reason"        binding:"required,min=2,max=500"`
	DurationDays *int   `json:"duration_days" binding:"omitempty,min=1,max=365"`
}

// WriterResponse 写手档案响应
type WriterResponse struct {
	ID                   string          `json:"id"`
	UserID               string          `json:"user_id"`
	Name                 string          `json:"name"`
	Email                string          `json:"email"`
	Status               string          `json:"status"`
	StatusExpiresAt      string          `json:"status_expires_at,omitempty"`
	BalanceUSD           decimal.Decimal `json:"balance_usd"`
	LifetimeEarnings     decimal.Decimal `json:"lifetime_earnings"`
	TotalPagesCompleted  decimal.Decimal `json:"total_pages_completed"`
	TotalOrdersCompleted int             `json:"total_orders_completed"`
	CurrentShiftPages    decimal.Decimal `json:"current_shift_pages"`
	CurrentShiftOrders   int             `json:"current_shift_orders"`
	LastSubmissionDate   string          `json:"last_submission_date,omitempty"`
	CreatedAt            string          `json:"created_at"`
}

// WriterStatusLogResponse 写手状态日志响应
type WriterStatusLogResponse struct {
	ID             string `json:"id"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
	Action         string `json:"action"`
	Reason         string `json:"reason,omitempty"`
	AdminID        string `json:"admin_id,omitempty"`
	DurationDays   *int   `json:"duration_days,omitempty"`
	ExpiresAt      string `json:"expires_at,omitempty"`
	CreatedAt      string `json:"created_at"`
}
