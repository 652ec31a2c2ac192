package dto

import "github.com/shopspring/decimal"

// ── 报表模块 DTO ──

// AmountSummary 计数 + 金额
type AmountSummary struct {
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// DailyEarning 单日已通过收入
type DailyEarning struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Pages  decimal.Decimal `json:"pages"`
}

// AdminDashboardResponse 管理员看板
type AdminDashboardResponse struct {
	OrdersByStatus      map[string]int64         `json:"orders_by_status"`
	SubmissionsByStatus map[string]int64         `json:"submissions_by_status"`
	PaymentsByStatus    map[string]AmountSummary `json:"payments_by_status"`
	WritersByStatus     map[string]int64         `json:"writers_by_status"`
	OutstandingBalance  decimal.Decimal          `json:"outstanding_balance"`
	CurrentShift        *ShiftResponse           `json:"current_shift,omitempty"`
	ShiftApprovedPages  decimal.Decimal          `json:"shift_approved_pages"`
	DailyEarnings       []DailyEarning           `json:"daily_earnings"`
}

// WriterDashboardResponse 写手看板
type WriterDashboardResponse struct {
	Writer              *WriterResponse          `json:"writer,omitempty"`
	Progress            *ProgressResponse        `json:"progress,omitempty"`
	SubmissionsByStatus map[string]int64         `json:"submissions_by_status"`
	PaymentsByStatus    map[string]AmountSummary `json:"payments_by_status"`
}
