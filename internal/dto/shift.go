package dto

import "github.com/shopspring/decimal"

// ── 班次模块 DTO ──

// CreateShiftRequest 手动开启新班次
type CreateShiftRequest struct {
	MaxPagesPerShift *int `json:"max_pages_per_shift" binding:"omitempty,min=1,max=1000"`
}

// UpdateShiftQuotaRequest 调整当前班次配额
type UpdateShiftQuotaRequest struct {
	MaxPagesPerShift int `json:"max_pages_per_shift" binding:"required,min=1,max=1000"`
}

// ShiftResponse 班次响应
type ShiftResponse struct {
	ID               string `json:"id"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	MaxPagesPerShift int    `json:"max_pages_per_shift"`
	IsActive         bool   `json:"is_active"`
}

// ProgressResponse 写手本班次进度
type ProgressResponse struct {
	WriterID        string          `json:"writer_id"`
	ShiftID         string          `json:"shift_id"`
	TargetPages     int             `json:"target_pages"`
	ApprovedPages   decimal.Decimal `json:"approved_pages"`
	PendingPages    decimal.Decimal `json:"pending_pages"`
	RejectedPages   decimal.Decimal `json:"rejected_pages"`
	RemainingPages  decimal.Decimal `json:"remaining_pages"`
	PercentComplete int64           `json:"percent_complete"`
	OnTarget        bool            `json:"on_target"`
}
