package dto

import "github.com/shopspring/decimal"

// ── 提交模块 DTO ──

// CreateSubmissionRequest 写手提交请求（JSON 或 multipart）
// cost_per_page 省略时取订单单价
type CreateSubmissionRequest struct {
	OrderID     string           `json:"order_id"      form:"order_id"      binding:"required,uuid"`
	PagesWorked decimal.Decimal  `json:"pages_worked"  form:"pages_worked"  binding:"required,gt=0"`
	CostPerPage *decimal.Decimal `json:"cost_per_page" form:"cost_per_page" binding:"omitempty,gt=0"`
	Notes       string           `json:"notes"         form:"notes"         binding:"omitempty,max=2000"`
}

// ReviewSubmissionRequest 审核请求
type ReviewSubmissionRequest struct {
	Status      string `json:"status"       binding:"required,oneof=approved rejected"`
	ReviewNotes string `json:"review_notes" binding:"omitempty,max=2000"`
}

// SubmissionListRequest 提交列表查询参数
type SubmissionListRequest struct {
	PaginationRequest
	Status   string `form:"status"    binding:"omitempty,oneof=pending approved rejected"`
	WriterID string `form:"writer_id" binding:"omitempty,uuid"`
	OrderID  string `form:"order_id"  binding:"omitempty,uuid"`
	ShiftID  string `form:"shift_id"  binding:"omitempty,uuid"`
}

// SubmissionResponse 提交响应
type SubmissionResponse struct {
	ID          string               `json:"id"`
	OrderID     string               `json:"order_id"`
	OrderNumber string               `json:"order_number,omitempty"`
	WriterID    string               `json:"writer_id"`
	WriterName  string               `json:"writer_name,omitempty"`
	ShiftID     string               `json:"shift_id"`
	PagesWorked decimal.Decimal      `json:"pages_worked"`
	CostPerPage decimal.Decimal      `json:"cost_per_page"`
	Amount      decimal.Decimal      `json:"amount"`
	Attachments []AttachmentResponse `json:"attachments,omitempty"`
	Notes       string               `json:"notes,omitempty"`
	Status      string               `json:"status"`
	ReviewedBy  string               `json:"reviewed_by,omitempty"`
	ReviewNotes string               `json:"review_notes,omitempty"`
	ReviewedAt  string               `json:"reviewed_at,omitempty"`
	CreatedAt   string               `json:"created_at"`
}

// CreateSubmissionResponse 提交创建结果，附带配额使用情况
type CreateSubmissionResponse struct {
	Submission        SubmissionResponse `json:"submission"`
	CurrentShiftPages decimal.Decimal    `json:"current_shift_pages"`
	MaxPagesPerShift  int                `json:"max_pages_per_shift"`
	ExceedsQuota      bool               `json:"exceeds_quota"`
}
