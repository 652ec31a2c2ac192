package model

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Submission 写手提交表 — 对应 submissions（审核后不可变）
type Submission struct {
	SubmissionID string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"submission_id"`
	OrderID      string           `gorm:"type:uuid;not null;index"                       json:"order_id"`
	WriterID     string           `gorm:"type:uuid;not null;index"                       json:"writer_id"`
	ShiftID      string           `gorm:"type:uuid;not null;index"                       json:"shift_id"`
	PagesWorked  decimal.Decimal  `gorm:"type:numeric(10,2);not null"                    json:"pages_worked"`
	CostPerPage  decimal.Decimal  `gorm:"type:numeric(10,2);not null"                    json:"cost_per_page"` // 提交时快照
	Amount       decimal.Decimal  `gorm:"type:numeric(12,2);not null"                    json:"amount"`
	FilePaths    pq.StringArray   `gorm:"type:text[]"                                    json:"file_paths,omitempty"`
	FileNames    pq.StringArray   `gorm:"type:text[]"                                    json:"file_names,omitempty"`
	Notes        string           `gorm:"type:text"                                      json:"notes,omitempty"`
	Status       SubmissionStatus `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	ReviewedBy   *string          `gorm:"type:uuid"                                      json:"reviewed_by,omitempty"`
	ReviewNotes  *string          `gorm:"type:text"                                      json:"review_notes,omitempty"`
	ReviewedAt   *time.Time       `json:"reviewed_at,omitempty"`
	BaseModel

	// 关联
	Order  *Order  `gorm:"foreignKey:OrderID;references:OrderID"   json:"order,omitempty"`
	Writer *Writer `gorm:"foreignKey:WriterID;references:WriterID" json:"writer,omitempty"`
}

// TableName 指定表名
func (Submission) TableName() string { return "submissions" }
