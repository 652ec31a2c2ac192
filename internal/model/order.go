package model

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Order 订单表 — 对应 orders
type Order struct {
	OrderID                 string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"order_id"`
	OrderNumber             string          `gorm:"type:varchar(32);not null;uniqueIndex"          json:"order_number"`
	Subject                 string          `gorm:"type:varchar(255);not null"                     json:"subject"`
	Description             string          `gorm:"type:text"                                      json:"description,omitempty"`
	Deadline                time.Time       `gorm:"not null"                                       json:"deadline"`
	Pages                   decimal.Decimal `gorm:"type:numeric(10,2);not null"                    json:"pages"`
	CostPerPage             decimal.Decimal `gorm:"type:numeric(10,2);not null"                    json:"cost_per_page"`
	TotalAmount             decimal.Decimal `gorm:"type:numeric(12,2);not null"                    json:"total_amount"`
	WriterID                *string         `gorm:"type:uuid;index"                                json:"writer_id,omitempty"`
	Status                  OrderStatus     `gorm:"type:varchar(20);not null;default:'assigned'"   json:"status"`
	CancellationReason      *string         `gorm:"type:varchar(500)"                              json:"cancellation_reason,omitempty"`
	CancellationConsequence *StatusAction   `gorm:"type:varchar(20)"                               json:"cancellation_consequence,omitempty"`
	CancelledBy             *string         `gorm:"type:uuid"                                      json:"cancelled_by,omitempty"`
	CancelledAt             *time.Time      `json:"cancelled_at,omitempty"`
	FilePaths               pq.StringArray  `gorm:"type:text[]"                                    json:"file_paths,omitempty"`
	FileNames               pq.StringArray  `gorm:"type:text[]"                                    json:"file_names,omitempty"`
	IsExternal              bool            `gorm:"not null;default:false"                         json:"is_external"`
	VersionedModel

	// 关联
	Writer *Writer `gorm:"foreignKey:WriterID;references:WriterID" json:"writer,omitempty"`
}

// TableName 指定表名
func (Order) TableName() string { return "orders" }

// RecomputeTotal total = pages × cpp，pages 或 cpp 变更后必须调用
func (o *Order) RecomputeTotal() {
	o.TotalAmount = o.Pages.Mul(o.CostPerPage).Round(2)
}

// IsAssignedTo 订单是否归属该写手
func (o *Order) IsAssignedTo(writerID string) bool {
	return o.WriterID != nil && *o.WriterID == writerID
}
