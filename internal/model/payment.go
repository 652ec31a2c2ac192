package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Payment 付款表 — 对应 payments
type Payment struct {
	PaymentID            string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"payment_id"`
	WriterID             string          `gorm:"type:uuid;not null;index"                       json:"writer_id"`
	Amount               decimal.Decimal `gorm:"type:numeric(12,2);not null"                    json:"amount"`
	Status               PaymentStatus   `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	Method               *string         `gorm:"type:varchar(50)"                               json:"method,omitempty"`
	TransactionReference *string         `gorm:"type:varchar(255)"                              json:"transaction_reference,omitempty"`
	Notes                *string         `gorm:"type:text"                                      json:"notes,omitempty"`
	CreatedBy            string          `gorm:"type:uuid;not null"                             json:"created_by"`
	ProcessedBy          *string         `gorm:"type:uuid"                                      json:"processed_by,omitempty"`
	PaidAt               *time.Time      `json:"paid_at,omitempty"`
	FailedAt             *time.Time      `json:"failed_at,omitempty"`
	BaseModel

	// 关联
	Writer *Writer `gorm:"foreignKey:WriterID;references:WriterID" json:"writer,omitempty"`
}

// TableName 指定表名
func (Payment) TableName() string { return "payments" }

// 付款日志事件
const (
	PaymentEventCreated = "created"
	PaymentEventPaid    = "paid"
	PaymentEventFailed  = "failed"
)

// PaymentLog 付款审计日志 — 对应 payment_logs（只追加，镜像付款字段）
type PaymentLog struct {
	PaymentLogID string            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"payment_log_id"`
	PaymentID    string            `gorm:"type:uuid;not null;index"                       json:"payment_id"`
	WriterID     string            `gorm:"type:uuid;not null"                             json:"writer_id"`
	Event        string            `gorm:"type:varchar(20);not null"                      json:"event"`
	Amount       decimal.Decimal   `gorm:"type:numeric(12,2);not null"                    json:"amount"`
	Status       PaymentStatus     `gorm:"type:varchar(20);not null"                      json:"status"`
	ActorID      *string           `gorm:"type:uuid"                                      json:"actor_id,omitempty"`
	Snapshot     datatypes.JSONMap `gorm:"type:jsonb"                                     json:"snapshot,omitempty"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (PaymentLog) TableName() string { return "payment_logs" }

// NewPaymentLog 依据付款当前状态生成日志
func NewPaymentLog(p *Payment, event string, actorID *string) *PaymentLog {
	snapshot := datatypes.JSONMap{
		"amount": p.Amount.StringFixed(2),
		"status": string(p.Status),
	}
	if p.Method != nil {
		snapshot["method"] = *p.Method
	}
	if p.TransactionReference != nil {
		snapshot["transaction_reference"] = *p.TransactionReference
	}
	if p.Notes != nil {
		snapshot["notes"] = *p.Notes
	}
	return &PaymentLog{
		PaymentID: p.PaymentID,
		WriterID:  p.WriterID,
		Event:     event,
		Amount:    p.Amount,
		Status:    p.Status,
		ActorID:   actorID,
		Snapshot:  snapshot,
	}
}
