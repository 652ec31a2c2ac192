package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Writer 写手档案表 — 对应 writers（与 users 一对一）
type Writer struct {
	WriterID             string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"writer_id"`
	UserID               string          `gorm:"type:uuid;not null;uniqueIndex"                 json:"user_id"`
	Status               WriterStatus    `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	StatusExpiresAt      *time.Time      `json:"status_expires_at,omitempty"`
	BalanceUSD           decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"balance_usd"`
	LifetimeEarnings     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"lifetime_earnings"`
	TotalPagesCompleted  decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"          json:"total_pages_completed"`
	TotalOrdersCompleted int             `gorm:"not null;default:0"                             json:"total_orders_completed"`
	CurrentShiftPages    decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"          json:"current_shift_pages"`
	CurrentShiftOrders   int             `gorm:"not null;default:0"                             json:"current_shift_orders"`
	LastSubmissionDate   *time.Time      `json:"last_submission_date,omitempty"`
	BaseModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Writer) TableName() string { return "writers" }

// Credit 审核通过后入账：余额、累计收入、累计页数、累计订单数
func (w *Writer) Credit(amount, pages decimal.Decimal) {
	w.BalanceUSD = w.BalanceUSD.Add(amount)
	w.LifetimeEarnings = w.LifetimeEarnings.Add(amount)
	w.TotalPagesCompleted = w.TotalPagesCompleted.Add(pages)
	w.TotalOrdersCompleted++
}

// ResetShiftCounters 换班时清零本班次计数
func (w *Writer) ResetShiftCounters() {
	w.CurrentShiftPages = decimal.Zero
	w.CurrentShiftOrders = 0
}

// WriterStatusLog 写手状态变更日志 — 对应 writer_status_logs（只追加）
type WriterStatusLog struct {
	LogID          string       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"log_id"`
	WriterID       string       `gorm:"type:uuid;not null;index"                       json:"writer_id"`
	PreviousStatus WriterStatus `gorm:"type:varchar(20);not null"                      json:"previous_status"`
	NewStatus      WriterStatus `gorm:"type:varchar(20);not null"                      json:"new_status"`
	Action         StatusAction `gorm:"type:varchar(20);not null"                      json:"action"` // warning | probation | suspension | activation
	Reason         string       `gorm:"type:varchar(500)"                              json:"reason,omitempty"`
	AdminID        *string      `gorm:"type:uuid"                                      json:"admin_id,omitempty"` // nil 表示系统操作
	DurationDays   *int         `json:"duration_days,omitempty"`
	ExpiresAt      *time.Time   `json:"expires_at,omitempty"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (WriterStatusLog) TableName() string { return "writer_status_logs" }
