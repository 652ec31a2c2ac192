package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── 列表过滤条件 ──

// WriterFilter 写手列表过滤
type WriterFilter struct {
	Status  string
	Keyword string
	Offset  int
	Limit   int
}

// OrderFilter 订单列表过滤
type OrderFilter struct {
	Status   string
	WriterID string
	Keyword  string // 匹配订单号或主题
	Offset   int
	Limit    int
}

// SubmissionFilter 提交列表过滤
type SubmissionFilter struct {
	Status   string
	WriterID string
	OrderID  string
	ShiftID  string
	Offset   int
	Limit    int
}

// PaymentFilter 付款列表过滤
type PaymentFilter struct {
	Status   string
	WriterID string
	From     *time.Time
	To       *time.Time
	Offset   int
	Limit    int
}

// ── 聚合结果 ──

// StatusCount 按状态计数
type StatusCount struct {
	Status string
	Count  int64
}

// StatusSum 按状态求和
type StatusSum struct {
	Status string
	Count  int64
	Total  decimal.Decimal
}

// DailyAmount 按天聚合的金额与页数
type DailyAmount struct {
	Day    time.Time
	Amount decimal.Decimal
	Pages  decimal.Decimal
}
