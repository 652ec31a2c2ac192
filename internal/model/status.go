package model

// ── 状态枚举与合法跳转表 ──
//
// 每次状态变更前必须经过 CanTransitionTo 检查，Service 层不再散落 if/switch。

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderAssigned   OrderStatus = "assigned"
	OrderInProgress OrderStatus = "in_progress"
	OrderSubmitted  OrderStatus = "submitted"
	OrderCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderAssigned:   {OrderAssigned, OrderInProgress, OrderCancelled},
	OrderInProgress: {OrderSubmitted, OrderCancelled},
	OrderSubmitted:  {},
	OrderCancelled:  {},
}

// Valid 是否为已知状态
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo 检查 s → next 是否合法
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, n := range orderTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// IsTerminal 已提交或已取消
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// SubmissionStatus 提交审核状态
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

var submissionTransitions = map[SubmissionStatus][]SubmissionStatus{
	SubmissionPending:  {SubmissionApproved, SubmissionRejected},
	SubmissionApproved: {},
	SubmissionRejected: {},
}

// Valid 是否为已知状态
func (s SubmissionStatus) Valid() bool {
	_, ok := submissionTransitions[s]
	return ok
}

// CanTransitionTo 检查 s → next 是否合法（审核只允许一次）
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	for _, n := range submissionTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// PaymentStatus 付款状态
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending: {PaymentPaid, PaymentFailed},
	PaymentPaid:    {},
	PaymentFailed:  {},
}

// ParsePaymentStatus 解析付款状态，历史遗留的多种"待处理"取值统一归为 pending
func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch s {
	case "pending", "pending_approval", "approved", "payment_pending":
		return PaymentPending, true
	case "paid":
		return PaymentPaid, true
	case "failed":
		return PaymentFailed, true
	}
	return "", false
}

// CanTransitionTo 检查 s → next 是否合法
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, n := range paymentTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// WriterStatus 写手状态
type WriterStatus string

const (
	WriterActive    WriterStatus = "active"
	WriterProbation WriterStatus = "probation"
	WriterSuspended WriterStatus = "suspended"
)

var writerTransitions = map[WriterStatus][]WriterStatus{
	WriterActive:    {WriterProbation, WriterSuspended},
	WriterProbation: {WriterProbation, WriterActive, WriterSuspended},
	WriterSuspended: {WriterSuspended, WriterActive, WriterProbation},
}

// Valid 是否为已知状态
func (s WriterStatus) Valid() bool {
	_, ok := writerTransitions[s]
	return ok
}

// CanTransitionTo 检查 s → next 是否合法
func (s WriterStatus) CanTransitionTo(next WriterStatus) bool {
	for _, n := range writerTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// CanReceiveWork 仅 active / probation 写手可接单、提交
func (s WriterStatus) CanReceiveWork() bool {
	return s == WriterActive || s == WriterProbation
}

// severity 处罚严重程度：active < probation < suspended
func (s WriterStatus) severity() int {
	switch s {
	case WriterProbation:
		return 1
	case WriterSuspended:
		return 2
	default:
		return 0
	}
}

// MoreSevere 返回两者中更严重的状态
func MoreSevere(a, b WriterStatus) WriterStatus {
	if b.severity() > a.severity() {
		return b
	}
	return a
}

// StatusAction 写手状态操作类型
type StatusAction string

const (
	ActionWarning    StatusAction = "warning"
	ActionProbation  StatusAction = "probation"
	ActionSuspension StatusAction = "suspension"
	ActionActivation StatusAction = "activation"
)

// Valid 是否为已知操作
func (a StatusAction) Valid() bool {
	switch a {
	case ActionWarning, ActionProbation, ActionSuspension, ActionActivation:
		return true
	}
	return false
}

// TargetStatus 操作对应的目标状态；warning 不改变状态，返回 current
func (a StatusAction) TargetStatus(current WriterStatus) WriterStatus {
	switch a {
	case ActionProbation:
		return WriterProbation
	case ActionSuspension:
		return WriterSuspended
	case ActionActivation:
		return WriterActive
	default:
		return current
	}
}
