package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"easypro/backend/config"
	"easypro/backend/internal/model"
	"easypro/backend/internal/repository"
)

// testEnv 单元测试公共环境：全部仓储均为内存 mock
type testEnv struct {
	cfg    *config.Config
	repo   *repository.Repository
	pub    *recordingPublisher
	logger *zap.Logger

	users      *mockUserRepo
	writers    *mockWriterRepo
	statusLogs *mockWriterStatusLogRepo
	shifts     *mockShiftRepo
	orders     *mockOrderRepo
	subs       *mockSubmissionRepo
	payments   *mockPaymentRepo
	paymentLog *mockPaymentLogRepo
	sysConfig  *mockSystemConfigRepo
	locks      *lockRecorder
}

var testNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// 固定当前时间，测试结束恢复
	prev := nowFunc
	nowFunc = func() time.Time { return testNow }
	t.Cleanup(func() { nowFunc = prev })

	users := newMockUserRepo()
	env := &testEnv{
		cfg: &config.Config{
			Auth: config.AuthConfig{
				JWTSecret:       "test-secret-key-for-unit-testing",
				AccessTokenTTL:  15 * time.Minute,
				RefreshTokenTTL: 24 * time.Hour,
				InviteTTL:       72 * time.Hour,
				ResetCodeTTL:    15 * time.Minute,
			},
			Shift:   config.ShiftConfig{BoundaryHour: 0, DefaultMaxPages: 20, Timezone: "UTC"},
			Penalty: config.PenaltyConfig{ProbationDays: 7, SuspensionDays: 30},
		},
		pub:        &recordingPublisher{},
		logger:     zap.NewNop(),
		users:      users,
		writers:    newMockWriterRepo(users),
		statusLogs: newMockWriterStatusLogRepo(),
		shifts:     newMockShiftRepo(),
		orders:     newMockOrderRepo(),
		subs:       newMockSubmissionRepo(),
		payments:   newMockPaymentRepo(),
		paymentLog: newMockPaymentLogRepo(),
		sysConfig:  newMockSystemConfigRepo(),
	}
	env.locks = &lockRecorder{}
	env.writers.locks = env.locks
	env.orders.locks = env.locks
	env.subs.locks = env.locks
	env.payments.locks = env.locks

	env.repo = &repository.Repository{
		User:            env.users,
		Writer:          env.writers,
		WriterStatusLog: env.statusLogs,
		Shift:           env.shifts,
		Order:           env.orders,
		Submission:      env.subs,
		Payment:         env.payments,
		PaymentLog:      env.paymentLog,
		SystemConfig:    env.sysConfig,
	}
	return env
}

func (e *testEnv) shiftService() ShiftService {
	return NewShiftService(e.cfg, e.repo, nil, e.pub, e.logger)
}

func (e *testEnv) orderService() OrderService {
	return NewOrderService(e.cfg, e.repo, nil, e.pub, e.logger)
}

func (e *testEnv) submissionService() SubmissionService {
	return NewSubmissionService(e.repo, e.shiftService(), e.pub, e.logger)
}

func (e *testEnv) paymentService() PaymentService {
	return NewPaymentService(e.repo, e.pub, e.logger)
}

func (e *testEnv) writerService() WriterService {
	return NewWriterService(e.cfg, e.repo, nil, e.pub, e.logger)
}

// seedWriter 创建一个已审核用户及其写手档案
func (e *testEnv) seedWriter(t *testing.T, name string, status model.WriterStatus, balance string) *model.Writer {
	t.Helper()
	u := &model.User{Name: name, Email: name + "@example.com", Role: model.RoleWriter, IsApproved: true, IsActive: true}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	w := &model.Writer{UserID: u.UserID, Status: status, BalanceUSD: decimal.RequireFromString(balance)}
	if err := e.writers.Create(context.Background(), w); err != nil {
		t.Fatalf("创建写手失败: %v", err)
	}
	return w
}

// seedShift 创建覆盖 testNow 的活动班次
func (e *testEnv) seedShift(t *testing.T, maxPages int) *model.Shift {
	t.Helper()
	start, end := model.ShiftWindow(testNow, 0, time.UTC)
	sh := &model.Shift{StartTime: start, EndTime: end, MaxPagesPerShift: maxPages, IsActive: true}
	if err := e.shifts.Create(context.Background(), sh); err != nil {
		t.Fatalf("创建班次失败: %v", err)
	}
	return sh
}

// seedOrder 直接写入一笔已指派订单
func (e *testEnv) seedOrder(t *testing.T, number string, writerID string, pages, cpp string) *model.Order {
	t.Helper()
	o := &model.Order{
		OrderNumber: number,
		Subject:     "测试订单",
		Deadline:    testNow.Add(48 * time.Hour),
		Pages:       decimal.RequireFromString(pages),
		CostPerPage: decimal.RequireFromString(cpp),
		Status:      model.OrderAssigned,
	}
	if writerID != "" {
		o.WriterID = &writerID
	}
	o.RecomputeTotal()
	if err := e.orders.Create(context.Background(), o); err != nil {
		t.Fatalf("创建订单失败: %v", err)
	}
	return o
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ── 事件记录 ──

type publishedEvent struct {
	RoutingKey string
	Event      interface{}
}

// recordingPublisher 记录已发布事件，供断言使用
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{RoutingKey: routingKey, Event: event})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(routingKey string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.RoutingKey == routingKey {
			n++
		}
	}
	return n
}
