package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"easypro/backend/internal/dto"
	"easypro/backend/internal/model"
	"easypro/backend/internal/repository"
)

func (e *testEnv) analyticsService() AnalyticsService {
	return NewAnalyticsService(e.cfg, e.repo, e.shiftService(), nil, e.logger)
}

func TestAdminDashboard(t *testing.T) {
	env := newTestEnv(t)
	env.seedShift(t, 20)
	w := env.seedWriter(t, "alice", model.WriterActive, "100")
	env.seedWriter(t, "bob", model.WriterSuspended, "0")
	o := env.seedOrder(t, "20260310001", w.WriterID, "10", "2")
	env.seedOrder(t, "20260310002", "", "5", "2")

	subs := env.submissionService()
	resp := submit(t, subs, o.OrderID, w.WriterID, "4")
	if _, err := subs.Review(context.Background(), resp.Submission.ID, &dto.ReviewSubmissionRequest{Status: "approved"}, "admin-1"); err != nil {
		t.Fatalf("审核失败: %v", err)
	}
	createPayment(t, env.paymentService(), w.WriterID, "50")

	got, err := env.analyticsService().AdminDashboard(context.Background())
	if err != nil {
		t.Fatalf("期望成功，实际: %v", err)
	}
	if got.OrdersByStatus["assigned"] != 1 || got.OrdersByStatus["in_progress"] != 1 {
		t.Errorf("订单统计不正确: %v", got.OrdersByStatus)
	}
	if got.SubmissionsByStatus["approved"] != 1 {
		t.Errorf("提交统计不正确: %v", got.SubmissionsByStatus)
	}
	if got.WritersByStatus["active"] != 1 || got.WritersByStatus["suspended"] != 1 {
		t.Errorf("写手统计不正确: %v", got.WritersByStatus)
	}
	// 100 + 8 入账 - 50 付款
	if !got.OutstandingBalance.Equal(dec("58")) {
		t.Errorf("期望未结余额 58，实际: %s", got.OutstandingBalance)
	}
	if pending := got.PaymentsByStatus["pending"]; pending.Count != 1 || !pending.Total.Equal(dec("50")) {
		t.Errorf("付款统计不正确: %+v", pending)
	}
	if !got.ShiftApprovedPages.Equal(dec("4")) {
		t.Errorf("期望本班次通过 4 页，实际: %s", got.ShiftApprovedPages)
	}
	if len(got.DailyEarnings) != 14 {
		t.Fatalf("趋势应补齐 14 天，实际: %d", len(got.DailyEarnings))
	}
	last := got.DailyEarnings[13]
	if last.Date != "2026-03-10" || !last.Amount.Equal(dec("8")) {
		t.Errorf("当天收入不正确: %+v", last)
	}
}

func TestAdminDashboard_QueryFailuresDegradeToZero(t *testing.T) {
	env := newTestEnv(t)
	env.seedShift(t, 20)
	env.orders.failAggs = true
	env.subs.failAggs = true
	env.payments.failAggs = true
	env.writers.failAggs = true

	got, err := env.analyticsService().AdminDashboard(context.Background())
	if err != nil {
		t.Fatalf("查询失败不应返回错误，实际: %v", err)
	}
	if len(got.OrdersByStatus) != 0 || len(got.PaymentsByStatus) != 0 {
		t.Error("失败的统计应返回空集合")
	}
	if !got.OutstandingBalance.IsZero() || !got.ShiftApprovedPages.IsZero() {
		t.Error("失败的汇总应返回 0")
	}
	if got.DailyEarnings == nil {
		t.Error("趋势应返回空数组而非 nil")
	}
	if got.CurrentShift == nil {
		t.Error("班次查询成功时应返回当前班次")
	}
}

func TestWriterDashboard(t *testing.T) {
	env := newTestEnv(t)
	env.seedShift(t, 20)
	w := env.seedWriter(t, "alice", model.WriterActive, "0")
	o := env.seedOrder(t, "20260310001", w.WriterID, "10", "2")
	submit(t, env.submissionService(), o.OrderID, w.WriterID, "5")

	got, err := env.analyticsService().WriterDashboard(context.Background(), w.WriterID)
	if err != nil {
		t.Fatalf("期望成功，实际: %v", err)
	}
	if got.Writer == nil || got.Writer.ID != w.WriterID {
		t.Error("应返回写手档案")
	}
	if got.Progress == nil || !got.Progress.PendingPages.Equal(dec("5")) {
		t.Errorf("进度不正确: %+v", got.Progress)
	}
	if got.SubmissionsByStatus["pending"] != 1 {
		t.Errorf("提交统计不正确: %v", got.SubmissionsByStatus)
	}

	if _, err := env.analyticsService().WriterDashboard(context.Background(), "missing"); !errors.Is(err, ErrWriterNotFound) {
		t.Errorf("期望 ErrWriterNotFound，实际: %v", err)
	}
}

func TestSumsToMap_LegacyStatuses(t *testing.T) {
	m := sumsToMap([]repository.StatusSum{
		{Status: "pending", Count: 1, Total: dec("10")},
		{Status: "pending_approval", Count: 2, Total: dec("5")},
		{Status: "paid", Count: 1, Total: dec("7")},
	})
	if p := m["pending"]; p.Count != 3 || !p.Total.Equal(dec("15")) {
		t.Errorf("历史取值应并入 pending，实际: %+v", p)
	}
	if _, ok := m["pending_approval"]; ok {
		t.Error("不应保留历史状态键")
	}
}

func TestFillDailyEarnings(t *testing.T) {
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []repository.DailyAmount{{Day: since.AddDate(0, 0, 1), Amount: dec("12"), Pages: dec("6")}}

	out := fillDailyEarnings(rows, since, 3)
	if len(out) != 3 {
		t.Fatalf("期望 3 天，实际: %d", len(out))
	}
	if !out[0].Amount.IsZero() || !out[1].Amount.Equal(dec("12")) || out[2].Date != "2026-03-03" {
		t.Errorf("补齐结果不正确: %+v", out)
	}
}
