package service

import (
	"context"
	"slices"
	"testing"

	"easypro/backend/internal/dto"
	"easypro/backend/internal/model"
)

// ────────────────────── 行锁顺序 ──────────────────────

// 所有写事务按 提交 → 订单 → 写手 与 付款 → 写手 的顺序加行锁
func TestRowLockOrder(t *testing.T) {
	env := newTestEnv(t)
	env.seedShift(t, 20)
	w := env.seedWriter(t, "alice", model.WriterActive, "100")
	o := env.seedOrder(t, "20260310001", w.WriterID, "10", "2")
	subs := env.submissionService()
	ctx := context.Background()

	assertLocks := func(op string, want ...string) {
		t.Helper()
		if !slices.Equal(env.locks.seq, want) {
			t.Errorf("%s 期望加锁顺序 %v，实际: %v", op, want, env.locks.seq)
		}
		env.locks.reset()
	}

	env.locks.reset()
	resp := submit(t, subs, o.OrderID, w.WriterID, "4")
	assertLocks("创建提交", "order", "writer")

	if _, err := subs.Review(ctx, resp.Submission.ID, &dto.ReviewSubmissionRequest{Status: "approved"}, "admin-1"); err != nil {
		t.Fatalf("审核失败: %v", err)
	}
	assertLocks("审核通过", "submission", "order", "writer")

	payments := env.paymentService()
	p := createPayment(t, payments, w.WriterID, "10")
	assertLocks("创建付款", "writer")

	if _, err := payments.MarkAsFailed(ctx, p.ID, &dto.MarkPaymentFailedRequest{Reason: "账户信息错误"}, "admin-1"); err != nil {
		t.Fatalf("标记付款失败出错: %v", err)
	}
	assertLocks("付款失败退款", "payment", "writer")

	if _, err := env.orderService().CancelOrder(ctx, o.OrderID, &dto.CancelOrderRequest{
		Reason:      "逾期",
		Consequence: string(model.ActionWarning),
	}, "admin-1"); err != nil {
		t.Fatalf("取消订单失败: %v", err)
	}
	assertLocks("取消订单", "order", "writer")
}
