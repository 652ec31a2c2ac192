package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"easypro/backend/config"
	"easypro/backend/internal/repository"
	"easypro/backend/pkg/jwt"
	"easypro/backend/pkg/queue"
	"easypro/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	Writer       WriterService
	Shift        ShiftService
	Order        OrderService
	Submission   SubmissionService
	Payment      PaymentService
	Analytics    AnalyticsService
	Export       ExportService
	SystemConfig SystemConfigService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	pub queue.Publisher,
	logger *zap.Logger,
) *Service {
	shift := NewShiftService(cfg, repo, rdb, pub, logger)
	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		Writer:       NewWriterService(cfg, repo, rdb, pub, logger),
		Shift:        shift,
		Order:        NewOrderService(cfg, repo, rdb, pub, logger),
		Submission:   NewSubmissionService(repo, shift, pub, logger),
		Payment:      NewPaymentService(repo, pub, logger),
		Analytics:    NewAnalyticsService(cfg, repo, shift, rdb, logger),
		Export:       NewExportService(repo, logger),
		SystemConfig: NewSystemConfigService(cfg, repo, logger),
	}
}

// nowFunc 当前时间，测试中可替换
var nowFunc = func() time.Time { return time.Now().UTC() }

// ── 数值辅助 ──

// roundPositive 按两位小数（数据库列精度）取整，取整后仍须大于 0
func roundPositive(d decimal.Decimal) (decimal.Decimal, bool) {
	r := d.Round(2)
	return r, r.IsPositive()
}

// ── 事务辅助 ──

// withTx 在单个数据库事务中执行 fn
// 单元测试中 BeginTx 返回 nil 事务，fn 直接作用于 mock 仓储
//
// 行锁顺序（所有写事务须遵守）：
//
//	submission → order → writer → user
//	payment → writer
//
// 换班事务先锁 shifts 再批量更新 writers，其余事务不持有 writers 锁去等 shifts。
func withTx(ctx context.Context, repo *repository.Repository, logger *zap.Logger, fn func(txRepo *repository.Repository) error) error {
	tx, err := repo.BeginTx(ctx)
	if err != nil {
		logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	if err := fn(repo.WithTx(tx)); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}
	return nil
}

// publish 事务提交后发布事件，失败只记录日志
func publish(ctx context.Context, pub queue.Publisher, logger *zap.Logger, routingKey string, event interface{}) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, routingKey, event); err != nil {
		logger.Warn("发布事件失败", zap.String("routing_key", routingKey), zap.Error(err))
	}
}

// ── 格式化辅助 ──

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
