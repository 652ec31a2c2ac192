package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"easypro/backend/config"
	"easypro/backend/internal/dto"
	"easypro/backend/internal/model"
	"easypro/backend/internal/repository"
	"easypro/backend/pkg/redis"
)

// 看板缓存键
const (
	adminDashboardCacheKey   = "analytics:admin"
	writerDashboardKeyPrefix = "analytics:writer:"
)

// AnalyticsService 报表看板业务接口（只读）
// 任一查询失败时对应字段返回零值并记录告警，不向调用方返回错误
type AnalyticsService interface {
	AdminDashboard(ctx context.Context) (*dto.AdminDashboardResponse, error)
	WriterDashboard(ctx context.Context, writerID string) (*dto.WriterDashboardResponse, error)
}

type analyticsService struct {
	cfg    *config.Config
	repo   *repository.Repository
	shift  ShiftService
	rdb    *redis.Client
	logger *zap.Logger
}

// NewAnalyticsService 创建 AnalyticsService 实例
func NewAnalyticsService(
	cfg *config.Config,
	repo *repository.Repository,
	shift ShiftService,
	rdb *redis.Client,
	logger *zap.Logger,
) AnalyticsService {
	return &analyticsService{cfg: cfg, repo: repo, shift: shift, rdb: rdb, logger: logger}
}

// ────────────────────── AdminDashboard ──────────────────────

func (s *analyticsService) AdminDashboard(ctx context.Context) (*dto.AdminDashboardResponse, error) {
	var cached dto.AdminDashboardResponse
	if s.fromCache(ctx, adminDashboardCacheKey, &cached) {
		return &cached, nil
	}

	resp := &dto.AdminDashboardResponse{
		OrdersByStatus:      map[string]int64{},
		SubmissionsByStatus: map[string]int64{},
		PaymentsByStatus:    map[string]dto.AmountSummary{},
		WritersByStatus:     map[string]int64{},
		OutstandingBalance:  decimal.Zero,
		ShiftApprovedPages:  decimal.Zero,
		DailyEarnings:       []dto.DailyEarning{},
	}

	if rows, err := s.repo.Order.CountByStatus(ctx); err != nil {
		s.warn("订单状态统计", err)
	} else {
		resp.OrdersByStatus = countsToMap(rows)
	}

	if rows, err := s.repo.Submission.CountByStatus(ctx, ""); err != nil {
		s.warn("提交状态统计", err)
	} else {
		resp.SubmissionsByStatus = countsToMap(rows)
	}

	if rows, err := s.repo.Payment.SumByStatus(ctx, ""); err != nil {
		s.warn("付款状态统计", err)
	} else {
		resp.PaymentsByStatus = sumsToMap(rows)
	}

	if rows, err := s.repo.Writer.CountByStatus(ctx); err != nil {
		s.warn("写手状态统计", err)
	} else {
		resp.WritersByStatus = countsToMap(rows)
	}

	if total, err := s.repo.Writer.SumBalance(ctx); err != nil {
		s.warn("未结余额统计", err)
	} else {
		resp.OutstandingBalance = total
	}

	if shift, err := s.shift.Current(ctx); err != nil {
		s.warn("当前班次", err)
	} else {
		resp.CurrentShift = toShiftResponse(shift)
		if pages, err := s.repo.Submission.SumApprovedPagesSince(ctx, shift.StartTime); err != nil {
			s.warn("本班次通过页数", err)
		} else {
			resp.ShiftApprovedPages = pages
		}
	}

	since := trendStart(nowFunc(), s.trendDays())
	if rows, err := s.repo.Submission.DailyApproved(ctx, since); err != nil {
		s.warn("每日收入趋势", err)
	} else {
		resp.DailyEarnings = fillDailyEarnings(rows, since, s.trendDays())
	}

	s.toCache(ctx, adminDashboardCacheKey, resp)
	return resp, nil
}

// ────────────────────── WriterDashboard ──────────────────────

func (s *analyticsService) WriterDashboard(ctx context.Context, writerID string) (*dto.WriterDashboardResponse, error) {
	// 写手不存在属于调用错误，不做零值降级
	writer, err := getWriter(ctx, s.repo, s.logger, writerID)
	if err != nil {
		return nil, err
	}

	key := writerDashboardKeyPrefix + writerID
	var cached dto.WriterDashboardResponse
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	resp := &dto.WriterDashboardResponse{
		Writer:              toWriterResponse(writer),
		SubmissionsByStatus: map[string]int64{},
		PaymentsByStatus:    map[string]dto.AmountSummary{},
	}

	if shift, err := s.shift.Current(ctx); err != nil {
		s.warn("当前班次", err)
	} else if sums, err := s.repo.Submission.SumPagesByWriterSince(ctx, writerID, shift.StartTime); err != nil {
		s.warn("写手本班次进度", err)
	} else {
		resp.Progress = buildProgress(writerID, shift, sums)
	}

	if rows, err := s.repo.Submission.CountByStatus(ctx, writerID); err != nil {
		s.warn("写手提交统计", err)
	} else {
		resp.SubmissionsByStatus = countsToMap(rows)
	}

	if rows, err := s.repo.Payment.SumByStatus(ctx, writerID); err != nil {
		s.warn("写手付款统计", err)
	} else {
		resp.PaymentsByStatus = sumsToMap(rows)
	}

	s.toCache(ctx, key, resp)
	return resp, nil
}

// ── 内部方法 ──

func (s *analyticsService) warn(what string, err error) {
	s.logger.Warn("报表查询失败，返回零值", zap.String("query", what), zap.Error(err))
}

func (s *analyticsService) trendDays() int {
	if s.cfg.Analytics.TrendDays <= 0 {
		return 14
	}
	return s.cfg.Analytics.TrendDays
}

func (s *analyticsService) fromCache(ctx context.Context, key string, dst interface{}) bool {
	if s.cfg.Analytics.CacheTTL <= 0 {
		return false
	}
	if err := s.rdb.GetJSON(ctx, key, dst); err != nil {
		return false
	}
	return true
}

func (s *analyticsService) toCache(ctx context.Context, key string, val interface{}) {
	if s.cfg.Analytics.CacheTTL <= 0 {
		return
	}
	if err := s.rdb.SetJSON(ctx, key, val, s.cfg.Analytics.CacheTTL); err != nil {
		s.logger.Warn("写入看板缓存失败", zap.String("key", key), zap.Error(err))
	}
}

func countsToMap(rows []repository.StatusCount) map[string]int64 {
	m := make(map[string]int64, len(rows))
	for _, r := range rows {
		m[r.Status] += r.Count
	}
	return m
}

// sumsToMap 按状态汇总付款；历史遗留的待处理取值并入 pending
func sumsToMap(rows []repository.StatusSum) map[string]dto.AmountSummary {
	m := make(map[string]dto.AmountSummary, len(rows))
	for _, r := range rows {
		key := r.Status
		if status, ok := model.ParsePaymentStatus(r.Status); ok {
			key = string(status)
		}
		cur := m[key]
		cur.Count += r.Count
		cur.Total = cur.Total.Add(r.Total)
		m[key] = cur
	}
	return m
}

// trendStart 趋势起始日（UTC 零点）
func trendStart(now time.Time, days int) time.Time {
	d := now.UTC().AddDate(0, 0, -(days - 1))
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// fillDailyEarnings 补齐无数据的日期，保证返回连续 days 天
func fillDailyEarnings(rows []repository.DailyAmount, since time.Time, days int) []dto.DailyEarning {
	byDay := make(map[string]repository.DailyAmount, len(rows))
	for _, r := range rows {
		byDay[r.Day.UTC().Format("2006-01-02")] = r
	}

	out := make([]dto.DailyEarning, 0, days)
	for i := 0; i < days; i++ {
		day := since.AddDate(0, 0, i).Format("2006-01-02")
		e := dto.DailyEarning{Date: day, Amount: decimal.Zero, Pages: decimal.Zero}
		if r, ok := byDay[day]; ok {
			e.Amount = r.Amount
			e.Pages = r.Pages
		}
		out = append(out, e)
	}
	return out
}
