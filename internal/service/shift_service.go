package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"easypro/backend/config"
	"easypro/backend/internal/dto"
	"easypro/backend/internal/model"
	"easypro/backend/internal/repository"
	pkgerrors "easypro/backend/pkg/errors"
	"easypro/backend/pkg/queue"
	"easypro/backend/pkg/redis"
)

// ── 班次模块业务错误 ──

var (
	ErrNoActiveShift   = pkgerrors.New(pkgerrors.ErrInvalidState, "当前没有可用班次，暂不接受提交")
	ErrInvalidMaxPages = pkgerrors.New(pkgerrors.ErrInvalidInput, "班次页数配额必须大于 0")
)

const (
	rolloverLockTTL     = 5 * time.Minute
	maxCalendarDays     = 90
	defaultCalendarDays = 14
)

// ShiftService 班次时钟业务接口
type ShiftService interface {
	// GetCurrentShift 返回当前班次，缺失或过期时惰性换班
	GetCurrentShift(ctx context.Context) (*dto.ShiftResponse, error)
	// Current 同 GetCurrentShift，返回模型供其他 Service 使用
	Current(ctx context.Context) (*model.Shift, error)
	// CreateNewShift 无条件换班：停用旧班次、创建新班次、清零全部写手本班次计数
	CreateNewShift(ctx context.Context, maxPages *int) (*dto.ShiftResponse, error)
	// Rollover 定时任务入口，多实例下每个窗口只换班一次
	Rollover(ctx context.Context) error
	UpdateMaxPages(ctx context.Context, maxPages int) (*dto.ShiftResponse, error)
	List(ctx context.Context, req *dto.PaginationRequest) ([]dto.ShiftResponse, int64, error)
	CalendarICS(ctx context.Context, days int) ([]byte, error)
}

type shiftService struct {
	cfg    *config.Config
	repo   *repository.Repository
	rdb    *redis.Client
	pub    queue.Publisher
	logger *zap.Logger
}

// NewShiftService 创建 ShiftService 实例
func NewShiftService(
	cfg *config.Config,
	repo *repository.Repository,
	rdb *redis.Client,
	pub queue.Publisher,
	logger *zap.Logger,
) ShiftService {
	return &shiftService{cfg: cfg, repo: repo, rdb: rdb, pub: pub, logger: logger}
}

// ────────────────────── GetCurrentShift ──────────────────────

func (s *shiftService) GetCurrentShift(ctx context.Context) (*dto.ShiftResponse, error) {
	shift, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	return toShiftResponse(shift), nil
}

func (s *shiftService) Current(ctx context.Context) (*model.Shift, error) {
	now := nowFunc()

	shift, err := s.repo.Shift.GetActive(ctx)
	if err == nil && !shift.IsExpired(now) {
		return shift, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询活动班次失败", zap.Error(err))
		return nil, err
	}

	// 惰性换班：定时任务缺席时由读取方补上
	s.logger.Info("活动班次缺失或已过期，惰性换班")
	rolled, err := s.roll(ctx, now, nil, func(sh *model.Shift) bool { return !sh.IsExpired(now) })
	if err != nil {
		return nil, err
	}
	return rolled, nil
}

// ────────────────────── CreateNewShift ──────────────────────

func (s *shiftService) CreateNewShift(ctx context.Context, maxPages *int) (*dto.ShiftResponse, error) {
	if maxPages != nil && *maxPages <= 0 {
		return nil, ErrInvalidMaxPages
	}
	shift, err := s.roll(ctx, nowFunc(), maxPages, nil)
	if err != nil {
		return nil, err
	}
	return toShiftResponse(shift), nil
}

// ────────────────────── Rollover ──────────────────────

func (s *shiftService) Rollover(ctx context.Context) error {
	now := nowFunc()
	start, _ := model.ShiftWindow(now, s.cfg.Shift.BoundaryHour, s.cfg.Shift.Location())
	lockName := "shift:rollover:" + start.UTC().Format(time.RFC3339)

	token, err := s.rdb.AcquireLock(ctx, lockName, rolloverLockTTL)
	if err != nil {
		// Redis 不可用时退化为数据库行锁
		s.logger.Warn("获取换班锁失败，继续依赖数据库锁", zap.Error(err))
	} else if token == "" {
		s.logger.Info("换班已由其他实例执行", zap.Time("window_start", start))
		return nil
	}
	defer func() {
		if err := s.rdb.ReleaseLock(context.Background(), lockName, token); err != nil {
			s.logger.Warn("释放换班锁失败", zap.Error(err))
		}
	}()

	shift, err := s.roll(ctx, now, nil, func(sh *model.Shift) bool { return sh.StartTime.Equal(start) })
	if err != nil {
		s.logger.Error("定时换班失败", zap.Error(err))
		return err
	}
	s.logger.Info("定时换班完成", zap.String("shift_id", shift.ShiftID), zap.Time("start", shift.StartTime))
	return nil
}

// ────────────────────── UpdateMaxPages ──────────────────────

func (s *shiftService) UpdateMaxPages(ctx context.Context, maxPages int) (*dto.ShiftResponse, error) {
	if maxPages <= 0 {
		return nil, ErrInvalidMaxPages
	}

	shift, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	shift.MaxPagesPerShift = maxPages
	if err := s.repo.Shift.Update(ctx, shift); err != nil {
		s.logger.Error("更新班次配额失败", zap.String("shift_id", shift.ShiftID), zap.Error(err))
		return nil, err
	}
	return toShiftResponse(shift), nil
}

// ────────────────────── List ──────────────────────

func (s *shiftService) List(ctx context.Context, req *dto.PaginationRequest) ([]dto.ShiftResponse, int64, error) {
	shifts, total, err := s.repo.Shift.List(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出班次失败", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		list = append(list, *toShiftResponse(&shifts[i]))
	}
	return list, total, nil
}

// ────────────────────── CalendarICS ──────────────────────

func (s *shiftService) CalendarICS(ctx context.Context, days int) ([]byte, error) {
	if days <= 0 {
		days = defaultCalendarDays
	}
	if days > maxCalendarDays {
		days = maxCalendarDays
	}

	// 确保当前班次存在
	if _, err := s.Current(ctx); err != nil {
		return nil, err
	}

	since := nowFunc().AddDate(0, 0, -days)
	shifts, err := s.repo.Shift.ListSince(ctx, since)
	if err != nil {
		s.logger.Error("查询班次失败", zap.Error(err))
		return nil, err
	}
	return buildShiftCalendar(shifts, nowFunc()), nil
}

// ── 换班核心 ──

// roll 在单个事务内换班：锁定活动班次 → 停用 → 创建新班次 → 清零写手计数
// keep 非空时，若已有满足条件的活动班次则直接返回它（并发换班只生效一次）
func (s *shiftService) roll(ctx context.Context, now time.Time, maxPages *int, keep func(*model.Shift) bool) (*model.Shift, error) {
	st := loadSettings(ctx, s.cfg, s.repo, s.logger)
	limit := st.DefaultMaxPages
	if maxPages != nil {
		limit = *maxPages
	}
	start, end := model.ShiftWindow(now, s.cfg.Shift.BoundaryHour, s.cfg.Shift.Location())

	var (
		result *model.Shift
		reset  int64
		rolled bool
	)
	err := withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		active, err := txRepo.Shift.LockActive(ctx)
		if err != nil {
			s.logger.Error("锁定活动班次失败", zap.Error(err))
			return err
		}
		if keep != nil {
			for i := range active {
				if keep(&active[i]) {
					result = &active[i]
					return nil
				}
			}
		}

		if err := txRepo.Shift.ClearActive(ctx); err != nil {
			s.logger.Error("停用旧班次失败", zap.Error(err))
			return err
		}

		shift := &model.Shift{
			StartTime:        start.UTC(),
			EndTime:          end.UTC(),
			MaxPagesPerShift: limit,
			IsActive:         true,
		}
		if err := txRepo.Shift.Create(ctx, shift); err != nil {
			s.logger.Error("创建班次失败", zap.Error(err))
			return err
		}

		reset, err = txRepo.Writer.ResetAllShiftCounters(ctx)
		if err != nil {
			s.logger.Error("清零写手班次计数失败", zap.Error(err))
			return err
		}

		result = shift
		rolled = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if rolled {
		s.logger.Info("已开启新班次",
			zap.String("shift_id", result.ShiftID),
			zap.Time("start", result.StartTime),
			zap.Time("end", result.EndTime),
			zap.Int("max_pages", result.MaxPagesPerShift),
			zap.Int64("writers_reset", reset),
		)
		publish(ctx, s.pub, s.logger, queue.RoutingShiftRolled, queue.ShiftRolledEvent{
			ShiftID:          result.ShiftID,
			StartTime:        result.StartTime,
			EndTime:          result.EndTime,
			MaxPagesPerShift: result.MaxPagesPerShift,
			WritersReset:     reset,
		})
	}
	return result, nil
}

func toShiftResponse(sh *model.Shift) *dto.ShiftResponse {
	return &dto.ShiftResponse{
		ID:               sh.ShiftID,
		StartTime:        formatTime(sh.StartTime),
		EndTime:          formatTime(sh.EndTime),
		MaxPagesPerShift: sh.MaxPagesPerShift,
		IsActive:         sh.IsActive,
	}
}
