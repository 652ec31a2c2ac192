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

// ── 写手模块业务错误 ──

var (
	ErrWriterNotFound         = pkgerrors.New(pkgerrors.ErrNotFound, "写手不存在")
	ErrInvalidStatusAction    = pkgerrors.New(pkgerrors.ErrInvalidInput, "无效的状态操作")
	ErrWriterAlreadyActive    = pkgerrors.New(pkgerrors.ErrInvalidState, "写手已处于正常状态")
	ErrWriterStatusTransition = pkgerrors.New(pkgerrors.ErrInvalidState, "写手当前状态不允许该操作")
)

// penaltyAutoReleaseReason 处罚到期自动恢复时写入日志的原因
const penaltyAutoReleaseReason = "处罚到期自动恢复"

// WriterService 写手管理业务接口
type WriterService interface {
	List(ctx context.Context, req *dto.WriterListRequest) ([]dto.WriterResponse, int64, error)
	Get(ctx context.Context, writerID string) (*dto.WriterResponse, error)
	GetByUserID(ctx context.Context, userID string) (*dto.WriterResponse, error)
	ChangeStatus(ctx context.Context, writerID string, req *dto.ChangeWriterStatusRequest, callerID string) (*dto.WriterResponse, error)
	ListStatusLogs(ctx context.Context, writerID string, req *dto.PaginationRequest) ([]dto.WriterStatusLogResponse, int64, error)
	ExpirePenalties(ctx context.Context, now time.Time) (int, error)
}

type writerService struct {
	cfg    *config.Config
	repo   *repository.Repository
	rdb    *redis.Client
	pub    queue.Publisher
	logger *zap.Logger
}

// NewWriterService 创建 WriterService 实例
func NewWriterService(
	cfg *config.Config,
	repo *repository.Repository,
	rdb *redis.Client,
	pub queue.Publisher,
	logger *zap.Logger,
) WriterService {
	return &writerService{cfg: cfg, repo: repo, rdb: rdb, pub: pub, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *writerService) List(ctx context.Context, req *dto.WriterListRequest) ([]dto.WriterResponse, int64, error) {
	writers, total, err := s.repo.Writer.List(ctx, repository.WriterFilter{
		Status:  req.Status,
		Keyword: req.Keyword,
		Offset:  req.GetOffset(),
		Limit:   req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("列出写手失败", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.WriterResponse, 0, len(writers))
	for i := range writers {
		list = append(list, *toWriterResponse(&writers[i]))
	}
	return list, total, nil
}

// ────────────────────── Get ──────────────────────

func (s *writerService) Get(ctx context.Context, writerID string) (*dto.WriterResponse, error) {
	writer, err := getWriter(ctx, s.repo, s.logger, writerID)
	if err != nil {
		return nil, err
	}
	return toWriterResponse(writer), nil
}

func (s *writerService) GetByUserID(ctx context.Context, userID string) (*dto.WriterResponse, error) {
	writer, err := s.repo.Writer.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWriterNotFound
		}
		s.logger.Error("查询写手失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toWriterResponse(writer), nil
}

// ────────────────────── ChangeStatus ──────────────────────

// ChangeStatus 管理员变更写手状态
// warning 仅记录日志；probation / suspension 设置到期时间；suspension 使该写手所有会话失效
func (s *writerService) ChangeStatus(ctx context.Context, writerID string, req *dto.ChangeWriterStatusRequest, callerID string) (*dto.WriterResponse, error) {
	action := model.StatusAction(req.Action)
	if !action.Valid() {
		return nil, ErrInvalidStatusAction
	}

	st := loadSettings(ctx, s.cfg, s.repo, s.logger)
	now := nowFunc()

	var (
		writer *model.Writer
		entry  *model.WriterStatusLog
	)
	err := withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		w, err := txRepo.Writer.GetByIDForUpdate(ctx, writerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWriterNotFound
			}
			s.logger.Error("锁定写手失败", zap.String("writer_id", writerID), zap.Error(err))
			return err
		}

		if action == model.ActionActivation && w.Status == model.WriterActive {
			return ErrWriterAlreadyActive
		}

		entry, err = applyStatusAction(ctx, txRepo, st, w, statusChange{
			Action:       action,
			Reason:       req.Reason,
			DurationDays: req.DurationDays,
			AdminID:      &callerID,
			Now:          now,
		})
		if err != nil {
			return err
		}

		// 停职立即踢下线
		if w.Status == model.WriterSuspended && entry.PreviousStatus != model.WriterSuspended {
			if err := txRepo.User.IncrementTokenVersion(ctx, w.UserID); err != nil {
				s.logger.Error("递增 token_version 失败", zap.String("user_id", w.UserID), zap.Error(err))
				return err
			}
		}
		writer = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	if writer.Status == model.WriterSuspended {
		syncTokenVersion(ctx, s.repo, s.rdb, s.cfg.Auth.AccessTokenTTL, s.logger, writer.UserID)
	}
	publishStatusChange(ctx, s.pub, s.logger, entry)

	s.logger.Info("写手状态已变更",
		zap.String("writer_id", writerID),
		zap.String("action", string(action)),
		zap.String("previous", string(entry.PreviousStatus)),
		zap.String("new", string(entry.NewStatus)),
		zap.String("admin_id", callerID),
	)

	return s.Get(ctx, writerID)
}

// ────────────────────── ListStatusLogs ──────────────────────

func (s *writerService) ListStatusLogs(ctx context.Context, writerID string, req *dto.PaginationRequest) ([]dto.WriterStatusLogResponse, int64, error) {
	if _, err := getWriter(ctx, s.repo, s.logger, writerID); err != nil {
		return nil, 0, err
	}

	logs, total, err := s.repo.WriterStatusLog.ListByWriter(ctx, writerID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询写手状态日志失败", zap.String("writer_id", writerID), zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.WriterStatusLogResponse, 0, len(logs))
	for i := range logs {
		list = append(list, toWriterStatusLogResponse(&logs[i]))
	}
	return list, total, nil
}

// ────────────────────── ExpirePenalties ──────────────────────

// ExpirePenalties 将处罚已到期的写手恢复为 active，返回恢复人数
func (s *writerService) ExpirePenalties(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.repo.Writer.ListExpiredPenalties(ctx, now)
	if err != nil {
		s.logger.Error("查询到期处罚失败", zap.Error(err))
		return 0, err
	}

	released := 0
	for _, c := range candidates {
		var entry *model.WriterStatusLog
		err := withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
			w, err := txRepo.Writer.GetByIDForUpdate(ctx, c.WriterID)
			if err != nil {
				return err
			}
			// 加锁后复核：期间可能已被管理员处理
			if w.Status == model.WriterActive || w.StatusExpiresAt == nil || w.StatusExpiresAt.After(now) {
				return nil
			}
			entry, err = applyStatusAction(ctx, txRepo, settings{}, w, statusChange{
				Action: model.ActionActivation,
				Reason: penaltyAutoReleaseReason,
				Now:    now,
			})
			return err
		})
		if err != nil {
			s.logger.Warn("处罚到期恢复失败", zap.String("writer_id", c.WriterID), zap.Error(err))
			continue
		}
		if entry != nil {
			released++
			publishStatusChange(ctx, s.pub, s.logger, entry)
		}
	}

	if released > 0 {
		s.logger.Info("处罚到期写手已恢复", zap.Int("count", released))
	}
	return released, nil
}

// ── 状态变更核心 ──

// statusChange 一次写手状态操作的输入
type statusChange struct {
	Action       model.StatusAction
	Reason       string
	DurationDays *int
	AdminID      *string // nil 表示系统操作
	Now          time.Time
	EscalateOnly bool // 只允许加重处罚（取消订单连带处罚）
}

// applyStatusAction 在事务内修改已加锁的写手状态并追加状态日志
func applyStatusAction(ctx context.Context, txRepo *repository.Repository, st settings, w *model.Writer, c statusChange) (*model.WriterStatusLog, error) {
	previous := w.Status
	target := c.Action.TargetStatus(previous)
	if c.EscalateOnly {
		target = model.MoreSevere(previous, target)
	}

	if c.Action != model.ActionWarning && target != previous && !previous.CanTransitionTo(target) {
		return nil, ErrWriterStatusTransition
	}

	entry := &model.WriterStatusLog{
		WriterID:       w.WriterID,
		PreviousStatus: previous,
		NewStatus:      target,
		Action:         c.Action,
		Reason:         c.Reason,
		AdminID:        c.AdminID,
		CreatedAt:      c.Now,
	}

	switch c.Action {
	case model.ActionProbation, model.ActionSuspension:
		days := st.penaltyDays(c.Action)
		if c.DurationDays != nil && *c.DurationDays > 0 {
			days = *c.DurationDays
		}
		expiresAt := c.Now.AddDate(0, 0, days)
		entry.DurationDays = &days

		// 连带处罚不缩短已有的更长处罚
		apply := !c.EscalateOnly
		if c.EscalateOnly && target == c.Action.TargetStatus(previous) {
			apply = target != previous || w.StatusExpiresAt == nil || expiresAt.After(*w.StatusExpiresAt)
		}
		if apply {
			w.StatusExpiresAt = &expiresAt
		}
		if w.StatusExpiresAt != nil {
			e := *w.StatusExpiresAt
			entry.ExpiresAt = &e
		}
	case model.ActionActivation:
		w.StatusExpiresAt = nil
	}
	w.Status = target

	if err := txRepo.Writer.Update(ctx, w); err != nil {
		return nil, err
	}
	if err := txRepo.WriterStatusLog.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ── 内部辅助 ──

func getWriter(ctx context.Context, repo *repository.Repository, logger *zap.Logger, writerID string) (*model.Writer, error) {
	writer, err := repo.Writer.GetByID(ctx, writerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWriterNotFound
		}
		logger.Error("查询写手失败", zap.String("writer_id", writerID), zap.Error(err))
		return nil, err
	}
	return writer, nil
}

// syncTokenVersion token_version 递增后将数据库中的新版本写入缓存
// 缓存只升不降，并发回源的旧值无法覆盖；写入失败时退化为删除缓存
func syncTokenVersion(ctx context.Context, repo *repository.Repository, rdb *redis.Client, ttl time.Duration, logger *zap.Logger, userID string) {
	v, err := repo.User.GetTokenVersion(ctx, userID)
	if err == nil {
		err = rdb.SetTokenVersion(ctx, userID, v, ttl)
	}
	if err == nil {
		return
	}
	logger.Warn("同步 token_version 缓存失败，改为清除", zap.String("user_id", userID), zap.Error(err))
	if err := rdb.InvalidateTokenVersion(ctx, userID); err != nil {
		logger.Warn("清除 token_version 缓存失败", zap.String("user_id", userID), zap.Error(err))
	}
}

func publishStatusChange(ctx context.Context, pub queue.Publisher, logger *zap.Logger, entry *model.WriterStatusLog) {
	if entry == nil {
		return
	}
	publish(ctx, pub, logger, queue.RoutingWriterStatusChanged, queue.WriterStatusChangedEvent{
		WriterID:       entry.WriterID,
		PreviousStatus: string(entry.PreviousStatus),
		NewStatus:      string(entry.NewStatus),
		Action:         string(entry.Action),
		ExpiresAt:      entry.ExpiresAt,
		OccurredAt:     entry.CreatedAt,
	})
}

func toWriterResponse(w *model.Writer) *dto.WriterResponse {
	resp := &dto.WriterResponse{
		ID:                   w.WriterID,
		UserID:               w.UserID,
		Status:               string(w.Status),
		StatusExpiresAt:      formatTimePtr(w.StatusExpiresAt),
		BalanceUSD:           w.BalanceUSD,
		LifetimeEarnings:     w.LifetimeEarnings,
		TotalPagesCompleted:  w.TotalPagesCompleted,
		TotalOrdersCompleted: w.TotalOrdersCompleted,
		CurrentShiftPages:    w.CurrentShiftPages,
		CurrentShiftOrders:   w.CurrentShiftOrders,
		LastSubmissionDate:   formatTimePtr(w.LastSubmissionDate),
		CreatedAt:            formatTime(w.CreatedAt),
	}
	if w.User != nil {
		resp.Name = w.User.Name
		resp.Email = w.User.Email
	}
	return resp
}

func toWriterStatusLogResponse(l *model.WriterStatusLog) dto.WriterStatusLogResponse {
	return dto.WriterStatusLogResponse{
		ID:             l.LogID,
		PreviousStatus: string(l.PreviousStatus),
		NewStatus:      string(l.NewStatus),
		Action:         string(l.Action),
		Reason:         l.Reason,
		AdminID:        derefString(l.AdminID),
		DurationDays:   l.DurationDays,
		ExpiresAt:      formatTimePtr(l.ExpiresAt),
		CreatedAt:      formatTime(l.CreatedAt),
	}
}
