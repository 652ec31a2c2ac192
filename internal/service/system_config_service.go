package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"easypro/backend/config"
	"easypro/backend/internal/dto"
	"easypro/backend/internal/model"
	"easypro/backend/internal/repository"
	pkgerrors "easypro/backend/pkg/errors"
)

// ── 系统配置模块业务错误 ──

var (
	ErrSystemConfigNotFound = pkgerrors.New(pkgerrors.ErrNotFound, "系统配置未初始化")
)

// SystemConfigService 系统配置业务接口
type SystemConfigService interface {
	Get(ctx context.Context) (*dto.SystemConfigResponse, error)
	Update(ctx context.Context, req *dto.UpdateSystemConfigRequest, callerID string) (*dto.SystemConfigResponse, error)
}

type systemConfigService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSystemConfigService 创建 SystemConfigService 实例
func NewSystemConfigService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) SystemConfigService {
	return &systemConfigService{cfg: cfg, repo: repo, logger: logger}
}

// ────────────────────── Get ──────────────────────

func (s *systemConfigService) Get(ctx context.Context) (*dto.SystemConfigResponse, error) {
	sc, err := s.repo.SystemConfig.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSystemConfigNotFound
		}
		s.logger.Error("查询系统配置失败", zap.Error(err))
		return nil, err
	}
	return toSystemConfigResponse(sc), nil
}

// ────────────────────── Update ──────────────────────

func (s *systemConfigService) Update(ctx context.Context, req *dto.UpdateSystemConfigRequest, callerID string) (*dto.SystemConfigResponse, error) {
	sc, err := s.repo.SystemConfig.Get(ctx)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询系统配置失败", zap.Error(err))
			return nil, err
		}
		// 首次写入：以配置文件默认值为基础
		sc = &model.SystemConfig{
			Singleton:       true,
			DefaultMaxPages: s.cfg.Shift.DefaultMaxPages,
			ProbationDays:   s.cfg.Penalty.ProbationDays,
			SuspensionDays:  s.cfg.Penalty.SuspensionDays,
		}
	}

	if req.DefaultMaxPages != nil {
		sc.DefaultMaxPages = *req.DefaultMaxPages
	}
	if req.ProbationDays != nil {
		sc.ProbationDays = *req.ProbationDays
	}
	if req.SuspensionDays != nil {
		sc.SuspensionDays = *req.SuspensionDays
	}
	sc.UpdatedBy = &callerID

	if err := s.repo.SystemConfig.Update(ctx, sc); err != nil {
		s.logger.Error("更新系统配置失败", zap.Error(err))
		return nil, err
	}

	return toSystemConfigResponse(sc), nil
}

func toSystemConfigResponse(sc *model.SystemConfig) *dto.SystemConfigResponse {
	return &dto.SystemConfigResponse{
		DefaultMaxPages: sc.DefaultMaxPages,
		ProbationDays:   sc.ProbationDays,
		SuspensionDays:  sc.SuspensionDays,
		UpdatedAt:       formatTime(sc.UpdatedAt),
	}
}

// ── 运行时设置 ──

// settings 生效中的业务参数：数据库配置优先，缺失时回退到配置文件
type settings struct {
	DefaultMaxPages int
	ProbationDays   int
	SuspensionDays  int
}

func loadSettings(ctx context.Context, cfg *config.Config, repo *repository.Repository, logger *zap.Logger) settings {
	st := settings{
		DefaultMaxPages: cfg.Shift.DefaultMaxPages,
		ProbationDays:   cfg.Penalty.ProbationDays,
		SuspensionDays:  cfg.Penalty.SuspensionDays,
	}
	sc, err := repo.SystemConfig.Get(ctx)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("读取系统配置失败，使用默认值", zap.Error(err))
		}
		return st
	}
	if sc.DefaultMaxPages > 0 {
		st.DefaultMaxPages = sc.DefaultMaxPages
	}
	if sc.ProbationDays > 0 {
		st.ProbationDays = sc.ProbationDays
	}
	if sc.SuspensionDays > 0 {
		st.SuspensionDays = sc.SuspensionDays
	}
	return st
}

// penaltyDays 处罚操作的默认时长
func (st settings) penaltyDays(action model.StatusAction) int {
	switch action {
	case model.ActionProbation:
		return st.ProbationDays
	case model.ActionSuspension:
		return st.SuspensionDays
	}
	return 0
}
