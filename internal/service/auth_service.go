package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"easypro/backend/config"
	"easypro/backend/internal/dto"
	"easypro/backend/internal/model"
	"easypro/backend/internal/repository"
	pkgerrors "easypro/backend/pkg/errors"
	"easypro/backend/pkg/jwt"
	"easypro/backend/pkg/redis"
)

// ── 认证模块业务错误 ──

var (
	ErrInvalidCredentials  = pkgerrors.New(pkgerrors.ErrInvalidInput, "邮箱或密码错误")
	ErrUserNotFound        = pkgerrors.New(pkgerrors.ErrNotFound, "用户不存在")
	ErrUserNotApproved     = pkgerrors.New(pkgerrors.ErrForbidden, "账号尚未通过审批")
	ErrUserInactive        = pkgerrors.New(pkgerrors.ErrForbidden, "账号已停用")
	ErrUserAlreadyApproved = pkgerrors.New(pkgerrors.ErrInvalidState, "账号已通过审批")
	ErrEmailExists         = pkgerrors.New(pkgerrors.ErrConflict, "该邮箱已注册")
	ErrInviteInvalid       = pkgerrors.New(pkgerrors.ErrInvalidInput, "邀请链接无效或已过期")
	ErrInvalidResetCode    = pkgerrors.New(pkgerrors.ErrInvalidInput, "验证码无效或已过期")
	ErrSessionRevoked      = pkgerrors.New(pkgerrors.ErrForbidden, "会话已失效，请重新登录")
	ErrRefreshTokenInvalid = pkgerrors.New(pkgerrors.ErrInvalidInput, "Refresh Token 无效")
)

// AuthService 认证与账户流程业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	Invite(ctx context.Context, req *dto.InviteWriterRequest, callerID string) (*dto.InviteResponse, error)
	ListPending(ctx context.Context, req *dto.PaginationRequest) ([]dto.UserResponse, int64, error)
	Approve(ctx context.Context, userID string) (*dto.UserResponse, error)
	Reject(ctx context.Context, userID string) error
	RequestPasswordReset(ctx context.Context, req *dto.RequestPasswordResetRequest) (*dto.PasswordResetCodeResponse, error)
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error
	Logout(ctx context.Context, userID, jti string, remaining time.Duration) error
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	GetMe(ctx context.Context, userID string) (*dto.UserResponse, error)
	CurrentTokenVersion(ctx context.Context, userID string) (int, error)
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	rdb    *redis.Client
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		rdb:    rdb,
		logger: logger,
	}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	if user.IsPlaceholder {
		return nil, ErrInvalidCredentials
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 账号状态
	if !user.IsApproved {
		return nil, ErrUserNotApproved
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 4. 生成 Token 对
	return s.issueTokens(user)
}

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.repo.User.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	var placeholder *model.User
	if req.InviteToken != "" {
		placeholder, err = s.repo.User.GetByInviteToken(ctx, req.InviteToken)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInviteInvalid
			}
			s.logger.Error("查询邀请失败", zap.Error(err))
			return nil, err
		}
		if placeholder.InviteExpiresAt == nil || nowFunc().After(*placeholder.InviteExpiresAt) ||
			!strings.EqualFold(placeholder.Email, email) {
			return nil, ErrInviteInvalid
		}
	} else if existing != nil {
		// 无邀请时邮箱不得已存在（包括邀请占位账号）
		return nil, ErrEmailExists
	}
	if existing != nil && !existing.IsPlaceholder {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleWriter,
		IsApproved:   placeholder != nil,
		IsActive:     true,
	}
	writer := &model.Writer{Status: model.WriterActive}

	err = withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		// 邀请注册：删除占位账号后创建正式账号
		if placeholder != nil {
			if err := txRepo.User.Delete(ctx, placeholder.UserID); err != nil {
				s.logger.Error("删除邀请占位账号失败", zap.String("user_id", placeholder.UserID), zap.Error(err))
				return err
			}
		}
		if err := txRepo.User.Create(ctx, user); err != nil {
			s.logger.Error("创建用户失败", zap.Error(err))
			return err
		}
		writer.UserID = user.UserID
		if err := txRepo.Writer.Create(ctx, writer); err != nil {
			s.logger.Error("创建写手档案失败", zap.String("user_id", user.UserID), zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	user.Writer = writer
	return toUserResponse(user), nil
}

// ────────────────────── Invite ──────────────────────

func (s *authService) Invite(ctx context.Context, req *dto.InviteWriterRequest, callerID string) (*dto.InviteResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.repo.User.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	if existing != nil && !existing.IsPlaceholder {
		return nil, ErrEmailExists
	}

	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	expiresAt := nowFunc().Add(s.cfg.Auth.InviteTTL)

	if existing != nil {
		// 重复邀请：刷新令牌与有效期
		existing.InviteToken = &token
		existing.InviteExpiresAt = &expiresAt
		if err := s.repo.User.Update(ctx, existing); err != nil {
			s.logger.Error("更新邀请失败", zap.String("email", email), zap.Error(err))
			return nil, err
		}
	} else {
		hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		name := req.Name
		if name == "" {
			name = email
		}
		placeholder := &model.User{
			Name:            name,
			Email:           email,
			PasswordHash:    string(hash),
			Role:            model.RoleWriter,
			IsActive:        true,
			IsPlaceholder:   true,
			InviteToken:     &token,
			InviteExpiresAt: &expiresAt,
		}
		if err := s.repo.User.Create(ctx, placeholder); err != nil {
			s.logger.Error("创建邀请占位账号失败", zap.String("email", email), zap.Error(err))
			return nil, err
		}
	}

	s.logger.Info("已发送写手邀请", zap.String("email", email), zap.String("invited_by", callerID))

	return &dto.InviteResponse{
		InviteToken: token,
		InviteURL:   fmt.Sprintf("%s/register?invite=%s", strings.TrimRight(s.cfg.Server.BaseURL, "/"), token),
		ExpiresAt:   formatTime(expiresAt),
	}, nil
}

// ────────────────────── ListPending ──────────────────────

func (s *authService) ListPending(ctx context.Context, req *dto.PaginationRequest) ([]dto.UserResponse, int64, error) {
	users, total, err := s.repo.User.ListPending(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询待审批用户失败", zap.Error(err))
		return nil, 0, err
	}
	list := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		list = append(list, *toUserResponse(&users[i]))
	}
	return list, total, nil
}

// ────────────────────── Approve / Reject ──────────────────────

func (s *authService) Approve(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.getRealUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsApproved {
		return nil, ErrUserAlreadyApproved
	}

	user.IsApproved = true
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("审批用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	// 兼容历史数据：写手缺少档案时补建
	if user.Role == model.RoleWriter && user.Writer == nil {
		writer := &model.Writer{UserID: user.UserID, Status: model.WriterActive}
		if err := s.repo.Writer.Create(ctx, writer); err != nil {
			s.logger.Error("补建写手档案失败", zap.String("user_id", userID), zap.Error(err))
			return nil, err
		}
		user.Writer = writer
	}

	return toUserResponse(user), nil
}

func (s *authService) Reject(ctx context.Context, userID string) error {
	user, err := s.getRealUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsApproved {
		return ErrUserAlreadyApproved
	}

	if err := s.repo.User.Delete(ctx, user.UserID); err != nil {
		s.logger.Error("删除被拒用户失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Password reset ──────────────────────

func (s *authService) RequestPasswordReset(ctx context.Context, req *dto.RequestPasswordResetRequest) (*dto.PasswordResetCodeResponse, error) {
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	if user.IsPlaceholder {
		return nil, ErrUserNotFound
	}

	code, err := generateResetCode()
	if err != nil {
		s.logger.Error("生成验证码失败", zap.Error(err))
		return nil, err
	}
	expiresAt := nowFunc().Add(s.cfg.Auth.ResetCodeTTL)
	user.ResetCode = &code
	user.ResetCodeExpiresAt = &expiresAt

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("保存验证码失败", zap.String("user_id", user.UserID), zap.Error(err))
		return nil, err
	}

	return &dto.PasswordResetCodeResponse{Code: code, ExpiresAt: formatTime(expiresAt)}, nil
}

func (s *authService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetCode
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return err
	}

	if user.ResetCode == nil || user.ResetCodeExpiresAt == nil ||
		nowFunc().After(*user.ResetCodeExpiresAt) ||
		subtle.ConstantTimeCompare([]byte(*user.ResetCode), []byte(req.Code)) != 1 {
		return ErrInvalidResetCode
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return err
	}

	user.PasswordHash = string(hash)
	user.ResetCode = nil
	user.ResetCodeExpiresAt = nil
	user.TokenVersion++

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("重置密码失败", zap.String("user_id", user.UserID), zap.Error(err))
		return err
	}
	s.invalidateSessions(ctx, user.UserID)
	return nil
}

// ────────────────────── Logout ──────────────────────

// Logout 使该用户所有会话失效，并拉黑当前 Access Token
func (s *authService) Logout(ctx context.Context, userID, jti string, remaining time.Duration) error {
	if err := s.repo.User.IncrementTokenVersion(ctx, userID); err != nil {
		s.logger.Error("递增 token_version 失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	s.invalidateSessions(ctx, userID)

	if err := s.rdb.BlacklistToken(ctx, jti, remaining); err != nil {
		s.logger.Warn("拉黑 Token 失败", zap.String("jti", jti), zap.Error(err))
	}
	return nil
}

// ────────────────────── RefreshToken ──────────────────────

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrRefreshTokenInvalid
	}

	user, err := s.getRealUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsApproved {
		return nil, ErrUserNotApproved
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if claims.TokenVersion != user.TokenVersion {
		return nil, ErrSessionRevoked
	}

	return s.issueTokens(user)
}

// ────────────────────── GetMe ──────────────────────

func (s *authService) GetMe(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.getRealUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// ────────────────────── CurrentTokenVersion ──────────────────────

// CurrentTokenVersion 供鉴权中间件比对会话版本：先查 Redis，未命中回源数据库
func (s *authService) CurrentTokenVersion(ctx context.Context, userID string) (int, error) {
	if v, err := s.rdb.GetTokenVersion(ctx, userID); err == nil {
		return v, nil
	} else if !errors.Is(err, redis.ErrCacheMiss) {
		s.logger.Warn("读取 token_version 缓存失败", zap.String("user_id", userID), zap.Error(err))
	}

	v, err := s.repo.User.GetTokenVersion(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}

	if err := s.rdb.SetTokenVersion(ctx, userID, v, s.cfg.Auth.AccessTokenTTL); err != nil {
		s.logger.Warn("写入 token_version 缓存失败", zap.String("user_id", userID), zap.Error(err))
	}
	return v, nil
}

// ── 内部方法 ──

func (s *authService) getRealUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if user.IsPlaceholder {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *authService) issueTokens(user *model.User) (*dto.TokenResponse, error) {
	sub := jwt.Subject{
		UserID:       user.UserID,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	}
	if user.Writer != nil {
		sub.WriterID = user.Writer.WriterID
	}

	accessToken, err := s.jwtMgr.GenerateAccessToken(sub)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(sub)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.cfg.Auth.AccessTokenTTL.Seconds()),
		User:         *toUserResponse(user),
	}, nil
}

func (s *authService) invalidateSessions(ctx context.Context, userID string) {
	syncTokenVersion(ctx, s.repo, s.rdb, s.cfg.Auth.AccessTokenTTL, s.logger, userID)
}

// generateResetCode 6 位数字一次性验证码
func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func toUserResponse(u *model.User) *dto.UserResponse {
	resp := &dto.UserResponse{
		ID:         u.UserID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		IsApproved: u.IsApproved,
		CreatedAt:  formatTime(u.CreatedAt),
	}
	if u.Writer != nil {
		resp.WriterID = u.Writer.WriterID
	}
	return resp
}
