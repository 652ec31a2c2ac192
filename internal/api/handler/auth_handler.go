package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"easypro/backend/config"
	"easypro/backend/internal/dto"
	"easypro/backend/internal/service"
	"easypro/backend/pkg/response"
)

const refreshCookieName = "refresh_token"

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
	cfg     *config.AuthConfig
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService, cfg *config.AuthConfig) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, cfg: cfg}
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	response.OK(c, result)
}

// Register 注册；携带有效邀请令牌时直接通过审批
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	user, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.Created(c, user)
}

// RefreshToken 刷新 Token
// POST /api/v1/auth/refresh
// refresh_token 优先取请求体，其次取 Cookie
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		cookie, cerr := c.Cookie(refreshCookieName)
		if cerr != nil || cookie == "" {
			response.BadRequest(c, 10001, "缺少 refresh_token")
			return
		}
		req.RefreshToken = cookie
	}

	result, err := h.authSvc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	response.OK(c, result)
}

// Logout 登出：递增 token_version 并拉黑当前 Access Token
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), userID, c.GetString("token_jti"), tokenRemaining(c)); err != nil {
		h.handleAuthError(c, err)
		return
	}

	c.SetCookie(refreshCookieName, "", -1, "/api/v1/auth", "", c.Request.TLS != nil, true)
	response.OK(c, nil)
}

// GetMe 当前登录用户
// GET /api/v1/auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.GetMe(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, user)
}

// RequestPasswordReset 申请重置密码验证码
// POST /api/v1/auth/password-reset
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req dto.RequestPasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.RequestPasswordReset(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// ResetPassword 使用验证码重置密码
// POST /api/v1/auth/password-reset/confirm
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.authSvc.ResetPassword(c.Request.Context(), &req); err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, nil)
}

// Invite 邀请写手
// POST /api/v1/auth/invite
func (h *AuthHandler) Invite(c *gin.Context) {
	var req dto.InviteWriterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.authSvc.Invite(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.Created(c, result)
}

// ListPending 待审批注册列表
// GET /api/v1/auth/pending
func (h *AuthHandler) ListPending(c *gin.Context) {
	var req dto.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.authSvc.ListPending(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Approve 通过注册申请
// POST /api/v1/auth/pending/:id/approve
func (h *AuthHandler) Approve(c *gin.Context) {
	user, err := h.authSvc.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, user)
}

// Reject 驳回并删除注册申请
// DELETE /api/v1/auth/pending/:id
func (h *AuthHandler) Reject(c *gin.Context) {
	if err := h.authSvc.Reject(c.Request.Context(), c.Param("id")); err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	maxAge := 0
	if h.cfg != nil {
		maxAge = int(h.cfg.RefreshTokenTTL.Seconds())
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, token, maxAge, "/api/v1/auth", "", c.Request.TLS != nil, true)
}

// handleAuthError 统一处理认证模块业务错误
func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, 11001, "邮箱或密码错误")
	case errors.Is(err, service.ErrUserNotApproved):
		response.Forbidden(c, 11002, "账号尚未通过审批")
	case errors.Is(err, service.ErrUserInactive):
		response.Forbidden(c, 11003, "账号已停用")
	case errors.Is(err, service.ErrRefreshTokenInvalid), errors.Is(err, service.ErrSessionRevoked):
		response.Error(c, http.StatusUnauthorized, 11004, "登录已失效，请重新登录")
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, 11005, "该邮箱已注册")
	case errors.Is(err, service.ErrInviteInvalid):
		response.BadRequest(c, 11006, "邀请链接无效或已过期")
	case errors.Is(err, service.ErrInvalidResetCode):
		response.BadRequest(c, 11007, "验证码无效或已过期")
	case errors.Is(err, service.ErrUserAlreadyApproved):
		response.Conflict(c, 11008, "账号已通过审批")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11009, "用户不存在")
	default:
		response.FromError(c, err)
	}
}
