package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest 注册请求；携带邀请令牌时直接通过审批
type RegisterRequest struct {
	Name        string `json:"name"         binding:"required,min=2,max=100"`
	Email       string `json:"email"        binding:"required,email"`
	Password    string `json:"password"     binding:"required,min=8,max=72"`
	InviteToken string `json:"invite_token" binding:"omitempty,max=64"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// InviteWriterRequest 邀请写手请求
type InviteWriterRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name"  binding:"omitempty,max=100"`
}

// RequestPasswordResetRequest 申请重置密码
type RequestPasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest 使用验证码重置密码
type ResetPasswordRequest struct {
	Email       string `json:"email"        binding:"required,email"`
	Code        string `json:"code"         binding:"required,len=6,numeric"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// ── 认证模块响应 ──

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // Access Token 有效期（秒）
	User         UserResponse `json:"user"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsApproved bool   `json:"is_approved"`
	WriterID   string `json:"writer_id,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// InviteResponse 邀请响应
type InviteResponse struct {
	InviteToken string `json:"invite_token"`
	InviteURL   string `json:"invite_url"`
	ExpiresAt   string `json:"expires_at"`
}

// PasswordResetCodeResponse 重置验证码（邮件投递由外部完成）
type PasswordResetCodeResponse struct {
	Code      string `json:"code"`
	ExpiresAt string `json:"expires_at"`
}
