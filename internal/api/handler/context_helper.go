package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"easypro/backend/internal/model"
	"easypro/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, "user_id")
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, "role")
}

// MustGetWriterID 提取当前写手的 writer_id，非写手账号返回 403
func MustGetWriterID(c *gin.Context) (string, bool) {
	v, _ := c.Get("writer_id")
	s, _ := v.(string)
	if s == "" {
		response.Forbidden(c, 10003, "当前账号不是写手")
		return "", false
	}
	return s, true
}

// scopeWriterID 数据可见范围：管理员返回空串（不限），写手返回自身 writer_id
func scopeWriterID(c *gin.Context) (string, bool) {
	role, ok := MustGetRole(c)
	if !ok {
		return "", false
	}
	if role == model.RoleAdmin {
		return "", true
	}
	return MustGetWriterID(c)
}

// tokenRemaining 当前 Access Token 剩余有效期，用于登出拉黑
func tokenRemaining(c *gin.Context) time.Duration {
	v, _ := c.Get("token_exp")
	exp, ok := v.(time.Time)
	if !ok {
		return 0
	}
	if d := time.Until(exp); d > 0 {
		return d
	}
	return 0
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}
