package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"easypro/backend/pkg/jwt"
	"easypro/backend/pkg/redis"
	"easypro/backend/pkg/response"
)

// TokenVersionSource 查询用户当前 token_version（改密、停权、登出后递增）
type TokenVersionSource interface {
	CurrentTokenVersion(ctx context.Context, userID string) (int, error)
}

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token，
// 再依次检查 Redis 黑名单与 token_version。
// rdb 为 nil 时跳过黑名单检查；versions 为 nil 时跳过版本检查。
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client, versions TokenVersionSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		if claims.TokenType != jwt.TokenTypeAccess {
			response.Unauthorized(c, 10002, "Token 类型无效")
			c.Abort()
			return
		}

		ctx := c.Request.Context()

		if rdb != nil {
			// Redis 出错时降级放行
			if blocked, err := rdb.IsBlacklisted(ctx, claims.ID); err == nil && blocked {
				response.Unauthorized(c, 10002, "Token 已失效")
				c.Abort()
				return
			}
		}

		if versions != nil {
			current, err := versions.CurrentTokenVersion(ctx, claims.UserID)
			if err != nil || current != claims.TokenVersion {
				response.Unauthorized(c, 10002, "会话已失效，请重新登录")
				c.Abort()
				return
			}
		}

		// 将用户信息注入上下文
		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("writer_id", claims.WriterID)
		c.Set("token_jti", claims.ID)
		if claims.ExpiresAt != nil {
			c.Set("token_exp", claims.ExpiresAt.Time)
		} else {
			c.Set("token_exp", time.Now())
		}

		c.Next()
	}
}

// RoleAuth 角色权限中间件
// 检查当前用户是否具有指定角色之一
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		userRole, _ := role.(string)
		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "无权限访问")
		c.Abort()
	}
}
