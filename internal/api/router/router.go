package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"easypro/backend/config"
	"easypro/backend/internal/api/handler"
	"easypro/backend/internal/api/middleware"
	"easypro/backend/internal/model"
	"easypro/backend/pkg/jwt"
	"easypro/backend/pkg/redis"
)

const (
	jsonBodyLimit = 1 << 20
	// 登录、注册、重置密码每 IP 每分钟请求数
	authRateLimit = 10
)

// HealthChecker 健康检查依赖（数据库、Redis）
type HealthChecker func(ctx context.Context) error

// Setup 初始化并返回 Gin 路由引擎
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	versions middleware.TokenVersionSource,
	health HealthChecker,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(jsonBodyLimit, uploadBodyLimit(&cfg.Upload)))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		if health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	admin := middleware.RoleAuth(model.RoleAdmin)
	writer := middleware.RoleAuth(model.RoleWriter)
	limited := middleware.RateLimit(rdb, authRateLimit, time.Minute)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", limited, h.Auth.Login)
			auth.POST("/register", limited, h.Auth.Register)
			auth.POST("/refresh", h.Auth.RefreshToken)
			auth.POST("/password-reset", limited, h.Auth.RequestPasswordReset)
			auth.POST("/password-reset/confirm", limited, h.Auth.ResetPassword)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb, versions))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetMe)
			authorized.POST("/auth/invite", admin, h.Auth.Invite)
			authorized.GET("/auth/pending", admin, h.Auth.ListPending)
			authorized.POST("/auth/pending/:id/approve", admin, h.Auth.Approve)
			authorized.DELETE("/auth/pending/:id", admin, h.Auth.Reject)

			// 写手模块
			writers := authorized.Group("/writers")
			{
				writers.GET("/me", writer, h.Writer.GetMe)
				writers.GET("/me/progress", writer, h.Writer.GetMyProgress)
				writers.GET("", admin, h.Writer.List)
				writers.GET("/:id", admin, h.Writer.Get)
				writers.GET("/:id/progress", admin, h.Writer.GetProgress)
				writers.POST("/:id/status", admin, h.Writer.ChangeStatus)
				writers.GET("/:id/status-logs", admin, h.Writer.ListStatusLogs)
			}

			// 班次模块
			shifts := authorized.Group("/shifts")
			{
				shifts.GET("/current", h.Shift.GetCurrent)
				shifts.GET("/calendar.ics", h.Shift.Calendar)
				shifts.GET("", admin, h.Shift.List)
				shifts.POST("", admin, h.Shift.Create)
				shifts.PUT("/current/quota", admin, h.Shift.UpdateQuota)
			}

			// 订单模块（写手只能访问指派给自己的订单，Service 层按范围过滤）
			orders := authorized.Group("/orders")
			{
				orders.GET("", h.Order.List)
				orders.GET("/:id", h.Order.Get)
				orders.GET("/:id/attachments/:index", h.Order.DownloadAttachment)
				orders.POST("/:id/start", h.Order.Start)
				orders.POST("/:id/submit", h.Order.Submit)
				orders.POST("/external", writer, h.Order.CreateExternal)
				orders.POST("", admin, h.Order.Create)
				orders.PUT("/:id", admin, h.Order.Update)
				orders.POST("/:id/assign", admin, h.Order.Assign)
				orders.POST("/:id/cancel", admin, h.Order.Cancel)
				orders.DELETE("/:id", admin, h.Order.Delete)
			}

			// 提交审核模块
			submissions := authorized.Group("/submissions")
			{
				submissions.GET("", h.Submission.List)
				submissions.GET("/:id", h.Submission.Get)
				submissions.GET("/:id/attachments/:index", h.Submission.DownloadAttachment)
				submissions.POST("", writer, h.Submission.Create)
				submissions.POST("/:id/review", admin, h.Submission.Review)
			}

			// 付款模块
			payments := authorized.Group("/payments")
			{
				payments.GET("", h.Payment.List)
				payments.GET("/:id", h.Payment.Get)
				payments.GET("/:id/logs", h.Payment.ListLogs)
				payments.POST("", admin, h.Payment.Create)
				payments.POST("/:id/paid", admin, h.Payment.MarkPaid)
				payments.POST("/:id/failed", admin, h.Payment.MarkFailed)
			}

			// 报表模块
			analytics := authorized.Group("/analytics")
			{
				analytics.GET("/admin", admin, h.Analytics.AdminDashboard)
				analytics.GET("/writer", h.Analytics.WriterDashboard)
			}

			// 导出模块
			export := authorized.Group("/export", admin)
			{
				export.GET("/payments", h.Export.ExportPayments)
				export.GET("/writers", h.Export.ExportWriterEarnings)
			}

			// 系统配置模块
			systemConfig := authorized.Group("/system-config", admin)
			{
				systemConfig.GET("", h.SystemConfig.GetConfig)
				systemConfig.PUT("", h.SystemConfig.UpdateConfig)
			}
		}
	}

	return r
}

// uploadBodyLimit multipart 请求体上限：单文件上限 × 文件数，另留 1MB 给表单字段
func uploadBodyLimit(cfg *config.UploadConfig) int64 {
	files := int64(cfg.MaxFiles)
	if files <= 0 {
		files = 1
	}
	return cfg.MaxSize*files + jsonBodyLimit
}
