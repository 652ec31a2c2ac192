package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"easypro/backend/config"
	"easypro/backend/internal/api/handler"
	"easypro/backend/internal/api/router"
	"easypro/backend/internal/api/validator"
	"easypro/backend/internal/repository"
	"easypro/backend/internal/service"
	"easypro/backend/pkg/database"
	"easypro/backend/pkg/jwt"
	applogger "easypro/backend/pkg/logger"
	"easypro/backend/pkg/queue"
	"easypro/backend/pkg/redis"
	"easypro/backend/pkg/scheduler"
	"easypro/backend/pkg/storage"
)

// 单次定时任务的执行超时
const jobTimeout = 5 * time.Minute

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.Int("shift_boundary_hour", cfg.Shift.BoundaryHour),
		zap.String("shift_timezone", cfg.Shift.Timezone),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单、换班锁与看板缓存将降级", zap.Error(err))
		rdb = nil
	}

	// 5. 事件发布（RabbitMQ 未启用或连接失败时丢弃事件）
	pub, err := queue.NewPublisher(&cfg.Queue, logger)
	if err != nil {
		logger.Warn("RabbitMQ 连接失败，业务事件将不会发布", zap.Error(err))
		pub = queue.NopPublisher{}
	}

	// 6. 附件存储
	st, err := storage.New(&cfg.Upload, logger)
	if err != nil {
		logger.Fatal("初始化附件存储失败", zap.Error(err))
	}

	// 7. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, rdb, pub, logger)
	h := handler.NewHandler(cfg, svc, st)

	// 8. 启动时确保存在当前班次
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if _, err := svc.Shift.GetCurrentShift(bootCtx); err != nil {
		logger.Warn("初始化当前班次失败，将在首次请求时重试", zap.Error(err))
	}
	bootCancel()

	// 9. 定时任务：每日换班 + 处罚到期扫描
	sched := scheduler.New(cfg.Shift.Location(), jobTimeout, logger)
	if err := sched.Register("shift_rollover", cfg.Shift.RolloverCron(), svc.Shift.Rollover); err != nil {
		logger.Fatal("注册换班任务失败", zap.Error(err))
	}
	if err := sched.Register("penalty_expiry", cfg.Shift.ExpirySweepCron, func(ctx context.Context) error {
		n, err := svc.Writer.ExpirePenalties(ctx, time.Now().UTC())
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("处罚到期自动恢复", zap.Int("count", n))
		}
		return nil
	}); err != nil {
		logger.Fatal("注册处罚到期任务失败", zap.Error(err))
	}
	sched.Start()

	// 10. 初始化路由
	if err := validator.Register(); err != nil {
		logger.Fatal("注册参数校验规则失败", zap.Error(err))
	}
	health := func(ctx context.Context) error {
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		if rdb != nil {
			if err := rdb.Ping(ctx); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	}
	engine := router.Setup(cfg, h, jwtMgr, rdb, svc.Auth, health, logger)

	// 11. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 12. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	sched.Stop(ctx)

	if err := pub.Close(); err != nil {
		logger.Warn("关闭事件发布器失败", zap.Error(err))
	}

	if err := sqlDB.Close(); err != nil {
		logger.Warn("关闭数据库连接失败", zap.Error(err))
	}

	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
