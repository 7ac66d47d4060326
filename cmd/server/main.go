package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pharmacy-ops/backend/config"
	"pharmacy-ops/backend/internal/api/handler"
	"pharmacy-ops/backend/internal/api/router"
	"pharmacy-ops/backend/internal/authz"
	"pharmacy-ops/backend/internal/repository"
	"pharmacy-ops/backend/internal/service"
	"pharmacy-ops/backend/internal/session"
	"pharmacy-ops/backend/pkg/authprovider"
	"pharmacy-ops/backend/pkg/database"
	applogger "pharmacy-ops/backend/pkg/logger"
	"pharmacy-ops/backend/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
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
		zap.String("auth_mode", cfg.Auth.Mode),
		zap.String("authz_mode", cfg.Authz.Mode),
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

	// 4. 连接 Redis（可选：连接失败时降级运行，不缓存会话、不限流）
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，会话缓存与令牌注销将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 权限评估器与会话解析
	repo := repository.NewRepository(db)
	evaluator, err := authz.NewEvaluator(context.Background(), authz.ParseMode(cfg.Authz.Mode),
		repo.Permission, repo.Profile, logger)
	if err != nil {
		logger.Fatal("加载权限策略失败", zap.Error(err))
	}
	resolver := session.NewResolver(&cfg.Auth, rdb, logger)

	var revoker handler.TokenRevoker
	if cached, ok := resolver.(*session.CachedResolver); ok {
		revoker = cached
	}

	// 6. 依赖注入: Repository → Service → Handler
	authClient := authprovider.NewClient(&cfg.Auth, logger)
	svc := service.NewService(cfg, repo, evaluator, authClient, logger)
	h := handler.NewHandler(svc, evaluator, revoker)

	// 7. 初始化路由
	engine, err := router.Setup(cfg, h, resolver, evaluator, rdb, logger)
	if err != nil {
		logger.Fatal("初始化路由失败", zap.Error(err))
	}

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second, // 导出 PDF/Excel 需要更长时间
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	closeDB, _ := db.DB()
	if closeDB != nil {
		closeDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
