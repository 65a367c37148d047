package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tinylink-go/internal/cache"
	"tinylink-go/internal/config"
	"tinylink-go/internal/handler"
	"tinylink-go/internal/i18n"
	"tinylink-go/internal/middleware"
	"tinylink-go/internal/ratelimit"
	"tinylink-go/internal/repository"
	"tinylink-go/internal/service"
	"tinylink-go/pkg/logging"
	"tinylink-go/pkg/privacy"
)

// version 构建时通过 -ldflags "-X main.version=..." 注入
var version = "dev"

func buildCache(cfg *config.Config) (*cache.Chain, *redis.Pool, func()) {
	var (
		layers  []cache.LinkCache
		pool    *redis.Pool
		closers []func()
	)

	if cfg.Cache.LocalEnabled {
		local, err := cache.NewLocalCache(cfg.Cache.LocalMaxCost, cfg.Cache.LocalTTL, cfg.Cache.NegativeTTL)
		if err != nil {
			logging.Logger.Fatal("Failed to create local cache", zap.Error(err))
		}
		layers = append(layers, local)
		closers = append(closers, local.Close)
	}

	if cfg.Redis.Enabled {
		pool = repository.InitRedis(cfg.Redis)
		layers = append(layers, cache.NewRedisCache(pool, cfg.Cache.RedisTTL, cfg.Cache.NegativeTTL))
		closers = append(closers, func() {
			if err := pool.Close(); err != nil {
				logging.Logger.Warn("Redis pool close failed", zap.Error(err))
			}
		})
	}

	return cache.NewChain(layers...), pool, func() {
		for _, c := range closers {
			c()
		}
	}
}

func startServer(cfg config.ServerConfig, r *gin.Engine, db *gorm.DB, shutdownHooks ...func()) {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// 启动服务器
	go func() {
		logging.Logger.Info("Server is running on " + cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	for _, hook := range shutdownHooks {
		hook()
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logging.Logger.Warn("Database close failed", zap.Error(err))
		}
	}

	_ = logging.Logger.Sync()
	logging.Logger.Info("Server exiting")
}

func main() {
	// 1. 加载配置
	cfg := config.MustLoad()

	// 2. 初始化日志系统
	logging.InitLoggerFromConfig(cfg.Log)
	logging.Logger.Info("Application started", zap.String("version", version))

	db, err := repository.InitDB(cfg.DB, logging.Logger, logging.AtomicLevel)
	if err != nil {
		logging.Logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	linkCache, pool, closeCache := buildCache(cfg)
	if pool != nil {
		conn := pool.Get()
		if _, err := conn.Do("PING"); err != nil {
			logging.Logger.Warn("Redis is not reachable, continuing with database lookups", zap.Error(err))
		}
		_ = conn.Close()
	}

	hasher, err := privacy.NewHasher(cfg.Privacy.Salt)
	if err != nil {
		logging.Logger.Fatal("Failed to initialize privacy hasher", zap.Error(err))
	}

	// 初始化 i18n（内嵌 TOML 文件）
	bundle, err := i18n.InitI18n("en")
	if err != nil {
		logging.Logger.Fatal("Failed to initialize i18n", zap.Error(err))
	}

	svc := service.NewLinkService(repository.NewLinkStore(db), hasher, service.WithCache(linkCache))

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery()) // 显式添加 Recovery 中间件
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logging.Logger.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics())
	r.Use(middleware.ZapGinLogger(logging.Logger))
	// 注册全局错误中间件
	r.Use(middleware.GlobalErrorMiddleware())
	r.Use(middleware.CorsMiddleware(cfg.Server.AllowedOrigins))
	r.Use(middleware.I18nMiddleware(bundle))

	var (
		limiter        *ratelimit.Limiter
		linkMiddleware []gin.HandlerFunc
	)
	if cfg.RateLimit.Enabled {
		limiter, err = ratelimit.New(ratelimit.Config{
			RefillRate:    cfg.RateLimit.RefillRate,
			BurstCapacity: cfg.RateLimit.BurstCapacity,
			StaleAfter:    cfg.RateLimit.StaleAfter,
			SweepInterval: cfg.RateLimit.SweepInterval,
		})
		if err != nil {
			logging.Logger.Fatal("Invalid rate limit configuration", zap.Error(err))
		}
		if err := limiter.Start(); err != nil {
			logging.Logger.Fatal("Failed to start rate limit sweep", zap.Error(err))
		}
		// 只限制短链路由，ping、version、metrics 不计入
		linkMiddleware = append(linkMiddleware, middleware.RateLimit(limiter, middleware.ClientIPKey))
	}

	handler.RegisterRoutes(r, handler.NewLinkHandler(svc), version, linkMiddleware...)

	startServer(cfg.Server, r, db, func() {
		if limiter != nil {
			limiter.Stop()
		}
	}, closeCache)
}
