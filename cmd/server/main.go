package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/pressroom/internal/config"
	"github.com/pressroom/internal/db"
	"github.com/pressroom/internal/logging"
	"github.com/pressroom/internal/metrics"
	"github.com/pressroom/internal/middleware"
	"github.com/pressroom/internal/router"
	"github.com/pressroom/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	loaded := config.LoadDotEnv()
	cfg := config.Load()

	logger := logging.New(logging.Options{
		Level:       cfg.LogLevel,
		File:        cfg.LogFile,
		Development: cfg.GinMode == gin.DebugMode,
	})
	defer logger.Sync()
	if len(loaded) > 0 {
		logger.Info("loaded env files", zap.Strings("files", loaded))
	}

	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(db.Options{Driver: cfg.DatabaseDriver, DSN: cfg.DatabaseDSN}); err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	auth, err := newAuthService(cfg)
	if err != nil {
		logger.Fatal("failed to configure admin auth", zap.Error(err))
	}
	if cfg.AuthTokenMode == config.TokenModeStatic && cfg.AdminToken == "" {
		logger.Warn("ADMIN_TOKEN not set, a random token is issued at login and lost on restart")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewManager(metrics.Namespace, metrics.Subsystem, reg)

	limiter, rdb := newRateLimiter(cfg, logger)
	if rdb != nil {
		defer rdb.Close()
	}

	r := router.SetupRouter(db.DB, auth, router.Options{
		SessionSecret:      cfg.SessionSecret,
		CORSOrigins:        cfg.CORSOrigins,
		Logger:             logger,
		Metrics:            m,
		Gatherer:           reg,
		RateLimiter:        limiter,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("auth_mode", cfg.AuthTokenMode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("server exited")
}

func newAuthService(cfg config.AppConfig) (*service.AuthService, error) {
	identity := service.AdminIdentity(cfg.AdminEmail, cfg.AdminName)

	var issuer service.TokenIssuer
	switch cfg.AuthTokenMode {
	case config.TokenModeJWT:
		secret := cfg.JWTSecret
		if secret == "" {
			secret = cfg.SessionSecret
		}
		jwtIssuer, err := service.NewJWTIssuer(secret, cfg.JWTTTL)
		if err != nil {
			return nil, err
		}
		issuer = jwtIssuer
	default:
		issuer = service.NewStaticTokenIssuer(cfg.AdminToken, identity)
	}

	return service.NewAuthService(service.AdminCredentials{
		Email:        cfg.AdminEmail,
		Name:         cfg.AdminName,
		Password:     cfg.AdminPassword,
		PasswordHash: cfg.AdminPasswordHash,
	}, issuer)
}

// newRateLimiter connects to REDIS_URL; without it rate limiting is off.
func newRateLimiter(cfg config.AppConfig, logger *zap.Logger) (middleware.RequestRateLimiter, *redis.Client) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		logger.Info("REDIS_URL not set, rate limiting disabled")
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("invalid REDIS_URL", zap.Error(err))
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// 限流器失败时放行请求，这里只记录
		logger.Warn("redis unreachable at startup", zap.Error(err))
	}

	return redis_rate.NewLimiter(rdb), rdb
}
