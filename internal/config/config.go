package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr     string
	Port           string
	GinMode        string
	DatabaseDriver string
	DatabaseDSN    string
	SessionSecret  string

	AdminEmail        string
	AdminPassword     string
	AdminPasswordHash string
	AdminName         string
	AdminToken        string

	AuthTokenMode string
	JWTSecret     string
	JWTTTL        time.Duration

	CORSOrigins []string

	LogLevel string
	LogFile  string

	RedisURL           string
	RateLimitPerMinute int
}

const (
	TokenModeStatic = "static"
	TokenModeJWT    = "jwt"
)

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := env("PORT", "8080")

	driver := strings.ToLower(env("DATABASE_DRIVER", "sqlite"))
	dsn := env("DATABASE_DSN", "")
	if dsn == "" {
		// 兼容旧变量名，sqlite 下 DSN 即文件路径
		dsn = env("DATABASE_PATH", "")
	}
	if dsn == "" && driver == "sqlite" {
		dsn = "pressroom.db"
	}

	tokenMode := strings.ToLower(env("AUTH_TOKEN_MODE", TokenModeStatic))
	if tokenMode != TokenModeJWT {
		tokenMode = TokenModeStatic
	}

	jwtTTL, err := time.ParseDuration(env("JWT_TTL", "24h"))
	if err != nil || jwtTTL <= 0 {
		jwtTTL = 24 * time.Hour
	}

	rateLimit, err := strconv.Atoi(env("RATE_LIMIT_PER_MINUTE", "30"))
	if err != nil || rateLimit < 0 {
		rateLimit = 30
	}

	return AppConfig{
		ListenAddr:         env("LISTEN_ADDR", fmt.Sprintf(":%s", port)),
		Port:               port,
		GinMode:            env("GIN_MODE", "release"),
		DatabaseDriver:     driver,
		DatabaseDSN:        dsn,
		SessionSecret:      env("SESSION_SECRET", "pressroom-dev-secret"),
		AdminEmail:         env("ADMIN_EMAIL", "admin@blog.com"),
		AdminPassword:      env("ADMIN_PASSWORD", "admin123"),
		AdminPasswordHash:  env("ADMIN_PASSWORD_HASH", ""),
		AdminName:          env("ADMIN_NAME", "Admin"),
		AdminToken:         env("ADMIN_TOKEN", ""),
		AuthTokenMode:      tokenMode,
		JWTSecret:          env("JWT_SECRET", ""),
		JWTTTL:             jwtTTL,
		CORSOrigins:        splitList(env("CORS_ORIGINS", "*")),
		LogLevel:           env("LOG_LEVEL", "info"),
		LogFile:            env("LOG_FILE", ""),
		RedisURL:           env("REDIS_URL", ""),
		RateLimitPerMinute: rateLimit,
	}
}

func env(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
