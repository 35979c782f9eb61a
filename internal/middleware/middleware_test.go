package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/pressroom/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeLimiter struct {
	allowed int
	calls   int
	keys    []string
	err     error
}

func (f *fakeLimiter) Allow(_ context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	f.calls++
	f.keys = append(f.keys, key)
	if f.err != nil {
		return nil, f.err
	}
	if f.calls <= f.allowed {
		return &redis_rate.Result{Limit: limit, Allowed: 1, Remaining: f.allowed - f.calls}, nil
	}
	return &redis_rate.Result{Limit: limit, Allowed: 0, RetryAfter: 1500 * time.Millisecond}, nil
}

func performRequest(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_BlocksAfterQuota(t *testing.T) {
	limiter := &fakeLimiter{allowed: 2}
	m := metrics.NewTestManager()

	r := gin.New()
	r.POST("/subscribers", RateLimit(limiter, "subscribe", 2, zap.NewNop(), m), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	assert.Equal(t, http.StatusOK, performRequest(r, http.MethodPost, "/subscribers").Code)
	assert.Equal(t, http.StatusOK, performRequest(r, http.MethodPost, "/subscribers").Code)

	blocked := performRequest(r, http.MethodPost, "/subscribers")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "2", blocked.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many requests"}`, blocked.Body.String())

	assert.Equal(t, "pressroom:rate_limit:subscribe:10.0.0.1", limiter.keys[0])
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CounterRateLimited.WithLabelValues("subscribe")))
}

func TestRateLimit_FailsOpen(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("connection refused")}
	core, logs := observer.New(zapcore.WarnLevel)

	r := gin.New()
	r.POST("/x", RateLimit(limiter, "x", 1, zap.New(core), nil), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, performRequest(r, http.MethodPost, "/x").Code)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "rate limiter unavailable", logs.All()[0].Message)
}

func TestRateLimit_DisabledWithoutLimiter(t *testing.T) {
	r := gin.New()
	r.POST("/x", RateLimit(nil, "x", 1, zap.NewNop(), nil), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, performRequest(r, http.MethodPost, "/x").Code)
	}
}

func TestMetrics_RecordsRouteTemplate(t *testing.T) {
	m := metrics.NewTestManager()

	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/posts/:ref", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	performRequest(r, http.MethodGet, "/posts/hello-world")
	performRequest(r, http.MethodGet, "/posts/another")
	performRequest(r, http.MethodGet, "/metrics")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.CounterRequests.WithLabelValues("GET", "/posts/:ref", "200")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.GaugeRequests))
}

func TestLogger_LevelFollowsStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	performRequest(r, http.MethodGet, "/ok")
	performRequest(r, http.MethodGet, "/missing")
	performRequest(r, http.MethodGet, "/boom")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "/ok", entries[0].ContextMap()["path"])
}
