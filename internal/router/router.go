package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/pressroom/internal/handler"
	"github.com/pressroom/internal/metrics"
	"github.com/pressroom/internal/middleware"
	"github.com/pressroom/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sessionName = "pressroom_session"

// Options 汇总路由层的可选依赖。
type Options struct {
	SessionSecret string
	CORSOrigins   []string
	Logger        *zap.Logger

	Metrics  *metrics.Manager
	Gatherer prometheus.Gatherer

	// RateLimiter 为空时不限流
	RateLimiter        middleware.RequestRateLimiter
	RateLimitPerMinute int
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(gdb *gorm.DB, auth *service.AuthService, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	m := opts.Metrics
	if m == nil {
		reg := prometheus.NewRegistry()
		m = metrics.NewManager(metrics.Namespace, metrics.Subsystem, reg)
		if opts.Gatherer == nil {
			opts.Gatherer = reg
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Metrics(m))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	// 配置会话中间件
	secret := opts.SessionSecret
	if strings.TrimSpace(secret) == "" {
		secret = "pressroom-dev-secret"
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	api := handler.NewAPI(gdb, auth, m, log)

	limit := func(scope string) gin.HandlerFunc {
		return middleware.RateLimit(opts.RateLimiter, scope, opts.RateLimitPerMinute, log, m)
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Blog API Ready"})
	})
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/login", api.Login)
		authRoutes.POST("/logout", api.Logout)
		authRoutes.GET("/me", api.AuthRequired(), api.Me)
	}

	// gin 要求同一位置的通配参数同名，/posts 下统一使用 :ref
	posts := r.Group("/posts")
	{
		posts.GET("", api.ListPosts)
		posts.GET("/:ref", api.GetPost)
		posts.POST("", api.AuthRequired(), api.CreatePost)
		posts.PUT("/:ref", api.AuthRequired(), api.UpdatePost)
		posts.DELETE("/:ref", api.AuthRequired(), api.DeletePost)

		posts.GET("/:ref/comments", api.ListComments)
		posts.POST("/:ref/comments", limit("comment"), api.SubmitComment)

		posts.GET("/:ref/upvote", api.GetUpvoteStatus)
		posts.POST("/:ref/upvote", limit("upvote"), api.ToggleUpvote)
	}

	r.GET("/categories", api.ListCategories)
	r.POST("/categories", api.AuthRequired(), api.CreateCategory)
	r.GET("/tags", api.GetTags)
	r.POST("/tags", api.AuthRequired(), api.CreateTag)

	subscribers := r.Group("/subscribers")
	{
		subscribers.POST("", limit("subscribe"), api.Subscribe)
		subscribers.POST("/unsubscribe", limit("subscribe"), api.Unsubscribe)
		subscribers.GET("", api.AuthRequired(), api.ListSubscribers)
	}

	admin := r.Group("/admin")
	admin.Use(api.AuthRequired())
	{
		admin.GET("/stats", api.Stats)
		admin.GET("/comments", api.ListAdminComments)
		admin.PUT("/comments/:id", api.ModerateComment)
		admin.DELETE("/comments/:id", api.DeleteComment)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route " + c.Request.URL.Path + " not found"})
	})

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
		if origin != "" {
			allowed[strings.ToLower(origin)] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}

	cfg.AllowCredentials = true
	cfg.AllowOriginFunc = func(origin string) bool {
		_, ok := allowed[strings.ToLower(strings.TrimRight(origin, "/"))]
		return ok
	}
	return cfg
}
