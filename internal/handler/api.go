package handler

import (
	"github.com/pressroom/internal/metrics"
	"github.com/pressroom/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	auth        *service.AuthService
	posts       *service.PostService
	comments    *service.CommentService
	upvotes     *service.UpvoteService
	subscribers *service.SubscriberService
	categories  *service.CategoryService
	tags        *service.TagService
	metrics     *metrics.Manager
	log         *zap.Logger
}

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB, auth *service.AuthService, m *metrics.Manager, log *zap.Logger) *API {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewManager(metrics.Namespace, metrics.Subsystem, prometheus.NewRegistry())
	}

	return &API{
		auth:        auth,
		posts:       service.NewPostService(db),
		comments:    service.NewCommentService(db),
		upvotes:     service.NewUpvoteService(db),
		subscribers: service.NewSubscriberService(db),
		categories:  service.NewCategoryService(db),
		tags:        service.NewTagService(db),
		metrics:     m,
		log:         log,
	}
}
