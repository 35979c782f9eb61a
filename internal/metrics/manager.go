package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	Namespace = "pressroom"
	Subsystem = "api"
)

type Manager struct {
	// counters
	CounterRequests          *prometheus.CounterVec
	CounterPostViews         prometheus.Counter
	CounterUpvoteToggles     *prometheus.CounterVec
	CounterCommentsSubmitted prometheus.Counter
	CounterModerations       *prometheus.CounterVec
	CounterSubscriptions     *prometheus.CounterVec
	CounterRateLimited       *prometheus.CounterVec

	// gauges
	GaugeRequests prometheus.Gauge

	// histograms
	HistRequestDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager(Namespace, "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager(Namespace, "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "requests_total",
		Help:      "The total number of handled requests",
	}, []string{"method", "route", "status"})
	counterPostViews := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "post_views_total",
		Help:      "The total number of counted post views",
	})
	counterUpvoteToggles := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "upvote_toggles_total",
		Help:      "Upvote toggles by resulting state",
	}, []string{"state"})
	counterCommentsSubmitted := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "comments_submitted_total",
		Help:      "The total number of comments queued for moderation",
	})
	counterModerations := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "comment_moderations_total",
		Help:      "Applied comment transitions by target status",
	}, []string{"status"})
	counterSubscriptions := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "subscription_changes_total",
		Help:      "Subscribe and unsubscribe operations",
	}, []string{"action"})
	counterRateLimited := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter",
	}, []string{"scope"})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests in flight",
	})

	histReqDuration := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			Name:      "request_duration_seconds",
			Help:      "Duration of requests in seconds",
		},
		[]string{"method", "route"},
	)

	return &Manager{
		CounterRequests:          counterRequests,
		CounterPostViews:         counterPostViews,
		CounterUpvoteToggles:     counterUpvoteToggles,
		CounterCommentsSubmitted: counterCommentsSubmitted,
		CounterModerations:       counterModerations,
		CounterSubscriptions:     counterSubscriptions,
		CounterRateLimited:       counterRateLimited,
		GaugeRequests:            gaugeRequests,
		HistRequestDuration:      histReqDuration,
	}
}
