package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forumhub_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "forumhub_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// Reactions counts reaction ledger outcomes: created, duplicate, conflict, removed.
	Reactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forumhub_reactions_total",
		Help: "Reaction ledger operations by target kind, type and outcome.",
	}, []string{"target", "type", "result"})

	RatingDrift = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forumhub_rating_drift_corrections_total",
		Help: "Stored user ratings corrected by a recompute.",
	})

	CommentTreeCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forumhub_comment_tree_cache_total",
		Help: "Comment tree cache lookups by result.",
	}, []string{"result"})
)
