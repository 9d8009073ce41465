// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values.
const (
	ScopeAll = "all"
	ScopeOwn = "own"

	SourceEmbedded     = "embedded"
	SourceCorrelated   = "correlated"
	SourceUnattributed = "unattributed"
)

var (
	QueryListings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chouse_query_listings_total",
			Help: "Live and historical query listings by view and visibility scope",
		},
		[]string{"view", "scope"},
	)

	KillAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chouse_kill_attempts_total",
			Help: "Query termination attempts by outcome",
		},
		[]string{"outcome"},
	)

	Attributions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chouse_history_attributions_total",
			Help: "Historical rows by how their owner was resolved",
		},
		[]string{"source"},
	)

	MalformedIdentities = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chouse_malformed_identity_comments_total",
			Help: "Engine rows whose identity comment could not be parsed",
		},
	)

	AuditWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chouse_audit_write_failures_total",
			Help: "Audit events that could not be persisted",
		},
		[]string{"action"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chouse_active_sessions",
			Help: "Open engine sessions held in the session pool",
		},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chouse_http_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter",
		},
	)

	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chouse_http_auth_failures_total",
			Help: "Rejected bearer tokens by reason",
		},
		[]string{"reason"},
	)

	EngineCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chouse_engine_call_duration_seconds",
			Help:    "Latency of engine calls by operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

// ObserveEngineCall records the latency of one engine call started at start.
func ObserveEngineCall(op string, start time.Time) {
	EngineCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
