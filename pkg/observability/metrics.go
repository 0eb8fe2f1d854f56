// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the datapilot gateway.
package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// RequestsTotal counts all HTTP requests by method, status class, and route.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datapilot_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status", "route"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datapilot_request_duration_seconds",
			Help:    "Request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// LoginAttemptsTotal counts login attempts by outcome
	// ("success", "invalid_credentials", "inactive", "error").
	LoginAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datapilot_login_attempts_total",
			Help: "Login attempts",
		},
		[]string{"outcome"},
	)

	// AuthRejectedTotal counts protected requests rejected by the auth
	// middleware, by reason ("unauthenticated", "inactive").
	AuthRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datapilot_auth_rejected_total",
			Help: "Authentication rejections",
		},
		[]string{"reason"},
	)

	// DispatchTotal counts routing decisions by selected tool.
	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datapilot_dispatch_total",
			Help: "Dispatch decisions",
		},
		[]string{"tool"},
	)

	// ToolExecutionsTotal counts tool executions by name and outcome.
	ToolExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datapilot_tool_executions_total",
			Help: "Tool executions",
		},
		[]string{"tool_name", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		LoginAttemptsTotal,
		AuthRejectedTotal,
		DispatchTotal,
		ToolExecutionsTotal,
	)
}
