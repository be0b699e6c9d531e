package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// HTTPRequestsTotal counts served requests by route template and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kisanmitra",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests, labeled by method, route and status code.",
	}, []string{"method", "route", "status"})

	// HTTPRequestDurationSeconds tracks end-to-end handler latency.
	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kisanmitra",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP handler latency.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"method", "route"})

	// GatewayOutcomesTotal counts gateway requests by route and outcome code.
	GatewayOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kisanmitra",
		Subsystem: "gateway",
		Name:      "outcomes_total",
		Help:      "Gateway requests by processing route and outcome (success or error code).",
	}, []string{"route", "outcome"})

	// AnalysisFallbacksTotal counts analysis responses built without a parseable JSON object.
	AnalysisFallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kisanmitra",
		Subsystem: "gateway",
		Name:      "analysis_fallbacks_total",
		Help:      "Analysis responses that fell back to the conservative default result.",
	})

	// UpstreamDurationSeconds is the latency of single upstream calls.
	UpstreamDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kisanmitra",
		Subsystem: "upstream",
		Name:      "duration_seconds",
		Help:      "Latency of upstream AI and vision calls.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
	}, []string{"provider", "route"})

	// UpstreamTokensTotal accumulates reported token usage.
	UpstreamTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kisanmitra",
		Subsystem: "upstream",
		Name:      "tokens_total",
		Help:      "Tokens reported by upstream providers, labeled by kind (prompt or completion).",
	}, []string{"provider", "kind"})

	// RateLimitedTotal counts requests rejected by the inbound limiter.
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kisanmitra",
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the inbound rate limiter.",
	})
)

// Register adds every collector to the default registry exactly once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			GatewayOutcomesTotal,
			AnalysisFallbacksTotal,
			UpstreamDurationSeconds,
			UpstreamTokensTotal,
			RateLimitedTotal,
		)
	})
}

// ObserveUsage records token usage for a provider when present.
func ObserveUsage(provider string, usage TokenUsage) {
	if usage.IsZero() {
		return
	}
	UpstreamTokensTotal.WithLabelValues(provider, "prompt").Add(float64(usage.PromptTokens))
	UpstreamTokensTotal.WithLabelValues(provider, "completion").Add(float64(usage.CompletionTokens))
}
