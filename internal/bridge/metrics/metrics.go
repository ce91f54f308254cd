// Package metrics exposes the bridge's Prometheus collectors on a private
// registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ghl_mcp"

// Recorder owns every bridge collector.
type Recorder struct {
	registry *prometheus.Registry

	upstreamRefreshes *prometheus.CounterVec
	upstreamCalls     *prometheus.CounterVec
	upstreamLatency   *prometheus.HistogramVec
	toolCalls         *prometheus.CounterVec
	tokensIssued      prometheus.Counter
}

// New creates a Recorder. activeSessions is sampled on every scrape; pass
// nil to omit the gauge.
func New(activeSessions func() int) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		upstreamRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_token_refreshes_total",
			Help:      "Upstream token refresh attempts by outcome.",
		}, []string{"outcome"}),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_api_requests_total",
			Help:      "Upstream API requests by method and status class.",
		}, []string{"method", "status"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_api_request_duration_seconds",
			Help:      "Upstream API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "MCP tool invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oauth_tokens_issued_total",
			Help:      "Caller-facing access tokens issued at the token endpoint.",
		}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.upstreamRefreshes,
		r.upstreamCalls,
		r.upstreamLatency,
		r.toolCalls,
		r.tokensIssued,
	)

	if activeSessions != nil {
		r.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory.",
		}, func() float64 { return float64(activeSessions()) }))
	}

	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// UpstreamRefresh counts a refresh attempt. It matches the token store's
// refresh hook signature.
func (r *Recorder) UpstreamRefresh(err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	r.upstreamRefreshes.WithLabelValues(outcome).Inc()
}

// UpstreamCall records one API round-trip. status 0 means the request never
// got a response.
func (r *Recorder) UpstreamCall(method string, status int, elapsed time.Duration) {
	r.upstreamCalls.WithLabelValues(method, statusClass(status)).Inc()
	r.upstreamLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ToolCall counts one tool invocation.
func (r *Recorder) ToolCall(tool string, failed bool) {
	outcome := "success"
	if failed {
		outcome = "error"
	}
	r.toolCalls.WithLabelValues(tool, outcome).Inc()
}

// TokenIssued counts one caller-facing access token.
func (r *Recorder) TokenIssued() {
	r.tokensIssued.Inc()
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
