package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by method, route pattern and status",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	RealtimeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_connections",
		Help: "Number of open realtime WebSocket connections",
	})

	RealtimeDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "realtime_drops_total",
		Help: "Realtime frames dropped because a client could not keep up",
	})

	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messages_sent_total",
		Help: "Direct messages persisted",
	})

	AssetUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asset_uploads_total",
		Help: "Image uploads by policy and result",
	}, []string{"policy", "result"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
