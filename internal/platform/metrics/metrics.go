package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RankSyncEvents counts ledger adjustments applied by the rank synchronizer.
	RankSyncEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rank_sync_events_total",
			Help: "Attendance outcome events applied to the rank ledger",
		},
		[]string{"outcome", "direction"},
	)

	// RankSyncFailures counts synchronizer failures by stage (ledger, aggregate, publish).
	RankSyncFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rank_sync_failures_total",
			Help: "Rank synchronizer failures by stage",
		},
		[]string{"stage"},
	)

	RankRebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rank_cache_rebuild_duration_seconds",
			Help:    "Duration of full ranking cache rebuilds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RankRebuildFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rank_cache_rebuild_failures_total",
			Help: "Failed full ranking cache rebuilds",
		},
	)

	// CacheHealthState is 0 healthy, 1 degraded, 2 rebuilding.
	CacheHealthState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rank_cache_health_state",
			Help: "Ranking cache health: 0 healthy, 1 degraded, 2 rebuilding",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Middleware records request latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
