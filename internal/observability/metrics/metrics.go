package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config carries metric labels shared by all instruments.
type Config struct {
	ServiceName string
	Environment string
}

// HTTPMetrics captures inbound request counts and latency.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP instruments on the default registry.
func NewHTTPMetrics(cfg Config) *HTTPMetrics {
	labels := constLabels(cfg)
	return &HTTPMetrics{
		requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "hourdesk_http_requests_total",
			Help:        "HTTP requests by route, method and status.",
			ConstLabels: labels,
		}, []string{"route", "method", "status"}),
		duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "hourdesk_http_request_duration_seconds",
			Help:        "HTTP request latency by route.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}, []string{"route", "method"}),
	}
}

// GinMiddleware records one observation per request.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		method := c.Request.Method
		m.requests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

// SyncMetrics captures reconciliation run health signals.
type SyncMetrics struct {
	runs             *prometheus.CounterVec
	customersUpdated prometheus.Counter
	unmatchedClients prometheus.Counter
	runDuration      prometheus.Histogram
}

// NewSyncMetrics registers the sync instruments on the default registry.
func NewSyncMetrics(cfg Config) *SyncMetrics {
	labels := constLabels(cfg)
	return &SyncMetrics{
		runs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "hourdesk_sync_runs_total",
			Help:        "Reconciliation runs by outcome.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		customersUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "hourdesk_sync_customers_updated_total",
			Help:        "Customers whose hours_used advanced during reconciliation.",
			ConstLabels: labels,
		}),
		unmatchedClients: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "hourdesk_sync_unmatched_clients_total",
			Help:        "Remote client names with no matching customer record.",
			ConstLabels: labels,
		}),
		runDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:        "hourdesk_sync_run_duration_seconds",
			Help:        "End-to-end reconciliation run duration.",
			Buckets:     []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			ConstLabels: labels,
		}),
	}
}

// RecordRun records one finished run.
func (m *SyncMetrics) RecordRun(outcome string, updated, unmatched int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(strings.TrimSpace(outcome)).Inc()
	m.customersUpdated.Add(float64(updated))
	m.unmatchedClients.Add(float64(unmatched))
	m.runDuration.Observe(elapsed.Seconds())
}

func constLabels(cfg Config) prometheus.Labels {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "hourdesk"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	return prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}
}
