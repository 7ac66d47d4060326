package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pharmops",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests broken down by route, method and status.",
	}, []string{"route", "method", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pharmops",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	authzDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pharmops",
		Subsystem: "authz",
		Name:      "decisions_total",
		Help:      "Permission evaluations broken down by mode and result.",
	}, []string{"mode", "result"})

	authzLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pharmops",
		Subsystem: "authz",
		Name:      "latency_seconds",
		Help:      "Latency distribution for permission evaluations.",
		Buckets: []float64{
			0.0005, 0.001, 0.002, 0.005,
			0.01, 0.02, 0.05, 0.1,
			0.2, 0.5, 1,
		},
	}, []string{"mode", "result"})
)

// ObserveHTTP 记录一次 HTTP 请求
func ObserveHTTP(route, method string, status int, latency time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpLatency.WithLabelValues(route, method).Observe(latency.Seconds())
}

// ObserveAuthz 记录一次权限评估
func ObserveAuthz(mode string, allowed bool, latency time.Duration) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	labels := prometheus.Labels{"mode": mode, "result": result}
	authzDecisions.With(labels).Inc()
	authzLatency.With(labels).Observe(latency.Seconds())
}
