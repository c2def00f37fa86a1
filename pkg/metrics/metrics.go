package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for sync and advice.
type Metrics struct {
	PushTotal      *prometheus.CounterVec
	PullTotal      *prometheus.CounterVec
	Coalesced      prometheus.Counter
	LocalSaveTotal *prometheus.CounterVec
	AdviceTotal    *prometheus.CounterVec
	LastPush       prometheus.Gauge
}

// New returns the process-wide metrics, registering them on first use.
//
// Metrics:
//   - focus_sync_push_total{source,status}
//   - focus_sync_pull_total{status}
//   - focus_sync_debounce_coalesced_total
//   - focus_local_save_total{status}
//   - focus_advice_requests_total{status}
//   - focus_sync_last_push_timestamp_seconds
func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			PushTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "focus_sync_push_total",
					Help: "Remote snapshot pushes by trigger and outcome",
				},
				[]string{"source", "status"},
			),
			PullTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "focus_sync_pull_total",
					Help: "Remote snapshot pulls by outcome",
				},
				[]string{"status"},
			),
			Coalesced: promauto.NewCounter(prometheus.CounterOpts{
				Name: "focus_sync_debounce_coalesced_total",
				Help: "Scheduled pushes superseded by a newer mutation",
			}),
			LocalSaveTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "focus_local_save_total",
					Help: "Local persistence writes by outcome",
				},
				[]string{"status"},
			),
			AdviceTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "focus_advice_requests_total",
					Help: "AI advice requests by outcome",
				},
				[]string{"status"},
			),
			LastPush: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "focus_sync_last_push_timestamp_seconds",
				Help: "Unix time of the last successful push",
			}),
		}
	})
	return globalMetrics
}
