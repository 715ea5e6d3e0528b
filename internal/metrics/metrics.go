// Package metrics provides Prometheus metrics for the supervisor and snapshot pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation results used as label values.
const (
	ResultSuccess        = "success"
	ResultAlreadyRunning = "already_running"
	ResultNotRunning     = "not_running"
	ResultSpawnFailed    = "spawn_failed"
	ResultStopFailed     = "stop_failed"
	ResultCleanupWarning = "cleanup_warning"
	ResultCaptureFailed  = "capture_failed"
	ResultUploadFailed   = "upload_failed"
)

var (
	supervisorRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "doorbell",
		Subsystem: "supervisor",
		Name:      "running",
		Help:      "Whether the supervised process is held (1) or not (0)",
	})

	supervisorOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "doorbell",
		Subsystem: "supervisor",
		Name:      "operations_total",
		Help:      "Supervisor start/stop calls by result",
	}, []string{"operation", "result"})

	snapshotTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "doorbell",
		Subsystem: "snapshot",
		Name:      "total",
		Help:      "Screenshot requests by result",
	}, []string{"result"})

	snapshotDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "doorbell",
		Subsystem: "snapshot",
		Name:      "duration_seconds",
		Help:      "Time to capture and upload a screenshot",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30},
	})
)

// SetSupervisorRunning records whether the supervisor holds a process.
func SetSupervisorRunning(running bool) {
	if running {
		supervisorRunning.Set(1)
		return
	}
	supervisorRunning.Set(0)
}

// RecordSupervisorOperation counts a start or stop call.
func RecordSupervisorOperation(operation, result string) {
	supervisorOperations.WithLabelValues(operation, result).Inc()
}

// RecordSnapshot counts a screenshot request and, on success, observes its duration.
func RecordSnapshot(result string, duration time.Duration) {
	snapshotTotal.WithLabelValues(result).Inc()
	if result == ResultSuccess {
		snapshotDuration.Observe(duration.Seconds())
	}
}

// Handler returns the Prometheus metrics HTTP handler.
// This collects all promauto-registered metrics automatically.
func Handler() http.Handler {
	return promhttp.Handler()
}
