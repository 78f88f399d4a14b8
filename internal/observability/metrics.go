package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	// Registry is private to bootctl so textfile output only carries our series.
	Registry = prometheus.NewRegistry()

	installResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bootctl",
			Subsystem: "install",
			Name:      "results_total",
			Help:      "Tool install outcomes by status.",
		},
		[]string{"status"},
	)
	settingsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bootctl",
			Subsystem: "settings",
			Name:      "applied_total",
			Help:      "Setting entries written by target and scope.",
		},
		[]string{"target", "scope"},
	)
	elevationRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bootctl",
			Subsystem: "elevation",
			Name:      "requests_total",
			Help:      "Elevated re-invocations by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)
	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bootctl",
			Subsystem: "operation",
			Name:      "duration_seconds",
			Help:      "Dispatched operation duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 4, 8),
		},
		[]string{"op", "success"},
	)
	lastRun = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bootctl",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the metrics file was last written.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		Registry.MustRegister(installResults, settingsApplied, elevationRequests, operationDuration, lastRun)
	})
}

func RecordInstall(status string) {
	RegisterMetrics()
	installResults.WithLabelValues(status).Inc()
}

func RecordSetting(target, scope string) {
	RegisterMetrics()
	settingsApplied.WithLabelValues(target, scope).Inc()
}

func RecordElevation(op, outcome string) {
	RegisterMetrics()
	elevationRequests.WithLabelValues(op, outcome).Inc()
}

func ObserveOperation(op string, duration time.Duration, success bool) {
	RegisterMetrics()
	operationDuration.WithLabelValues(op, strconv.FormatBool(success)).Observe(duration.Seconds())
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	RegisterMetrics()
	lastRun.SetToCurrentTime()
	return prometheus.WriteToTextfile(path, Registry)
}
