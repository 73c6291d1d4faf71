// Package metrics counts what a run did and can export the counts in the
// node_exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "apicurio_sync"

// Recorder holds the run's metrics. A nil *Recorder discards everything.
type Recorder struct {
	registry *prometheus.Registry

	artifacts   *prometheus.CounterVec
	bytes       *prometheus.CounterVec
	resolutions *prometheus.CounterVec
	lockEntries *prometheus.GaugeVec
	duration    *prometheus.HistogramVec
	lastRun     prometheus.Gauge
}

// New creates a Recorder on its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		artifacts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_total",
			Help:      "Artifacts processed, by direction and outcome.",
		}, []string{"direction", "outcome"}),
		bytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_total",
			Help:      "Artifact content bytes transferred, by direction.",
		}, []string{"direction"}),
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lockfile_resolutions_total",
			Help:      "Lockfile pull entries, by what reconciliation did with them.",
		}, []string{"result"}),
		lockEntries: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lockfile_entries",
			Help:      "Entries in the lockfile after reconciliation.",
		}, []string{"kind"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of update and sync operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the run finished.",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Artifact records one pulled or pushed artifact.
func (r *Recorder) Artifact(direction, outcome string, size int) {
	if r == nil {
		return
	}
	r.artifacts.WithLabelValues(direction, outcome).Inc()
	if size > 0 {
		r.bytes.WithLabelValues(direction).Add(float64(size))
	}
}

// Resolution records what reconciliation did with a pull entry:
// resolved, skipped or pruned.
func (r *Recorder) Resolution(result string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.resolutions.WithLabelValues(result).Add(float64(n))
}

// LockEntries sets the lockfile entry gauges.
func (r *Recorder) LockEntries(push, pull int) {
	if r == nil {
		return
	}
	r.lockEntries.WithLabelValues("push").Set(float64(push))
	r.lockEntries.WithLabelValues("pull").Set(float64(pull))
}

// Observe records how long an operation took.
func (r *Recorder) Observe(operation string, d time.Duration) {
	if r == nil {
		return
	}
	r.duration.WithLabelValues(operation).Observe(d.Seconds())
}

// WriteTextfile stamps the run time and writes every metric to path.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	r.lastRun.SetToCurrentTime()
	return prometheus.WriteToTextfile(path, r.registry)
}
