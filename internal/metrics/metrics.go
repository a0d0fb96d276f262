// Package metrics exposes run statistics in Prometheus format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "zfs_pruner"

// Recorder collects per-volume run statistics on a private registry.
type Recorder struct {
	reg *prometheus.Registry

	discovered  *prometheus.GaugeVec
	kept        *prometheus.GaugeVec
	pruned      *prometheus.CounterVec
	failures    *prometheus.CounterVec
	runSeconds  *prometheus.GaugeVec
	lastSuccess *prometheus.GaugeVec
}

func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		discovered: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshots_discovered",
			Help:      "Snapshots found for the volume at the start of the last run.",
		}, []string{"volume"}),
		kept: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshots_kept",
			Help:      "Snapshots kept by the last completed run.",
		}, []string{"volume"}),
		pruned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_pruned_total",
			Help:      "Snapshots destroyed.",
		}, []string{"volume"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "volume_failures_total",
			Help:      "Volume runs that failed, by stage.",
		}, []string{"volume", "stage"}),
		runSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "volume_run_seconds",
			Help:      "Duration of the last run for the volume.",
		}, []string{"volume"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run for the volume.",
		}, []string{"volume"}),
	}
	r.reg.MustRegister(r.discovered, r.kept, r.pruned, r.failures, r.runSeconds, r.lastSuccess)
	return r
}

// Gatherer returns the registry backing the recorder.
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.reg }

func (r *Recorder) SnapshotDestroyed(volume string) {
	r.pruned.WithLabelValues(volume).Inc()
}

func (r *Recorder) Discovered(volume string, n int) {
	r.discovered.WithLabelValues(volume).Set(float64(n))
}

// VolumeSucceeded records a completed run.
func (r *Recorder) VolumeSucceeded(volume string, kept int, took time.Duration, at time.Time) {
	r.kept.WithLabelValues(volume).Set(float64(kept))
	r.runSeconds.WithLabelValues(volume).Set(took.Seconds())
	r.lastSuccess.WithLabelValues(volume).Set(float64(at.Unix()))
}

// VolumeFailed records a run that stopped at stage.
func (r *Recorder) VolumeFailed(volume, stage string, took time.Duration) {
	r.failures.WithLabelValues(volume, stage).Inc()
	r.runSeconds.WithLabelValues(volume).Set(took.Seconds())
}

// WriteTextfile writes all metrics to path for the node_exporter textfile
// collector. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
