package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Subtitle and mux results used as label values.
const (
	ResultPromoted = "promoted"
	ResultMuxed    = "muxed"
	ResultFailed   = "failed"
	ResultSkipped  = "skipped"
	ResultDryRun   = "dry_run"
)

// Recorder holds the counters for one run. A nil Recorder discards
// observations.
type Recorder struct {
	registry *prometheus.Registry

	VideosTotal      *prometheus.CounterVec
	SubtitlesTotal   *prometheus.CounterVec
	SyncDuration     prometheus.Histogram
	MuxTotal         *prometheus.CounterVec
	MuxDuration      *prometheus.HistogramVec
	RunLastTimestamp prometheus.Gauge
	RunExitCode      *prometheus.GaugeVec
}

// New registers the sidecar metrics on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		VideosTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sidecar_videos_total",
				Help: "Video files visited, by command",
			},
			[]string{"command"},
		),
		SubtitlesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sidecar_subtitles_total",
				Help: "Subtitle sync attempts by result",
			},
			[]string{"result"},
		),
		SyncDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sidecar_sync_duration_seconds",
				Help:    "Wall time spent in the external aligner per subtitle",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),
		MuxTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sidecar_mux_total",
				Help: "mkvmerge runs by operation and result",
			},
			[]string{"op", "result"},
		),
		MuxDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sidecar_mux_duration_seconds",
				Help:    "mkvmerge wall time by operation",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 900},
			},
			[]string{"op"},
		),
		RunLastTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sidecar_run_last_timestamp_seconds",
				Help: "Unix time the last run finished",
			},
		),
		RunExitCode: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sidecar_run_exit_code",
				Help: "Exit status of the last run, by command",
			},
			[]string{"command"},
		),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Video counts a visited video file.
func (r *Recorder) Video(command string) {
	if r == nil {
		return
	}
	r.VideosTotal.WithLabelValues(command).Inc()
}

// Subtitle records one sync attempt.
func (r *Recorder) Subtitle(result string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.SubtitlesTotal.WithLabelValues(result).Inc()
	if elapsed > 0 {
		r.SyncDuration.Observe(elapsed.Seconds())
	}
}

// Mux records one mkvmerge run.
func (r *Recorder) Mux(op, result string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.MuxTotal.WithLabelValues(op, result).Inc()
	if elapsed > 0 {
		r.MuxDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	}
}

// Finish stamps the run completion gauges.
func (r *Recorder) Finish(command string, exitCode int, at time.Time) {
	if r == nil {
		return
	}
	r.RunExitCode.WithLabelValues(command).Set(float64(exitCode))
	r.RunLastTimestamp.Set(float64(at.Unix()))
}

// WriteTextfile writes all metrics in the node_exporter textfile format.
// The write is atomic.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
