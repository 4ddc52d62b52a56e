package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector aggregates the recorder's operational metrics behind a private
// registry exposed on /metrics.
type Collector struct {
	registry *prometheus.Registry

	activeRecordings  prometheus.Gauge
	recordingsStarted *prometheus.CounterVec
	recordingsStopped prometheus.Counter
	bytesRecorded     prometheus.Counter
	spawnFailures     prometheus.Counter
	quotaDenials      prometheus.Counter
	conflictDenials   prometheus.Counter
	sweepDeleted      prometheus.Counter
	sweepFreedBytes   prometheus.Counter
	motionEvents      prometheus.Counter

	httpDuration *prometheus.HistogramVec
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{registry: reg}

	c.activeRecordings = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dvr_recordings_active",
		Help: "Number of recordings currently in progress",
	})
	c.recordingsStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dvr_recordings_started_total",
		Help: "Recordings started, by trigger mode",
	}, []string{"mode"})
	c.recordingsStopped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dvr_recordings_stopped_total",
		Help: "Recordings finalized",
	})
	c.bytesRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dvr_recorded_bytes_total",
		Help: "Bytes written by finalized recordings",
	})
	c.spawnFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dvr_encoder_spawn_failures_total",
		Help: "Encoder processes that failed to start",
	})
	c.quotaDenials = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dvr_quota_denials_total",
		Help: "Start requests rejected for exceeding the storage quota",
	})
	c.conflictDenials = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dvr_conflict_denials_total",
		Help: "Start requests rejected because the camera was already recording",
	})
	c.sweepDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dvr_sweep_deleted_total",
		Help: "Recordings removed by retention sweeps",
	})
	c.sweepFreedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dvr_sweep_freed_bytes_total",
		Help: "Bytes reclaimed by retention sweeps",
	})
	c.motionEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dvr_motion_events_total",
		Help: "Motion events ingested",
	})
	c.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dvr_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	reg.MustRegister(
		c.activeRecordings, c.recordingsStarted, c.recordingsStopped,
		c.bytesRecorded, c.spawnFailures, c.quotaDenials, c.conflictDenials,
		c.sweepDeleted, c.sweepFreedBytes, c.motionEvents, c.httpDuration,
	)

	return c
}

// Handler serves the private registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Nil-safe recording hooks: a nil Collector disables metrics, which keeps
// test wiring small.

func (c *Collector) RecordingStarted(mode string) {
	if c == nil {
		return
	}
	c.activeRecordings.Inc()
	c.recordingsStarted.WithLabelValues(mode).Inc()
}

func (c *Collector) RecordingStopped(bytes int64) {
	if c == nil {
		return
	}
	c.activeRecordings.Dec()
	c.recordingsStopped.Inc()
	if bytes > 0 {
		c.bytesRecorded.Add(float64(bytes))
	}
}

func (c *Collector) SpawnFailed() {
	if c == nil {
		return
	}
	c.spawnFailures.Inc()
}

func (c *Collector) QuotaDenied() {
	if c == nil {
		return
	}
	c.quotaDenials.Inc()
}

func (c *Collector) ConflictDenied() {
	if c == nil {
		return
	}
	c.conflictDenials.Inc()
}

func (c *Collector) SweepCompleted(deleted int, freedBytes int64) {
	if c == nil {
		return
	}
	c.sweepDeleted.Add(float64(deleted))
	c.sweepFreedBytes.Add(float64(freedBytes))
}

func (c *Collector) MotionEvent() {
	if c == nil {
		return
	}
	c.motionEvents.Inc()
}

func (c *Collector) ObserveHTTP(method, route, status string, seconds float64) {
	if c == nil {
		return
	}
	c.httpDuration.WithLabelValues(method, route, status).Observe(seconds)
}
