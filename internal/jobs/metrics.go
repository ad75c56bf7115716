package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for background jobs and next-check
// scheduling.
type Metrics struct {
	runs       *prometheus.CounterVec
	failures   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	nextChecks *prometheus.CounterVec
	lead       prometheus.Histogram
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the job metrics against the provided registerer. When the
// registerer is nil the default Prometheus registerer is used.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker provides lifecycle instrumentation helpers for a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track spawns a tracker for the given job name.
func (m *Metrics) Track(job string) *Tracker {
	if m == nil {
		return &Tracker{job: job, start: time.Now()}
	}
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End finalises the tracker, recording duration, success/failure counts and
// returning the provided error untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
		t.metrics.failures.WithLabelValues(t.job).Inc()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// ObserveNextCheck counts a next-check evaluation by the source that won it
// and records how far ahead of now the next check lies.
func (m *Metrics) ObserveNextCheck(source string, lead time.Duration) {
	if m == nil {
		return
	}
	if source == "" {
		source = "none"
	}
	m.nextChecks.WithLabelValues(source).Inc()
	if lead >= 0 {
		m.lead.Observe(lead.Seconds())
	}
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lease_jobs_total",
		Help: "Total job executions partitioned by job name and status.",
	}, []string{"job", "status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lease_jobs_failures_total",
		Help: "Total failures observed for background jobs.",
	}, []string{"job"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lease_job_duration_seconds",
		Help:    "Duration in seconds of background job executions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	nextChecks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lease_next_check_evaluations_total",
		Help: "Next-check evaluations grouped by the winning deadline source.",
	}, []string{"source"})
	lead := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lease_next_check_lead_seconds",
		Help:    "Distance between evaluation time and the scheduled next check.",
		Buckets: prometheus.ExponentialBuckets(60, 4, 10),
	})
	registerer.MustRegister(runs, failures, duration, nextChecks, lead)
	return &Metrics{runs: runs, failures: failures, duration: duration, nextChecks: nextChecks, lead: lead}
}
