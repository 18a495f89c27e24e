package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors shared by every background job.
type Metrics struct {
	runs         *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	lastSuccess  *prometheus.GaugeVec
	itemFailures *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers job collectors on registerer, or once on the default
// registerer when it is nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer != nil {
		return register(registerer)
	}
	defaultOnce.Do(func() { defaultMetrics = register(prometheus.DefaultRegisterer) })
	return defaultMetrics
}

func register(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commesse_jobs_total",
			Help: "Job runs by job name and outcome.",
		}, []string{"job", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "commesse_job_duration_seconds",
			Help:    "Wall time of job runs.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "commesse_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run per job.",
		}, []string{"job"}),
		itemFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commesse_job_item_failures_total",
			Help: "Items skipped by batch jobs after a per-item failure.",
		}, []string{"job"}),
	}
	registerer.MustRegister(m.runs, m.duration, m.lastSuccess, m.itemFailures)
	return m
}

// Tracker times one job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track starts timing a run of job. A nil receiver yields an inert tracker.
func (m *Metrics) Track(job string) *Tracker {
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End records the outcome and returns err unchanged.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	now := time.Now()
	t.metrics.duration.WithLabelValues(t.job).Observe(now.Sub(t.start).Seconds())
	if err != nil {
		t.metrics.runs.WithLabelValues(t.job, "failure").Inc()
		return err
	}
	t.metrics.runs.WithLabelValues(t.job, "success").Inc()
	t.metrics.lastSuccess.WithLabelValues(t.job).Set(float64(now.Unix()))
	return nil
}

// AddItemFailures counts items a batch job could not process while the run
// itself carried on.
func (m *Metrics) AddItemFailures(job string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.itemFailures.WithLabelValues(job).Add(float64(count))
}
