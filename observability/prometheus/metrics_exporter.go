package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/hlavacs/vgjs-go/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors: queue depth
// gauges per named queue (spec.md §4.A central/recycle/local), a job
// duration histogram and panic counter, and a coroutines-in-flight gauge
// (spec.md §4.D lifecycle). A Pool is constructed with one of these as its
// PoolConfig.Metrics to get the hot-path recordings for free.
type MetricsExporter struct {
	jobDurationSeconds *prom.HistogramVec
	jobPanicTotal      prom.Counter
	queueDepth         *prom.GaugeVec
	coroutinesInFlight prom.Gauge
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "vgjs"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Wall-clock time a single unit Run invocation occupied a worker.",
		Buckets:   buckets,
	}, []string{"kind"})
	panicTotal := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "job_panic_total",
		Help:      "Total number of units that panicked during Run.",
	})
	queueDepthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Current queue depth, labeled by queue name (central, recycle, local:<n>).",
	}, []string{"queue"})
	coroutinesInFlight := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "coroutines_in_flight",
		Help:      "Coroutines created but not yet at final suspend.",
	})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if panicTotal, err = registerCollector(reg, panicTotal); err != nil {
		return nil, err
	}
	if queueDepthVec, err = registerCollector(reg, queueDepthVec); err != nil {
		return nil, err
	}
	if coroutinesInFlight, err = registerCollector(reg, coroutinesInFlight); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		jobDurationSeconds: durationVec,
		jobPanicTotal:      panicTotal,
		queueDepth:         queueDepthVec,
		coroutinesInFlight: coroutinesInFlight,
	}, nil
}

// RecordJobDuration implements core.Metrics.
func (m *MetricsExporter) RecordJobDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.jobDurationSeconds.WithLabelValues("unit").Observe(d.Seconds())
}

// RecordJobPanic implements core.Metrics.
func (m *MetricsExporter) RecordJobPanic() {
	if m == nil {
		return
	}
	m.jobPanicTotal.Inc()
}

// RecordQueueDepth implements core.Metrics.
func (m *MetricsExporter) RecordQueueDepth(queue string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(normalizeLabel(queue, "unknown")).Set(float64(depth))
}

// IncCoroutinesInFlight implements core.Metrics.
func (m *MetricsExporter) IncCoroutinesInFlight() {
	if m == nil {
		return
	}
	m.coroutinesInFlight.Inc()
}

// DecCoroutinesInFlight implements core.Metrics.
func (m *MetricsExporter) DecCoroutinesInFlight() {
	if m == nil {
		return
	}
	m.coroutinesInFlight.Dec()
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
