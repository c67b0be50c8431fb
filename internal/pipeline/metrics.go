package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess      = "success"
	outcomeEmpty        = "empty"
	outcomeInvalid      = "invalid"
	outcomeFetchError   = "fetch_error"
	outcomeProcessError = "process_error"
	outcomeStoreError   = "store_error"
)

// Metrics groups the Prometheus collectors of the pipeline
type Metrics struct {
	Runs        *prometheus.CounterVec
	RowsRead    prometheus.Counter
	RowsWritten prometheus.Counter
	Duration    prometheus.Histogram
}

// NewMetrics creates the pipeline collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resampler_runs_total",
			Help: "Resampling runs by outcome.",
		}, []string{"outcome"}),
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "resampler_rows_read_total",
			Help: "Raw rows fetched from the source table.",
		}),
		RowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "resampler_rows_written_total",
			Help: "Resampled rows appended to the processed table.",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "resampler_run_duration_seconds",
			Help:    "Wall time of a run from validation to commit.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}

	for _, c := range []prometheus.Collector{m.Runs, m.RowsRead, m.RowsWritten, m.Duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(outcome string, read, written int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(outcome).Inc()
	m.RowsRead.Add(float64(read))
	m.RowsWritten.Add(float64(written))
	m.Duration.Observe(elapsed.Seconds())
}
