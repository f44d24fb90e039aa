package ordering

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation results used as the "result" label.
const (
	resultMoved = "moved"
	resultNoop  = "noop"
	resultError = "error"
	// position computed for a row the caller has yet to insert
	resultPlanned = "planned"
)

// Metrics collects Prometheus metrics for list operations.
// A nil *Metrics records nothing.
type Metrics struct {
	operations *prometheus.CounterVec
	shifted    *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics registers the collectors on registry, or on the default
// registerer when registry is nil.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ordering_moves_total",
				Help: "List operations by outcome",
			},
			[]string{"op", "result"},
		),
		shifted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ordering_shifted_rows_total",
				Help: "Rows renumbered by bulk shifts and swaps",
			},
			[]string{"op"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ordering_operation_duration_seconds",
				Help:    "List operation duration in seconds, transaction included",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"op"},
		),
	}
}

func (m *Metrics) record(op, result string, shifted int64, d time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, result).Inc()
	if shifted > 0 {
		m.shifted.WithLabelValues(op).Add(float64(shifted))
	}
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}
