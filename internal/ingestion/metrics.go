package ingestion

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rpattn/munimport/internal/domain"
)

// Metrics exports import counters. A nil *Metrics records nothing.
type Metrics struct {
	imports       *prometheus.CounterVec
	failures      *prometheus.CounterVec
	rowsInserted  *prometheus.CounterVec
	rowsFailed    *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "munimport",
			Name:      "imports_total",
			Help:      "Finished imports by table and terminal status.",
		}, []string{"table", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "munimport",
			Name:      "import_failures_total",
			Help:      "Imports aborted by a fatal error, by stage.",
		}, []string{"stage"}),
		rowsInserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "munimport",
			Name:      "rows_inserted_total",
			Help:      "Rows written to destination tables.",
		}, []string{"table"}),
		rowsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "munimport",
			Name:      "rows_failed_total",
			Help:      "Rows lost to failed batch inserts.",
		}, []string{"table"}),
		batchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "munimport",
			Name:      "batch_insert_duration_seconds",
			Help:      "Time spent in one bulk insert.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"table"}),
	}
	if reg != nil {
		reg.MustRegister(m.imports, m.failures, m.rowsInserted, m.rowsFailed, m.batchDuration)
	}
	return m
}

func (m *Metrics) observeBatch(table domain.TableType, result domain.BatchResult, took time.Duration) {
	if m == nil {
		return
	}
	m.batchDuration.WithLabelValues(string(table)).Observe(took.Seconds())
	m.rowsInserted.WithLabelValues(string(table)).Add(float64(result.Inserted))
	m.rowsFailed.WithLabelValues(string(table)).Add(float64(result.Errors))
}

func (m *Metrics) observeImport(table domain.TableType, status domain.IngestionStatus) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues(string(table), string(status)).Inc()
}

func (m *Metrics) observeFailure(stage Stage) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(string(stage)).Inc()
}
