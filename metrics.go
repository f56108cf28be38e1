package mongolog

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "mongolog"

// Metrics holds Prometheus counters for the record pipeline and the file manager.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// RecordsWritten counts lines handed to a sink. Labels: severity
	RecordsWritten *prometheus.CounterVec
	// ValidationErrors counts rejected entries. Labels: field
	ValidationErrors *prometheus.CounterVec
	// AttrOutcomes counts attribute serialization results. Labels: outcome
	AttrOutcomes *prometheus.CounterVec
	// SinkErrors counts failed writes to a sink
	SinkErrors prometheus.Counter
	// FilesCreated counts writers created by a Manager. Labels: sink (file, discard)
	FilesCreated *prometheus.CounterVec
	// FilesDeleted counts files removed by cleanup. Labels: policy (age, count, both)
	FilesDeleted *prometheus.CounterVec
	// DeletionErrors counts files that cleanup failed to remove
	DeletionErrors prometheus.Counter
}

// NewMetrics creates the counters and registers them with reg. A nil reg skips
// registration.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		RecordsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "writer",
			Name:      "records_written_total",
			Help:      "Log records written to a sink.",
		}, []string{"severity"}),
		ValidationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "writer",
			Name:      "validation_errors_total",
			Help:      "Log entries rejected by validation.",
		}, []string{"field"}),
		AttrOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "writer",
			Name:      "attr_outcomes_total",
			Help:      "Attribute serialization outcomes.",
		}, []string{"outcome"}),
		SinkErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "writer",
			Name:      "sink_errors_total",
			Help:      "Failed writes to the underlying sink.",
		}),
		FilesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "manager",
			Name:      "files_created_total",
			Help:      "Log writers created, by sink kind.",
		}, []string{"sink"}),
		FilesDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "manager",
			Name:      "files_deleted_total",
			Help:      "Log files removed by cleanup, by retention policy.",
		}, []string{"policy"}),
		DeletionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "manager",
			Name:      "deletion_errors_total",
			Help:      "Log files cleanup failed to remove.",
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{
			m.RecordsWritten, m.ValidationErrors, m.AttrOutcomes, m.SinkErrors,
			m.FilesCreated, m.FilesDeleted, m.DeletionErrors,
		} {
			if err := reg.Register(c); err != nil {
				return nil, fmtErrorf("failed to register metrics: %w", err)
			}
		}
	}
	return m, nil
}

func (m *Metrics) recordWritten(s Severity) {
	if m == nil {
		return
	}
	m.RecordsWritten.WithLabelValues(string(s)).Inc()
}

func (m *Metrics) validationFailed(field string) {
	if m == nil {
		return
	}
	m.ValidationErrors.WithLabelValues(field).Inc()
}

func (m *Metrics) attrSerialized(o AttrOutcome) {
	if m == nil {
		return
	}
	m.AttrOutcomes.WithLabelValues(o.String()).Inc()
}

func (m *Metrics) sinkFailed() {
	if m == nil {
		return
	}
	m.SinkErrors.Inc()
}

func (m *Metrics) fileCreated(discard bool) {
	if m == nil {
		return
	}
	kind := "file"
	if discard {
		kind = "discard"
	}
	m.FilesCreated.WithLabelValues(kind).Inc()
}

func (m *Metrics) fileDeleted(policy string) {
	if m == nil {
		return
	}
	m.FilesDeleted.WithLabelValues(policy).Inc()
}

func (m *Metrics) deletionFailed() {
	if m == nil {
		return
	}
	m.DeletionErrors.Inc()
}
