package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ruteri/token-governance/governance"
	"github.com/ruteri/token-governance/interfaces"
)

// GovernanceMetrics records governance calls, emitted events and snapshot saves.
// A nil *GovernanceMetrics is a valid no-op recorder.
type GovernanceMetrics struct {
	operations    *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	events        *prometheus.CounterVec
	lastSeq       prometheus.Gauge
	snapshotSaves *prometheus.CounterVec
}

var _ interfaces.Emitter = (*GovernanceMetrics)(nil)

// NewGovernanceMetrics creates the governance collectors and registers them with reg.
func NewGovernanceMetrics(namespace string, reg prometheus.Registerer) (*GovernanceMetrics, error) {
	m := &GovernanceMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "governance",
			Name:      "operations_total",
			Help:      "Governance operations segmented by operation and outcome code.",
		}, []string{"op", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "governance",
			Name:      "operation_duration_seconds",
			Help:      "Latency distribution of governance operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "governance",
			Name:      "events_total",
			Help:      "Emitted governance events segmented by type.",
		}, []string{"type"}),
		lastSeq: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "governance",
			Name:      "last_event_seq",
			Help:      "Sequence number of the most recent governance event.",
		}),
		snapshotSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "governance",
			Name:      "snapshot_saves_total",
			Help:      "Snapshot save attempts segmented by outcome.",
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{m.operations, m.latency, m.events, m.lastSeq, m.snapshotSaves} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveOperation records the outcome of a governance call.
// Successful calls are recorded under code "ok", errors without a governance code under "error".
func (m *GovernanceMetrics) ObserveOperation(op string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, outcomeCode(err)).Inc()
	m.latency.WithLabelValues(op).Observe(duration.Seconds())
}

// Emit counts an event. It implements interfaces.Emitter.
func (m *GovernanceMetrics) Emit(rec interfaces.EventRecord) {
	if m == nil || rec.Event == nil {
		return
	}
	m.events.WithLabelValues(string(rec.Event.EventType())).Inc()
	m.lastSeq.Set(float64(rec.Seq))
}

// ObserveSnapshotSave records a snapshot save attempt.
func (m *GovernanceMetrics) ObserveSnapshotSave(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.snapshotSaves.WithLabelValues("error").Inc()
		return
	}
	m.snapshotSaves.WithLabelValues("ok").Inc()
}

func outcomeCode(err error) string {
	if err == nil {
		return "ok"
	}
	var gerr *governance.Error
	if errors.As(err, &gerr) {
		return string(gerr.Code)
	}
	return "error"
}
