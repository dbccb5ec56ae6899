package dispense

import (
	"github.com/mastercactapus/plateloader/machine"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics is nil when no Registerer is configured; every method is a no-op then.
type metrics struct {
	wells    *prometheus.CounterVec
	tokens   *prometheus.CounterVec
	attempts prometheus.Histogram
	runs     *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}
	f := promauto.With(reg)
	return &metrics{
		wells: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plateloader",
			Name:      "wells_total",
			Help:      "Wells attempted, by result.",
		}, []string{"result"}),
		tokens: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plateloader",
			Name:      "dispenser_tokens_total",
			Help:      "Dispenser tokens received, by kind.",
		}, []string{"token"}),
		attempts: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "plateloader",
			Name:      "well_attempts",
			Help:      "Dispenser tokens handled per well.",
			Buckets:   prometheus.LinearBuckets(1, 1, MaxAttempts),
		}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plateloader",
			Name:      "runs_total",
			Help:      "Finished runs, by final state and result.",
		}, []string{"state", "result"}),
	}
}

func (m *metrics) well(r wellResult) {
	if m == nil {
		return
	}
	switch {
	case r.failed:
		m.wells.WithLabelValues("failed").Inc()
	case r.exhausted:
		m.wells.WithLabelValues("exhausted").Inc()
	default:
		m.wells.WithLabelValues("filled").Inc()
	}
	m.attempts.Observe(float64(r.attempts))
}

func (m *metrics) token(t machine.Token) {
	if m == nil {
		return
	}
	m.tokens.WithLabelValues(t.String()).Inc()
}

func (m *metrics) run(s State, r RunStatus) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(s.String(), r.String()).Inc()
}
