package observability

import (
	"chat-relay/domain"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "chat_relay"

// Sweep outcomes, used as the "outcome" label of SweepTicks.
const (
	SweepOK      = "ok"
	SweepPartial = "partial"
	SweepSkipped = "skipped"
)

// Metrics groups the relay collectors.
// Collectors are registered on the given Registerer so tests can use a private registry.
type Metrics struct {
	Joins         prometheus.Counter
	Evictions     prometheus.Counter
	Messages      *prometheus.CounterVec
	SweepTicks    *prometheus.CounterVec
	SweepDuration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Joins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "participants_joined_total",
			Help:      "Participants successfully registered.",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "participants_evicted_total",
			Help:      "Participants removed by the presence sweeper.",
		}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_appended_total",
			Help:      "Messages appended to the log, by kind.",
		}, []string{"kind"}),
		SweepTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_ticks_total",
			Help:      "Presence sweeps, by outcome.",
		}, []string{"outcome"}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Time spent in one presence sweep.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.Joins, m.Evictions, m.Messages, m.SweepTicks, m.SweepDuration)
	return m
}

func (m *Metrics) MessageAppended(kind domain.Kind) {
	m.Messages.WithLabelValues(string(kind)).Inc()
}
