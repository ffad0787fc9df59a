package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts domain events seen by the API.
type Metrics struct {
	authEvents   *prometheus.CounterVec
	messagesSent prometheus.Counter
	messagesRead prometheus.Counter
}

// NewMetrics registers the API collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		authEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hush",
			Subsystem: "auth",
			Name:      "events_total",
			Help:      "Authentication events by outcome.",
		}, []string{"event"}),
		messagesSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: "hush",
			Subsystem: "messages",
			Name:      "sent_total",
			Help:      "Messages accepted by the store.",
		}),
		messagesRead: f.NewCounter(prometheus.CounterOpts{
			Namespace: "hush",
			Subsystem: "messages",
			Name:      "read_total",
			Help:      "Successful mark-read calls, including repeats.",
		}),
	}
}

func (m *Metrics) authEvent(event string) {
	if m == nil {
		return
	}
	m.authEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) sent() {
	if m == nil {
		return
	}
	m.messagesSent.Inc()
}

func (m *Metrics) read() {
	if m == nil {
		return
	}
	m.messagesRead.Inc()
}
