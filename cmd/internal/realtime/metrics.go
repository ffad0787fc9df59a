package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the hub. A nil *Metrics records nothing.
type Metrics struct {
	connections    prometheus.Gauge
	publishedTotal *prometheus.CounterVec
	droppedTotal   *prometheus.CounterVec
}

// NewMetrics registers the realtime collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "hush",
			Subsystem: "realtime",
			Name:      "connections",
			Help:      "Authenticated WebSocket connections.",
		}),
		publishedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hush",
			Subsystem: "realtime",
			Name:      "events_published_total",
			Help:      "Envelopes queued to clients, by type.",
		}, []string{"type"}),
		droppedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hush",
			Subsystem: "realtime",
			Name:      "events_dropped_total",
			Help:      "Envelopes dropped on full client queues, by type.",
		}, []string{"type"}),
	}
}

func (m *Metrics) connected() {
	if m != nil {
		m.connections.Inc()
	}
}

func (m *Metrics) disconnected() {
	if m != nil {
		m.connections.Dec()
	}
}

func (m *Metrics) published(typ string, n int) {
	if m != nil && n > 0 {
		m.publishedTotal.WithLabelValues(typ).Add(float64(n))
	}
}

func (m *Metrics) dropped(typ string) {
	if m != nil {
		m.droppedTotal.WithLabelValues(typ).Inc()
	}
}
