package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TransitionMetrics counts state-machine activity across orders and
// deliveries, including transitions refused by guards.
type TransitionMetrics struct {
	orderTransitions    *prometheus.CounterVec
	deliveryTransitions *prometheus.CounterVec
	refused             *prometheus.CounterVec
}

// NewTransitionMetrics registers the transition counters on the provided registerer.
func NewTransitionMetrics(reg prometheus.Registerer) *TransitionMetrics {
	if reg == nil {
		return &TransitionMetrics{}
	}
	orderTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Committed order status transitions.",
	}, []string{"from", "to"})
	deliveryTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_status_transitions_total",
		Help: "Committed delivery status transitions.",
	}, []string{"from", "to"})
	refused := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transition_refused_total",
		Help: "Transitions refused by machine guards.",
	}, []string{"machine", "code"})
	reg.MustRegister(orderTransitions, deliveryTransitions, refused)
	return &TransitionMetrics{
		orderTransitions:    orderTransitions,
		deliveryTransitions: deliveryTransitions,
		refused:             refused,
	}
}

// IncOrderTransition records a committed order transition.
func (m *TransitionMetrics) IncOrderTransition(from, to string) {
	if m == nil || m.orderTransitions == nil {
		return
	}
	m.orderTransitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncDeliveryTransition records a committed delivery transition.
func (m *TransitionMetrics) IncDeliveryTransition(from, to string) {
	if m == nil || m.deliveryTransitions == nil {
		return
	}
	m.deliveryTransitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncRefused records a transition blocked by a guard.
func (m *TransitionMetrics) IncRefused(machine, code string) {
	if m == nil || m.refused == nil {
		return
	}
	m.refused.WithLabelValues(normalizeLabel(machine), normalizeLabel(code)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
