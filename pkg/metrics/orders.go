package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderMetrics counts lifecycle activity on the order state machine.
type OrderMetrics struct {
	transitions   *prometheus.CounterVec
	guardFailures *prometheus.CounterVec
	payments      *prometheus.CounterVec
}

// NewOrderMetrics registers the order lifecycle metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procureflow",
		Name:      "order_stage_transitions_total",
		Help:      "Completed order stage transitions by target stage.",
	}, []string{"to_stage"})
	guardFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procureflow",
		Name:      "order_guard_failures_total",
		Help:      "Stage transitions rejected by a guard, by guard name.",
	}, []string{"guard"})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procureflow",
		Name:      "order_payments_recorded_total",
		Help:      "Payments recorded against orders, by resulting payment status.",
	}, []string{"payment_status"})
	reg.MustRegister(transitions, guardFailures, payments)
	return &OrderMetrics{
		transitions:   transitions,
		guardFailures: guardFailures,
		payments:      payments,
	}
}

// IncTransition records a completed transition into the given stage.
func (o *OrderMetrics) IncTransition(toStage string) {
	if o == nil || o.transitions == nil {
		return
	}
	o.transitions.WithLabelValues(normalizeLabel(toStage)).Inc()
}

// IncGuardFailure records a rejected transition for the named guard.
func (o *OrderMetrics) IncGuardFailure(guard string) {
	if o == nil || o.guardFailures == nil {
		return
	}
	o.guardFailures.WithLabelValues(normalizeLabel(guard)).Inc()
}

// IncPayment records a payment with the resulting payment status.
func (o *OrderMetrics) IncPayment(paymentStatus string) {
	if o == nil || o.payments == nil {
		return
	}
	o.payments.WithLabelValues(normalizeLabel(paymentStatus)).Inc()
}
