package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hosted_checkout"

// Checkout results.
const (
	CheckoutCreated  = "created"
	CheckoutReplayed = "replayed"
	CheckoutRejected = "rejected"
	CheckoutConflict = "conflict"
	CheckoutError    = "error"
)

var (
	checkoutsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkouts_total",
		Help:      "Checkout creation requests by result",
	}, []string{"result"})
	paymentOutcomesMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_outcomes_total",
		Help:      "Classified payment outcomes by status",
	}, []string{"status"})
	gatewayDurationMetric = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_request_duration_seconds",
		Help:      "Latency of calls to the payment gateway",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)

func TickCheckout(result string) {
	checkoutsMetric.WithLabelValues(result).Inc()
}

func TickPaymentOutcome(status string) {
	paymentOutcomesMetric.WithLabelValues(status).Inc()
}

func ObserveGatewayRequest(operation string, d time.Duration) {
	gatewayDurationMetric.WithLabelValues(operation).Observe(d.Seconds())
}
