package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartOpsTotal counts cart ledger mutations by operation.
	CartOpsTotal *prometheus.CounterVec
	// CartSaveFailures counts failed cart snapshot writes.
	CartSaveFailures prometheus.Counter
	// CheckoutTotal counts checkout outcomes.
	CheckoutTotal *prometheus.CounterVec
	// PaymentWebhookTotal counts processed payment webhooks by outcome.
	PaymentWebhookTotal *prometheus.CounterVec
	// EmailSendTotal counts transactional email delivery outcomes.
	EmailSendTotal *prometheus.CounterVec
	// BreakerState exposes the current circuit breaker state per target.
	BreakerState *prometheus.GaugeVec
	// BreakerTransitions counts breaker state transitions.
	BreakerTransitions *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_operations_total",
			Help:      "Count of cart ledger mutations by operation.",
		}, []string{"op"})
		saveFailures := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_save_failures_total",
			Help:      "Number of cart snapshot writes that failed.",
		})
		CheckoutTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Count of checkout attempts by result.",
		}, []string{"result"})
		PaymentWebhookTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_webhook_total",
			Help:      "Count of processed payment webhooks by outcome.",
		}, []string{"provider", "result"})
		EmailSendTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "email_send_total",
			Help:      "Count of transactional email delivery outcomes.",
		}, []string{"result"})
		BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Circuit breaker state per target (0 closed, 1 open, 2 half-open).",
		}, []string{"target"})
		BreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transitions_total",
			Help:      "Count of circuit breaker state transitions.",
		}, []string{"target", "from", "to"})

		registerCounterVec(reg, &CartOpsTotal)
		registerCounter(reg, &saveFailures)
		CartSaveFailures = saveFailures
		registerCounterVec(reg, &CheckoutTotal)
		registerCounterVec(reg, &PaymentWebhookTotal)
		registerCounterVec(reg, &EmailSendTotal)
		registerGaugeVec(reg, &BreakerState)
		registerCounterVec(reg, &BreakerTransitions)
	})
}

func registerGaugeVec(reg prometheus.Registerer, g **prometheus.GaugeVec) {
	if err := reg.Register(*g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				*g = existing
				return
			}
		}
		panic(err)
	}
}
