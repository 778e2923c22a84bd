package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// SessionsOpenedTotal counts pricing sessions opened, by record kind.
	SessionsOpenedTotal *prometheus.CounterVec
	// SessionMutationsTotal counts session edits by kind, operation and outcome.
	SessionMutationsTotal *prometheus.CounterVec
	// GatewayCallsTotal counts record fetches against the back-office gateway.
	GatewayCallsTotal *prometheus.CounterVec
	// GatewayCallDuration records gateway fetch latency in milliseconds.
	GatewayCallDuration *prometheus.HistogramVec
	// QuotesComputedTotal counts stateless quote computations.
	QuotesComputedTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
// Only the first call has any effect.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		SessionsOpenedTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_opened_total",
			Help:      "Count of pricing sessions opened by record kind.",
		}, []string{"kind"}))
		SessionMutationsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_mutations_total",
			Help:      "Count of pricing session mutations by operation and outcome.",
		}, []string{"kind", "op", "result"}))
		GatewayCallsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_calls_total",
			Help:      "Count of back-office gateway calls by method and outcome.",
		}, []string{"method", "result"}))
		GatewayCallDuration = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_call_duration_ms",
			Help:      "Latency of back-office gateway calls in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"method"}))
		QuotesComputedTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_computed_total",
			Help:      "Count of stateless quotes computed, split by whether installments were supplied.",
		}, []string{"deposit"}))
	})
}

// ObserveSessionOpened increments the opened counter when domain metrics are registered.
func ObserveSessionOpened(kind string) {
	if SessionsOpenedTotal != nil {
		SessionsOpenedTotal.WithLabelValues(kind).Inc()
	}
}

// ObserveSessionMutation records the outcome of one session edit.
func ObserveSessionMutation(kind, op string, err error) {
	if SessionMutationsTotal != nil {
		SessionMutationsTotal.WithLabelValues(kind, op, resultLabel(err)).Inc()
	}
}

// ObserveGatewayCall records a gateway call outcome and its latency.
func ObserveGatewayCall(method string, millis float64, err error) {
	if GatewayCallsTotal != nil {
		GatewayCallsTotal.WithLabelValues(method, resultLabel(err)).Inc()
	}
	if GatewayCallDuration != nil {
		GatewayCallDuration.WithLabelValues(method).Observe(millis)
	}
}

// ObserveQuote increments the quote counter.
func ObserveQuote(withDeposit bool) {
	if QuotesComputedTotal == nil {
		return
	}
	label := "false"
	if withDeposit {
		label = "true"
	}
	QuotesComputedTotal.WithLabelValues(label).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
