package resilience

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// BreakerState exposes the current state per target: 0=closed, 1=open, 2=half-open.
	BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "breaker_state",
		Help: "Current breaker state: 0=closed,1=open,2=half-open",
	}, []string{"target"})
	// BreakerTransitions counts state changes per target.
	BreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "breaker_transition_total",
		Help: "Count of breaker state transitions",
	}, []string{"target", "from", "to"})
	// RetryAttempts counts outbound attempts made by HTTPClient.
	RetryAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbound_http_attempts_total",
		Help: "Outbound HTTP attempts by target and outcome",
	}, []string{"target", "outcome"})
)

// MustRegisterMetrics adds the resilience collectors to reg. Registering on
// a registry that already holds them is a no-op.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{BreakerState, BreakerTransitions, RetryAttempts} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			panic(fmt.Errorf("register resilience metric: %w", err))
		}
	}
}
