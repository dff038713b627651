package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// AuthMetrics counts sign-in attempts by method. It satisfies the session
// controller's Recorder. Calls on a nil *AuthMetrics are no-ops.
type AuthMetrics struct {
	AttemptsTotal         *prometheus.CounterVec
	AttemptsRejectedTotal *prometheus.CounterVec
	OutcomesTotal         *prometheus.CounterVec
	InProgress            prometheus.Gauge
}

// New creates the collectors and registers them with reg. Collectors that
// are already registered are reused. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) (*AuthMetrics, error) {
	m := &AuthMetrics{
		AttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "handyman",
			Subsystem: "auth",
			Name:      "attempts_total",
			Help:      "Sign-in attempts started, by method",
		}, []string{"method"}),
		AttemptsRejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "handyman",
			Subsystem: "auth",
			Name:      "attempts_rejected_total",
			Help:      "Sign-in attempts refused because another was in progress, by method",
		}, []string{"method"}),
		OutcomesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "handyman",
			Subsystem: "auth",
			Name:      "outcomes_total",
			Help:      "Sign-in attempts finished, by method and result",
		}, []string{"method", "result"}),
		InProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "handyman",
			Subsystem: "auth",
			Name:      "attempt_in_progress",
			Help:      "1 while a sign-in attempt is running",
		}),
	}

	if reg == nil {
		return m, nil
	}

	var err error
	if m.AttemptsTotal, err = register(reg, m.AttemptsTotal); err != nil {
		return nil, err
	}
	if m.AttemptsRejectedTotal, err = register(reg, m.AttemptsRejectedTotal); err != nil {
		return nil, err
	}
	if m.OutcomesTotal, err = register(reg, m.OutcomesTotal); err != nil {
		return nil, err
	}
	if m.InProgress, err = register(reg, m.InProgress); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *AuthMetrics) AttemptStarted(method string) {
	if m == nil {
		return
	}
	m.AttemptsTotal.WithLabelValues(method).Inc()
	m.InProgress.Set(1)
}

func (m *AuthMetrics) AttemptRejected(method string) {
	if m == nil {
		return
	}
	m.AttemptsRejectedTotal.WithLabelValues(method).Inc()
}

func (m *AuthMetrics) AttemptFinished(method, result string) {
	if m == nil {
		return
	}
	m.OutcomesTotal.WithLabelValues(method, result).Inc()
	m.InProgress.Set(0)
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return c, err
}
