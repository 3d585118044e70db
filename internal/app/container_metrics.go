package app

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"pharmadispatch/internal/metrics"
)

type metricsOut struct {
	dig.Out

	RateLimitExceededTotal prometheus.Counter `name:"rate_limit_exceeded_total"`
	NotifyRetriesTotal     prometheus.Counter `name:"notify_retries_total"`
	SettlementsTotal       prometheus.Counter `name:"settlements_total"`
	AssignmentOutcomes     *prometheus.CounterVec
}

// provideMetrics registers the service counters. Re-registering (container
// rebuilt in the same process) reuses the collector already registered.
func provideMetrics() (metricsOut, error) {
	rl, err := registerCounter(metrics.NewRateLimitExceededTotal(), "rate_limit_exceeded_total")
	if err != nil {
		return metricsOut{}, err
	}
	nr, err := registerCounter(metrics.NewNotifyRetriesTotal(), "notify_retries_total")
	if err != nil {
		return metricsOut{}, err
	}
	st, err := registerCounter(metrics.NewSettlementsTotal(), "settlements_total")
	if err != nil {
		return metricsOut{}, err
	}
	ao, err := registerCounterVec(metrics.NewAssignmentOutcomesTotal(), "assignment_outcomes_total")
	if err != nil {
		return metricsOut{}, err
	}
	return metricsOut{
		RateLimitExceededTotal: rl,
		NotifyRetriesTotal:     nr,
		SettlementsTotal:       st,
		AssignmentOutcomes:     ao,
	}, nil
}

func registerCounter(c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	return c, nil
}

func registerCounterVec(c *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	return c, nil
}
