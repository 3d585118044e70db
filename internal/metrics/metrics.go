package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewRateLimitExceededTotal returns a Prometheus counter for the number of rejected HTTP requests due to rate limiting
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}

// NewNotifyRetriesTotal returns a Prometheus counter for the number of retry attempts performed by the notification gateway
func NewNotifyRetriesTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notify_retries_total",
		Help: "Total number of retry attempts performed by the notification gateway",
	})
}

// NewAssignmentOutcomesTotal returns a Prometheus counter vector of assignment outcomes labeled by outcome (assigned, no_courier, not_eligible, failed)
func NewAssignmentOutcomesTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignment_outcomes_total",
		Help: "Total number of delivery assignment attempts by outcome",
	}, []string{"outcome"})
}

// NewSettlementsTotal returns a Prometheus counter for the number of completed delivery settlements
func NewSettlementsTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlements_total",
		Help: "Total number of completed delivery settlements",
	})
}
