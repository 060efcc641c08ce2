// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Requests counts API requests by endpoint and outcome.
	Requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentvsbuy_requests_total",
			Help: "API requests by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	// Evaluations counts scenario evaluations by contract term.
	Evaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentvsbuy_evaluations_total",
			Help: "Scenario evaluations by contract term",
		},
		[]string{"term"},
	)

	// PriceBelowCost counts evaluations where the advantage was not applicable.
	PriceBelowCost = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rentvsbuy_price_below_cost_total",
			Help: "Evaluations whose purchase price did not exceed the internal real cost",
		},
	)

	// ShareTokens counts share token operations by result.
	ShareTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentvsbuy_share_tokens_total",
			Help: "Share token encode and decode operations",
		},
		[]string{"operation", "result"},
	)

	// RequestDuration observes handler latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rentvsbuy_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)
