// Package metrics holds the Prometheus instruments of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ValidationOutcomes counts node validation results by outcome kind.
	ValidationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prooftree_validation_outcomes_total",
		Help: "Node validation outcomes by kind",
	}, []string{"outcome"})

	// LLMRequestDuration observes chat-completion latency.
	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prooftree_llm_request_duration_seconds",
		Help:    "Chat-completion request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2m
	}, []string{"provider", "operation", "result"})

	// AgentRunDuration observes agentic prove-run latency including polling.
	AgentRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prooftree_agent_run_duration_seconds",
		Help:    "Agent run duration in seconds, submission to terminal status",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~17m
	}, []string{"status"})

	// AgentRunPolls counts status polls issued against agent runs.
	AgentRunPolls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prooftree_agent_run_polls_total",
		Help: "Agent run status polls",
	})

	// HTTPRequests counts served requests by route pattern and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prooftree_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"method", "route", "status"})
)
