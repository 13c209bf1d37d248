// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provider API metrics track outbound calls to the social networks
var (
	// ProviderRequestsTotal counts provider API calls by provider and outcome class
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Total number of provider API requests",
		},
		[]string{"provider", "status"}, // status: 2xx, 3xx, 4xx, 5xx, error, rejected
	)

	// ProviderRequestDuration measures provider API latency in seconds
	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "Provider API request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"provider"},
	)

	// ProviderAuthErrorsTotal counts OAuth exceptions raised for linked accounts
	ProviderAuthErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_auth_errors_total",
			Help: "Total number of OAuth errors by provider and code",
		},
		[]string{"provider", "code"},
	)

	// ProviderTokenRefreshTotal counts access token refresh attempts
	ProviderTokenRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_token_refresh_total",
			Help: "Total number of access token refreshes",
		},
		[]string{"provider", "result"}, // result: success, failure
	)

	// ProviderItemsDroppedTotal counts raw items a strategy declined to map
	ProviderItemsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_items_dropped_total",
			Help: "Total number of provider items dropped as unsupported",
		},
		[]string{"provider", "kind"}, // kind: post, comment, notification
	)
)

// Poll metrics track the background feed poller
var (
	// PollCyclesTotal counts completed poll cycles
	PollCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poll_cycles_total",
			Help: "Total number of poll cycles",
		},
		[]string{"result"}, // result: success, partial, failure
	)

	// PollAccountDuration measures the time spent polling one linked account
	PollAccountDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poll_account_duration_seconds",
			Help:    "Time taken to poll a linked account",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"provider"},
	)

	// PollItemsTotal counts normalized items collected by the poller
	PollItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poll_items_total",
			Help: "Total number of normalized items collected",
		},
		[]string{"provider", "kind"}, // kind: post, notification
	)

	// PollErrorsTotal counts failed account polls
	PollErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poll_errors_total",
			Help: "Total number of account poll errors",
		},
		[]string{"provider", "error_type"},
	)
)

// Database metrics track database performance
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)
)
