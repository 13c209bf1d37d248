package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// authzRequestsTotal counts token checks by result: success, missing,
	// invalid, expired.
	authzRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_authz_requests_total",
			Help: "Bearer token checks on protected endpoints by result",
		},
		[]string{"result"},
	)

	authzCheckDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "api_authz_check_duration_seconds",
			Help:    "Bearer token check duration",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01},
		},
	)
)

// RecordAuthzResult counts a token check.
func RecordAuthzResult(result string) {
	authzRequestsTotal.WithLabelValues(result).Inc()
}

// RecordAuthzCheckDuration observes a token check duration.
func RecordAuthzCheckDuration(seconds float64) {
	authzCheckDuration.Observe(seconds)
}
