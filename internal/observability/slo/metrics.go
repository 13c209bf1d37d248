// Package slo tracks the poll worker's service level objectives.
package slo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SLO targets for the poll worker.
const (
	// PollSuccessSLO is the target share of linked accounts polled without error per cycle.
	PollSuccessSLO = 0.99

	// PollCycleDurationSLO is the target wall time of a full poll cycle in seconds.
	PollCycleDurationSLO = 300.0

	// FeedFreshnessSLO is the target age in seconds of the oldest successful account poll.
	FeedFreshnessSLO = 3600.0
)

// SLO tracking gauges, updated at the end of every poll cycle.
var (
	// SLOPollSuccess tracks the share of accounts polled successfully in the last cycle (0-1)
	SLOPollSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_poll_success_ratio",
			Help: "Share of linked accounts polled successfully in the last cycle, target: 0.99",
		},
	)

	// SLOPollCycleDuration tracks the duration of the last poll cycle in seconds
	SLOPollCycleDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_poll_cycle_duration_seconds",
			Help: "Duration of the last poll cycle in seconds, target: 300",
		},
	)

	// SLOFeedFreshness tracks the age of the stalest account poll in seconds
	SLOFeedFreshness = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_feed_freshness_seconds",
			Help: "Age of the stalest successful account poll in seconds, target: 3600",
		},
	)
)

// UpdatePollSuccess sets the success ratio from a cycle's account counts.
// An empty cycle counts as fully successful.
func UpdatePollSuccess(accounts, failed int) {
	if accounts <= 0 {
		SLOPollSuccess.Set(1)
		return
	}
	SLOPollSuccess.Set(float64(accounts-failed) / float64(accounts))
}

// UpdatePollCycleDuration records the wall time of the last cycle.
func UpdatePollCycleDuration(seconds float64) {
	SLOPollCycleDuration.Set(seconds)
}

// UpdateFeedFreshness records the age of the stalest successful account poll.
func UpdateFeedFreshness(seconds float64) {
	SLOFeedFreshness.Set(seconds)
}

// Met reports whether the last recorded cycle met the success and duration targets.
func Met(successRatio, cycleSeconds float64) bool {
	return successRatio >= PollSuccessSLO && cycleSeconds <= PollCycleDurationSLO
}
