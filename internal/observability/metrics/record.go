package metrics

import (
	"strconv"
	"time"
)

// RecordProviderRequest records one outbound provider API call.
// statusCode 0 means the request never produced a response.
func RecordProviderRequest(provider string, statusCode int, duration time.Duration) {
	ProviderRequestsTotal.WithLabelValues(provider, StatusClass(statusCode)).Inc()
	ProviderRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordProviderRejected records a call short-circuited by the provider's circuit breaker.
func RecordProviderRejected(provider string) {
	ProviderRequestsTotal.WithLabelValues(provider, "rejected").Inc()
}

// StatusClass buckets an HTTP status code into 2xx/3xx/4xx/5xx, or "error" when there is none.
func StatusClass(statusCode int) string {
	if statusCode < 100 || statusCode > 599 {
		return "error"
	}
	return strconv.Itoa(statusCode/100) + "xx"
}

// RecordAuthError records an OAuth exception for a provider.
func RecordAuthError(provider string, code int) {
	ProviderAuthErrorsTotal.WithLabelValues(provider, strconv.Itoa(code)).Inc()
}

// RecordTokenRefresh records the result of an access token refresh.
func RecordTokenRefresh(provider string, success bool) {
	ProviderTokenRefreshTotal.WithLabelValues(provider, result(success)).Inc()
}

// RecordItemsDropped records raw items a strategy returned no normalized value for.
func RecordItemsDropped(provider, kind string, count int) {
	if count <= 0 {
		return
	}
	ProviderItemsDroppedTotal.WithLabelValues(provider, kind).Add(float64(count))
}

// RecordPollCycle records the outcome of a full poll cycle.
// A cycle with some failed accounts is "partial".
func RecordPollCycle(accounts, failed int) {
	switch {
	case failed == 0:
		PollCyclesTotal.WithLabelValues("success").Inc()
	case failed < accounts:
		PollCyclesTotal.WithLabelValues("partial").Inc()
	default:
		PollCyclesTotal.WithLabelValues("failure").Inc()
	}
}

// RecordAccountPoll records the items collected from one linked account.
func RecordAccountPoll(provider string, duration time.Duration, posts, notifications int) {
	PollAccountDuration.WithLabelValues(provider).Observe(duration.Seconds())
	if posts > 0 {
		PollItemsTotal.WithLabelValues(provider, "post").Add(float64(posts))
	}
	if notifications > 0 {
		PollItemsTotal.WithLabelValues(provider, "notification").Add(float64(notifications))
	}
}

// RecordPollError records a failed account poll.
func RecordPollError(provider, errorType string) {
	PollErrorsTotal.WithLabelValues(provider, errorType).Inc()
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "list_user_providers", "update_tokens").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
