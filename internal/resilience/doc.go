// Package resilience groups the fault tolerance helpers used around provider
// APIs and the database.
//
//   - circuitbreaker: one breaker per provider, shared by every strategy
//     instance the registry builds, so a provider outage fails fast.
//   - retry: exponential backoff with jitter. Strategies never retry; the
//     poll worker retries whole polls on rate limits and transport failures.
//
// Usage:
//
//	cb := circuitbreaker.New(circuitbreaker.ProviderAPIConfig("facebook"))
//	_, err := cb.Execute(func() (interface{}, error) {
//	    return client.Do(req)
//	})
//
//	err = retry.WithBackoff(ctx, retry.PollConfig(), func() error {
//	    return poll(ctx)
//	})
package resilience
