package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func testConfig(timeout time.Duration) Config {
	return Config{
		Name:             "provider-test",
		MaxRequests:      2,
		Interval:         10 * time.Second,
		Timeout:          timeout,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

func TestNew(t *testing.T) {
	cb := New(testConfig(time.Second))

	if cb.Name() != "provider-test" {
		t.Errorf("Name() = %q, want provider-test", cb.Name())
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_TripsOpen(t *testing.T) {
	cb := New(testConfig(time.Second))
	errUpstream := errors.New("upstream down")

	for i := 0; i < 6; i++ {
		_, err := cb.Execute(func() (interface{}, error) { return nil, errUpstream })
		if !errors.Is(err, errUpstream) {
			t.Fatalf("request %d: err = %v, want upstream error", i, err)
		}
	}

	if !cb.IsOpen() {
		t.Fatalf("State() = %v, want open", cb.State())
	}

	_, err := cb.Execute(func() (interface{}, error) {
		t.Error("guarded call must not run while open")
		return nil, nil
	})
	if !IsRejection(err) {
		t.Errorf("err = %v, want breaker rejection", err)
	}
}

func TestCircuitBreaker_CancellationDoesNotTrip(t *testing.T) {
	cb := New(testConfig(time.Second))

	for i := 0; i < 10; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, context.Canceled })
	}

	if cb.IsOpen() {
		t.Error("caller cancellation must not open the circuit")
	}
}

func TestCircuitBreaker_MinRequests(t *testing.T) {
	cb := New(testConfig(time.Second))

	for i := 0; i < 4; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, errors.New("fail") })
	}

	if cb.IsOpen() {
		t.Error("circuit opened before MinRequests was reached")
	}
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	cb := New(testConfig(50 * time.Millisecond))

	for i := 0; i < 6; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, errors.New("fail") })
	}
	if !cb.IsOpen() {
		t.Fatalf("State() = %v, want open", cb.State())
	}

	time.Sleep(80 * time.Millisecond)

	result, err := cb.Execute(func() (interface{}, error) { return "ok", nil })
	if err != nil || result != "ok" {
		t.Fatalf("half-open probe = (%v, %v), want (ok, nil)", result, err)
	}
	if cb.IsOpen() {
		t.Errorf("State() = %v after successful probe", cb.State())
	}
}

func TestProviderAPIConfig(t *testing.T) {
	cfg := ProviderAPIConfig("twitter")

	if cfg.Name != "provider-twitter" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.MinRequests == 0 || cfg.FailureThreshold <= 0 || cfg.FailureThreshold > 1 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestCountsAsFailure(t *testing.T) {
	if CountsAsFailure(nil) {
		t.Error("nil counted as failure")
	}
	if CountsAsFailure(context.Canceled) {
		t.Error("context.Canceled counted as failure")
	}
	if !CountsAsFailure(context.DeadlineExceeded) {
		t.Error("deadline exceeded should count as failure")
	}
}
