// Package config loads process settings from the environment with a
// fail-open policy: a value that does not parse or validate is replaced by
// its default, logged and counted, and never stops the process.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Result is one loaded value. Warning is set whenever FallbackApplied is.
type Result[T any] struct {
	Value           T
	Warning         string
	FallbackApplied bool
}

// LoadEnvString returns the value of envKey, or defaultValue when it is unset
// or empty.
func LoadEnvString(envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

// LoadEnv reads envKey with parse and validate. Unset or blank variables
// yield defaultValue without a warning.
func LoadEnv[T any](envKey string, defaultValue T, parse func(string) (T, error), validate func(T) error) Result[T] {
	raw := strings.TrimSpace(os.Getenv(envKey))
	if raw == "" {
		return Result[T]{Value: defaultValue}
	}

	v, err := parse(raw)
	if err == nil && validate != nil {
		err = validate(v)
	}
	if err != nil {
		return Result[T]{
			Value:           defaultValue,
			FallbackApplied: true,
			Warning:         fmt.Sprintf("invalid %s=%q: %v, using default %v", envKey, raw, err, defaultValue),
		}
	}
	return Result[T]{Value: v}
}

// LoadEnvWithFallback loads a validated string.
func LoadEnvWithFallback(envKey, defaultValue string, validate func(string) error) Result[string] {
	return LoadEnv(envKey, defaultValue, func(s string) (string, error) { return s, nil }, validate)
}

// LoadEnvInt loads a base-10 integer.
func LoadEnvInt(envKey string, defaultValue int, validate func(int) error) Result[int] {
	return LoadEnv(envKey, defaultValue, strconv.Atoi, validate)
}

// LoadEnvFloat loads a float64.
func LoadEnvFloat(envKey string, defaultValue float64, validate func(float64) error) Result[float64] {
	return LoadEnv(envKey, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	}, validate)
}

// LoadEnvDuration loads a time.ParseDuration string such as "90s" or "1h30m".
func LoadEnvDuration(envKey string, defaultValue time.Duration, validate func(time.Duration) error) Result[time.Duration] {
	return LoadEnv(envKey, defaultValue, time.ParseDuration, validate)
}

// LoadEnvBool accepts the strconv.ParseBool spellings.
func LoadEnvBool(envKey string, defaultValue bool) Result[bool] {
	return LoadEnv(envKey, defaultValue, strconv.ParseBool, nil)
}

// Loader applies several env overrides in a row and reports every fallback
// to the logger and, when set, the component's ConfigMetrics.
type Loader struct {
	logger   *slog.Logger
	metrics  *ConfigMetrics
	fallback bool
}

// NewLoader returns a Loader. metrics may be nil.
func NewLoader(logger *slog.Logger, metrics *ConfigMetrics) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, metrics: metrics}
}

// String overrides *dst from envKey.
func (l *Loader) String(field, envKey string, dst *string, validate func(string) error) {
	*dst = apply(l, field, LoadEnvWithFallback(envKey, *dst, validate))
}

// Int overrides *dst from envKey.
func (l *Loader) Int(field, envKey string, dst *int, validate func(int) error) {
	*dst = apply(l, field, LoadEnvInt(envKey, *dst, validate))
}

// Float overrides *dst from envKey.
func (l *Loader) Float(field, envKey string, dst *float64, validate func(float64) error) {
	*dst = apply(l, field, LoadEnvFloat(envKey, *dst, validate))
}

// Duration overrides *dst from envKey.
func (l *Loader) Duration(field, envKey string, dst *time.Duration, validate func(time.Duration) error) {
	*dst = apply(l, field, LoadEnvDuration(envKey, *dst, validate))
}

// Bool overrides *dst from envKey.
func (l *Loader) Bool(field, envKey string, dst *bool) {
	*dst = apply(l, field, LoadEnvBool(envKey, *dst))
}

// Finish publishes the load and reports whether any fallback was applied.
func (l *Loader) Finish() bool {
	if l.metrics != nil {
		l.metrics.SetFallbackActive(l.fallback)
		l.metrics.RecordLoadTimestamp()
	}
	return l.fallback
}

func apply[T any](l *Loader, field string, r Result[T]) T {
	if r.FallbackApplied {
		l.fallback = true
		l.logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", r.Warning))
		if l.metrics != nil {
			l.metrics.RecordValidationError(field)
			l.metrics.RecordFallback(field)
		}
	}
	return r.Value
}
