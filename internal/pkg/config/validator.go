package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts the standard five-field syntax and descriptors such as
// "@every 5m".
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateCronSchedule checks schedule with the parser the worker schedules with.
func ValidateCronSchedule(schedule string) error {
	if schedule == "" {
		return errors.New("cron schedule is empty")
	}
	if _, err := cronParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// ValidateTimezone checks that timezone is a loadable IANA name.
func ValidateTimezone(timezone string) error {
	if timezone == "" {
		return errors.New("timezone is empty")
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return nil
}

// ValidateDuration checks min <= d <= max.
func ValidateDuration(d, min, max time.Duration) error {
	return inRange(d, min, max)
}

// ValidateIntRange checks min <= v <= max.
func ValidateIntRange(v, min, max int) error {
	return inRange(v, min, max)
}

// ValidateFloatRange checks min <= v <= max.
func ValidateFloatRange(v, min, max float64) error {
	return inRange(v, min, max)
}

// ValidatePositiveDuration rejects zero and negative durations.
func ValidatePositiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %v", d)
	}
	return nil
}

func inRange[T int | float64 | time.Duration](v, min, max T) error {
	switch {
	case min > max:
		return fmt.Errorf("invalid range [%v, %v]", min, max)
	case v < min:
		return fmt.Errorf("%v is below minimum %v", v, min)
	case v > max:
		return fmt.Errorf("%v exceeds maximum %v", v, max)
	}
	return nil
}
