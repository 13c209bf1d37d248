package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"feedient/internal/infra/notifier"
	"feedient/internal/pkg/config"
)

// WorkerConfig controls the poll worker. Every field can be overridden from
// the environment; see LoadConfigFromEnv.
type WorkerConfig struct {
	// CronSchedule is a five-field cron expression or a descriptor such as
	// "@every 5m".
	CronSchedule string
	// Timezone is the IANA zone CronSchedule is evaluated in.
	Timezone string

	// PollConcurrency bounds the linked accounts polled at once.
	PollConcurrency int
	// CycleTimeout bounds a whole poll cycle; AccountTimeout one account.
	CycleTimeout   time.Duration
	AccountTimeout time.Duration
	// FeedLimit is the page size requested from providers.
	FeedLimit int
	// ProviderRPS paces calls to a single provider across accounts.
	ProviderRPS float64

	HealthPort  int
	MetricsPort int

	// ProvidersConfig is the path of the provider YAML file.
	ProvidersConfig string

	// DiscordWebhookURL and SlackWebhookURL enable chat delivery of new
	// notifications when set. NotifyPosts forwards new posts as well.
	DiscordWebhookURL string
	SlackWebhookURL   string
	NotifyPosts       bool
	NotifyMaxItems    int
}

// DefaultConfig returns the settings used when nothing is overridden.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule:    "*/5 * * * *",
		Timezone:        "UTC",
		PollConcurrency: 8,
		CycleTimeout:    4 * time.Minute,
		AccountTimeout:  time.Minute,
		FeedLimit:       25,
		ProviderRPS:     2,
		HealthPort:      9091,
		MetricsPort:     9090,
		NotifyMaxItems:  notifier.DefaultMaxItems,
	}
}

// Validate reports every invalid field at once.
func (c *WorkerConfig) Validate() error {
	var errs []error
	check := func(field string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}

	check("cron schedule", config.ValidateCronSchedule(c.CronSchedule))
	check("timezone", config.ValidateTimezone(c.Timezone))
	check("poll concurrency", config.ValidateIntRange(c.PollConcurrency, 1, 64))
	check("cycle timeout", config.ValidateDuration(c.CycleTimeout, 10*time.Second, time.Hour))
	check("account timeout", config.ValidatePositiveDuration(c.AccountTimeout))
	check("feed limit", config.ValidateIntRange(c.FeedLimit, 1, 200))
	check("provider rps", config.ValidateFloatRange(c.ProviderRPS, 0.01, 100))
	check("health port", config.ValidateIntRange(c.HealthPort, 1024, 65535))
	check("metrics port", config.ValidateIntRange(c.MetricsPort, 1024, 65535))
	check("notify max items", config.ValidateIntRange(c.NotifyMaxItems, 1, 100))
	if c.HealthPort == c.MetricsPort {
		errs = append(errs, fmt.Errorf("health port and metrics port are both %d", c.HealthPort))
	}
	if c.AccountTimeout > c.CycleTimeout {
		errs = append(errs, fmt.Errorf("account timeout %v exceeds cycle timeout %v", c.AccountTimeout, c.CycleTimeout))
	}
	return errors.Join(errs...)
}

// LoadConfigFromEnv starts from DefaultConfig and applies:
//
//	POLL_SCHEDULE          cron expression
//	WORKER_TIMEZONE        IANA zone
//	POLL_CONCURRENCY       1-64
//	POLL_CYCLE_TIMEOUT     10s-1h
//	POLL_ACCOUNT_TIMEOUT   > 0
//	POLL_FEED_LIMIT        1-200
//	POLL_PROVIDER_RPS      0.01-100
//	WORKER_HEALTH_PORT     1024-65535
//	METRICS_PORT           1024-65535
//	PROVIDERS_CONFIG       path, not validated here
//	DISCORD_WEBHOOK_URL    https://discord.com/api/webhooks/...
//	SLACK_WEBHOOK_URL      https://hooks.slack.com/services/...
//	NOTIFY_POSTS           bool
//	NOTIFY_MAX_ITEMS       1-100
//
// Invalid values keep their default. The only error is a combination that
// is invalid although each value is valid on its own.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	var cm *config.ConfigMetrics
	if metrics != nil {
		cm = metrics.ConfigMetrics
	}

	l := config.NewLoader(logger, cm)
	l.String("cron_schedule", "POLL_SCHEDULE", &cfg.CronSchedule, config.ValidateCronSchedule)
	l.String("timezone", "WORKER_TIMEZONE", &cfg.Timezone, config.ValidateTimezone)
	l.Int("poll_concurrency", "POLL_CONCURRENCY", &cfg.PollConcurrency, func(v int) error {
		return config.ValidateIntRange(v, 1, 64)
	})
	l.Duration("cycle_timeout", "POLL_CYCLE_TIMEOUT", &cfg.CycleTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 10*time.Second, time.Hour)
	})
	l.Duration("account_timeout", "POLL_ACCOUNT_TIMEOUT", &cfg.AccountTimeout, config.ValidatePositiveDuration)
	l.Int("feed_limit", "POLL_FEED_LIMIT", &cfg.FeedLimit, func(v int) error {
		return config.ValidateIntRange(v, 1, 200)
	})
	l.Float("provider_rps", "POLL_PROVIDER_RPS", &cfg.ProviderRPS, func(v float64) error {
		return config.ValidateFloatRange(v, 0.01, 100)
	})
	l.Int("health_port", "WORKER_HEALTH_PORT", &cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	l.Int("metrics_port", "METRICS_PORT", &cfg.MetricsPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.ProvidersConfig = config.LoadEnvString("PROVIDERS_CONFIG", "")
	l.String("discord_webhook_url", "DISCORD_WEBHOOK_URL", &cfg.DiscordWebhookURL, notifier.ValidateDiscordURL)
	l.String("slack_webhook_url", "SLACK_WEBHOOK_URL", &cfg.SlackWebhookURL, notifier.ValidateSlackURL)
	l.Bool("notify_posts", "NOTIFY_POSTS", &cfg.NotifyPosts)
	l.Int("notify_max_items", "NOTIFY_MAX_ITEMS", &cfg.NotifyMaxItems, func(v int) error {
		return config.ValidateIntRange(v, 1, 100)
	})
	l.Finish()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
