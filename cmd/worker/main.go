package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"feedient/internal/config"
	"feedient/internal/handler/http/respond"
	pgRepo "feedient/internal/infra/adapter/persistence/postgres"
	"feedient/internal/infra/db"
	"feedient/internal/infra/notifier"
	workerPkg "feedient/internal/infra/worker"
	"feedient/internal/observability/logging"
	"feedient/internal/provider/registry"
	"feedient/internal/usecase/poll"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workerMetrics := workerPkg.NewWorkerMetrics()
	cfg, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone),
		slog.Int("poll_concurrency", cfg.PollConcurrency),
		slog.Duration("cycle_timeout", cfg.CycleTimeout),
		slog.Int("health_port", cfg.HealthPort))

	database := initDatabase(ctx, logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	providers, err := config.LoadProvidersConfig(cfg.ProvidersConfig)
	if err != nil {
		logger.Error("failed to load providers configuration", slog.Any("error", respond.SanitizeError(err)))
		os.Exit(1)
	}

	repo := pgRepo.NewUserProviderRepo(database)
	reg := registry.New(providers.Options(), repo)
	svc := poll.NewService(repo, reg, newSink(logger, cfg), pollConfig(cfg))

	startMetricsServer(ctx, logger, cfg.MetricsPort)

	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", cfg.HealthPort), logger, breakerStates(reg))
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	runCronWorker(ctx, logger, svc, cfg, workerMetrics, healthServer)
}

// initDatabase connects and applies the schema.
func initDatabase(ctx context.Context, logger *slog.Logger) *sql.DB {
	database, err := db.Open(ctx, "", logger)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", respond.SanitizeError(err)))
		os.Exit(1)
	}
	if err := db.MigrateUp(ctx, database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

func pollConfig(cfg *workerPkg.WorkerConfig) poll.Config {
	pc := poll.DefaultConfig()
	pc.Concurrency = cfg.PollConcurrency
	pc.FeedLimit = cfg.FeedLimit
	pc.NotificationLimit = cfg.FeedLimit
	pc.RequestsPerSecond = cfg.ProviderRPS
	pc.AccountTimeout = cfg.AccountTimeout
	return pc
}

// newSink logs every new item and, when webhooks are configured, forwards
// them to chat.
func newSink(logger *slog.Logger, cfg *workerPkg.WorkerConfig) poll.Sink {
	var notifiers []notifier.Notifier
	if cfg.DiscordWebhookURL != "" {
		notifiers = append(notifiers, notifier.NewDiscordNotifier(notifier.DiscordConfig{WebhookURL: cfg.DiscordWebhookURL}))
	}
	if cfg.SlackWebhookURL != "" {
		notifiers = append(notifiers, notifier.NewSlackNotifier(notifier.SlackConfig{WebhookURL: cfg.SlackWebhookURL}))
	}
	if len(notifiers) == 0 {
		return poll.LogSink{}
	}
	logger.Info("webhook notifications enabled",
		slog.Bool("discord", cfg.DiscordWebhookURL != ""),
		slog.Bool("slack", cfg.SlackWebhookURL != ""),
		slog.Bool("posts", cfg.NotifyPosts))
	return &notifier.Sink{
		Notifiers:    notifiers,
		Next:         poll.LogSink{},
		ForwardPosts: cfg.NotifyPosts,
		MaxItems:     cfg.NotifyMaxItems,
	}
}

// breakerStates reports the circuit state of every registered provider.
func breakerStates(reg *registry.Registry) workerPkg.BreakerStates {
	return func() map[string]string {
		states := make(map[string]string)
		for _, name := range reg.Providers() {
			if cb := reg.Breaker(name); cb != nil {
				states[name.String()] = cb.State().String()
			}
		}
		return states
	}
}

// runCronWorker polls on schedule until ctx is cancelled, then waits for the
// running cycle to finish.
func runCronWorker(ctx context.Context, logger *slog.Logger, svc *poll.Service, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics, healthServer *workerPkg.HealthServer) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	var running atomic.Bool
	_, err = c.AddFunc(cfg.CronSchedule, func() {
		if !running.CompareAndSwap(false, true) {
			metrics.RecordJobRun("skipped")
			logger.Warn("previous poll cycle still running, skipping")
			return
		}
		defer running.Store(false)
		runPollJob(ctx, logger, svc, cfg, metrics)
	})
	if err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	healthServer.SetReady(true)
	logger.Info("worker started", slog.String("schedule", cfg.CronSchedule), slog.String("timezone", cfg.Timezone))

	<-ctx.Done()
	logger.Info("shutting down worker...")
	healthServer.SetReady(false)
	<-c.Stop().Done()
	logger.Info("worker stopped")
}

// runPollJob runs one poll cycle under the cycle timeout.
func runPollJob(parent context.Context, logger *slog.Logger, svc *poll.Service, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics) {
	start := time.Now()
	metrics.RecordJobRun("started")
	logger.Info("poll started")

	ctx, cancel := context.WithTimeout(parent, cfg.CycleTimeout)
	defer cancel()

	stats, err := svc.PollAll(ctx)
	metrics.RecordJobDuration(time.Since(start).Seconds())
	if err != nil {
		logger.Error("poll failed", slog.String("error", respond.SanitizeError(err)))
		metrics.RecordJobRun("failure")
		return
	}

	metrics.RecordJobRun("success")
	metrics.RecordAccountsPolled(stats.Accounts)
	metrics.RecordLastSuccess()
	logger.Info("poll completed",
		slog.Int("accounts", stats.Accounts),
		slog.Int("failed", stats.Failed),
		slog.Int("reauth", stats.Reauth),
		slog.Int64("posts", stats.Posts),
		slog.Int64("notifications", stats.Notifications),
		slog.Duration("duration", stats.Duration),
	)
}
