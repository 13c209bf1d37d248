// Command diagnose fetches the newest post of every pollable linked account
// and reports which accounts and providers are failing.
//
//	diagnose [-provider twitter] [-user u-1] [-json] [-timeout 20s] [-concurrency 4]
//
// It reads DATABASE_URL and PROVIDERS_CONFIG like the worker. Refreshed
// tokens are saved; nothing else is written.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedient/internal/config"
	"feedient/internal/domain/entity"
	"feedient/internal/handler/http/respond"
	pgRepo "feedient/internal/infra/adapter/persistence/postgres"
	"feedient/internal/infra/db"
	"feedient/internal/observability/logging"
	"feedient/internal/provider/registry"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var (
		providerName = flag.String("provider", "", "only check accounts of this provider")
		userID       = flag.String("user", "", "only check accounts of this user")
		asJSON       = flag.Bool("json", false, "print JSON instead of a table")
		timeout      = flag.Duration("timeout", 20*time.Second, "timeout per account")
		concurrency  = flag.Int("concurrency", 4, "accounts checked at once")
	)
	flag.Parse()

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger, *providerName, *userID, *asJSON, *timeout, *concurrency); err != nil {
		logger.Error("diagnose failed", slog.String("error", respond.SanitizeError(err)))
		os.Exit(1)
	}
}

func run(logger *slog.Logger, providerName, userID string, asJSON bool, timeout time.Duration, concurrency int) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var only entity.ProviderName
	if providerName != "" {
		name, err := entity.ParseProviderName(providerName)
		if err != nil {
			return fmt.Errorf("provider %q: %w", providerName, err)
		}
		only = name
	}

	database, err := db.Open(ctx, "", logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = database.Close() }()

	providers, err := config.LoadProvidersConfig("")
	if err != nil {
		return fmt.Errorf("load providers: %w", err)
	}

	repo := pgRepo.NewUserProviderRepo(database)
	reg := registry.New(providers.Options(), repo)

	ups, err := repo.ListPollable(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	selected := ups[:0]
	for _, up := range ups {
		if (only == "" || up.Provider == only) && (userID == "" || up.UserID == userID) {
			selected = append(selected, up)
		}
	}
	logger.Info("checking accounts", slog.Int("accounts", len(selected)))

	diags := diagnoseAll(ctx, reg, selected, timeout, concurrency)
	if asJSON {
		return writeJSON(os.Stdout, diags)
	}
	return writeReport(os.Stdout, diags)
}
