package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedient/internal/config"
	hhttp "feedient/internal/handler/http"
	haccounts "feedient/internal/handler/http/accounts"
	hauth "feedient/internal/handler/http/auth"
	"feedient/internal/handler/http/respond"
	pgRepo "feedient/internal/infra/adapter/persistence/postgres"
	"feedient/internal/infra/db"
	"feedient/internal/observability/logging"
	"feedient/internal/pkg/requestid"
	"feedient/internal/provider/registry"
	"feedient/internal/usecase/account"

	_ "feedient/docs" // swagger docs

	_ "github.com/jackc/pgx/v5/stdlib"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// @title           Feedient API
// @version         1.0
// @description     Links social media accounts and serves their feeds, notifications, pages and actions.

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description HS256 JWT in the form "Bearer {token}". The subject is the user that owns linked accounts.

const (
	addr           = ":8080"
	maxRequestBody = haccounts.DefaultMaxUpload + 1<<20
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	secret := os.Getenv("JWT_SECRET")
	if err := hauth.ValidateSecret(secret); err != nil {
		logger.Error("invalid JWT secret", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database := initDatabase(ctx, logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	providers, err := config.LoadProvidersConfig("")
	if err != nil {
		logger.Error("failed to load providers configuration", slog.Any("error", respond.SanitizeError(err)))
		os.Exit(1)
	}
	repo := pgRepo.NewUserProviderRepo(database)
	reg := registry.New(providers.Options(), repo)

	version := getVersion()
	handler := applyMiddleware(logger, setupRoutes(database, version, reg, repo), []byte(secret))
	runServer(ctx, logger, handler, version)
}

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

func getVersion() string {
	if v := os.Getenv("VERSION"); v != "" {
		return v
	}
	return "dev"
}

func setupRoutes(database *sql.DB, version string, reg *registry.Registry, repo *pgRepo.UserProviderRepo) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /health", &hhttp.HealthHandler{DB: database, Version: version, Breakers: breakerStates(reg)})
	mux.Handle("GET /ready", &hhttp.ReadyHandler{DB: database})
	mux.Handle("GET /live", hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	haccounts.Register(mux, &haccounts.Handler{
		Svc:     &account.Service{Repo: repo, Registry: reg},
		Catalog: reg,
	})
	return mux
}

func breakerStates(reg *registry.Registry) func() map[string]string {
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

// applyMiddleware wraps handler, outermost first: request id, recovery,
// logging, body limit, authentication, metrics.
func applyMiddleware(logger *slog.Logger, handler http.Handler, secret []byte) http.Handler {
	chain := hhttp.MetricsMiddleware(handler)
	chain = hauth.Authz(secret)(chain)
	chain = hhttp.LimitRequestBody(maxRequestBody)(chain)
	chain = hhttp.Logging(logger)(chain)
	chain = hhttp.Recover(logger)(chain)
	return requestid.Middleware(chain)
}

func runServer(ctx context.Context, logger *slog.Logger, handler http.Handler, version string) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", addr), slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
