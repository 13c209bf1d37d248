package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	pkgconfig "feedient/internal/pkg/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrMissingDSN is returned by Open when DATABASE_URL is not set.
var ErrMissingDSN = errors.New("DATABASE_URL not set")

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// DefaultConnectionConfig returns the pool settings used by the poll worker.
// A poll cycle holds at most one connection per concurrent account poll.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    16,
		MaxIdleConns:    4,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 15 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
}

// Open connects to dsn through pgx and verifies the connection.
// An empty dsn is read from DATABASE_URL.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*sql.DB, error) {
	if dsn == "" {
		dsn = pkgconfig.LoadEnvString("DATABASE_URL", "")
	}
	if dsn == "" {
		return nil, ErrMissingDSN
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	cfg := ConnectionConfigFromEnv(logger)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connection established",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))
	return db, nil
}

// ConnectionConfigFromEnv reads DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS,
// DB_CONN_MAX_LIFETIME and DB_CONN_MAX_IDLE_TIME. Invalid values fall back to
// the defaults with a warning.
func ConnectionConfigFromEnv(logger *slog.Logger) ConnectionConfig {
	cfg := DefaultConnectionConfig()
	conns := func(v int) error { return pkgconfig.ValidateIntRange(v, 1, 1000) }

	l := pkgconfig.NewLoader(logger, nil)
	l.Int("max_open_conns", "DB_MAX_OPEN_CONNS", &cfg.MaxOpenConns, conns)
	l.Int("max_idle_conns", "DB_MAX_IDLE_CONNS", &cfg.MaxIdleConns, conns)
	l.Duration("conn_max_lifetime", "DB_CONN_MAX_LIFETIME", &cfg.ConnMaxLifetime, pkgconfig.ValidatePositiveDuration)
	l.Duration("conn_max_idle_time", "DB_CONN_MAX_IDLE_TIME", &cfg.ConnMaxIdleTime, pkgconfig.ValidatePositiveDuration)
	l.Finish()
	return cfg
}
