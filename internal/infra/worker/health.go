package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// BreakerStates reports the circuit breaker state of every configured
// provider, keyed by provider name.
type BreakerStates func() map[string]string

// HealthServer serves the worker's probes:
//
//	GET /health            liveness, always 200
//	GET /health/ready      200 once SetReady(true), 503 otherwise
//	GET /health/providers  breaker state per provider, 503 while any is open
type HealthServer struct {
	addr     string
	logger   *slog.Logger
	isReady  atomic.Bool
	breakers BreakerStates
	server   *http.Server
}

type healthResponse struct {
	Status    string            `json:"status"`
	Providers map[string]string `json:"providers,omitempty"`
}

// NewHealthServer returns a server that is not ready and not started.
// breakers may be nil, in which case /health/providers reports no providers.
func NewHealthServer(addr string, logger *slog.Logger, breakers BreakerStates) *HealthServer {
	return &HealthServer{
		addr:     addr,
		logger:   logger,
		breakers: breakers,
	}
}

// Handler returns the probe routes.
func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleLiveness)
	mux.HandleFunc("/health/ready", h.handleReadiness)
	mux.HandleFunc("/health/providers", h.handleProviders)
	return mux
}

// Start serves until ctx is cancelled, then shuts down with a five second
// grace period. It returns http.ErrServerClosed after a clean shutdown.
func (h *HealthServer) Start(ctx context.Context) error {
	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      h.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		h.logger.Info("health server starting", slog.String("addr", h.addr))
		if err := h.server.ListenAndServe(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		h.logger.Info("health server shutting down")
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			h.logger.Error("health server shutdown failed", slog.Any("error", err))
			return err
		}
		return http.ErrServerClosed

	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("health server failed", slog.Any("error", err))
		}
		return err
	}
}

// SetReady flips the readiness probe.
func (h *HealthServer) SetReady(ready bool) {
	h.isReady.Store(ready)
	h.logger.Info("health server readiness changed", slog.Bool("ready", ready))
}

func (h *HealthServer) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	h.write(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *HealthServer) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	if !h.isReady.Load() {
		h.write(w, http.StatusServiceUnavailable, healthResponse{Status: "not ready"})
		return
	}
	h.write(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *HealthServer) handleProviders(w http.ResponseWriter, _ *http.Request) {
	var states map[string]string
	if h.breakers != nil {
		states = h.breakers()
	}

	status, code := "ok", http.StatusOK
	for _, s := range states {
		if s == "open" {
			status, code = "degraded", http.StatusServiceUnavailable
			break
		}
	}
	h.write(w, code, healthResponse{Status: status, Providers: states})
}

func (h *HealthServer) write(w http.ResponseWriter, code int, body healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}
