package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func get(t *testing.T, h http.Handler, path string) (int, healthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return rec.Code, body
}

func TestHealthServer_Liveness(t *testing.T) {
	s := NewHealthServer(":0", discardLogger(), nil)

	code, body := get(t, s.Handler(), "/health")
	if code != http.StatusOK || body.Status != "ok" {
		t.Errorf("got %d %q", code, body.Status)
	}
}

func TestHealthServer_Readiness(t *testing.T) {
	s := NewHealthServer(":0", discardLogger(), nil)
	h := s.Handler()

	code, body := get(t, h, "/health/ready")
	if code != http.StatusServiceUnavailable || body.Status != "not ready" {
		t.Errorf("before ready: got %d %q", code, body.Status)
	}

	s.SetReady(true)
	code, body = get(t, h, "/health/ready")
	if code != http.StatusOK || body.Status != "ok" {
		t.Errorf("after ready: got %d %q", code, body.Status)
	}

	s.SetReady(false)
	if code, _ = get(t, h, "/health/ready"); code != http.StatusServiceUnavailable {
		t.Errorf("after unready: got %d", code)
	}
}

func TestHealthServer_Providers(t *testing.T) {
	tests := []struct {
		name       string
		states     map[string]string
		wantCode   int
		wantStatus string
	}{
		{name: "all closed", states: map[string]string{"twitter": "closed", "rss": "closed"}, wantCode: http.StatusOK, wantStatus: "ok"},
		{name: "half open", states: map[string]string{"tumblr": "half-open"}, wantCode: http.StatusOK, wantStatus: "ok"},
		{name: "one open", states: map[string]string{"twitter": "closed", "facebook": "open"}, wantCode: http.StatusServiceUnavailable, wantStatus: "degraded"},
		{name: "none configured", states: nil, wantCode: http.StatusOK, wantStatus: "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewHealthServer(":0", discardLogger(), func() map[string]string { return tt.states })

			code, body := get(t, s.Handler(), "/health/providers")
			if code != tt.wantCode || body.Status != tt.wantStatus {
				t.Errorf("got %d %q, want %d %q", code, body.Status, tt.wantCode, tt.wantStatus)
			}
			if len(body.Providers) != len(tt.states) {
				t.Errorf("providers = %v, want %v", body.Providers, tt.states)
			}
			for name, state := range tt.states {
				if body.Providers[name] != state {
					t.Errorf("%s = %q, want %q", name, body.Providers[name], state)
				}
			}
		})
	}
}

func TestHealthServer_StartAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	s := NewHealthServer(addr, discardLogger(), nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + addr + "/health")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never came up: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("Start returned %v, want ErrServerClosed", err)
		}
	case <-time.After(6 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestHealthServer_StartFailsOnBusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	s := NewHealthServer(ln.Addr().String(), discardLogger(), nil)
	err = s.Start(context.Background())
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		t.Fatalf("Start = %v, want bind error", err)
	}
}
