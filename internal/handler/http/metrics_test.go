package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddleware_NormalizesPath(t *testing.T) {
	httpRequestsTotal.Reset()

	h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}))

	for _, id := range []string{"a1", "b2", "c3"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/accounts/"+id+"/feed?limit=5", nil))
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/v1/accounts/:id/feed", "200"))
	if got != 3 {
		t.Errorf("requests for /v1/accounts/:id/feed = %v, want 3", got)
	}
	if n := testutil.CollectAndCount(httpRequestsTotal); n != 1 {
		t.Errorf("label sets = %d, want 1", n)
	}
}

func TestMetricsMiddleware_StatusCodes(t *testing.T) {
	httpRequestsTotal.Reset()

	for _, code := range []int{http.StatusOK, http.StatusNotFound, http.StatusBadGateway} {
		h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/v1/accounts/x", nil))
	}

	for _, status := range []string{"200", "404", "502"} {
		if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodDelete, "/v1/accounts/:id", status)); got != 1 {
			t.Errorf("status %s count = %v, want 1", status, got)
		}
	}
}

func TestMetricsMiddleware_InFlightReturnsToZero(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsInFlight)

	var during float64
	h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		during = testutil.ToFloat64(httpRequestsInFlight)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/providers", nil))

	if during != before+1 {
		t.Errorf("in flight during request = %v, want %v", during, before+1)
	}
	if after := testutil.ToFloat64(httpRequestsInFlight); after != before {
		t.Errorf("in flight after request = %v, want %v", after, before)
	}
}

func TestMetricsMiddleware_Sizes(t *testing.T) {
	httpRequestSize.Reset()
	httpResponseSize.Reset()

	h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte(strings.Repeat("x", 300)))
	}))
	req := httptest.NewRequest(http.MethodPost, "/v1/accounts/x/actions/publish", strings.NewReader("message=hi"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if n := testutil.CollectAndCount(httpRequestSize); n != 1 {
		t.Errorf("request size series = %d, want 1", n)
	}
	if n := testutil.CollectAndCount(httpResponseSize); n != 1 {
		t.Errorf("response size series = %d, want 1", n)
	}
}

func TestMetricsHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http_requests_in_flight") {
		t.Error("metrics output missing http_requests_in_flight")
	}
}
