package worker

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWorkerMetricsWith(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWorkerMetricsWith(reg)

	if m.ConfigMetrics == nil {
		t.Fatal("ConfigMetrics is nil")
	}

	m.RecordJobRun("success")
	m.RecordJobDuration(1)
	m.RecordAccountsPolled(1)
	m.RecordLastSuccess()
	m.RecordLoadTimestamp()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"worker_poll_job_runs_total",
		"worker_poll_job_duration_seconds",
		"worker_poll_job_accounts_total",
		"worker_poll_job_last_success_timestamp",
		"worker_config_load_timestamp",
		"worker_config_fallback_active",
	} {
		if !names[want] {
			t.Errorf("metric %s not registered", want)
		}
	}
}

func TestNewWorkerMetricsWith_DuplicatePanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewWorkerMetricsWith(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewWorkerMetricsWith(reg)
}

func TestWorkerMetrics_RecordJobRun(t *testing.T) {
	m := NewWorkerMetricsWith(prometheus.NewRegistry())

	m.RecordJobRun("success")
	m.RecordJobRun("success")
	m.RecordJobRun("failure")

	if got := testutil.ToFloat64(m.JobRunsTotal.WithLabelValues("success")); got != 2 {
		t.Errorf("success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.JobRunsTotal.WithLabelValues("failure")); got != 1 {
		t.Errorf("failure = %v, want 1", got)
	}
}

func TestWorkerMetrics_RecordJobDuration(t *testing.T) {
	m := NewWorkerMetricsWith(prometheus.NewRegistry())

	m.RecordJobDuration(12)
	m.RecordJobDuration(70)

	if got := testutil.CollectAndCount(m.JobDurationSeconds); got != 1 {
		t.Errorf("collected %d series, want 1", got)
	}
}

func TestWorkerMetrics_RecordAccountsPolled(t *testing.T) {
	m := NewWorkerMetricsWith(prometheus.NewRegistry())

	m.RecordAccountsPolled(3)
	m.RecordAccountsPolled(0)
	m.RecordAccountsPolled(4)

	if got := testutil.ToFloat64(m.AccountsPolledTotal); got != 7 {
		t.Errorf("accounts = %v, want 7", got)
	}
}

func TestWorkerMetrics_RecordLastSuccess(t *testing.T) {
	m := NewWorkerMetricsWith(prometheus.NewRegistry())

	if got := testutil.ToFloat64(m.LastSuccessTimestamp); got != 0 {
		t.Fatalf("initial = %v", got)
	}
	m.RecordLastSuccess()
	if got := testutil.ToFloat64(m.LastSuccessTimestamp); got <= 0 {
		t.Errorf("timestamp = %v, want > 0", got)
	}
}
