package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsRecordsRunsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCronJobMetrics(reg)
	job := "pending-payment-expiry"
	finished := time.Date(2026, 3, 1, 4, 0, 0, 0, time.UTC)
	metrics.ObserveRun(job, 250*time.Millisecond, finished, nil)
	metrics.ObserveRun(job, time.Second, finished.Add(time.Hour), errors.New("db down"))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchRunCount(mfs, job, cronResultOK); err != nil {
		t.Fatalf("fetch ok runs: %v", err)
	} else if got != 1 {
		t.Fatalf("expected ok=1, got %f", got)
	}
	if got, err := fetchRunCount(mfs, job, cronResultFailed); err != nil {
		t.Fatalf("fetch failed runs: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failed=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "bazaarlink_cron_job_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got != 1.25 {
		t.Fatalf("expected duration sum 1.25, got %f", got)
	}

	// a failed run must not move the last-success marker
	if got, err := fetchGaugeValue(mfs, "bazaarlink_cron_job_last_success_timestamp_seconds", "job", job); err != nil {
		t.Fatalf("fetch last success: %v", err)
	} else if got != float64(finished.Unix()) {
		t.Fatalf("expected last success %d, got %f", finished.Unix(), got)
	}
}

func TestCronJobMetricsCountsSkippedCycles(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCronJobMetrics(reg)
	metrics.IncSkippedCycle()
	metrics.IncSkippedCycle()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	mf := findMetricFamily(mfs, "bazaarlink_cron_cycles_skipped_total")
	if mf == nil || len(mf.GetMetric()) != 1 {
		t.Fatalf("skipped counter missing")
	}
	if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Fatalf("expected 2 skipped cycles, got %f", got)
	}
}

func TestCronJobMetricsNilSafe(t *testing.T) {
	var nilMetrics *CronJobMetrics
	nilMetrics.ObserveRun("wallet-reconcile", time.Second, time.Now(), nil)
	nilMetrics.IncSkippedCycle()
	NewCronJobMetrics(nil).ObserveRun("", time.Second, time.Now(), nil)
}

func fetchRunCount(mfs []*dto.MetricFamily, job, result string) (float64, error) {
	mf := findMetricFamily(mfs, "bazaarlink_cron_job_runs_total")
	if mf == nil {
		return 0, fmt.Errorf("runs counter not found")
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), "job", job) && matchesLabel(metric.GetLabel(), "result", result) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("runs counter missing job=%s result=%s", job, result)
}

func fetchGaugeValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetGauge().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("gauge %q missing label %s=%s", name, label, value)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}

func TestOutboxMetricsRecordsOutcomesAndLag(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.Observe("order.delivered", OutboxPublished)
	m.Observe("order.delivered", OutboxHeldBack)
	m.Observe("order.delivered", OutboxHeldBack)
	m.ObserveLag("order.delivered", 3*time.Second)
	m.ObserveLag("order.delivered", -time.Second)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	mf := findMetricFamily(mfs, "bazaarlink_outbox_events_total")
	if mf == nil {
		t.Fatal("outcome counter missing")
	}
	var held float64
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), "outcome", OutboxHeldBack) {
			held = metric.GetCounter().GetValue()
		}
	}
	if held != 2 {
		t.Fatalf("expected 2 held back, got %f", held)
	}
	if got, err := fetchHistogramSum(mfs, "bazaarlink_outbox_publish_lag_seconds", "event_type", "order.delivered"); err != nil || got != 3 {
		t.Fatalf("expected lag sum 3 ignoring negative samples, got %f (%v)", got, err)
	}
}
