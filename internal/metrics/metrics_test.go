package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"slaintel/internal/analysis"
	"slaintel/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func sampleReport() analysis.Report {
	return analysis.Report{
		GeneratedAt:  time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC),
		SkippedItems: 2,
		Statuses: []domain.SLAStatus{
			{State: domain.SLABreached},
			{State: domain.SLABreached},
			{State: domain.SLAOnTrack},
		},
		Loads: []domain.OwnerLoad{
			{OwnerID: "alice", CapacityPercent: 95},
			{OwnerID: "bob", CapacityPercent: 40},
		},
		Capacity: domain.CapacityAnalysis{
			CurrentCapacityPercent:       67.5,
			ForecastedCapacity7dPercent:  70,
			ForecastedCapacity30dPercent: 81,
		},
		Alerts: []domain.Alert{
			{Severity: domain.SeverityCritical},
			{Severity: domain.SeverityHigh},
			{Severity: domain.SeverityHigh},
		},
	}
}

func TestObserveSetsGauges(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Observe(sampleReport(), 250*time.Millisecond)

	if got := testutil.ToFloat64(m.teamCapacity); got != 67.5 {
		t.Fatalf("expected team capacity 67.5, got %v", got)
	}
	if got := testutil.ToFloat64(m.forecastCapacity.WithLabelValues("30d")); got != 81 {
		t.Fatalf("expected 30d forecast 81, got %v", got)
	}
	if got := testutil.ToFloat64(m.ownerCapacity.WithLabelValues("alice")); got != 95 {
		t.Fatalf("expected alice capacity 95, got %v", got)
	}
	if got := testutil.ToFloat64(m.itemsByState.WithLabelValues("BREACHED")); got != 2 {
		t.Fatalf("expected 2 breached, got %v", got)
	}
	if got := testutil.ToFloat64(m.itemsByState.WithLabelValues("AT_RISK")); got != 0 {
		t.Fatalf("expected 0 at risk, got %v", got)
	}
	if got := testutil.ToFloat64(m.alertsBySeverity.WithLabelValues("HIGH")); got != 2 {
		t.Fatalf("expected 2 high alerts, got %v", got)
	}
	if got := testutil.ToFloat64(m.skippedItems); got != 2 {
		t.Fatalf("expected 2 skipped, got %v", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("ok")); got != 1 {
		t.Fatalf("expected 1 ok run, got %v", got)
	}
}

func TestObserveDropsDepartedOwners(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Observe(sampleReport(), time.Second)

	r := sampleReport()
	r.Loads = r.Loads[:1]
	m.Observe(r, time.Second)

	if got := testutil.CollectAndCount(m.ownerCapacity); got != 1 {
		t.Fatalf("expected 1 owner series after reset, got %d", got)
	}
}

func TestRunFailedAndTokens(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RunFailed()
	m.AddLLMTokens(150)
	m.AddLLMTokens(-5)

	if got := testutil.ToFloat64(m.runs.WithLabelValues("error")); got != 1 {
		t.Fatalf("expected 1 failed run, got %v", got)
	}
	if got := testutil.ToFloat64(m.llmTokens); got != 150 {
		t.Fatalf("expected 150 tokens, got %v", got)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Observe(sampleReport(), time.Second)

	server := httptest.NewServer(m.Handler())
	t.Cleanup(server.Close)

	resp, err := server.Client().Get(server.URL)
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `slaintel_owner_capacity_percent{owner="alice"} 95`) {
		t.Fatalf("expected owner gauge in output, got:\n%s", body)
	}
}
