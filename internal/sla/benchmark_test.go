package sla

import (
	"math"
	"testing"

	"slaintel/internal/domain"
)

func TestBenchmarkAgainstTeamAverage(t *testing.T) {
	e := newTestEngine(t)
	items := []domain.WorkItem{
		item("DISPUTE", domain.PriorityLow, domain.StatusResolved, "bob", 9),
		item("DISPUTE", domain.PriorityLow, domain.StatusResolved, "bob", 9),
		item("DISPUTE", domain.PriorityLow, domain.StatusResolved, "alice", 5),
		item("DISPUTE", domain.PriorityLow, domain.StatusClosed, "alice", 5),
		item("DISPUTE", domain.PriorityUrgent, domain.StatusInProgress, "bob", 5),
	}

	bench := e.Benchmark(items)
	if len(bench) != 2 {
		t.Fatalf("expected 2 benchmarks, got %d", len(bench))
	}
	alice, bob := bench[0], bench[1]
	if alice.OwnerID != "alice" || bob.OwnerID != "bob" {
		t.Fatalf("expected alice first, got %s then %s", alice.OwnerID, bob.OwnerID)
	}
	if math.Abs(alice.VsTeamAveragePercent-28.5714) > 0.001 {
		t.Fatalf("expected ~28.57, got %.4f", alice.VsTeamAveragePercent)
	}
	if alice.SLAComplianceRatePercent != 100 || alice.Quality != domain.QualityExcellent {
		t.Fatalf("unexpected alice benchmark: %+v", alice)
	}
	if alice.Strengths[0] != "29% faster than team average" {
		t.Fatalf("unexpected strengths: %v", alice.Strengths)
	}
	if alice.Opportunities[0] != "Maintain current performance level" {
		t.Fatalf("unexpected opportunities: %v", alice.Opportunities)
	}

	if bob.ItemVolume != 3 || bob.SLAComplianceRatePercent != 0 {
		t.Fatalf("unexpected bob volume/compliance: %+v", bob)
	}
	if bob.Quality != domain.QualityNeedsImprovement {
		t.Fatalf("expected NEEDS_IMPROVEMENT, got %s", bob.Quality)
	}
	if len(bob.Opportunities) != 2 || bob.Strengths[0] != "Consistent performance" {
		t.Fatalf("unexpected bob lists: %v / %v", bob.Strengths, bob.Opportunities)
	}
}

func TestBenchmarkFallbackTeamAverage(t *testing.T) {
	e := newTestEngine(t)
	items := []domain.WorkItem{
		item("DISPUTE", domain.PriorityLow, domain.StatusInProgress, "alice", 1),
		item("CHARGEBACK", domain.PriorityLow, domain.StatusInProgress, "alice", 30),
	}
	bench := e.Benchmark(items)
	if len(bench) != 1 {
		t.Fatalf("expected 1 benchmark, got %d", len(bench))
	}
	b := bench[0]
	if b.AvgResolutionDays != 7 || b.VsTeamAveragePercent != 0 {
		t.Fatalf("expected fallback average 7 and vs 0, got %+v", b)
	}
	if b.SLAComplianceRatePercent != 100 {
		t.Fatalf("expected items without policy excluded from compliance, got %.1f", b.SLAComplianceRatePercent)
	}
	if b.Quality != domain.QualityAverage {
		t.Fatalf("expected AVERAGE, got %s", b.Quality)
	}
	if len(b.Strengths) == 0 || len(b.Opportunities) == 0 {
		t.Fatal("strengths and opportunities must be non-empty")
	}
}

func TestBenchmarkNoOwners(t *testing.T) {
	e := newTestEngine(t)
	if bench := e.Benchmark([]domain.WorkItem{item("DISPUTE", domain.PriorityLow, domain.StatusNew, "", 0)}); len(bench) != 0 {
		t.Fatalf("expected no benchmarks, got %+v", bench)
	}
}

func TestClassifyQuality(t *testing.T) {
	tests := []struct {
		vs         float64
		compliance float64
		want       domain.QualityClass
	}{
		{20, 95, domain.QualityExcellent},
		{20, 85, domain.QualityGood},
		{5, 80, domain.QualityGood},
		{0, 100, domain.QualityAverage},
		{-9, 70, domain.QualityAverage},
		{-10, 100, domain.QualityNeedsImprovement},
		{30, 60, domain.QualityNeedsImprovement},
	}
	for _, tt := range tests {
		if got := classifyQuality(tt.vs, tt.compliance); got != tt.want {
			t.Fatalf("classifyQuality(%.0f, %.0f) = %s, want %s", tt.vs, tt.compliance, got, tt.want)
		}
	}
}
