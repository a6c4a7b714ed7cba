package sla

import (
	"strings"
	"testing"
	"time"

	"slaintel/internal/domain"
)

func constantForecast(days, predicted int) []domain.ForecastPoint {
	start := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	out := make([]domain.ForecastPoint, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, domain.ForecastPoint{
			Date:           start.AddDate(0, 0, i),
			PredictedCount: predicted,
			LowerBound:     predicted,
			UpperBound:     predicted,
		})
	}
	return out
}

func TestAnalyzeCapacityNoTeam(t *testing.T) {
	e := newTestEngine(t)
	got := e.AnalyzeCapacity(nil, constantForecast(30, 3))
	if got.CurrentTeamSize != 0 || got.OptimalTeamSize != 0 {
		t.Fatalf("expected zero team, got %+v", got)
	}
	if !strings.Contains(got.Recommendation, "No team") {
		t.Fatalf("unexpected recommendation %q", got.Recommendation)
	}
}

func TestAnalyzeCapacityRecommendations(t *testing.T) {
	e := newTestEngine(t)
	team := []domain.WorkItem{
		item("DISPUTE", domain.PriorityLow, domain.StatusNew, "alice", 1),
		item("DISPUTE", domain.PriorityLow, domain.StatusNew, "bob", 1),
	}

	tests := []struct {
		name      string
		predicted int
		optimal   int
		f30       float64
		contains  string
	}{
		{"over capacity", 2, 3, 100, "Consider adding 1"},
		{"under used", 1, 2, 50, "adequate"},
		{"balanced", 0, 2, 0, "adequate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.AnalyzeCapacity(team, constantForecast(30, tt.predicted))
			if got.CurrentTeamSize != 2 || got.OptimalTeamSize != tt.optimal {
				t.Fatalf("expected team 2 / optimal %d, got %+v", tt.optimal, got)
			}
			if got.ForecastedCapacity30dPercent != tt.f30 {
				t.Fatalf("expected 30d capacity %.0f, got %.2f", tt.f30, got.ForecastedCapacity30dPercent)
			}
			if !strings.Contains(got.Recommendation, tt.contains) {
				t.Fatalf("expected recommendation containing %q, got %q", tt.contains, got.Recommendation)
			}
		})
	}

	four := append(team,
		item("DISPUTE", domain.PriorityLow, domain.StatusNew, "carol", 1),
		item("DISPUTE", domain.PriorityLow, domain.StatusNew, "dave", 1),
	)
	got := e.AnalyzeCapacity(four, constantForecast(30, 3))
	if got.ForecastedCapacity7dPercent != 75 || got.OptimalTeamSize != 4 {
		t.Fatalf("expected 75%% capacity and unchanged team, got %+v", got)
	}
	if !strings.Contains(got.Recommendation, "optimal") {
		t.Fatalf("unexpected recommendation %q", got.Recommendation)
	}
}

func TestAnalyzeCapacityTrend(t *testing.T) {
	e := newTestEngine(t)
	submitted := func(daysAgo int) domain.WorkItem {
		it := item("DISPUTE", domain.PriorityLow, domain.StatusNew, "alice", 0)
		it.SubmittedAt = testNow.AddDate(0, 0, -daysAgo)
		return it
	}

	var increasing []domain.WorkItem
	for i := 0; i < 10; i++ {
		increasing = append(increasing, submitted(i))
	}
	for i := 0; i < 5; i++ {
		increasing = append(increasing, submitted(20+i))
	}
	if got := e.AnalyzeCapacity(increasing, nil).WorkloadTrend; got != domain.TrendIncreasing {
		t.Fatalf("expected INCREASING, got %s", got)
	}

	var decreasing []domain.WorkItem
	for i := 0; i < 2; i++ {
		decreasing = append(decreasing, submitted(3))
	}
	for i := 0; i < 6; i++ {
		decreasing = append(decreasing, submitted(16))
	}
	if got := e.AnalyzeCapacity(decreasing, nil).WorkloadTrend; got != domain.TrendDecreasing {
		t.Fatalf("expected DECREASING, got %s", got)
	}

	if got := e.AnalyzeCapacity([]domain.WorkItem{submitted(1), submitted(2)}, nil).WorkloadTrend; got != domain.TrendStable {
		t.Fatalf("expected STABLE with no prior volume, got %s", got)
	}
}
