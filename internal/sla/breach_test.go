package sla

import (
	"strings"
	"testing"
	"time"

	"slaintel/internal/domain"
	"slaintel/internal/policy"
)

func TestPredictBreachesScoring(t *testing.T) {
	e := newTestEngine(t)
	impact := 250000.0

	veryClose := item("DISPUTE", domain.PriorityMedium, domain.StatusInProgress, "alice", 9)
	approaching := item("DISPUTE", domain.PriorityMedium, domain.StatusInProgress, "bob", 8)
	stacked := item("DISPUTE", domain.PriorityMedium, domain.StatusPendingInfo, "alice", 9)
	stacked.FinancialImpact = &impact
	urgent := item("DISPUTE", domain.PriorityUrgent, domain.StatusInProgress, "carol", 2)

	preds := e.PredictBreaches([]domain.WorkItem{approaching, urgent, veryClose, stacked})
	if len(preds) != 4 {
		t.Fatalf("expected 4 predictions, got %d", len(preds))
	}

	byID := make(map[string]domain.BreachPrediction)
	for _, p := range preds {
		byID[p.ItemID] = p
	}
	if got := byID[veryClose.ID]; got.BreachProbabilityPercent != 80 || !strings.HasPrefix(got.RecommendedAction, "Escalate") {
		t.Fatalf("unexpected very-close prediction: %+v", got)
	}
	if got := byID[approaching.ID]; got.BreachProbabilityPercent != 70 || !strings.HasPrefix(got.RecommendedAction, "Prioritize") {
		t.Fatalf("unexpected approaching prediction: %+v", got)
	}
	if got := byID[stacked.ID]; got.BreachProbabilityPercent != 95 || len(got.RiskFactors) != 3 {
		t.Fatalf("expected clamped 95 with 3 risk factors, got %+v", got)
	}
	if got := byID[urgent.ID]; got.BreachProbabilityPercent != 60 || !strings.HasPrefix(got.RecommendedAction, "Monitor") {
		t.Fatalf("unexpected urgent prediction: %+v", got)
	}

	for i := 1; i < len(preds); i++ {
		if preds[i].BreachProbabilityPercent > preds[i-1].BreachProbabilityPercent {
			t.Fatalf("predictions not sorted by probability: %d before %d", preds[i-1].BreachProbabilityPercent, preds[i].BreachProbabilityPercent)
		}
	}

	got := byID[veryClose.ID]
	if got.DaysUntilBreach != 1 || !got.PredictedBreachDate.Equal(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected breach date: %d days, %s", got.DaysUntilBreach, got.PredictedBreachDate)
	}
	if got.ItemRef != veryClose.Number || got.CurrentState != domain.SLAAtRisk {
		t.Fatalf("unexpected prediction metadata: %+v", got)
	}
}

func TestPredictBreachesExclusions(t *testing.T) {
	e := newTestEngine(t)
	items := []domain.WorkItem{
		item("DISPUTE", domain.PriorityMedium, domain.StatusInProgress, "alice", 2),
		item("DISPUTE", domain.PriorityMedium, domain.StatusInProgress, "alice", 10),
		item("DISPUTE", domain.PriorityMedium, domain.StatusResolved, "alice", 9),
		item("CHARGEBACK", domain.PriorityMedium, domain.StatusInProgress, "alice", 9),
	}
	if preds := e.PredictBreaches(items); len(preds) != 0 {
		t.Fatalf("expected no predictions, got %+v", preds)
	}
}

func TestPredictBreachesRespectsWindow(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("policies:\n")
	for _, p := range []string{"URGENT", "HIGH", "MEDIUM", "LOW"} {
		sb.WriteString("  - item_type: AUDIT\n    priority: " + p + "\n    target_resolution_days: 40\n    warning_threshold_percent: 50\n    escalation_threshold_percent: 90\n")
	}
	catalog, err := policy.Load([]byte(sb.String()))
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	e, err := NewEngine(catalog, DefaultParams(), WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("NewEngine returned error: %v", err)
	}

	far := item("AUDIT", domain.PriorityLow, domain.StatusInProgress, "alice", 20)
	near := item("AUDIT", domain.PriorityLow, domain.StatusInProgress, "alice", 33)
	preds := e.PredictBreaches([]domain.WorkItem{far, near})
	if len(preds) != 1 || preds[0].ItemID != near.ID {
		t.Fatalf("expected only the item within 7 days, got %+v", preds)
	}
	if preds[0].BreachProbabilityPercent < 50 || preds[0].BreachProbabilityPercent > 95 {
		t.Fatalf("probability out of range: %d", preds[0].BreachProbabilityPercent)
	}
}
