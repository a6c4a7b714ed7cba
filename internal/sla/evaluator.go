package sla

import (
	"slaintel/internal/domain"
)

// Evaluate computes the live SLA status of one item. A missing policy is
// returned as *policy.PolicyNotFoundError, never defaulted.
func (e *Engine) Evaluate(item domain.WorkItem) (domain.SLAStatus, error) {
	p, err := e.catalog.Lookup(item.ItemType, item.Priority)
	if err != nil {
		return domain.SLAStatus{}, err
	}

	percent := float64(item.BusinessDaysElapsed) / float64(p.TargetResolutionDays) * 100
	state := domain.SLAOnTrack
	switch {
	case percent >= 100:
		state = domain.SLABreached
	case percent >= p.WarningThresholdPercent:
		state = domain.SLAAtRisk
	}

	remaining := p.TargetResolutionDays - item.BusinessDaysElapsed
	if remaining < 0 {
		remaining = 0
	}

	return domain.SLAStatus{
		ItemID:         item.ID,
		Policy:         p,
		DaysElapsed:    item.BusinessDaysElapsed,
		DaysRemaining:  remaining,
		PercentElapsed: percent,
		State:          state,
		ShouldEscalate: percent >= p.EscalationThresholdPercent,
	}, nil
}

// EvaluateAll evaluates every item, skipping those without a policy. The
// returned count is the number of skipped items.
func (e *Engine) EvaluateAll(items []domain.WorkItem) ([]domain.SLAStatus, int) {
	out := make([]domain.SLAStatus, 0, len(items))
	skipped := 0
	for _, item := range items {
		st, err := e.Evaluate(item)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, st)
	}
	return out, skipped
}
