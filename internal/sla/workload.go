package sla

import (
	"math"

	"slaintel/internal/domain"
)

// ScoreOwner aggregates the load of one owner. Items without a policy still
// count towards active load but not towards at-risk or breached counts.
func (e *Engine) ScoreOwner(items []domain.WorkItem, ownerID string) domain.OwnerLoad {
	load := domain.OwnerLoad{
		OwnerID:    ownerID,
		ByPriority: make(map[domain.Priority]int, len(domain.Priorities)),
	}

	var resolvedDays, resolvedCount int
	for _, item := range items {
		if item.OwnerID != ownerID {
			continue
		}
		if !item.IsActive() {
			resolvedDays += item.BusinessDaysElapsed
			resolvedCount++
			continue
		}
		load.ActiveItemCount++
		load.ByPriority[item.Priority]++
		load.WeightedPoints += e.params.PriorityWeights[item.Priority]

		st, err := e.Evaluate(item)
		if err != nil {
			continue
		}
		switch st.State {
		case domain.SLAAtRisk:
			load.AtRiskCount++
		case domain.SLABreached:
			load.BreachedCount++
		}
	}

	if resolvedCount > 0 {
		load.AvgResolutionDays = float64(resolvedDays) / float64(resolvedCount)
	}
	load.RawCapacityPercent = float64(load.WeightedPoints) / float64(e.params.MaxCapacityPoints) * 100
	load.CapacityPercent = math.Min(100, load.RawCapacityPercent)
	load.LoadClass = e.classifyLoad(load.CapacityPercent)
	return load
}

// ScoreOwners returns one OwnerLoad per owner in the given order.
func (e *Engine) ScoreOwners(items []domain.WorkItem, ownerIDs []string) []domain.OwnerLoad {
	out := make([]domain.OwnerLoad, 0, len(ownerIDs))
	for _, id := range ownerIDs {
		out = append(out, e.ScoreOwner(items, id))
	}
	return out
}

func (e *Engine) classifyLoad(capacity float64) domain.LoadClass {
	switch {
	case capacity < e.params.UnderLoadBelow:
		return domain.LoadUnder
	case capacity < e.params.OptimalLoadBelow:
		return domain.LoadOptimal
	case capacity < e.params.HighLoadBelow:
		return domain.LoadHigh
	default:
		return domain.LoadOver
	}
}
