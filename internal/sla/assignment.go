package sla

import (
	"fmt"
	"math"

	"slaintel/internal/domain"
)

// SuggestAssignment picks the best owner for a new item. When every
// candidate is OVER it still answers with the least loaded owner.
func (e *Engine) SuggestAssignment(items []domain.WorkItem, ownerIDs []string, prio domain.Priority) (domain.AssignmentSuggestion, error) {
	if len(ownerIDs) == 0 {
		return domain.AssignmentSuggestion{}, ErrNoCandidates
	}

	loads := e.ScoreOwners(items, ownerIDs)

	var available []domain.OwnerLoad
	for _, l := range loads {
		if l.LoadClass != domain.LoadOver {
			available = append(available, l)
		}
	}

	if len(available) == 0 {
		least := loads[0]
		for _, l := range loads[1:] {
			if l.RawCapacityPercent < least.RawCapacityPercent {
				least = l
			}
		}
		return domain.AssignmentSuggestion{
			OwnerID: least.OwnerID,
			Reason: fmt.Sprintf("All owners are over capacity; %s has the lowest load (%.0f%%) for this %s item",
				least.OwnerID, least.RawCapacityPercent, prio),
			ConfidencePercent: e.params.AssignFallbackConfidence,
		}, nil
	}

	best := available[0]
	bestScore := e.assignmentScore(best)
	for _, l := range available[1:] {
		if s := e.assignmentScore(l); s > bestScore {
			best, bestScore = l, s
		}
	}

	confidence := int(math.Round(bestScore))
	if confidence > e.params.AssignMaxConfidence {
		confidence = e.params.AssignMaxConfidence
	}
	if confidence < 0 {
		confidence = 0
	}

	return domain.AssignmentSuggestion{
		OwnerID: best.OwnerID,
		Reason: fmt.Sprintf("%s has %.0f%% capacity (%s load), %d active items and %d at risk",
			best.OwnerID, best.CapacityPercent, best.LoadClass, best.ActiveItemCount, best.AtRiskCount),
		ConfidencePercent: confidence,
	}, nil
}

func (e *Engine) assignmentScore(l domain.OwnerLoad) float64 {
	p := e.params
	capacityScore := 100 - l.CapacityPercent
	riskScore := math.Max(0, 100-float64(l.AtRiskCount)*p.AssignRiskPenalty)
	speedScore := p.AssignNeutralSpeed
	if l.AvgResolutionDays > 0 {
		speedScore = math.Max(0, 100-l.AvgResolutionDays*p.AssignSpeedPenalty)
	}
	return p.AssignCapacityWeight*capacityScore + p.AssignRiskWeight*riskScore + p.AssignSpeedWeight*speedScore
}
