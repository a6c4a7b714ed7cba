package sla

import (
	"fmt"
	"sort"

	"slaintel/internal/domain"
)

// PredictBreaches ranks active AT_RISK items that are due within the breach
// window by heuristic breach probability, highest first. Items without a
// policy are skipped.
func (e *Engine) PredictBreaches(items []domain.WorkItem) []domain.BreachPrediction {
	p := e.params
	today := e.today()

	var out []domain.BreachPrediction
	for _, item := range items {
		if !item.IsActive() {
			continue
		}
		st, err := e.Evaluate(item)
		if err != nil {
			continue
		}
		if st.State != domain.SLAAtRisk || st.DaysRemaining <= 0 || st.DaysRemaining > p.BreachWindowDays {
			continue
		}

		prob := p.BreachBaseProbability
		var factors []string
		switch {
		case st.PercentElapsed >= p.BreachVeryClosePercent:
			prob += p.BreachVeryCloseBump
			factors = append(factors, fmt.Sprintf("Very close to deadline (%.0f%% elapsed)", st.PercentElapsed))
		case st.PercentElapsed >= p.BreachApproachingPercent:
			prob += p.BreachApproachingBump
			factors = append(factors, fmt.Sprintf("Approaching deadline (%.0f%% elapsed)", st.PercentElapsed))
		}
		if item.Priority == domain.PriorityUrgent {
			prob += p.BreachUrgentBump
			factors = append(factors, "Urgent priority")
		}
		switch item.Status {
		case domain.StatusPendingInfo:
			prob += p.BreachPendingInfoBump
			factors = append(factors, "Waiting on pending information")
		case domain.StatusEscalated:
			prob += p.BreachEscalatedBump
			factors = append(factors, "Escalated, awaiting decision")
		}
		if item.FinancialImpact != nil && *item.FinancialImpact > p.HighFinancialImpact {
			prob += p.BreachHighImpactBump
			factors = append(factors, fmt.Sprintf("High financial impact (%.0f)", *item.FinancialImpact))
		}
		if prob > p.BreachMaxProbability {
			prob = p.BreachMaxProbability
		}

		out = append(out, domain.BreachPrediction{
			ItemID:                   item.ID,
			ItemRef:                  item.DisplayRef(),
			Title:                    item.Title,
			OwnerID:                  item.OwnerID,
			CurrentState:             st.State,
			PredictedBreachDate:      today.AddDate(0, 0, st.DaysRemaining),
			DaysUntilBreach:          st.DaysRemaining,
			BreachProbabilityPercent: prob,
			RiskFactors:              factors,
			RecommendedAction:        e.breachAction(prob),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].BreachProbabilityPercent > out[j].BreachProbabilityPercent
	})
	return out
}

func (e *Engine) breachAction(prob int) string {
	switch {
	case prob >= e.params.EscalateNowProbability:
		return "Escalate immediately and add support to meet the deadline"
	case prob >= e.params.PrioritizeProbability:
		return "Prioritize this item and send the requester a status update"
	default:
		return "Monitor progress and follow up within 24 hours"
	}
}
