package sla

import (
	"fmt"
	"sort"
	"strings"

	"slaintel/internal/domain"

	"github.com/google/uuid"
)

// GenerateAlerts applies the alert rules to the snapshot, most severe first.
// When ownerIDs is empty the owners present in items are used.
func (e *Engine) GenerateAlerts(items []domain.WorkItem, ownerIDs []string) []domain.Alert {
	if len(ownerIDs) == 0 {
		ownerIDs = domain.OwnersOf(items)
	}
	return e.AlertsFrom(items, e.ScoreOwners(items, ownerIDs), e.PredictBreaches(items))
}

// AlertsFrom is GenerateAlerts over precomputed owner loads and predictions.
func (e *Engine) AlertsFrom(items []domain.WorkItem, loads []domain.OwnerLoad, predictions []domain.BreachPrediction) []domain.Alert {
	p := e.params
	now := e.now()
	var alerts []domain.Alert

	var breached []string
	var breachedOwners []string
	for _, item := range items {
		if !item.IsActive() {
			continue
		}
		st, err := e.Evaluate(item)
		if err != nil || st.State != domain.SLABreached {
			continue
		}
		breached = append(breached, item.ID)
		if item.HasOwner() {
			breachedOwners = appendUnique(breachedOwners, item.OwnerID)
		}
	}
	if len(breached) > 0 {
		alerts = append(alerts, domain.Alert{
			ID:             uuid.NewString(),
			Type:           domain.AlertSLABreach,
			Severity:       domain.SeverityCritical,
			Title:          fmt.Sprintf("%d %s past SLA deadline", len(breached), plural(len(breached), "item", "items")),
			Description:    fmt.Sprintf("%d item(s) have exceeded their SLA resolution deadline and need immediate attention.", len(breached)),
			Timestamp:      now,
			ActionRequired: "Review breached items and escalate to management",
			AffectedItems:  breached,
			AffectedOwners: breachedOwners,
		})
	}

	var over, under []string
	for _, l := range loads {
		switch l.LoadClass {
		case domain.LoadOver:
			over = append(over, l.OwnerID)
		case domain.LoadUnder:
			under = append(under, l.OwnerID)
		}
	}
	if len(over) > 0 && len(under) > 0 {
		alerts = append(alerts, domain.Alert{
			ID:       uuid.NewString(),
			Type:     domain.AlertLoadImbalance,
			Severity: domain.SeverityHigh,
			Title:    "Workload imbalance detected",
			Description: fmt.Sprintf("%d owner(s) overloaded (%s) while %d owner(s) have capacity (%s).",
				len(over), strings.Join(over, ", "), len(under), strings.Join(under, ", ")),
			Timestamp:      now,
			ActionRequired: "Redistribute items from overloaded to available owners",
			AffectedOwners: append(append([]string{}, over...), under...),
		})
	}

	var imminent []domain.BreachPrediction
	for _, bp := range predictions {
		if bp.DaysUntilBreach <= p.ImminentBreachDays && bp.BreachProbabilityPercent >= p.ImminentBreachProbability {
			imminent = append(imminent, bp)
		}
	}
	if len(imminent) > 0 {
		ids := make([]string, 0, len(imminent))
		var owners []string
		minProb := imminent[0].BreachProbabilityPercent
		for _, bp := range imminent {
			ids = append(ids, bp.ItemID)
			if bp.OwnerID != "" {
				owners = appendUnique(owners, bp.OwnerID)
			}
			if bp.BreachProbabilityPercent < minProb {
				minProb = bp.BreachProbabilityPercent
			}
		}
		alerts = append(alerts, domain.Alert{
			ID:             uuid.NewString(),
			Type:           domain.AlertSLABreach,
			Severity:       domain.SeverityHigh,
			Title:          fmt.Sprintf("%d %s at risk within 24 hours", len(imminent), plural(len(imminent), "item", "items")),
			Description:    fmt.Sprintf("%d item(s) predicted to breach SLA within 24 hours with %d%%+ probability.", len(imminent), minProb),
			Timestamp:      now,
			ActionRequired: "Prioritize at-risk items immediately",
			AffectedItems:  ids,
			AffectedOwners: owners,
		})
	}

	if len(loads) > 0 {
		avg := meanCapacity(loads)
		if avg > p.TeamCapacityAlertPercent {
			alerts = append(alerts, domain.Alert{
				ID:             uuid.NewString(),
				Type:           domain.AlertCapacity,
				Severity:       domain.SeverityMedium,
				Title:          "Team capacity high",
				Description:    fmt.Sprintf("Team is operating at %.0f%% capacity. Consider additional resources or handling critical items only.", avg),
				Timestamp:      now,
				ActionRequired: "Review upcoming volume and plan for additional capacity",
			})
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Severity.Rank() < alerts[j].Severity.Rank()
	})
	return alerts
}

func meanCapacity(loads []domain.OwnerLoad) float64 {
	if len(loads) == 0 {
		return 0
	}
	sum := 0.0
	for _, l := range loads {
		sum += l.CapacityPercent
	}
	return sum / float64(len(loads))
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
