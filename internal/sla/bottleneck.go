package sla

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"slaintel/internal/domain"
)

// DetectBottlenecks finds structural causes of delay in the snapshot,
// most severe first.
func (e *Engine) DetectBottlenecks(items []domain.WorkItem) []domain.Bottleneck {
	return e.BottlenecksFrom(items, e.ScoreOwners(items, domain.OwnersOf(items)))
}

// BottlenecksFrom is DetectBottlenecks over precomputed owner loads.
func (e *Engine) BottlenecksFrom(items []domain.WorkItem, loads []domain.OwnerLoad) []domain.Bottleneck {
	p := e.params
	var out []domain.Bottleneck

	for _, l := range loads {
		if l.CapacityPercent <= p.OwnerOverloadPercent {
			continue
		}
		delay := int(math.Ceil((l.RawCapacityPercent - p.OverloadDelayBase) / 10))
		out = append(out, domain.Bottleneck{
			Type:               domain.BottleneckOwnerOverload,
			Location:           l.OwnerID,
			Severity:           l.CapacityPercent,
			Description:        fmt.Sprintf("%s is at %.0f%% capacity with %d active items", l.OwnerID, l.RawCapacityPercent, l.ActiveItemCount),
			Impact:             fmt.Sprintf("Items may be delayed by %d days", delay),
			Recommendation:     fmt.Sprintf("Redistribute %d items to other team members", int(math.Ceil(float64(l.ActiveItemCount)*p.RedistributeShare))),
			EstimatedDelayDays: delay,
		})
	}

	var typeOrder []string
	byType := make(map[string]int)
	var escalated, awaitingEscalation int
	for _, item := range items {
		if !item.IsActive() {
			continue
		}
		if _, ok := byType[item.ItemType]; !ok {
			typeOrder = append(typeOrder, item.ItemType)
		}
		byType[item.ItemType]++

		if item.Status == domain.StatusEscalated {
			escalated++
			continue
		}
		if st, err := e.Evaluate(item); err == nil && st.ShouldEscalate {
			awaitingEscalation++
		}
	}

	for _, typ := range typeOrder {
		n := byType[typ]
		if n <= p.TypeBacklogThreshold {
			continue
		}
		label := strings.ReplaceAll(typ, "_", " ")
		out = append(out, domain.Bottleneck{
			Type:               domain.BottleneckTypeBacklog,
			Location:           label,
			Severity:           math.Min(100, float64(n*10)),
			Description:        fmt.Sprintf("%d active %s items in backlog", n, strings.ToLower(label)),
			Impact:             "May affect overall SLA compliance",
			Recommendation:     "Assign additional resources to this item type",
			EstimatedDelayDays: int(math.Ceil(float64(n) / 3)),
		})
	}

	if awaitingEscalation > p.EscalationBacklogThreshold {
		out = append(out, domain.Bottleneck{
			Type:               domain.BottleneckEscalationDelay,
			Location:           "Escalation queue",
			Severity:           math.Min(100, float64(awaitingEscalation*12)),
			Description:        fmt.Sprintf("%d items are past their escalation threshold but not yet escalated", awaitingEscalation),
			Impact:             "Late escalation leaves little time to recover the SLA",
			Recommendation:     "Escalate overdue items and review escalation triggers",
			EstimatedDelayDays: int(math.Ceil(float64(awaitingEscalation) / 2)),
		})
	}

	if escalated > p.CommitteeThreshold {
		out = append(out, domain.Bottleneck{
			Type:               domain.BottleneckCommitteeDelay,
			Location:           p.CommitteeLabel,
			Severity:           math.Min(100, float64(escalated*15)),
			Description:        fmt.Sprintf("%d items awaiting committee decision", escalated),
			Impact:             "Escalated items may breach SLA while awaiting committee",
			Recommendation:     "Schedule an emergency committee meeting or delegate authority",
			EstimatedDelayDays: p.CommitteeDelayDays,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity > out[j].Severity
	})
	return out
}
