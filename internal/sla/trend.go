package sla

import (
	"sort"
	"time"

	"slaintel/internal/domain"
)

// AggregateDay summarizes the snapshot as of day. New and resolved counts
// are the items submitted or resolved on that calendar day in day's location.
func (e *Engine) AggregateDay(items []domain.WorkItem, day time.Time) domain.DailyAggregate {
	day = domain.DayOf(day)
	agg := domain.DailyAggregate{Date: day, TotalCount: len(items)}

	var resolvedDays, resolvedCount int
	for _, item := range items {
		if sameDay(item.SubmittedAt, day) {
			agg.NewCount++
		}
		if !item.IsActive() {
			resolvedDays += item.BusinessDaysElapsed
			resolvedCount++
			if item.ResolvedAt != nil && sameDay(*item.ResolvedAt, day) {
				agg.ResolvedCount++
			}
			continue
		}

		agg.ActiveCount++
		st, err := e.Evaluate(item)
		if err != nil {
			continue
		}
		switch st.State {
		case domain.SLAOnTrack:
			agg.OnTrackCount++
		case domain.SLAAtRisk:
			agg.AtRiskCount++
		case domain.SLABreached:
			agg.BreachedCount++
		}
	}
	if resolvedCount > 0 {
		agg.AvgResolutionDays = float64(resolvedDays) / float64(resolvedCount)
	}
	return agg
}

// BuildHistory orders raw aggregates chronologically, keeps the last
// aggregate supplied for each calendar day and derives compliance.
func BuildHistory(aggregates []domain.DailyAggregate) []domain.HistoricalPoint {
	sorted := make([]domain.DailyAggregate, len(aggregates))
	copy(sorted, aggregates)
	for i := range sorted {
		sorted[i].Date = domain.DayOf(sorted[i].Date)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := make([]domain.HistoricalPoint, 0, len(sorted))
	for _, agg := range sorted {
		p := toHistoricalPoint(agg)
		if n := len(out); n > 0 && out[n-1].Date.Equal(p.Date) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

func toHistoricalPoint(agg domain.DailyAggregate) domain.HistoricalPoint {
	compliance := 100.0
	if agg.ActiveCount > 0 {
		compliance = float64(agg.OnTrackCount) / float64(agg.ActiveCount) * 100
	}
	return domain.HistoricalPoint{
		Date:                  agg.Date,
		TotalActive:           agg.TotalCount,
		NewCount:              agg.NewCount,
		ResolvedCount:         agg.ResolvedCount,
		ActiveCount:           agg.ActiveCount,
		OnTrackCount:          agg.OnTrackCount,
		AtRiskCount:           agg.AtRiskCount,
		BreachedCount:         agg.BreachedCount,
		ComplianceRatePercent: compliance,
		AvgResolutionDays:     agg.AvgResolutionDays,
	}
}

func sameDay(t, day time.Time) bool {
	if t.IsZero() {
		return false
	}
	y1, m1, d1 := t.In(day.Location()).Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
