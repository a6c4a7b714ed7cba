// Package synthetic generates reproducible demo history for deployments
// that have not yet accumulated real daily aggregates.
package synthetic

import (
	"math"
	"math/rand"
	"time"

	"slaintel/internal/domain"
)

const (
	weekendMultiplier = 0.3
	trendGrowth       = 0.2
)

// History returns one aggregate per calendar day ending at end, oldest first.
// The same seed always yields the same series.
func History(seed int64, days int, end time.Time) []domain.DailyAggregate {
	if days <= 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(seed))
	end = domain.DayOf(end)

	out := make([]domain.DailyAggregate, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := end.AddDate(0, 0, -i)
		seasonal := 1.0
		if domain.IsWeekend(date) {
			seasonal = weekendMultiplier
		}
		trend := 1 + float64(i)/float64(days)*trendGrowth

		newCount := int(math.Floor(seasonal * trend * (3 + rng.Float64()*2)))
		resolved := int(math.Floor(seasonal * (2 + rng.Float64()*2)))
		total := 15 + rng.Intn(5)
		active := total - resolved
		onTrack := int(math.Floor(float64(active) * (0.65 + rng.Float64()*0.1)))
		atRisk := int(math.Floor(float64(active) * (0.2 + rng.Float64()*0.1)))
		if onTrack+atRisk > active {
			atRisk = active - onTrack
		}
		breached := active - onTrack - atRisk

		out = append(out, domain.DailyAggregate{
			Date:              date,
			TotalCount:        total,
			NewCount:          newCount,
			ResolvedCount:     resolved,
			ActiveCount:       active,
			OnTrackCount:      onTrack,
			AtRiskCount:       atRisk,
			BreachedCount:     breached,
			AvgResolutionDays: math.Round((5+rng.Float64()*3)*10) / 10,
		})
	}
	return out
}
