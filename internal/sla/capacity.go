package sla

import (
	"fmt"
	"math"
	"time"

	"slaintel/internal/domain"
)

// AnalyzeCapacity combines current owner load with forecast volume to judge
// whether the team size fits expected demand.
func (e *Engine) AnalyzeCapacity(items []domain.WorkItem, forecast []domain.ForecastPoint) domain.CapacityAnalysis {
	return e.CapacityFrom(items, e.ScoreOwners(items, domain.OwnersOf(items)), forecast)
}

func (e *Engine) CapacityFrom(items []domain.WorkItem, loads []domain.OwnerLoad, forecast []domain.ForecastPoint) domain.CapacityAnalysis {
	p := e.params
	team := len(loads)
	if team == 0 {
		return domain.CapacityAnalysis{
			WorkloadTrend:  e.workloadTrend(items),
			Recommendation: "No team members with assigned items; capacity cannot be assessed",
		}
	}

	f7 := e.forecastedCapacity(forecast, 7, team)
	f30 := e.forecastedCapacity(forecast, 30, team)

	optimal := team
	if f30 > p.StaffUpThreshold {
		optimal = int(math.Ceil(float64(team) * p.TeamGrowthFactor))
	}

	var rec string
	switch {
	case f30 > p.OverCapacityPercent:
		rec = fmt.Sprintf("Consider adding %d team member(s); forecasted demand will exceed capacity", optimal-team)
	case f30 < p.UnderUsedPercent:
		rec = "Current team size is adequate; consider reassigning resources to other priorities"
	default:
		rec = "Current team size is optimal for forecasted demand"
	}

	return domain.CapacityAnalysis{
		CurrentCapacityPercent:       meanCapacity(loads),
		OptimalTeamSize:              optimal,
		CurrentTeamSize:              team,
		WorkloadTrend:                e.workloadTrend(items),
		ForecastedCapacity7dPercent:  f7,
		ForecastedCapacity30dPercent: f30,
		Recommendation:               rec,
	}
}

func (e *Engine) forecastedCapacity(forecast []domain.ForecastPoint, window, team int) float64 {
	volume, days := ForecastVolume(forecast, window)
	if days == 0 || team == 0 {
		return 0
	}
	return float64(volume) / (float64(team*days) * e.params.OwnerDailyThroughput) * 100
}

// workloadTrend compares items submitted in the last window with the window
// before it.
func (e *Engine) workloadTrend(items []domain.WorkItem) domain.WorkloadTrend {
	window := e.params.TrendWindowDays
	today := e.today()
	var recent, prior int
	for _, item := range items {
		if item.SubmittedAt.IsZero() {
			continue
		}
		age := daysBetween(domain.DayOf(item.SubmittedAt.In(today.Location())), today)
		switch {
		case age >= 0 && age <= window:
			recent++
		case age > window && age <= 2*window:
			prior++
		}
	}

	ratio := 1.0
	if prior > 0 {
		ratio = float64(recent) / float64(prior)
	}
	switch {
	case ratio > e.params.TrendIncreasingRatio:
		return domain.TrendIncreasing
	case ratio < e.params.TrendDecreasingRatio:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}
