package sla

import (
	"math"

	"slaintel/internal/domain"
)

// Forecast extrapolates daily new-item volume horizonDays past the last
// history point. The trend ratio compares the most recent window with the
// window before it; a prior average of zero yields a ratio of 1.
func (e *Engine) Forecast(history []domain.HistoricalPoint, horizonDays int) []domain.ForecastPoint {
	if horizonDays <= 0 {
		return nil
	}
	p := e.params
	window := p.TrendWindowDays

	n := len(history)
	recentStart := max(0, n-window)
	priorStart := max(0, n-2*window)
	recentAvg := meanNewCount(history[recentStart:n])
	priorAvg := meanNewCount(history[priorStart:recentStart])

	ratio := 1.0
	if priorAvg > 0 {
		ratio = recentAvg / priorAvg
	}
	base := recentAvg * ratio

	start := e.today()
	if n > 0 {
		start = domain.DayOf(history[n-1].Date)
	}

	band := p.ForecastBandPercent / 100
	out := make([]domain.ForecastPoint, 0, horizonDays)
	for i := 1; i <= horizonDays; i++ {
		date := start.AddDate(0, 0, i)
		expected := base
		if domain.IsWeekend(date) {
			expected *= p.WeekendMultiplier
		}
		predicted := int(math.Floor(expected))
		lower := int(math.Floor(float64(predicted) * (1 - band)))
		if lower < 0 {
			lower = 0
		}
		upper := int(math.Ceil(float64(predicted) * (1 + band)))

		out = append(out, domain.ForecastPoint{
			Date:              date,
			PredictedCount:    predicted,
			LowerBound:        lower,
			UpperBound:        upper,
			ConfidencePercent: e.forecastConfidence(i, horizonDays),
		})
	}
	return out
}

// forecastConfidence decays linearly from the configured maximum on the
// first forecast day to the minimum on the last.
func (e *Engine) forecastConfidence(day, horizon int) int {
	hi, lo := e.params.ForecastConfidenceMax, e.params.ForecastConfidenceMin
	if horizon <= 1 {
		return hi
	}
	frac := float64(day-1) / float64(horizon-1)
	return int(math.Round(float64(hi) - frac*float64(hi-lo)))
}

func meanNewCount(points []domain.HistoricalPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	sum := 0
	for _, pt := range points {
		sum += pt.NewCount
	}
	return float64(sum) / float64(len(points))
}

// ForecastVolume sums predicted counts over the first days of a forecast.
func ForecastVolume(forecast []domain.ForecastPoint, days int) (int, int) {
	if days > len(forecast) {
		days = len(forecast)
	}
	sum := 0
	for _, fp := range forecast[:days] {
		sum += fp.PredictedCount
	}
	return sum, days
}
