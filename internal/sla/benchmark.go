package sla

import (
	"fmt"
	"math"
	"sort"

	"slaintel/internal/domain"
)

// Benchmark compares every owner present in items with the team mean,
// fastest relative to the team first.
func (e *Engine) Benchmark(items []domain.WorkItem) []domain.PerformanceBenchmark {
	p := e.params
	owners := domain.OwnersOf(items)
	if len(owners) == 0 {
		return nil
	}

	teamAvg := p.FallbackTeamAvgDays
	var teamDays, teamResolved int
	for _, item := range items {
		if item.HasOwner() && !item.IsActive() {
			teamDays += item.BusinessDaysElapsed
			teamResolved++
		}
	}
	if teamResolved > 0 {
		teamAvg = float64(teamDays) / float64(teamResolved)
	}

	out := make([]domain.PerformanceBenchmark, 0, len(owners))
	for _, owner := range owners {
		var volume, resolvedDays, resolved, evaluable, onTrack int
		for _, item := range items {
			if item.OwnerID != owner {
				continue
			}
			volume++
			if !item.IsActive() {
				resolvedDays += item.BusinessDaysElapsed
				resolved++
				continue
			}
			st, err := e.Evaluate(item)
			if err != nil {
				continue
			}
			evaluable++
			if st.State == domain.SLAOnTrack {
				onTrack++
			}
		}

		ownerAvg := teamAvg
		if resolved > 0 {
			ownerAvg = float64(resolvedDays) / float64(resolved)
		}
		vs := 0.0
		if teamAvg > 0 {
			vs = (teamAvg - ownerAvg) / teamAvg * 100
		}
		compliance := 100.0
		if evaluable > 0 {
			compliance = float64(onTrack) / float64(evaluable) * 100
		}

		b := domain.PerformanceBenchmark{
			OwnerID:                  owner,
			AvgResolutionDays:        ownerAvg,
			VsTeamAveragePercent:     vs,
			SLAComplianceRatePercent: compliance,
			ItemVolume:               volume,
			Quality:                  classifyQuality(vs, compliance),
		}

		if ownerAvg < teamAvg {
			b.Strengths = append(b.Strengths, fmt.Sprintf("%.0f%% faster than team average", math.Abs(math.Round(vs))))
		}
		if compliance >= p.HighComplianceRate {
			b.Strengths = append(b.Strengths, "Excellent SLA compliance")
		}
		if resolved > p.HighVolumeResolved {
			b.Strengths = append(b.Strengths, "High volume handling")
		}
		if ownerAvg > teamAvg*p.SlowResolutionFactor {
			b.Opportunities = append(b.Opportunities, "Improve resolution time efficiency")
		}
		if compliance < p.LowComplianceRate {
			b.Opportunities = append(b.Opportunities, "Focus on SLA compliance")
		}
		if len(b.Strengths) == 0 {
			b.Strengths = []string{"Consistent performance"}
		}
		if len(b.Opportunities) == 0 {
			b.Opportunities = []string{"Maintain current performance level"}
		}
		out = append(out, b)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].VsTeamAveragePercent > out[j].VsTeamAveragePercent
	})
	return out
}

func classifyQuality(vs, compliance float64) domain.QualityClass {
	switch {
	case vs > 15 && compliance >= 90:
		return domain.QualityExcellent
	case vs > 0 && compliance >= 80:
		return domain.QualityGood
	case vs > -10 && compliance >= 70:
		return domain.QualityAverage
	default:
		return domain.QualityNeedsImprovement
	}
}
