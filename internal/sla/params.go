package sla

import (
	"fmt"

	"slaintel/internal/domain"
)

// Params holds every tunable constant of the engine. Zero values are not
// meaningful; start from DefaultParams and override individual fields.
type Params struct {
	MaxCapacityPoints int                     `yaml:"max_capacity_points"`
	PriorityWeights   map[domain.Priority]int `yaml:"priority_weights"`
	UnderLoadBelow    float64                 `yaml:"under_load_below"`
	OptimalLoadBelow  float64                 `yaml:"optimal_load_below"`
	HighLoadBelow     float64                 `yaml:"high_load_below"`

	AssignCapacityWeight     float64 `yaml:"assign_capacity_weight"`
	AssignRiskWeight         float64 `yaml:"assign_risk_weight"`
	AssignSpeedWeight        float64 `yaml:"assign_speed_weight"`
	AssignRiskPenalty        float64 `yaml:"assign_risk_penalty"`
	AssignSpeedPenalty       float64 `yaml:"assign_speed_penalty"`
	AssignNeutralSpeed       float64 `yaml:"assign_neutral_speed"`
	AssignMaxConfidence      int     `yaml:"assign_max_confidence"`
	AssignFallbackConfidence int     `yaml:"assign_fallback_confidence"`

	TrendWindowDays       int     `yaml:"trend_window_days"`
	WeekendMultiplier     float64 `yaml:"weekend_multiplier"`
	ForecastBandPercent   float64 `yaml:"forecast_band_percent"`
	ForecastConfidenceMax int     `yaml:"forecast_confidence_max"`
	ForecastConfidenceMin int     `yaml:"forecast_confidence_min"`

	BreachWindowDays         int     `yaml:"breach_window_days"`
	BreachBaseProbability    int     `yaml:"breach_base_probability"`
	BreachMaxProbability     int     `yaml:"breach_max_probability"`
	BreachVeryClosePercent   float64 `yaml:"breach_very_close_percent"`
	BreachApproachingPercent float64 `yaml:"breach_approaching_percent"`
	BreachVeryCloseBump      int     `yaml:"breach_very_close_bump"`
	BreachApproachingBump    int     `yaml:"breach_approaching_bump"`
	BreachUrgentBump         int     `yaml:"breach_urgent_bump"`
	BreachPendingInfoBump    int     `yaml:"breach_pending_info_bump"`
	BreachEscalatedBump      int     `yaml:"breach_escalated_bump"`
	BreachHighImpactBump     int     `yaml:"breach_high_impact_bump"`
	HighFinancialImpact      float64 `yaml:"high_financial_impact"`
	EscalateNowProbability   int     `yaml:"escalate_now_probability"`
	PrioritizeProbability    int     `yaml:"prioritize_probability"`

	FallbackTeamAvgDays  float64 `yaml:"fallback_team_avg_days"`
	HighComplianceRate   float64 `yaml:"high_compliance_rate"`
	LowComplianceRate    float64 `yaml:"low_compliance_rate"`
	HighVolumeResolved   int     `yaml:"high_volume_resolved"`
	SlowResolutionFactor float64 `yaml:"slow_resolution_factor"`

	ImminentBreachDays        int     `yaml:"imminent_breach_days"`
	ImminentBreachProbability int     `yaml:"imminent_breach_probability"`
	TeamCapacityAlertPercent  float64 `yaml:"team_capacity_alert_percent"`

	OwnerOverloadPercent       float64 `yaml:"owner_overload_percent"`
	OverloadDelayBase          float64 `yaml:"overload_delay_base"`
	RedistributeShare          float64 `yaml:"redistribute_share"`
	TypeBacklogThreshold       int     `yaml:"type_backlog_threshold"`
	CommitteeThreshold         int     `yaml:"committee_threshold"`
	CommitteeDelayDays         int     `yaml:"committee_delay_days"`
	CommitteeLabel             string  `yaml:"committee_label"`
	EscalationBacklogThreshold int     `yaml:"escalation_backlog_threshold"`

	TrendIncreasingRatio float64 `yaml:"trend_increasing_ratio"`
	TrendDecreasingRatio float64 `yaml:"trend_decreasing_ratio"`
	OwnerDailyThroughput float64 `yaml:"owner_daily_throughput"`
	StaffUpThreshold     float64 `yaml:"staff_up_threshold"`
	OverCapacityPercent  float64 `yaml:"over_capacity_percent"`
	UnderUsedPercent     float64 `yaml:"under_used_percent"`
	TeamGrowthFactor     float64 `yaml:"team_growth_factor"`
}

func (p Params) clone() Params {
	weights := make(map[domain.Priority]int, len(p.PriorityWeights))
	for prio, w := range p.PriorityWeights {
		weights[prio] = w
	}
	p.PriorityWeights = weights
	return p
}

func DefaultParams() Params {
	return Params{
		MaxCapacityPoints: 30,
		PriorityWeights: map[domain.Priority]int{
			domain.PriorityUrgent: 4,
			domain.PriorityHigh:   3,
			domain.PriorityMedium: 2,
			domain.PriorityLow:    1,
		},
		UnderLoadBelow:   50,
		OptimalLoadBelow: 80,
		HighLoadBelow:    100,

		AssignCapacityWeight:     0.5,
		AssignRiskWeight:         0.3,
		AssignSpeedWeight:        0.2,
		AssignRiskPenalty:        20,
		AssignSpeedPenalty:       5,
		AssignNeutralSpeed:       50,
		AssignMaxConfidence:      95,
		AssignFallbackConfidence: 50,

		TrendWindowDays:       14,
		WeekendMultiplier:     0.3,
		ForecastBandPercent:   25,
		ForecastConfidenceMax: 90,
		ForecastConfidenceMin: 75,

		BreachWindowDays:         7,
		BreachBaseProbability:    50,
		BreachMaxProbability:     95,
		BreachVeryClosePercent:   90,
		BreachApproachingPercent: 80,
		BreachVeryCloseBump:      30,
		BreachApproachingBump:    20,
		BreachUrgentBump:         10,
		BreachPendingInfoBump:    15,
		BreachEscalatedBump:      10,
		BreachHighImpactBump:     5,
		HighFinancialImpact:      100000,
		EscalateNowProbability:   80,
		PrioritizeProbability:    65,

		FallbackTeamAvgDays:  7,
		HighComplianceRate:   90,
		LowComplianceRate:    80,
		HighVolumeResolved:   10,
		SlowResolutionFactor: 1.2,

		ImminentBreachDays:        1,
		ImminentBreachProbability: 70,
		TeamCapacityAlertPercent:  85,

		OwnerOverloadPercent:       90,
		OverloadDelayBase:          80,
		RedistributeShare:          0.3,
		TypeBacklogThreshold:       5,
		CommitteeThreshold:         3,
		CommitteeDelayDays:         5,
		CommitteeLabel:             "Escalation Committee",
		EscalationBacklogThreshold: 3,

		TrendIncreasingRatio: 1.15,
		TrendDecreasingRatio: 0.85,
		OwnerDailyThroughput: 1,
		StaffUpThreshold:     85,
		OverCapacityPercent:  90,
		UnderUsedPercent:     60,
		TeamGrowthFactor:     1.2,
	}
}

// Validate rejects parameter sets that would make the engine divide by zero
// or produce out-of-range percentages.
func (p Params) Validate() error {
	if p.MaxCapacityPoints <= 0 {
		return fmt.Errorf("max_capacity_points must be > 0, got %d", p.MaxCapacityPoints)
	}
	for _, prio := range domain.Priorities {
		if w, ok := p.PriorityWeights[prio]; !ok || w < 0 {
			return fmt.Errorf("priority_weights.%s must be set and >= 0", prio)
		}
	}
	if !(p.UnderLoadBelow <= p.OptimalLoadBelow && p.OptimalLoadBelow <= p.HighLoadBelow) {
		return fmt.Errorf("load class bounds must be ascending: %.1f, %.1f, %.1f", p.UnderLoadBelow, p.OptimalLoadBelow, p.HighLoadBelow)
	}
	if p.TrendWindowDays <= 0 {
		return fmt.Errorf("trend_window_days must be > 0, got %d", p.TrendWindowDays)
	}
	if p.WeekendMultiplier < 0 {
		return fmt.Errorf("weekend_multiplier must be >= 0, got %.2f", p.WeekendMultiplier)
	}
	if p.ForecastBandPercent < 0 {
		return fmt.Errorf("forecast_band_percent must be >= 0, got %.1f", p.ForecastBandPercent)
	}
	if p.ForecastConfidenceMin < 0 || p.ForecastConfidenceMax > 100 || p.ForecastConfidenceMin > p.ForecastConfidenceMax {
		return fmt.Errorf("forecast confidence band must satisfy 0 <= min <= max <= 100, got %d..%d", p.ForecastConfidenceMin, p.ForecastConfidenceMax)
	}
	if p.BreachWindowDays <= 0 {
		return fmt.Errorf("breach_window_days must be > 0, got %d", p.BreachWindowDays)
	}
	if p.BreachBaseProbability < 0 || p.BreachMaxProbability > 100 || p.BreachBaseProbability > p.BreachMaxProbability {
		return fmt.Errorf("breach probability band must satisfy 0 <= base <= max <= 100, got %d..%d", p.BreachBaseProbability, p.BreachMaxProbability)
	}
	if p.FallbackTeamAvgDays <= 0 {
		return fmt.Errorf("fallback_team_avg_days must be > 0, got %.1f", p.FallbackTeamAvgDays)
	}
	if p.OwnerDailyThroughput <= 0 {
		return fmt.Errorf("owner_daily_throughput must be > 0, got %.2f", p.OwnerDailyThroughput)
	}
	if p.TrendDecreasingRatio > p.TrendIncreasingRatio {
		return fmt.Errorf("trend_decreasing_ratio %.2f must not exceed trend_increasing_ratio %.2f", p.TrendDecreasingRatio, p.TrendIncreasingRatio)
	}
	if p.TeamGrowthFactor < 1 {
		return fmt.Errorf("team_growth_factor must be >= 1, got %.2f", p.TeamGrowthFactor)
	}
	return nil
}
