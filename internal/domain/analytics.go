package domain

import "time"

type SLAState string

const (
	SLAOnTrack  SLAState = "ON_TRACK"
	SLAAtRisk   SLAState = "AT_RISK"
	SLABreached SLAState = "BREACHED"
)

// Rank orders states so that a later state never sorts before an earlier one.
func (s SLAState) Rank() int {
	switch s {
	case SLAOnTrack:
		return 0
	case SLAAtRisk:
		return 1
	case SLABreached:
		return 2
	default:
		return -1
	}
}

type SLAPolicy struct {
	ID                         string
	ItemType                   string
	Priority                   Priority
	TargetResolutionDays       int
	WarningThresholdPercent    float64
	EscalationThresholdPercent float64
	Description                string
}

type SLAStatus struct {
	ItemID         string
	Policy         SLAPolicy
	DaysElapsed    int
	DaysRemaining  int
	PercentElapsed float64
	State          SLAState
	ShouldEscalate bool
}

type LoadClass string

const (
	LoadUnder   LoadClass = "UNDER"
	LoadOptimal LoadClass = "OPTIMAL"
	LoadHigh    LoadClass = "HIGH"
	LoadOver    LoadClass = "OVER"
)

type OwnerLoad struct {
	OwnerID           string
	ActiveItemCount   int
	ByPriority        map[Priority]int
	AtRiskCount       int
	BreachedCount     int
	AvgResolutionDays float64
	WeightedPoints    int
	// RawCapacityPercent is the unsaturated score; CapacityPercent is capped at 100.
	RawCapacityPercent float64
	CapacityPercent    float64
	LoadClass          LoadClass
}

type AssignmentSuggestion struct {
	OwnerID           string
	Reason            string
	ConfidencePercent int
}

type HistoricalPoint struct {
	Date                  time.Time
	TotalActive           int
	NewCount              int
	ResolvedCount         int
	ActiveCount           int
	OnTrackCount          int
	AtRiskCount           int
	BreachedCount         int
	ComplianceRatePercent float64
	AvgResolutionDays     float64
}

type ForecastPoint struct {
	Date              time.Time
	PredictedCount    int
	LowerBound        int
	UpperBound        int
	ConfidencePercent int
}

type BreachPrediction struct {
	ItemID                   string
	ItemRef                  string
	Title                    string
	OwnerID                  string
	CurrentState             SLAState
	PredictedBreachDate      time.Time
	DaysUntilBreach          int
	BreachProbabilityPercent int
	RiskFactors              []string
	RecommendedAction        string
}

type QualityClass string

const (
	QualityExcellent        QualityClass = "EXCELLENT"
	QualityGood             QualityClass = "GOOD"
	QualityAverage          QualityClass = "AVERAGE"
	QualityNeedsImprovement QualityClass = "NEEDS_IMPROVEMENT"
)

type PerformanceBenchmark struct {
	OwnerID                  string
	AvgResolutionDays        float64
	VsTeamAveragePercent     float64
	SLAComplianceRatePercent float64
	ItemVolume               int
	Quality                  QualityClass
	Strengths                []string
	Opportunities            []string
}

type AlertType string

const (
	AlertSLABreach       AlertType = "SLA_BREACH"
	AlertLoadImbalance   AlertType = "LOAD_IMBALANCE"
	AlertPerformanceDrop AlertType = "PERFORMANCE_DROP"
	AlertAnomaly         AlertType = "ANOMALY"
	AlertCapacity        AlertType = "CAPACITY"
)

type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Rank is 0 for CRITICAL and grows as severity drops.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

type Alert struct {
	ID             string
	Type           AlertType
	Severity       Severity
	Title          string
	Description    string
	Timestamp      time.Time
	ActionRequired string
	AffectedItems  []string
	AffectedOwners []string
}

type BottleneckType string

const (
	BottleneckOwnerOverload   BottleneckType = "OWNER_OVERLOAD"
	BottleneckTypeBacklog     BottleneckType = "TYPE_BACKLOG"
	BottleneckEscalationDelay BottleneckType = "ESCALATION_DELAY"
	BottleneckCommitteeDelay  BottleneckType = "COMMITTEE_DELAY"
)

type Bottleneck struct {
	Type               BottleneckType
	Location           string
	Severity           float64
	Description        string
	Impact             string
	Recommendation     string
	EstimatedDelayDays int
}

type WorkloadTrend string

const (
	TrendIncreasing WorkloadTrend = "INCREASING"
	TrendStable     WorkloadTrend = "STABLE"
	TrendDecreasing WorkloadTrend = "DECREASING"
)

type CapacityAnalysis struct {
	CurrentCapacityPercent       float64
	OptimalTeamSize              int
	CurrentTeamSize              int
	WorkloadTrend                WorkloadTrend
	ForecastedCapacity7dPercent  float64
	ForecastedCapacity30dPercent float64
	Recommendation               string
}

// DailyAggregate is the raw per-day snapshot persisted by the history store.
// Compliance is derived from it rather than stored.
type DailyAggregate struct {
	Date              time.Time
	TotalCount        int
	NewCount          int
	ResolvedCount     int
	ActiveCount       int
	OnTrackCount      int
	AtRiskCount       int
	BreachedCount     int
	AvgResolutionDays float64
}
