package report

import (
	"fmt"
	"strings"

	"slaintel/internal/analysis"
	"slaintel/internal/domain"
)

const forecastPreviewDays = 7

// RenderMarkdown renders an evaluation report as Markdown using only
// "###" headings, "**bold**" and "- " bullets so the same text converts
// cleanly to a plain-text or HTML email body.
func RenderMarkdown(r analysis.Report, teamName string) string {
	var b strings.Builder
	title := "SLA Intelligence Report"
	if teamName != "" {
		title += ": " + teamName
	}
	fmt.Fprintf(&b, "### %s (%s)\n\n", title, r.GeneratedAt.Format("2006-01-02 15:04"))

	b.WriteString("**Summary**\n")
	fmt.Fprintf(&b, "- Items: %d (%d active", r.ItemCount, r.ActiveCount)
	if r.SkippedItems > 0 {
		fmt.Fprintf(&b, ", %d without SLA policy", r.SkippedItems)
	}
	b.WriteString(")\n")
	fmt.Fprintf(&b, "- On track / at risk / breached: %d / %d / %d\n",
		r.CountByState(domain.SLAOnTrack), r.CountByState(domain.SLAAtRisk), r.CountByState(domain.SLABreached))
	fmt.Fprintf(&b, "- Team capacity: %.0f%% (%s trend), 30-day forecast %.0f%%\n",
		r.Capacity.CurrentCapacityPercent, r.Capacity.WorkloadTrend, r.Capacity.ForecastedCapacity30dPercent)

	b.WriteString("\n### Alerts\n")
	if len(r.Alerts) == 0 {
		b.WriteString("- None\n")
	}
	for _, a := range r.Alerts {
		fmt.Fprintf(&b, "- **%s** %s: %s Action: %s\n", a.Severity, a.Title, a.Description, a.ActionRequired)
	}

	b.WriteString("\n### Breach Predictions\n")
	if len(r.Predictions) == 0 {
		b.WriteString("- None\n")
	}
	for _, p := range r.Predictions {
		owner := p.OwnerID
		if owner == "" {
			owner = "unassigned"
		}
		fmt.Fprintf(&b, "- **%s** %s (%s): %d%% by %s\n", p.ItemRef, p.Title, owner,
			p.BreachProbabilityPercent, p.PredictedBreachDate.Format("2006-01-02"))
		if len(p.RiskFactors) > 0 {
			fmt.Fprintf(&b, "  - Risk factors: %s\n", strings.Join(p.RiskFactors, "; "))
		}
		fmt.Fprintf(&b, "  - Action: %s\n", p.RecommendedAction)
	}

	b.WriteString("\n### Owner Load\n")
	if len(r.Loads) == 0 {
		b.WriteString("- No owners\n")
	}
	for _, l := range r.Loads {
		fmt.Fprintf(&b, "- **%s**: %.0f%% (%s), %d active, %d at risk, %d breached\n",
			l.OwnerID, l.CapacityPercent, l.LoadClass, l.ActiveItemCount, l.AtRiskCount, l.BreachedCount)
	}

	b.WriteString("\n### Bottlenecks\n")
	if len(r.Bottlenecks) == 0 {
		b.WriteString("- None\n")
	}
	for _, bn := range r.Bottlenecks {
		fmt.Fprintf(&b, "- **%s** %s (severity %.0f): %s\n", bn.Type, bn.Location, bn.Severity, bn.Description)
		fmt.Fprintf(&b, "  - Impact: %s\n", bn.Impact)
		fmt.Fprintf(&b, "  - Recommendation: %s\n", bn.Recommendation)
	}

	writeCapacity(&b, r.Capacity)

	b.WriteString("\n### Performance Benchmarks\n")
	if len(r.Benchmarks) == 0 {
		b.WriteString("- No owners\n")
	}
	for _, pb := range r.Benchmarks {
		fmt.Fprintf(&b, "- **%s** %s: %.1f days avg (%+.1f%% vs team), %.0f%% compliance, %d items\n",
			pb.OwnerID, pb.Quality, pb.AvgResolutionDays, pb.VsTeamAveragePercent, pb.SLAComplianceRatePercent, pb.ItemVolume)
		fmt.Fprintf(&b, "  - Strengths: %s\n", strings.Join(pb.Strengths, "; "))
		fmt.Fprintf(&b, "  - Opportunities: %s\n", strings.Join(pb.Opportunities, "; "))
	}

	fmt.Fprintf(&b, "\n### Volume Forecast (next %d days)\n", forecastPreviewDays)
	if len(r.Forecast) == 0 {
		b.WriteString("- No forecast\n")
	}
	for i, fp := range r.Forecast {
		if i >= forecastPreviewDays {
			break
		}
		fmt.Fprintf(&b, "- %s: %d new (%d-%d, %d%% confidence)\n",
			fp.Date.Format("Mon 2006-01-02"), fp.PredictedCount, fp.LowerBound, fp.UpperBound, fp.ConfidencePercent)
	}
	return b.String()
}

// RenderCapacityMarkdown is the short weekly digest body.
func RenderCapacityMarkdown(r analysis.Report, teamName string) string {
	var b strings.Builder
	title := "Weekly Capacity Digest"
	if teamName != "" {
		title += ": " + teamName
	}
	fmt.Fprintf(&b, "### %s (%s)\n", title, r.GeneratedAt.Format("2006-01-02"))
	writeCapacity(&b, r.Capacity)
	return b.String()
}

func writeCapacity(b *strings.Builder, c domain.CapacityAnalysis) {
	b.WriteString("\n### Capacity\n")
	fmt.Fprintf(b, "- Current capacity: %.0f%% across %d owners (%s trend)\n", c.CurrentCapacityPercent, c.CurrentTeamSize, c.WorkloadTrend)
	fmt.Fprintf(b, "- Forecasted capacity: %.0f%% next 7 days, %.0f%% next 30 days\n", c.ForecastedCapacity7dPercent, c.ForecastedCapacity30dPercent)
	fmt.Fprintf(b, "- Team size: %d (optimal %d)\n", c.CurrentTeamSize, c.OptimalTeamSize)
	fmt.Fprintf(b, "- Recommendation: %s\n", c.Recommendation)
}
