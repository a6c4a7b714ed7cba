package slackbot

import (
	"fmt"
	"log"
	"strings"

	"slaintel/internal/analysis"
	"slaintel/internal/domain"

	"github.com/slack-go/slack"
)

const maxDigestPredictions = 5

var severityIcon = map[domain.Severity]string{
	domain.SeverityCritical: ":red_circle:",
	domain.SeverityHigh:     ":large_orange_circle:",
	domain.SeverityMedium:   ":large_yellow_circle:",
	domain.SeverityLow:      ":white_circle:",
}

// FormatAlertDigest renders the per-run alert digest in Slack mrkdwn.
// mentions maps owner IDs to Slack user IDs; owners without an entry are
// shown by name.
func FormatAlertDigest(r analysis.Report, teamName string, mentions map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*SLA alerts for %s* (%s)\n", teamName, r.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Breached %d | At risk %d | On track %d | Capacity %.0f%% | 30d forecast %.0f%%\n",
		r.CountByState(domain.SLABreached), r.CountByState(domain.SLAAtRisk), r.CountByState(domain.SLAOnTrack),
		r.Capacity.CurrentCapacityPercent, r.Capacity.ForecastedCapacity30dPercent)

	if len(r.Alerts) == 0 {
		b.WriteString("\nNo active alerts.\n")
	}
	for _, a := range r.Alerts {
		fmt.Fprintf(&b, "\n%s *%s* %s\n", severityIcon[a.Severity], a.Severity, a.Title)
		fmt.Fprintf(&b, "> %s\n", a.Description)
		if len(a.AffectedOwners) > 0 {
			fmt.Fprintf(&b, "> Owners: %s\n", strings.Join(mentionAll(a.AffectedOwners, mentions), ", "))
		}
		fmt.Fprintf(&b, "> _Action:_ %s\n", a.ActionRequired)
	}

	if len(r.Predictions) > 0 {
		b.WriteString("\n*Likely breaches*\n")
		for i, p := range r.Predictions {
			if i == maxDigestPredictions {
				fmt.Fprintf(&b, "• …and %d more\n", len(r.Predictions)-maxDigestPredictions)
				break
			}
			fmt.Fprintf(&b, "• `%s` %s (%s) %d%% in %dd\n", p.ItemRef, p.Title,
				mention(p.OwnerID, mentions), p.BreachProbabilityPercent, p.DaysUntilBreach)
		}
	}
	return b.String()
}

// FormatCapacityDigest renders the weekly capacity and bottleneck digest.
func FormatCapacityDigest(r analysis.Report, teamName string) string {
	c := r.Capacity
	var b strings.Builder
	fmt.Fprintf(&b, "*Weekly capacity digest for %s* (%s)\n", teamName, r.GeneratedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "• Team size: %d (optimal %d)\n", c.CurrentTeamSize, c.OptimalTeamSize)
	fmt.Fprintf(&b, "• Capacity: %.0f%% now, %.0f%% next 7d, %.0f%% next 30d\n",
		c.CurrentCapacityPercent, c.ForecastedCapacity7dPercent, c.ForecastedCapacity30dPercent)
	fmt.Fprintf(&b, "• Workload trend: %s\n", c.WorkloadTrend)
	fmt.Fprintf(&b, "• Recommendation: %s\n", c.Recommendation)

	if len(r.Bottlenecks) > 0 {
		b.WriteString("\n*Bottlenecks*\n")
		for _, bn := range r.Bottlenecks {
			fmt.Fprintf(&b, "• *%s* (%s, severity %.0f, ~%dd delay): %s\n",
				bn.Location, bn.Type, bn.Severity, bn.EstimatedDelayDays, bn.Recommendation)
		}
	}

	if len(r.Loads) > 0 {
		b.WriteString("\n*Owner load*\n")
		for _, l := range r.Loads {
			fmt.Fprintf(&b, "• %s: %.0f%% (%s), %d active\n", l.OwnerID, l.CapacityPercent, l.LoadClass, l.ActiveItemCount)
		}
	}
	return b.String()
}

// PostDigest posts text to a channel. Empty channel IDs are a no-op.
func PostDigest(api *slack.Client, channelID, text string) error {
	if channelID == "" {
		return nil
	}
	_, _, err := api.PostMessage(channelID, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("post digest to %s: %w", channelID, err)
	}
	log.Printf("slack digest posted channel=%s chars=%d", channelID, len(text))
	return nil
}

func mention(owner string, mentions map[string]string) string {
	if owner == "" {
		return "unassigned"
	}
	if id, ok := mentions[owner]; ok {
		return "<@" + id + ">"
	}
	return owner
}

func mentionAll(owners []string, mentions map[string]string) []string {
	out := make([]string, 0, len(owners))
	for _, o := range owners {
		out = append(out, mention(o, mentions))
	}
	return out
}
