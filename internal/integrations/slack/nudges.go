package slackbot

import (
	"fmt"
	"log"
	"strings"

	"slaintel/internal/domain"

	"github.com/slack-go/slack"
)

// SendOwnerNudges DMs each resolved owner the breach predictions for the
// items they hold. Owners without a Slack ID are skipped. It returns the
// number of messages delivered.
func SendOwnerNudges(api *slack.Client, predictions []domain.BreachPrediction, mentions map[string]string) int {
	byOwner := make(map[string][]domain.BreachPrediction)
	var order []string
	for _, p := range predictions {
		if p.OwnerID == "" {
			continue
		}
		if _, ok := byOwner[p.OwnerID]; !ok {
			order = append(order, p.OwnerID)
		}
		byOwner[p.OwnerID] = append(byOwner[p.OwnerID], p)
	}

	sent := 0
	for _, owner := range order {
		userID, ok := mentions[owner]
		if !ok {
			log.Printf("owner nudge skipped owner=%s reason=unresolved", owner)
			continue
		}
		channel, _, _, err := api.OpenConversation(&slack.OpenConversationParameters{
			Users: []string{userID},
		})
		if err != nil {
			log.Printf("Error opening DM with %s: %v", userID, err)
			continue
		}

		_, _, err = api.PostMessage(channel.ID, slack.MsgOptionText(formatOwnerNudge(byOwner[owner]), false))
		if err != nil {
			log.Printf("Error sending owner nudge to %s: %v", userID, err)
			continue
		}
		sent++
		log.Printf("Sent owner nudge to %s items=%d", userID, len(byOwner[owner]))
	}
	return sent
}

func formatOwnerNudge(preds []domain.BreachPrediction) string {
	var b strings.Builder
	if len(preds) == 1 {
		b.WriteString("Heads up: one of your items is likely to breach its SLA soon.\n")
	} else {
		fmt.Fprintf(&b, "Heads up: %d of your items are likely to breach their SLA soon.\n", len(preds))
	}
	for _, p := range preds {
		fmt.Fprintf(&b, "• `%s` %s: %d%% by %s", p.ItemRef, p.Title,
			p.BreachProbabilityPercent, p.PredictedBreachDate.Format("Mon Jan 2"))
		if len(p.RiskFactors) > 0 {
			fmt.Fprintf(&b, " (%s)", p.RiskFactors[0])
		}
		fmt.Fprintf(&b, ". %s\n", p.RecommendedAction)
	}
	return b.String()
}
