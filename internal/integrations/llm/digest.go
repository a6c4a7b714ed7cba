package llm

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"slaintel/internal/analysis"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultModel       = "claude-sonnet-4-5"
	defaultMaxTokens   = 600
	maxNarrativeChars  = 1500
	maxPromptAlerts    = 10
	maxPromptBreaches  = 10
	maxPromptPriorRuns = 7
)

// Summarizer requests a short narrative for an evaluation report.
type Summarizer struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Glossary   *Glossary
}

// PriorRun is the slice of a past evaluation the prompt uses for trend context.
type PriorRun struct {
	RanAt           time.Time
	BreachedCount   int
	AtRiskCount     int
	AlertCount      int
	CapacityPercent float64
}

// Summarize returns a plain-text narrative of at most a few short paragraphs.
func (s Summarizer) Summarize(ctx context.Context, r analysis.Report, teamName string, prior []PriorRun) (string, Usage, error) {
	if s.APIKey == "" {
		return "", Usage{}, fmt.Errorf("anthropic api key is not configured")
	}
	model := s.Model
	if model == "" {
		model = defaultModel
	}
	systemPrompt, userPrompt := BuildDigestPrompts(r, teamName, prior, s.Glossary)
	log.Printf("llm digest provider=anthropic model=%s alerts=%d predictions=%d", model, len(r.Alerts), len(r.Predictions))

	text, usage, err := s.callAnthropic(ctx, model, systemPrompt, userPrompt)
	if err != nil {
		return "", usage, err
	}
	return cleanNarrative(text), usage, nil
}

// BuildDigestPrompts returns the system and user prompts for the narrative.
func BuildDigestPrompts(r analysis.Report, teamName string, prior []PriorRun, glossary *Glossary) (string, string) {
	var sys strings.Builder
	sys.WriteString("You summarize SLA health for an operations team lead. ")
	sys.WriteString("Write at most three short paragraphs of plain text for Slack. ")
	sys.WriteString("Lead with the most urgent risk, name concrete item references and owners, ")
	sys.WriteString("and end with the single most useful next step. ")
	sys.WriteString("Use only the facts provided; do not invent numbers.\n")
	if terms := glossary.promptLines(); terms != "" {
		sys.WriteString("\nTeam vocabulary:\n")
		sys.WriteString(terms)
	}

	var u strings.Builder
	fmt.Fprintf(&u, "Team: %s\nGenerated: %s\n\n", teamName, r.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&u, "Active items: %d (breached %d, at risk %d, without policy %d)\n",
		r.ActiveCount, r.Today.BreachedCount, r.Today.AtRiskCount, r.SkippedItems)
	c := r.Capacity
	fmt.Fprintf(&u, "Capacity: %.0f%% now, %.0f%% 7d, %.0f%% 30d; trend %s; team %d (optimal %d)\n",
		c.CurrentCapacityPercent, c.ForecastedCapacity7dPercent, c.ForecastedCapacity30dPercent,
		c.WorkloadTrend, c.CurrentTeamSize, c.OptimalTeamSize)
	fmt.Fprintf(&u, "Capacity recommendation: %s\n", c.Recommendation)

	u.WriteString("\nAlerts:\n")
	if len(r.Alerts) == 0 {
		u.WriteString("- none\n")
	}
	for i, a := range r.Alerts {
		if i == maxPromptAlerts {
			fmt.Fprintf(&u, "- (%d more)\n", len(r.Alerts)-maxPromptAlerts)
			break
		}
		fmt.Fprintf(&u, "- [%s] %s: %s\n", a.Severity, a.Title, a.Description)
	}

	u.WriteString("\nLikely breaches:\n")
	if len(r.Predictions) == 0 {
		u.WriteString("- none\n")
	}
	for i, p := range r.Predictions {
		if i == maxPromptBreaches {
			fmt.Fprintf(&u, "- (%d more)\n", len(r.Predictions)-maxPromptBreaches)
			break
		}
		owner := p.OwnerID
		if owner == "" {
			owner = "unassigned"
		}
		fmt.Fprintf(&u, "- %s %q owner=%s probability=%d%% days=%d factors=%s\n",
			p.ItemRef, p.Title, owner, p.BreachProbabilityPercent, p.DaysUntilBreach, strings.Join(p.RiskFactors, "; "))
	}

	if len(r.Bottlenecks) > 0 {
		u.WriteString("\nBottlenecks:\n")
		for _, b := range r.Bottlenecks {
			fmt.Fprintf(&u, "- %s at %s (severity %.0f): %s\n", b.Type, b.Location, b.Severity, b.Impact)
		}
	}

	if len(prior) > 0 {
		u.WriteString("\nPrevious runs (newest first):\n")
		for i, run := range prior {
			if i == maxPromptPriorRuns {
				break
			}
			fmt.Fprintf(&u, "- %s breached=%d at_risk=%d alerts=%d capacity=%.0f%%\n",
				run.RanAt.Format("2006-01-02 15:04"), run.BreachedCount, run.AtRiskCount, run.AlertCount, run.CapacityPercent)
		}
	}
	return sys.String(), u.String()
}

func (s Summarizer) callAnthropic(ctx context.Context, model, systemPrompt, userPrompt string) (string, Usage, error) {
	opts := []option.RequestOption{option.WithAPIKey(s.APIKey)}
	if s.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(s.HTTPClient))
	}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: defaultMaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt, CacheControl: anthropic.NewCacheControlEphemeralParam()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		log.Printf("llm anthropic error: %v", err)
		return "", Usage{}, fmt.Errorf("anthropic api error: %w", err)
	}
	usage := Usage{
		InputTokens:              message.Usage.InputTokens,
		OutputTokens:             message.Usage.OutputTokens,
		CacheCreationInputTokens: message.Usage.CacheCreationInputTokens,
		CacheReadInputTokens:     message.Usage.CacheReadInputTokens,
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			log.Printf("llm anthropic response size=%d tokens_in=%d tokens_out=%d", len(block.Text), usage.InputTokens, usage.OutputTokens)
			return block.Text, usage, nil
		}
	}
	return "", usage, fmt.Errorf("no text content in anthropic response")
}

// cleanNarrative strips code fences and caps the length on a rune boundary.
func cleanNarrative(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) > maxNarrativeChars {
		text = strings.TrimSpace(string(runes[:maxNarrativeChars])) + "…"
	}
	return text
}
