package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"slaintel/internal/analysis"
	"slaintel/internal/config"
	"slaintel/internal/domain"
	"slaintel/internal/fetch"
	"slaintel/internal/httpx"
	llm "slaintel/internal/integrations/llm"
	slackbot "slaintel/internal/integrations/slack"
	"slaintel/internal/metrics"
	"slaintel/internal/report"
	"slaintel/internal/sla"
	"slaintel/internal/storage/sqlite"
	"slaintel/internal/synthetic"

	"github.com/slack-go/slack"
)

// minPersistedHistoryDays is the history length below which synthetic
// history is blended in when enabled.
const minPersistedHistoryDays = 28

const priorRunsForNarrative = 7

// Runner performs evaluation runs and delivers their results. Optional
// collaborators are nil when not configured.
type Runner struct {
	cfg        config.Config
	db         *sql.DB
	engine     *sla.Engine
	api        *slack.Client
	metrics    *metrics.Metrics
	summarizer *llm.Summarizer
	now        func() time.Time

	mu       sync.Mutex
	last     *analysis.Report
	llmUsage llm.Usage
}

func NewRunner(cfg config.Config, db *sql.DB, engine *sla.Engine, api *slack.Client, m *metrics.Metrics, s *llm.Summarizer) *Runner {
	return &Runner{
		cfg:        cfg,
		db:         db,
		engine:     engine,
		api:        api,
		metrics:    m,
		summarizer: s,
		now:        time.Now,
	}
}

// Evaluate imports fresh work items when a source is configured, runs the
// analysis pass and persists the day's aggregate and a run record.
func (r *Runner) Evaluate(ctx context.Context) (analysis.Report, error) {
	started := time.Now()
	if r.cfg.WorkItemSourceConfigured() {
		src := fetch.Source{
			FeedURL:   r.cfg.WorkItemsFeedURL,
			FeedToken: r.cfg.WorkItemsFeedToken,
			FilePath:  r.cfg.WorkItemsFile,
			Client:    httpx.Client(),
			Location:  r.cfg.Location,
		}
		result, err := fetch.Import(ctx, r.db, src, r.cfg.TeamMembers)
		if err != nil {
			log.Printf("evaluation import error: %v", err)
		}
		log.Printf("evaluation import: %s", fetch.FormatImportSummary(result))
		if stored, err := sqlite.CountWorkItems(r.db); err == nil {
			log.Printf("evaluation snapshot stored=%d", stored)
		}
	}

	items, err := sqlite.ListWorkItems(r.db)
	if err != nil {
		return r.fail(fmt.Errorf("list work items: %w", err))
	}

	now := r.now().In(r.cfg.Location)
	today := domain.DayOf(now)
	history, err := sqlite.GetDailyAggregates(r.db, today.AddDate(0, 0, -r.cfg.HistoryDays))
	if err != nil {
		return r.fail(fmt.Errorf("load daily history: %w", err))
	}
	if r.cfg.SyntheticHistory && len(history) < minPersistedHistoryDays {
		// Stored days come last so they replace synthetic days with the same date.
		synth := synthetic.History(int64(r.cfg.SyntheticSeed), r.cfg.HistoryDays, today.AddDate(0, 0, -1))
		log.Printf("evaluation history persisted=%d synthetic=%d", len(history), len(synth))
		history = append(synth, history...)
	}

	owners := r.cfg.TeamMembers
	if len(owners) == 0 {
		owners = domain.OwnersOf(items)
	}

	rep, err := analysis.Run(ctx, r.engine, analysis.Snapshot{
		Items:    items,
		OwnerIDs: owners,
		History:  history,
		Horizon:  r.cfg.ForecastHorizonDays,
	}, analysis.WithMaxItems(r.cfg.MaxSnapshotItems), analysis.WithClock(func() time.Time { return now }))
	if err != nil {
		return r.fail(fmt.Errorf("analysis: %w", err))
	}

	if err := sqlite.UpsertDailyAggregate(r.db, rep.Today); err != nil {
		return r.fail(fmt.Errorf("store daily aggregate: %w", err))
	}
	run := sqlite.EvaluationRun{
		RanAt:           rep.GeneratedAt,
		ItemCount:       rep.ItemCount,
		SkippedCount:    rep.SkippedItems,
		BreachedCount:   rep.CountByState(domain.SLABreached),
		AtRiskCount:     rep.CountByState(domain.SLAAtRisk),
		AlertCount:      len(rep.Alerts),
		CapacityPercent: rep.Capacity.CurrentCapacityPercent,
	}
	if err := sqlite.InsertEvaluationRun(r.db, run); err != nil {
		return r.fail(fmt.Errorf("store evaluation run: %w", err))
	}

	if r.metrics != nil {
		r.metrics.Observe(rep, time.Since(started))
	}
	r.mu.Lock()
	r.last = &rep
	r.mu.Unlock()

	log.Printf("evaluation run items=%d active=%d skipped=%d breached=%d at_risk=%d alerts=%d capacity=%.1f took=%s",
		rep.ItemCount, rep.ActiveCount, rep.SkippedItems, run.BreachedCount, run.AtRiskCount, run.AlertCount,
		run.CapacityPercent, time.Since(started).Round(time.Millisecond))
	return rep, nil
}

func (r *Runner) fail(err error) (analysis.Report, error) {
	if r.metrics != nil {
		r.metrics.RunFailed()
	}
	return analysis.Report{}, err
}

// RunEvaluation is the scheduled job: evaluate, then write the report files
// and post the alert digest.
func (r *Runner) RunEvaluation(ctx context.Context) {
	rep, err := r.Evaluate(ctx)
	if err != nil {
		log.Printf("evaluation error: %v", err)
		return
	}
	if err := r.writeReportFiles(rep); err != nil {
		log.Printf("report file error: %v", err)
	}
	r.deliverAlerts(ctx, rep)
}

// RunCapacityDigest posts the weekly capacity digest built from the latest
// report, evaluating first when no run has completed yet.
func (r *Runner) RunCapacityDigest(ctx context.Context) {
	rep, ok := r.LastReport()
	if !ok {
		var err error
		if rep, err = r.Evaluate(ctx); err != nil {
			log.Printf("capacity digest error: %v", err)
			return
		}
	}

	md := report.RenderCapacityMarkdown(rep, r.cfg.TeamName)
	if path, err := report.WriteReportFile(md, r.cfg.ReportOutputDir, rep.GeneratedAt, r.cfg.TeamName+" capacity"); err != nil {
		log.Printf("capacity digest file error: %v", err)
	} else {
		log.Printf("capacity digest written to %s", path)
	}

	if r.api == nil {
		return
	}
	if err := slackbot.PostDigest(r.api, r.cfg.DigestChannelID, slackbot.FormatCapacityDigest(rep, r.cfg.TeamName)); err != nil {
		log.Printf("capacity digest post error: %v", err)
	}
}

func (r *Runner) LastReport() (analysis.Report, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return analysis.Report{}, false
	}
	return *r.last, true
}

func (r *Runner) writeReportFiles(rep analysis.Report) error {
	md := report.RenderMarkdown(rep, r.cfg.TeamName)
	path, err := report.WriteReportFile(md, r.cfg.ReportOutputDir, rep.GeneratedAt, r.cfg.TeamName)
	if err != nil {
		return err
	}
	log.Printf("report written to %s", path)

	if r.cfg.EmailDraftEnabled {
		emlPath, err := report.WriteEmailDraftFile(md, r.cfg.ReportOutputDir, rep.GeneratedAt, r.cfg.TeamName+" SLA report")
		if err != nil {
			return err
		}
		log.Printf("email draft written to %s", emlPath)
	}
	return nil
}

func (r *Runner) deliverAlerts(ctx context.Context, rep analysis.Report) {
	if r.api == nil {
		return
	}

	var owners []string
	for _, a := range rep.Alerts {
		owners = append(owners, a.AffectedOwners...)
	}
	for _, p := range rep.Predictions {
		owners = append(owners, p.OwnerID)
	}
	mentions, unresolved, err := slackbot.ResolveOwnerMentions(r.api, owners)
	if err != nil {
		log.Printf("resolve owner mentions error: %v", err)
	}
	if len(unresolved) > 0 {
		log.Printf("unresolved owners: %d", len(unresolved))
	}

	if r.cfg.AlertChannelID != "" {
		text := slackbot.FormatAlertDigest(rep, r.cfg.TeamName, mentions)
		if narrative := r.narrative(ctx, rep); narrative != "" {
			text += "\n*Summary*\n" + narrative + "\n"
		}
		if err := slackbot.PostDigest(r.api, r.cfg.AlertChannelID, text); err != nil {
			log.Printf("alert digest post error: %v", err)
		}
	}

	if r.cfg.OwnerNudgesEnabled {
		sent := slackbot.SendOwnerNudges(r.api, rep.Predictions, mentions)
		log.Printf("owner nudges sent=%d", sent)
	}
}

// narrative returns "" when the summarizer is off or fails; the plain
// digest is posted either way.
func (r *Runner) narrative(ctx context.Context, rep analysis.Report) string {
	if r.summarizer == nil {
		return ""
	}
	runs, err := sqlite.GetRecentEvaluationRuns(r.db, priorRunsForNarrative+1)
	if err != nil {
		log.Printf("llm digest prior runs error: %v", err)
	}
	var prior []llm.PriorRun
	for _, run := range runs {
		if run.RanAt.Equal(rep.GeneratedAt) {
			continue
		}
		prior = append(prior, llm.PriorRun{
			RanAt:           run.RanAt,
			BreachedCount:   run.BreachedCount,
			AtRiskCount:     run.AtRiskCount,
			AlertCount:      run.AlertCount,
			CapacityPercent: run.CapacityPercent,
		})
	}

	text, usage, err := r.summarizer.Summarize(ctx, rep, r.cfg.TeamName, prior)
	r.mu.Lock()
	r.llmUsage.Add(usage)
	total := r.llmUsage.TotalTokens()
	r.mu.Unlock()
	if r.metrics != nil {
		r.metrics.AddLLMTokens(usage.TotalTokens())
	}
	if err != nil {
		log.Printf("llm digest error: %v", err)
		return ""
	}
	log.Printf("llm digest tokens=%d total=%d", usage.TotalTokens(), total)
	return text
}
