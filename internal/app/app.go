package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slaintel/internal/config"
	"slaintel/internal/httpx"
	llm "slaintel/internal/integrations/llm"
	"slaintel/internal/metrics"
	"slaintel/internal/policy"
	"slaintel/internal/scheduler"
	"slaintel/internal/sla"
	"slaintel/internal/storage/sqlite"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/slack-go/slack"
)

func Main() {
	cfg := config.LoadConfig()
	appliedHTTPTimeout := httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
	log.Printf(
		"Config loaded. Team=%s TeamMembers=%d Timezone=%s Schedule=%q Digest=%s@%s HistoryDays=%d Horizon=%d Synthetic=%t Slack=%t LLM=%t Metrics=%s ExternalHTTPTimeout=%s",
		cfg.TeamName,
		len(cfg.TeamMembers),
		cfg.Timezone,
		cfg.EvaluationSchedule,
		cfg.DigestDay,
		cfg.DigestTime,
		cfg.HistoryDays,
		cfg.ForecastHorizonDays,
		cfg.SyntheticHistory,
		cfg.SlackConfigured(),
		cfg.LLMDigestEnabled,
		cfg.MetricsAddr,
		appliedHTTPTimeout,
	)

	catalog, err := loadCatalog(cfg)
	if err != nil {
		log.Fatalf("Failed to load policy catalog: %v", err)
	}
	log.Printf("Policy catalog loaded: %d policies, item types %v", catalog.Len(), catalog.ItemTypes())

	engine, err := sla.NewEngine(catalog, cfg.Engine)
	if err != nil {
		log.Fatalf("Failed to build SLA engine: %v", err)
	}

	db, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	log.Printf("Database initialized at %s", cfg.DBPath)
	defer db.Close()

	if err := os.MkdirAll(cfg.ReportOutputDir, 0755); err != nil {
		log.Fatalf("Failed to create report output dir: %v", err)
	}
	log.Printf("Report output dir: %s", cfg.ReportOutputDir)

	var api *slack.Client
	if cfg.SlackConfigured() {
		api = slack.New(cfg.SlackBotToken, slack.OptionHTTPClient(httpx.Client()))
	}

	var summarizer *llm.Summarizer
	if cfg.LLMDigestEnabled {
		summarizer = &llm.Summarizer{
			APIKey:     cfg.AnthropicAPIKey,
			Model:      cfg.LLMModel,
			HTTPClient: httpx.Client(),
		}
		if cfg.LLMGlossaryPath != "" {
			g, err := llm.LoadGlossary(cfg.LLMGlossaryPath)
			if err != nil {
				log.Fatalf("invalid llm_glossary_path '%s': %v", cfg.LLMGlossaryPath, err)
			}
			summarizer.Glossary = g
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsServer = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			log.Printf("Metrics listening on %s", cfg.MetricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Metrics server error: %v", err)
			}
		}()
	}

	runner := NewRunner(cfg, db, engine, api, m, summarizer)

	sched, _ := config.ParseSchedule(cfg.EvaluationSchedule)
	day, _ := config.ParseWeekday(cfg.DigestDay)
	hour, min, _ := config.ParseClock(cfg.DigestTime)

	log.Println("Starting SLA intelligence service...")
	runner.RunEvaluation(ctx)
	scheduler.StartEvaluationScheduler(ctx, cfg.EvaluationSchedule, sched, cfg.Location, runner.RunEvaluation)
	scheduler.StartWeeklyDigest(ctx, day, hour, min, cfg.Location, runner.RunCapacityDigest)

	<-ctx.Done()
	log.Println("Shutting down...")
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}
}

func loadCatalog(cfg config.Config) (*policy.Catalog, error) {
	if cfg.PolicyCatalogPath != "" {
		return policy.LoadFile(cfg.PolicyCatalogPath)
	}
	return policy.Default()
}
