package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"slaintel/internal/sla"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const defaultExternalHTTPTimeout = 90 * time.Second
const defaultExternalHTTPTimeoutSeconds = int(defaultExternalHTTPTimeout / time.Second)

type Config struct {
	SlackBotToken      string `yaml:"slack_bot_token"`
	AlertChannelID     string `yaml:"alert_channel_id"`
	DigestChannelID    string `yaml:"digest_channel_id"`
	OwnerNudgesEnabled bool   `yaml:"owner_nudges_enabled"`

	LLMDigestEnabled bool   `yaml:"llm_digest_enabled"`
	AnthropicAPIKey  string `yaml:"anthropic_api_key"`
	LLMModel         string `yaml:"llm_model"`
	LLMGlossaryPath  string `yaml:"llm_glossary_path"`

	DBPath                     string `yaml:"db_path"`
	ReportOutputDir            string `yaml:"report_output_dir"`
	EmailDraftEnabled          bool   `yaml:"email_draft_enabled"`
	PolicyCatalogPath          string `yaml:"policy_catalog_path"`
	WorkItemsFeedURL           string `yaml:"work_items_feed_url"`
	WorkItemsFeedToken         string `yaml:"work_items_feed_token"`
	WorkItemsFile              string `yaml:"work_items_file"`
	MetricsAddr                string `yaml:"metrics_addr"`
	ExternalHTTPTimeoutSeconds int    `yaml:"external_http_timeout_seconds"`

	EvaluationSchedule  string   `yaml:"evaluation_schedule"`
	DigestDay           string   `yaml:"digest_day"`
	DigestTime          string   `yaml:"digest_time"`
	HistoryDays         int      `yaml:"history_days"`
	ForecastHorizonDays int      `yaml:"forecast_horizon_days"`
	SyntheticHistory    bool     `yaml:"synthetic_history"`
	SyntheticSeed       int      `yaml:"synthetic_seed"`
	MaxSnapshotItems    int      `yaml:"max_snapshot_items"`
	TeamMembers         []string `yaml:"team_members"`
	Timezone            string   `yaml:"timezone"`
	TeamName            string   `yaml:"team_name"`

	Engine sla.Params `yaml:"engine"`

	Location *time.Location `yaml:"-"` // computed from Timezone, not from YAML
}

func LoadConfig() Config {
	cfg := Config{Engine: sla.DefaultParams()}

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.AlertChannelID, "ALERT_CHANNEL_ID")
	envOverride(&cfg.DigestChannelID, "DIGEST_CHANNEL_ID")
	envOverrideBool(&cfg.OwnerNudgesEnabled, "OWNER_NUDGES_ENABLED")
	envOverrideBool(&cfg.LLMDigestEnabled, "LLM_DIGEST_ENABLED")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.LLMGlossaryPath, "LLM_GLOSSARY_PATH")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.ReportOutputDir, "REPORT_OUTPUT_DIR")
	envOverrideBool(&cfg.EmailDraftEnabled, "EMAIL_DRAFT_ENABLED")
	envOverride(&cfg.PolicyCatalogPath, "POLICY_CATALOG_PATH")
	envOverride(&cfg.WorkItemsFeedURL, "WORK_ITEMS_FEED_URL")
	envOverride(&cfg.WorkItemsFeedToken, "WORK_ITEMS_FEED_TOKEN")
	envOverride(&cfg.WorkItemsFile, "WORK_ITEMS_FILE")
	envOverride(&cfg.MetricsAddr, "METRICS_ADDR")
	envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS")
	envOverride(&cfg.EvaluationSchedule, "EVALUATION_SCHEDULE")
	envOverride(&cfg.DigestDay, "DIGEST_DAY")
	envOverride(&cfg.DigestTime, "DIGEST_TIME")
	envOverrideInt(&cfg.HistoryDays, "HISTORY_DAYS")
	envOverrideInt(&cfg.ForecastHorizonDays, "FORECAST_HORIZON_DAYS")
	envOverrideBool(&cfg.SyntheticHistory, "SYNTHETIC_HISTORY")
	envOverrideInt(&cfg.SyntheticSeed, "SYNTHETIC_SEED")
	envOverrideInt(&cfg.MaxSnapshotItems, "MAX_SNAPSHOT_ITEMS")
	envOverride(&cfg.TeamName, "TEAM_NAME")
	envOverride(&cfg.Timezone, "TIMEZONE")
	envOverrideFloat(&cfg.Engine.TeamCapacityAlertPercent, "TEAM_CAPACITY_ALERT_PERCENT")
	envOverrideInt(&cfg.Engine.MaxCapacityPoints, "MAX_CAPACITY_POINTS")

	if members := os.Getenv("TEAM_MEMBERS"); members != "" {
		cfg.TeamMembers = nil
		for _, m := range strings.Split(members, ",") {
			m = strings.TrimSpace(m)
			if m != "" {
				cfg.TeamMembers = append(cfg.TeamMembers, m)
			}
		}
	}

	if cfg.DBPath == "" {
		cfg.DBPath = "./slaintel.db"
	}
	if cfg.ReportOutputDir == "" {
		cfg.ReportOutputDir = "./reports"
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = defaultExternalHTTPTimeoutSeconds
	}
	if cfg.EvaluationSchedule == "" {
		cfg.EvaluationSchedule = "0 8 * * *"
	}
	if cfg.DigestDay == "" {
		cfg.DigestDay = "Monday"
	}
	if cfg.DigestTime == "" {
		cfg.DigestTime = "09:00"
	}
	if cfg.HistoryDays == 0 {
		cfg.HistoryDays = 90
	}
	if cfg.ForecastHorizonDays == 0 {
		cfg.ForecastHorizonDays = 30
	}
	if cfg.SyntheticSeed == 0 {
		cfg.SyntheticSeed = 42
	}
	if cfg.MaxSnapshotItems == 0 {
		cfg.MaxSnapshotItems = 50000
	}
	if cfg.DigestChannelID == "" {
		cfg.DigestChannelID = cfg.AlertChannelID
	}
	if cfg.TeamName == "" {
		cfg.TeamName = "My Team"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	if cfg.AlertChannelID != "" && cfg.SlackBotToken == "" {
		log.Fatalf("Required config 'slack_bot_token' is not set but alert_channel_id is (via config.yaml or env var)")
	}
	if cfg.OwnerNudgesEnabled && cfg.SlackBotToken == "" {
		log.Fatalf("owner_nudges_enabled requires slack_bot_token")
	}
	if cfg.LLMDigestEnabled && cfg.AnthropicAPIKey == "" {
		log.Fatalf("anthropic_api_key is required when llm_digest_enabled=true")
	}
	if cfg.SlackBotToken == "" {
		log.Printf("WARNING: slack_bot_token is not set. Digests will only be written to %s.", cfg.ReportOutputDir)
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	if _, err := ParseSchedule(cfg.EvaluationSchedule); err != nil {
		log.Fatalf("invalid evaluation_schedule '%s': %v", cfg.EvaluationSchedule, err)
	}
	if _, err := ParseWeekday(cfg.DigestDay); err != nil {
		log.Fatalf("invalid digest_day '%s': %v", cfg.DigestDay, err)
	}
	if _, _, err := ParseClock(cfg.DigestTime); err != nil {
		log.Fatalf("invalid digest_time '%s': %v", cfg.DigestTime, err)
	}
	if cfg.HistoryDays < 1 {
		log.Fatalf("invalid history_days '%d': must be >= 1", cfg.HistoryDays)
	}
	if cfg.ForecastHorizonDays < 1 || cfg.ForecastHorizonDays > 365 {
		log.Fatalf("invalid forecast_horizon_days '%d': must be between 1 and 365", cfg.ForecastHorizonDays)
	}
	if cfg.MaxSnapshotItems < 0 {
		log.Fatalf("invalid max_snapshot_items '%d': must be >= 0", cfg.MaxSnapshotItems)
	}
	if cfg.ExternalHTTPTimeoutSeconds < 5 {
		log.Fatalf("invalid external_http_timeout_seconds '%d': must be >= 5", cfg.ExternalHTTPTimeoutSeconds)
	}
	if err := cfg.Engine.Validate(); err != nil {
		log.Fatalf("invalid engine config: %v", err)
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = strings.EqualFold(val, "true") || val == "1"
	}
}

func envOverrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != ""
}

func (c Config) WorkItemSourceConfigured() bool {
	return c.WorkItemsFeedURL != "" || c.WorkItemsFile != ""
}

// ParseSchedule parses a standard 5-field cron expression.
func ParseSchedule(spec string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(strings.TrimSpace(spec))
}

var dayMap = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func ParseWeekday(s string) (time.Weekday, error) {
	day, ok := dayMap[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", s)
	}
	return day, nil
}

// ParseClock parses "HH:MM" in 24-hour form.
func ParseClock(s string) (int, int, error) {
	var hour, min int
	_, err := fmt.Sscanf(s, "%d:%d", &hour, &min)
	if err != nil {
		return 0, 0, err
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return 0, 0, fmt.Errorf("time out of range: %02d:%02d", hour, min)
	}
	return hour, min, nil
}
