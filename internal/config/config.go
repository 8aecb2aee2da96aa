// Package config loads the pixelwatch configuration from config.yaml
// with environment-variable overrides, in that order. A .env file in the
// working directory is honored before the environment is read.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type Config struct {
	JiraURL        string `yaml:"jira_url"`
	JiraEmail      string `yaml:"jira_email"`
	JiraToken      string `yaml:"jira_token"`
	JiraProjectKey string `yaml:"jira_project_key"`

	DBPath          string `yaml:"db_path"`
	ModelPath       string `yaml:"model_path"`
	ReportOutputDir string `yaml:"report_output_dir"`
	LogPath         string `yaml:"log_path"`

	CheckSchedule   string `yaml:"check_schedule"`
	RetrainSchedule string `yaml:"retrain_schedule"`
	LookbackHours   int    `yaml:"lookback_hours"`
	MaxResults      int    `yaml:"max_results"`

	MinTrainingSamples  int     `yaml:"min_training_samples"`
	RuleWeight          float64 `yaml:"rule_weight"`
	ModelWeight         float64 `yaml:"model_weight"`
	ModelTrustThreshold float64 `yaml:"model_trust_threshold"`

	SlackBotToken  string `yaml:"slack_bot_token"`
	AlertChannelID string `yaml:"alert_channel_id"`

	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	LLMModel        string `yaml:"llm_model"`

	Timezone string `yaml:"timezone"`

	Location *time.Location `yaml:"-"`
}

func LoadConfig() (Config, error) {
	var cfg Config

	// Optional; absence is the common case outside development.
	_ = godotenv.Load()

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", configPath, err)
		}
	}

	// Env vars override YAML values.
	envOverride(&cfg.JiraURL, "JIRA_URL")
	envOverride(&cfg.JiraEmail, "JIRA_EMAIL")
	envOverride(&cfg.JiraToken, "JIRA_TOKEN")
	envOverride(&cfg.JiraProjectKey, "JIRA_PROJECT_KEY")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.ModelPath, "MODEL_PATH")
	envOverride(&cfg.ReportOutputDir, "REPORT_OUTPUT_DIR")
	envOverride(&cfg.LogPath, "LOG_PATH")
	envOverride(&cfg.CheckSchedule, "CHECK_SCHEDULE")
	envOverride(&cfg.RetrainSchedule, "RETRAIN_SCHEDULE")
	if err := envOverrideInt(&cfg.LookbackHours, "LOOKBACK_HOURS"); err != nil {
		return cfg, err
	}
	if err := envOverrideInt(&cfg.MaxResults, "MAX_RESULTS"); err != nil {
		return cfg, err
	}
	if err := envOverrideInt(&cfg.MinTrainingSamples, "MIN_TRAINING_SAMPLES"); err != nil {
		return cfg, err
	}
	if err := envOverrideFloat(&cfg.RuleWeight, "RULE_WEIGHT"); err != nil {
		return cfg, err
	}
	if err := envOverrideFloat(&cfg.ModelWeight, "MODEL_WEIGHT"); err != nil {
		return cfg, err
	}
	if err := envOverrideFloat(&cfg.ModelTrustThreshold, "MODEL_TRUST_THRESHOLD"); err != nil {
		return cfg, err
	}
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.AlertChannelID, "ALERT_CHANNEL_ID")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.Timezone, "TIMEZONE")

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.DBPath == "" {
		cfg.DBPath = "./pixelwatch.db"
	}
	if cfg.ModelPath == "" {
		cfg.ModelPath = "./pixel_model.json"
	}
	if cfg.ReportOutputDir == "" {
		cfg.ReportOutputDir = "./reports"
	}
	if cfg.CheckSchedule == "" {
		cfg.CheckSchedule = "*/5 * * * *"
	}
	if cfg.RetrainSchedule == "" {
		cfg.RetrainSchedule = "0 6 * * *"
	}
	if cfg.LookbackHours == 0 {
		cfg.LookbackHours = 6
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = 50
	}
	if cfg.MinTrainingSamples == 0 {
		cfg.MinTrainingSamples = 20
	}
	if cfg.RuleWeight == 0 {
		cfg.RuleWeight = 0.6
	}
	if cfg.ModelWeight == 0 {
		cfg.ModelWeight = 0.4
	}
	if cfg.ModelTrustThreshold == 0 {
		cfg.ModelTrustThreshold = 0.8
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}
}

func validate(cfg *Config) error {
	if cfg.LookbackHours < 1 {
		return fmt.Errorf("invalid lookback_hours %d: must be >= 1", cfg.LookbackHours)
	}
	if cfg.MaxResults < 1 {
		return fmt.Errorf("invalid max_results %d: must be >= 1", cfg.MaxResults)
	}
	if cfg.MinTrainingSamples < 2 {
		return fmt.Errorf("invalid min_training_samples %d: must be >= 2", cfg.MinTrainingSamples)
	}
	if cfg.RuleWeight < 0 || cfg.RuleWeight > 1 {
		return fmt.Errorf("invalid rule_weight %.2f: must be in [0,1]", cfg.RuleWeight)
	}
	if cfg.ModelWeight < 0 || cfg.ModelWeight > 1 {
		return fmt.Errorf("invalid model_weight %.2f: must be in [0,1]", cfg.ModelWeight)
	}
	if cfg.ModelTrustThreshold < 0 || cfg.ModelTrustThreshold > 1 {
		return fmt.Errorf("invalid model_trust_threshold %.2f: must be in [0,1]", cfg.ModelTrustThreshold)
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(cfg.CheckSchedule); err != nil {
		return fmt.Errorf("invalid check_schedule %q: %w", cfg.CheckSchedule, err)
	}
	if cfg.RetrainSchedule != "" {
		if _, err := parser.Parse(cfg.RetrainSchedule); err != nil {
			return fmt.Errorf("invalid retrain_schedule %q: %w", cfg.RetrainSchedule, err)
		}
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	return nil
}

// RequireJira checks the fields the polling commands need. Offline
// commands (classify, feedback, train, analyze, status) work without
// tracker credentials.
func (c Config) RequireJira() error {
	required := map[string]string{
		"jira_url":         c.JiraURL,
		"jira_email":       c.JiraEmail,
		"jira_token":       c.JiraToken,
		"jira_project_key": c.JiraProjectKey,
	}
	for name, val := range required {
		if val == "" {
			return fmt.Errorf("required config %q is not set (via config.yaml or env var)", name)
		}
	}
	return nil
}

func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.AlertChannelID != ""
}

// LLMConfigured reports whether the optional category tagger is enabled.
func (c Config) LLMConfigured() bool {
	return c.AnthropicAPIKey != ""
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideFloat(field *float64, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}
