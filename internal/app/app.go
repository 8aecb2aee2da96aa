// Package app wires configuration, storage, the detector and the learning
// engine together and implements the CLI commands.
package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pixelwatch/internal/config"
	"pixelwatch/internal/detect"
	"pixelwatch/internal/domain"
	"pixelwatch/internal/learning"
	"pixelwatch/internal/model"
	"pixelwatch/internal/monitor"
	"pixelwatch/internal/normalize"
	"pixelwatch/internal/report"
	"pixelwatch/internal/storage/sqlite"
)

type App struct {
	Cfg        config.Config
	DB         *sql.DB
	Classifier *model.Classifier
	Detector   *detect.Detector
	Engine     *learning.Engine

	logFile *os.File
}

// Setup loads config, initializes logging and storage, and restores the
// persisted model if one exists. A corrupt model artifact is logged and
// skipped: detection degrades to rule-only rather than failing startup.
func Setup() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	a := &App{Cfg: cfg}
	if err := a.setupLogging(); err != nil {
		return nil, err
	}

	db, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	a.DB = db
	log.Info().Str("path", cfg.DBPath).Msg("database initialized")

	a.Classifier = model.NewClassifier(cfg.ModelPath, detect.FeatureSchemaVersion)
	loaded, err := a.Classifier.Load()
	switch {
	case errors.Is(err, model.ErrCorruptArtifact):
		log.Warn().Err(err).Msg("model artifact unusable, running rule-only until retrain")
	case err != nil:
		return nil, fmt.Errorf("loading model: %w", err)
	case loaded:
		log.Info().Str("path", cfg.ModelPath).Msg("model loaded")
	default:
		log.Info().Msg("no trained model yet, running rule-only")
	}

	a.Detector = detect.NewDetector(a.Classifier, detect.FusionPolicy{
		RuleWeight:         cfg.RuleWeight,
		ModelWeight:        cfg.ModelWeight,
		TrustedRuleWeight:  cfg.ModelWeight,
		TrustedModelWeight: cfg.RuleWeight,
		TrustThreshold:     cfg.ModelTrustThreshold,
		DecisionThreshold:  0.5,
	})
	a.Engine = learning.NewEngine(db, a.Classifier, cfg.MinTrainingSamples)

	return a, nil
}

func (a *App) setupLogging() error {
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	if a.Cfg.LogPath != "" {
		f, err := os.OpenFile(a.Cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		a.logFile = f
		out = zerolog.MultiLevelWriter(out, f)
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}

// Monitor runs the polling loop until the context is cancelled.
func (a *App) Monitor(ctx context.Context) error {
	if err := a.Cfg.RequireJira(); err != nil {
		return err
	}
	return monitor.New(a.Cfg, a.DB, a.Detector, a.Engine).Run(ctx)
}

// CheckOnce performs a single polling pass and prints the counts.
func (a *App) CheckOnce(ctx context.Context) error {
	if err := a.Cfg.RequireJira(); err != nil {
		return err
	}
	result, err := monitor.New(a.Cfg, a.DB, a.Detector, a.Engine).CheckOnce(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("fetched=%d skipped=%d detected=%d\n", result.Fetched, result.Skipped, result.Detected)
	return nil
}

// ClassifyText classifies ad-hoc text and prints the full result as JSON.
// The description may be plain text or a Jira rich-text document.
func (a *App) ClassifyText(title, description string) error {
	body := normalize.FlattenDescription(json.RawMessage(description))
	result := a.Detector.Classify(title, body)

	out, err := json.MarshalIndent(struct {
		Verdict         bool    `json:"is_pixel_related"`
		Reason          string  `json:"reason"`
		Confidence      float64 `json:"confidence"`
		Method          string  `json:"method"`
		RuleVerdict     bool    `json:"rule_verdict"`
		RuleConfidence  float64 `json:"rule_confidence"`
		ModelVerdict    bool    `json:"model_verdict"`
		ModelConfidence float64 `json:"model_confidence"`
		Category        string  `json:"category,omitempty"`
		Priority        string  `json:"priority,omitempty"`
	}{
		Verdict:         result.Verdict,
		Reason:          result.Reason,
		Confidence:      result.Confidence,
		Method:          string(result.Method),
		RuleVerdict:     result.RuleVerdict,
		RuleConfidence:  result.RuleConfidence,
		ModelVerdict:    result.ModelVerdict,
		ModelConfidence: result.ModelConfidence,
		Category:        result.Category,
		Priority:        result.Priority,
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// Feedback records one human judgement on a prior detection.
func (a *App) Feedback(ticketKey, summary, description, reason, label string, confidence float64) error {
	return a.Engine.RecordFeedback(ticketKey, summary, description, reason, domain.FeedbackLabel(label), confidence)
}

// Train retrains the model from all materialized feedback.
func (a *App) Train() error {
	if _, err := a.Engine.Materialize(); err != nil {
		return err
	}
	result, err := a.Engine.Train()
	if err != nil {
		if errors.Is(err, model.ErrInsufficientData) {
			fmt.Println(err)
			return nil
		}
		return err
	}
	fmt.Printf("model %s trained on %d samples: precision=%.2f recall=%.2f f1=%.2f\n",
		result.ModelVersion, result.TrainingSamples, result.Precision, result.Recall, result.F1)
	return nil
}

// Analyze prints the pattern report for the rule lists.
func (a *App) Analyze() error {
	patterns, err := a.Engine.AnalyzePatterns()
	if err != nil {
		return err
	}

	fmt.Printf("false positives: %d, false negatives: %d\n\n",
		patterns.FalsePositiveCount, patterns.FalseNegativeCount)
	printTokens("common false-positive tokens", patterns.CommonFPTokens)
	printTokens("common false-negative tokens", patterns.CommonFNTokens)
	if len(patterns.SuggestedExclusions) > 0 {
		fmt.Println("suggested exclusion candidates:")
		for _, s := range patterns.SuggestedExclusions {
			fmt.Printf("  %s\n", s)
		}
	}
	if len(patterns.SuggestedKeywords) > 0 {
		fmt.Println("suggested keyword candidates:")
		for _, s := range patterns.SuggestedKeywords {
			fmt.Printf("  %s\n", s)
		}
	}
	return nil
}

func printTokens(header string, tokens []domain.TokenCount) {
	if len(tokens) == 0 {
		return
	}
	fmt.Printf("%s:\n", header)
	for _, tc := range tokens {
		fmt.Printf("  %-24s %d\n", tc.Token, tc.Count)
	}
	fmt.Println()
}

// Status collects the metrics snapshot, writes the markdown report and
// HTML dashboard, and prints the markdown.
func (a *App) Status() error {
	metrics, err := a.Engine.Metrics()
	if err != nil {
		return err
	}
	categories, err := sqlite.CategoryBreakdown(a.DB)
	if err != nil {
		return err
	}
	reasons, err := sqlite.ReasonStats(a.DB)
	if err != nil {
		return err
	}
	recent, err := sqlite.RecentDetections(a.DB, 20)
	if err != nil {
		return err
	}
	patterns, err := a.Engine.AnalyzePatterns()
	if err != nil {
		return err
	}

	data := report.Data{
		GeneratedAt: time.Now().In(a.Cfg.Location),
		Metrics:     metrics,
		Categories:  categories,
		Reasons:     reasons,
		Recent:      recent,
		Patterns:    patterns,
	}

	mdPath, htmlPath, err := report.WriteStatusFiles(data, a.Cfg.ReportOutputDir)
	if err != nil {
		return err
	}
	fmt.Print(report.RenderMarkdown(data))
	fmt.Printf("\nwritten: %s, %s\n", mdPath, htmlPath)
	return nil
}
