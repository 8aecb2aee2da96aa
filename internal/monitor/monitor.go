// Package monitor runs the polling loop: fetch recent tickets, classify
// them, persist the outcomes, and alert on new positives.
package monitor

import (
	"context"
	"database/sql"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"pixelwatch/internal/config"
	"pixelwatch/internal/detect"
	"pixelwatch/internal/domain"
	"pixelwatch/internal/integrations/jira"
	"pixelwatch/internal/integrations/llm"
	slacknotify "pixelwatch/internal/integrations/slack"
	"pixelwatch/internal/learning"
	"pixelwatch/internal/normalize"
	"pixelwatch/internal/storage/sqlite"
)

type Monitor struct {
	cfg      config.Config
	db       *sql.DB
	detector *detect.Detector
	engine   *learning.Engine
	notifier *slacknotify.Notifier
	tagger   *llm.Tagger
}

func New(cfg config.Config, db *sql.DB, detector *detect.Detector, engine *learning.Engine) *Monitor {
	m := &Monitor{cfg: cfg, db: db, detector: detector, engine: engine}
	if cfg.SlackConfigured() {
		m.notifier = slacknotify.NewNotifier(cfg.SlackBotToken, cfg.AlertChannelID)
	}
	if cfg.LLMConfigured() {
		m.tagger = llm.NewTagger(cfg.AnthropicAPIKey, cfg.LLMModel)
	}
	return m
}

// CheckResult summarizes one polling pass.
type CheckResult struct {
	Fetched   int
	Skipped   int
	Detected  int
	AlertsErr int
}

// CheckOnce fetches the lookback window and classifies every ticket not
// seen before. A failure on one ticket never stops the pass.
func (m *Monitor) CheckOnce(ctx context.Context) (CheckResult, error) {
	tickets, err := jira.FetchRecent(jira.Config{
		BaseURL:    m.cfg.JiraURL,
		Email:      m.cfg.JiraEmail,
		Token:      m.cfg.JiraToken,
		ProjectKey: m.cfg.JiraProjectKey,
		MaxResults: m.cfg.MaxResults,
	}, time.Duration(m.cfg.LookbackHours)*time.Hour)
	if err != nil {
		return CheckResult{}, err
	}

	var result CheckResult
	result.Fetched = len(tickets)

	for _, ticket := range tickets {
		seen, err := sqlite.DetectionExists(m.db, ticket.Key)
		if err != nil {
			log.Error().Err(err).Str("ticket", ticket.Key).Msg("dedup check failed")
			continue
		}
		if seen {
			result.Skipped++
			continue
		}

		body := normalize.FlattenDescription(ticket.Description)
		outcome := m.detector.Classify(ticket.Summary, body)

		if outcome.Verdict && m.tagger != nil {
			outcome.Category = string(m.tagger.Tag(ctx, ticket.Summary, body, detect.Category(outcome.Category)))
		}

		if err := sqlite.InsertDetection(m.db, domain.Detection{
			TicketKey:  ticket.Key,
			Summary:    ticket.Summary,
			Verdict:    outcome.Verdict,
			Reason:     outcome.Reason,
			Confidence: outcome.Confidence,
			Method:     string(outcome.Method),
			Category:   outcome.Category,
		}); err != nil {
			log.Error().Err(err).Str("ticket", ticket.Key).Msg("persisting detection failed")
			continue
		}

		if !outcome.Verdict {
			continue
		}
		result.Detected++
		log.Info().
			Str("ticket", ticket.Key).
			Str("reason", outcome.Reason).
			Float64("confidence", outcome.Confidence).
			Str("category", outcome.Category).
			Msg("pixel ticket detected")

		if m.notifier != nil {
			if err := m.notifier.NotifyDetection(ticket, outcome); err != nil {
				result.AlertsErr++
				log.Warn().Err(err).Str("ticket", ticket.Key).Msg("alert failed")
			}
		}
	}

	log.Info().
		Int("fetched", result.Fetched).
		Int("skipped", result.Skipped).
		Int("detected", result.Detected).
		Msg("check pass complete")
	return result, nil
}

// Run blocks, polling on the check schedule and retraining on the
// retrain schedule, until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	checkSched, err := parser.Parse(m.cfg.CheckSchedule)
	if err != nil {
		return err
	}
	log.Info().Str("schedule", m.cfg.CheckSchedule).Msg("monitor started")

	if m.cfg.RetrainSchedule != "" {
		retrainSched, err := parser.Parse(m.cfg.RetrainSchedule)
		if err != nil {
			return err
		}
		go m.retrainLoop(ctx, retrainSched)
	}

	for {
		now := time.Now().In(m.cfg.Location)
		next := checkSched.Next(now)
		log.Debug().Time("next", next).Msg("next check scheduled")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(next.Sub(now)):
		}

		if _, err := m.CheckOnce(ctx); err != nil {
			log.Error().Err(err).Msg("check pass failed")
		}
	}
}

func (m *Monitor) retrainLoop(ctx context.Context, sched cron.Schedule) {
	for {
		now := time.Now().In(m.cfg.Location)
		next := sched.Next(now)

		select {
		case <-ctx.Done():
			return
		case <-time.After(next.Sub(now)):
		}

		if _, err := m.engine.Train(); err != nil {
			log.Warn().Err(err).Msg("scheduled retrain skipped")
		}
	}
}
