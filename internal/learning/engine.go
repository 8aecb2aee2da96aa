// Package learning owns the feedback loop: recording human corrections,
// materializing them into training data, retraining the statistical
// model, and reporting performance.
package learning

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"pixelwatch/internal/detect"
	"pixelwatch/internal/domain"
	"pixelwatch/internal/model"
	"pixelwatch/internal/storage/sqlite"
)

// Engine ties the feedback store to the classifier. One logical
// operation maps to one store transaction, so concurrent feedback and a
// background retrain serialize on the database rather than on the engine.
type Engine struct {
	db         *sql.DB
	classifier *model.Classifier
	minSamples int
}

func NewEngine(db *sql.DB, classifier *model.Classifier, minSamples int) *Engine {
	if minSamples <= 0 {
		minSamples = model.DefaultMinSamples
	}
	return &Engine{db: db, classifier: classifier, minSamples: minSamples}
}

// RecordFeedback stores a human judgement, materializes pending feedback
// into training data, and retrains opportunistically when the judgement
// bears on detection precision. Latest feedback per ticket wins.
func (e *Engine) RecordFeedback(ticketKey, summary, description, detectionReason string, label domain.FeedbackLabel, confidence float64) error {
	if ticketKey == "" {
		return fmt.Errorf("feedback requires a ticket key")
	}
	if !label.Valid() {
		return fmt.Errorf("invalid feedback label %q", label)
	}

	if err := sqlite.UpsertFeedback(e.db, domain.FeedbackRecord{
		TicketKey:       ticketKey,
		Summary:         summary,
		Description:     description,
		DetectionReason: detectionReason,
		Label:           label,
		Confidence:      confidence,
	}); err != nil {
		return fmt.Errorf("recording feedback: %w", err)
	}
	log.Info().Str("ticket", ticketKey).Str("label", string(label)).Msg("feedback recorded")

	if detectionReason != "" {
		if err := sqlite.BumpPatternCounter(e.db, reasonFamily(detectionReason), detectionReason, label); err != nil {
			log.Warn().Err(err).Str("reason", detectionReason).Msg("pattern counter update failed")
		}
	}

	if _, err := e.Materialize(); err != nil {
		return err
	}

	// Precision-bearing feedback is worth an immediate retrain attempt;
	// too little data is expected early on and is not an error here.
	if label == domain.TruePositive || label == domain.FalsePositive {
		if _, err := e.Train(); err != nil && !errors.Is(err, model.ErrInsufficientData) {
			log.Warn().Err(err).Msg("opportunistic retrain failed")
		}
	}

	return nil
}

// Materialize converts every unprocessed feedback row into a training
// example exactly once. Each row commits independently: an error leaves
// earlier rows processed and the failing row untouched for the next pass.
func (e *Engine) Materialize() (int, error) {
	pending, err := sqlite.UnprocessedFeedback(e.db)
	if err != nil {
		return 0, fmt.Errorf("loading unprocessed feedback: %w", err)
	}

	processed := 0
	for _, rec := range pending {
		features := detect.ExtractFeatures(rec.Summary, rec.Description)
		featuresJSON, err := json.Marshal(features)
		if err != nil {
			return processed, fmt.Errorf("encoding features for %s: %w", rec.TicketKey, err)
		}

		ex := domain.TrainingExample{
			TicketKey:      rec.TicketKey,
			Summary:        rec.Summary,
			Description:    rec.Description,
			IsPixelRelated: rec.Label == domain.TruePositive,
		}
		if err := sqlite.MaterializeFeedback(e.db, rec.ID, ex, string(featuresJSON)); err != nil {
			return processed, fmt.Errorf("materializing feedback %d: %w", rec.ID, err)
		}
		processed++
	}

	if processed > 0 {
		log.Info().Int("count", processed).Msg("feedback materialized into training data")
	}
	return processed, nil
}

// Train fits the model from all materialized examples and appends the
// held-out scores to the training history. Returns
// model.ErrInsufficientData when there is not enough labeled data yet.
func (e *Engine) Train() (model.TrainResult, error) {
	examples, err := sqlite.TrainingExamples(e.db)
	if err != nil {
		return model.TrainResult{}, fmt.Errorf("loading training examples: %w", err)
	}

	result, err := e.classifier.Train(examples, e.minSamples)
	if err != nil {
		return model.TrainResult{}, err
	}

	if err := sqlite.InsertModelPerformance(e.db, domain.PerformanceRecord{
		ModelVersion:    result.ModelVersion,
		TrainingSamples: result.TrainingSamples,
		Precision:       result.Precision,
		Recall:          result.Recall,
		F1:              result.F1,
	}); err != nil {
		return result, fmt.Errorf("recording model performance: %w", err)
	}

	log.Info().
		Str("version", result.ModelVersion).
		Int("samples", result.TrainingSamples).
		Float64("precision", result.Precision).
		Float64("recall", result.Recall).
		Float64("f1", result.F1).
		Msg("model trained")
	return result, nil
}

// Metrics reports feedback-derived precision/recall alongside the latest
// model-based scores.
func (e *Engine) Metrics() (domain.Metrics, error) {
	tp, fp, fn, err := sqlite.FeedbackCounts(e.db)
	if err != nil {
		return domain.Metrics{}, fmt.Errorf("loading feedback counts: %w", err)
	}

	stats := domain.FeedbackStats{TruePositives: tp, FalsePositives: fp, FalseNegatives: fn}
	if tp+fp > 0 {
		stats.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		stats.Recall = float64(tp) / float64(tp+fn)
	}
	if stats.Precision+stats.Recall > 0 {
		stats.F1 = 2 * stats.Precision * stats.Recall / (stats.Precision + stats.Recall)
	}

	modelPerf, trained, err := sqlite.LatestModelPerformance(e.db)
	if err != nil {
		return domain.Metrics{}, fmt.Errorf("loading model performance: %w", err)
	}

	return domain.Metrics{
		Feedback:      stats,
		Model:         modelPerf,
		ModelTrained:  trained,
		TotalFeedback: tp + fp + fn,
	}, nil
}

func reasonFamily(code string) string {
	if i := strings.IndexByte(code, ':'); i > 0 {
		return code[:i]
	}
	return code
}
