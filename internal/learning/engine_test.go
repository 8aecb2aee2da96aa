package learning

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"pixelwatch/internal/domain"
	"pixelwatch/internal/model"
	"pixelwatch/internal/storage/sqlite"
)

func newTestEngine(t *testing.T, minSamples int) (*Engine, *sql.DB, *model.Classifier) {
	t.Helper()
	db, err := sqlite.InitDB(filepath.Join(t.TempDir(), "learning-test.db"))
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	classifier := model.NewClassifier("", 1)
	return NewEngine(db, classifier, minSamples), db, classifier
}

func TestRecordFeedbackValidation(t *testing.T) {
	e, _, _ := newTestEngine(t, 20)

	if err := e.RecordFeedback("", "summary", "", "", domain.TruePositive, 0.9); err == nil {
		t.Fatal("expected error for empty ticket key")
	}
	if err := e.RecordFeedback("PIX-1", "summary", "", "", domain.FeedbackLabel("maybe"), 0.9); err == nil {
		t.Fatal("expected error for unknown label")
	}
}

func TestRecordFeedbackMaterializesAndTracksPatterns(t *testing.T) {
	e, db, classifier := newTestEngine(t, 20)

	err := e.RecordFeedback("PIX-1", "Pixel not firing on checkout", "", "high:pixel not firing", domain.TruePositive, 0.95)
	if err != nil {
		t.Fatalf("RecordFeedback failed: %v", err)
	}

	// One feedback is far below the training floor; the model stays off.
	if classifier.Loaded() {
		t.Fatal("one feedback must not produce a model")
	}

	count, err := sqlite.CountTrainingExamples(db)
	if err != nil {
		t.Fatalf("CountTrainingExamples failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("training examples = %d, want 1", count)
	}

	pending, err := sqlite.UnprocessedFeedback(db)
	if err != nil {
		t.Fatalf("UnprocessedFeedback failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending feedback = %d, want everything materialized", len(pending))
	}

	stats, err := sqlite.ReasonStats(db)
	if err != nil {
		t.Fatalf("ReasonStats failed: %v", err)
	}
	if len(stats) != 1 || stats[0].Reason != "high:pixel not firing" || stats[0].TruePositives != 1 {
		t.Fatalf("pattern counters wrong: %+v", stats)
	}
}

func TestFeedbackLoopTrainsModel(t *testing.T) {
	e, db, classifier := newTestEngine(t, 20)

	positives := []string{
		"pixel not firing on checkout page",
		"conversion pixel validation for website",
		"tracking tag setup broken",
		"universal tag not loading",
		"pixel shows zero conversions",
	}
	negatives := []string{
		"quarterly billing reconciliation",
		"database migration and backup",
		"vacation calendar sync",
		"office badge access renewal",
		"invoice export question",
	}

	for i := 0; i < 13; i++ {
		key := fmt.Sprintf("POS-%d", i)
		if err := e.RecordFeedback(key, positives[i%len(positives)], "", "high:pixel firing", domain.TruePositive, 0.9); err != nil {
			t.Fatalf("positive feedback %d failed: %v", i, err)
		}
	}
	for i := 0; i < 12; i++ {
		key := fmt.Sprintf("NEG-%d", i)
		if err := e.RecordFeedback(key, negatives[i%len(negatives)], "", "medium:tracking_action", domain.FalsePositive, 0.6); err != nil {
			t.Fatalf("negative feedback %d failed: %v", i, err)
		}
	}

	// 25 examples with both classes clears the 20-sample floor, so the
	// opportunistic retrain inside RecordFeedback has fired by now.
	if !classifier.Loaded() {
		t.Fatal("classifier should be trained after 25 mixed feedbacks")
	}

	result, err := e.Train()
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if result.TrainingSamples != 25 {
		t.Fatalf("TrainingSamples = %d, want 25", result.TrainingSamples)
	}

	history, err := sqlite.ModelPerformanceHistory(db, 100)
	if err != nil {
		t.Fatalf("ModelPerformanceHistory failed: %v", err)
	}
	if len(history) == 0 {
		t.Fatal("training history should not be empty")
	}
}

func TestTrainInsufficientData(t *testing.T) {
	e, _, _ := newTestEngine(t, 20)

	_, err := e.Train()
	if !errors.Is(err, model.ErrInsufficientData) {
		t.Fatalf("Train on empty store: err = %v, want ErrInsufficientData", err)
	}
}

func TestMetrics(t *testing.T) {
	e, _, _ := newTestEngine(t, 20)

	feedback := []struct {
		key   string
		label domain.FeedbackLabel
	}{
		{"PIX-1", domain.TruePositive},
		{"PIX-2", domain.TruePositive},
		{"PIX-3", domain.TruePositive},
		{"PIX-4", domain.FalsePositive},
		{"PIX-5", domain.FalseNegative},
	}
	for _, fb := range feedback {
		if err := e.RecordFeedback(fb.key, "some ticket text", "", "", fb.label, 0.8); err != nil {
			t.Fatalf("RecordFeedback %s failed: %v", fb.key, err)
		}
	}

	metrics, err := e.Metrics()
	if err != nil {
		t.Fatalf("Metrics failed: %v", err)
	}
	if metrics.TotalFeedback != 5 {
		t.Fatalf("TotalFeedback = %d, want 5", metrics.TotalFeedback)
	}
	if metrics.Feedback.Precision != 0.75 {
		t.Fatalf("precision = %v, want 0.75", metrics.Feedback.Precision)
	}
	if metrics.Feedback.Recall != 0.75 {
		t.Fatalf("recall = %v, want 0.75", metrics.Feedback.Recall)
	}
	if metrics.ModelTrained {
		t.Fatal("no training has happened, ModelTrained must be false")
	}
}
