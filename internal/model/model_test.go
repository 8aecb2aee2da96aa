package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"pixelwatch/internal/domain"
)

const testSchemaVersion = 1

// syntheticExamples builds a clearly separable corpus: positives talk
// about pixels and tracking, negatives about unrelated back-office work.
func syntheticExamples(t *testing.T, perClass int) []domain.TrainingExample {
	t.Helper()
	positives := []string{
		"pixel not firing on checkout page",
		"conversion pixel validation for client website",
		"tracking tag setup on landing page",
		"universal tag implementation broken",
		"pixel shows zero conversions after deploy",
	}
	negatives := []string{
		"quarterly billing reconciliation for finance",
		"database migration and backup schedule",
		"vacation calendar sync for the team",
		"office badge access renewal",
		"invoice export to the accounting system",
	}

	var out []domain.TrainingExample
	for i := 0; i < perClass; i++ {
		out = append(out, domain.TrainingExample{
			TicketKey:      fmt.Sprintf("POS-%d", i),
			Summary:        positives[i%len(positives)],
			IsPixelRelated: true,
		})
		out = append(out, domain.TrainingExample{
			TicketKey:      fmt.Sprintf("NEG-%d", i),
			Summary:        negatives[i%len(negatives)],
			IsPixelRelated: false,
		})
	}
	return out
}

func TestPredictWithoutModel(t *testing.T) {
	c := NewClassifier("", testSchemaVersion)
	if c.Loaded() {
		t.Fatal("fresh classifier must not report loaded")
	}
	verdict, confidence := c.Predict("pixel not firing", "")
	if verdict || confidence != 0 {
		t.Fatalf("Predict without model = (%v, %v), want (false, 0)", verdict, confidence)
	}
}

func TestTrainRejectsInsufficientData(t *testing.T) {
	c := NewClassifier("", testSchemaVersion)

	_, err := c.Train(syntheticExamples(t, 5), 20)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("Train with 10 examples: err = %v, want ErrInsufficientData", err)
	}
	if c.Loaded() {
		t.Fatal("failed training must leave the classifier unloaded")
	}
}

func TestTrainRejectsSingleClass(t *testing.T) {
	c := NewClassifier("", testSchemaVersion)

	var examples []domain.TrainingExample
	for i := 0; i < 25; i++ {
		examples = append(examples, domain.TrainingExample{
			TicketKey:      fmt.Sprintf("POS-%d", i),
			Summary:        "pixel firing broken",
			IsPixelRelated: true,
		})
	}
	_, err := c.Train(examples, 20)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("Train with one class: err = %v, want ErrInsufficientData", err)
	}
}

func TestTrainAndPredict(t *testing.T) {
	c := NewClassifier("", testSchemaVersion)

	examples := syntheticExamples(t, 15)
	result, err := c.Train(examples, 20)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if result.TrainingSamples != len(examples) {
		t.Fatalf("TrainingSamples = %d, want %d", result.TrainingSamples, len(examples))
	}
	if result.ModelVersion == "" {
		t.Fatal("expected a model version stamp")
	}
	for name, v := range map[string]float64{
		"precision": result.Precision,
		"recall":    result.Recall,
		"f1":        result.F1,
	} {
		if v < 0 || v > 1 {
			t.Fatalf("%s = %v, want within [0,1]", name, v)
		}
	}
	if !c.Loaded() {
		t.Fatal("classifier should be loaded after training")
	}

	verdict, confidence := c.Predict("conversion pixel not firing on the website", "")
	if !verdict {
		t.Fatalf("clearly positive text predicted negative (confidence %v)", confidence)
	}
	if confidence <= 0.5 || confidence > 1 {
		t.Fatalf("confidence = %v, want within (0.5, 1]", confidence)
	}

	verdict, _ = c.Predict("quarterly billing reconciliation for finance", "")
	if verdict {
		t.Fatal("clearly negative text predicted positive")
	}
}

func TestTrainDeterministic(t *testing.T) {
	examples := syntheticExamples(t, 15)

	c1 := NewClassifier("", testSchemaVersion)
	r1, err := c1.Train(examples, 20)
	if err != nil {
		t.Fatalf("first Train failed: %v", err)
	}
	c2 := NewClassifier("", testSchemaVersion)
	r2, err := c2.Train(examples, 20)
	if err != nil {
		t.Fatalf("second Train failed: %v", err)
	}

	if r1.Precision != r2.Precision || r1.Recall != r2.Recall || r1.F1 != r2.F1 {
		t.Fatalf("identical data produced different scores: %+v vs %+v", r1, r2)
	}
	_, conf1 := c1.Predict("pixel validation on page", "")
	_, conf2 := c2.Predict("pixel validation on page", "")
	if conf1 != conf2 {
		t.Fatalf("identical data produced different predictions: %v vs %v", conf1, conf2)
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")

	trained := NewClassifier(path, testSchemaVersion)
	if _, err := trained.Train(syntheticExamples(t, 15), 20); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	restored := NewClassifier(path, testSchemaVersion)
	loaded, err := restored.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !loaded {
		t.Fatal("expected the persisted artifact to load")
	}

	text := "tracking pixel broken on checkout"
	v1, c1 := trained.Predict(text, "")
	v2, c2 := restored.Predict(text, "")
	if v1 != v2 || c1 != c2 {
		t.Fatalf("restored model disagrees: (%v, %v) vs (%v, %v)", v1, c1, v2, c2)
	}
}

func TestLoadMissingArtifact(t *testing.T) {
	c := NewClassifier(filepath.Join(t.TempDir(), "absent.json"), testSchemaVersion)
	loaded, err := c.Load()
	if err != nil {
		t.Fatalf("Load of missing file: err = %v, want nil", err)
	}
	if loaded || c.Loaded() {
		t.Fatal("missing artifact must leave the classifier unloaded")
	}
}

func TestLoadCorruptArtifact(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"truncated json", `{"model_version": "2024`},
		{"mismatched halves", `{
			"model_version": "x", "feature_schema_version": 1,
			"vectorizer": {"terms": ["pixel", "firing"], "idf": [1.0, 1.2]},
			"classifier": {"weights": [0.5], "bias": 0}
		}`},
		{"missing classifier", `{
			"model_version": "x", "feature_schema_version": 1,
			"vectorizer": {"terms": [], "idf": []}
		}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "model.json")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("writing fixture: %v", err)
			}

			c := NewClassifier(path, testSchemaVersion)
			_, err := c.Load()
			if !errors.Is(err, ErrCorruptArtifact) {
				t.Fatalf("Load: err = %v, want ErrCorruptArtifact", err)
			}
			if c.Loaded() {
				t.Fatal("corrupt artifact must leave the classifier unloaded")
			}
		})
	}
}

func TestLoadSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")

	old := NewClassifier(path, testSchemaVersion)
	if _, err := old.Train(syntheticExamples(t, 15), 20); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	next := NewClassifier(path, testSchemaVersion+1)
	_, err := next.Load()
	if !errors.Is(err, ErrCorruptArtifact) {
		t.Fatalf("Load with newer schema: err = %v, want ErrCorruptArtifact", err)
	}
}

func TestStratifiedSplit(t *testing.T) {
	labels := make([]bool, 30)
	for i := 20; i < 30; i++ {
		labels[i] = true
	}

	train, test := stratifiedSplit(labels, 0.2, trainSeed)
	if len(train)+len(test) != len(labels) {
		t.Fatalf("split loses examples: %d + %d != %d", len(train), len(test), len(labels))
	}

	var testPos int
	for _, i := range test {
		if labels[i] {
			testPos++
		}
	}
	if testPos != 2 || len(test) != 6 {
		t.Fatalf("held-out split = %d examples (%d positive), want 6 (2 positive)", len(test), testPos)
	}

	train2, test2 := stratifiedSplit(labels, 0.2, trainSeed)
	if len(train2) != len(train) || len(test2) != len(test) {
		t.Fatal("split not deterministic")
	}
	for i := range test {
		if test[i] != test2[i] {
			t.Fatal("split order not deterministic")
		}
	}
}
