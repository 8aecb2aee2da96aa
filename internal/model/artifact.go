package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrCorruptArtifact is returned when a persisted model cannot be read or
// its vectorizer and classifier halves do not agree. Callers fall back to
// rule-only detection; the classify path never dies on a bad artifact.
var ErrCorruptArtifact = errors.New("corrupt model artifact")

// artifact is the persisted form of a fitted model. The vectorizer and
// the classifier are one unit: the weights are meaningless without the
// exact term space that produced them, so they are never stored apart.
type artifact struct {
	ModelVersion    string    `json:"model_version"`
	SchemaVersion   int       `json:"feature_schema_version"`
	TrainedAt       time.Time `json:"trained_at"`
	TrainingSamples int       `json:"training_samples"`

	Vectorizer *vectorizer `json:"vectorizer"`
	Classifier *logistic   `json:"classifier"`
}

func (a *artifact) validate() error {
	if a.Vectorizer == nil || a.Classifier == nil {
		return fmt.Errorf("%w: missing vectorizer or classifier", ErrCorruptArtifact)
	}
	if len(a.Vectorizer.Terms) != len(a.Vectorizer.IDF) {
		return fmt.Errorf("%w: %d terms vs %d idf entries", ErrCorruptArtifact, len(a.Vectorizer.Terms), len(a.Vectorizer.IDF))
	}
	if len(a.Classifier.Weights) != len(a.Vectorizer.Terms) {
		return fmt.Errorf("%w: classifier dimension %d does not match vocabulary %d", ErrCorruptArtifact, len(a.Classifier.Weights), len(a.Vectorizer.Terms))
	}
	return nil
}

// saveArtifact writes the artifact atomically: to a temp file in the same
// directory, then rename. A concurrent loader sees either the fully-old
// or the fully-new file, never a partial write.
func saveArtifact(a *artifact, path string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding model artifact: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating model dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing artifact: %w", err)
	}
	return nil
}

// loadArtifact reads and validates a persisted artifact. A missing file
// is reported as os.ErrNotExist; anything unreadable or internally
// inconsistent is ErrCorruptArtifact.
func loadArtifact(path string) (*artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	a.Vectorizer.buildIndex()
	return &a, nil
}
