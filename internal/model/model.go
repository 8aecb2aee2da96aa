// Package model implements the retrainable statistical half of the
// detector: a TF-IDF vectorizer paired with a logistic classifier,
// persisted as a single atomic artifact.
package model

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"pixelwatch/internal/domain"
)

// ErrInsufficientData is returned by Train when there are not enough
// labeled examples. Recoverable: keep collecting feedback.
var ErrInsufficientData = errors.New("insufficient training data")

// DefaultMinSamples is the minimum labeled-example count before a train
// run is attempted.
const DefaultMinSamples = 20

const testFraction = 0.2

// TrainResult summarizes one training run. Precision, recall and F1 are
// weighted averages across both classes on the held-out split.
type TrainResult struct {
	ModelVersion    string
	TrainingSamples int
	Precision       float64
	Recall          float64
	F1              float64
}

// Classifier owns the current model artifact. Safe for concurrent use:
// predictions take a read lock while a retrain swaps the artifact under a
// write lock, and the on-disk file is replaced atomically.
type Classifier struct {
	mu            sync.RWMutex
	art           *artifact
	path          string
	schemaVersion int
	maxFeatures   int
}

// NewClassifier creates a classifier persisting to path (empty path keeps
// the model in memory only). schemaVersion pins the feature-extractor
// version the model pairs with.
func NewClassifier(path string, schemaVersion int) *Classifier {
	return &Classifier{path: path, schemaVersion: schemaVersion, maxFeatures: defaultMaxFeatures}
}

// Load reads the persisted artifact, if any. Returns false with no error
// when no artifact exists yet; ErrCorruptArtifact when the file is
// unreadable or mismatched, in which case the classifier stays unloaded
// and detection degrades to rule-only.
func (c *Classifier) Load() (bool, error) {
	if c.path == "" {
		return false, nil
	}
	art, err := loadArtifact(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if art.SchemaVersion != c.schemaVersion {
		return false, fmt.Errorf("%w: artifact schema v%d, extractor schema v%d", ErrCorruptArtifact, art.SchemaVersion, c.schemaVersion)
	}

	c.mu.Lock()
	c.art = art
	c.mu.Unlock()
	return true, nil
}

// Loaded reports whether a trained model is available for prediction.
func (c *Classifier) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.art != nil
}

// Predict returns the model's verdict and its self-confidence (the
// probability of the predicted class). With no model loaded it returns
// (false, 0): no opinion, not a meaningful negative.
func (c *Classifier) Predict(title, body string) (bool, float64) {
	c.mu.RLock()
	art := c.art
	c.mu.RUnlock()

	if art == nil {
		return false, 0.0
	}

	text := strings.ToLower(title + " " + body)
	p := art.Classifier.prob(art.Vectorizer.transform(text))
	return p > 0.5, math.Max(p, 1-p)
}

// Train fits a fresh vectorizer+classifier pair on the examples, holds
// out a stratified 20% for evaluation, persists the artifact atomically
// and swaps it in for subsequent predictions.
func (c *Classifier) Train(examples []domain.TrainingExample, minSamples int) (TrainResult, error) {
	if minSamples <= 0 {
		minSamples = DefaultMinSamples
	}
	if len(examples) < minSamples {
		return TrainResult{}, fmt.Errorf("%w: have %d labeled examples, need %d", ErrInsufficientData, len(examples), minSamples)
	}

	texts := make([]string, len(examples))
	labels := make([]bool, len(examples))
	var positives int
	for i, ex := range examples {
		texts[i] = strings.ToLower(ex.Summary + " " + ex.Description)
		labels[i] = ex.IsPixelRelated
		if ex.IsPixelRelated {
			positives++
		}
	}
	if positives == 0 || positives == len(examples) {
		return TrainResult{}, fmt.Errorf("%w: need examples of both classes, have %d positive of %d", ErrInsufficientData, positives, len(examples))
	}

	trainIdx, testIdx := stratifiedSplit(labels, testFraction, trainSeed)

	trainTexts := make([]string, len(trainIdx))
	trainLabels := make([]bool, len(trainIdx))
	for i, idx := range trainIdx {
		trainTexts[i] = texts[idx]
		trainLabels[i] = labels[idx]
	}

	// Vectorizer is fitted on the training split only, so held-out
	// scores are not inflated by test vocabulary.
	vec := fitVectorizer(trainTexts, c.maxFeatures)

	xs := make([]sparseVec, len(trainTexts))
	for i, t := range trainTexts {
		xs[i] = vec.transform(t)
	}
	clf := fitLogistic(xs, trainLabels, len(vec.Terms))

	var predicted, actual []bool
	for _, idx := range testIdx {
		p := clf.prob(vec.transform(texts[idx]))
		predicted = append(predicted, p > 0.5)
		actual = append(actual, labels[idx])
	}
	precision, recall, f1 := weightedScores(actual, predicted)

	art := &artifact{
		ModelVersion:    time.Now().Format("20060102_1504"),
		SchemaVersion:   c.schemaVersion,
		TrainedAt:       time.Now().UTC(),
		TrainingSamples: len(examples),
		Vectorizer:      vec,
		Classifier:      clf,
	}
	if c.path != "" {
		if err := saveArtifact(art, c.path); err != nil {
			return TrainResult{}, err
		}
	}

	c.mu.Lock()
	c.art = art
	c.mu.Unlock()

	return TrainResult{
		ModelVersion:    art.ModelVersion,
		TrainingSamples: len(examples),
		Precision:       precision,
		Recall:          recall,
		F1:              f1,
	}, nil
}

// weightedScores computes precision/recall/F1 per class on the held-out
// split and averages them weighted by class support.
func weightedScores(actual, predicted []bool) (precision, recall, f1 float64) {
	if len(actual) == 0 {
		return 0, 0, 0
	}

	for _, class := range []bool{false, true} {
		var tp, fp, fn, support float64
		for i := range actual {
			if actual[i] == class {
				support++
			}
			switch {
			case predicted[i] == class && actual[i] == class:
				tp++
			case predicted[i] == class && actual[i] != class:
				fp++
			case predicted[i] != class && actual[i] == class:
				fn++
			}
		}
		if support == 0 {
			continue
		}

		var p, r, f float64
		if tp+fp > 0 {
			p = tp / (tp + fp)
		}
		if tp+fn > 0 {
			r = tp / (tp + fn)
		}
		if p+r > 0 {
			f = 2 * p * r / (p + r)
		}

		weight := support / float64(len(actual))
		precision += weight * p
		recall += weight * r
		f1 += weight * f
	}
	return precision, recall, f1
}
