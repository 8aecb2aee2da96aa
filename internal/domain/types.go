package domain

import (
	"encoding/json"
	"time"
)

// Method identifies which detection path produced a result.
type Method string

const (
	MethodRuleOnly Method = "rule_only"
	MethodHybrid   Method = "hybrid"
)

// FeedbackLabel is a human judgement on a prior detection.
type FeedbackLabel string

const (
	TruePositive  FeedbackLabel = "true_positive"
	FalsePositive FeedbackLabel = "false_positive"
	FalseNegative FeedbackLabel = "false_negative"
)

func (l FeedbackLabel) Valid() bool {
	switch l {
	case TruePositive, FalsePositive, FalseNegative:
		return true
	}
	return false
}

// Ticket is a tracker issue as fetched from Jira. Description may be
// Jira's nested rich-text document and must be flattened before use.
type Ticket struct {
	Key         string
	Summary     string
	Description json.RawMessage
	Created     time.Time
}

// DetectionResult is the outcome of one classification call.
type DetectionResult struct {
	Verdict    bool
	Reason     string
	Confidence float64
	Method     Method

	RuleVerdict     bool
	RuleConfidence  float64
	ModelVerdict    bool
	ModelConfidence float64

	// Best-effort sub-label; not part of the detection contract.
	Category string
	Priority string
}

// FeedbackRecord is one human correction tied to a ticket. Latest write
// per ticket key wins; Processed flips once the record has been
// materialized into training data.
type FeedbackRecord struct {
	ID              int64
	TicketKey       string
	Summary         string
	Description     string
	DetectionReason string
	Label           FeedbackLabel
	Confidence      float64
	Timestamp       time.Time
	Processed       bool
}

// TrainingExample is a labeled example derived from processed feedback,
// unique per ticket key.
type TrainingExample struct {
	TicketKey      string
	Summary        string
	Description    string
	IsPixelRelated bool
}

// PerformanceRecord is one row of the append-only training history.
type PerformanceRecord struct {
	ModelVersion    string
	TrainingSamples int
	Precision       float64
	Recall          float64
	F1              float64
	TrainedAt       time.Time
}

type FeedbackStats struct {
	TruePositives  int
	FalsePositives int
	FalseNegatives int
	Precision      float64
	Recall         float64
	F1             float64
}

// Metrics is the combined view returned by the status surfaces.
type Metrics struct {
	Feedback      FeedbackStats
	Model         PerformanceRecord
	ModelTrained  bool
	TotalFeedback int
}

type TokenCount struct {
	Token string
	Count int
}

// PatternReport is the advisory output of the pattern analyzer.
type PatternReport struct {
	FalsePositiveCount  int
	FalseNegativeCount  int
	CommonFPTokens      []TokenCount
	CommonFNTokens      []TokenCount
	SuggestedExclusions []string
	SuggestedKeywords   []string
}

// Detection is one persisted detection outcome, used for alert dedup and
// the dashboard.
type Detection struct {
	ID         int64
	TicketKey  string
	Summary    string
	Verdict    bool
	Reason     string
	Confidence float64
	Method     string
	Category   string
	DetectedAt time.Time
}

// ReasonStat is the per-reason feedback rollup.
type ReasonStat struct {
	Reason         string
	TruePositives  int
	FalsePositives int
	FalseNegatives int
	Precision      float64
	Recall         float64
}
