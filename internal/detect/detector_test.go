package detect

import (
	"testing"

	"pixelwatch/internal/domain"
)

func TestDetectorRuleOnlyWithoutModel(t *testing.T) {
	d := NewDetector(nil, DefaultFusionPolicy())

	result := d.Classify("Tracking pixel not firing on checkout", "")
	if !result.Verdict {
		t.Fatalf("expected positive verdict, got %+v", result)
	}
	if result.Method != domain.MethodRuleOnly {
		t.Fatalf("method = %q, want %q", result.Method, domain.MethodRuleOnly)
	}
	if result.Reason != "high:pixel not firing" {
		t.Fatalf("reason = %q, want high:pixel not firing", result.Reason)
	}
	if result.Confidence != result.RuleConfidence {
		t.Fatalf("rule-only confidence %v should equal rule confidence %v", result.Confidence, result.RuleConfidence)
	}
	if result.ModelConfidence != 0 {
		t.Fatalf("model confidence = %v, want 0 without a model", result.ModelConfidence)
	}
}

func TestDetectorCategorizesOnlyPositives(t *testing.T) {
	d := NewDetector(nil, DefaultFusionPolicy())

	positive := d.Classify("Pixel validation on landing page", "")
	if positive.Category == "" || positive.Priority == "" {
		t.Fatalf("positive detection missing sub-label: %+v", positive)
	}

	negative := d.Classify("Quarterly billing reconciliation", "")
	if negative.Category != "" || negative.Priority != "" {
		t.Fatalf("negative detection should carry no sub-label: %+v", negative)
	}
}

func TestDetectorTotalOnEmptyInput(t *testing.T) {
	d := NewDetector(nil, DefaultFusionPolicy())

	result := d.Classify("", "")
	if result.Verdict {
		t.Fatalf("empty input must be negative, got %+v", result)
	}
	if result.Reason != "no_summary" {
		t.Fatalf("reason = %q, want no_summary", result.Reason)
	}
	if result.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0", result.Confidence)
	}
}
