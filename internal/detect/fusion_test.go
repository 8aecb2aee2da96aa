package detect

import (
	"math"
	"testing"
)

func TestDecideWithoutModelPassesRulesThrough(t *testing.T) {
	p := DefaultFusionPolicy()

	got := p.Decide(true, 0.95, false, 0)
	if !got.Verdict || got.Confidence != 0.95 || got.Hybrid {
		t.Fatalf("Decide without model = %+v, want rule verdict and confidence, not hybrid", got)
	}

	got = p.Decide(false, 0, false, 0.99)
	if got.Verdict || got.Confidence != 0 || got.Hybrid {
		t.Fatalf("Decide without model = %+v, want negative rule passthrough", got)
	}
}

func TestDecideDefaultWeights(t *testing.T) {
	p := DefaultFusionPolicy()

	// Model confidence at or below the trust threshold keeps the rule-heavy
	// weighting: 0.6*0.9 + 0.4*0.7 = 0.82.
	got := p.Decide(true, 0.9, true, 0.7)
	if !got.Hybrid {
		t.Fatal("expected hybrid decision with a loaded model")
	}
	if math.Abs(got.Confidence-0.82) > 1e-9 {
		t.Fatalf("combined confidence = %v, want 0.82", got.Confidence)
	}
	if !got.Verdict {
		t.Fatal("combined 0.82 should clear the 0.5 decision threshold")
	}
}

func TestDecideWeightFlipOnConfidentModel(t *testing.T) {
	p := DefaultFusionPolicy()

	// Above the trust threshold the weights flip to model-heavy:
	// 0.4*0.3 + 0.6*0.9 = 0.66.
	got := p.Decide(false, 0.3, true, 0.9)
	if math.Abs(got.Confidence-0.66) > 1e-9 {
		t.Fatalf("combined confidence = %v, want 0.66", got.Confidence)
	}
	if !got.Verdict {
		t.Fatal("confident model should be able to overrule a weak rule result")
	}

	// Exactly at the threshold the flip does not trigger:
	// 0.6*0.3 + 0.4*0.8 = 0.50, which does not clear a 0.5 threshold.
	got = p.Decide(false, 0.3, true, 0.8)
	if math.Abs(got.Confidence-0.50) > 1e-9 {
		t.Fatalf("combined confidence = %v, want 0.50", got.Confidence)
	}
	if got.Verdict {
		t.Fatal("score equal to the decision threshold must be negative")
	}
}

func TestDecideConfidenceStaysInRange(t *testing.T) {
	p := FusionPolicy{
		RuleWeight:         1.5,
		ModelWeight:        1.5,
		TrustedRuleWeight:  1.5,
		TrustedModelWeight: 1.5,
		TrustThreshold:     0.8,
		DecisionThreshold:  0.5,
	}
	got := p.Decide(true, 1.0, true, 1.0)
	if got.Confidence < 0 || got.Confidence > 1 {
		t.Fatalf("combined confidence = %v, want within [0,1]", got.Confidence)
	}
}

func TestDecideAgreementCases(t *testing.T) {
	p := DefaultFusionPolicy()

	tests := []struct {
		name       string
		ruleConf   float64
		modelConf  float64
		want       bool
	}{
		{"both strong positive", 0.95, 0.75, true},
		{"both weak", 0.0, 0.2, false},
		{"rules strong model silent", 0.9, 0.1, true},
		{"rules silent model moderate", 0.0, 0.7, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Decide(tt.ruleConf > 0.5, tt.ruleConf, true, tt.modelConf)
			if got.Verdict != tt.want {
				t.Fatalf("Decide(rule=%v, model=%v) verdict = %v, want %v (confidence %v)",
					tt.ruleConf, tt.modelConf, got.Verdict, tt.want, got.Confidence)
			}
		})
	}
}
