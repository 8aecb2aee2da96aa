package detect

import "testing"

func TestRuleConfidenceNegativeOutcomes(t *testing.T) {
	for _, r := range []Reason{
		{Kind: KindNoSummary},
		{Kind: KindNoMatch},
		{Kind: KindExcluded, Term: "user sync"},
	} {
		if c := RuleConfidence(r); c != 0 {
			t.Errorf("RuleConfidence(%+v) = %v, want 0", r, c)
		}
	}
}

func TestRuleConfidenceCalibratedRanges(t *testing.T) {
	for _, phrase := range highConfidencePhrases {
		c := RuleConfidence(Reason{Kind: KindHighConfidence, Term: phrase})
		if c < 0.85 || c > 0.95 {
			t.Errorf("high phrase %q confidence = %v, want within [0.85, 0.95]", phrase, c)
		}
	}
	for _, ctx := range pixelContexts {
		c := RuleConfidence(Reason{Kind: KindPixelContext, Term: ctx})
		if c < 0.75 || c > 0.90 {
			t.Errorf("context %q confidence = %v, want within [0.75, 0.90]", ctx, c)
		}
	}
}

func TestRuleConfidenceCombinationRules(t *testing.T) {
	if c := RuleConfidence(Reason{Kind: KindTrackingAction}); c != 0.60 {
		t.Errorf("tracking_action confidence = %v, want 0.60", c)
	}
	if c := RuleConfidence(Reason{Kind: KindConversionWeb}); c != 0.70 {
		t.Errorf("conversion_web confidence = %v, want 0.70", c)
	}
}

func TestRuleConfidenceUnknownTermFallsBack(t *testing.T) {
	// A rule-list addition without a confidence entry degrades to the
	// neutral default instead of a miscalibrated extreme.
	if c := RuleConfidence(Reason{Kind: KindHighConfidence, Term: "brand new phrase"}); c != defaultReasonConfidence {
		t.Errorf("unknown high phrase confidence = %v, want %v", c, defaultReasonConfidence)
	}
	if c := RuleConfidence(Reason{Kind: KindPixelContext, Term: "brand new context"}); c != defaultReasonConfidence {
		t.Errorf("unknown context confidence = %v, want %v", c, defaultReasonConfidence)
	}
}

func TestEveryRuleTermHasConfidence(t *testing.T) {
	// The lists and the confidence tables must stay in lockstep.
	for _, phrase := range highConfidencePhrases {
		if _, ok := highPhraseConfidence[phrase]; !ok {
			t.Errorf("high phrase %q has no confidence entry", phrase)
		}
	}
	for _, ctx := range pixelContexts {
		if _, ok := pixelContextConfidence[ctx]; !ok {
			t.Errorf("context %q has no confidence entry", ctx)
		}
	}
}
