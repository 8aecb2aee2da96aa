package detect

// FusionPolicy combines the rule engine's verdict with the statistical
// model's. The weights favor the hand-calibrated rules until the model is
// itself confident; all knobs are tunable rather than baked in.
type FusionPolicy struct {
	RuleWeight  float64
	ModelWeight float64

	// Weights used once the model's own confidence clears TrustThreshold.
	TrustedRuleWeight  float64
	TrustedModelWeight float64
	TrustThreshold     float64

	// A combined score above DecisionThreshold is a positive verdict.
	DecisionThreshold float64
}

func DefaultFusionPolicy() FusionPolicy {
	return FusionPolicy{
		RuleWeight:         0.6,
		ModelWeight:        0.4,
		TrustedRuleWeight:  0.4,
		TrustedModelWeight: 0.6,
		TrustThreshold:     0.8,
		DecisionThreshold:  0.5,
	}
}

// Fusion is the outcome of combining both detector halves.
type Fusion struct {
	Verdict    bool
	Confidence float64
	Hybrid     bool
}

// Decide fuses a rule verdict and a model verdict into one decision.
// With no trained model available it degrades to the rule engine's own
// verdict and confidence, so the system is fully usable with zero
// training data. The combined confidence is always within [0,1].
func (p FusionPolicy) Decide(ruleVerdict bool, ruleConfidence float64, modelLoaded bool, modelConfidence float64) Fusion {
	if !modelLoaded {
		return Fusion{Verdict: ruleVerdict, Confidence: clamp01(ruleConfidence)}
	}

	wr, wm := p.RuleWeight, p.ModelWeight
	if modelConfidence > p.TrustThreshold {
		wr, wm = p.TrustedRuleWeight, p.TrustedModelWeight
	}

	combined := clamp01(ruleConfidence*wr + modelConfidence*wm)
	return Fusion{
		Verdict:    combined > p.DecisionThreshold,
		Confidence: combined,
		Hybrid:     true,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
