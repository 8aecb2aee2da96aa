package detect

import (
	"pixelwatch/internal/domain"
	"pixelwatch/internal/model"
)

// Detector is the primary classification entry point, fusing the rule
// engine with the statistical model. Construct once and share; Classify
// is safe for concurrent use and never fails on malformed input.
type Detector struct {
	classifier *model.Classifier
	policy     FusionPolicy
}

func NewDetector(classifier *model.Classifier, policy FusionPolicy) *Detector {
	return &Detector{classifier: classifier, policy: policy}
}

// Classify produces a detection for the given plain-text title and body.
// Rich-text bodies must be flattened (internal/normalize) before calling.
func (d *Detector) Classify(title, body string) domain.DetectionResult {
	ruleVerdict, reason := Classify(title, body)
	ruleConfidence := RuleConfidence(reason)

	modelLoaded := d.classifier != nil && d.classifier.Loaded()
	var modelVerdict bool
	var modelConfidence float64
	if modelLoaded {
		modelVerdict, modelConfidence = d.classifier.Predict(title, body)
	}

	fusion := d.policy.Decide(ruleVerdict, ruleConfidence, modelLoaded, modelConfidence)

	method := domain.MethodRuleOnly
	if fusion.Hybrid {
		method = domain.MethodHybrid
	}

	result := domain.DetectionResult{
		Verdict:         fusion.Verdict,
		Reason:          reason.Code(),
		Confidence:      fusion.Confidence,
		Method:          method,
		RuleVerdict:     ruleVerdict,
		RuleConfidence:  ruleConfidence,
		ModelVerdict:    modelVerdict,
		ModelConfidence: modelConfidence,
	}

	if result.Verdict {
		category, priority := Categorize(title, body)
		result.Category = string(category)
		result.Priority = string(priority)
	}

	return result
}
