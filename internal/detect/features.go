package detect

import "strings"

// FeatureSchemaVersion identifies the FeatureVector shape. The trainer
// stamps it into the model artifact; predictions against an artifact
// built with a different schema are refused, since model parameters are
// meaningless outside the input space they were fitted on.
const FeatureSchemaVersion = 1

// FeatureVector is the fixed-shape numeric/boolean view of a ticket's
// text. The field set is frozen at compile time; changing it requires a
// FeatureSchemaVersion bump.
type FeatureVector struct {
	Length    int `json:"length"`
	WordCount int `json:"word_count"`

	HasPixel      bool `json:"has_pixel"`
	HasTracking   bool `json:"has_tracking"`
	HasConversion bool `json:"has_conversion"`
	HasValidation bool `json:"has_validation"`
	HasFiring     bool `json:"has_firing"`

	PixelContextCount  int `json:"pixel_with_context"`
	TechnicalTermCount int `json:"technical_terms"`
	ExclusionCount     int `json:"has_exclusions"`
	ActionWordCount    int `json:"action_words"`

	DSPRelated      bool `json:"dsp_related"`
	WebRelated      bool `json:"web_related"`
	CampaignRelated bool `json:"campaign_related"`
}

var featureContexts = []string{"firing", "load", "implement", "setup", "troubleshoot", "validate", "test"}

var technicalTerms = []string{"javascript", "js", "tag", "code", "snippet", "implementation", "gtm"}

var exclusionIndicators = []string{"acr", "delivery report", "access request", "user sync", "planning module", "linear ads"}

var featureActions = []string{"implement", "install", "setup", "add", "place", "deploy", "configure"}

// ExtractFeatures derives the feature vector from ticket text. Pure,
// deterministic, total: empty input yields the zero vector.
func ExtractFeatures(title, body string) FeatureVector {
	text := strings.ToLower(strings.TrimSpace(title + " " + body))

	fv := FeatureVector{
		Length:    len(text),
		WordCount: len(strings.Fields(text)),

		HasPixel:      strings.Contains(text, "pixel"),
		HasTracking:   containsAny(text, trackingKeywords),
		HasConversion: strings.Contains(text, "conversion"),
		HasValidation: strings.Contains(text, "validation"),
		HasFiring:     strings.Contains(text, "firing"),

		TechnicalTermCount: countContained(text, technicalTerms),
		ExclusionCount:     countContained(text, exclusionIndicators),
		ActionWordCount:    countContained(text, featureActions),

		DSPRelated:      strings.Contains(text, "dsp") || strings.Contains(text, "creative"),
		WebRelated:      containsAny(text, []string{"web", "website", "page"}),
		CampaignRelated: strings.Contains(text, "campaign"),
	}

	// Context overlap only counts when the primary keyword is present.
	if fv.HasPixel {
		fv.PixelContextCount = countContained(text, featureContexts)
	}

	return fv
}
