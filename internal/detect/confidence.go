package detect

// Per-term confidence for the parameterized rule kinds. High-confidence
// phrases sit in 0.85–0.95, context matches in 0.75–0.90, matching how
// the reason table was calibrated against real ticket history.
var highPhraseConfidence = map[string]float64{
	"pixel validation":  0.95,
	"pixel firing":      0.95,
	"pixel not firing":  0.95,
	"conversion pixel":  0.90,
	"tracking pixel":    0.90,
	"universal tag":     0.90,
	"piggyback":         0.85,
	"appending a pixel": 0.85,
	"append pixel":      0.85,
}

var pixelContextConfidence = map[string]float64{
	"confirmation":  0.80,
	"conversion":    0.80,
	"firing":        0.85,
	"tracking":      0.80,
	"validation":    0.85,
	"website":       0.78,
	"page":          0.75,
	"code":          0.75,
	"tag":           0.78,
	"implement":     0.80,
	"install":       0.80,
	"setup":         0.75,
	"not working":   0.82,
	"0 conversions": 0.88,
	"troubleshoot":  0.82,
}

// defaultReasonConfidence is returned for a term the tables do not
// recognize, so an unmapped rule addition degrades to "no opinion either
// way" instead of a miscalibrated extreme.
const defaultReasonConfidence = 0.5

// RuleConfidence maps a fired reason to the calibrated confidence that
// the ticket is pixel-related. Negative outcomes (no match, excluded,
// empty input) carry zero confidence: they are "no positive signal", not
// a strong negative signal.
func RuleConfidence(r Reason) float64 {
	switch r.Kind {
	case KindNoSummary, KindNoMatch, KindExcluded:
		return 0.0
	case KindHighConfidence:
		if c, ok := highPhraseConfidence[r.Term]; ok {
			return c
		}
		return defaultReasonConfidence
	case KindPixelContext:
		if c, ok := pixelContextConfidence[r.Term]; ok {
			return c
		}
		return defaultReasonConfidence
	case KindTrackingAction:
		// Broadest rule, most prone to false positives.
		return 0.60
	case KindConversionWeb:
		return 0.70
	default:
		return defaultReasonConfidence
	}
}
