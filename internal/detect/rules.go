// Package detect implements the hybrid pixel-ticket detector: the ordered
// keyword rule engine, the feature extractor, and the fusion policy that
// reconciles rule and model verdicts.
package detect

import "strings"

// ReasonKind enumerates the rule branches that can produce a verdict.
// Every kind has an entry in the confidence table (confidence.go); adding
// a branch here forces a confidence decision there.
type ReasonKind int

const (
	KindNoSummary ReasonKind = iota
	KindExcluded
	KindHighConfidence
	KindPixelContext
	KindTrackingAction
	KindConversionWeb
	KindNoMatch
)

// Reason identifies which rule fired. Term carries the matched exclusion,
// phrase, or context word for the parameterized kinds.
type Reason struct {
	Kind ReasonKind
	Term string
}

// Code renders the reason in the stable string form recorded with
// feedback and detections (e.g. "excluded:user sync", "high:conversion
// pixel", "pixel_context:firing").
func (r Reason) Code() string {
	switch r.Kind {
	case KindNoSummary:
		return "no_summary"
	case KindExcluded:
		return "excluded:" + r.Term
	case KindHighConfidence:
		return "high:" + r.Term
	case KindPixelContext:
		return "pixel_context:" + r.Term
	case KindTrackingAction:
		return "medium:tracking_action"
	case KindConversionWeb:
		return "medium:conversion_web"
	default:
		return "no_match"
	}
}

// Matched reports whether the reason corresponds to a positive verdict.
func (r Reason) Matched() bool {
	switch r.Kind {
	case KindHighConfidence, KindPixelContext, KindTrackingAction, KindConversionWeb:
		return true
	}
	return false
}

// Keyword lists, carried over verbatim from the calibrated production
// lists. Order matters: rules short-circuit on the first hit, and context
// words are scanned in list order.

// exclusions are domain terms that co-occur with "pixel" but denote
// unrelated work (TV/ACR, access management, third-party sync, planning).
// Checked before any positive rule so that exclusion always wins.
var exclusions = []string{
	"acr",
	"delivery report",
	"access request",
	"grant access",
	"monitoring alert",
	"o&o monitoring",
	"user sync",
	"sync pixel",
	"planning module",
	"linear ads",
}

var highConfidencePhrases = []string{
	"pixel validation",
	"pixel firing",
	"pixel not firing",
	"conversion pixel",
	"tracking pixel",
	"universal tag",
	"piggyback",
	"appending a pixel",
	"append pixel",
}

var pixelContexts = []string{
	"confirmation",
	"conversion",
	"firing",
	"tracking",
	"validation",
	"website",
	"page",
	"code",
	"tag",
	"implement",
	"install",
	"setup",
	"not working",
	"0 conversions",
	"troubleshoot",
}

var trackingKeywords = []string{"tracking", "tag", "javascript", "js"}

var actionKeywords = []string{"implement", "install", "setup", "add", "place", "deploy"}

var webTerms = []string{"web", "website", "page", "tag"}

// Classify runs the ordered rule chain over title+body. Pure and
// deterministic: the same input always yields the same (verdict, reason).
//
// Matching is naive substring containment, not word-boundary matching.
// That occasionally fires on substrings crossing word boundaries ("js"
// inside "json"); the lists were calibrated against that behavior, so it
// is preserved deliberately.
func Classify(title, body string) (bool, Reason) {
	if strings.TrimSpace(title) == "" && strings.TrimSpace(body) == "" {
		return false, Reason{Kind: KindNoSummary}
	}

	text := strings.ToLower(title + " " + body)

	for _, term := range exclusions {
		if strings.Contains(text, term) {
			return false, Reason{Kind: KindExcluded, Term: term}
		}
	}

	for _, phrase := range highConfidencePhrases {
		if strings.Contains(text, phrase) {
			return true, Reason{Kind: KindHighConfidence, Term: phrase}
		}
	}

	// The bare keyword is weak evidence on its own: require a context
	// word, otherwise fall through to the combination rules.
	if strings.Contains(text, "pixel") {
		for _, ctx := range pixelContexts {
			if strings.Contains(text, ctx) {
				return true, Reason{Kind: KindPixelContext, Term: ctx}
			}
		}
	}

	if containsAny(text, trackingKeywords) && containsAny(text, actionKeywords) {
		return true, Reason{Kind: KindTrackingAction}
	}

	if strings.Contains(text, "conversion") && containsAny(text, webTerms) {
		return true, Reason{Kind: KindConversionWeb}
	}

	return false, Reason{Kind: KindNoMatch}
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func countContained(text string, terms []string) int {
	n := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			n++
		}
	}
	return n
}
