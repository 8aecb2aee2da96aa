package detect

import "strings"

// Category is the best-effort sub-label applied to detected tickets for
// dashboards and alert routing. It is advisory only and sits outside the
// pass/fail detection contract.
type Category string

const (
	CategoryDataDiscrepancy  Category = "data_discrepancy"
	CategoryImplementation   Category = "implementation"
	CategoryValidation       Category = "validation"
	CategoryTroubleshooting  Category = "troubleshooting"
	CategoryConversionIssues Category = "conversion_issues"
	CategoryGTM              Category = "gtm_related"
	CategoryCrossDomain      Category = "cross_domain"
	CategoryReporting        Category = "reporting"
)

// Priority buckets alerts for triage.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type categoryRule struct {
	category Category
	keywords []string
}

// Evaluated in order; ties go to the earlier rule. Implementation is the
// default when nothing matches.
var categoryRules = []categoryRule{
	{CategoryDataDiscrepancy, []string{
		"similar data between", "data mismatch", "discrepancy",
		"1p and 3p", "user count", "not seeing similar", "confirmation page data",
	}},
	{CategoryImplementation, []string{
		"pixel not firing", "implementation", "setup", "install pixel",
		"place pixel", "add pixel", "deploy pixel",
	}},
	{CategoryValidation, []string{
		"validation", "validate", "test pixel", "verify pixel",
		"check pixel", "pixel testing",
	}},
	{CategoryTroubleshooting, []string{
		"troubleshoot", "debug", "investigate", "pixel issue",
		"not working", "broken pixel", "0 conversions",
	}},
	{CategoryConversionIssues, []string{
		"conversion", "conversion tracking", "purchase tracking",
		"conversion pixel", "revenue tracking",
	}},
	{CategoryGTM, []string{
		"gtm", "google tag manager", "tag manager", "data layer",
		"gtm container", "tag configuration",
	}},
	{CategoryCrossDomain, []string{
		"cross domain", "cross-domain", "subdomain", "multiple domains",
		"domain tracking",
	}},
	{CategoryReporting, []string{
		"reporting", "analytics", "dashboard", "report data",
		"metrics", "performance data",
	}},
}

var highPriorityTerms = []string{"critical", "urgent", "high priority", "revenue impact", "client escalation"}

var lowPriorityTerms = []string{"low", "nice to have", "future", "enhancement"}

// Categorize picks the category whose keyword list has the most hits in
// the text, defaulting to implementation. Priority is a coarse keyword
// heuristic over the same text.
func Categorize(title, body string) (Category, Priority) {
	text := strings.ToLower(title + " " + body)

	category := CategoryImplementation
	maxMatches := 0
	for _, rule := range categoryRules {
		if matches := countContained(text, rule.keywords); matches > maxMatches {
			maxMatches = matches
			category = rule.category
		}
	}

	priority := PriorityMedium
	switch {
	case containsAny(text, highPriorityTerms):
		priority = PriorityHigh
	case containsAny(text, lowPriorityTerms):
		priority = PriorityLow
	}

	return category, priority
}

// Categories lists the valid sub-labels, for prompt construction and
// validation of tagger output.
func Categories() []Category {
	out := make([]Category, 0, len(categoryRules))
	for _, rule := range categoryRules {
		out = append(out, rule.category)
	}
	return out
}
