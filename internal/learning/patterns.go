package learning

import (
	"fmt"
	"sort"
	"strings"

	"pixelwatch/internal/domain"
	"pixelwatch/internal/storage/sqlite"
)

const (
	topTokenCount       = 10
	suggestionPoolSize  = 5
	suggestionThreshold = 2
)

// AnalyzePatterns surfaces frequent tokens in false-positive and
// false-negative feedback and suggests rule-list candidates. Advisory
// only: the fixed keyword lists are edited by a human, never self-modified.
func (e *Engine) AnalyzePatterns() (domain.PatternReport, error) {
	falsePositives, err := sqlite.FeedbackByLabel(e.db, domain.FalsePositive)
	if err != nil {
		return domain.PatternReport{}, fmt.Errorf("loading false positives: %w", err)
	}
	falseNegatives, err := sqlite.FeedbackByLabel(e.db, domain.FalseNegative)
	if err != nil {
		return domain.PatternReport{}, fmt.Errorf("loading false negatives: %w", err)
	}

	fpTokens := tokenFrequencies(falsePositives)
	fnTokens := tokenFrequencies(falseNegatives)

	return domain.PatternReport{
		FalsePositiveCount:  len(falsePositives),
		FalseNegativeCount:  len(falseNegatives),
		CommonFPTokens:      topTokens(fpTokens, topTokenCount),
		CommonFNTokens:      topTokens(fnTokens, topTokenCount),
		SuggestedExclusions: suggestions(fpTokens),
		SuggestedKeywords:   suggestions(fnTokens),
	}, nil
}

// tokenFrequencies counts whitespace-split lowercase tokens across the
// feedback texts. No stemming or stopword removal: a human reads the
// output and decides what belongs in the rule lists.
func tokenFrequencies(records []domain.FeedbackRecord) map[string]int {
	freq := make(map[string]int)
	for _, rec := range records {
		text := strings.ToLower(rec.Summary + " " + rec.Description)
		for _, tok := range strings.Fields(text) {
			freq[tok]++
		}
	}
	return freq
}

func topTokens(freq map[string]int, n int) []domain.TokenCount {
	ranked := make([]domain.TokenCount, 0, len(freq))
	for tok, count := range freq {
		ranked = append(ranked, domain.TokenCount{Token: tok, Count: count})
	}
	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].Count != ranked[b].Count {
			return ranked[a].Count > ranked[b].Count
		}
		return ranked[a].Token < ranked[b].Token
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// suggestions picks the most frequent tokens that recur at least twice.
func suggestions(freq map[string]int) []string {
	var out []string
	for _, tc := range topTokens(freq, suggestionPoolSize) {
		if tc.Count >= suggestionThreshold {
			out = append(out, tc.Token)
		}
	}
	return out
}
