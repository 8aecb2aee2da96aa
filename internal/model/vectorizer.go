package model

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

const (
	defaultMaxFeatures = 1000
	ngramMin           = 1
	ngramMax           = 2
)

type sparseVec = map[int]float64

// vectorizer is a TF-IDF text vectorizer with a bounded vocabulary of
// unigrams and bigrams, stopwords removed. Fitted on the training split
// only; the fitted terms and IDF travel inside the model artifact so the
// classifier can never be paired with a foreign vocabulary.
type vectorizer struct {
	Terms []string  `json:"terms"`
	IDF   []float64 `json:"idf"`

	vocab map[string]int
}

func tokenize(s string) []string {
	s = strings.ToLower(s)
	var tokens []string
	var cur strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(r)
		} else {
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

// terms yields the stopword-filtered unigrams and bigrams of a document.
func terms(doc string) []string {
	raw := tokenize(doc)
	unigrams := make([]string, 0, len(raw))
	for _, tok := range raw {
		if !isStopword(tok) {
			unigrams = append(unigrams, tok)
		}
	}

	out := make([]string, 0, len(unigrams)*2)
	for n := ngramMin; n <= ngramMax; n++ {
		for i := 0; i+n <= len(unigrams); i++ {
			out = append(out, strings.Join(unigrams[i:i+n], " "))
		}
	}
	return out
}

// fitVectorizer builds the vocabulary from the documents, keeping at most
// maxFeatures terms ranked by corpus frequency (ties broken
// lexicographically for determinism), and computes smoothed IDF.
func fitVectorizer(docs []string, maxFeatures int) *vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = defaultMaxFeatures
	}

	counts := make(map[string]int)
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, t := range terms(doc) {
			counts[t]++
			if !seen[t] {
				seen[t] = true
				df[t]++
			}
		}
	}

	ranked := make([]string, 0, len(counts))
	for t := range counts {
		ranked = append(ranked, t)
	}
	sort.Slice(ranked, func(a, b int) bool {
		if counts[ranked[a]] != counts[ranked[b]] {
			return counts[ranked[a]] > counts[ranked[b]]
		}
		return ranked[a] < ranked[b]
	})
	if len(ranked) > maxFeatures {
		ranked = ranked[:maxFeatures]
	}
	sort.Strings(ranked)

	v := &vectorizer{
		Terms: ranked,
		IDF:   make([]float64, len(ranked)),
	}
	n := float64(len(docs))
	for i, t := range ranked {
		v.IDF[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
	v.buildIndex()
	return v
}

func (v *vectorizer) buildIndex() {
	v.vocab = make(map[string]int, len(v.Terms))
	for i, t := range v.Terms {
		v.vocab[t] = i
	}
}

// transform maps a document to its L2-normalized TF-IDF vector.
// Out-of-vocabulary terms are ignored; an empty projection yields an
// empty vector, which the classifier treats as zero signal.
func (v *vectorizer) transform(doc string) sparseVec {
	tf := make(map[int]int)
	for _, t := range terms(doc) {
		if i, ok := v.vocab[t]; ok {
			tf[i]++
		}
	}

	vec := make(sparseVec, len(tf))
	var norm float64
	for i, count := range tf {
		w := float64(count) * v.IDF[i]
		vec[i] = w
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}
