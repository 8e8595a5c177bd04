package index

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
)

// TFIDFEmbedder weights a fixed vocabulary by inverse document frequency.
// The vocabulary depends on the corpus it was built from, so its Model
// carries a fingerprint of that vocabulary.
type TFIDFEmbedder struct {
	terms []string
	idf   []float64
	model string
}

// NewTFIDFEmbedder keeps the maxTerms (default 512) terms that occur in
// the most corpus documents.
func NewTFIDFEmbedder(corpus []string, maxTerms int) *TFIDFEmbedder {
	if maxTerms <= 0 {
		maxTerms = 512
	}

	docFreq := map[string]int{}
	nonEmpty := 0
	for _, text := range corpus {
		seen := map[string]struct{}{}
		for _, term := range tokenize(text) {
			seen[term] = struct{}{}
		}
		if len(seen) == 0 {
			continue
		}
		nonEmpty++
		for term := range seen {
			docFreq[term]++
		}
	}

	terms := make([]string, 0, len(docFreq))
	for term := range docFreq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		a, b := docFreq[terms[i]], docFreq[terms[j]]
		if a != b {
			return a > b
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxTerms {
		terms = terms[:maxTerms]
	}

	n := math.Max(float64(nonEmpty), 1)
	idf := make([]float64, len(terms))
	fp := fnv.New32a()
	for i, term := range terms {
		idf[i] = 1 + math.Log(n/float64(docFreq[term]))
		fp.Write([]byte(term))
		fp.Write([]byte{0})
	}

	return &TFIDFEmbedder{
		terms: terms,
		idf:   idf,
		model: fmt.Sprintf("tfidf-%d-%08x", len(terms), fp.Sum32()),
	}
}

func (t *TFIDFEmbedder) Model() string { return t.model }

func (t *TFIDFEmbedder) Dimensions() int {
	if len(t.terms) == 0 {
		return 1
	}
	return len(t.terms)
}

// Embed returns the normalized augmented-TF times IDF vector of text.
func (t *TFIDFEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, t.Dimensions())

	counts := map[string]int{}
	peak := 0
	for _, tok := range tokenize(text) {
		counts[tok]++
		peak = max(peak, counts[tok])
	}
	if peak == 0 {
		return vec, nil
	}

	for i, term := range t.terms {
		if c := counts[term]; c > 0 {
			vec[i] = (0.5 + 0.5*float64(c)/float64(peak)) * t.idf[i]
		}
	}
	normalize(vec)
	return vec, nil
}
