// Package scorer measures how much of a reference timeline's vocabulary a generated
// timeline reproduces. The four scores are word-overlap analogues of BLEU, ROUGE-1,
// ROUGE-2 and ROUGE-L; they are not the real metrics.
package scorer

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"biotimeline/pkg/model"
)

// minTokenLen is the shortest token that counts; shorter tokens are discarded.
const minTokenLen = 3

// Weights applied to precision and recall (as percentages).
const (
	ngram1OverlapWeight  = 0.8
	ngram1RecallWeight   = 0.9
	ngram2OverlapWeight  = 0.7
	orderedOverlapWeight = 0.85
)

// Score compares a generated timeline against reference events.
// An empty generated timeline scores 0 everywhere. An empty reference zeroes recall
// only, so the precision-driven terms still count.
func Score(generated []model.TimelineEvent, reference []model.GoldStandardEvent) model.SimilarityReport {
	gen := make([]string, len(generated))
	for i, e := range generated {
		gen[i] = e.Narrative
	}
	ref := make([]string, len(reference))
	for i, e := range reference {
		ref[i] = e.Description
	}
	return ScoreTexts(gen, ref)
}

// ScoreTexts compares generated narratives against reference descriptions.
func ScoreTexts(generated, reference []string) model.SimilarityReport {
	genTokens := tokenize(generated)
	refTokens := tokenize(reference)

	refSet := make(map[string]struct{}, len(refTokens))
	for _, t := range refTokens {
		refSet[t] = struct{}{}
	}
	overlap := 0
	for _, t := range genTokens {
		if _, ok := refSet[t]; ok {
			overlap++
		}
	}

	var precision, recall float64
	if len(genTokens) > 0 {
		precision = float64(overlap) / float64(len(genTokens)) * 100
	}
	if len(refTokens) > 0 {
		recall = float64(overlap) / float64(len(refTokens)) * 100
	}

	n1 := math.Min(precision*ngram1OverlapWeight, 100)
	r1 := math.Min(recall*ngram1RecallWeight, 100)
	n2 := math.Min((precision+recall)/2*ngram2OverlapWeight, 100)
	lo := math.Min((precision+recall)/2*orderedOverlapWeight, 100)

	return model.SimilarityReport{
		NGram1Overlap:   round1(n1),
		NGram1Recall:    round1(r1),
		NGram2Overlap:   round1(n2),
		OrderedOverlap:  round1(lo),
		CombinedScore:   round1((n1 + r1 + n2 + lo) / 4),
		OverlapCount:    overlap,
		GeneratedTokens: len(genTokens),
		ReferenceTokens: len(refTokens),
	}
}

// tokenize joins the texts, lowercases them and splits on whitespace, keeping
// tokens of at least minTokenLen runes. Punctuation stays attached.
func tokenize(texts []string) []string {
	joined := strings.ToLower(strings.Join(texts, " "))
	var out []string
	for _, f := range strings.Fields(joined) {
		if utf8.RuneCountInString(f) >= minTokenLen {
			out = append(out, f)
		}
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Rank orders reports by CombinedScore descending. Ties keep their input order.
// The input slice is not modified.
func Rank(reports []model.SimilarityReport) []model.SimilarityReport {
	out := make([]model.SimilarityReport, len(reports))
	copy(out, reports)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CombinedScore > out[j].CombinedScore
	})
	return out
}

// Best returns the highest-ranked report. It returns false for an empty input.
func Best(reports []model.SimilarityReport) (model.SimilarityReport, bool) {
	if len(reports) == 0 {
		return model.SimilarityReport{}, false
	}
	return Rank(reports)[0], true
}
