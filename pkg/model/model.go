package model

import (
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Locale identifies the language of the biography and of the generated output.
type Locale string

const (
	LocaleItalian Locale = "it"
	LocaleEnglish Locale = "en"
)

// Strategy identifies which component(s) produced an AnalysisResult.
type Strategy string

const (
	StrategyPattern   Strategy = "pattern"   // surface patterns only, no network
	StrategyNarrative Strategy = "narrative" // external generative service only
	StrategyCombined  Strategy = "combined"  // pattern stage seeded into the generative service
)

// Strategies lists every supported strategy in canonical order.
var Strategies = []Strategy{StrategyPattern, StrategyNarrative, StrategyCombined}

// strategyAliases maps the legacy method names of the web UI to strategies.
var strategyAliases = map[string]Strategy{
	"pattern":   StrategyPattern,
	"spacy":     StrategyPattern,
	"narrative": StrategyNarrative,
	"llm":       StrategyNarrative,
	"combined":  StrategyCombined,
	"hybrid":    StrategyCombined,
}

// ParseStrategy resolves a strategy tag (canonical or legacy alias).
func ParseStrategy(s string) (Strategy, error) {
	if st, ok := strategyAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return st, nil
	}
	return "", &UnsupportedStrategyError{Strategy: s}
}

// NeedsCredential reports whether the strategy calls the external generative service.
func (s Strategy) NeedsCredential() bool {
	return s == StrategyNarrative || s == StrategyCombined
}

// Event kinds assigned by the scanner.
const (
	KindBirth = "birth"
	KindDeath = "death"
)

// TimelineEvent is a single dated entry of a biography timeline.
type TimelineEvent struct {
	Date      string `json:"date"`
	Title     string `json:"title,omitempty"`
	Narrative string `json:"narrative"`
	Kind      string `json:"kind,omitempty"`
}

// DisplayTitle returns the title, or the first sentence of the narrative when no
// title was produced.
func (e TimelineEvent) DisplayTitle() string {
	if t := strings.TrimSpace(e.Title); t != "" {
		return t
	}
	n := strings.TrimSpace(e.Narrative)
	if i := strings.IndexAny(n, ".!?"); i > 0 {
		n = n[:i]
	}
	const maxTitle = 80
	if r := []rune(n); len(r) > maxTitle {
		n = strings.TrimSpace(string(r[:maxTitle])) + "..."
	}
	return n
}

// CharacterSummary holds the headline facts about the subject of the biography.
type CharacterSummary struct {
	BirthDate  string   `json:"birthDate,omitempty"`
	DeathDate  string   `json:"deathDate,omitempty"`
	Profession string   `json:"profession,omitempty"`
	MainPlaces []string `json:"mainPlaces,omitempty"`
	MainPeople []string `json:"mainPeople,omitempty"`
}

// AnalysisResult is the root aggregate returned for every extraction run.
type AnalysisResult struct {
	RunID            string           `json:"runId"`
	Title            string           `json:"title"`
	Strategy         Strategy         `json:"strategy"`
	Locale           Locale           `json:"locale"`
	Summary          CharacterSummary `json:"summary"`
	Timeline         []TimelineEvent  `json:"timeline"`
	Logs             []string         `json:"logs"`
	GenerationTimeMs int64            `json:"generationTimeMs"`
	FromCache        bool             `json:"fromCache,omitempty"`
}

// Clone returns a deep copy so cached and live results never share slices.
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Summary.MainPlaces = cloneStrings(r.Summary.MainPlaces)
	c.Summary.MainPeople = cloneStrings(r.Summary.MainPeople)
	c.Logs = cloneStrings(r.Logs)
	if r.Timeline != nil {
		c.Timeline = make([]TimelineEvent, len(r.Timeline))
		copy(c.Timeline, r.Timeline)
	}
	return &c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// UniqueStrings trims, drops empties and removes duplicates keeping first occurrence.
func UniqueStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// SortKey is the ordering key of a date label: the integer formed by every digit of
// the label, concatenated. "12/3/1867" sorts as 1231867, not as 1867.
// Labels without digits sort first.
func SortKey(date string) int64 {
	var b strings.Builder
	for _, r := range date {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		// digit runs longer than int64 go last
		return 1<<63 - 1
	}
	return n
}

// SortTimeline orders events ascending by SortKey, preserving extraction order on ties.
func SortTimeline(events []TimelineEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return SortKey(events[i].Date) < SortKey(events[j].Date)
	})
}

// GoldStandardEvent is one entry of a reference timeline used for scoring.
type GoldStandardEvent struct {
	Date        string `json:"date" yaml:"date"`
	Year        int    `json:"year" yaml:"year"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// LeadingYear parses the leading integer of a date label ("1867", "1867 circa").
// It returns false when the label does not start with digits.
func LeadingYear(date string) (int, bool) {
	s := strings.TrimLeftFunc(date, unicode.IsSpace)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// PrepareReference readies reference events for scoring: dates are trimmed and Year is
// derived where the date starts with a number. Nothing is dropped; only descriptions are
// scored, so title-less events count in full.
func PrepareReference(events []GoldStandardEvent) []GoldStandardEvent {
	out := make([]GoldStandardEvent, len(events))
	for i, e := range events {
		e.Date = strings.TrimSpace(e.Date)
		if y, ok := LeadingYear(e.Date); ok {
			e.Year = y
		}
		out[i] = e
	}
	return out
}

// NormalizeGoldStandard keeps the events that have both a title and a date and derives
// Year from the date when it starts with a number. It applies when a reference is saved.
func NormalizeGoldStandard(events []GoldStandardEvent) []GoldStandardEvent {
	out := make([]GoldStandardEvent, 0, len(events))
	for _, e := range events {
		e.Date = strings.TrimSpace(e.Date)
		e.Title = strings.TrimSpace(e.Title)
		if e.Date == "" || e.Title == "" {
			continue
		}
		if y, ok := LeadingYear(e.Date); ok {
			e.Year = y
		}
		out = append(out, e)
	}
	return out
}

// SimilarityReport scores one generated timeline against a reference timeline.
// NGram1Overlap, NGram1Recall, NGram2Overlap and OrderedOverlap are the BLEU,
// ROUGE-1, ROUGE-2 and ROUGE-L analogues; all values are in [0,100].
type SimilarityReport struct {
	Strategy        Strategy `json:"strategy,omitempty"`
	NGram1Overlap   float64  `json:"ngram1Overlap"`
	NGram1Recall    float64  `json:"ngram1Recall"`
	NGram2Overlap   float64  `json:"ngram2Overlap"`
	OrderedOverlap  float64  `json:"orderedOverlap"`
	CombinedScore   float64  `json:"combinedScore"`
	OverlapCount    int      `json:"overlapCount"`
	GeneratedTokens int      `json:"generatedTokens"`
	ReferenceTokens int      `json:"referenceTokens"`
}

// Reference is a stored gold-standard timeline together with the biography it describes.
type Reference struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Locale    Locale              `json:"locale"`
	Biography string              `json:"biography,omitempty"`
	Events    []GoldStandardEvent `json:"events"`
	Builtin   bool                `json:"builtin"`
	Source    string              `json:"source,omitempty"` // import origin, e.g. "csv"
	CreatedAt time.Time           `json:"createdAt"`
}
