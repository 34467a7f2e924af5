// Package scanner finds date expressions in biography text and classifies the
// sentences around them into birth, death and other life events.
package scanner

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"biotimeline/pkg/locale"
	"biotimeline/pkg/model"
)

// Result is the raw output of one scan, in text order.
type Result struct {
	Events     []model.TimelineEvent
	BirthDate  string
	DeathDate  string
	Profession string
}

// Scanner holds the compiled patterns for one locale. It is safe for concurrent use.
type Scanner struct {
	profile    *locale.Profile
	datePat    *regexp.Regexp
	profPat    *regexp.Regexp
	birthWords []string
	deathWords []string
}

// Capture groups of datePat, in alternative order.
const (
	groupISO = iota + 1
	groupDMY
	groupMarkerMonthYear
	groupMarkerYear
	groupYear
)

var sentenceEnd = regexp.MustCompile(`[.!?]\s+`)

// New compiles a scanner for the given locale profile.
func New(p *locale.Profile) *Scanner {
	marker := regexp.QuoteMeta(p.DateMarker)
	// Alternatives are tried left to right at the leftmost matching position,
	// so ISO must precede the bare year.
	datePat := regexp.MustCompile(`(?i)(\d{4}-\d{2})\b` +
		`|(\d{1,2}/\d{1,2}/\d{4})` +
		`|\b` + marker + `\s+(\d{1,2}/\d{4})` +
		`|\b` + marker + `\s+(\d{4})` +
		`|(\d{4})`)

	words := make([]string, len(p.ProfessionWords))
	for i, w := range p.ProfessionWords {
		words[i] = regexp.QuoteMeta(w)
	}
	profPat := regexp.MustCompile(`(?i)(` + strings.Join(words, "|") + `)`)

	return &Scanner{
		profile:    p,
		datePat:    datePat,
		profPat:    profPat,
		birthWords: lowerAll(p.BirthWords),
		deathWords: lowerAll(p.DeathWords),
	}
}

// Scan extracts candidate events from text. A text without any date yields an empty
// Result; that is not an error.
func (s *Scanner) Scan(text string) Result {
	var res Result
	for _, seg := range Segments(text) {
		if res.Profession == "" {
			if m := s.profPat.FindString(seg); m != "" {
				res.Profession = m
			}
		}

		date, ok := s.matchDate(seg)
		if !ok {
			continue
		}

		ev := model.TimelineEvent{Date: date, Narrative: seg}
		lower := strings.ToLower(seg)
		isBirth := containsAny(lower, s.birthWords)
		isDeath := containsAny(lower, s.deathWords)
		switch {
		case isBirth:
			ev.Kind = model.KindBirth
		case isDeath:
			ev.Kind = model.KindDeath
		}
		if isBirth && res.BirthDate == "" {
			res.BirthDate = date
		}
		if isDeath && res.DeathDate == "" {
			res.DeathDate = date
		}
		res.Events = append(res.Events, ev)
	}
	return res
}

// matchDate returns the normalised first date expression of a segment.
func (s *Scanner) matchDate(seg string) (string, bool) {
	m := s.datePat.FindStringSubmatch(seg)
	if m == nil {
		return "", false
	}
	if iso := m[groupISO]; iso != "" {
		return s.NormalizeISO(iso), true
	}
	for _, g := range []int{groupDMY, groupMarkerMonthYear, groupMarkerYear, groupYear} {
		if v := strings.TrimSpace(m[g]); v != "" {
			return v, true
		}
	}
	return "", false
}

// NormalizeISO turns "YYYY-MM" into "<month> <year>" using the locale's month table.
// Anything else, including an out-of-range month, is returned unchanged.
func (s *Scanner) NormalizeISO(iso string) string {
	year, month, ok := strings.Cut(iso, "-")
	if !ok || len(year) != 4 {
		return iso
	}
	n, err := strconv.Atoi(month)
	if err != nil {
		return iso
	}
	name, ok := s.profile.MonthName(n)
	if !ok {
		return iso
	}
	return name + " " + year
}

// Segments splits text into trimmed, non-empty lines and each line into sentences.
func Segments(text string) []string {
	text = norm.NFC.String(text)
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		start := 0
		for _, loc := range sentenceEnd.FindAllStringIndex(line, -1) {
			// keep the terminator with its sentence
			if seg := strings.TrimSpace(line[start : loc[0]+1]); seg != "" {
				out = append(out, seg)
			}
			start = loc[1]
		}
		if seg := strings.TrimSpace(line[start:]); seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
