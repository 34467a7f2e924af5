// Package pattern builds a baseline timeline from surface date patterns only.
// It never touches the network and is deterministic for a given text and locale.
package pattern

import (
	"biotimeline/pkg/locale"
	"biotimeline/pkg/logging"
	"biotimeline/pkg/model"
	"biotimeline/pkg/scanner"
)

// Extractor turns scanner output into an AnalysisResult. It is safe for concurrent use.
type Extractor struct {
	scanners map[model.Locale]*scanner.Scanner
	profiles map[model.Locale]*locale.Profile
}

// NewExtractor compiles scanners for every supported locale.
func NewExtractor() *Extractor {
	e := &Extractor{
		scanners: make(map[model.Locale]*scanner.Scanner),
		profiles: make(map[model.Locale]*locale.Profile),
	}
	for _, loc := range []model.Locale{model.LocaleItalian, model.LocaleEnglish} {
		p, err := locale.Lookup(loc)
		if err != nil {
			continue
		}
		e.profiles[loc] = p
		e.scanners[loc] = scanner.New(p)
	}
	return e
}

// Extract scans text and returns a pattern-strategy result. runLog may be nil.
// The only error is an unsupported locale.
func (e *Extractor) Extract(text string, loc model.Locale, runLog *logging.RunLog) (*model.AnalysisResult, error) {
	sc, ok := e.scanners[loc]
	if !ok {
		return nil, &model.UnsupportedLocaleError{Locale: string(loc)}
	}
	logf := func(format string, args ...any) {
		if runLog != nil {
			runLog.Add(format, args...)
		}
	}

	logf("Starting pattern extraction (locale %s, %d characters)", loc, len([]rune(text)))

	res := sc.Scan(text)
	timeline := res.Events
	if timeline == nil {
		timeline = []model.TimelineEvent{}
	}
	model.SortTimeline(timeline)

	logf("Pattern extraction found %d events", len(timeline))
	if res.BirthDate != "" {
		logf("Birth date: %s", res.BirthDate)
	}
	if res.DeathDate != "" {
		logf("Death date: %s", res.DeathDate)
	}
	if res.Profession != "" {
		logf("Profession: %s", res.Profession)
	}

	out := &model.AnalysisResult{
		Title:    e.profiles[loc].PatternTitle,
		Strategy: model.StrategyPattern,
		Locale:   loc,
		Summary: model.CharacterSummary{
			BirthDate:  res.BirthDate,
			DeathDate:  res.DeathDate,
			Profession: res.Profession,
		},
		Timeline: timeline,
	}
	if runLog != nil {
		out.Logs = runLog.Lines()
	}
	return out, nil
}
