// Package locale holds the per-language vocabulary tables used by the date scanner
// and the pattern extractor.
package locale

import (
	"strings"

	"biotimeline/pkg/model"
)

// Profile is the vocabulary of one locale.
type Profile struct {
	Locale          model.Locale
	Months          [12]string
	BirthWords      []string
	DeathWords      []string
	ProfessionWords []string
	DateMarker      string // word preceding a year, e.g. "nel 1867"
	PatternTitle    string
}

var profiles = map[model.Locale]*Profile{
	model.LocaleItalian: {
		Locale: model.LocaleItalian,
		Months: [12]string{
			"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno",
			"luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre",
		},
		BirthWords:      []string{"nasce", "nato"},
		DeathWords:      []string{"muore", "morte"},
		ProfessionWords: []string{"scrittore", "poeta", "filosofo", "pittore", "musicista", "politico"},
		DateMarker:      "nel",
		PatternTitle:    "Timeline estratta con pattern matching",
	},
	model.LocaleEnglish: {
		Locale: model.LocaleEnglish,
		Months: [12]string{
			"January", "February", "March", "April", "May", "June",
			"July", "August", "September", "October", "November", "December",
		},
		BirthWords:      []string{"born", "birth"},
		DeathWords:      []string{"died", "death"},
		ProfessionWords: []string{"writer", "poet", "philosopher", "painter", "musician", "politician"},
		DateMarker:      "in",
		PatternTitle:    "Timeline extracted with pattern matching",
	},
}

// Lookup returns the profile for a locale.
func Lookup(loc model.Locale) (*Profile, error) {
	p, ok := profiles[loc]
	if !ok {
		return nil, &model.UnsupportedLocaleError{Locale: string(loc)}
	}
	return p, nil
}

// Parse normalises a locale tag. Regional tags ("it-IT", "en_US") map to their language.
// An empty tag yields fallback.
func Parse(s string, fallback model.Locale) (model.Locale, error) {
	tag := strings.ToLower(strings.TrimSpace(s))
	if tag == "" {
		tag = string(fallback)
	}
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	loc := model.Locale(tag)
	if _, ok := profiles[loc]; !ok {
		return "", &model.UnsupportedLocaleError{Locale: s}
	}
	return loc, nil
}

// MonthName returns the month name for a 1-based month number.
func (p *Profile) MonthName(month int) (string, bool) {
	if month < 1 || month > 12 {
		return "", false
	}
	return p.Months[month-1], true
}
