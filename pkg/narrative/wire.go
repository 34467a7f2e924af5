package narrative

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"biotimeline/pkg/model"
)

// wireResult is the JSON shape the model is instructed to produce. The field names
// are fixed by the prompt examples.
type wireResult struct {
	Title    flexString   `json:"title"`
	Summary  *wireSummary `json:"summary"`
	Timeline *[]wireEvent `json:"timeline"`
}

type wireSummary struct {
	BirthDate  flexString   `json:"dataNascita,omitempty"`
	DeathDate  flexString   `json:"dataMorte,omitempty"`
	Profession flexString   `json:"professione,omitempty"`
	MainPlaces []flexString `json:"luoghiPrincipali,omitempty"`
	MainPeople []flexString `json:"personaggiPrincipali,omitempty"`
}

type wireEvent struct {
	Date  flexString `json:"date"`
	Title flexString `json:"title,omitempty"`
	Event flexString `json:"event"`
}

// flexString accepts JSON strings, numbers and null. Models often emit bare years.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) trimmed() string { return strings.TrimSpace(string(f)) }

func flexStrings(in []flexString) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

// toWire renders a result in the prompt's JSON shape, keeping at most maxEvents
// timeline entries (0 keeps all).
func toWire(r *model.AnalysisResult, maxEvents int) wireResult {
	events := r.Timeline
	if maxEvents > 0 && len(events) > maxEvents {
		events = events[:maxEvents]
	}
	timeline := make([]wireEvent, len(events))
	for i, e := range events {
		timeline[i] = wireEvent{Date: flexString(e.Date), Title: flexString(e.Title), Event: flexString(e.Narrative)}
	}
	s := &wireSummary{
		BirthDate:  flexString(r.Summary.BirthDate),
		DeathDate:  flexString(r.Summary.DeathDate),
		Profession: flexString(r.Summary.Profession),
	}
	for _, p := range r.Summary.MainPlaces {
		s.MainPlaces = append(s.MainPlaces, flexString(p))
	}
	for _, p := range r.Summary.MainPeople {
		s.MainPeople = append(s.MainPeople, flexString(p))
	}
	return wireResult{Title: flexString(r.Title), Summary: s, Timeline: &timeline}
}

// marshalSeed renders the seed as indented JSON.
func marshalSeed(r *model.AnalysisResult, maxEvents int) (string, error) {
	b, err := json.MarshalIndent(toWire(r, maxEvents), "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// missingKeys lists the required top-level keys absent from w.
func (w *wireResult) missingKeys() []string {
	var missing []string
	if w.Summary == nil {
		missing = append(missing, "summary")
	}
	if w.Timeline == nil {
		missing = append(missing, "timeline")
	}
	return missing
}

// label names an event in run logs.
func (e wireEvent) label(i int) string {
	if d := e.Date.trimmed(); d != "" {
		return d
	}
	return "#" + strconv.Itoa(i+1)
}
