// Package narrative asks an external generative service to write a rich timeline for
// a biography, either from scratch or seeded with a pattern-extracted result.
package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"biotimeline/pkg/llm"
	"biotimeline/pkg/llm/prompts"
	"biotimeline/pkg/logging"
	"biotimeline/pkg/model"
)

// Sampling defaults of the narrative call.
const (
	DefaultTemperature float32 = 0.7
	DefaultMaxTokens           = 4000
	DefaultModel               = "gpt-4o-mini"
)

// Template modes.
const (
	modeStandalone = "standalone"
	modeEnrichment = "enrichment"
)

// Options configures an Expander. Zero values select the defaults.
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// Request is one expansion.
type Request struct {
	Text       string
	Locale     model.Locale
	Credential string
	Model      string                // overrides Options.Model when set
	Seed       *model.AnalysisResult // pattern result; nil selects the standalone template
	MaxSeed    int                   // seed events embedded in the prompt, 0 = all
	RunLog     *logging.RunLog
}

// Expander renders prompts, calls the provider and validates the JSON it returns.
type Expander struct {
	provider llm.Provider
	prompts  *prompts.Manager
	opts     Options
}

// New creates an Expander.
func New(p llm.Provider, pm *prompts.Manager, opts Options) *Expander {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Temperature <= 0 {
		opts.Temperature = DefaultTemperature
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &Expander{provider: p, prompts: pm, opts: opts}
}

// Expand performs exactly one provider call. The returned result carries the
// strategy narrative (no seed) or combined (seed present) and the run's log lines.
func (e *Expander) Expand(ctx context.Context, req Request) (*model.AnalysisResult, error) {
	strategy := model.StrategyNarrative
	mode := modeStandalone
	if req.Seed != nil {
		strategy = model.StrategyCombined
		mode = modeEnrichment
	}
	if req.Credential == "" {
		return nil, &model.MissingCredentialError{Strategy: strategy}
	}
	if req.Locale != model.LocaleItalian && req.Locale != model.LocaleEnglish {
		return nil, &model.UnsupportedLocaleError{Locale: string(req.Locale)}
	}

	logf := func(format string, args ...any) {
		if req.RunLog != nil {
			req.RunLog.Add(format, args...)
		}
	}

	chat, err := e.buildRequest(req, mode, logf)
	if err != nil {
		return nil, err
	}

	logf("Calling %s (%s, %s mode, locale %s)", e.provider.Name(), chat.Model, mode, req.Locale)
	content, err := e.provider.Complete(ctx, req.Credential, chat)
	if err != nil {
		logf("Narrative expansion failed: %v", err)
		return nil, err
	}
	logf("Response received from %s", e.provider.Name())
	logf("Content received: %s...", head(content, 200))

	res, err := e.parse(content, logf)
	if err != nil {
		logf("Narrative expansion failed: %v", err)
		return nil, err
	}
	res.Strategy = strategy
	res.Locale = req.Locale
	logf("Narrative timeline generated with %d events", len(res.Timeline))

	if req.RunLog != nil {
		res.Logs = req.RunLog.Lines()
	}
	return res, nil
}

func (e *Expander) buildRequest(req Request, mode string, logf func(string, ...any)) (llm.ChatRequest, error) {
	data := struct {
		Biography string
		Seed      string
	}{Biography: req.Text}

	if req.Seed != nil {
		total := len(req.Seed.Timeline)
		if req.MaxSeed > 0 && total > req.MaxSeed {
			logf("Seeding %d of %d pattern events", req.MaxSeed, total)
		} else {
			logf("Seeding %d pattern events", total)
		}
		seed, err := marshalSeed(req.Seed, req.MaxSeed)
		if err != nil {
			return llm.ChatRequest{}, fmt.Errorf("failed to serialise seed: %w", err)
		}
		data.Seed = seed
	}

	loc := string(req.Locale)
	prompt, err := e.prompts.Render(loc+"/"+mode+".tmpl", data)
	if err != nil {
		return llm.ChatRequest{}, fmt.Errorf("failed to render %s prompt: %w", mode, err)
	}
	system, err := e.prompts.Render(loc+"/system_"+mode+".tmpl", data)
	if err != nil {
		return llm.ChatRequest{}, fmt.Errorf("failed to render %s system prompt: %w", mode, err)
	}

	modelName := e.opts.Model
	if req.Model != "" {
		modelName = req.Model
	}
	return llm.ChatRequest{
		Name:        mode,
		Model:       modelName,
		System:      system,
		Prompt:      prompt,
		Temperature: e.opts.Temperature,
		MaxTokens:   e.opts.MaxTokens,
	}, nil
}

// parse extracts the JSON object from content and converts it to a result. Events
// without a date or narrative are dropped.
func (e *Expander) parse(content string, logf func(string, ...any)) (*model.AnalysisResult, error) {
	span, ok := llm.ExtractJSONObject(content)
	if !ok {
		return nil, &model.MalformedResponseError{Reason: "no JSON object found in response", Content: content}
	}

	var w wireResult
	if err := json.Unmarshal([]byte(span), &w); err != nil {
		return nil, &model.MalformedResponseError{Reason: "invalid JSON object", Content: span, Err: err}
	}
	if missing := w.missingKeys(); len(missing) > 0 {
		return nil, &model.JSONShapeError{Missing: missing}
	}

	res := &model.AnalysisResult{
		Title: w.Title.trimmed(),
		Summary: model.CharacterSummary{
			BirthDate:  w.Summary.BirthDate.trimmed(),
			DeathDate:  w.Summary.DeathDate.trimmed(),
			Profession: w.Summary.Profession.trimmed(),
			MainPlaces: model.UniqueStrings(flexStrings(w.Summary.MainPlaces)),
			MainPeople: model.UniqueStrings(flexStrings(w.Summary.MainPeople)),
		},
		Timeline: make([]model.TimelineEvent, 0, len(*w.Timeline)),
	}
	for i, ev := range *w.Timeline {
		date, narrative := ev.Date.trimmed(), ev.Event.trimmed()
		if date == "" || narrative == "" {
			logf("Dropped event %s: empty date or narrative", ev.label(i))
			slog.Debug("Dropped incomplete narrative event", "index", i)
			continue
		}
		res.Timeline = append(res.Timeline, model.TimelineEvent{
			Date:      date,
			Title:     ev.Title.trimmed(),
			Narrative: narrative,
		})
	}
	model.SortTimeline(res.Timeline)
	return res, nil
}

func head(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
