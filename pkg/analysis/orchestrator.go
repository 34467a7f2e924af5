// Package analysis runs one extraction strategy over a biography and memoises the result.
package analysis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"biotimeline/pkg/cache"
	"biotimeline/pkg/config"
	"biotimeline/pkg/locale"
	"biotimeline/pkg/logging"
	"biotimeline/pkg/model"
	"biotimeline/pkg/narrative"
	"biotimeline/pkg/pattern"
	"biotimeline/pkg/tracker"
)

// Expander is the narrative stage.
type Expander interface {
	Expand(ctx context.Context, req narrative.Request) (*model.AnalysisResult, error)
}

// Request is one run. Strategy and Locale are raw tags; an empty Locale selects
// the configured default.
type Request struct {
	Text       string
	Strategy   string
	Credential string
	Locale     string
}

// Orchestrator dispatches runs to the pattern and narrative stages.
type Orchestrator struct {
	cfg       config.Provider
	extractor *pattern.Extractor
	expander  Expander
	cache     cache.Cacher
	tracker   *tracker.Tracker
	feed      *logging.Feed
	now       func() time.Time
}

// New creates an Orchestrator. cfg, c, t and feed may be nil.
func New(cfg config.Provider, ext *pattern.Extractor, exp Expander, c cache.Cacher, t *tracker.Tracker, feed *logging.Feed) *Orchestrator {
	if ext == nil {
		ext = pattern.NewExtractor()
	}
	if t == nil {
		t = tracker.New()
	}
	return &Orchestrator{
		cfg:       cfg,
		extractor: ext,
		expander:  exp,
		cache:     c,
		tracker:   t,
		feed:      feed,
		now:       time.Now,
	}
}

// ErrNoExpander means the orchestrator was built without a narrative expander.
var ErrNoExpander = errors.New("narrative expander not configured")

// Run validates the request, serves it from the cache when possible and otherwise
// executes the strategy. Every error is a *model.RunError carrying the run's log trail.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*model.AnalysisResult, error) {
	runID := uuid.NewString()
	runLog := logging.NewRunLog(runID, o.feed)
	runLog.Reset()
	start := o.now()

	strategy, err := model.ParseStrategy(req.Strategy)
	if err != nil {
		return nil, o.fail(model.Strategy(req.Strategy), runLog, err)
	}

	loc, err := locale.Parse(req.Locale, o.defaultLocale(ctx))
	if err != nil {
		return nil, o.fail(strategy, runLog, err)
	}
	runLog.Add("Run started (strategy %s, locale %s, %d characters)", strategy, loc, len([]rune(req.Text)))

	if strategy.NeedsCredential() && req.Credential == "" {
		return nil, o.fail(strategy, runLog, &model.MissingCredentialError{Strategy: strategy})
	}

	key := cache.Key(loc, strategy, req.Text)
	if o.cache != nil {
		if hit, ok := o.cache.Get(key); ok {
			o.tracker.TrackCacheHit("cache")
			runLog.Add("Result served from cache")
			hit.RunID = runID
			hit.FromCache = true
			hit.Logs = runLog.Lines()
			slog.Debug("Analysis cache hit", "run_id", runID, "strategy", strategy)
			return hit, nil
		}
		o.tracker.TrackCacheMiss("cache")
	}

	res, err := o.execute(ctx, strategy, loc, req, runLog)
	if err != nil {
		return nil, o.fail(strategy, runLog, err)
	}

	elapsed := o.now().Sub(start).Milliseconds()
	runLog.Add("Analysis completed in %d ms with %d events", elapsed, len(res.Timeline))
	res.RunID = runID
	res.GenerationTimeMs = elapsed
	res.Logs = runLog.Lines()

	if o.cache != nil {
		o.cache.Set(key, res)
	}
	o.tracker.TrackRunSuccess(string(strategy))
	if len(res.Timeline) == 0 {
		o.tracker.TrackEmptyRun(string(strategy))
	}
	slog.Info("Analysis completed", "run_id", runID, "strategy", strategy, "locale", loc, "events", len(res.Timeline), "ms", elapsed)
	return res, nil
}

func (o *Orchestrator) execute(ctx context.Context, strategy model.Strategy, loc model.Locale, req Request, runLog *logging.RunLog) (*model.AnalysisResult, error) {
	switch strategy {
	case model.StrategyPattern:
		return o.extractor.Extract(req.Text, loc, runLog)

	case model.StrategyNarrative:
		return o.expand(ctx, req, loc, nil, runLog)

	case model.StrategyCombined:
		seed, err := o.extractor.Extract(req.Text, loc, runLog)
		if err != nil {
			return nil, err
		}
		runLog.Add("Pattern stage completed, enriching %d events", len(seed.Timeline))
		return o.expand(ctx, req, loc, seed, runLog)
	}
	return nil, &model.UnsupportedStrategyError{Strategy: string(strategy)}
}

func (o *Orchestrator) expand(ctx context.Context, req Request, loc model.Locale, seed *model.AnalysisResult, runLog *logging.RunLog) (*model.AnalysisResult, error) {
	if o.expander == nil {
		return nil, ErrNoExpander
	}
	nreq := narrative.Request{
		Text:       req.Text,
		Locale:     loc,
		Credential: req.Credential,
		Seed:       seed,
		RunLog:     runLog,
	}
	if o.cfg != nil {
		nreq.Model = o.cfg.Model(ctx)
		nreq.MaxSeed = o.cfg.MaxSeedEvents(ctx)
	}
	return o.expander.Expand(ctx, nreq)
}

func (o *Orchestrator) fail(strategy model.Strategy, runLog *logging.RunLog, err error) error {
	runLog.Add("Run failed: %v", err)
	key := string(strategy)
	if _, perr := model.ParseStrategy(key); perr != nil {
		key = "unknown"
	}
	o.tracker.TrackRunFailure(key)
	slog.Warn("Analysis failed", "run_id", runLog.RunID(), "strategy", strategy, "error", err)
	return &model.RunError{Strategy: strategy, Logs: runLog.Lines(), Err: err}
}

func (o *Orchestrator) defaultLocale(ctx context.Context) model.Locale {
	if o.cfg == nil {
		return model.LocaleItalian
	}
	return model.Locale(o.cfg.DefaultLocale(ctx))
}
