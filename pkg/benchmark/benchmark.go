// Package benchmark runs several strategies over one biography and ranks them
// against a reference timeline.
package benchmark

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"biotimeline/pkg/analysis"
	"biotimeline/pkg/config"
	"biotimeline/pkg/model"
	"biotimeline/pkg/scorer"
)

// Runner executes a single strategy.
type Runner interface {
	Run(ctx context.Context, req analysis.Request) (*model.AnalysisResult, error)
}

// CompareRequest is one comparison. Empty Strategies selects every strategy when a
// credential is present and pattern alone otherwise.
type CompareRequest struct {
	Text       string
	Locale     string
	Credential string
	Reference  []model.GoldStandardEvent
	Strategies []string
}

// Entry is the outcome of one strategy.
type Entry struct {
	Strategy model.Strategy          `json:"strategy"`
	Result   *model.AnalysisResult   `json:"result"`
	Report   *model.SimilarityReport `json:"report,omitempty"`
}

// Comparison is the outcome of a comparison. Ranking and Best are empty when no
// reference was supplied.
type Comparison struct {
	Entries   []Entry                  `json:"entries"`
	Ranking   []model.SimilarityReport `json:"ranking,omitempty"`
	Best      *model.SimilarityReport  `json:"best,omitempty"`
	ElapsedMs int64                    `json:"elapsedMs"`
}

// Benchmark fans strategies out over a Runner.
type Benchmark struct {
	runner Runner
	cfg    config.Provider
}

// New creates a Benchmark. cfg may be nil, which runs strategies sequentially.
func New(r Runner, cfg config.Provider) *Benchmark {
	return &Benchmark{runner: r, cfg: cfg}
}

// Compare runs every requested strategy and scores each result. The first failing
// strategy fails the whole comparison.
func (b *Benchmark) Compare(ctx context.Context, req CompareRequest) (*Comparison, error) {
	start := time.Now()
	strategies, err := resolveStrategies(req.Strategies, req.Credential != "")
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(strategies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.parallelism(ctx))

	for i, st := range strategies {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			res, err := b.runner.Run(gctx, analysis.Request{
				Text:       req.Text,
				Strategy:   string(st),
				Credential: req.Credential,
				Locale:     req.Locale,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", st, err)
			}
			entries[i] = Entry{Strategy: st, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Comparison{Entries: entries}
	reference := model.PrepareReference(req.Reference)
	if len(reference) > 0 {
		reports := make([]model.SimilarityReport, len(entries))
		for i := range entries {
			r := scorer.Score(entries[i].Result.Timeline, reference)
			r.Strategy = entries[i].Strategy
			reports[i] = r
			entries[i].Report = &reports[i]
		}
		out.Ranking = scorer.Rank(reports)
		if best, ok := scorer.Best(reports); ok {
			out.Best = &best
		}
	}
	out.ElapsedMs = time.Since(start).Milliseconds()

	if out.Best != nil {
		slog.Info("Comparison completed", "strategies", len(strategies), "best", out.Best.Strategy, "score", out.Best.CombinedScore)
	} else {
		slog.Info("Comparison completed without reference", "strategies", len(strategies))
	}
	return out, nil
}

func (b *Benchmark) parallelism(ctx context.Context) int {
	if b.cfg == nil {
		return 1
	}
	return b.cfg.CompareParallelism(ctx)
}

// resolveStrategies parses, de-duplicates and defaults the requested tags.
func resolveStrategies(tags []string, hasCredential bool) ([]model.Strategy, error) {
	if len(tags) == 0 {
		if hasCredential {
			return append([]model.Strategy(nil), model.Strategies...), nil
		}
		return []model.Strategy{model.StrategyPattern}, nil
	}
	seen := make(map[model.Strategy]bool)
	var out []model.Strategy
	for _, tag := range tags {
		st, err := model.ParseStrategy(tag)
		if err != nil {
			return nil, err
		}
		if !seen[st] {
			seen[st] = true
			out = append(out, st)
		}
	}
	return out, nil
}
