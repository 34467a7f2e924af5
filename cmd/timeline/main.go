// Command timeline extracts a biography timeline once and prints it as JSON.
//
//	timeline -in leonardo.txt -strategy combined
//	timeline -sample marie-medium -compare
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"biotimeline/pkg/analysis"
	"biotimeline/pkg/articleproc"
	"biotimeline/pkg/benchmark"
	"biotimeline/pkg/cache"
	"biotimeline/pkg/config"
	"biotimeline/pkg/llm"
	"biotimeline/pkg/llm/prompts"
	"biotimeline/pkg/logging"
	"biotimeline/pkg/model"
	"biotimeline/pkg/narrative"
	"biotimeline/pkg/pattern"
	"biotimeline/pkg/request"
	"biotimeline/pkg/samples"
	"biotimeline/pkg/scorer"
	"biotimeline/pkg/tracker"
)

type options struct {
	configPath string
	in         string
	strategy   string
	locale     string
	key        string
	sample     string
	compare    bool
	text       bool
	verbose    bool
}

// Output is what the command prints for a single run.
type Output struct {
	Result *model.AnalysisResult   `json:"result"`
	Score  *model.SimilarityReport `json:"score,omitempty"`
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "configs/biotimeline.yaml", "Config file; defaults apply when it does not exist")
	flag.StringVar(&opts.in, "in", "", "Biography file (plain text or HTML), - for stdin")
	flag.StringVar(&opts.strategy, "strategy", "pattern", "pattern, narrative or combined")
	flag.StringVar(&opts.locale, "locale", "", "it or en (default from config)")
	flag.StringVar(&opts.key, "key", "", "LLM key (default from config or environment)")
	flag.StringVar(&opts.sample, "sample", "", "Built-in sample: its text is used when -in is empty and its gold standard is scored")
	flag.BoolVar(&opts.compare, "compare", false, "Run every available strategy and rank them")
	flag.BoolVar(&opts.text, "text", false, "Print the timeline as plain text instead of JSON")
	flag.BoolVar(&opts.verbose, "v", false, "Log to stderr")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(context.Background(), opts, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "timeline: %v\n", err)
		var runErr *model.RunError
		if errors.As(err, &runErr) {
			for _, l := range runErr.Logs {
				fmt.Fprintln(os.Stderr, "  "+l)
			}
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdin io.Reader, stdout io.Writer) error {
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	appCfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	text, reference, err := readInput(opts, stdin)
	if err != nil {
		return err
	}
	if opts.locale == "" && opts.sample != "" {
		if s, ok := samples.Get(opts.sample); ok {
			opts.locale = string(s.Locale)
		}
	}

	orch, cfgProv, err := buildOrchestrator(appCfg)
	if err != nil {
		return err
	}
	credential := opts.key
	if credential == "" {
		credential = cfgProv.Credential(ctx)
	}

	if d := cfgProv.RunTimeout(ctx); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	var out any
	if opts.compare {
		cmp, err := benchmark.New(orch, cfgProv).Compare(ctx, benchmark.CompareRequest{
			Text:       text,
			Locale:     opts.locale,
			Credential: credential,
			Reference:  reference,
		})
		if err != nil {
			return err
		}
		out = cmp
	} else {
		res, err := orch.Run(ctx, analysis.Request{
			Text:       text,
			Strategy:   opts.strategy,
			Credential: credential,
			Locale:     opts.locale,
		})
		if err != nil {
			return err
		}
		o := Output{Result: res}
		if len(reference) > 0 {
			report := scorer.Score(res.Timeline, reference)
			report.Strategy = res.Strategy
			o.Score = &report
		}
		if opts.text {
			return writeText(stdout, o)
		}
		out = o
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}

// writeText prints one line per event, then the score when there is one.
func writeText(w io.Writer, o Output) error {
	res := o.Result
	if res.Title != "" {
		if _, err := fmt.Fprintf(w, "%s\n\n", res.Title); err != nil {
			return err
		}
	}
	for _, ev := range res.Timeline {
		if _, err := fmt.Fprintf(w, "%-12s %s\n", ev.Date, ev.DisplayTitle()); err != nil {
			return err
		}
	}
	if o.Score != nil {
		_, err := fmt.Fprintf(w, "\nscore: %.2f\n", o.Score.CombinedScore)
		return err
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err == nil {
		return config.Load(path)
	}
	cfg := config.DefaultConfig()
	if cfg.LLM.Key == "" {
		cfg.LLM.Key = os.Getenv("OPENAI_API_KEY")
	}
	return cfg, nil
}

// readInput returns the biography and, when a sample is named, its gold standard.
func readInput(opts options, stdin io.Reader) (string, []model.GoldStandardEvent, error) {
	var reference []model.GoldStandardEvent
	var text string

	if opts.sample != "" {
		s, ok := samples.Get(opts.sample)
		if !ok {
			return "", nil, fmt.Errorf("unknown sample %q", opts.sample)
		}
		reference = s.GoldStandard
		text = s.Text
	}

	switch opts.in {
	case "":
		if text == "" {
			return "", nil, errors.New("either -in or -sample is required")
		}
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	default:
		data, err := os.ReadFile(opts.in)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read input: %w", err)
		}
		text = string(data)
	}

	prose, err := articleproc.Normalize(text)
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse HTML input: %w", err)
	}
	return strings.TrimSpace(prose), reference, nil
}

func buildOrchestrator(appCfg *config.Config) (*analysis.Orchestrator, config.Provider, error) {
	tr := tracker.New()
	cfgProv := config.NewProvider(appCfg, nil)

	reqClient := request.New(tr, request.Options{
		Retries:       appCfg.Request.Retries,
		Timeout:       appCfg.Request.Timeout.Std(),
		RatePerMinute: appCfg.Request.RatePerMinute,
		BaseDelay:     appCfg.Request.Backoff.BaseDelay.Std(),
		MaxDelay:      appCfg.Request.Backoff.MaxDelay.Std(),
	})
	provider, err := narrative.NewProvider(appCfg.LLM, reqClient, tr, llm.NewHistoryLog(""))
	if err != nil {
		return nil, nil, err
	}
	pm, err := prompts.Default()
	if err != nil {
		return nil, nil, err
	}
	expander := narrative.New(provider, pm, narrative.Options{
		Model:       appCfg.LLM.Model,
		Temperature: appCfg.Narrative.Temperature,
		MaxTokens:   appCfg.Narrative.MaxTokens,
	})
	orch := analysis.New(cfgProv, pattern.NewExtractor(), expander, cache.New(0), tr, logging.NewFeed())
	return orch, cfgProv, nil
}
