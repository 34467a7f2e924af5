package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"biotimeline/internal/api"
	"biotimeline/pkg/analysis"
	"biotimeline/pkg/benchmark"
	"biotimeline/pkg/cache"
	"biotimeline/pkg/config"
	"biotimeline/pkg/db"
	"biotimeline/pkg/db/maintenance"
	"biotimeline/pkg/llm"
	"biotimeline/pkg/llm/prompts"
	"biotimeline/pkg/logging"
	"biotimeline/pkg/narrative"
	"biotimeline/pkg/pattern"
	"biotimeline/pkg/probe"
	"biotimeline/pkg/request"
	"biotimeline/pkg/store"
	"biotimeline/pkg/tracker"
	"biotimeline/pkg/version"
	"biotimeline/pkg/watcher"
)

const (
	defaultConfigPath      = "configs/biotimeline.yaml"
	referencesPollInterval = 30 * time.Second
)

var (
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
	configPath = flag.String("config", defaultConfigPath, "Path to the config file")
)

func main() {
	flag.Parse()

	// Optional .env with OPENAI_API_KEY / GEMINI_API_KEY
	_ = godotenv.Load()

	// Handle --init-config flag
	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated:", *configPath)
		return
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("Biotimeline Started", "version", version.Version, "llm", appCfg.LLM.Provider, "model", appCfg.LLM.Model)

	dbConn, st, err := initDB(appCfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := maintenance.Run(ctx, st, appCfg.DB.ReferencesCSV); err != nil {
		slog.Error("Maintenance tasks failed", "error", err)
	}

	tr := tracker.New()
	svcs, err := initServices(appCfg, st, tr)
	if err != nil {
		return err
	}

	probes := []probe.Probe{
		{Name: "Reference store", Check: probe.References(st), Critical: true},
		{Name: "Prompt templates", Check: probe.Templates(svcs.Prompts), Critical: true},
		{Name: "LLM key", Check: probe.Credential(svcs.Config)},
	}
	if err := probe.AnalyzeResults(probe.Run(ctx, probes)); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	if appCfg.DB.ReferencesCSV != "" {
		w := watcher.NewService(appCfg.DB.ReferencesCSV)
		go w.Start(ctx, referencesPollInterval, func(ctx context.Context, path string) {
			if err := maintenance.Run(ctx, st, path); err != nil {
				slog.Error("Reference re-import failed", "error", err)
			}
		})
	}

	return runServer(ctx, appCfg, svcs, st, tr)
}

func initDB(appCfg *config.Config) (*db.DB, store.Store, error) {
	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return dbConn, store.NewSQLiteStore(dbConn), nil
}

// Services holds the analysis stack shared by the HTTP handlers.
type Services struct {
	Config       config.Provider
	Cache        *cache.ResultsCache
	Feed         *logging.Feed
	Prompts      *prompts.Manager
	Orchestrator *analysis.Orchestrator
	Benchmark    *benchmark.Benchmark
}

func initServices(appCfg *config.Config, st store.Store, tr *tracker.Tracker) (*Services, error) {
	cfgProv := config.NewProvider(appCfg, st)

	reqClient := request.New(tr, request.Options{
		Retries:       appCfg.Request.Retries,
		Timeout:       appCfg.Request.Timeout.Std(),
		RatePerMinute: appCfg.Request.RatePerMinute,
		BaseDelay:     appCfg.Request.Backoff.BaseDelay.Std(),
		MaxDelay:      appCfg.Request.Backoff.MaxDelay.Std(),
	})

	provider, err := narrative.NewProvider(appCfg.LLM, reqClient, tr, llm.NewHistoryLog(appCfg.Log.History.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm provider: %w", err)
	}

	promptMgr, err := prompts.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}

	expander := narrative.New(provider, promptMgr, narrative.Options{
		Model:       appCfg.LLM.Model,
		Temperature: appCfg.Narrative.Temperature,
		MaxTokens:   appCfg.Narrative.MaxTokens,
	})

	resultsCache := cache.New(appCfg.Analysis.CacheSize)
	feed := logging.NewFeed()
	orch := analysis.New(cfgProv, pattern.NewExtractor(), expander, resultsCache, tr, feed)

	return &Services{
		Config:       cfgProv,
		Cache:        resultsCache,
		Feed:         feed,
		Prompts:      promptMgr,
		Orchestrator: orch,
		Benchmark:    benchmark.New(orch, cfgProv),
	}, nil
}

func runServer(ctx context.Context, cfg *config.Config, svcs *Services, st store.Store, tr *tracker.Tracker) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(cfg.Server.Address,
		api.NewConfigHandler(st, svcs.Config),
		api.NewStatsHandler(tr, svcs.Cache, svcs.Feed),
		api.NewCacheHandler(svcs.Cache),
		api.NewAnalysisHandler(svcs.Orchestrator, svcs.Config),
		api.NewCompareHandler(svcs.Benchmark, st, svcs.Config),
		api.NewReferenceHandler(st),
		api.NewStreamHandler(svcs.Feed),
		shutdownFunc,
	)

	srv.Handler = loggingMiddleware(srv.Handler)
	return runServerLifecycle(ctx, srv, quit)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if logging.RequestLogger != nil {
			logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		}
	})
}
