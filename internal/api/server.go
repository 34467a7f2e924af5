package api

import (
	"log/slog"
	"net/http"
	"time"

	"biotimeline/pkg/version"
)

// NewServer creates and configures the HTTP server.
// It accepts handlers for all API endpoints and a shutdownFunc for graceful shutdown.
func NewServer(addr string, cfg *ConfigHandler, stats *StatsHandler, cache *CacheHandler, analysis *AnalysisHandler, compare *CompareHandler, refs *ReferenceHandler, stream *StreamHandler, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health Endpoint
	mux.HandleFunc("GET /health", handleHealth)

	// 2. Version Endpoint
	mux.HandleFunc("GET /api/version", handleVersion)

	// 2b. Config Endpoints
	mux.HandleFunc("/api/config", cfg.HandleConfig)

	// 2c. Stats Endpoint
	mux.Handle("GET /api/stats", stats)

	// 2d. Logs Endpoint
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)

	// 2e. Results Cache Endpoints
	mux.HandleFunc("GET /api/cache", cache.HandleList)
	mux.HandleFunc("POST /api/cache/clear", cache.HandleClear)

	// 2f. Analysis Endpoints
	mux.HandleFunc("POST /api/analyze", analysis.HandleAnalyze)
	mux.HandleFunc("POST /api/score", handleScore(refs))
	if compare != nil {
		mux.HandleFunc("POST /api/compare", compare.HandleCompare)
	}

	// 2g. Reference Endpoints
	if refs != nil {
		mux.HandleFunc("GET /api/references", refs.HandleList)
		mux.HandleFunc("POST /api/references", refs.HandleCreate)
		mux.HandleFunc("GET /api/references/{id}", refs.HandleGet)
		mux.HandleFunc("DELETE /api/references/{id}", refs.HandleDelete)
	}

	// 2h. Run Log Stream
	if stream != nil {
		mux.Handle("GET /api/runs/stream", stream)
	}

	// 3. Shutdown Endpoint
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Call shutdown in a goroutine to allow response to flush
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	return &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// analyses are bounded by analysis.run_timeout and the stream stays open
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Get())
}
