package api

import (
	"encoding/json"
	"net/http"

	"biotimeline/pkg/cache"
	"biotimeline/pkg/logging"
	"biotimeline/pkg/tracker"
)

type StatsHandler struct {
	tracker *tracker.Tracker
	cache   *cache.ResultsCache
	feed    *logging.Feed
}

// NewStatsHandler creates a new StatsHandler. c and feed may be nil.
func NewStatsHandler(t *tracker.Tracker, c *cache.ResultsCache, feed *logging.Feed) *StatsHandler {
	return &StatsHandler{
		tracker: t,
		cache:   c,
		feed:    feed,
	}
}

type ProviderStatsDTO struct {
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	APISuccess  int64 `json:"api_success"`
	APIFailures int64 `json:"api_errors"`
	RunSuccess  int64 `json:"runs_ok"`
	RunFailures int64 `json:"runs_failed"`
	EmptyRuns   int64 `json:"runs_empty"`
	HitRate     int64 `json:"hit_rate"`
}

type StatsResponse struct {
	Providers     map[string]ProviderStatsDTO `json:"providers"`
	CachedResults int                         `json:"cached_results"`
	StreamClients int                         `json:"stream_clients"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot := h.tracker.Snapshot()

	resp := StatsResponse{
		Providers: make(map[string]ProviderStatsDTO),
	}
	if h.cache != nil {
		resp.CachedResults = h.cache.Len()
	}
	if h.feed != nil {
		resp.StreamClients = h.feed.Subscribers()
	}

	for key, stats := range snapshot {
		totalCache := stats.CacheHits + stats.CacheMisses
		hitRate := int64(0)
		if totalCache > 0 {
			hitRate = (stats.CacheHits * 100) / totalCache
		}
		resp.Providers[key] = ProviderStatsDTO{
			CacheHits:   stats.CacheHits,
			CacheMisses: stats.CacheMisses,
			APISuccess:  stats.APISuccess,
			APIFailures: stats.APIFailures,
			RunSuccess:  stats.RunSuccess,
			RunFailures: stats.RunFailures,
			EmptyRuns:   stats.EmptyRuns,
			HitRate:     hitRate,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
