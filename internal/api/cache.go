package api

import (
	"log/slog"
	"net/http"

	"biotimeline/pkg/cache"
)

// CacheHandler exposes the in-memory results cache.
type CacheHandler struct {
	cache *cache.ResultsCache
}

// NewCacheHandler creates a new CacheHandler.
func NewCacheHandler(c *cache.ResultsCache) *CacheHandler {
	return &CacheHandler{cache: c}
}

// CacheResponse lists the cached results, oldest first.
type CacheResponse struct {
	Count   int           `json:"count"`
	Entries []cache.Entry `json:"entries"`
}

// HandleList returns the cached results without their payloads.
func (h *CacheHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	entries := h.cache.Entries()
	writeJSON(w, http.StatusOK, CacheResponse{Count: len(entries), Entries: entries})
}

// HandleClear drops every cached result.
func (h *CacheHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	n := h.cache.Len()
	h.cache.Clear()
	slog.Info("Results cache cleared", "entries", n)
	writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
}
