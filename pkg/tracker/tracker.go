package tracker

import (
	"sync"
	"sync/atomic"
)

// Tracker tracks usage statistics per key. Keys are provider names ("openai",
// "gemini"), strategy names ("pattern", "narrative", "combined") or "cache".
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*Stats
}

// Stats holds the counters for one key.
// Fields are accessed atomically.
type Stats struct {
	CacheHits   int64 `json:"cacheHits"`
	CacheMisses int64 `json:"cacheMisses"`
	APISuccess  int64 `json:"apiSuccess"`
	APIFailures int64 `json:"apiFailures"`
	RunSuccess  int64 `json:"runSuccess"`
	RunFailures int64 `json:"runFailures"`
	EmptyRuns   int64 `json:"emptyRuns"`
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*Stats),
	}
}

// getStats returns the stats object for a key, creating it if needed.
func (t *Tracker) getStats(key string) *Stats {
	t.mu.RLock()
	s, ok := t.stats[key]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Double check
	if s, ok = t.stats[key]; ok {
		return s
	}
	s = &Stats{}
	t.stats[key] = s
	return s
}

// TrackCacheHit increments the cache hit counter.
func (t *Tracker) TrackCacheHit(key string) {
	atomic.AddInt64(&t.getStats(key).CacheHits, 1)
}

func (t *Tracker) TrackCacheMiss(key string) {
	atomic.AddInt64(&t.getStats(key).CacheMisses, 1)
}

func (t *Tracker) TrackAPISuccess(provider string) {
	atomic.AddInt64(&t.getStats(provider).APISuccess, 1)
}

func (t *Tracker) TrackAPIFailure(provider string) {
	atomic.AddInt64(&t.getStats(provider).APIFailures, 1)
}

func (t *Tracker) TrackRunSuccess(strategy string) {
	atomic.AddInt64(&t.getStats(strategy).RunSuccess, 1)
}

func (t *Tracker) TrackRunFailure(strategy string) {
	atomic.AddInt64(&t.getStats(strategy).RunFailures, 1)
}

// TrackEmptyRun counts successful runs that produced no events.
func (t *Tracker) TrackEmptyRun(strategy string) {
	atomic.AddInt64(&t.getStats(strategy).EmptyRuns, 1)
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() map[string]Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]Stats)
	for k, v := range t.stats {
		result[k] = Stats{
			CacheHits:   atomic.LoadInt64(&v.CacheHits),
			CacheMisses: atomic.LoadInt64(&v.CacheMisses),
			APISuccess:  atomic.LoadInt64(&v.APISuccess),
			APIFailures: atomic.LoadInt64(&v.APIFailures),
			RunSuccess:  atomic.LoadInt64(&v.RunSuccess),
			RunFailures: atomic.LoadInt64(&v.RunFailures),
			EmptyRuns:   atomic.LoadInt64(&v.EmptyRuns),
		}
	}
	return result
}
