// Package cache memoises analysis results for the lifetime of the process.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"biotimeline/pkg/model"
)

// DefaultSize is the default number of results kept before the oldest is evicted.
const DefaultSize = 128

// Cacher defines the caching interface used by the orchestrator.
type Cacher interface {
	Get(key string) (*model.AnalysisResult, bool)
	Set(key string, r *model.AnalysisResult)
}

// Key derives the cache key of a run from its locale, strategy and full text.
func Key(loc model.Locale, strategy model.Strategy, text string) string {
	h := sha256.New()
	h.Write([]byte(loc))
	h.Write([]byte{0})
	h.Write([]byte(strategy))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Entry describes one cached result without its payload.
type Entry struct {
	Key      string         `json:"key"`
	Strategy model.Strategy `json:"strategy"`
	Locale   model.Locale   `json:"locale"`
	Title    string         `json:"title"`
	Events   int            `json:"events"`
	StoredAt time.Time      `json:"storedAt"`
}

type item struct {
	result   *model.AnalysisResult
	storedAt time.Time
}

// ResultsCache is a bounded in-memory map with FIFO eviction. Stored and returned
// results are deep copies. The last writer wins for a key.
type ResultsCache struct {
	mu    sync.Mutex
	size  int
	items map[string]item
	order []string // insertion order, oldest first
	now   func() time.Time
}

// New creates a cache holding at most size results; size 0 means unbounded.
func New(size int) *ResultsCache {
	if size < 0 {
		size = 0
	}
	return &ResultsCache{
		size:  size,
		items: make(map[string]item),
		now:   time.Now,
	}
}

// Get returns a copy of the cached result for key.
func (c *ResultsCache) Get(key string) (*model.AnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[key]
	if !ok {
		return nil, false
	}
	return it.result.Clone(), true
}

// Set stores a copy of r under key, evicting the oldest entries when full.
func (c *ResultsCache) Set(key string, r *model.AnalysisResult) {
	if r == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists {
		c.order = append(c.order, key)
	}
	c.items[key] = item{result: r.Clone(), storedAt: c.now()}

	for c.size > 0 && len(c.order) > c.size {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
}

// Len returns the number of cached results.
func (c *ResultsCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear drops every cached result.
func (c *ResultsCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]item)
	c.order = nil
}

// Entries lists the cached results, oldest first.
func (c *ResultsCache) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, 0, len(c.order))
	for _, k := range c.order {
		it := c.items[k]
		out = append(out, Entry{
			Key:      k,
			Strategy: it.result.Strategy,
			Locale:   it.result.Locale,
			Title:    it.result.Title,
			Events:   len(it.result.Timeline),
			StoredAt: it.storedAt,
		})
	}
	return out
}
