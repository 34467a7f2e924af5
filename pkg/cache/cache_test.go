package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biotimeline/pkg/model"
)

func result(title string) *model.AnalysisResult {
	return &model.AnalysisResult{
		Title:    title,
		Strategy: model.StrategyPattern,
		Locale:   model.LocaleItalian,
		Timeline: []model.TimelineEvent{{Date: "1452", Narrative: "Nasce a Vinci."}},
		Logs:     []string{"line"},
	}
}

func TestKey(t *testing.T) {
	base := Key(model.LocaleItalian, model.StrategyPattern, "testo")
	assert.Len(t, base, 64)
	assert.Equal(t, base, Key(model.LocaleItalian, model.StrategyPattern, "testo"))

	assert.NotEqual(t, base, Key(model.LocaleEnglish, model.StrategyPattern, "testo"))
	assert.NotEqual(t, base, Key(model.LocaleItalian, model.StrategyNarrative, "testo"))
	assert.NotEqual(t, base, Key(model.LocaleItalian, model.StrategyPattern, "testo "))

	// full text participates, not a prefix
	long := string(make([]byte, 200))
	assert.NotEqual(t, Key("it", "pattern", long+"a"), Key("it", "pattern", long+"b"))
}

func TestResultsCache_GetSet(t *testing.T) {
	c := New(DefaultSize)

	_, hit := c.Get("k")
	assert.False(t, hit)

	orig := result("t1")
	c.Set("k", orig)

	got, hit := c.Get("k")
	require.True(t, hit)
	assert.Equal(t, "t1", got.Title)

	// no aliasing in either direction
	orig.Timeline[0].Date = "changed"
	got.Logs[0] = "changed"
	again, _ := c.Get("k")
	assert.Equal(t, "1452", again.Timeline[0].Date)
	assert.Equal(t, "line", again.Logs[0])
}

func TestResultsCache_LastWriterWins(t *testing.T) {
	c := New(2)
	c.Set("k", result("first"))
	c.Set("k", result("second"))
	got, _ := c.Get("k")
	assert.Equal(t, "second", got.Title)
	assert.Equal(t, 1, c.Len())
}

func TestResultsCache_FIFOEviction(t *testing.T) {
	c := New(2)
	c.Set("a", result("a"))
	c.Set("b", result("b"))
	c.Set("a", result("a2")) // rewrite keeps original position
	c.Set("c", result("c"))

	_, hit := c.Get("a")
	assert.False(t, hit, "oldest entry evicted")
	_, hit = c.Get("b")
	assert.True(t, hit)
	_, hit = c.Get("c")
	assert.True(t, hit)

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].Key)
	assert.Equal(t, 1, entries[0].Events)
}

func TestResultsCache_Unbounded(t *testing.T) {
	c := New(0)
	for i := 0; i < 300; i++ {
		c.Set(fmt.Sprint(i), result("x"))
	}
	assert.Equal(t, 300, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Entries())
}

func TestResultsCache_Concurrent(t *testing.T) {
	c := New(16)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k := fmt.Sprint(i % 20)
			c.Set(k, result(k))
			c.Get(k)
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 16)
}

func TestResultsCache_SetNil(t *testing.T) {
	c := New(1)
	c.Set("k", nil)
	assert.Equal(t, 0, c.Len())
}
