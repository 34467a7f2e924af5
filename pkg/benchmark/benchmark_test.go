package benchmark

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biotimeline/pkg/analysis"
	"biotimeline/pkg/config"
	"biotimeline/pkg/model"
)

type fakeRunner struct {
	mu       sync.Mutex
	seen     []string
	results  map[string]string // strategy -> narrative
	failOn   string
	inFlight int32
	maxSeen  int32
	delay    time.Duration
}

func (f *fakeRunner) Run(ctx context.Context, req analysis.Request) (*model.AnalysisResult, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		m := atomic.LoadInt32(&f.maxSeen)
		if n <= m || atomic.CompareAndSwapInt32(&f.maxSeen, m, n) {
			break
		}
	}
	time.Sleep(f.delay)

	f.mu.Lock()
	f.seen = append(f.seen, req.Strategy)
	f.mu.Unlock()

	if req.Strategy == f.failOn {
		return nil, &model.RunError{Strategy: model.Strategy(req.Strategy), Err: &model.ExternalServiceError{Provider: "openai", StatusCode: 500}}
	}
	return &model.AnalysisResult{
		Strategy: model.Strategy(req.Strategy),
		Timeline: []model.TimelineEvent{{Date: "1452", Narrative: f.results[req.Strategy]}},
	}, nil
}

var reference = []model.GoldStandardEvent{
	{Date: "1452", Title: "Nascita", Description: "Leonardo nasce a Vinci in Toscana"},
	{Date: "", Title: "no date"},
}

func TestCompare_RanksAgainstReference(t *testing.T) {
	r := &fakeRunner{results: map[string]string{
		"pattern":   "Leonardo nasce nel 1452",
		"narrative": "Leonardo nasce a Vinci in Toscana da ser Piero",
		"combined":  "Nel 1452 Leonardo nasce a Vinci in Toscana",
	}}
	b := New(r, nil)

	cmp, err := b.Compare(context.Background(), CompareRequest{
		Text:       "Leonardo nasce nel 1452 a Vinci.",
		Locale:     "it",
		Credential: "k",
		Reference:  reference,
	})
	require.NoError(t, err)

	require.Len(t, cmp.Entries, 3)
	assert.Equal(t, model.StrategyPattern, cmp.Entries[0].Strategy, "entries keep strategy order")
	for _, e := range cmp.Entries {
		require.NotNil(t, e.Report)
		assert.Equal(t, e.Strategy, e.Report.Strategy)
	}
	require.Len(t, cmp.Ranking, 3)
	for i := 1; i < len(cmp.Ranking); i++ {
		assert.GreaterOrEqual(t, cmp.Ranking[i-1].CombinedScore, cmp.Ranking[i].CombinedScore)
	}
	require.NotNil(t, cmp.Best)
	assert.Equal(t, cmp.Ranking[0], *cmp.Best)
	assert.NotEqual(t, model.StrategyPattern, cmp.Best.Strategy)
}

func TestCompare_TitlelessReferenceIsScored(t *testing.T) {
	r := &fakeRunner{results: map[string]string{
		"pattern": "Leonardo nasce a Vinci e muore ad Amboise",
	}}
	cmp, err := New(r, nil).Compare(context.Background(), CompareRequest{
		Text: "Leonardo nasce nel 1452 a Vinci.",
		Reference: []model.GoldStandardEvent{
			{Date: "1452", Description: "Leonardo nasce a Vinci"},
			{Date: "1519", Description: "muore ad Amboise"},
		},
	})
	require.NoError(t, err)

	require.Len(t, cmp.Ranking, 1)
	require.NotNil(t, cmp.Best)
	assert.Equal(t, model.StrategyPattern, cmp.Best.Strategy)
	assert.Equal(t, 5, cmp.Best.ReferenceTokens)
	assert.Equal(t, 5, cmp.Best.OverlapCount)
}

func TestCompare_DefaultStrategies(t *testing.T) {
	r := &fakeRunner{}
	cmp, err := New(r, nil).Compare(context.Background(), CompareRequest{Text: "x"})
	require.NoError(t, err)
	require.Len(t, cmp.Entries, 1)
	assert.Equal(t, model.StrategyPattern, cmp.Entries[0].Strategy, "pattern only without a credential")
	assert.Nil(t, cmp.Best, "unscored without a reference")
	assert.Empty(t, cmp.Ranking)
}

func TestCompare_ExplicitStrategiesDeduplicated(t *testing.T) {
	r := &fakeRunner{}
	cmp, err := New(r, nil).Compare(context.Background(), CompareRequest{
		Text:       "x",
		Credential: "k",
		Strategies: []string{"llm", "narrative", "spacy"},
	})
	require.NoError(t, err)
	require.Len(t, cmp.Entries, 2)
	assert.Equal(t, model.StrategyNarrative, cmp.Entries[0].Strategy)
	assert.Equal(t, model.StrategyPattern, cmp.Entries[1].Strategy)
}

func TestCompare_UnsupportedStrategy(t *testing.T) {
	r := &fakeRunner{}
	_, err := New(r, nil).Compare(context.Background(), CompareRequest{Text: "x", Strategies: []string{"pattern", "bert"}})
	var us *model.UnsupportedStrategyError
	require.True(t, errors.As(err, &us))
	assert.Empty(t, r.seen, "nothing runs when a tag is invalid")
}

func TestCompare_FirstFailureFails(t *testing.T) {
	r := &fakeRunner{failOn: "narrative"}
	_, err := New(r, nil).Compare(context.Background(), CompareRequest{Text: "x", Credential: "k"})
	var ext *model.ExternalServiceError
	require.True(t, errors.As(err, &ext))
	assert.Contains(t, err.Error(), "narrative")
}

func TestCompare_Parallelism(t *testing.T) {
	base := config.DefaultConfig()
	base.Compare.Parallelism = 3
	cfg := config.NewProvider(base, nil)

	r := &fakeRunner{delay: 30 * time.Millisecond}
	_, err := New(r, cfg).Compare(context.Background(), CompareRequest{Text: "x", Credential: "k"})
	require.NoError(t, err)
	assert.Greater(t, atomic.LoadInt32(&r.maxSeen), int32(1))

	seq := &fakeRunner{delay: 5 * time.Millisecond}
	_, err = New(seq, nil).Compare(context.Background(), CompareRequest{Text: "x", Credential: "k"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&seq.maxSeen), "sequential by default")
}
