package pattern

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biotimeline/pkg/logging"
	"biotimeline/pkg/model"
	"biotimeline/pkg/samples"
)

func TestExtract_LeonardoScenario(t *testing.T) {
	e := NewExtractor()
	runLog := logging.NewRunLog("r1", nil)

	res, err := e.Extract("Leonardo nasce nel 1452 a Vinci. Leonardo muore nel 1519 ad Amboise.", model.LocaleItalian, runLog)
	require.NoError(t, err)

	require.Len(t, res.Timeline, 2)
	assert.Equal(t, "1452", res.Timeline[0].Date)
	assert.Equal(t, "1519", res.Timeline[1].Date)
	assert.Equal(t, "1452", res.Summary.BirthDate)
	assert.Equal(t, "1519", res.Summary.DeathDate)
	assert.Equal(t, model.StrategyPattern, res.Strategy)
	assert.Equal(t, "Timeline estratta con pattern matching", res.Title)
	assert.Empty(t, res.Summary.MainPlaces)
	assert.Empty(t, res.Summary.MainPeople)

	require.GreaterOrEqual(t, len(res.Logs), 2)
	assert.Contains(t, res.Logs[0], "Starting pattern extraction")
	assert.Contains(t, res.Logs[1], "found 2 events")
}

func TestExtract_Idempotent(t *testing.T) {
	e := NewExtractor()
	s, ok := samples.Get("garibaldi-long")
	require.True(t, ok)

	a, err := e.Extract(s.Text, s.Locale, nil)
	require.NoError(t, err)
	b, err := e.Extract(s.Text, s.Locale, nil)
	require.NoError(t, err)

	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	assert.Equal(t, string(ja), string(jb))
}

func TestExtract_SortInvariant(t *testing.T) {
	e := NewExtractor()
	text := "Nel 1519 muore.\nIl 12/3/1500 parte.\nNel 1452 nasce.\nPubblica 1499-11 un trattato.\nNel 3/1480 torna."
	res, err := e.Extract(text, model.LocaleItalian, nil)
	require.NoError(t, err)
	require.Len(t, res.Timeline, 5)

	for i := 1; i < len(res.Timeline); i++ {
		prev, cur := model.SortKey(res.Timeline[i-1].Date), model.SortKey(res.Timeline[i].Date)
		assert.LessOrEqual(t, prev, cur, "%q before %q", res.Timeline[i-1].Date, res.Timeline[i].Date)
	}
	// The crude key places the D/M/YYYY label last.
	assert.Equal(t, "12/3/1500", res.Timeline[4].Date)
}

func TestExtract_StableTies(t *testing.T) {
	e := NewExtractor()
	res, err := e.Extract("Nel 1500 primo evento.\nNel 1500 secondo evento.", model.LocaleItalian, nil)
	require.NoError(t, err)
	require.Len(t, res.Timeline, 2)
	assert.Contains(t, res.Timeline[0].Narrative, "primo")
	assert.Contains(t, res.Timeline[1].Narrative, "secondo")
}

func TestExtract_Empty(t *testing.T) {
	e := NewExtractor()
	res, err := e.Extract("Nessuna data.", model.LocaleEnglish, nil)
	require.NoError(t, err)
	assert.NotNil(t, res.Timeline)
	assert.Empty(t, res.Timeline)
	assert.Equal(t, model.CharacterSummary{}, res.Summary)
	assert.Equal(t, "Timeline extracted with pattern matching", res.Title)
}

func TestExtract_UnsupportedLocale(t *testing.T) {
	_, err := NewExtractor().Extract("x", "fr", nil)
	var le *model.UnsupportedLocaleError
	assert.True(t, errors.As(err, &le))
}

func TestExtract_SampleProfessions(t *testing.T) {
	e := NewExtractor()
	res, err := e.Extract("Dante Alighieri nasce nel 1265 a Firenze.\nFu poeta e politico.", model.LocaleItalian, nil)
	require.NoError(t, err)
	assert.Equal(t, "poeta", res.Summary.Profession)
	assert.Equal(t, "1265", res.Summary.BirthDate)
	assert.Equal(t, model.KindBirth, res.Timeline[0].Kind)
}
