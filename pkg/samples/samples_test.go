package samples

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biotimeline/pkg/model"
)

func TestAll(t *testing.T) {
	all, err := All()
	require.NoError(t, err)
	require.Len(t, all, 3)

	keys := []string{all[0].Key, all[1].Key, all[2].Key}
	assert.Equal(t, []string{"leonardo-short", "marie-medium", "garibaldi-long"}, keys)

	for _, s := range all {
		assert.Equal(t, model.LocaleItalian, s.Locale, s.Key)
		assert.NotEmpty(t, s.GoldStandard, s.Key)
		assert.False(t, strings.Contains(s.Text, "\n"), "folded text must be a single line: %s", s.Key)
		for _, e := range s.GoldStandard {
			assert.NotZero(t, e.Year, "%s %s", s.Key, e.Date)
		}
	}
}

func TestGet(t *testing.T) {
	s, ok := Get("leonardo-short")
	require.True(t, ok)
	assert.Equal(t, "Leonardo da Vinci", s.Name)
	assert.Len(t, s.GoldStandard, 6)
	assert.Equal(t, 1519, s.GoldStandard[5].Year)
	assert.True(t, strings.HasPrefix(s.Text, "Leonardo da Vinci nasce a Vinci nel 1452"))

	_, ok = Get("trump-long")
	assert.False(t, ok)
}

func TestReference(t *testing.T) {
	s, ok := Get("marie-medium")
	require.True(t, ok)

	ref := s.Reference()
	assert.Equal(t, "builtin-marie-medium", ref.ID)
	assert.True(t, ref.Builtin)
	assert.Equal(t, s.Text, ref.Biography)

	ref.Events[0].Title = "changed"
	assert.NotEqual(t, "changed", s.GoldStandard[0].Title, "reference must not alias the sample")
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("- name: missing key\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("not: [a list"))
	assert.Error(t, err)
}
