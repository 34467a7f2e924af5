package narrative

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biotimeline/pkg/config"
	"biotimeline/pkg/llm/gemini"
	"biotimeline/pkg/llm/openai"
	"biotimeline/pkg/request"
	"biotimeline/pkg/tracker"
)

func TestNewProvider(t *testing.T) {
	tr := tracker.New()
	rc := request.New(tr, request.Options{})

	p, err := NewProvider(config.DefaultConfig().LLM, rc, tr, nil)
	require.NoError(t, err)
	assert.IsType(t, &openai.Client{}, p)
	assert.Equal(t, "openai", p.Name())

	p, err = NewProvider(config.LLMConfig{Provider: "gemini", BaseURL: openai.DefaultEndpoint}, rc, tr, nil)
	require.NoError(t, err)
	assert.IsType(t, &gemini.Client{}, p)

	_, err = NewProvider(config.LLMConfig{Provider: "openai", BaseURL: "ftp://example.com"}, rc, tr, nil)
	assert.Error(t, err)

	_, err = NewProvider(config.LLMConfig{Provider: "claude"}, rc, tr, nil)
	assert.Error(t, err)
}
