package narrative

import (
	"fmt"
	"strings"

	"biotimeline/pkg/config"
	"biotimeline/pkg/llm"
	"biotimeline/pkg/llm/gemini"
	"biotimeline/pkg/llm/openai"
	"biotimeline/pkg/request"
	"biotimeline/pkg/tracker"
)

// NewProvider builds the generative service client named by cfg.Provider.
// history may be nil.
func NewProvider(cfg config.LLMConfig, rc *request.Client, t *tracker.Tracker, history *llm.HistoryLog) (llm.Provider, error) {
	switch cfg.Provider {
	case "", "openai":
		endpoint := cfg.BaseURL
		if endpoint == "" {
			endpoint = openai.DefaultEndpoint
		}
		c, err := openai.NewClient(endpoint, rc, history)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "gemini":
		baseURL := cfg.BaseURL
		// the OpenAI default is never a Gemini endpoint
		if strings.Contains(baseURL, "openai.com") {
			baseURL = ""
		}
		return gemini.NewClient(baseURL, t, history), nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
}
