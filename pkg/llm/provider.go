package llm

import (
	"context"
)

// ChatRequest is one system + user exchange with a generative text service.
type ChatRequest struct {
	Name        string // intent label used in the history log
	Model       string
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Provider defines the interface for interacting with LLM services.
type Provider interface {
	// Name identifies the backend ("openai", "gemini").
	Name() string

	// Complete sends the request authenticated with credential and returns the raw
	// text content of the first choice.
	Complete(ctx context.Context, credential string, req ChatRequest) (string, error)
}
