package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"biotimeline/pkg/llm"
	"biotimeline/pkg/model"
	"biotimeline/pkg/request"
)

// DefaultEndpoint is the OpenAI chat completions URL.
const DefaultEndpoint = "https://api.openai.com/v1/chat/completions"

// Client implements llm.Provider for any OpenAI-compatible chat completions API.
type Client struct {
	rc       *request.Client
	endpoint string
	history  *llm.HistoryLog
}

// Request follows the standard OpenAI Chat Completions format.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response follows the standard Chat Completions response format.
type Response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewClient creates a new OpenAI client. An empty endpoint selects DefaultEndpoint;
// history may be nil.
func NewClient(endpoint string, rc *request.Client, history *llm.HistoryLog) (*Client, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("invalid endpoint %q", endpoint)
	}
	if rc == nil {
		return nil, fmt.Errorf("request client is required")
	}
	return &Client{
		rc:       rc,
		endpoint: endpoint,
		history:  history,
	}, nil
}

func (c *Client) Name() string { return "openai" }

// Complete sends one system + user exchange and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, credential string, creq llm.ChatRequest) (string, error) {
	if credential == "" {
		return "", fmt.Errorf("api key is missing")
	}

	oreq := Request{
		Model: creq.Model,
		Messages: []Message{
			{Role: "system", Content: creq.System},
			{Role: "user", Content: creq.Prompt},
		},
		Temperature: creq.Temperature,
		MaxTokens:   creq.MaxTokens,
	}
	content, err := c.execute(ctx, credential, oreq)
	c.history.Record(c.Name(), creq.Name, creq.Prompt, content, err)
	return content, err
}

func (c *Client) execute(ctx context.Context, credential string, oreq Request) (string, error) {
	body, err := json.Marshal(oreq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + credential,
		"Content-Type":  "application/json",
	}

	respBody, err := c.rc.PostWithHeaders(ctx, c.endpoint, body, headers)
	if err != nil {
		var se *request.StatusError
		if errors.As(err, &se) {
			return "", &model.ExternalServiceError{Provider: c.Name(), StatusCode: se.Code, Body: se.Body}
		}
		return "", err
	}

	var oresp Response
	if err := json.Unmarshal(respBody, &oresp); err != nil {
		return "", &model.MalformedResponseError{Reason: "undecodable completion envelope", Content: string(respBody), Err: err}
	}

	if oresp.Error != nil {
		return "", &model.ExternalServiceError{
			Provider:   c.Name(),
			StatusCode: http.StatusOK,
			Body:       fmt.Sprintf("%s (%s)", oresp.Error.Message, oresp.Error.Type),
		}
	}

	if len(oresp.Choices) == 0 {
		return "", &model.MalformedResponseError{Reason: "api returned no choices", Content: string(respBody)}
	}

	return oresp.Choices[0].Message.Content, nil
}
