package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"

	"biotimeline/pkg/llm"
	"biotimeline/pkg/model"
	"biotimeline/pkg/tracker"
)

// DefaultModel is used when the request names no model or an OpenAI one.
const DefaultModel = "gemini-2.0-flash"

// maxClients bounds the per-credential client cache; credentials change at runtime.
const maxClients = 4

// Client implements llm.Provider for Google Gemini.
type Client struct {
	baseURL    string // empty selects the public endpoint
	httpClient *http.Client
	tracker    *tracker.Tracker
	history    *llm.HistoryLog

	mu      sync.Mutex
	clients map[string]*genai.Client // keyed by credential
}

// NewClient creates a new Gemini client. t and history may be nil.
func NewClient(baseURL string, t *tracker.Tracker, history *llm.HistoryLog) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		tracker:    t,
		history:    history,
		clients:    make(map[string]*genai.Client),
	}
}

func (c *Client) Name() string { return "gemini" }

// Complete sends the prompt with the system instruction and sampling settings.
func (c *Client) Complete(ctx context.Context, credential string, req llm.ChatRequest) (string, error) {
	text, err := c.generate(ctx, credential, req)
	c.history.Record(c.Name(), req.Name, req.Prompt, text, err)
	if c.tracker != nil {
		if err != nil {
			c.tracker.TrackAPIFailure(c.Name())
		} else {
			c.tracker.TrackAPISuccess(c.Name())
		}
	}
	return text, err
}

func (c *Client) generate(ctx context.Context, credential string, req llm.ChatRequest) (string, error) {
	client, err := c.client(ctx, credential)
	if err != nil {
		return "", err
	}

	temp := req.Temperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := client.Models.GenerateContent(ctx, resolveModel(req.Model), genai.Text(req.Prompt), config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &model.ExternalServiceError{Provider: c.Name(), StatusCode: apiErr.Code, Body: apiErr.Message}
		}
		return "", fmt.Errorf("generate content error: %w", err)
	}

	return getResponseText(resp)
}

func (c *Client) client(ctx context.Context, credential string) (*genai.Client, error) {
	if credential == "" {
		return nil, fmt.Errorf("api key is missing")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if gc, ok := c.clients[credential]; ok {
		return gc, nil
	}
	cfg := &genai.ClientConfig{
		APIKey:     credential,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}
	gc, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	if len(c.clients) >= maxClients {
		for k := range c.clients {
			delete(c.clients, k)
			break
		}
	}
	c.clients[credential] = gc
	return gc, nil
}

func resolveModel(name string) string {
	if name == "" || strings.HasPrefix(name, "gpt-") {
		return DefaultModel
	}
	return name
}

func getResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &model.MalformedResponseError{Reason: "no candidates returned"}
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}
