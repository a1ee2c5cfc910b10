package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const (
	// Model is the fixed upstream model identifier.
	Model = "gpt-4o"
	// Temperature is the fixed sampling temperature.
	Temperature = 0.75
)

// ErrUpstreamDecode is returned when the upstream body is not JSON.
var ErrUpstreamDecode = errors.New("upstream response is not valid JSON")

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey string
	URL    string
	// HTTPClient defaults to http.DefaultClient, which applies no timeout.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// OpenAIClient calls an OpenAI-compatible chat-completion endpoint.
type OpenAIClient struct {
	apiKey string
	url    string
	client *http.Client
	logger *slog.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatChoice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type chatCompletionResponse struct {
	Model   string          `json:"model"`
	Choices json.RawMessage `json:"choices"`
}

// NewOpenAIClient creates a client for the configured endpoint.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIClient{
		apiKey: cfg.APIKey,
		url:    cfg.URL,
		client: client,
		logger: logger,
	}
}

// Complete posts prompt as a single user message. It does not retry, stream
// or cap tokens. The HTTP status is not treated as an error: any JSON body is
// decoded, and one without choices yields an empty Completion.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (*Completion, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model:       Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close upstream body", "error", closeErr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read chat response: %w", err)
	}
	c.logger.Debug("Upstream raw response", "status", resp.StatusCode, "body", string(raw))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("Upstream returned non-success status", "status", resp.StatusCode)
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w (status %d)", ErrUpstreamDecode, resp.StatusCode)
	}

	out := &Completion{StatusCode: resp.StatusCode}

	// Shapes that are valid JSON but not an object with a choices array are
	// treated as "no reply" rather than as failures.
	var decoded chatCompletionResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return out, nil
	}
	out.Model = decoded.Model

	var choices []chatChoice
	if err := json.Unmarshal(decoded.Choices, &choices); err != nil || len(choices) == 0 {
		return out, nil
	}
	out.Content = choices[0].Message.Content
	out.FinishReason = choices[0].FinishReason
	return out, nil
}
