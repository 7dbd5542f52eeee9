package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/doeshing/shai-agent/internal/domain"
	"github.com/doeshing/shai-agent/internal/ports"
)

const maxErrorBody = 512

// Client talks to an OpenAI-compatible chat-completions endpoint and asks
// for JSON-object replies.
type Client struct {
	model      domain.ModelDefinition
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewClient resolves the API key from the model's environment variable.
// A missing key is a configuration error.
func NewClient(model domain.ModelDefinition, httpClient *http.Client) (*Client, error) {
	apiKey := strings.TrimSpace(os.Getenv(model.AuthEnvVar))
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing API key: set %s", domain.ErrConfiguration, model.AuthEnvVar)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		model:      model,
		apiKey:     apiKey,
		endpoint:   chatCompletionsURL(model.BaseURL),
		httpClient: httpClient,
	}, nil
}

// Model returns the definition the client was built for.
func (c *Client) Model() domain.ModelDefinition {
	return c.model
}

// Complete sends the whole history and returns the first choice's content.
// Transport failures, HTTP errors and empty replies wrap domain.ErrBackend.
func (c *Client) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	payload := chatCompletionRequest{
		Model:          c.model.ModelID,
		Messages:       toChatMessages(messages),
		MaxTokens:      valueOrDefaultInt(c.model.MaxTokens, domain.DefaultMaxTokens),
		Temperature:    c.model.Temperature,
		TopP:           c.model.TopP,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", domain.ErrBackend, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", domain.ErrBackend, err)
	}
	httpReq.Header.Set("authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrBackend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("%w: %s: %s %s", domain.ErrBackend, c.model.Name, resp.Status, strings.TrimSpace(string(snippet)))
	}

	var decoded chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrBackend, err)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrBackend, decoded.Error.Message)
	}
	content, ok := decoded.FirstMessage()
	if !ok {
		return "", fmt.Errorf("%w: response has no choices", domain.ErrBackend)
	}
	return content, nil
}

func chatCompletionsURL(base string) string {
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, "/chat/completions") {
		return base
	}
	return base + "/chat/completions"
}

func valueOrDefaultInt(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

var _ ports.ChatModel = (*Client)(nil)
