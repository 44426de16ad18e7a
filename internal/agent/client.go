package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var ErrMissingAPIKey = errors.New("hosted LLM api key is not configured")

// maxResponseBytes bounds how much of an upstream body is read.
const maxResponseBytes = 1 << 20

// Completer is the chat-completion capability the reasoning and tone stages use.
type Completer interface {
	Complete(ctx context.Context, messages []ChatMessage, temperature float64) (string, error)
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// Limiter is shared by every hosted-LLM client in the process. Nil disables it.
	Limiter *rate.Limiter
}

// ChatClient talks to an OpenAI-compatible /chat/completions endpoint
// (OpenRouter for reasoning, OpenAI for tone rewriting).
type ChatClient struct {
	apiKey     string
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewChatClient(cfg ChatConfig) *ChatClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &ChatClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: cfg.Limiter,
	}
}

// NewLimiter builds a requests-per-minute limiter. rpm <= 0 disables limiting.
func NewLimiter(rpm, burst int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), burst)
}

// Configured reports whether the client has credentials.
func (c *ChatClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat-completion request and returns the first choice's content.
// The whole call, including any rate-limiter wait, is bounded by the client timeout.
func (c *ChatClient) Complete(ctx context.Context, messages []ChatMessage, temperature float64) (string, error) {
	if !c.Configured() {
		return "", ErrMissingAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}
	}

	reqBody := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("LLM API error (%d): %s", resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
