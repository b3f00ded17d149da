package llm

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

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	DefaultAnthropicBaseURL = "https://api.anthropic.com"
	DefaultAnthropicModel   = "claude-3-5-haiku-latest"
	DefaultMaxTokens        = 512

	anthropicVersion = "2023-06-01"

	// maxErrorBody caps how much of a failed upstream response is read.
	maxErrorBody = 64 << 10
)

// AnthropicConfig holds configuration for the Anthropic client.
type AnthropicConfig struct {
	APIKey    string
	BaseURL   string        // default: https://api.anthropic.com
	Model     string        // default: claude-3-5-haiku-latest
	MaxTokens int           // default: 512
	Timeout   time.Duration // default: 60s

	// Breaker overrides the circuit breaker settings. Zero value uses
	// NewCircuitBreaker defaults.
	Breaker CircuitBreakerConfig

	Logger *zap.Logger
}

// APIError is a non-2xx answer from the Messages API. Message is safe to
// show to end users; StatusCode is forwarded to the caller as-is.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("anthropic returned status %d: %s", e.StatusCode, e.Message)
}

// newAPIError builds an APIError from a failed response body. When the body
// is a JSON document carrying error.message that text is surfaced, otherwise
// a generic message is used.
func newAPIError(status int, body []byte) *APIError {
	msg := "Upstream API error."
	if gjson.ValidBytes(body) {
		if m := gjson.GetBytes(body, "error.message"); m.Type == gjson.String && m.Str != "" {
			msg = "Anthropic Error: " + m.Str
		}
	}
	return &APIError{StatusCode: status, Message: msg}
}

// AnthropicClient implements TextGenerator using the Anthropic Messages API.
type AnthropicClient struct {
	cfg            AnthropicConfig
	client         *http.Client
	circuitBreaker *CircuitBreaker
	logger         *zap.Logger
}

// NewAnthropicClient creates a new Anthropic client with the given configuration.
func NewAnthropicClient(cfg AnthropicConfig) *AnthropicClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAnthropicBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultAnthropicModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	breakerCfg := cfg.Breaker
	if breakerCfg.MaxFailures == 0 {
		breakerCfg = DefaultCircuitBreakerConfig()
	}
	if breakerCfg.IsSuccessful == nil {
		breakerCfg.IsSuccessful = isClientError
	}
	breakerCfg.Logger = logger

	return &AnthropicClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		circuitBreaker: NewCircuitBreakerWithConfig(breakerCfg),
		logger:         logger,
	}
}

// isClientError keeps request-specific rejections from tripping the
// breaker. Only transport failures, 429 and 5xx count against upstream
// health.
func isClientError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 &&
		apiErr.StatusCode != http.StatusTooManyRequests
}

// anthropicMessagesRequest is the request body for POST /v1/messages.
type anthropicMessagesRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicMessagesResponse is the response body from POST /v1/messages.
type anthropicMessagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete sends a single-turn completion to Anthropic and returns the
// concatenated text of every content block. Non-2xx answers are returned
// as *APIError.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.complete(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return "", fmt.Errorf("anthropic circuit breaker open: %w", err)
		}
		return "", err
	}
	return result.(string), nil
}

func (c *AnthropicClient) complete(ctx context.Context, prompt string) (string, error) {
	reqBody := anthropicMessagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/messages", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Error("anthropic request failed",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
			zap.Duration("elapsed", time.Since(start)))
		return "", newAPIError(resp.StatusCode, body)
	}

	var respData anthropicMessagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	var text strings.Builder
	for _, block := range respData.Content {
		text.WriteString(block.Text)
	}

	c.logger.Debug("anthropic request completed",
		zap.String("model", c.cfg.Model),
		zap.Int("blocks", len(respData.Content)),
		zap.Duration("elapsed", time.Since(start)))

	return text.String(), nil
}

// GetModel returns the configured model name.
func (c *AnthropicClient) GetModel() string {
	return c.cfg.Model
}

// BreakerState exposes the circuit breaker state for health reporting.
func (c *AnthropicClient) BreakerState() string {
	return c.circuitBreaker.State()
}

// Compile-time assertion.
var _ TextGenerator = (*AnthropicClient)(nil)
