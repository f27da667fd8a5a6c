package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/symptom-check/internal/domain/ai"
)

const (
	defaultModel       = "google/gemini-2.5-flash"
	defaultTemperature = 0.7
	defaultMaxTokens   = 2048
)

// Options configures the OpenAI-compatible gateway client.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

type Client struct {
	*openai.Client
	Model       string
	Temperature float32
	MaxTokens   int
}

func NewClient(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	c := &Client{
		Client:      openai.NewClientWithConfig(cfg),
		Model:       opts.Model,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Temperature == 0 {
		c.Temperature = defaultTemperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = defaultMaxTokens
	}
	return c
}

// Complete sends one system + user exchange and returns the first choice.
// Errors wrap one of the ai sentinel errors.
func (c *Client) Complete(ctx context.Context, in ai.CompletionRequest) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.Model,
		Temperature: c.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: in.System},
			{Role: openai.ChatMessageRoleUser, Content: in.User},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(c.Model, "o1") || strings.HasPrefix(c.Model, "o3") || strings.HasPrefix(c.Model, "o4") || strings.HasPrefix(c.Model, "gpt-5") {
		req.MaxCompletionTokens = c.MaxTokens
	} else {
		req.MaxTokens = c.MaxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ai.ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

// StatusCode extracts the upstream HTTP status from a go-openai error, or 0.
func StatusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func classify(err error) error {
	switch StatusCode(err) {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ai.ErrQuotaExceeded, err)
	case http.StatusPaymentRequired:
		return fmt.Errorf("%w: %w", ai.ErrPaymentRequired, err)
	default:
		return fmt.Errorf("%w: %w", ai.ErrProviderFailed, err)
	}
}
