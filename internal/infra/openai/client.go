package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"riddleme-service/internal/domain"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = goopenai.GPT4
)

// Config holds chat-completions settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client generates riddles through an OpenAI-compatible chat completions API.
type Client struct {
	cfg Config
	api *goopenai.Client
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 300
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}

	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Client{cfg: cfg, api: goopenai.NewClientWithConfig(apiCfg)}
}

// Generate implements app.RiddleGenerator.
func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) (domain.GeneratedRiddle, error) {
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: buildPrompt(req)},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: float32(c.cfg.Temperature),
	})
	if err != nil {
		return domain.GeneratedRiddle{}, providerError(err)
	}
	if len(resp.Choices) == 0 {
		return domain.GeneratedRiddle{}, fmt.Errorf("%w: completion has no choices", domain.ErrMalformedProviderResponse)
	}
	return ParseRiddle(resp.Choices[0].Message.Content)
}

// providerError maps SDK failures onto ErrGenerationUnavailable.
func providerError(err error) error {
	var (
		apiErr *goopenai.APIError
		reqErr *goopenai.RequestError
		status int
	)
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%w: provider rate limited: %v", domain.ErrGenerationUnavailable, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
}
