// Package llm talks to the OpenAI-compatible chat endpoint (Groq by default)
// used for intent extraction and small-talk replies.
package llm

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/dreamstate/guest-assistant/internal/domain"
	"github.com/dreamstate/guest-assistant/internal/observability"
)

// Completer runs one chat completion and returns the assistant's text.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest is a single system+user exchange.
type CompletionRequest struct {
	System string
	User   string
	// JSON asks the endpoint for a JSON object response.
	JSON bool
	// Model overrides the client's default model when set.
	Model string
}

// Config holds settings for creating a Client.
type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	Temperature    float64
	RequestsPerSec float64 // 0 disables throttling
	Burst          int
	HTTPClient     *http.Client
}

// Client is a rate-limited OpenAI-compatible chat client.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	limiter     *rate.Limiter
	logger      *observability.Logger
}

// NewClient creates a client. A missing API key is a configuration error.
func NewClient(cfg Config, logger *observability.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, domain.ConfigurationError("missing GROQ_API_KEY", nil)
	}
	if cfg.Model == "" {
		return nil, domain.ConfigurationError("missing llm model", nil)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSec > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), burst)
	}

	return &Client{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		limiter:     limiter,
		logger:      logger.WithComponent("llm"),
	}, nil
}

// Model returns the default model name.
func (c *Client) Model() string {
	return c.model
}

// Complete implements Completer. Endpoint failures are upstream errors; an
// empty choice list yields "" so callers can apply their own fallback.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", domain.UpstreamFetchError("llm rate limiter", err)
	}

	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	// go-openai omits a zero temperature, which the endpoint reads as its default.
	temperature := c.temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	c.logger.Debug().
		Str("model", model).
		Int("prompt_len", len(req.User)).
		Bool("json", req.JSON).
		Msg("LLM request")

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		event := c.logger.Error().Err(err).Dur("elapsed", time.Since(start))
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			event = event.Int("status", apiErr.HTTPStatusCode)
		}
		event.Msg("LLM request failed")
		return "", domain.UpstreamFetchError("llm chat completion", err)
	}

	c.logger.Debug().
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Dur("elapsed", time.Since(start)).
		Msg("LLM request completed")

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
