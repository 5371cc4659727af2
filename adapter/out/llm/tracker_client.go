// Package llm implements the LLMProcessor port on the OpenAI API.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jobtrack_server/pkg/logger"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
)

// DefaultModel is the cheap tier used for all extraction tasks.
const DefaultModel = "gpt-4o-mini"

// Client wraps the OpenAI API behind a circuit breaker.
type Client struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	cb          *gobreaker.CircuitBreaker
	cost        *CostTracker
	log         *logger.Logger
}

// ClientConfig holds client configuration.
type ClientConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// NewClient creates a client with defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(ClientConfig{APIKey: apiKey})
}

// NewClientWithConfig creates a configured client.
func NewClientWithConfig(cfg ClientConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3 // low temperature keeps extraction output consistent
	}

	cbSettings := gobreaker.Settings{
		Name:        "openai-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("[CircuitBreaker] %s: state changed from %s to %s", name, from.String(), to.String())
		},
	}

	return &Client{
		client:      openai.NewClient(cfg.APIKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: float32(temperature),
		cb:          gobreaker.NewCircuitBreaker(cbSettings),
		cost:        NewCostTracker(),
		log:         logger.Default().WithField("component", "openai_client"),
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// CostStats returns accumulated spend statistics.
func (c *Client) CostStats() CostStats {
	return c.cost.Stats()
}

// completion is the normalized outcome of one JSON-mode chat call.
type completion struct {
	content      string
	inputTokens  int
	outputTokens int
	elapsed      time.Duration
}

func (r completion) totalTokens() int {
	return r.inputTokens + r.outputTokens
}

// completeJSON runs one JSON-mode chat completion through the breaker.
func (c *Client) completeJSON(ctx context.Context, systemPrompt, userPrompt string) (*completion, error) {
	start := time.Now()

	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
			MaxTokens:   c.maxTokens,
			Temperature: c.temperature,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	resp := result.(openai.ChatCompletionResponse)
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in completion response")
	}

	c.cost.Track(c.model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	return &completion{
		content:      stripFences(resp.Choices[0].Message.Content),
		inputTokens:  resp.Usage.PromptTokens,
		outputTokens: resp.Usage.CompletionTokens,
		elapsed:      time.Since(start),
	}, nil
}

// stripFences removes markdown code fences some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// truncateBody bounds prompt size for long emails.
func truncateBody(body string, maxLen int) string {
	if len(body) <= maxLen {
		return body
	}
	return body[:maxLen] + "..."
}
