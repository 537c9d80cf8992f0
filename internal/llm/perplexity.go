// Package llm drafts email text through an OpenAI-compatible chat completion
// endpoint. The default target is the Perplexity API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Defaults for the Perplexity chat completion endpoint.
const (
	DefaultBaseURL     = "https://api.perplexity.ai"
	DefaultModel       = "sonar"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 800
	DefaultTopP        = 0.9
)

// SystemPrompt is sent ahead of every user prompt.
const SystemPrompt = "You are a personal assistant who writes highly personalized, authentic-sounding emails."

var (
	// ErrMissingAPIKey indicates Generate was called without a key.
	ErrMissingAPIKey = errors.New("api key is required")

	// ErrEmptyCompletion indicates the response carried no choices.
	ErrEmptyCompletion = errors.New("no completion returned")
)

// Config holds client settings. Zero values fall back to the defaults above.
type Config struct {
	BaseURL string
	Model   string

	// Temperature is sent as given, including 0. Nil selects DefaultTemperature.
	Temperature *float64
	MaxTokens   int

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Perplexity generates drafts with a chat completion model. The API key is
// supplied per call, so one value can serve every request.
type Perplexity struct {
	client      openai.Client
	cfg         Config
	temperature float64
}

// NewPerplexity creates a client. Retries are disabled: each Generate call
// makes exactly one request.
func NewPerplexity(cfg Config) *Perplexity {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	temperature := DefaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	opts := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Perplexity{
		client:      openai.NewClient(opts...),
		cfg:         cfg,
		temperature: temperature,
	}
}

// Generate sends prompt with the fixed system instruction and returns the
// trimmed text of the first choice.
func (p *Perplexity) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	if apiKey == "" {
		return "", ErrMissingAPIKey
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature:      openai.Float(p.temperature),
		MaxTokens:        openai.Int(int64(p.cfg.MaxTokens)),
		TopP:             openai.Float(DefaultTopP),
		FrequencyPenalty: openai.Float(0),
		PresencePenalty:  openai.Float(0),
	}

	resp, err := p.client.Chat.Completions.New(ctx, params, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Model returns the configured model name.
func (p *Perplexity) Model() string {
	return p.cfg.Model
}
