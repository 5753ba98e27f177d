package summarizer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = openai.GPT3Dot5Turbo

	// DefaultTimeout bounds a single completion call.
	DefaultTimeout = 30 * time.Second

	systemPrompt = "You are a helpful assistant that summarizes notes concisely."
	userPrompt   = "Please provide a concise summary of the following note in 2-3 sentences:\n\nTitle: %s\n\nContent: %s"

	maxTokens   = 150
	temperature = 0.7
)

// OpenAIConfig configures an OpenAI-compatible chat completion client.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // empty uses the public OpenAI endpoint
	Timeout time.Duration
}

// OpenAI summarizes notes with a chat completion model.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates a summarizer. It never contacts the API.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

// Model returns the configured chat model name.
func (o *OpenAI) Model() string {
	return o.model
}

// Summarize asks the model for a 2-3 sentence summary.
func (o *OpenAI) Summarize(ctx context.Context, title, content string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(title, content)},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptySummary
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", ErrEmptySummary
	}

	return summary, nil
}

// BuildPrompt renders the user message sent to the model.
func BuildPrompt(title, content string) string {
	return fmt.Sprintf(userPrompt, title, content)
}
