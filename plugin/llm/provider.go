package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// Config holds the completion collaborator configuration.
type Config struct {
	Provider string // openai, deepseek, gemini
	APIKey   string
	BaseURL  string
	Model    string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider: "gemini",
		BaseURL:  "https://generativelanguage.googleapis.com/v1beta/openai",
		Model:    "gemini-2.5-pro",
	}
}

// Provider is the completion collaborator. All providers are reached through
// the OpenAI-compatible chat completion surface.
type Provider struct {
	client *openai.Client
	config *Config
}

// NewProvider creates a new completion provider.
func NewProvider(cfg *Config) (*Provider, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	baseURL := cfg.BaseURL
	model := cfg.Model
	switch cfg.Provider {
	case "gemini":
		// Gemini exposes an OpenAI-compatible endpoint
		if baseURL == "" {
			baseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
		}
		if model == "" {
			model = "gemini-2.5-pro"
		}
	case "deepseek":
		// DeepSeek is compatible with OpenAI API
		if baseURL == "" {
			baseURL = "https://api.deepseek.com"
		}
		if model == "" {
			model = "deepseek-chat"
		}
	case "openai":
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		if model == "" {
			model = "gpt-4o-mini"
		}
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	cfg.BaseURL = baseURL
	cfg.Model = model

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = baseURL

	return &Provider{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

// Model returns the selected model identifier.
func (p *Provider) Model() string {
	return p.config.Model
}

// Complete sends an ordered list of text segments to the completion endpoint
// and returns the completion text. The first segment of a multi-part request
// is treated as the instruction, the remainder as user content.
func (p *Provider) Complete(ctx context.Context, parts ...string) (string, error) {
	if len(parts) == 0 {
		return "", fmt.Errorf("no content to complete")
	}

	var messages []openai.ChatCompletionMessage
	if len(parts) == 1 {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: parts[0],
		})
	} else {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: parts[0],
		})
		for _, part := range parts[1:] {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: part,
			})
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.config.Model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty chat response")
	}

	return resp.Choices[0].Message.Content, nil
}
