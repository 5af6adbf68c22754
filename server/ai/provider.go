// Package ai wraps the LLM client used for coaching replies. It owns retry,
// timeout, and concurrency policy so callers only see Chat.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/semaphore"

	"github.com/amicoach/amicoach/internal/profile"
	apierrors "github.com/amicoach/amicoach/server/internal/errors"
)

// Config holds the AI provider configuration.
type Config struct {
	BaseURL        string
	APIKey         string
	ChatModel      string
	MaxRetries     int
	Timeout        time.Duration
	MaxConcurrency int64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "https://api.openai.com/v1",
		ChatModel:      "gpt-4o-mini",
		MaxRetries:     3,
		Timeout:        30 * time.Second,
		MaxConcurrency: 8,
	}
}

// Message represents a chat message.
type Message struct {
	Role    string
	Content string
}

// Chatter is the LLM surface the coach service depends on.
type Chatter interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Provider is the go-openai backed Chatter.
type Provider struct {
	client *openai.Client
	config *Config
	sem    *semaphore.Weighted
}

// NewProvider creates a new AI provider.
func NewProvider(cfg *Config) (*Provider, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("AI API key is required")
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 8
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Provider{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
		sem:    semaphore.NewWeighted(cfg.MaxConcurrency),
	}, nil
}

// NewProviderFromProfile creates a provider from the server profile.
func NewProviderFromProfile(p *profile.Profile) (*Provider, error) {
	cfg := DefaultConfig()
	if p.AIBaseURL != "" {
		cfg.BaseURL = p.AIBaseURL
	}
	if p.AIChatModel != "" {
		cfg.ChatModel = p.AIChatModel
	}
	cfg.APIKey = p.AIAPIKey
	return NewProvider(cfg)
}

// Chat performs a chat completion. Concurrent calls beyond the configured
// cap wait for a slot or for ctx cancellation.
func (p *Provider) Chat(ctx context.Context, messages []Message) (string, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer p.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	var result string
	err := p.doWithRetry(ctx, func() error {
		llmMessages := make([]openai.ChatCompletionMessage, len(messages))
		for i, msg := range messages {
			llmMessages[i] = openai.ChatCompletionMessage{
				Role:    msg.Role,
				Content: msg.Content,
			}
		}

		resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    p.config.ChatModel,
			Messages: llmMessages,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty chat response")
		}
		result = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", apierrors.Timeout("chat completion timed out")
		}
		return "", apierrors.LLMUnavailable("failed to complete chat", err)
	}
	return result, nil
}

// doWithRetry executes a function with exponential backoff retry.
func (p *Provider) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < p.config.MaxRetries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			if attempt < p.config.MaxRetries-1 {
				waitTime := time.Duration(math.Pow(2, float64(attempt))) * time.Second
				slog.Debug("AI request failed, retrying",
					"attempt", attempt+1,
					"wait_time", waitTime,
					"error", err)
				select {
				case <-time.After(waitTime):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	return lastErr
}

// Ensure Provider implements Chatter.
var _ Chatter = (*Provider)(nil)
