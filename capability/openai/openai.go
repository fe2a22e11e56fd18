// Package openai provides a capability gateway backed by the OpenAI Chat
// Completions API. Setting a base URL points the same gateway at
// OpenRouter's OpenAI-compatible endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/UIDickinson/EE-RI-Bot/capability"
	"github.com/UIDickinson/EE-RI-Bot/core"
)

// Options configure the OpenAI gateway. Fields mirror a minimal subset of
// Chat Completion parameters; extend via functional options without
// breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
	// BaseURL overrides the API endpoint (OpenRouter compatibility).
	BaseURL string
	// Provider labels the gateway in CapabilityInfo; defaults to "openai",
	// set to "openrouter" when routing through a base URL.
	Provider string
	// RetryDelay is the pause before the single local retry on a transient
	// provider error.
	RetryDelay time.Duration
}

// Gateway wraps the OpenAI Chat Completions API behind core.Capability.
type Gateway struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI gateway using the official client.
func New(optFns ...func(o *Options)) *Gateway {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
		if opts.Provider == "openai" {
			opts.Provider = "openrouter"
		}
	}

	client := openai.NewClient(clientOpts...)

	return &Gateway{client: &client, opts: opts}
}

// NewFromClient creates a gateway from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Gateway {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Gateway{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:               openai.ChatModelGPT4o,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
		Provider:            "openai",
		RetryDelay:          time.Second,
	}
}

// Complete implements core.Capability with one local retry on transient
// provider errors.
func (g *Gateway) Complete(ctx context.Context, p core.Prompt) (string, error) {
	text, err := g.complete(ctx, p)
	if err == nil {
		return text, nil
	}
	if errors.Is(err, core.ErrCapabilityQuotaExceeded) {
		return "", err
	}
	if !core.IsTransient(err) {
		return "", capability.Unavailable(err)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(g.opts.RetryDelay):
	}

	text, err = g.complete(ctx, p)
	if err == nil {
		return text, nil
	}
	if errors.Is(err, core.ErrCapabilityQuotaExceeded) {
		return "", err
	}
	return "", capability.Unavailable(err)
}

func (g *Gateway) complete(ctx context.Context, p core.Prompt) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(p),
		Model:               g.opts.Model,
		Temperature:         openai.Float(g.opts.Temperature),
		MaxCompletionTokens: openai.Int(g.maxTokens(p)),
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai api error: no choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

func (g *Gateway) maxTokens(p core.Prompt) int64 {
	if p.MaxTokens > 0 {
		return int64(p.MaxTokens)
	}
	return g.opts.MaxCompletionTokens
}

// Info implements core.Capability.
func (g *Gateway) Info() core.CapabilityInfo {
	return core.CapabilityInfo{Provider: g.opts.Provider, Model: g.opts.Model}
}

// buildMessages converts prompt history plus the prompt body into OpenAI
// chat messages.
func buildMessages(p core.Prompt) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if p.System != "" {
		messages = append(messages, openai.SystemMessage(p.System))
	}
	for _, it := range p.History {
		if strings.TrimSpace(it.Text) == "" {
			continue
		}
		if it.Role == "assistant" {
			messages = append(messages, openai.AssistantMessage(it.Text))
		} else {
			messages = append(messages, openai.UserMessage(it.Text))
		}
	}
	messages = append(messages, openai.UserMessage(p.Text))
	return messages
}

// classify maps SDK errors to the pipeline taxonomy.
func classify(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return capability.ClassifyStatus(apierr.StatusCode, fmt.Errorf("openai api error: %w", err))
	}
	return capability.ClassifyStatus(0, fmt.Errorf("openai api error: %w", err))
}
