// Package anthropic provides a capability gateway backed by the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/UIDickinson/EE-RI-Bot/capability"
	"github.com/UIDickinson/EE-RI-Bot/core"
)

// Options configures the Anthropic gateway (model id, max tokens,
// temperature, API key). Extend via functional options to preserve
// stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
	// RetryDelay is the pause before the single local retry on a transient
	// provider error. Completions are costed calls so only one retry is
	// attempted.
	RetryDelay time.Duration
}

// Gateway wraps the Anthropic Messages API behind core.Capability.
type Gateway struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic gateway using the official client.
func New(optFns ...func(o *Options)) *Gateway {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
		RetryDelay:  time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Gateway{client: &client, opts: opts}
}

// NewFromClient creates a gateway from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Gateway {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
		RetryDelay:  time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Gateway{client: client, opts: opts}
}

// Complete implements core.Capability. Transient provider errors get one
// local retry; quota signals surface immediately as
// core.ErrCapabilityQuotaExceeded.
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
	params := anthropic.MessageNewParams{
		Model:       g.opts.Model,
		MaxTokens:   g.maxTokens(p),
		Messages:    buildMessages(p),
		Temperature: anthropic.Float(g.opts.Temperature),
	}

	if p.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: p.System}}
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", classify(err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}

	return sb.String(), nil
}

func (g *Gateway) maxTokens(p core.Prompt) int64 {
	if p.MaxTokens > 0 {
		return int64(p.MaxTokens)
	}
	return g.opts.MaxTokens
}

// Info implements core.Capability.
func (g *Gateway) Info() core.CapabilityInfo {
	return core.CapabilityInfo{Provider: "anthropic", Model: string(g.opts.Model)}
}

// buildMessages converts prompt history plus the prompt body into the
// Anthropic message format. Roles other than assistant are treated as user.
func buildMessages(p core.Prompt) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(p.History)+1)
	for _, it := range p.History {
		if it.Text == "" {
			continue
		}
		if it.Role == "assistant" {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(it.Text)))
		} else {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(it.Text)))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(p.Text)))
	return messages
}

// classify maps SDK errors to the pipeline taxonomy.
func classify(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return capability.ClassifyStatus(apierr.StatusCode, fmt.Errorf("anthropic api error: %w", err))
	}
	return capability.ClassifyStatus(0, fmt.Errorf("anthropic api error: %w", err))
}
