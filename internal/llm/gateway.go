// Package llm is the boundary to the external text-completion service.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/focusnest/server/internal/apperr"
)

// Sampling parameters are passed through to the provider unchanged.
type Sampling struct {
	Temperature float32
	TopP        float32
}

// Gateway sends one role-tagged prompt and returns the raw reply text.
// Failures are *apperr.Error with KindUpstreamUnavailable (network, timeout,
// cancellation) or KindUpstreamError (non-2xx, malformed reply).
type Gateway interface {
	Complete(ctx context.Context, systemRole, userPrompt string, s Sampling) (string, error)
}

// OpenAIConfig configures an OpenAI-compatible chat completion endpoint.
type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// OpenAIGateway implements Gateway with the chat completions API.
type OpenAIGateway struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewOpenAIGateway creates a new OpenAIGateway
func NewOpenAIGateway(cfg OpenAIConfig, logger *slog.Logger) *OpenAIGateway {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIGateway{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Complete issues one chat completion under the configured timeout. The
// caller's cancellation aborts the outbound request.
func (g *OpenAIGateway) Complete(ctx context.Context, systemRole, userPrompt string, s Sampling) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemRole},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: s.Temperature,
		TopP:        s.TopP,
	})
	if err != nil {
		mapped := classify(ctx, err)
		g.logger.WarnContext(ctx, "completion failed",
			"model", g.model, "kind", apperr.KindOf(mapped), "elapsed", time.Since(start), "error", err)
		return "", mapped
	}
	if len(resp.Choices) == 0 {
		return "", apperr.New(apperr.KindUpstreamError, "completion service returned no choices")
	}

	g.logger.DebugContext(ctx, "completion done", "model", g.model, "elapsed", time.Since(start),
		"total_tokens", resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}

func classify(ctx context.Context, err error) error {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	var netErr net.Error

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), ctx.Err() != nil:
		return apperr.Wrap(apperr.KindUpstreamUnavailable, "completion service timed out", err)
	case errors.As(err, &netErr):
		return apperr.Wrap(apperr.KindUpstreamUnavailable, "completion service unreachable", err)
	case errors.As(err, &apiErr):
		return apperr.Wrap(apperr.KindUpstreamError,
			fmt.Sprintf("completion service returned status %d", apiErr.HTTPStatusCode), err)
	case errors.As(err, &reqErr):
		return apperr.Wrap(apperr.KindUpstreamError,
			fmt.Sprintf("completion service returned status %d", reqErr.HTTPStatusCode), err)
	default:
		return apperr.Wrap(apperr.KindUpstreamError, "completion service returned a malformed response", err)
	}
}
