// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package llm wraps the model provider behind a small generation interface.
// The agents only need one capability, turning a prompt into text, so the
// provider SDK is captured behind an interface subset that tests can stub.
// Transient provider failures (rate limits, 5xx, transport drops) are retried
// with exponential backoff; a process-wide rate limiter spaces requests so
// parallel workers stay inside the configured requests-per-minute budget.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/abdoukaba/Autogen-BIRD/internal/config"
	apperrors "github.com/abdoukaba/Autogen-BIRD/internal/errors"
)

// Request is one generation call: a system prompt setting the agent's role
// and a user prompt carrying the question and schema.
type Request struct {
	Model       string
	Temperature float32
	System      string
	User        string
}

// Generator turns a prompt into text. The agent wrappers depend on this
// interface only, never on the provider SDK.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// chatAPI is the subset of the provider SDK the client uses.
type chatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	api        chatAPI
	limiter    *rate.Limiter
	maxRetries int
	logger     *zap.Logger
}

// New builds a client from the provider configuration. The API key must
// already be resolved (config file, environment, or keychain).
func New(cfg config.ProviderConfig, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.New(apperrors.Provider,
			"no API key configured; run 'birdsql login' or export OPENAI_API_KEY")
	}

	sdkCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		sdkCfg.BaseURL = cfg.BaseURL
	}
	if cfg.TimeoutSeconds > 0 {
		sdkCfg.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout()}
	}

	return &Client{
		api:        openai.NewClientWithConfig(sdkCfg),
		limiter:    newLimiter(cfg.RequestsPerMinute),
		maxRetries: cfg.MaxRetries,
		logger:     logger,
	}, nil
}

// newLimiter spaces requests to the given per-minute budget. Zero disables
// limiting.
func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

// Generate runs one chat completion and returns the raw response text.
// Transient failures are retried up to the configured bound with 1s, 2s, 4s
// backoff; anything else fails immediately with a provider error.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(1<<(attempt-1)) * time.Second
			c.logger.Warn("retrying provider call",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", wait),
				zap.Error(lastErr))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return "", apperrors.Wrap(apperrors.Provider, "generation canceled", ctx.Err())
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return "", apperrors.Wrap(apperrors.Provider, "generation canceled", err)
		}

		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       req.Model,
			Temperature: req.Temperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: req.System},
				{Role: openai.ChatMessageRoleUser, Content: req.User},
			},
		})
		if err != nil {
			lastErr = err
			if Transient(err) {
				continue
			}
			return "", apperrors.Wrap(apperrors.Provider, fmt.Sprintf("model %s request failed", req.Model), err)
		}
		if len(resp.Choices) == 0 {
			lastErr = errors.New("empty choices in response")
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}
	return "", apperrors.Wrap(apperrors.Provider,
		fmt.Sprintf("model %s unreachable after %d retries", req.Model, c.maxRetries), lastErr)
}

// ListModels returns the model identifiers visible to the configured key.
// Used by login to validate a key and by the models command.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.Wrap(apperrors.Provider, "request canceled", err)
	}
	list, err := c.api.ListModels(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Provider, "list models", err)
	}
	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// Transient reports whether a provider error is worth retrying: rate limits,
// server-side failures, and transport drops. Auth and malformed-request
// errors are not; retrying them only burns the budget.
func Transient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return true
		case apiErr.HTTPStatusCode >= 500:
			return true
		default:
			return false
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"connection refused", "connection reset", "unexpected eof", "no such host", "timeout"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
