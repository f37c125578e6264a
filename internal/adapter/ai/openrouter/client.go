// Package openrouter implements the completion gateway client against the
// OpenRouter chat-completions API.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"log/slog"

	"github.com/hackmate/hackmate-ai/internal/adapter/ai/tokencount"
	"github.com/hackmate/hackmate-ai/internal/adapter/observability"
	"github.com/hackmate/hackmate-ai/internal/config"
	"github.com/hackmate/hackmate-ai/internal/domain"
	"github.com/hackmate/hackmate-ai/pkg/textx"
)

// Delayer abstracts the post-429 cooldown so tests do not wait on wall clock.
type Delayer interface {
	Sleep(ctx context.Context, d time.Duration)
}

type clockDelayer struct{}

func (clockDelayer) Sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Client issues one chat-completion request per Complete call.
type Client struct {
	cfg    config.Config
	hc     *http.Client
	delay  Delayer
	tokens *tokencount.Counter
}

// New constructs a gateway client with a bounded request timeout.
func New(cfg config.Config) *Client {
	return &Client{
		cfg:    cfg,
		hc:     &http.Client{Timeout: cfg.ChatTimeout},
		delay:  clockDelayer{},
		tokens: tokencount.NewCounter(),
	}
}

// NewWithDelayer constructs a client with an injected cooldown strategy.
func NewWithDelayer(cfg config.Config, d Delayer) *Client {
	c := New(cfg)
	c.delay = d
	return c
}

// Complete sends a single user message to the given model and classifies the
// outcome. The prompt is silently truncated to the configured maximum length
// as a token-safety guard. On 429 the client sleeps the cooldown window
// before returning, so the caller does not immediately hammer the next model.
func (c *Client) Complete(ctx domain.Context, model, prompt string) (string, error) {
	prompt = textx.Truncate(prompt, c.cfg.PromptMaxChars)

	body := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	b, _ := json.Marshal(body)

	slog.Debug("calling completion gateway",
		slog.String("model", model),
		slog.Int("prompt_chars", len(prompt)),
		slog.Int("prompt_tokens_est", c.tokens.Count(prompt)))

	start := time.Now()
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OpenRouterBaseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("op=openrouter.complete: %w", err)
	}
	r.Header.Set("Authorization", "Bearer "+c.cfg.OpenRouterAPIKey)
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("HTTP-Referer", c.cfg.OpenRouterReferer)
	r.Header.Set("X-Title", c.cfg.OpenRouterTitle)

	resp, err := c.hc.Do(r)
	observability.AIAttemptDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.AIAttemptsTotal.WithLabelValues(model, "network_error").Inc()
		slog.Warn("gateway network error", slog.String("model", model), slog.Any("error", err))
		return "", fmt.Errorf("op=openrouter.complete: model %s: %w", model, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		observability.AIAttemptsTotal.WithLabelValues(model, "rate_limited").Inc()
		slog.Warn("gateway rate limited, cooling down",
			slog.String("model", model),
			slog.Duration("cooldown", c.cfg.RateLimitCooldown),
			slog.String("x_request_id", resp.Header.Get("X-Request-Id")))
		c.delay.Sleep(ctx, c.cfg.RateLimitCooldown)
		return "", fmt.Errorf("%w: model %s", domain.ErrUpstreamRateLimit, model)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observability.AIAttemptsTotal.WithLabelValues(model, "http_error").Inc()
		snippet := readSnippet(resp.Body, 512)
		slog.Warn("gateway non-2xx",
			slog.String("model", model),
			slog.Int("status", resp.StatusCode),
			slog.String("x_request_id", resp.Header.Get("X-Request-Id")),
			slog.String("body", snippet))
		return "", fmt.Errorf("op=openrouter.complete: model %s: chat status %d: %s", model, resp.StatusCode, snippet)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		observability.AIAttemptsTotal.WithLabelValues(model, "http_error").Inc()
		slog.Warn("gateway decode error", slog.String("model", model), slog.Any("error", err))
		return "", fmt.Errorf("op=openrouter.complete: model %s: decode: %w", model, err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		observability.AIAttemptsTotal.WithLabelValues(model, "empty").Inc()
		return "", fmt.Errorf("%w: model %s", domain.ErrEmptyCompletion, model)
	}

	observability.AIAttemptsTotal.WithLabelValues(model, "success").Inc()
	return out.Choices[0].Message.Content, nil
}

// readSnippet reads up to n bytes from r for diagnostics.
func readSnippet(r io.Reader, n int) string {
	b, _ := io.ReadAll(io.LimitReader(r, int64(n)))
	return string(b)
}
