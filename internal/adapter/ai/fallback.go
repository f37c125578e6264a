package ai

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hackmate/hackmate-ai/internal/domain"
)

// FallbackWalker tries each roster model in order until one yields a
// completion. The roster is a priority-ordered retry chain, never raced.
type FallbackWalker struct {
	models []string
	client domain.CompletionClient
}

// NewFallbackWalker constructs a walker over the given roster.
func NewFallbackWalker(models []string, client domain.CompletionClient) *FallbackWalker {
	return &FallbackWalker{models: models, client: client}
}

// Run returns the first successful completion text, short-circuiting the rest
// of the roster. Failures are recorded as "last error seen" and the walk
// continues; an empty 2xx completion falls through without being recorded.
// Exhaustion yields ErrAllModelsFailed carrying the last recorded error.
func (w *FallbackWalker) Run(ctx domain.Context, prompt string) (string, error) {
	var lastErr error
	for i, model := range w.models {
		out, err := w.client.Complete(ctx, model, prompt)
		if err == nil {
			slog.Debug("model succeeded",
				slog.String("model", model),
				slog.Int("attempt", i+1),
				slog.Int("roster_size", len(w.models)))
			return out, nil
		}
		if errors.Is(err, domain.ErrEmptyCompletion) {
			slog.Warn("model returned empty completion, trying next",
				slog.String("model", model))
			continue
		}
		slog.Warn("model attempt failed, trying next",
			slog.String("model", model),
			slog.Int("attempt", i+1),
			slog.Any("error", err))
		lastErr = err
	}
	if lastErr != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrAllModelsFailed, lastErr)
	}
	return "", domain.ErrAllModelsFailed
}
