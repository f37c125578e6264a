// Package freemodels verifies the configured model roster against the
// gateway's live model catalog.
//
// The roster itself is static deployment configuration; this service never
// reorders it. It only reports which roster entries are still listed as free
// by the gateway, for readiness details and metrics.
package freemodels

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"log/slog"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/hackmate/hackmate-ai/internal/adapter/observability"
)

// Model represents one catalog entry from the gateway.
type Model struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Pricing Pricing `json:"pricing"`
}

// Pricing holds per-unit price strings; "0" means free.
type Pricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

// Free reports whether the model is billed at zero for prompt and completion.
func (m Model) Free() bool {
	return (m.Pricing.Prompt == "" || m.Pricing.Prompt == "0") &&
		(m.Pricing.Completion == "" || m.Pricing.Completion == "0")
}

type catalogResponse struct {
	Data []Model `json:"data"`
}

// Service fetches and caches the gateway model catalog.
type Service struct {
	apiKey  string
	baseURL string
	hc      *http.Client
	refresh time.Duration

	mu        sync.RWMutex
	catalog   map[string]Model
	lastFetch time.Time
}

// NewService creates a catalog service for the given gateway.
func NewService(apiKey, baseURL string, refresh time.Duration) *Service {
	return &Service{
		apiKey:  apiKey,
		baseURL: baseURL,
		hc:      &http.Client{Timeout: 30 * time.Second},
		refresh: refresh,
	}
}

// VerifyRoster refreshes the catalog when stale and reports, per roster model,
// whether it is still listed free. The roster_models_listed gauge is updated
// as a side effect.
func (s *Service) VerifyRoster(ctx context.Context, roster []string) (map[string]bool, error) {
	if err := s.ensureFresh(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(roster))
	for _, id := range roster {
		m, ok := s.catalog[id]
		listed := ok && m.Free()
		out[id] = listed
		v := 0.0
		if listed {
			v = 1.0
		}
		observability.RosterModelsListed.WithLabelValues(id).Set(v)
		if !listed {
			slog.Warn("roster model not listed free in gateway catalog", slog.String("model", id))
		}
	}
	return out, nil
}

// Run re-verifies the roster on the refresh interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context, roster []string) {
	ticker := time.NewTicker(s.refresh)
	defer ticker.Stop()
	for {
		if _, err := s.VerifyRoster(ctx, roster); err != nil {
			slog.Error("roster verification failed", slog.Any("error", err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Service) ensureFresh(ctx context.Context) error {
	s.mu.RLock()
	fresh := s.catalog != nil && time.Since(s.lastFetch) <= s.refresh
	s.mu.RUnlock()
	if fresh {
		return nil
	}

	var models []Model
	op := func() error {
		var err error
		models, err = s.fetchCatalog(ctx)
		return err
	}
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 500 * time.Millisecond
	expo.MaxElapsedTime = 15 * time.Second
	if err := backoff.Retry(op, backoff.WithContext(expo, ctx)); err != nil {
		s.mu.RLock()
		hasCached := s.catalog != nil
		s.mu.RUnlock()
		if hasCached {
			// Stale catalog beats no catalog.
			slog.Warn("using stale model catalog after fetch failure", slog.Any("error", err))
			return nil
		}
		return fmt.Errorf("op=freemodels.fetch: %w", err)
	}

	byID := make(map[string]Model, len(models))
	for _, m := range models {
		byID[m.ID] = m
	}
	s.mu.Lock()
	s.catalog = byID
	s.lastFetch = time.Now()
	s.mu.Unlock()
	slog.Info("model catalog refreshed", slog.Int("count", len(models)))
	return nil
}

func (s *Service) fetchCatalog(ctx context.Context) ([]Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("models status %d", resp.StatusCode)
	}
	var out catalogResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Data, nil
}
