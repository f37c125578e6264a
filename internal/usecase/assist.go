// Package usecase contains application business logic services.
package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"log/slog"

	"github.com/hackmate/hackmate-ai/internal/adapter/ai"
	"github.com/hackmate/hackmate-ai/internal/adapter/ai/tokencount"
	"github.com/hackmate/hackmate-ai/internal/adapter/observability"
	"github.com/hackmate/hackmate-ai/internal/domain"
)

const defaultDuration = "24h"
const defaultChatContext = "Hackathon project"

// Walker is the fallback walker port consumed by the assist service.
type Walker interface {
	Run(ctx domain.Context, prompt string) (string, error)
}

// Normalizer is the response normalizer port consumed by the assist service.
type Normalizer interface {
	Extract(raw string, shape ai.Shape) (any, error)
}

// AssistService is the action processor: it maps an intent to a prompt, runs
// the fallback walker, normalizes and validates structured output, and
// degrades to deterministic fallback content for the structured intents.
// A response cache fronts every intent, mentor chat included.
type AssistService struct {
	Walker     Walker
	Normalizer Normalizer
	Cache      domain.ResponseCache
	MinTasks   int
	MaxTasks   int

	tokens *tokencount.Counter
}

// NewAssistService constructs an AssistService with its dependencies.
func NewAssistService(w Walker, n Normalizer, c domain.ResponseCache, minTasks, maxTasks int) AssistService {
	return AssistService{
		Walker:     w,
		Normalizer: n,
		Cache:      c,
		MinTasks:   minTasks,
		MaxTasks:   maxTasks,
		tokens:     tokencount.NewCounter(),
	}
}

// Fingerprint derives the deterministic cache key for (intent, payload).
// AssistPayload is a fixed struct, so the serialization has stable key order.
func Fingerprint(intent domain.Intent, p domain.AssistPayload) string {
	b, _ := json.Marshal(p)
	return string(intent) + ":" + string(b)
}

// Process runs one pipeline invocation: cache lookup, intent dispatch,
// cache store. Invalid intents fail before any model call.
func (s AssistService) Process(ctx domain.Context, action string, payload domain.AssistPayload) (domain.AssistResult, error) {
	intent, err := domain.ParseIntent(action)
	if err != nil {
		return domain.AssistResult{}, err
	}
	if err := validatePayload(intent, payload); err != nil {
		return domain.AssistResult{}, err
	}

	key := Fingerprint(intent, payload)
	if text, ok := s.Cache.Get(ctx, key); ok {
		observability.CacheHitsTotal.WithLabelValues(string(intent)).Inc()
		return domain.AssistResult{Result: text, Cached: true, Source: domain.SourceCache}, nil
	}
	observability.CacheMissesTotal.WithLabelValues(string(intent)).Inc()

	var (
		result string
		source domain.ResultSource
	)
	switch intent {
	case domain.IntentAnalyzeIdea:
		result, source, err = s.analyzeIdea(ctx, payload)
	case domain.IntentGenerateTasks:
		result, source, err = s.generateTasks(ctx, payload)
	case domain.IntentMentorChat:
		result, source, err = s.mentorChat(ctx, payload)
	}
	if err != nil {
		return domain.AssistResult{}, err
	}

	observability.AssistRequestsTotal.WithLabelValues(string(intent), string(source)).Inc()
	s.Cache.Set(ctx, key, result)
	return domain.AssistResult{Result: result, Cached: false, Source: source}, nil
}

func validatePayload(intent domain.Intent, p domain.AssistPayload) error {
	switch intent {
	case domain.IntentAnalyzeIdea:
		if strings.TrimSpace(p.Idea) == "" {
			return fmt.Errorf("%w: idea is required", domain.ErrInvalidArgument)
		}
	case domain.IntentGenerateTasks:
		if strings.TrimSpace(p.ProjectName) == "" {
			return fmt.Errorf("%w: projectName is required", domain.ErrInvalidArgument)
		}
	case domain.IntentMentorChat:
		if strings.TrimSpace(p.Question) == "" {
			return fmt.Errorf("%w: question is required", domain.ErrInvalidArgument)
		}
	}
	return nil
}

func durationOrDefault(d string) string {
	if strings.TrimSpace(d) == "" {
		return defaultDuration
	}
	return d
}

// analyzeIdea returns a serialized IdeaAnalysis, substituting static fallback
// content when the walker, the normalizer, or shape validation fails.
func (s AssistService) analyzeIdea(ctx domain.Context, p domain.AssistPayload) (string, domain.ResultSource, error) {
	prompt := analyzeIdeaPrompt(p.Idea, durationOrDefault(p.Duration))
	observability.AIPromptTokens.WithLabelValues(string(domain.IntentAnalyzeIdea)).Observe(float64(s.tokens.Count(prompt)))

	obj, err := s.runStructured(ctx, prompt, ai.ShapeObject)
	if err == nil {
		m, ok := obj.(map[string]any)
		if ok && validIdeaAnalysis(m) {
			b, _ := json.Marshal(m)
			return string(b), domain.SourceModel, nil
		}
		err = fmt.Errorf("%w: idea analysis shape rejected", domain.ErrMalformedResponse)
	}

	slog.Warn("idea analysis pipeline failed, using fallback content", slog.Any("error", err))
	b, _ := json.Marshal(fallbackIdeaAnalysis())
	return string(b), domain.SourceFallback, nil
}

// validIdeaAnalysis enforces the acceptance invariant: non-empty problem
// statement and target_users typed as a sequence. Other fields may be empty.
func validIdeaAnalysis(m map[string]any) bool {
	ps, ok := m["problem_statement"].(string)
	if !ok || strings.TrimSpace(ps) == "" {
		return false
	}
	_, ok = m["target_users"].([]any)
	return ok
}

// generateTasks returns a serialized array of TaskDrafts. Every element,
// model-derived or fallback, passes the defaulting rule so callers always see
// a uniform shape.
func (s AssistService) generateTasks(ctx domain.Context, p domain.AssistPayload) (string, domain.ResultSource, error) {
	prompt := generateTasksPrompt(p.ProjectName, p.Features, durationOrDefault(p.Duration), s.MinTasks, s.MaxTasks)
	observability.AIPromptTokens.WithLabelValues(string(domain.IntentGenerateTasks)).Observe(float64(s.tokens.Count(prompt)))

	source := domain.SourceModel
	var elements []any

	v, err := s.runStructured(ctx, prompt, ai.ShapeArray)
	if err == nil {
		arr, ok := v.([]any)
		if ok && len(arr) > 0 {
			elements = arr
		} else {
			err = fmt.Errorf("%w: empty task array", domain.ErrMalformedResponse)
		}
	}
	if elements == nil {
		slog.Warn("task generation pipeline failed, using fallback content", slog.Any("error", err))
		source = domain.SourceFallback
		for _, t := range fallbackTaskDrafts() {
			elements = append(elements, t)
		}
	}

	drafts := make([]domain.TaskDraft, 0, len(elements))
	for _, el := range elements {
		drafts = append(drafts, draftFromElement(el))
	}
	b, _ := json.Marshal(drafts)
	return string(b), source, nil
}

// draftFromElement applies the defaulting rule to one raw array element.
// Title defaults when absent or empty; description only when absent (an
// explicit empty string is preserved); effort must be one of the three levels.
func draftFromElement(el any) domain.TaskDraft {
	d := domain.TaskDraft{
		Title:       "Untitled Task",
		Description: "No description provided",
		Effort:      domain.EffortMedium,
	}
	m, ok := el.(map[string]any)
	if !ok {
		return d
	}
	if t, ok := m["title"].(string); ok && strings.TrimSpace(t) != "" {
		d.Title = t
	}
	if desc, ok := m["description"].(string); ok {
		d.Description = desc
	}
	if e, ok := m["effort"].(string); ok && domain.ValidEffort(e) {
		d.Effort = e
	}
	return d
}

// mentorChat returns free text; pipeline failures propagate unchanged.
func (s AssistService) mentorChat(ctx domain.Context, p domain.AssistPayload) (string, domain.ResultSource, error) {
	chatContext := p.Context
	if strings.TrimSpace(chatContext) == "" {
		chatContext = defaultChatContext
	}
	prompt := mentorChatPrompt(chatContext, p.Question)
	observability.AIPromptTokens.WithLabelValues(string(domain.IntentMentorChat)).Observe(float64(s.tokens.Count(prompt)))

	out, err := s.Walker.Run(ctx, prompt)
	if err != nil {
		return "", "", fmt.Errorf("op=assist.mentor_chat: %w", err)
	}
	return out, domain.SourceModel, nil
}

func (s AssistService) runStructured(ctx domain.Context, prompt string, shape ai.Shape) (any, error) {
	raw, err := s.Walker.Run(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return s.Normalizer.Extract(raw, shape)
}
