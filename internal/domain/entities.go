package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrRateLimited       = errors.New("rate limited")
	ErrUpstreamRateLimit = errors.New("upstream rate limit")
	ErrEmptyCompletion   = errors.New("empty completion")
	ErrAllModelsFailed   = errors.New("all models failed")
	ErrMalformedResponse = errors.New("malformed model response")
	ErrInternal          = errors.New("internal error")
)

// Intent enumerates the supported AI pipeline operations.
type Intent string

const (
	IntentAnalyzeIdea   Intent = "analyze_idea"
	IntentGenerateTasks Intent = "generate_tasks"
	IntentMentorChat    Intent = "mentor_chat"
)

// ParseIntent validates a raw intent string.
// Unknown values surface ErrInvalidArgument without any model call.
func ParseIntent(s string) (Intent, error) {
	switch Intent(s) {
	case IntentAnalyzeIdea, IntentGenerateTasks, IntentMentorChat:
		return Intent(s), nil
	}
	return "", fmt.Errorf("%w: unknown intent %q", ErrInvalidArgument, s)
}

// AssistPayload is the intent-specific input.
// Fields required by the active intent must be present and non-empty;
// fields belonging to other intents are ignored.
type AssistPayload struct {
	Idea        string   `json:"idea,omitempty"`
	Features    []string `json:"features,omitempty"`
	Question    string   `json:"question,omitempty"`
	Context     string   `json:"context,omitempty"`
	ProjectName string   `json:"projectName,omitempty"`
	Duration    string   `json:"duration,omitempty"`
}

// ResultSource tags where an AssistResult came from.
type ResultSource string

const (
	SourceModel    ResultSource = "model"
	SourceFallback ResultSource = "fallback"
	SourceCache    ResultSource = "cache"
)

// AssistResult is the outcome of one pipeline run.
// Source distinguishes genuine model output from canned fallback content.
type AssistResult struct {
	Result string
	Cached bool
	Source ResultSource
}

// IdeaAnalysis is the structured result of IntentAnalyzeIdea.
// Invariant on acceptance: ProblemStatement non-empty, TargetUsers a sequence.
type IdeaAnalysis struct {
	ProblemStatement     string   `json:"problem_statement"`
	TargetUsers          []string `json:"target_users"`
	Features             []string `json:"features"`
	Risks                []string `json:"risks"`
	TechStackSuggestions []string `json:"tech_stack_suggestions"`
}

// Effort levels for task drafts.
const (
	EffortLow    = "Low"
	EffortMedium = "Medium"
	EffortHigh   = "High"
)

// ValidEffort reports whether e is one of the three accepted levels.
func ValidEffort(e string) bool {
	return e == EffortLow || e == EffortMedium || e == EffortHigh
}

// TaskDraft is one element of the IntentGenerateTasks result after defaulting.
type TaskDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Effort      string `json:"effort"`
}

// TaskStatus enumerates board columns.
type TaskStatus string

const (
	TaskToDo       TaskStatus = "ToDo"
	TaskInProgress TaskStatus = "InProgress"
	TaskDone       TaskStatus = "Done"
)

// Project is a hackathon workspace shared by a team.
type Project struct {
	ID        string
	Name      string
	Duration  string
	CreatedBy string
	Members   []string
	JoinCode  string
	DemoMode  bool
	Idea      *IdeaAnalysis
	CreatedAt time.Time
}

// Task is a persisted board item derived from a TaskDraft.
type Task struct {
	ID          string
	ProjectID   string
	Title       string
	Description string
	Effort      string
	Status      TaskStatus
	AssignedTo  *string
	LastUpdated time.Time
}

// ChatMessage is one mentor-chat exchange line.
type ChatMessage struct {
	ID         string
	ProjectID  string
	Sender     string
	SenderType string // "user" | "ai"
	Content    string
	Timestamp  time.Time
}

// Repositories (ports)

type ProjectRepository interface {
	Create(ctx Context, p Project) (string, error)
	Get(ctx Context, id string) (Project, error)
	FindByJoinCode(ctx Context, code string) (Project, error)
	AddMember(ctx Context, id, userID string) error
	UpdateIdea(ctx Context, id string, idea IdeaAnalysis) error
	SetDemoMode(ctx Context, id string, enabled bool) error
}

type TaskRepository interface {
	CreateBatch(ctx Context, tasks []Task) error
	ListByProject(ctx Context, projectID string) ([]Task, error)
	UpdateStatus(ctx Context, id string, status TaskStatus, assignedTo *string) error
}

type ChatRepository interface {
	Create(ctx Context, m ChatMessage) (string, error)
	ListByProject(ctx Context, projectID string) ([]ChatMessage, error)
}

// ResponseCache (port) fronts the whole AI pipeline. Implementations must be
// safe for concurrent use; Get treats expired entries as absent.
type ResponseCache interface {
	Get(ctx Context, key string) (string, bool)
	Set(ctx Context, key, text string)
	Clear(ctx Context)
}

// CompletionClient (port) issues one chat completion attempt against a single
// backend model behind the gateway.
type CompletionClient interface {
	Complete(ctx Context, model, prompt string) (string, error)
}

// Context is an alias so usecases stay decoupled from transport packages.
type Context = context.Context
