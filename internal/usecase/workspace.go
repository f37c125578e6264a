package usecase

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackmate/hackmate-ai/internal/domain"
)

const joinCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const joinCodeLen = 6

// WorkspaceService wires the assist pipeline to the persistence collaborators:
// projects, tasks, and mentor chat history. The AI core itself never writes
// to durable storage; this service hands validated results over.
type WorkspaceService struct {
	Projects domain.ProjectRepository
	Tasks    domain.TaskRepository
	Chat     domain.ChatRepository
	Assist   AssistService
}

// NewWorkspaceService constructs a WorkspaceService with its dependencies.
func NewWorkspaceService(p domain.ProjectRepository, t domain.TaskRepository, c domain.ChatRepository, a AssistService) WorkspaceService {
	return WorkspaceService{Projects: p, Tasks: t, Chat: c, Assist: a}
}

// CreateProject creates a workspace with a fresh join code.
func (s WorkspaceService) CreateProject(ctx domain.Context, name, duration, userID string) (domain.Project, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(userID) == "" {
		return domain.Project{}, fmt.Errorf("%w: name and user id required", domain.ErrInvalidArgument)
	}
	if duration != "24h" && duration != "48h" {
		return domain.Project{}, fmt.Errorf("%w: duration must be 24h or 48h", domain.ErrInvalidArgument)
	}
	p := domain.Project{
		ID:        uuid.New().String(),
		Name:      name,
		Duration:  duration,
		CreatedBy: userID,
		Members:   []string{userID},
		JoinCode:  newJoinCode(),
		CreatedAt: time.Now().UTC(),
	}
	id, err := s.Projects.Create(ctx, p)
	if err != nil {
		return domain.Project{}, err
	}
	p.ID = id
	return p, nil
}

// GetProject loads one project by id.
func (s WorkspaceService) GetProject(ctx domain.Context, id string) (domain.Project, error) {
	return s.Projects.Get(ctx, id)
}

// JoinProject adds userID to the project matching the join code.
func (s WorkspaceService) JoinProject(ctx domain.Context, code, userID string) (domain.Project, error) {
	if strings.TrimSpace(code) == "" || strings.TrimSpace(userID) == "" {
		return domain.Project{}, fmt.Errorf("%w: join code and user id required", domain.ErrInvalidArgument)
	}
	p, err := s.Projects.FindByJoinCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return domain.Project{}, err
	}
	if err := s.Projects.AddMember(ctx, p.ID, userID); err != nil {
		return domain.Project{}, err
	}
	return s.Projects.Get(ctx, p.ID)
}

// SetDemoMode toggles the demo flag on a project.
func (s WorkspaceService) SetDemoMode(ctx domain.Context, id string, enabled bool) error {
	return s.Projects.SetDemoMode(ctx, id, enabled)
}

// AnalyzeIdea runs the analyze pipeline and stores the resulting analysis on
// the project.
func (s WorkspaceService) AnalyzeIdea(ctx domain.Context, projectID, idea, duration string) (domain.IdeaAnalysis, domain.AssistResult, error) {
	p, err := s.Projects.Get(ctx, projectID)
	if err != nil {
		return domain.IdeaAnalysis{}, domain.AssistResult{}, err
	}
	if duration == "" {
		duration = p.Duration
	}
	res, err := s.Assist.Process(ctx, string(domain.IntentAnalyzeIdea), domain.AssistPayload{Idea: idea, Duration: duration})
	if err != nil {
		return domain.IdeaAnalysis{}, domain.AssistResult{}, err
	}
	var analysis domain.IdeaAnalysis
	if err := json.Unmarshal([]byte(res.Result), &analysis); err != nil {
		return domain.IdeaAnalysis{}, domain.AssistResult{}, fmt.Errorf("op=workspace.analyze_idea: %w", err)
	}
	if err := s.Projects.UpdateIdea(ctx, projectID, analysis); err != nil {
		return domain.IdeaAnalysis{}, domain.AssistResult{}, err
	}
	return analysis, res, nil
}

// GenerateTasks runs the task pipeline for the project's stored idea features
// (or the supplied ones) and persists the drafts as ToDo board items.
func (s WorkspaceService) GenerateTasks(ctx domain.Context, projectID string, features []string) ([]domain.Task, domain.AssistResult, error) {
	p, err := s.Projects.Get(ctx, projectID)
	if err != nil {
		return nil, domain.AssistResult{}, err
	}
	if len(features) == 0 && p.Idea != nil {
		features = p.Idea.Features
	}
	res, err := s.Assist.Process(ctx, string(domain.IntentGenerateTasks), domain.AssistPayload{
		ProjectName: p.Name,
		Features:    features,
		Duration:    p.Duration,
	})
	if err != nil {
		return nil, domain.AssistResult{}, err
	}
	var drafts []domain.TaskDraft
	if err := json.Unmarshal([]byte(res.Result), &drafts); err != nil {
		return nil, domain.AssistResult{}, fmt.Errorf("op=workspace.generate_tasks: %w", err)
	}
	now := time.Now().UTC()
	tasks := make([]domain.Task, 0, len(drafts))
	for _, d := range drafts {
		tasks = append(tasks, domain.Task{
			ID:          uuid.New().String(),
			ProjectID:   projectID,
			Title:       d.Title,
			Description: d.Description,
			Effort:      d.Effort,
			Status:      domain.TaskToDo,
			LastUpdated: now,
		})
	}
	if err := s.Tasks.CreateBatch(ctx, tasks); err != nil {
		return nil, domain.AssistResult{}, err
	}
	return tasks, res, nil
}

// ListTasks returns the project's board items.
func (s WorkspaceService) ListTasks(ctx domain.Context, projectID string) ([]domain.Task, error) {
	return s.Tasks.ListByProject(ctx, projectID)
}

// UpdateTaskStatus moves a board item between columns.
func (s WorkspaceService) UpdateTaskStatus(ctx domain.Context, taskID string, status domain.TaskStatus, assignedTo *string) error {
	switch status {
	case domain.TaskToDo, domain.TaskInProgress, domain.TaskDone:
	default:
		return fmt.Errorf("%w: unknown task status %q", domain.ErrInvalidArgument, status)
	}
	return s.Tasks.UpdateStatus(ctx, taskID, status, assignedTo)
}

// MentorChat runs the conversational pipeline and records the exchange as a
// user message plus an AI reply. Pipeline failures propagate; nothing is
// recorded for a failed exchange.
func (s WorkspaceService) MentorChat(ctx domain.Context, projectID, sender, question, chatContext string) (domain.ChatMessage, domain.AssistResult, error) {
	if _, err := s.Projects.Get(ctx, projectID); err != nil {
		return domain.ChatMessage{}, domain.AssistResult{}, err
	}
	res, err := s.Assist.Process(ctx, string(domain.IntentMentorChat), domain.AssistPayload{Question: question, Context: chatContext})
	if err != nil {
		return domain.ChatMessage{}, domain.AssistResult{}, err
	}
	now := time.Now().UTC()
	userMsg := domain.ChatMessage{
		ID:         uuid.New().String(),
		ProjectID:  projectID,
		Sender:     sender,
		SenderType: "user",
		Content:    question,
		Timestamp:  now,
	}
	aiMsg := domain.ChatMessage{
		ID:         uuid.New().String(),
		ProjectID:  projectID,
		Sender:     "HackMate AI",
		SenderType: "ai",
		Content:    res.Result,
		Timestamp:  now,
	}
	if _, err := s.Chat.Create(ctx, userMsg); err != nil {
		return domain.ChatMessage{}, domain.AssistResult{}, err
	}
	if _, err := s.Chat.Create(ctx, aiMsg); err != nil {
		return domain.ChatMessage{}, domain.AssistResult{}, err
	}
	return aiMsg, res, nil
}

// ListMessages returns the project's mentor chat history.
func (s WorkspaceService) ListMessages(ctx domain.Context, projectID string) ([]domain.ChatMessage, error) {
	return s.Chat.ListByProject(ctx, projectID)
}

func newJoinCode() string {
	b := make([]byte, joinCodeLen)
	for i := range b {
		b[i] = joinCodeChars[rand.Intn(len(joinCodeChars))] //nolint:gosec // join codes are not security tokens
	}
	return string(b)
}
