package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hackmate/hackmate-ai/internal/config"
	"github.com/hackmate/hackmate-ai/internal/domain"
	"github.com/hackmate/hackmate-ai/pkg/textx"
)

// AssistService is the AI pipeline entry point consumed by the handlers.
type AssistService interface {
	Process(ctx domain.Context, action string, payload domain.AssistPayload) (domain.AssistResult, error)
}

// WorkspaceService is the project/task/chat collaborator consumed by the handlers.
type WorkspaceService interface {
	CreateProject(ctx domain.Context, name, duration, userID string) (domain.Project, error)
	GetProject(ctx domain.Context, id string) (domain.Project, error)
	JoinProject(ctx domain.Context, code, userID string) (domain.Project, error)
	SetDemoMode(ctx domain.Context, id string, enabled bool) error
	AnalyzeIdea(ctx domain.Context, projectID, idea, duration string) (domain.IdeaAnalysis, domain.AssistResult, error)
	GenerateTasks(ctx domain.Context, projectID string, features []string) ([]domain.Task, domain.AssistResult, error)
	ListTasks(ctx domain.Context, projectID string) ([]domain.Task, error)
	UpdateTaskStatus(ctx domain.Context, taskID string, status domain.TaskStatus, assignedTo *string) error
	MentorChat(ctx domain.Context, projectID, sender, question, chatContext string) (domain.ChatMessage, domain.AssistResult, error)
	ListMessages(ctx domain.Context, projectID string) ([]domain.ChatMessage, error)
}

// Server aggregates handler dependencies.
type Server struct {
	Cfg       config.Config
	Assist    AssistService
	Workspace WorkspaceService
	DBCheck   func(ctx context.Context) error

	// RosterCheck reports which roster models are still listed free by the
	// gateway; optional, surfaced as a readiness detail only.
	RosterCheck func(ctx context.Context) (map[string]bool, error)
}

// NewServer constructs an HTTP server with all handlers wired.
func NewServer(cfg config.Config, assist AssistService, ws WorkspaceService, dbCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Assist: assist, Workspace: ws, DBCheck: dbCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid json body", domain.ErrInvalidArgument)
	}
	if err := getValidator().Struct(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}

type assistRequest struct {
	Action string               `json:"action" validate:"required"`
	Data   domain.AssistPayload `json:"data"`
}

type assistResponse struct {
	Result string `json:"result"`
	Cached bool   `json:"cached"`
	Source string `json:"source"`
}

// AssistHandler exposes the raw pipeline: {action, data} in, {result, cached} out.
func (s *Server) AssistHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assistRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		req.Data.Idea = textx.SanitizeText(req.Data.Idea)
		req.Data.Question = textx.SanitizeText(req.Data.Question)
		res, err := s.Assist.Process(r.Context(), req.Action, req.Data)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, assistResponse{Result: res.Result, Cached: res.Cached, Source: string(res.Source)})
	}
}

type projectResponse struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Duration  string               `json:"duration"`
	CreatedBy string               `json:"created_by"`
	Members   []string             `json:"members"`
	JoinCode  string               `json:"join_code"`
	DemoMode  bool                 `json:"demo_mode"`
	Idea      *domain.IdeaAnalysis `json:"idea,omitempty"`
	CreatedAt string               `json:"created_at"`
}

func toProjectResponse(p domain.Project) projectResponse {
	return projectResponse{
		ID:        p.ID,
		Name:      p.Name,
		Duration:  p.Duration,
		CreatedBy: p.CreatedBy,
		Members:   p.Members,
		JoinCode:  p.JoinCode,
		DemoMode:  p.DemoMode,
		Idea:      p.Idea,
		CreatedAt: p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// CreateProjectHandler creates a workspace.
func (s *Server) CreateProjectHandler() http.HandlerFunc {
	type req struct {
		Name     string `json:"name" validate:"required"`
		Duration string `json:"duration" validate:"required,oneof=24h 48h"`
		UserID   string `json:"user_id" validate:"required"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err, nil)
			return
		}
		p, err := s.Workspace.CreateProject(r.Context(), in.Name, in.Duration, in.UserID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, toProjectResponse(p))
	}
}

// GetProjectHandler loads one workspace.
func (s *Server) GetProjectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.Workspace.GetProject(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toProjectResponse(p))
	}
}

// JoinProjectHandler adds a member via join code.
func (s *Server) JoinProjectHandler() http.HandlerFunc {
	type req struct {
		Code   string `json:"code" validate:"required"`
		UserID string `json:"user_id" validate:"required"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err, nil)
			return
		}
		p, err := s.Workspace.JoinProject(r.Context(), in.Code, in.UserID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toProjectResponse(p))
	}
}

// DemoModeHandler toggles demo mode on a workspace.
func (s *Server) DemoModeHandler() http.HandlerFunc {
	type req struct {
		Enabled bool `json:"enabled"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err, nil)
			return
		}
		if err := s.Workspace.SetDemoMode(r.Context(), chi.URLParam(r, "id"), in.Enabled); err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"demo_mode": in.Enabled})
	}
}

// AnalyzeIdeaHandler runs the analyze pipeline and stores the plan on the project.
func (s *Server) AnalyzeIdeaHandler() http.HandlerFunc {
	type req struct {
		Idea     string `json:"idea" validate:"required"`
		Duration string `json:"duration"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err, nil)
			return
		}
		analysis, res, err := s.Workspace.AnalyzeIdea(r.Context(), chi.URLParam(r, "id"), textx.SanitizeText(in.Idea), in.Duration)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"analysis": analysis,
			"cached":   res.Cached,
			"source":   string(res.Source),
		})
	}
}

type taskResponse struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"project_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Effort      string  `json:"effort"`
	Status      string  `json:"status"`
	AssignedTo  *string `json:"assigned_to"`
}

func toTaskResponses(tasks []domain.Task) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskResponse{
			ID:          t.ID,
			ProjectID:   t.ProjectID,
			Title:       t.Title,
			Description: t.Description,
			Effort:      t.Effort,
			Status:      string(t.Status),
			AssignedTo:  t.AssignedTo,
		})
	}
	return out
}

// GenerateTasksHandler runs the task pipeline and persists the drafts.
func (s *Server) GenerateTasksHandler() http.HandlerFunc {
	type req struct {
		Features []string `json:"features"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		// Body is optional; features default to the stored idea's features.
		if r.Body != nil && r.ContentLength != 0 {
			if err := decodeJSON(r, &in); err != nil {
				writeError(w, r, err, nil)
				return
			}
		}
		tasks, res, err := s.Workspace.GenerateTasks(r.Context(), chi.URLParam(r, "id"), in.Features)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"tasks":  toTaskResponses(tasks),
			"cached": res.Cached,
			"source": string(res.Source),
		})
	}
}

// ListTasksHandler returns the project's board items.
func (s *Server) ListTasksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tasks, err := s.Workspace.ListTasks(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tasks": toTaskResponses(tasks)})
	}
}

// UpdateTaskStatusHandler moves a task between board columns.
func (s *Server) UpdateTaskStatusHandler() http.HandlerFunc {
	type req struct {
		Status     string  `json:"status" validate:"required,oneof=ToDo InProgress Done"`
		AssignedTo *string `json:"assigned_to"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err, nil)
			return
		}
		if err := s.Workspace.UpdateTaskStatus(r.Context(), chi.URLParam(r, "id"), domain.TaskStatus(in.Status), in.AssignedTo); err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": in.Status})
	}
}

// MentorHandler answers a mentor question and records the exchange.
func (s *Server) MentorHandler() http.HandlerFunc {
	type req struct {
		Question string `json:"question" validate:"required"`
		Context  string `json:"context"`
		Sender   string `json:"sender"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err, nil)
			return
		}
		sender := in.Sender
		if strings.TrimSpace(sender) == "" {
			sender = "member"
		}
		msg, res, err := s.Workspace.MentorChat(r.Context(), chi.URLParam(r, "id"), sender, textx.SanitizeText(in.Question), in.Context)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"reply":  msg.Content,
			"cached": res.Cached,
			"source": string(res.Source),
		})
	}
}

// ListMessagesHandler returns the project's mentor chat history.
func (s *Server) ListMessagesHandler() http.HandlerFunc {
	type messageResponse struct {
		ID         string `json:"id"`
		Sender     string `json:"sender"`
		SenderType string `json:"sender_type"`
		Content    string `json:"content"`
		Timestamp  string `json:"timestamp"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		msgs, err := s.Workspace.ListMessages(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		out := make([]messageResponse, 0, len(msgs))
		for _, m := range msgs {
			out = append(out, messageResponse{
				ID:         m.ID,
				Sender:     m.Sender,
				SenderType: m.SenderType,
				Content:    m.Content,
				Timestamp:  m.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"messages": out})
	}
}

// ReadyzHandler reports readiness of the storage dependency, with the roster
// catalog state attached as a non-blocking detail.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.DBCheck != nil {
			if err := s.DBCheck(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ready": false, "db": err.Error()})
				return
			}
		}
		body := map[string]any{"ready": true}
		if s.RosterCheck != nil {
			// A degraded roster is worth reporting but never fails readiness;
			// the walker still works with whatever models remain.
			if roster, err := s.RosterCheck(r.Context()); err == nil {
				body["roster"] = roster
			}
		}
		writeJSON(w, http.StatusOK, body)
	}
}
