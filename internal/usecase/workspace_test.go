package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackmate/hackmate-ai/internal/adapter/ai"
	"github.com/hackmate/hackmate-ai/internal/domain"
)

type fakeProjectRepo struct {
	projects map[string]domain.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[string]domain.Project)}
}

func (r *fakeProjectRepo) Create(_ domain.Context, p domain.Project) (string, error) {
	r.projects[p.ID] = p
	return p.ID, nil
}

func (r *fakeProjectRepo) Get(_ domain.Context, id string) (domain.Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return domain.Project{}, fmt.Errorf("%w: project %s", domain.ErrNotFound, id)
	}
	return p, nil
}

func (r *fakeProjectRepo) FindByJoinCode(_ domain.Context, code string) (domain.Project, error) {
	for _, p := range r.projects {
		if p.JoinCode == code {
			return p, nil
		}
	}
	return domain.Project{}, fmt.Errorf("%w: join code", domain.ErrNotFound)
}

func (r *fakeProjectRepo) AddMember(_ domain.Context, id, userID string) error {
	p, ok := r.projects[id]
	if !ok {
		return domain.ErrNotFound
	}
	for _, m := range p.Members {
		if m == userID {
			return nil
		}
	}
	p.Members = append(p.Members, userID)
	r.projects[id] = p
	return nil
}

func (r *fakeProjectRepo) UpdateIdea(_ domain.Context, id string, idea domain.IdeaAnalysis) error {
	p, ok := r.projects[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Idea = &idea
	r.projects[id] = p
	return nil
}

func (r *fakeProjectRepo) SetDemoMode(_ domain.Context, id string, enabled bool) error {
	p, ok := r.projects[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.DemoMode = enabled
	r.projects[id] = p
	return nil
}

type fakeTaskRepo struct {
	tasks map[string]domain.Task
}

func newFakeTaskRepo() *fakeTaskRepo { return &fakeTaskRepo{tasks: make(map[string]domain.Task)} }

func (r *fakeTaskRepo) CreateBatch(_ domain.Context, tasks []domain.Task) error {
	for _, t := range tasks {
		r.tasks[t.ID] = t
	}
	return nil
}

func (r *fakeTaskRepo) ListByProject(_ domain.Context, projectID string) ([]domain.Task, error) {
	var out []domain.Task
	for _, t := range r.tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) UpdateStatus(_ domain.Context, id string, status domain.TaskStatus, assignedTo *string) error {
	t, ok := r.tasks[id]
	if !ok {
		return fmt.Errorf("%w: task %s", domain.ErrNotFound, id)
	}
	t.Status = status
	if assignedTo != nil {
		t.AssignedTo = assignedTo
	}
	r.tasks[id] = t
	return nil
}

type fakeChatRepo struct {
	messages []domain.ChatMessage
}

func (r *fakeChatRepo) Create(_ domain.Context, m domain.ChatMessage) (string, error) {
	r.messages = append(r.messages, m)
	return m.ID, nil
}

func (r *fakeChatRepo) ListByProject(_ domain.Context, projectID string) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	for _, m := range r.messages {
		if m.ProjectID == projectID {
			out = append(out, m)
		}
	}
	return out, nil
}

func newTestWorkspace(w Walker) (WorkspaceService, *fakeProjectRepo, *fakeTaskRepo, *fakeChatRepo) {
	projects := newFakeProjectRepo()
	tasks := newFakeTaskRepo()
	chat := &fakeChatRepo{}
	assist := NewAssistService(w, ai.NewResponseNormalizer(), ai.NewMemoryCache(5*time.Minute), 6, 8)
	return NewWorkspaceService(projects, tasks, chat, assist), projects, tasks, chat
}

func TestCreateProject(t *testing.T) {
	t.Parallel()
	ws, _, _, _ := newTestWorkspace(&stubWalker{})

	p, err := ws.CreateProject(context.Background(), "HackMate", "24h", "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "HackMate", p.Name)
	assert.Equal(t, []string{"user-1"}, p.Members)
	assert.Len(t, p.JoinCode, 6)
	assert.Equal(t, strings.ToUpper(p.JoinCode), p.JoinCode)

	got, err := ws.GetProject(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.JoinCode, got.JoinCode)
}

func TestCreateProjectValidation(t *testing.T) {
	t.Parallel()
	ws, _, _, _ := newTestWorkspace(&stubWalker{})

	_, err := ws.CreateProject(context.Background(), "", "24h", "u")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = ws.CreateProject(context.Background(), "n", "72h", "u")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = ws.CreateProject(context.Background(), "n", "24h", "")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestJoinProject(t *testing.T) {
	t.Parallel()
	ws, _, _, _ := newTestWorkspace(&stubWalker{})
	p, err := ws.CreateProject(context.Background(), "HackMate", "48h", "owner")
	require.NoError(t, err)

	// Codes are matched case insensitively.
	joined, err := ws.JoinProject(context.Background(), strings.ToLower(p.JoinCode), "friend")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"owner", "friend"}, joined.Members)

	// Joining twice keeps membership single.
	again, err := ws.JoinProject(context.Background(), p.JoinCode, "friend")
	require.NoError(t, err)
	assert.Len(t, again.Members, 2)

	_, err = ws.JoinProject(context.Background(), "NOPE99", "friend")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetDemoMode(t *testing.T) {
	t.Parallel()
	ws, repo, _, _ := newTestWorkspace(&stubWalker{})
	p, err := ws.CreateProject(context.Background(), "HackMate", "24h", "owner")
	require.NoError(t, err)

	require.NoError(t, ws.SetDemoMode(context.Background(), p.ID, true))
	got, err := repo.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, got.DemoMode)
}

func TestAnalyzeIdeaStoresAnalysis(t *testing.T) {
	t.Parallel()
	w := &stubWalker{out: `{"problem_statement":"Finding teammates is hard","target_users":["students"],"features":["matching"],"risks":["scope"],"tech_stack_suggestions":["Go"]}`}
	ws, repo, _, _ := newTestWorkspace(w)
	p, err := ws.CreateProject(context.Background(), "HackMate", "48h", "owner")
	require.NoError(t, err)

	analysis, res, err := ws.AnalyzeIdea(context.Background(), p.ID, "teammate matcher", "")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceModel, res.Source)
	assert.Equal(t, "Finding teammates is hard", analysis.ProblemStatement)

	stored, err := repo.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Idea)
	assert.Equal(t, analysis, *stored.Idea)

	// Empty duration falls back to the project's own duration.
	require.Len(t, w.prompts, 1)
	assert.Contains(t, w.prompts[0], "48h")
}

func TestAnalyzeIdeaUnknownProject(t *testing.T) {
	t.Parallel()
	ws, _, _, _ := newTestWorkspace(&stubWalker{})
	_, _, err := ws.AnalyzeIdea(context.Background(), "nope", "idea", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGenerateTasksPersistsBoard(t *testing.T) {
	t.Parallel()
	w := &stubWalker{out: `[{"title":"Design schema","description":"tables","effort":"Medium"},{"title":"Build API","description":"endpoints","effort":"High"}]`}
	ws, repo, tasks, _ := newTestWorkspace(w)
	p, err := ws.CreateProject(context.Background(), "HackMate", "24h", "owner")
	require.NoError(t, err)

	// Stored idea features feed the prompt when the caller sends none.
	require.NoError(t, repo.UpdateIdea(context.Background(), p.ID, domain.IdeaAnalysis{
		ProblemStatement: "p",
		TargetUsers:      []string{"u"},
		Features:         []string{"matching", "chat"},
	}))

	created, res, err := ws.GenerateTasks(context.Background(), p.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceModel, res.Source)
	require.Len(t, created, 2)
	for _, task := range created {
		assert.Equal(t, domain.TaskToDo, task.Status)
		assert.Equal(t, p.ID, task.ProjectID)
		assert.NotEmpty(t, task.ID)
	}

	listed, err := tasks.ListByProject(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	require.Len(t, w.prompts, 1)
	assert.Contains(t, w.prompts[0], "matching, chat")
}

func TestUpdateTaskStatus(t *testing.T) {
	t.Parallel()
	w := &stubWalker{out: `[{"title":"One","description":"d","effort":"Low"}]`}
	ws, _, _, _ := newTestWorkspace(w)
	p, err := ws.CreateProject(context.Background(), "HackMate", "24h", "owner")
	require.NoError(t, err)
	created, _, err := ws.GenerateTasks(context.Background(), p.ID, []string{"f"})
	require.NoError(t, err)
	require.Len(t, created, 1)

	who := "owner"
	require.NoError(t, ws.UpdateTaskStatus(context.Background(), created[0].ID, domain.TaskInProgress, &who))

	listed, err := ws.ListTasks(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, domain.TaskInProgress, listed[0].Status)
	require.NotNil(t, listed[0].AssignedTo)
	assert.Equal(t, "owner", *listed[0].AssignedTo)

	err = ws.UpdateTaskStatus(context.Background(), created[0].ID, "Blocked", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestMentorChatRecordsExchange(t *testing.T) {
	t.Parallel()
	w := &stubWalker{out: "Cut scope."}
	ws, _, _, _ := newTestWorkspace(w)
	p, err := ws.CreateProject(context.Background(), "HackMate", "24h", "owner")
	require.NoError(t, err)

	reply, res, err := ws.MentorChat(context.Background(), p.ID, "owner", "Too much to do?", "")
	require.NoError(t, err)
	assert.Equal(t, "Cut scope.", reply.Content)
	assert.Equal(t, "ai", reply.SenderType)
	assert.Equal(t, domain.SourceModel, res.Source)

	msgs, err := ws.ListMessages(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].SenderType)
	assert.Equal(t, "Too much to do?", msgs[0].Content)
	assert.Equal(t, "ai", msgs[1].SenderType)
}

func TestMentorChatFailureRecordsNothing(t *testing.T) {
	t.Parallel()
	w := &stubWalker{err: domain.ErrAllModelsFailed}
	ws, _, _, chat := newTestWorkspace(w)
	p, err := ws.CreateProject(context.Background(), "HackMate", "24h", "owner")
	require.NoError(t, err)

	_, _, err = ws.MentorChat(context.Background(), p.ID, "owner", "hello?", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAllModelsFailed)
	assert.Empty(t, chat.messages)
}
