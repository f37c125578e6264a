package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/hackmate/hackmate-ai/internal/domain"
)

// ProjectRepo persists and loads projects using a minimal pgx pool.
type ProjectRepo struct{ Pool PgxPool }

// NewProjectRepo constructs a ProjectRepo with the given pool.
func NewProjectRepo(p PgxPool) *ProjectRepo { return &ProjectRepo{Pool: p} }

// Create inserts a new project and returns its id.
func (r *ProjectRepo) Create(ctx domain.Context, p domain.Project) (string, error) {
	tracer := otel.Tracer("repo.projects")
	ctx, span := tracer.Start(ctx, "projects.Create")
	defer span.End()
	id := p.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO projects (id, name, duration, created_by, members, join_code, demo_mode, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.Pool.Exec(ctx, q, id, p.Name, p.Duration, p.CreatedBy, p.Members, p.JoinCode, p.DemoMode, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=project.create: %w", err)
	}
	return id, nil
}

// Get loads a project by id, including any stored idea analysis.
func (r *ProjectRepo) Get(ctx domain.Context, id string) (domain.Project, error) {
	tracer := otel.Tracer("repo.projects")
	ctx, span := tracer.Start(ctx, "projects.Get")
	defer span.End()
	q := `SELECT id, name, duration, created_by, members, join_code, demo_mode, idea, created_at FROM projects WHERE id=$1`
	return r.scanProject(r.Pool.QueryRow(ctx, q, id), "project.get")
}

// FindByJoinCode loads a project by its join code.
func (r *ProjectRepo) FindByJoinCode(ctx domain.Context, code string) (domain.Project, error) {
	tracer := otel.Tracer("repo.projects")
	ctx, span := tracer.Start(ctx, "projects.FindByJoinCode")
	defer span.End()
	q := `SELECT id, name, duration, created_by, members, join_code, demo_mode, idea, created_at FROM projects WHERE join_code=$1 LIMIT 1`
	return r.scanProject(r.Pool.QueryRow(ctx, q, code), "project.find_join_code")
}

// AddMember appends userID to the members array when not already present.
func (r *ProjectRepo) AddMember(ctx domain.Context, id, userID string) error {
	tracer := otel.Tracer("repo.projects")
	ctx, span := tracer.Start(ctx, "projects.AddMember")
	defer span.End()
	q := `UPDATE projects SET members = array_append(members, $2) WHERE id=$1 AND NOT ($2 = ANY(members))`
	if _, err := r.Pool.Exec(ctx, q, id, userID); err != nil {
		return fmt.Errorf("op=project.add_member: %w", err)
	}
	return nil
}

// UpdateIdea stores the idea analysis as a JSON document on the project.
func (r *ProjectRepo) UpdateIdea(ctx domain.Context, id string, idea domain.IdeaAnalysis) error {
	tracer := otel.Tracer("repo.projects")
	ctx, span := tracer.Start(ctx, "projects.UpdateIdea")
	defer span.End()
	b, err := json.Marshal(idea)
	if err != nil {
		return fmt.Errorf("op=project.update_idea: %w", err)
	}
	q := `UPDATE projects SET idea=$2 WHERE id=$1`
	if _, err := r.Pool.Exec(ctx, q, id, b); err != nil {
		return fmt.Errorf("op=project.update_idea: %w", err)
	}
	return nil
}

// SetDemoMode toggles the demo flag.
func (r *ProjectRepo) SetDemoMode(ctx domain.Context, id string, enabled bool) error {
	tracer := otel.Tracer("repo.projects")
	ctx, span := tracer.Start(ctx, "projects.SetDemoMode")
	defer span.End()
	q := `UPDATE projects SET demo_mode=$2 WHERE id=$1`
	if _, err := r.Pool.Exec(ctx, q, id, enabled); err != nil {
		return fmt.Errorf("op=project.set_demo_mode: %w", err)
	}
	return nil
}

func (r *ProjectRepo) scanProject(row pgx.Row, op string) (domain.Project, error) {
	var p domain.Project
	var idea []byte
	if err := row.Scan(&p.ID, &p.Name, &p.Duration, &p.CreatedBy, &p.Members, &p.JoinCode, &p.DemoMode, &idea, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Project{}, fmt.Errorf("op=%s: %w", op, domain.ErrNotFound)
		}
		return domain.Project{}, fmt.Errorf("op=%s: %w", op, err)
	}
	if len(idea) > 0 {
		var a domain.IdeaAnalysis
		if err := json.Unmarshal(idea, &a); err != nil {
			return domain.Project{}, fmt.Errorf("op=%s: idea decode: %w", op, err)
		}
		p.Idea = &a
	}
	return p, nil
}
