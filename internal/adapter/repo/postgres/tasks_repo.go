package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/hackmate/hackmate-ai/internal/domain"
)

// TaskRepo persists and loads board tasks using a minimal pgx pool.
type TaskRepo struct{ Pool PgxPool }

// NewTaskRepo constructs a TaskRepo with the given pool.
func NewTaskRepo(p PgxPool) *TaskRepo { return &TaskRepo{Pool: p} }

// CreateBatch inserts generated tasks in one pass.
func (r *TaskRepo) CreateBatch(ctx domain.Context, tasks []domain.Task) error {
	tracer := otel.Tracer("repo.tasks")
	ctx, span := tracer.Start(ctx, "tasks.CreateBatch")
	defer span.End()
	q := `INSERT INTO tasks (id, project_id, title, description, effort, status, assigned_to, last_updated) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	for _, t := range tasks {
		id := t.ID
		if id == "" {
			id = uuid.New().String()
		}
		if _, err := r.Pool.Exec(ctx, q, id, t.ProjectID, t.Title, t.Description, t.Effort, t.Status, t.AssignedTo, t.LastUpdated); err != nil {
			return fmt.Errorf("op=task.create_batch: %w", err)
		}
	}
	return nil
}

// ListByProject returns a project's tasks in creation order.
func (r *TaskRepo) ListByProject(ctx domain.Context, projectID string) ([]domain.Task, error) {
	tracer := otel.Tracer("repo.tasks")
	ctx, span := tracer.Start(ctx, "tasks.ListByProject")
	defer span.End()
	q := `SELECT id, project_id, title, description, effort, status, assigned_to, last_updated FROM tasks WHERE project_id=$1 ORDER BY last_updated, id`
	rows, err := r.Pool.Query(ctx, q, projectID)
	if err != nil {
		return nil, fmt.Errorf("op=task.list: %w", err)
	}
	defer rows.Close()
	var out []domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Effort, &t.Status, &t.AssignedTo, &t.LastUpdated); err != nil {
			return nil, fmt.Errorf("op=task.list: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=task.list: %w", err)
	}
	return out, nil
}

// UpdateStatus moves a task between board columns and updates the assignee.
func (r *TaskRepo) UpdateStatus(ctx domain.Context, id string, status domain.TaskStatus, assignedTo *string) error {
	tracer := otel.Tracer("repo.tasks")
	ctx, span := tracer.Start(ctx, "tasks.UpdateStatus")
	defer span.End()
	q := `UPDATE tasks SET status=$2, assigned_to=$3, last_updated=$4 WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, q, id, status, assignedTo, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=task.update_status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=task.update_status: %w", domain.ErrNotFound)
	}
	return nil
}
