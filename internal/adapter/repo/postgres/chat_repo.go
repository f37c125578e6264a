package postgres

import (
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/hackmate/hackmate-ai/internal/domain"
)

// ChatRepo persists and loads mentor chat messages using a minimal pgx pool.
type ChatRepo struct{ Pool PgxPool }

// NewChatRepo constructs a ChatRepo with the given pool.
func NewChatRepo(p PgxPool) *ChatRepo { return &ChatRepo{Pool: p} }

// Create inserts a chat message and returns its id.
func (r *ChatRepo) Create(ctx domain.Context, m domain.ChatMessage) (string, error) {
	tracer := otel.Tracer("repo.chat")
	ctx, span := tracer.Start(ctx, "chat.Create")
	defer span.End()
	id := m.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO chat_messages (id, project_id, sender, sender_type, content, ts) VALUES ($1,$2,$3,$4,$5,$6)`
	if _, err := r.Pool.Exec(ctx, q, id, m.ProjectID, m.Sender, m.SenderType, m.Content, m.Timestamp); err != nil {
		return "", fmt.Errorf("op=chat.create: %w", err)
	}
	return id, nil
}

// ListByProject returns a project's chat history oldest first.
func (r *ChatRepo) ListByProject(ctx domain.Context, projectID string) ([]domain.ChatMessage, error) {
	tracer := otel.Tracer("repo.chat")
	ctx, span := tracer.Start(ctx, "chat.ListByProject")
	defer span.End()
	q := `SELECT id, project_id, sender, sender_type, content, ts FROM chat_messages WHERE project_id=$1 ORDER BY ts, id`
	rows, err := r.Pool.Query(ctx, q, projectID)
	if err != nil {
		return nil, fmt.Errorf("op=chat.list: %w", err)
	}
	defer rows.Close()
	var out []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Sender, &m.SenderType, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("op=chat.list: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=chat.list: %w", err)
	}
	return out, nil
}
