package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-assistant/internal/domain"
)

// MessageRepository manages conversation transcripts.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository builds repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	const query = `
        INSERT INTO messages (conversation_id, role, content, metadata)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`

	meta := msg.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	return r.pool.QueryRow(ctx, query,
		msg.ConversationID,
		msg.Role,
		msg.Content,
		meta,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *messageRepository) ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error) {
	const query = `
        SELECT id, conversation_id, role, content, metadata, created_at
        FROM messages WHERE conversation_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Role,
			&msg.Content,
			&msg.Metadata,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
