package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-assistant/internal/domain"
)

// SocialPostRepository records the outcome of every handled public post.
type SocialPostRepository interface {
	Create(ctx context.Context, post *domain.ProcessedPost) error
	GetByPostID(ctx context.Context, postID string) (*domain.ProcessedPost, error)
	ListRecent(ctx context.Context, limit, offset int) ([]domain.ProcessedPost, error)
}

type socialPostRepository struct {
	pool *pgxpool.Pool
}

// NewSocialPostRepository builds repository.
func NewSocialPostRepository(pool *pgxpool.Pool) SocialPostRepository {
	return &socialPostRepository{pool: pool}
}

func (r *socialPostRepository) Create(ctx context.Context, post *domain.ProcessedPost) error {
	const query = `
        INSERT INTO social_posts (post_id, author, content, hashtags, escalated, priority, ticket_id, contact_token, replied, processed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        ON CONFLICT (post_id) DO UPDATE SET
            escalated=EXCLUDED.escalated, priority=EXCLUDED.priority, ticket_id=EXCLUDED.ticket_id,
            contact_token=EXCLUDED.contact_token, replied=EXCLUDED.replied, processed_at=EXCLUDED.processed_at
        RETURNING id`

	var priority *string
	if post.Priority != nil {
		p := string(*post.Priority)
		priority = &p
	}
	return r.pool.QueryRow(ctx, query,
		post.PostID,
		post.Author,
		post.Content,
		textArray(post.Hashtags),
		post.Escalated,
		priority,
		post.TicketID,
		post.ContactToken,
		post.Replied,
		post.ProcessedAt,
	).Scan(&post.ID)
}

func (r *socialPostRepository) GetByPostID(ctx context.Context, postID string) (*domain.ProcessedPost, error) {
	const query = `
        SELECT id, post_id, author, content, hashtags, escalated, priority, ticket_id, contact_token, replied, processed_at
        FROM social_posts WHERE post_id=$1`

	post, err := scanProcessedPost(r.pool.QueryRow(ctx, query, postID))
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (r *socialPostRepository) ListRecent(ctx context.Context, limit, offset int) ([]domain.ProcessedPost, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, post_id, author, content, hashtags, escalated, priority, ticket_id, contact_token, replied, processed_at
        FROM social_posts ORDER BY processed_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ProcessedPost
	for rows.Next() {
		post, err := scanProcessedPost(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *post)
	}
	return result, rows.Err()
}

func scanProcessedPost(row pgx.Row) (*domain.ProcessedPost, error) {
	var post domain.ProcessedPost
	var priority *string
	if err := row.Scan(
		&post.ID,
		&post.PostID,
		&post.Author,
		&post.Content,
		&post.Hashtags,
		&post.Escalated,
		&priority,
		&post.TicketID,
		&post.ContactToken,
		&post.Replied,
		&post.ProcessedAt,
	); err != nil {
		return nil, err
	}
	if priority != nil {
		p := domain.TicketPriority(*priority)
		post.Priority = &p
	}
	return &post, nil
}
