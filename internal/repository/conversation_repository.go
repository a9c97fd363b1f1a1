package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-assistant/internal/domain"
)

// ConversationRepository defines persistence access for conversations and
// the signals evaluated within them.
type ConversationRepository interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	Update(ctx context.Context, conv *domain.Conversation) error
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
	GetByContextToken(ctx context.Context, token string) (*domain.Conversation, error)
	GetBySocialPost(ctx context.Context, postID string) (*domain.Conversation, error)
	SaveSignal(ctx context.Context, conversationID string, sig domain.EscalationSignal) error
	ListSignals(ctx context.Context, conversationID string) ([]domain.EscalationSignal, error)
}

type conversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository returns a Postgres-backed implementation.
func NewConversationRepository(pool *pgxpool.Pool) ConversationRepository {
	return &conversationRepository{pool: pool}
}

func (r *conversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	const query = `
        INSERT INTO conversations (customer_ref, channel, status, vip, context_token, social_author, social_post_id, prior_escalations)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		conv.CustomerRef,
		conv.Channel,
		conv.Status,
		conv.VIP,
		conv.ContextToken,
		conv.SocialAuthor,
		conv.SocialPostID,
		conv.PriorEscalations,
	).Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
}

func (r *conversationRepository) Update(ctx context.Context, conv *domain.Conversation) error {
	const query = `
        UPDATE conversations SET customer_ref=$1, status=$2, vip=$3, context_token=$4, prior_escalations=$5, updated_at=NOW()
        WHERE id=$6`

	cmd, err := r.pool.Exec(ctx, query,
		conv.CustomerRef,
		conv.Status,
		conv.VIP,
		conv.ContextToken,
		conv.PriorEscalations,
		conv.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *conversationRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	const query = `
        SELECT id, customer_ref, channel, status, vip, context_token, social_author, social_post_id, prior_escalations, created_at, updated_at
        FROM conversations WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *conversationRepository) GetByContextToken(ctx context.Context, token string) (*domain.Conversation, error) {
	const query = `
        SELECT id, customer_ref, channel, status, vip, context_token, social_author, social_post_id, prior_escalations, created_at, updated_at
        FROM conversations WHERE context_token=$1`
	return r.fetchSingle(ctx, query, token)
}

func (r *conversationRepository) GetBySocialPost(ctx context.Context, postID string) (*domain.Conversation, error) {
	const query = `
        SELECT id, customer_ref, channel, status, vip, context_token, social_author, social_post_id, prior_escalations, created_at, updated_at
        FROM conversations WHERE social_post_id=$1
        ORDER BY created_at ASC LIMIT 1`
	return r.fetchSingle(ctx, query, postID)
}

func (r *conversationRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Conversation, error) {
	var conv domain.Conversation
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&conv.ID,
		&conv.CustomerRef,
		&conv.Channel,
		&conv.Status,
		&conv.VIP,
		&conv.ContextToken,
		&conv.SocialAuthor,
		&conv.SocialPostID,
		&conv.PriorEscalations,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) SaveSignal(ctx context.Context, conversationID string, sig domain.EscalationSignal) error {
	const query = `
        INSERT INTO signals (conversation_id, confidence, sentiment, matched_keywords, legal_matches, cancellation_intent, intent_category, channel, source_ref, captured_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`

	_, err := r.pool.Exec(ctx, query,
		conversationID,
		sig.Confidence,
		sig.Sentiment,
		textArray(sig.MatchedKeywords),
		textArray(sig.LegalMatches),
		sig.CancellationIntent,
		sig.IntentCategory,
		sig.Channel,
		sig.SourceRef,
		sig.CapturedAt,
	)
	return err
}

func (r *conversationRepository) ListSignals(ctx context.Context, conversationID string) ([]domain.EscalationSignal, error) {
	const query = `
        SELECT confidence, sentiment, matched_keywords, legal_matches, cancellation_intent, intent_category, channel, source_ref, captured_at
        FROM signals WHERE conversation_id=$1
        ORDER BY captured_at ASC`

	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EscalationSignal
	for rows.Next() {
		var sig domain.EscalationSignal
		if err := rows.Scan(
			&sig.Confidence,
			&sig.Sentiment,
			&sig.MatchedKeywords,
			&sig.LegalMatches,
			&sig.CancellationIntent,
			&sig.IntentCategory,
			&sig.Channel,
			&sig.SourceRef,
			&sig.CapturedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, sig)
	}
	return result, rows.Err()
}

// textArray coerces nil slices to empty ones so NOT NULL array columns
// never receive SQL NULL.
func textArray(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
