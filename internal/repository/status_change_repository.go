package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-assistant/internal/domain"
)

// StatusChangeRepository stores the immutable transition audit trail.
type StatusChangeRepository interface {
	Create(ctx context.Context, change *domain.StatusChange) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.StatusChange, error)
	LatestByTicket(ctx context.Context, ticketID string) (*domain.StatusChange, error)
}

type statusChangeRepository struct {
	pool *pgxpool.Pool
}

// NewStatusChangeRepository builds repository.
func NewStatusChangeRepository(pool *pgxpool.Pool) StatusChangeRepository {
	return &statusChangeRepository{pool: pool}
}

func (r *statusChangeRepository) Create(ctx context.Context, change *domain.StatusChange) error {
	const query = `
        INSERT INTO status_changes (ticket_id, from_status, to_status, actor_ref, note, at)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		change.TicketID,
		change.From,
		change.To,
		change.ActorRef,
		change.Note,
		change.At,
	).Scan(&change.ID)
}

func (r *statusChangeRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.StatusChange, error) {
	const query = `
        SELECT id, ticket_id, from_status, to_status, actor_ref, note, at
        FROM status_changes WHERE ticket_id=$1 ORDER BY at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusChange
	for rows.Next() {
		var change domain.StatusChange
		if err := rows.Scan(
			&change.ID,
			&change.TicketID,
			&change.From,
			&change.To,
			&change.ActorRef,
			&change.Note,
			&change.At,
		); err != nil {
			return nil, err
		}
		result = append(result, change)
	}
	return result, rows.Err()
}

// LatestByTicket returns the most recent audit entry, or nil when the
// ticket has no transitions yet.
func (r *statusChangeRepository) LatestByTicket(ctx context.Context, ticketID string) (*domain.StatusChange, error) {
	const query = `
        SELECT id, ticket_id, from_status, to_status, actor_ref, note, at
        FROM status_changes WHERE ticket_id=$1 ORDER BY at DESC LIMIT 1`

	var change domain.StatusChange
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&change.ID,
		&change.TicketID,
		&change.From,
		&change.To,
		&change.ActorRef,
		&change.Note,
		&change.At,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &change, nil
}
