package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-assistant/internal/domain"
)

// TicketFilter captures agent workbench search parameters.
type TicketFilter struct {
	ConversationID *string
	AgentID        *string
	Statuses       []domain.TicketStatus
	Priorities     []domain.TicketPriority
	Category       *string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	Limit          int
	Offset         int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByExternalKey(ctx context.Context, key string) (*domain.Ticket, error)
	FindActiveByConversation(ctx context.Context, conversationID string) ([]domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (external_key, conversation_id, category, status, priority, reasons, assigned_agent_id, resolution_notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ExternalKey,
		ticket.ConversationID,
		ticket.Category,
		ticket.Status,
		ticket.Priority,
		reasonStrings(ticket.Reasons),
		ticket.AssignedAgentID,
		ticket.ResolutionNotes,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET category=$1, status=$2, priority=$3, reasons=$4, assigned_agent_id=$5,
            resolution_notes=$6, closed_at=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Category,
		ticket.Status,
		ticket.Priority,
		reasonStrings(ticket.Reasons),
		ticket.AssignedAgentID,
		ticket.ResolutionNotes,
		ticket.ClosedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, external_key, conversation_id, category, status, priority, reasons,
               assigned_agent_id, resolution_notes, created_at, updated_at, closed_at
        FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByExternalKey(ctx context.Context, key string) (*domain.Ticket, error) {
	const query = `
        SELECT id, external_key, conversation_id, category, status, priority, reasons,
               assigned_agent_id, resolution_notes, created_at, updated_at, closed_at
        FROM tickets WHERE external_key=$1`
	return r.fetchSingle(ctx, query, key)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var reasons []string
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&ticket.ID,
		&ticket.ExternalKey,
		&ticket.ConversationID,
		&ticket.Category,
		&ticket.Status,
		&ticket.Priority,
		&reasons,
		&ticket.AssignedAgentID,
		&ticket.ResolutionNotes,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	ticket.Reasons = toReasonCodes(reasons)
	return &ticket, nil
}

func (r *ticketRepository) FindActiveByConversation(ctx context.Context, conversationID string) ([]domain.Ticket, error) {
	const query = `
        SELECT id, external_key, conversation_id, category, status, priority, reasons,
               assigned_agent_id, resolution_notes, created_at, updated_at, closed_at
        FROM tickets
        WHERE conversation_id=$1 AND status IN ('OPEN','ASSIGNED','IN_PROGRESS')
        ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT id, external_key, conversation_id, category, status, priority, reasons,
                    assigned_agent_id, resolution_notes, created_at, updated_at, closed_at
             FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ConversationID != nil {
		args = append(args, *filter.ConversationID)
		clauses = append(clauses, fmt.Sprintf("conversation_id=$%d", len(args)))
	}
	if filter.AgentID != nil {
		args = append(args, *filter.AgentID)
		clauses = append(clauses, fmt.Sprintf("assigned_agent_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Category != nil && strings.TrimSpace(*filter.Category) != "" {
		args = append(args, strings.ToLower(strings.TrimSpace(*filter.Category)))
		clauses = append(clauses, fmt.Sprintf("LOWER(category)=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		var reasons []string
		if err := rows.Scan(
			&ticket.ID,
			&ticket.ExternalKey,
			&ticket.ConversationID,
			&ticket.Category,
			&ticket.Status,
			&ticket.Priority,
			&reasons,
			&ticket.AssignedAgentID,
			&ticket.ResolutionNotes,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&ticket.ClosedAt,
		); err != nil {
			return nil, err
		}
		ticket.Reasons = toReasonCodes(reasons)
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func reasonStrings(reasons []domain.ReasonCode) []string {
	out := make([]string, len(reasons))
	for i, r := range reasons {
		out[i] = string(r)
	}
	return out
}

func toReasonCodes(values []string) []domain.ReasonCode {
	if len(values) == 0 {
		return nil
	}
	out := make([]domain.ReasonCode, len(values))
	for i, v := range values {
		out[i] = domain.ReasonCode(v)
	}
	return out
}
