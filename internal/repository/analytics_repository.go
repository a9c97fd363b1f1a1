package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ConversationTotals summarizes conversation volume in a window.
type ConversationTotals struct {
	Total     int
	Escalated int
	Closed    int
}

// TicketTotals summarizes ticket volume in a window.
type TicketTotals struct {
	Total    int
	Active   int
	Resolved int
	Closed   int
}

// AnalyticsRepository serves the reporting queries behind the KPI surface.
type AnalyticsRepository interface {
	ConversationTotals(ctx context.Context, from, to time.Time) (ConversationTotals, error)
	TicketTotals(ctx context.Context, from, to time.Time) (TicketTotals, error)
	TicketsByPriority(ctx context.Context, from, to time.Time) (map[string]int, error)
	SignalsByIntent(ctx context.Context, from, to time.Time) (map[string]int, error)
}

type analyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository builds repository.
func NewAnalyticsRepository(pool *pgxpool.Pool) AnalyticsRepository {
	return &analyticsRepository{pool: pool}
}

func (r *analyticsRepository) ConversationTotals(ctx context.Context, from, to time.Time) (ConversationTotals, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status='escalated'),
               COUNT(*) FILTER (WHERE status='closed')
        FROM conversations WHERE created_at >= $1 AND created_at < $2`

	var totals ConversationTotals
	err := r.pool.QueryRow(ctx, query, from, to).Scan(&totals.Total, &totals.Escalated, &totals.Closed)
	return totals, err
}

func (r *analyticsRepository) TicketTotals(ctx context.Context, from, to time.Time) (TicketTotals, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status IN ('OPEN','ASSIGNED','IN_PROGRESS')),
               COUNT(*) FILTER (WHERE status='RESOLVED'),
               COUNT(*) FILTER (WHERE status='CLOSED')
        FROM tickets WHERE created_at >= $1 AND created_at < $2`

	var totals TicketTotals
	err := r.pool.QueryRow(ctx, query, from, to).Scan(&totals.Total, &totals.Active, &totals.Resolved, &totals.Closed)
	return totals, err
}

func (r *analyticsRepository) TicketsByPriority(ctx context.Context, from, to time.Time) (map[string]int, error) {
	const query = `
        SELECT priority, COUNT(*) FROM tickets
        WHERE created_at >= $1 AND created_at < $2
        GROUP BY priority`
	return r.countsBy(ctx, query, from, to)
}

func (r *analyticsRepository) SignalsByIntent(ctx context.Context, from, to time.Time) (map[string]int, error) {
	const query = `
        SELECT intent_category, COUNT(*) FROM signals
        WHERE captured_at >= $1 AND captured_at < $2
        GROUP BY intent_category`
	return r.countsBy(ctx, query, from, to)
}

func (r *analyticsRepository) countsBy(ctx context.Context, query string, from, to time.Time) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		result[key] = count
	}
	return result, rows.Err()
}
