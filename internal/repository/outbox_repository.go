package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/course-checkout/internal/db"
	"github.com/nikolayk812/course-checkout/internal/domain"
	"github.com/nikolayk812/course-checkout/internal/port"
)

type outboxRepository struct {
	q *db.Queries
}

func NewOutbox(pool *pgxpool.Pool) port.OutboxRepository {
	return &outboxRepository{
		q: db.New(pool),
	}
}

func (r *outboxRepository) FetchPending(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit[%d] is not positive", limit)
	}

	rows, err := r.q.FetchPendingOutbox(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("q.FetchPendingOutbox: %w", err)
	}

	var events []domain.OutboxEvent
	for _, row := range rows {
		events = append(events, domain.OutboxEvent{
			ID:        row.ID,
			EventID:   row.EventID,
			Topic:     row.Topic,
			Key:       row.Key,
			Payload:   row.Payload,
			CreatedAt: row.CreatedAt,
			SentAt:    row.SentAt,
		})
	}

	return events, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, id int64) error {
	rowsAffected, err := r.q.MarkOutboxSent(ctx, id)
	if err != nil {
		return fmt.Errorf("q.MarkOutboxSent: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: outbox event[%d]", domain.ErrNotFound, id)
	}

	return nil
}
