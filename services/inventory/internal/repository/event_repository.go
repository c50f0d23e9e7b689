package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sakashimaa/eventhub/services/inventory/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type EventRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Event, error)
}

type eventRepo struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &eventRepo{
		pool:   pool,
		tracer: otel.Tracer("repository/event_repo"),
	}
}

func (r *eventRepo) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	ctx, span := r.tracer.Start(ctx, "EventRepository.GetByID")
	defer span.End()

	span.SetAttributes(attribute.Int64("event_id", id))

	query := `
		SELECT id, name, start_time, refund_enabled, refund_deadline_hours, refund_fee_percent
		FROM events
		WHERE id = $1
	`

	var e domain.Event
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&e.ID,
		&e.Name,
		&e.StartTime,
		&e.RefundEnabled,
		&e.RefundDeadlineHours,
		&e.RefundFeePercent,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("failed to query event %d: %w", id, err)
	}

	return &e, nil
}
