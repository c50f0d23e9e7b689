package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sakashimaa/eventhub/pkg/outbox/domain"
	"github.com/sakashimaa/eventhub/pkg/outbox/worker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const maxAttempts = 10

type outboxRepo struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
	logger *zap.Logger
}

func NewOutboxRepository(pool *pgxpool.Pool, logger *zap.Logger) worker.OutboxRepository {
	return &outboxRepo{
		pool:   pool,
		tracer: otel.Tracer("outbox/outbox_repo"),
		logger: logger,
	}
}

func (r *outboxRepo) SaveOutboxEvent(ctx context.Context, tx pgx.Tx, event *domain.OutboxEvent) error {
	ctx, span := r.tracer.Start(ctx, "OutboxRepository.SaveOutboxEvent")
	defer span.End()

	span.SetAttributes(
		attribute.String("aggregate_id", event.AggregateID),
		attribute.String("aggregate_type", event.AggregateType),
		attribute.String("event_type", event.EventType),
	)

	query := `
		INSERT INTO outbox (aggregate_type, aggregate_id, event_type, payload, headers, topic)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := tx.QueryRow(
		ctx,
		query,
		event.AggregateType,
		event.AggregateID,
		event.EventType,
		event.Payload,
		event.Headers,
		event.Topic,
	).Scan(&event.Id, &event.CreatedAt)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save outbox event: %w", err)
	}

	return nil
}

func (r *outboxRepo) GetUnpublishedEvents(ctx context.Context, tx pgx.Tx, batchSize int) ([]*domain.OutboxEvent, error) {
	ctx, span := r.tracer.Start(ctx, "OutboxRepository.GetUnpublishedEvents")
	defer span.End()

	span.SetAttributes(
		attribute.Int("batch_size", batchSize),
	)

	query := `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, headers, created_at, attempts, topic
		FROM outbox
		WHERE published_at IS NULL AND attempts < $2
		ORDER BY id ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`

	rows, err := tx.Query(ctx, query, batchSize, maxAttempts)
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("failed to query unpublished events: %w", err)
	}
	defer rows.Close()

	var events []*domain.OutboxEvent
	for rows.Next() {
		var e domain.OutboxEvent
		if err := rows.Scan(
			&e.Id,
			&e.AggregateType,
			&e.AggregateID,
			&e.EventType,
			&e.Payload,
			&e.Headers,
			&e.CreatedAt,
			&e.Attempts,
			&e.Topic,
		); err != nil {
			span.RecordError(err)

			return nil, fmt.Errorf("error scanning event: %w", err)
		}

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("result_count", len(events)),
	)

	return events, nil
}

func (r *outboxRepo) MarkEventPublished(ctx context.Context, tx pgx.Tx, eventID int64) error {
	ctx, span := r.tracer.Start(ctx, "OutboxRepository.MarkEventPublished")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
	)

	query := `
		UPDATE outbox
		SET published_at = NOW(), last_error = NULL
		WHERE id = $1
	`

	if _, err := tx.Exec(ctx, query, eventID); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

func (r *outboxRepo) MarkEventFailed(ctx context.Context, tx pgx.Tx, eventID int64, errMsg string) error {
	ctx, span := r.tracer.Start(ctx, "OutboxRepository.MarkEventFailed")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
		attribute.String("outbox.error_message", errMsg),
	)

	query := `
		UPDATE outbox
		SET last_error = $1,
			attempts = attempts + 1
		WHERE id = $2
	`

	if _, err := tx.Exec(ctx, query, errMsg, eventID); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

func (r *outboxRepo) DeletePublishedBefore(ctx context.Context, before time.Time) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "OutboxRepository.DeletePublishedBefore")
	defer span.End()

	query := `
		DELETE FROM outbox
		WHERE published_at IS NOT NULL AND published_at < $1
	`

	tag, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to purge outbox: %w", err)
	}

	span.SetAttributes(attribute.Int64("deleted", tag.RowsAffected()))

	return tag.RowsAffected(), nil
}
