package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sakashimaa/eventhub/services/ticket/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type SnapshotRepository interface {
	Save(ctx context.Context, snapshot *domain.ConfigSnapshot) error
	Latest(ctx context.Context, eventID int64) (*domain.ConfigSnapshot, error)
}

type snapshotRepo struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

func NewSnapshotRepository(pool *pgxpool.Pool) SnapshotRepository {
	return &snapshotRepo{
		pool:   pool,
		tracer: otel.Tracer("repository/snapshot_repo"),
	}
}

func (r *snapshotRepo) Save(ctx context.Context, snapshot *domain.ConfigSnapshot) error {
	ctx, span := r.tracer.Start(ctx, "SnapshotRepository.Save")
	defer span.End()

	span.SetAttributes(attribute.Int64("event_id", snapshot.EventID))

	payload, err := json.Marshal(snapshot.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket config: %w", err)
	}

	query := `
		INSERT INTO ticket_config_snapshots (event_id, event_code, payload)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	if err := r.pool.QueryRow(ctx, query, snapshot.EventID, snapshot.EventCode, payload).
		Scan(&snapshot.ID, &snapshot.CreatedAt); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save ticket config snapshot: %w", err)
	}

	return nil
}

func (r *snapshotRepo) Latest(ctx context.Context, eventID int64) (*domain.ConfigSnapshot, error) {
	ctx, span := r.tracer.Start(ctx, "SnapshotRepository.Latest")
	defer span.End()

	span.SetAttributes(attribute.Int64("event_id", eventID))

	query := `
		SELECT id, event_id, event_code, payload, created_at
		FROM ticket_config_snapshots
		WHERE event_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var (
		s       domain.ConfigSnapshot
		payload []byte
	)
	if err := r.pool.QueryRow(ctx, query, eventID).Scan(&s.ID, &s.EventID, &s.EventCode, &payload, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("failed to query ticket config snapshot: %w", err)
	}

	if err := json.Unmarshal(payload, &s.Payload); err != nil {
		return nil, fmt.Errorf("failed to decode ticket config snapshot %d: %w", s.ID, err)
	}

	return &s, nil
}
