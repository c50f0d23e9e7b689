package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sakashimaa/eventhub/services/order/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SagaRepository persists the checkout step log outside the business transactions it records.
type SagaRepository interface {
	Create(ctx context.Context, saga *domain.Saga) error
	AppendStep(ctx context.Context, step *domain.SagaStep) error
	MarkStepCompensated(ctx context.Context, sagaID string, seq int32) error
	SetOrder(ctx context.Context, sagaID string, orderID int64) error
	SetStatus(ctx context.Context, sagaID string, status domain.SagaStatus, lastErr string) error
	Get(ctx context.Context, sagaID string) (*domain.Saga, error)
	Steps(ctx context.Context, sagaID string) ([]domain.SagaStep, error)
	ClaimRecoverable(ctx context.Context, staleBefore, retryBefore time.Time, limit int) ([]domain.Saga, error)
}

type sagaRepo struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

func NewSagaRepository(pool *pgxpool.Pool) SagaRepository {
	return &sagaRepo{
		pool:   pool,
		tracer: otel.Tracer("repository/saga_repo"),
	}
}

const sagaColumns = `id, order_id, status, last_error, attempts, created_at, updated_at`

func (r *sagaRepo) Create(ctx context.Context, saga *domain.Saga) error {
	ctx, span := r.tracer.Start(ctx, "SagaRepository.Create")
	defer span.End()

	span.SetAttributes(attribute.String("saga_id", saga.ID))

	query := `
		INSERT INTO sagas (id, status)
		VALUES ($1, $2)
		RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query, saga.ID, string(saga.Status)).Scan(&saga.CreatedAt, &saga.UpdatedAt); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create saga: %w", err)
	}

	return nil
}

func (r *sagaRepo) AppendStep(ctx context.Context, step *domain.SagaStep) error {
	ctx, span := r.tracer.Start(ctx, "SagaRepository.AppendStep")
	defer span.End()

	span.SetAttributes(
		attribute.String("saga_id", step.SagaID),
		attribute.String("kind", string(step.Kind)),
	)

	query := `
		WITH step AS (
			INSERT INTO saga_steps (saga_id, seq, kind, ref_id, quantity, status)
			VALUES ($1, $2, $3, $4, $5, $6)
		)
		UPDATE sagas SET updated_at = NOW() WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, step.SagaID, step.Seq, string(step.Kind), step.RefID, step.Quantity, string(step.Status)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to append saga step: %w", err)
	}

	return nil
}

func (r *sagaRepo) MarkStepCompensated(ctx context.Context, sagaID string, seq int32) error {
	ctx, span := r.tracer.Start(ctx, "SagaRepository.MarkStepCompensated")
	defer span.End()

	query := `
		UPDATE saga_steps
		SET status = 'COMPENSATED'
		WHERE saga_id = $1 AND seq = $2
	`

	if _, err := r.pool.Exec(ctx, query, sagaID, seq); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to mark saga step compensated: %w", err)
	}

	return nil
}

func (r *sagaRepo) SetOrder(ctx context.Context, sagaID string, orderID int64) error {
	ctx, span := r.tracer.Start(ctx, "SagaRepository.SetOrder")
	defer span.End()

	if _, err := r.pool.Exec(ctx, `UPDATE sagas SET order_id = $2, updated_at = NOW() WHERE id = $1`, sagaID, orderID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set saga order: %w", err)
	}

	return nil
}

func (r *sagaRepo) SetStatus(ctx context.Context, sagaID string, status domain.SagaStatus, lastErr string) error {
	ctx, span := r.tracer.Start(ctx, "SagaRepository.SetStatus")
	defer span.End()

	span.SetAttributes(
		attribute.String("saga_id", sagaID),
		attribute.String("status", string(status)),
	)

	query := `
		UPDATE sagas
		SET status = $2, last_error = COALESCE(NULLIF($3, ''), last_error), updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, sagaID, string(status), lastErr)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set saga status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrSagaNotFound
	}

	return nil
}

func (r *sagaRepo) Get(ctx context.Context, sagaID string) (*domain.Saga, error) {
	ctx, span := r.tracer.Start(ctx, "SagaRepository.Get")
	defer span.End()

	saga, err := scanSaga(r.pool.QueryRow(ctx, `SELECT `+sagaColumns+` FROM sagas WHERE id = $1`, sagaID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSagaNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("failed to query saga: %w", err)
	}

	return saga, nil
}

func (r *sagaRepo) Steps(ctx context.Context, sagaID string) ([]domain.SagaStep, error) {
	ctx, span := r.tracer.Start(ctx, "SagaRepository.Steps")
	defer span.End()

	query := `
		SELECT saga_id, seq, kind, ref_id, quantity, status
		FROM saga_steps
		WHERE saga_id = $1
		ORDER BY seq
	`

	rows, err := r.pool.Query(ctx, query, sagaID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query saga steps: %w", err)
	}
	defer rows.Close()

	var steps []domain.SagaStep
	for rows.Next() {
		var step domain.SagaStep
		if err := rows.Scan(&step.SagaID, &step.Seq, &step.Kind, &step.RefID, &step.Quantity, &step.Status); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan saga step: %w", err)
		}
		steps = append(steps, step)
	}

	return steps, rows.Err()
}

// ClaimRecoverable leases sagas that need compensation: COMPENSATING ones last touched
// before retryBefore and RUNNING ones idle since staleBefore. Claimed rows get a fresh
// updated_at so concurrent recoverers skip them until the lease lapses.
func (r *sagaRepo) ClaimRecoverable(ctx context.Context, staleBefore, retryBefore time.Time, limit int) ([]domain.Saga, error) {
	ctx, span := r.tracer.Start(ctx, "SagaRepository.ClaimRecoverable")
	defer span.End()

	query := `
		UPDATE sagas
		SET updated_at = NOW(), attempts = attempts + 1
		WHERE id IN (
			SELECT id FROM sagas
			WHERE (status = 'COMPENSATING' AND updated_at < $2)
				OR (status = 'RUNNING' AND updated_at < $1)
			ORDER BY updated_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + sagaColumns

	rows, err := r.pool.Query(ctx, query, staleBefore, retryBefore, limit)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to claim sagas: %w", err)
	}
	defer rows.Close()

	var sagas []domain.Saga
	for rows.Next() {
		saga, err := scanSaga(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan saga: %w", err)
		}
		sagas = append(sagas, *saga)
	}

	span.SetAttributes(attribute.Int("claimed", len(sagas)))

	return sagas, rows.Err()
}

func scanSaga(row pgx.Row) (*domain.Saga, error) {
	var s domain.Saga
	if err := row.Scan(&s.ID, &s.OrderID, &s.Status, &s.LastError, &s.Attempts, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}

	return &s, nil
}
