package utils

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

// ProcessWithDeduplication records (consumer, key) in processed_events and runs action
// in the same transaction. It reports false without running action when the key
// was already processed by that consumer.
func ProcessWithDeduplication(
	ctx context.Context,
	pool *pgxpool.Pool,
	logger *zap.Logger,
	consumer string,
	key string,
	action func(ctx context.Context, tx pgx.Tx) error,
) (bool, error) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("dedup.consumer", consumer),
		attribute.String("dedup.key", key),
	)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		shutdownCtx := context.WithoutCancel(ctx)

		err := tx.Rollback(shutdownCtx)
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Error(
				shutdownCtx,
				logger,
				"Error rolling back transaction",
				zap.Error(err),
			)
		}
	}()

	query := `
		INSERT INTO processed_events (consumer, event_key)
		VALUES ($1, $2)
	`

	if _, err = tx.Exec(ctx, query, consumer, key); err != nil {
		if IsUniqueViolation(err) {
			mylogger.Info(
				ctx,
				logger,
				"Event already processed, skipping",
				zap.String("consumer", consumer),
				zap.String("key", key),
			)

			return false, nil
		}

		span.RecordError(err)
		return false, fmt.Errorf("failed to record processed event: %w", err)
	}

	if err := action(ctx, tx); err != nil {
		span.RecordError(err)
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)

		if IsUniqueViolation(err) {
			return false, nil
		}

		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// AlreadyProcessed is a lock-free pre-check; the insert in ProcessWithDeduplication stays authoritative.
func AlreadyProcessed(ctx context.Context, pool *pgxpool.Pool, consumer, key string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM processed_events WHERE consumer = $1 AND event_key = $2
		)
	`

	var exists bool
	if err := pool.QueryRow(ctx, query, consumer, key).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check processed event: %w", err)
	}

	return exists, nil
}

func IsUniqueViolation(err error) bool {
	var pgError *pgconn.PgError
	return errors.As(err, &pgError) && pgError.Code == uniqueViolation
}
