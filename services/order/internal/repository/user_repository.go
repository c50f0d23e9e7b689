package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	generalDomain "github.com/sakashimaa/eventhub/pkg/domain"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	outboxUtils "github.com/sakashimaa/eventhub/pkg/outbox/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// UserRepository keeps the local replica of registered users' emails.
type UserRepository interface {
	Save(ctx context.Context, event *generalDomain.UserRegisteredEvent) error
	GetEmail(ctx context.Context, tx pgx.Tx, userID int64) (string, error)
}

type userRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewUserRepository(pool *pgxpool.Pool, logger *zap.Logger) UserRepository {
	return &userRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("repository/user_repo"),
	}
}

func (r *userRepo) Save(ctx context.Context, event *generalDomain.UserRegisteredEvent) error {
	ctx, span := r.tracer.Start(ctx, "UserRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", event.UserID),
	)

	query := `
		INSERT INTO users (id, email)
		VALUES ($1, $2)
	`

	if _, err := r.pool.Exec(ctx, query, event.UserID, event.Email); err != nil {
		if outboxUtils.IsUniqueViolation(err) {
			mylogger.Warn(
				ctx,
				r.logger,
				"User already exists, skipping",
				zap.Int64("user_id", event.UserID),
			)

			return nil
		}

		span.RecordError(err)
		mylogger.Error(
			ctx,
			r.logger,
			"Error inserting into users",
			zap.Int64("user_id", event.UserID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}

func (r *userRepo) GetEmail(ctx context.Context, tx pgx.Tx, userID int64) (string, error) {
	ctx, span := r.tracer.Start(ctx, "UserRepository.GetEmail")
	defer span.End()

	span.SetAttributes(attribute.Int64("user_id", userID))

	var email string
	if err := tx.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, userID).Scan(&email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}

		span.RecordError(err)
		return "", fmt.Errorf("failed to query user email: %w", err)
	}

	return email, nil
}
