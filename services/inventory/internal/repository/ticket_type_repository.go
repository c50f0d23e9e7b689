package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	"github.com/sakashimaa/eventhub/services/inventory/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type TicketTypeRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.TicketType, error)
	DecreaseQuota(ctx context.Context, tx pgx.Tx, id, quantity int64) (int64, error)
	IncreaseQuota(ctx context.Context, tx pgx.Tx, id, quantity int64) (int64, error)
}

type ticketTypeRepo struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
	logger *zap.Logger
}

func NewTicketTypeRepository(pool *pgxpool.Pool, logger *zap.Logger) TicketTypeRepository {
	return &ticketTypeRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("repository/ticket_type_repo"),
	}
}

func (r *ticketTypeRepo) GetByID(ctx context.Context, id int64) (*domain.TicketType, error) {
	ctx, span := r.tracer.Start(ctx, "TicketTypeRepository.GetByID")
	defer span.End()

	span.SetAttributes(attribute.Int64("ticket_type_id", id))

	query := `
		SELECT id, event_id, code, name, price, quota, purchase_limit, sale_start, sale_end, updated_at
		FROM ticket_types
		WHERE id = $1
	`

	var tt domain.TicketType
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&tt.ID,
		&tt.EventID,
		&tt.Code,
		&tt.Name,
		&tt.Price,
		&tt.Quota,
		&tt.PurchaseLimit,
		&tt.SaleStart,
		&tt.SaleEnd,
		&tt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTicketTypeNotFound
		}

		span.RecordError(err)
		mylogger.Error(ctx, r.logger, "Failed to query ticket type", zap.Int64("ticket_type_id", id), zap.Error(err))

		return nil, fmt.Errorf("failed to query ticket type %d: %w", id, err)
	}

	return &tt, nil
}

// DecreaseQuota subtracts quantity in a single conditional update so concurrent
// callers serialize on the row lock and quota never goes negative.
func (r *ticketTypeRepo) DecreaseQuota(ctx context.Context, tx pgx.Tx, id, quantity int64) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "TicketTypeRepository.DecreaseQuota")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("ticket_type_id", id),
		attribute.Int64("quantity", quantity),
	)

	query := `
		UPDATE ticket_types
		SET quota = quota - $2, updated_at = NOW()
		WHERE id = $1
			AND quota >= $2
		RETURNING quota
	`

	var quota int64
	err := tx.QueryRow(ctx, query, id, quantity).Scan(&quota)
	if err == nil {
		return quota, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		span.RecordError(err)
		mylogger.Error(
			ctx,
			r.logger,
			"Error decreasing quota",
			zap.Int64("ticket_type_id", id),
			zap.Int64("quantity", quantity),
			zap.Error(err),
		)

		return 0, fmt.Errorf("error decreasing quota for ticket type %d: %w", id, err)
	}

	exists, err := r.exists(ctx, tx, id)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrTicketTypeNotFound
	}

	return 0, ErrInsufficientQuota
}

func (r *ticketTypeRepo) IncreaseQuota(ctx context.Context, tx pgx.Tx, id, quantity int64) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "TicketTypeRepository.IncreaseQuota")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("ticket_type_id", id),
		attribute.Int64("quantity", quantity),
	)

	query := `
		UPDATE ticket_types
		SET quota = quota + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING quota
	`

	var quota int64
	if err := tx.QueryRow(ctx, query, id, quantity).Scan(&quota); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			mylogger.Warn(ctx, r.logger, "Ticket type not found", zap.Int64("ticket_type_id", id))
			return 0, ErrTicketTypeNotFound
		}

		span.RecordError(err)
		mylogger.Warn(ctx, r.logger, "Failed to increase quota", zap.Int64("ticket_type_id", id), zap.Error(err))

		return 0, fmt.Errorf("error increasing quota for ticket type %d: %w", id, err)
	}

	return quota, nil
}

func (r *ticketTypeRepo) exists(ctx context.Context, tx pgx.Tx, id int64) (bool, error) {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM ticket_types WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check ticket type %d: %w", id, err)
	}

	return exists, nil
}
