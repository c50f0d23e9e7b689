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

type DiscountRepository interface {
	GetByCode(ctx context.Context, eventID int64, code string) (*domain.Discount, error)
	IncrementUsage(ctx context.Context, id int64) (*domain.Discount, error)
}

type discountRepo struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
	logger *zap.Logger
}

func NewDiscountRepository(pool *pgxpool.Pool, logger *zap.Logger) DiscountRepository {
	return &discountRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("repository/discount_repo"),
	}
}

const discountColumns = `id, event_id, code, discount_percent, discount_amount, minimum_order_amount,
		usage_limit, used_count, valid_from, valid_to, active`

func (r *discountRepo) GetByCode(ctx context.Context, eventID int64, code string) (*domain.Discount, error) {
	ctx, span := r.tracer.Start(ctx, "DiscountRepository.GetByCode")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
		attribute.String("code", code),
	)

	query := `SELECT ` + discountColumns + `
		FROM discounts
		WHERE event_id = $1 AND code = $2
	`

	d, err := scanDiscount(r.pool.QueryRow(ctx, query, eventID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDiscountNotFound
		}

		span.RecordError(err)
		mylogger.Error(ctx, r.logger, "Failed to query discount", zap.Int64("event_id", eventID), zap.Error(err))

		return nil, fmt.Errorf("failed to query discount: %w", err)
	}

	return d, nil
}

func (r *discountRepo) IncrementUsage(ctx context.Context, id int64) (*domain.Discount, error) {
	ctx, span := r.tracer.Start(ctx, "DiscountRepository.IncrementUsage")
	defer span.End()

	span.SetAttributes(attribute.Int64("discount_id", id))

	query := `
		UPDATE discounts
		SET used_count = used_count + 1
		WHERE id = $1
			AND (usage_limit IS NULL OR used_count < usage_limit)
		RETURNING ` + discountColumns

	d, err := scanDiscount(r.pool.QueryRow(ctx, query, id))
	if err == nil {
		return d, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		span.RecordError(err)
		mylogger.Error(ctx, r.logger, "Failed to increment discount usage", zap.Int64("discount_id", id), zap.Error(err))

		return nil, fmt.Errorf("failed to increment discount usage: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM discounts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check discount %d: %w", id, err)
	}
	if !exists {
		return nil, ErrDiscountNotFound
	}

	return nil, ErrDiscountExhausted
}

func scanDiscount(row pgx.Row) (*domain.Discount, error) {
	var d domain.Discount
	if err := row.Scan(
		&d.ID,
		&d.EventID,
		&d.Code,
		&d.DiscountPercent,
		&d.DiscountAmount,
		&d.MinimumOrderAmount,
		&d.UsageLimit,
		&d.UsedCount,
		&d.ValidFrom,
		&d.ValidTo,
		&d.Active,
	); err != nil {
		return nil, err
	}

	return &d, nil
}
