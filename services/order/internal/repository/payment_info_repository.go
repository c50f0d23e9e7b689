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

type PaymentInfoRepository interface {
	Create(ctx context.Context, tx pgx.Tx, info *domain.PaymentInfo) error
	Get(ctx context.Context, orderID int64) (*domain.PaymentInfo, error)
	Update(ctx context.Context, tx pgx.Tx, orderID int64, status domain.PaymentStatus, transactionID string, paidAt *time.Time) error
	SetMethod(ctx context.Context, tx pgx.Tx, orderID int64, method string) error
}

type paymentInfoRepo struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

func NewPaymentInfoRepository(pool *pgxpool.Pool) PaymentInfoRepository {
	return &paymentInfoRepo{
		pool:   pool,
		tracer: otel.Tracer("repository/payment_info_repo"),
	}
}

func (r *paymentInfoRepo) Create(ctx context.Context, tx pgx.Tx, info *domain.PaymentInfo) error {
	ctx, span := r.tracer.Start(ctx, "PaymentInfoRepository.Create")
	defer span.End()

	span.SetAttributes(attribute.Int64("order_id", info.OrderID))

	query := `
		INSERT INTO payment_info (order_id, method, transaction_id, amount, status, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err := tx.Exec(ctx, query, info.OrderID, info.Method, info.TransactionID, info.Amount, string(info.Status), info.PaidAt); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert payment info: %w", err)
	}

	return nil
}

func (r *paymentInfoRepo) Get(ctx context.Context, orderID int64) (*domain.PaymentInfo, error) {
	ctx, span := r.tracer.Start(ctx, "PaymentInfoRepository.Get")
	defer span.End()

	query := `
		SELECT order_id, method, transaction_id, amount, status, paid_at
		FROM payment_info
		WHERE order_id = $1
	`

	var info domain.PaymentInfo
	if err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&info.OrderID,
		&info.Method,
		&info.TransactionID,
		&info.Amount,
		&info.Status,
		&info.PaidAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentInfoNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("failed to query payment info: %w", err)
	}

	return &info, nil
}

func (r *paymentInfoRepo) Update(ctx context.Context, tx pgx.Tx, orderID int64, status domain.PaymentStatus, transactionID string, paidAt *time.Time) error {
	ctx, span := r.tracer.Start(ctx, "PaymentInfoRepository.Update")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
		attribute.String("status", string(status)),
	)

	query := `
		UPDATE payment_info
		SET status = $2,
			transaction_id = COALESCE(NULLIF($3, ''), transaction_id),
			paid_at = COALESCE($4, paid_at),
			updated_at = NOW()
		WHERE order_id = $1
	`

	tag, err := tx.Exec(ctx, query, orderID, string(status), transactionID, paidAt)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update payment info: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrPaymentInfoNotFound
	}

	return nil
}

func (r *paymentInfoRepo) SetMethod(ctx context.Context, tx pgx.Tx, orderID int64, method string) error {
	ctx, span := r.tracer.Start(ctx, "PaymentInfoRepository.SetMethod")
	defer span.End()

	if _, err := tx.Exec(ctx, `UPDATE payment_info SET method = $2, updated_at = NOW() WHERE order_id = $1`, orderID, method); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set payment method: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET payment_method = $2, updated_at = NOW() WHERE id = $1`, orderID, method); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set order payment method: %w", err)
	}

	return nil
}
