package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	"github.com/sakashimaa/eventhub/pkg/outbox/utils"
	"github.com/sakashimaa/eventhub/services/payment/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type PaymentRepository interface {
	Create(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error
	GetByOrderID(ctx context.Context, orderID int64) (*domain.Payment, error)
	GetByOrderForUpdate(ctx context.Context, tx pgx.Tx, orderID int64) (*domain.Payment, error)
	GetByTransactionForUpdate(ctx context.Context, tx pgx.Tx, transactionID string) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id int64, status domain.Status) error
}

type paymentRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewPaymentRepository(pool *pgxpool.Pool, logger *zap.Logger) PaymentRepository {
	return &paymentRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("repository/payment_repo"),
	}
}

const paymentColumns = `id, order_id, user_id, amount, currency, method, provider, transaction_id, status, payment_url, created_at, updated_at`

func (r *paymentRepo) Create(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", payment.OrderID),
		attribute.Int64("user_id", payment.UserID),
		attribute.Int64("amount", payment.Amount),
	)

	query := `
		INSERT INTO payments (order_id, user_id, amount, currency, method, provider, transaction_id, status, payment_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	if err := tx.QueryRow(ctx, query,
		payment.OrderID,
		payment.UserID,
		payment.Amount,
		payment.Currency,
		payment.Method,
		payment.Provider,
		payment.TransactionID,
		string(payment.Status),
		payment.PaymentURL,
	).Scan(
		&payment.ID,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	); err != nil {
		if utils.IsUniqueViolation(err) {
			return ErrPaymentExists
		}

		span.RecordError(err)
		mylogger.Warn(ctx, r.logger, "Create payment failed", zap.Error(err))

		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

func (r *paymentRepo) GetByOrderID(ctx context.Context, orderID int64) (*domain.Payment, error) {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.GetByOrderID")
	defer span.End()

	span.SetAttributes(attribute.Int64("order_id", orderID))

	return r.get(ctx, r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1`, orderID))
}

func (r *paymentRepo) GetByOrderForUpdate(ctx context.Context, tx pgx.Tx, orderID int64) (*domain.Payment, error) {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.GetByOrderForUpdate")
	defer span.End()

	span.SetAttributes(attribute.Int64("order_id", orderID))

	return r.get(ctx, tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 FOR UPDATE`, orderID))
}

func (r *paymentRepo) GetByTransactionForUpdate(ctx context.Context, tx pgx.Tx, transactionID string) (*domain.Payment, error) {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.GetByTransactionForUpdate")
	defer span.End()

	span.SetAttributes(attribute.String("transaction_id", transactionID))

	return r.get(ctx, tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE transaction_id = $1 FOR UPDATE`, transactionID))
}

func (r *paymentRepo) get(ctx context.Context, row pgx.Row) (*domain.Payment, error) {
	span := trace.SpanFromContext(ctx)

	var p domain.Payment
	if err := row.Scan(
		&p.ID, &p.OrderID, &p.UserID, &p.Amount, &p.Currency, &p.Method,
		&p.Provider, &p.TransactionID, &p.Status, &p.PaymentURL, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}

	return &p, nil
}

func (r *paymentRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id int64, status domain.Status) error {
	ctx, span := r.tracer.Start(ctx, "PaymentRepository.UpdateStatus")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("payment_id", id),
		attribute.String("status", string(status)),
	)

	tag, err := tx.Exec(ctx, `UPDATE payments SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}

	return nil
}
