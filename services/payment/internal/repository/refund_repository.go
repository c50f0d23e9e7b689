package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sakashimaa/eventhub/pkg/outbox/utils"
	"github.com/sakashimaa/eventhub/services/payment/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type RefundRepository interface {
	Create(ctx context.Context, tx pgx.Tx, refund *domain.Refund) error
	GetByPaymentID(ctx context.Context, tx pgx.Tx, paymentID int64) (*domain.Refund, error)
	Complete(ctx context.Context, tx pgx.Tx, id int64, providerReference string) error
}

type refundRepo struct {
	tracer trace.Tracer
}

func NewRefundRepository() RefundRepository {
	return &refundRepo{
		tracer: otel.Tracer("repository/refund_repo"),
	}
}

func (r *refundRepo) Create(ctx context.Context, tx pgx.Tx, refund *domain.Refund) error {
	ctx, span := r.tracer.Start(ctx, "RefundRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("payment_id", refund.PaymentID),
		attribute.Int64("amount", refund.Amount),
	)

	query := `
		INSERT INTO refunds (payment_id, transaction_id, amount, reason, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := tx.QueryRow(ctx, query, refund.PaymentID, refund.TransactionID, refund.Amount, refund.Reason, string(refund.Status)).
		Scan(&refund.ID, &refund.CreatedAt)
	if err != nil {
		if utils.IsUniqueViolation(err) {
			return ErrRefundExists
		}

		span.RecordError(err)
		return fmt.Errorf("failed to create refund: %w", err)
	}

	return nil
}

func (r *refundRepo) GetByPaymentID(ctx context.Context, tx pgx.Tx, paymentID int64) (*domain.Refund, error) {
	ctx, span := r.tracer.Start(ctx, "RefundRepository.GetByPaymentID")
	defer span.End()

	query := `
		SELECT id, payment_id, transaction_id, amount, reason, status, provider_reference, created_at
		FROM refunds
		WHERE payment_id = $1
	`

	var refund domain.Refund
	if err := tx.QueryRow(ctx, query, paymentID).Scan(
		&refund.ID, &refund.PaymentID, &refund.TransactionID, &refund.Amount, &refund.Reason,
		&refund.Status, &refund.ProviderReference, &refund.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRefundNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("failed to query refund: %w", err)
	}

	return &refund, nil
}

func (r *refundRepo) Complete(ctx context.Context, tx pgx.Tx, id int64, providerReference string) error {
	ctx, span := r.tracer.Start(ctx, "RefundRepository.Complete")
	defer span.End()

	span.SetAttributes(attribute.Int64("refund_id", id))

	tag, err := tx.Exec(ctx,
		`UPDATE refunds SET status = $2, provider_reference = $3 WHERE id = $1`,
		id, string(domain.RefundCompleted), providerReference,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to complete refund: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrRefundNotFound
	}

	return nil
}
