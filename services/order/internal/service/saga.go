package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	"github.com/sakashimaa/eventhub/services/order/internal/client"
	"github.com/sakashimaa/eventhub/services/order/internal/domain"
	"github.com/sakashimaa/eventhub/services/order/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Compensator undoes the completed steps of a checkout saga in reverse order.
type Compensator interface {
	Compensate(ctx context.Context, saga *domain.Saga, steps []domain.SagaStep) error
}

// sagaRun tracks one checkout as it executes. Every completed step is written to the
// saga log before the next one starts.
type sagaRun struct {
	saga  *domain.Saga
	steps []domain.SagaStep
	repo  repository.SagaRepository
}

func startSaga(ctx context.Context, repo repository.SagaRepository) (*sagaRun, error) {
	saga := &domain.Saga{
		ID:     uuid.NewString(),
		Status: domain.SagaStatusRunning,
	}

	if err := repo.Create(ctx, saga); err != nil {
		return nil, err
	}

	return &sagaRun{saga: saga, repo: repo}, nil
}

func (r *sagaRun) record(ctx context.Context, kind domain.StepKind, refID, quantity int64) error {
	step := domain.SagaStep{
		SagaID:   r.saga.ID,
		Seq:      int32(len(r.steps) + 1),
		Kind:     kind,
		RefID:    refID,
		Quantity: quantity,
		Status:   domain.StepStatusDone,
	}

	// A step that ran but could not be logged is still kept in memory so the
	// in-process compensation undoes it.
	r.steps = append(r.steps, step)

	return r.repo.AppendStep(ctx, &step)
}

type sagaCompensator struct {
	pool            *pgxpool.Pool
	sagaRepo        repository.SagaRepository
	orderRepo       repository.OrderRepository
	paymentInfoRepo repository.PaymentInfoRepository
	reservations    ReservationConsumer
	inventory       client.InventoryClient
	logger          *zap.Logger
	tracer          trace.Tracer
}

func NewCompensator(
	pool *pgxpool.Pool,
	sagaRepo repository.SagaRepository,
	orderRepo repository.OrderRepository,
	paymentInfoRepo repository.PaymentInfoRepository,
	reservations ReservationConsumer,
	inventory client.InventoryClient,
	logger *zap.Logger,
) Compensator {
	return &sagaCompensator{
		pool:            pool,
		sagaRepo:        sagaRepo,
		orderRepo:       orderRepo,
		paymentInfoRepo: paymentInfoRepo,
		reservations:    reservations,
		inventory:       inventory,
		logger:          logger,
		tracer:          otel.Tracer("service/saga_compensator"),
	}
}

// Compensate walks steps backwards and undoes every DONE one. A step that fails to
// compensate leaves the saga COMPENSATING for the recoverer to retry.
func (c *sagaCompensator) Compensate(ctx context.Context, saga *domain.Saga, steps []domain.SagaStep) error {
	ctx, span := c.tracer.Start(ctx, "Compensator.Compensate")
	defer span.End()

	span.SetAttributes(
		attribute.String("saga_id", saga.ID),
		attribute.Int("steps", len(steps)),
	)

	completed, err := c.forwardFinished(ctx, saga)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if completed {
		mylogger.Info(ctx, c.logger, "Saga finished before it stalled, marking completed", zap.String("saga_id", saga.ID))
		return c.sagaRepo.SetStatus(ctx, saga.ID, domain.SagaStatusCompleted, "")
	}

	if err := c.sagaRepo.SetStatus(ctx, saga.ID, domain.SagaStatusCompensating, ""); err != nil {
		return err
	}

	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		if step.Status == domain.StepStatusCompensated {
			continue
		}

		if err := c.undo(ctx, step); err != nil {
			span.RecordError(err)
			mylogger.Error(ctx, c.logger, "Saga compensation step failed",
				zap.String("saga_id", saga.ID),
				zap.Int32("seq", step.Seq),
				zap.String("kind", string(step.Kind)),
				zap.Error(err),
			)

			if setErr := c.sagaRepo.SetStatus(context.WithoutCancel(ctx), saga.ID, domain.SagaStatusCompensating, err.Error()); setErr != nil {
				mylogger.Warn(ctx, c.logger, "Failed to record compensation error", zap.String("saga_id", saga.ID), zap.Error(setErr))
			}

			return fmt.Errorf("failed to compensate %s step %d: %w", step.Kind, step.Seq, err)
		}

		if err := c.sagaRepo.MarkStepCompensated(ctx, saga.ID, step.Seq); err != nil {
			return err
		}
	}

	if err := c.sagaRepo.SetStatus(ctx, saga.ID, domain.SagaStatusCompensated, ""); err != nil {
		return err
	}

	mylogger.Info(ctx, c.logger, "Saga compensated", zap.String("saga_id", saga.ID))
	return nil
}

// forwardFinished reports whether the saga's order already got its payment info,
// meaning the forward path completed and must not be undone.
func (c *sagaCompensator) forwardFinished(ctx context.Context, saga *domain.Saga) (bool, error) {
	if saga.OrderID == nil || saga.Status == domain.SagaStatusCompensating {
		return false, nil
	}

	_, err := c.paymentInfoRepo.Get(ctx, *saga.OrderID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrPaymentInfoNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (c *sagaCompensator) undo(ctx context.Context, step domain.SagaStep) error {
	switch step.Kind {
	case domain.StepDecrementQuota:
		_, err := c.inventory.IncrementQuota(ctx, step.RefID, step.Quantity)
		return err
	case domain.StepPersistOrder:
		return inTx(ctx, c.pool, c.logger, func(tx pgx.Tx) error {
			_, err := c.orderRepo.ChangeStatusIfPending(ctx, tx, step.RefID, domain.OrderStatusCancelled)
			return err
		})
	case domain.StepConfirmReservation:
		return c.reservations.Release(ctx, step.RefID)
	default:
		return fmt.Errorf("unknown saga step kind %q", step.Kind)
	}
}
