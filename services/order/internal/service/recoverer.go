package service

import (
	"context"
	"time"

	"github.com/sakashimaa/eventhub/pkg/mylogger"
	"github.com/sakashimaa/eventhub/services/order/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type RecovererOption func(*SagaRecoverer)

func WithRecoveryInterval(d time.Duration) RecovererOption {
	return func(r *SagaRecoverer) { r.interval = d }
}

// WithStaleAfter sets how long a RUNNING saga may stay idle before it is compensated.
func WithStaleAfter(d time.Duration) RecovererOption {
	return func(r *SagaRecoverer) { r.staleAfter = d }
}

// SagaRecoverer finishes compensation for sagas whose process gave up or died mid-checkout.
type SagaRecoverer struct {
	sagaRepo    repository.SagaRepository
	compensator Compensator
	logger      *zap.Logger
	tracer      trace.Tracer
	interval    time.Duration
	staleAfter  time.Duration
	retryAfter  time.Duration
	batchSize   int
}

func NewSagaRecoverer(sagaRepo repository.SagaRepository, compensator Compensator, logger *zap.Logger, opts ...RecovererOption) *SagaRecoverer {
	r := &SagaRecoverer{
		sagaRepo:    sagaRepo,
		compensator: compensator,
		logger:      logger,
		tracer:      otel.Tracer("saga-recoverer"),
		interval:    30 * time.Second,
		staleAfter:  5 * time.Minute,
		retryAfter:  30 * time.Second,
		batchSize:   20,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *SagaRecoverer) Start(ctx context.Context) {
	mylogger.Info(ctx, r.logger, "Starting saga recoverer",
		zap.Duration("interval", r.interval),
		zap.Duration("stale_after", r.staleAfter),
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			mylogger.Info(ctx, r.logger, "Saga recoverer stopping")
			return
		case <-ticker.C:
			if _, err := r.RecoverOnce(ctx); err != nil {
				mylogger.Error(ctx, r.logger, "Error recovering sagas", zap.Error(err))
			}
		}
	}
}

// RecoverOnce claims one batch of recoverable sagas and compensates them. It returns
// how many finished compensation.
func (r *SagaRecoverer) RecoverOnce(ctx context.Context) (int, error) {
	ctx, span := r.tracer.Start(ctx, "SagaRecoverer.RecoverOnce")
	defer span.End()

	now := time.Now()
	sagas, err := r.sagaRepo.ClaimRecoverable(ctx, now.Add(-r.staleAfter), now.Add(-r.retryAfter), r.batchSize)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	recovered := 0
	for i := range sagas {
		saga := &sagas[i]

		steps, err := r.sagaRepo.Steps(ctx, saga.ID)
		if err != nil {
			mylogger.Warn(ctx, r.logger, "Failed to load saga steps", zap.String("saga_id", saga.ID), zap.Error(err))
			continue
		}

		if err := r.compensator.Compensate(ctx, saga, steps); err != nil {
			mylogger.Warn(ctx, r.logger, "Saga still compensating",
				zap.String("saga_id", saga.ID),
				zap.Int32("attempts", saga.Attempts),
				zap.Error(err),
			)
			continue
		}

		recovered++
	}

	span.SetAttributes(
		attribute.Int("claimed", len(sagas)),
		attribute.Int("recovered", recovered),
	)

	return recovered, nil
}
