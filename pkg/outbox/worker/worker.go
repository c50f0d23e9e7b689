package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	"github.com/sakashimaa/eventhub/pkg/outbox/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type OutboxRepository interface {
	SaveOutboxEvent(ctx context.Context, tx pgx.Tx, event *domain.OutboxEvent) error
	GetUnpublishedEvents(ctx context.Context, tx pgx.Tx, batchSize int) ([]*domain.OutboxEvent, error)
	MarkEventPublished(ctx context.Context, tx pgx.Tx, eventID int64) error
	MarkEventFailed(ctx context.Context, tx pgx.Tx, eventID int64, error string) error
	DeletePublishedBefore(ctx context.Context, before time.Time) (int64, error)
}

type Producer interface {
	ProduceMessage(ctx context.Context, topic string, message interface{}) error
}

type Option func(*OutboxProcessor)

func WithInterval(d time.Duration) Option {
	return func(p *OutboxProcessor) { p.interval = d }
}

func WithRetention(d time.Duration) Option {
	return func(p *OutboxProcessor) { p.retention = d }
}

type OutboxProcessor struct {
	pool      *pgxpool.Pool
	repo      OutboxRepository
	producer  Producer
	logger    *zap.Logger
	batchSize int
	interval  time.Duration
	retention time.Duration
	tracer    trace.Tracer
}

func NewOutboxProcessor(
	pool *pgxpool.Pool,
	repo OutboxRepository,
	producer Producer,
	logger *zap.Logger,
	opts ...Option,
) *OutboxProcessor {
	p := &OutboxProcessor{
		pool:      pool,
		repo:      repo,
		producer:  producer,
		logger:    logger,
		batchSize: 50,
		interval:  500 * time.Millisecond,
		retention: 7 * 24 * time.Hour,
		tracer:    otel.Tracer("outbox-worker"),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	mylogger.Info(
		ctx,
		p.logger,
		"Starting outbox processor",
		zap.Duration("interval", p.interval),
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	purge := time.NewTicker(time.Hour)
	defer purge.Stop()

	for {
		select {
		case <-ctx.Done():
			mylogger.Info(
				ctx,
				p.logger,
				"Outbox processor stopping",
			)

			return
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				mylogger.Error(
					ctx,
					p.logger,
					"Error processing outbox batch",
					zap.Error(err),
				)
			}
		case <-purge.C:
			deleted, err := p.repo.DeletePublishedBefore(ctx, time.Now().Add(-p.retention))
			if err != nil {
				mylogger.Warn(ctx, p.logger, "Outbox purge failed", zap.Error(err))
				continue
			}

			mylogger.Debug(ctx, p.logger, "Outbox purged", zap.Int64("deleted", deleted))
		}
	}
}

func (p *OutboxProcessor) processBatch(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "OutboxProcessor.processBatch")
	defer span.End()

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)

		err := tx.Rollback(cleanupCtx)
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Error(
				cleanupCtx,
				p.logger,
				"Outbox worker failed to rollback transaction",
				zap.Error(err),
			)
		}
	}()

	events, err := p.repo.GetUnpublishedEvents(ctx, tx, p.batchSize)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		return nil
	}

	span.SetAttributes(attribute.Int("outbox.batch", len(events)))

	for _, event := range events {
		p.publish(ctx, tx, event)
	}

	return tx.Commit(ctx)
}

func (p *OutboxProcessor) publish(ctx context.Context, tx pgx.Tx, event *domain.OutboxEvent) {
	var payloadMap map[string]any
	if err := json.Unmarshal(event.Payload, &payloadMap); err != nil {
		mylogger.Error(
			ctx,
			p.logger,
			"Outbox worker unmarshal event payload failed",
			zap.Int64("id", event.Id),
			zap.Error(err),
		)

		_ = p.repo.MarkEventFailed(ctx, tx, event.Id, err.Error())
		return
	}

	payloadMap["event_id"] = event.Id
	payloadMap["aggregate_id"] = event.AggregateID

	if err := p.producer.ProduceMessage(ctx, event.Topic, payloadMap); err != nil {
		mylogger.Warn(
			ctx,
			p.logger,
			"Outbox worker produce message failed",
			zap.Int64("id", event.Id),
			zap.String("topic", event.Topic),
			zap.Int64("attempts", event.Attempts+1),
			zap.Error(err),
		)

		if dbErr := p.repo.MarkEventFailed(ctx, tx, event.Id, err.Error()); dbErr != nil {
			mylogger.Error(ctx, p.logger, "Outbox worker mark event failed failed", zap.Int64("id", event.Id), zap.Error(dbErr))
		}
		return
	}

	if err := p.repo.MarkEventPublished(ctx, tx, event.Id); err != nil {
		mylogger.Error(ctx, p.logger, "Outbox worker mark event published failed", zap.Int64("id", event.Id), zap.Error(err))
		return
	}

	mylogger.Debug(
		ctx,
		p.logger,
		"Outbox worker event published",
		zap.Int64("id", event.Id),
		zap.String("topic", event.Topic),
	)
}
