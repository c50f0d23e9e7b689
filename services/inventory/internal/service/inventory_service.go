package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	generalDomain "github.com/sakashimaa/eventhub/pkg/domain"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	outboxUtils "github.com/sakashimaa/eventhub/pkg/outbox/utils"
	"github.com/sakashimaa/eventhub/services/inventory/internal/domain"
	"github.com/sakashimaa/eventhub/services/inventory/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const restockConsumer = "inventory-restock"

var ErrInvalidQuantity = errors.New("quantity must be positive")

var quotaDecrements = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "eventhub",
	Subsystem: "inventory",
	Name:      "quota_decrements_total",
	Help:      "Quota decrement attempts by result.",
}, []string{"result"})

type InventoryService interface {
	GetTicketType(ctx context.Context, id int64) (*domain.TicketType, error)
	DecrementQuota(ctx context.Context, id, quantity int64) (int64, error)
	IncrementQuota(ctx context.Context, id, quantity int64) (int64, error)
	ValidateDiscount(ctx context.Context, eventID int64, code string) (*domain.Discount, error)
	IncrementDiscountUsage(ctx context.Context, id int64) (*domain.Discount, error)
	GetEvent(ctx context.Context, id int64) (*domain.Event, error)
	RestoreQuota(ctx context.Context, event *generalDomain.OrderCancelledEvent) ([]domain.QuotaChange, error)
}

type inventoryService struct {
	pool           *pgxpool.Pool
	ticketTypeRepo repository.TicketTypeRepository
	discountRepo   repository.DiscountRepository
	eventRepo      repository.EventRepository
	logger         *zap.Logger
	tracer         trace.Tracer
}

func NewInventoryService(
	pool *pgxpool.Pool,
	ticketTypeRepo repository.TicketTypeRepository,
	discountRepo repository.DiscountRepository,
	eventRepo repository.EventRepository,
	logger *zap.Logger,
) InventoryService {
	return &inventoryService{
		pool:           pool,
		ticketTypeRepo: ticketTypeRepo,
		discountRepo:   discountRepo,
		eventRepo:      eventRepo,
		logger:         logger,
		tracer:         otel.Tracer("service/inventory_service"),
	}
}

func (s *inventoryService) GetTicketType(ctx context.Context, id int64) (*domain.TicketType, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.GetTicketType")
	defer span.End()

	return s.ticketTypeRepo.GetByID(ctx, id)
}

func (s *inventoryService) DecrementQuota(ctx context.Context, id, quantity int64) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.DecrementQuota")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("ticket_type_id", id),
		attribute.Int64("quantity", quantity),
	)

	if quantity <= 0 {
		return 0, ErrInvalidQuantity
	}

	var quota int64
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		quota, err = s.ticketTypeRepo.DecreaseQuota(ctx, tx, id, quantity)
		return err
	})
	if err != nil {
		quotaDecrements.WithLabelValues(resultLabel(err)).Inc()

		if errors.Is(err, repository.ErrInsufficientQuota) {
			mylogger.Info(ctx, s.logger, "Quota decrement rejected",
				zap.Int64("ticket_type_id", id),
				zap.Int64("quantity", quantity),
			)
		}

		return 0, err
	}

	quotaDecrements.WithLabelValues("ok").Inc()

	mylogger.Info(
		ctx,
		s.logger,
		"Quota decremented",
		zap.Int64("ticket_type_id", id),
		zap.Int64("quantity", quantity),
		zap.Int64("quota", quota),
	)

	return quota, nil
}

func (s *inventoryService) IncrementQuota(ctx context.Context, id, quantity int64) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.IncrementQuota")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("ticket_type_id", id),
		attribute.Int64("quantity", quantity),
	)

	if quantity <= 0 {
		return 0, ErrInvalidQuantity
	}

	var quota int64
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		quota, err = s.ticketTypeRepo.IncreaseQuota(ctx, tx, id, quantity)
		return err
	})
	if err != nil {
		return 0, err
	}

	mylogger.Info(ctx, s.logger, "Quota returned",
		zap.Int64("ticket_type_id", id),
		zap.Int64("quantity", quantity),
		zap.Int64("quota", quota),
	)

	return quota, nil
}

func (s *inventoryService) ValidateDiscount(ctx context.Context, eventID int64, code string) (*domain.Discount, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.ValidateDiscount")
	defer span.End()

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, repository.ErrDiscountNotFound
	}

	return s.discountRepo.GetByCode(ctx, eventID, code)
}

func (s *inventoryService) IncrementDiscountUsage(ctx context.Context, id int64) (*domain.Discount, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.IncrementDiscountUsage")
	defer span.End()

	d, err := s.discountRepo.IncrementUsage(ctx, id)
	if err != nil {
		mylogger.Warn(ctx, s.logger, "Discount usage not incremented", zap.Int64("discount_id", id), zap.Error(err))
		return nil, err
	}

	return d, nil
}

func (s *inventoryService) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.GetEvent")
	defer span.End()

	return s.eventRepo.GetByID(ctx, id)
}

// RestoreQuota gives back the quota of a cancelled or refunded order exactly once per order.
func (s *inventoryService) RestoreQuota(ctx context.Context, event *generalDomain.OrderCancelledEvent) ([]domain.QuotaChange, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.RestoreQuota")
	defer span.End()

	span.SetAttributes(attribute.Int64("order_id", event.OrderID))

	var changes []domain.QuotaChange
	processed, err := outboxUtils.ProcessWithDeduplication(
		ctx,
		s.pool,
		s.logger,
		restockConsumer,
		strconv.FormatInt(event.OrderID, 10),
		func(ctx context.Context, tx pgx.Tx) error {
			for _, item := range event.Items {
				if item.Quantity <= 0 {
					continue
				}

				quota, err := s.ticketTypeRepo.IncreaseQuota(ctx, tx, item.TicketTypeID, int64(item.Quantity))
				if errors.Is(err, repository.ErrTicketTypeNotFound) {
					mylogger.Warn(ctx, s.logger, "Skipping restore for unknown ticket type",
						zap.Int64("ticket_type_id", item.TicketTypeID),
					)
					continue
				}
				if err != nil {
					mylogger.Warn(ctx, s.logger, "Failed to restore quota",
						zap.Int64("ticket_type_id", item.TicketTypeID),
						zap.Int32("quantity", item.Quantity),
						zap.Error(err),
					)

					return err
				}

				changes = append(changes, domain.QuotaChange{TicketTypeID: item.TicketTypeID, Quota: quota})
			}

			return nil
		},
	)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if !processed {
		return nil, nil
	}

	mylogger.Info(ctx, s.logger, "Quota restored for order",
		zap.Int64("order_id", event.OrderID),
		zap.Int("items", len(changes)),
	)

	return changes, nil
}

func (s *inventoryService) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)
		if err := tx.Rollback(cleanupCtx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(cleanupCtx, s.logger, "Error rolling back transaction", zap.Error(err))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, repository.ErrInsufficientQuota):
		return "insufficient"
	case errors.Is(err, repository.ErrTicketTypeNotFound):
		return "not_found"
	default:
		return "error"
	}
}
