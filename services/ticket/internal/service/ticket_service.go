package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	generalDomain "github.com/sakashimaa/eventhub/pkg/domain"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	"github.com/sakashimaa/eventhub/pkg/outbox/utils"
	"github.com/sakashimaa/eventhub/services/ticket/internal/client"
	"github.com/sakashimaa/eventhub/services/ticket/internal/domain"
	"github.com/sakashimaa/eventhub/services/ticket/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const issuerConsumer = "ticket-issuer"

type TicketService interface {
	IssueForOrder(ctx context.Context, event *generalDomain.OrderPaidEvent) (int, error)
	RefundOrder(ctx context.Context, event *generalDomain.OrderCancelledEvent) (int64, error)
	CountTickets(ctx context.Context, userID, ticketTypeID int64) (int64, error)
	OrderTickets(ctx context.Context, orderID int64) ([]domain.Ticket, error)
	UserTickets(ctx context.Context, userID int64) ([]domain.Ticket, error)
	SaveConfigSnapshot(ctx context.Context, cfg *domain.TicketConfig) (*domain.ConfigSnapshot, error)
}

type ticketService struct {
	pool         *pgxpool.Pool
	ticketRepo   repository.TicketRepository
	snapshotRepo repository.SnapshotRepository
	orders       client.OrderClient
	inventory    client.InventoryClient
	logger       *zap.Logger
	tracer       trace.Tracer
	newCode      func() string
}

type TicketDeps struct {
	Pool         *pgxpool.Pool
	TicketRepo   repository.TicketRepository
	SnapshotRepo repository.SnapshotRepository
	Orders       client.OrderClient
	Inventory    client.InventoryClient
}

func NewTicketService(deps TicketDeps, logger *zap.Logger) TicketService {
	return &ticketService{
		pool:         deps.Pool,
		ticketRepo:   deps.TicketRepo,
		snapshotRepo: deps.SnapshotRepo,
		orders:       deps.Orders,
		inventory:    deps.Inventory,
		logger:       logger,
		tracer:       otel.Tracer("service/ticket_service"),
		newCode:      uuid.NewString,
	}
}

// IssueForOrder expands a paid order into tickets exactly once. It returns the number
// of tickets written, zero when the order was already issued or is no longer PAID.
func (s *ticketService) IssueForOrder(ctx context.Context, event *generalDomain.OrderPaidEvent) (int, error) {
	ctx, span := s.tracer.Start(ctx, "TicketService.IssueForOrder")
	defer span.End()

	span.SetAttributes(attribute.Int64("order_id", event.OrderID))

	key := strconv.FormatInt(event.OrderID, 10)

	done, err := utils.AlreadyProcessed(ctx, s.pool, issuerConsumer, key)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	if done {
		mylogger.Info(ctx, s.logger, "Order already issued", zap.Int64("order_id", event.OrderID))
		return 0, nil
	}

	order, err := s.orders.GetOrderDetail(ctx, event.OrderID)
	if err != nil {
		span.RecordError(err)
		mylogger.Error(ctx, s.logger, "Failed to fetch order detail", zap.Int64("order_id", event.OrderID), zap.Error(err))
		return 0, err
	}

	if order.Status != domain.OrderStatusPaid {
		mylogger.Warn(ctx, s.logger, "Order is not paid, skipping issuance",
			zap.Int64("order_id", order.ID),
			zap.String("status", order.Status),
		)
		return 0, nil
	}

	labels, codes, err := s.labelsFor(ctx, order)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	email := event.UserEmail
	if email == "" {
		email = order.UserEmail
	}

	tickets := domain.Expand(order, email, codes, labels, s.newCode)

	issued, err := utils.ProcessWithDeduplication(ctx, s.pool, s.logger, issuerConsumer, key, func(ctx context.Context, tx pgx.Tx) error {
		if len(tickets) == 0 {
			return nil
		}

		_, err := s.ticketRepo.InsertBatch(ctx, tx, tickets)
		return err
	})
	if err != nil {
		mylogger.Error(ctx, s.logger, "Failed to issue tickets", zap.Int64("order_id", order.ID), zap.Error(err))
		return 0, err
	}
	if !issued {
		return 0, nil
	}

	ticketsIssuedTotal.Add(float64(len(tickets)))
	span.SetAttributes(attribute.Int("tickets", len(tickets)))

	mylogger.Info(ctx, s.logger, "Tickets issued",
		zap.Int64("order_id", order.ID),
		zap.Int("tickets", len(tickets)),
	)

	return len(tickets), nil
}

func (s *ticketService) labelsFor(ctx context.Context, order *domain.OrderDetail) (*domain.LabelRotator, map[int64]string, error) {
	var cfg *domain.TicketConfig

	snapshot, err := s.snapshotRepo.Latest(ctx, order.EventID)
	switch {
	case err == nil:
		cfg = &snapshot.Payload
	case errors.Is(err, repository.ErrSnapshotNotFound):
		mylogger.Info(ctx, s.logger, "No ticket config for event", zap.Int64("event_id", order.EventID))
	default:
		return nil, nil, err
	}

	codes := make(map[int64]string, len(order.Items))
	for _, item := range order.Items {
		if _, ok := codes[item.TicketTypeID]; ok {
			continue
		}

		code, err := s.inventory.TicketTypeCode(ctx, item.TicketTypeID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve ticket type code: %w", err)
		}
		codes[item.TicketTypeID] = code
	}

	return domain.NewLabelRotator(cfg), codes, nil
}

func (s *ticketService) RefundOrder(ctx context.Context, event *generalDomain.OrderCancelledEvent) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "TicketService.RefundOrder")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", event.OrderID),
		attribute.Bool("refunded", event.Refunded),
	)

	if !event.Refunded {
		return 0, nil
	}

	n, err := s.ticketRepo.MarkRefunded(ctx, event.OrderID)
	if err != nil {
		span.RecordError(err)
		mylogger.Error(ctx, s.logger, "Failed to refund tickets", zap.Int64("order_id", event.OrderID), zap.Error(err))
		return 0, err
	}

	ticketsRefundedTotal.Add(float64(n))
	mylogger.Info(ctx, s.logger, "Tickets refunded", zap.Int64("order_id", event.OrderID), zap.Int64("tickets", n))

	return n, nil
}

func (s *ticketService) CountTickets(ctx context.Context, userID, ticketTypeID int64) (int64, error) {
	if userID <= 0 || ticketTypeID <= 0 {
		return 0, fmt.Errorf("%w: user_id and ticket_type_id are required", ErrInvalidRequest)
	}

	return s.ticketRepo.CountByUserAndType(ctx, userID, ticketTypeID)
}

func (s *ticketService) OrderTickets(ctx context.Context, orderID int64) ([]domain.Ticket, error) {
	return s.ticketRepo.ByOrder(ctx, orderID)
}

func (s *ticketService) UserTickets(ctx context.Context, userID int64) ([]domain.Ticket, error) {
	return s.ticketRepo.ByUser(ctx, userID)
}

func (s *ticketService) SaveConfigSnapshot(ctx context.Context, cfg *domain.TicketConfig) (*domain.ConfigSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "TicketService.SaveConfigSnapshot")
	defer span.End()

	if cfg == nil || cfg.EventID <= 0 {
		return nil, fmt.Errorf("%w: event_id is required", ErrInvalidRequest)
	}

	snapshot := &domain.ConfigSnapshot{
		EventID:   cfg.EventID,
		EventCode: cfg.EventCode,
		Payload:   *cfg,
	}

	if err := s.snapshotRepo.Save(ctx, snapshot); err != nil {
		span.RecordError(err)
		return nil, err
	}

	mylogger.Info(ctx, s.logger, "Ticket config saved",
		zap.Int64("event_id", cfg.EventID),
		zap.Int("details", len(cfg.TicketDetails)),
	)

	return snapshot, nil
}
