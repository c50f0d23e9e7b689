package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	generalDomain "github.com/sakashimaa/eventhub/pkg/domain"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	outboxDomain "github.com/sakashimaa/eventhub/pkg/outbox/domain"
	"github.com/sakashimaa/eventhub/pkg/outbox/worker"
	"github.com/sakashimaa/eventhub/services/order/internal/client"
	"github.com/sakashimaa/eventhub/services/order/internal/domain"
	"github.com/sakashimaa/eventhub/services/order/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const aggregateOrder = "order"

type OrderService interface {
	CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error)
	InitiatePayment(ctx context.Context, userID, orderID int64, method string) (*domain.PaymentOutcome, error)
	ProcessPaymentCallback(ctx context.Context, outcome domain.PaymentOutcome) (*domain.Order, error)
	CancelOrder(ctx context.Context, userID, orderID int64) (*domain.Order, error)

	GetOrder(ctx context.Context, userID, orderID int64) (*domain.Order, error)
	UserOrders(ctx context.Context, userID int64) ([]domain.Order, error)
	EventOrders(ctx context.Context, eventID int64) ([]domain.Order, error)
	SoldCount(ctx context.Context, eventID, ticketTypeID int64) (int64, error)
	OrderDetail(ctx context.Context, orderID int64) (*domain.OrderDetail, error)

	HandleUserRegistered(ctx context.Context, event *generalDomain.UserRegisteredEvent) error
	HandlePaymentEvent(ctx context.Context, outcome domain.PaymentOutcome) error
}

type orderService struct {
	pool            *pgxpool.Pool
	orderRepo       repository.OrderRepository
	reservationRepo repository.ReservationRepository
	paymentInfoRepo repository.PaymentInfoRepository
	userRepo        repository.UserRepository
	sagaRepo        repository.SagaRepository
	outboxRepo      worker.OutboxRepository
	reservations    ReservationConsumer
	compensator     Compensator
	inventory       client.InventoryClient
	payments        client.PaymentClient
	logger          *zap.Logger
	tracer          trace.Tracer
	now             func() time.Time
}

type OrderDeps struct {
	Pool            *pgxpool.Pool
	OrderRepo       repository.OrderRepository
	ReservationRepo repository.ReservationRepository
	PaymentInfoRepo repository.PaymentInfoRepository
	UserRepo        repository.UserRepository
	SagaRepo        repository.SagaRepository
	OutboxRepo      worker.OutboxRepository
	Reservations    ReservationConsumer
	Compensator     Compensator
	Inventory       client.InventoryClient
	Payments        client.PaymentClient
}

func NewOrderService(deps OrderDeps, logger *zap.Logger) OrderService {
	return &orderService{
		pool:            deps.Pool,
		orderRepo:       deps.OrderRepo,
		reservationRepo: deps.ReservationRepo,
		paymentInfoRepo: deps.PaymentInfoRepo,
		userRepo:        deps.UserRepo,
		sagaRepo:        deps.SagaRepo,
		outboxRepo:      deps.OutboxRepo,
		reservations:    deps.Reservations,
		compensator:     deps.Compensator,
		inventory:       deps.Inventory,
		payments:        deps.Payments,
		logger:          logger,
		tracer:          otel.Tracer("service/order_service"),
		now:             time.Now,
	}
}

// line is one resolved checkout input before pricing.
type line struct {
	reservationID int64
	ticketTypeID  int64
	showtimeID    *int64
	quantity      int32
}

func (s *orderService) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", req.UserID),
		attribute.Int64("event_id", req.EventID),
	)

	order, discount, lines, err := s.prepare(ctx, req)
	if err != nil {
		ordersCreated.WithLabelValues("rejected").Inc()
		return nil, err
	}

	if err := s.runCheckout(ctx, order, discount, lines); err != nil {
		result := "failed"
		if errors.Is(err, domain.ErrInsufficientQuota) || errors.Is(err, ErrInvalidReservation) {
			result = "rejected"
		} else {
			span.RecordError(err)
		}
		ordersCreated.WithLabelValues(result).Inc()
		return nil, err
	}

	ordersCreated.WithLabelValues("created").Inc()
	mylogger.Info(ctx, s.logger, "Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", order.UserID),
		zap.Int64("total_amount", order.TotalAmount),
	)

	return order, nil
}

// prepare resolves, prices and validates a checkout without changing any state.
func (s *orderService) prepare(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, *domain.Discount, []line, error) {
	now := s.now()

	lines, err := s.resolve(ctx, req, now)
	if err != nil {
		return nil, nil, nil, err
	}

	order := &domain.Order{
		UserID:   req.UserID,
		EventID:  req.EventID,
		Currency: strings.ToUpper(strings.TrimSpace(req.Currency)),
		Status:   domain.OrderStatusPending,
	}
	if order.Currency == "" {
		order.Currency = domain.DefaultCurrency
	}
	if m := strings.TrimSpace(req.PaymentMethod); m != "" {
		order.PaymentMethod = &m
	}

	prices := make(map[int64]int64)
	for _, l := range lines {
		price, ok := prices[l.ticketTypeID]
		if !ok {
			tt, err := s.inventory.GetTicketType(ctx, l.ticketTypeID)
			if err != nil {
				return nil, nil, nil, err
			}
			if tt.EventID != req.EventID {
				return nil, nil, nil, fmt.Errorf("%w: ticket type %d does not belong to event %d", ErrInvalidRequest, tt.ID, req.EventID)
			}
			if l.reservationID == 0 && !tt.SaleOpen(now) {
				return nil, nil, nil, domain.ErrSaleWindowClosed
			}
			price = tt.Price
			prices[l.ticketTypeID] = price
		}

		order.AddItem(l.ticketTypeID, l.showtimeID, l.quantity, price)
	}

	subtotal := order.Subtotal()
	order.TotalAmount = subtotal

	var discount *domain.Discount
	if code := strings.TrimSpace(req.DiscountCode); code != "" {
		discount, err = s.inventory.GetDiscount(ctx, req.EventID, code)
		if err != nil {
			if errors.Is(err, domain.ErrDiscountNotFound) {
				return nil, nil, nil, fmt.Errorf("%w: unknown code %s", domain.ErrInvalidDiscount, code)
			}
			return nil, nil, nil, err
		}
		if err := discount.Validate(now, subtotal); err != nil {
			return nil, nil, nil, err
		}

		order.TotalAmount = discount.Apply(subtotal)
		order.DiscountCode = &discount.Code
	}

	return order, discount, lines, nil
}

func (s *orderService) resolve(ctx context.Context, req domain.CreateOrderRequest, now time.Time) ([]line, error) {
	if len(req.ReservationIDs) > 0 && len(req.Items) > 0 {
		return nil, fmt.Errorf("%w: use either reservation_ids or items", ErrInvalidRequest)
	}

	if len(req.ReservationIDs) == 0 {
		if len(req.Items) == 0 {
			return nil, fmt.Errorf("%w: nothing to order", ErrInvalidRequest)
		}

		lines := make([]line, 0, len(req.Items))
		for _, item := range req.Items {
			if item.Quantity <= 0 {
				return nil, ErrInvalidQuantity
			}
			lines = append(lines, line{
				ticketTypeID: item.TicketTypeID,
				showtimeID:   item.ShowtimeID,
				quantity:     item.Quantity,
			})
		}
		return lines, nil
	}

	seen := make(map[int64]struct{}, len(req.ReservationIDs))
	lines := make([]line, 0, len(req.ReservationIDs))
	for _, id := range req.ReservationIDs {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: reservation %d listed twice", ErrInvalidReservation, id)
		}
		seen[id] = struct{}{}

		res, err := s.reservationRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrReservationNotFound) {
				return nil, fmt.Errorf("%w: reservation %d not found", ErrInvalidReservation, id)
			}
			return nil, err
		}

		switch {
		case res.UserID != req.UserID:
			return nil, fmt.Errorf("%w: reservation %d belongs to another user", ErrInvalidReservation, id)
		case res.EventID != req.EventID:
			return nil, fmt.Errorf("%w: reservation %d is for another event", ErrInvalidReservation, id)
		case res.Status != domain.ReservationStatusPending || !res.ExpireAt.After(now):
			return nil, fmt.Errorf("%w: reservation %d is %s or expired", ErrInvalidReservation, id, res.Status)
		}

		lines = append(lines, line{
			reservationID: res.ID,
			ticketTypeID:  res.TicketTypeID,
			quantity:      res.Quantity,
		})
	}

	return lines, nil
}

// runCheckout executes the checkout saga. On failure every completed step is undone
// before the cause is returned.
func (s *orderService) runCheckout(ctx context.Context, order *domain.Order, discount *domain.Discount, lines []line) error {
	run, err := startSaga(ctx, s.sagaRepo)
	if err != nil {
		return err
	}

	if err := s.checkoutSteps(ctx, run, order, lines); err != nil {
		mylogger.Warn(ctx, s.logger, "Checkout failed, compensating",
			zap.String("saga_id", run.saga.ID),
			zap.Error(err),
		)

		if cerr := s.compensator.Compensate(context.WithoutCancel(ctx), run.saga, run.steps); cerr != nil {
			mylogger.Error(ctx, s.logger, "Compensation incomplete, left for recovery",
				zap.String("saga_id", run.saga.ID),
				zap.Error(cerr),
			)
		}

		return err
	}

	if discount != nil {
		if err := s.inventory.IncrementDiscountUsage(ctx, discount.ID); err != nil {
			mylogger.Warn(ctx, s.logger, "Failed to record discount usage",
				zap.Int64("order_id", order.ID),
				zap.Int64("discount_id", discount.ID),
				zap.Error(err),
			)
		}
	}

	if err := s.sagaRepo.SetStatus(ctx, run.saga.ID, domain.SagaStatusCompleted, ""); err != nil {
		mylogger.Warn(ctx, s.logger, "Failed to mark saga completed", zap.String("saga_id", run.saga.ID), zap.Error(err))
	}

	return nil
}

func (s *orderService) checkoutSteps(ctx context.Context, run *sagaRun, order *domain.Order, lines []line) error {
	var reservationIDs []int64
	for _, l := range lines {
		if l.reservationID == 0 {
			continue
		}

		if _, err := s.reservations.Consume(ctx, l.reservationID, order.UserID); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidReservation, err)
		}
		reservationIDs = append(reservationIDs, l.reservationID)

		if err := run.record(ctx, domain.StepConfirmReservation, l.reservationID, int64(l.quantity)); err != nil {
			return err
		}
	}

	err := inTx(ctx, s.pool, s.logger, func(tx pgx.Tx) error {
		if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
			return err
		}
		return s.reservationRepo.LinkOrder(ctx, tx, reservationIDs, order.ID)
	})
	if err != nil {
		return err
	}

	run.saga.OrderID = &order.ID
	if err := run.record(ctx, domain.StepPersistOrder, order.ID, 0); err != nil {
		return err
	}
	if err := s.sagaRepo.SetOrder(ctx, run.saga.ID, order.ID); err != nil {
		return err
	}

	for _, q := range order.QuantityByTicketType() {
		if _, err := s.inventory.DecrementQuota(ctx, q.TicketTypeID, int64(q.Quantity)); err != nil {
			return err
		}

		if err := run.record(ctx, domain.StepDecrementQuota, q.TicketTypeID, int64(q.Quantity)); err != nil {
			return err
		}
	}

	method := ""
	if order.PaymentMethod != nil {
		method = *order.PaymentMethod
	}

	return inTx(ctx, s.pool, s.logger, func(tx pgx.Tx) error {
		return s.paymentInfoRepo.Create(ctx, tx, &domain.PaymentInfo{
			OrderID: order.ID,
			Method:  method,
			Amount:  order.TotalAmount,
			Status:  domain.PaymentStatusPending,
		})
	})
}

func (s *orderService) InitiatePayment(ctx context.Context, userID, orderID int64, method string) (*domain.PaymentOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.InitiatePayment")
	defer span.End()

	span.SetAttributes(attribute.Int64("order_id", orderID))

	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != domain.OrderStatusPending {
		return nil, ErrOrderNotPending
	}

	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" && order.PaymentMethod != nil {
		method = *order.PaymentMethod
	}
	if method == "" {
		return nil, fmt.Errorf("%w: payment method is required", ErrInvalidRequest)
	}

	err = inTx(ctx, s.pool, s.logger, func(tx pgx.Tx) error {
		return s.paymentInfoRepo.SetMethod(ctx, tx, orderID, method)
	})
	if err != nil {
		return nil, err
	}

	result, err := s.payments.Charge(ctx, domain.ChargeRequest{
		OrderID:  order.ID,
		UserID:   order.UserID,
		Amount:   order.TotalAmount,
		Currency: order.Currency,
		Method:   method,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	outcome := domain.PaymentOutcome{
		OrderID:       order.ID,
		TransactionID: result.TransactionID,
		Status:        result.Status,
		PaymentURL:    result.PaymentURL,
	}

	if _, err := s.ProcessPaymentCallback(ctx, outcome); err != nil {
		return nil, err
	}

	return &outcome, nil
}

// ProcessPaymentCallback applies a provider outcome under a row lock on the order.
// Repeating an outcome the order already reflects is a no-op.
func (s *orderService) ProcessPaymentCallback(ctx context.Context, outcome domain.PaymentOutcome) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ProcessPaymentCallback")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", outcome.OrderID),
		attribute.String("status", string(outcome.Status)),
	)

	var (
		order   *domain.Order
		applied bool
	)
	err := inTx(ctx, s.pool, s.logger, func(tx pgx.Tx) error {
		var err error
		order, err = s.orderRepo.GetForUpdate(ctx, tx, outcome.OrderID)
		if err != nil {
			return err
		}

		switch outcome.Status {
		case domain.PaymentStatusSuccess:
			if order.Status == domain.OrderStatusPaid {
				return nil
			}
			if order.Status != domain.OrderStatusPending {
				return ErrOrderNotPending
			}
			applied = true
			return s.markPaid(ctx, tx, order, outcome.TransactionID)
		case domain.PaymentStatusFailed:
			if order.Status == domain.OrderStatusCancelled {
				return nil
			}
			if order.Status != domain.OrderStatusPending {
				return ErrOrderNotPending
			}
			applied = true
			return s.markCancelled(ctx, tx, order, domain.OrderStatusCancelled, domain.PaymentStatusFailed, outcome.TransactionID, false)
		case domain.PaymentStatusPending:
			if order.Status != domain.OrderStatusPending {
				return nil
			}
			return s.paymentInfoRepo.Update(ctx, tx, order.ID, domain.PaymentStatusPending, outcome.TransactionID, nil)
		default:
			return fmt.Errorf("%w: unknown payment status %q", ErrInvalidRequest, outcome.Status)
		}
	})
	if err != nil {
		if !errors.Is(err, ErrOrderNotPending) {
			span.RecordError(err)
		}
		return nil, err
	}

	if applied {
		if order.Status == domain.OrderStatusPaid {
			ordersPaid.Inc()
		}
		mylogger.Info(ctx, s.logger, "Payment outcome applied",
			zap.Int64("order_id", order.ID),
			zap.String("order_status", string(order.Status)),
			zap.String("transaction_id", outcome.TransactionID),
		)
	}

	return order, nil
}

func (s *orderService) markPaid(ctx context.Context, tx pgx.Tx, order *domain.Order, transactionID string) error {
	if err := s.orderRepo.ChangeOrderStatus(ctx, tx, order.ID, domain.OrderStatusPaid); err != nil {
		return err
	}

	paidAt := s.now()
	if err := s.paymentInfoRepo.Update(ctx, tx, order.ID, domain.PaymentStatusSuccess, transactionID, &paidAt); err != nil {
		return err
	}

	email, err := s.userRepo.GetEmail(ctx, tx, order.UserID)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return err
		}
		mylogger.Warn(ctx, s.logger, "No email known for user, publishing without it", zap.Int64("user_id", order.UserID))
	}

	event, err := outboxDomain.NewOutboxEvent(generalDomain.TopicOrderPaid, aggregateOrder, order.ID, generalDomain.EventOrderPaid, generalDomain.OrderPaidEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		UserEmail:   email,
		EventID:     order.EventID,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
	})
	if err != nil {
		return err
	}

	if err := s.outboxRepo.SaveOutboxEvent(ctx, tx, event); err != nil {
		return err
	}

	order.Status = domain.OrderStatusPaid
	return nil
}

// markCancelled moves the order to a terminal status, frees its reservations and
// queues order.cancelled so inventory restores the quota.
func (s *orderService) markCancelled(
	ctx context.Context,
	tx pgx.Tx,
	order *domain.Order,
	status domain.OrderStatus,
	paymentStatus domain.PaymentStatus,
	transactionID string,
	refunded bool,
) error {
	if err := s.orderRepo.ChangeOrderStatus(ctx, tx, order.ID, status); err != nil {
		return err
	}

	if err := s.paymentInfoRepo.Update(ctx, tx, order.ID, paymentStatus, transactionID, nil); err != nil && !errors.Is(err, repository.ErrPaymentInfoNotFound) {
		return err
	}

	if _, err := s.reservationRepo.CancelForOrder(ctx, tx, order.ID); err != nil {
		return err
	}

	quantities := order.QuantityByTicketType()
	items := make([]generalDomain.OrderCancelledItem, 0, len(quantities))
	for _, q := range quantities {
		items = append(items, generalDomain.OrderCancelledItem{TicketTypeID: q.TicketTypeID, Quantity: q.Quantity})
	}

	event, err := outboxDomain.NewOutboxEvent(generalDomain.TopicOrderCancelled, aggregateOrder, order.ID, generalDomain.EventOrderCancelled, generalDomain.OrderCancelledEvent{
		OrderID:  order.ID,
		EventID:  order.EventID,
		Refunded: refunded,
		Items:    items,
	})
	if err != nil {
		return err
	}

	if err := s.outboxRepo.SaveOutboxEvent(ctx, tx, event); err != nil {
		return err
	}

	order.Status = status
	return nil
}

func (s *orderService) CancelOrder(ctx context.Context, userID, orderID int64) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CancelOrder")
	defer span.End()

	span.SetAttributes(attribute.Int64("order_id", orderID))

	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status.Terminal() {
		return nil, ErrAlreadyTerminal
	}

	policy, err := s.inventory.GetEvent(ctx, order.EventID)
	if err != nil {
		return nil, err
	}

	if err := policy.CheckRefund(s.now()); err != nil {
		return nil, err
	}

	paid := order.Status == domain.OrderStatusPaid
	if paid {
		if amount := policy.RefundAmount(order.TotalAmount); amount > 0 {
			refund, err := s.payments.Refund(ctx, domain.RefundRequest{
				OrderID: order.ID,
				Amount:  amount,
				Reason:  "User requested cancellation",
			})
			if err != nil {
				span.RecordError(err)
				return nil, err
			}

			mylogger.Info(ctx, s.logger, "Order refunded",
				zap.Int64("order_id", order.ID),
				zap.Int64("amount", refund.Amount),
				zap.String("transaction_id", refund.TransactionID),
			)
		}
	} else if err := s.payments.Void(ctx, order.ID); err != nil {
		if errors.Is(err, domain.ErrPaymentSettled) {
			return nil, fmt.Errorf("%w: %w", ErrOrderNotPending, err)
		}
		span.RecordError(err)
		return nil, err
	}

	err = inTx(ctx, s.pool, s.logger, func(tx pgx.Tx) error {
		locked, err := s.orderRepo.GetForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if locked.Status.Terminal() {
			return ErrAlreadyTerminal
		}
		if locked.Status != order.Status {
			return ErrOrderNotPending
		}

		if paid {
			return s.markCancelled(ctx, tx, locked, domain.OrderStatusRefunded, domain.PaymentStatusRefunded, "", true)
		}
		return s.markCancelled(ctx, tx, locked, domain.OrderStatusCancelled, domain.PaymentStatusFailed, "", false)
	})
	if err != nil {
		return nil, err
	}

	return s.orderRepo.GetByID(ctx, orderID)
}

func (s *orderService) GetOrder(ctx context.Context, userID, orderID int64) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrder")
	defer span.End()

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != userID {
		return nil, ErrForbidden
	}

	return order, nil
}

func (s *orderService) UserOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.UserOrders")
	defer span.End()

	return s.orderRepo.ListByUser(ctx, userID)
}

func (s *orderService) EventOrders(ctx context.Context, eventID int64) ([]domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.EventOrders")
	defer span.End()

	return s.orderRepo.ListByEvent(ctx, eventID)
}

func (s *orderService) SoldCount(ctx context.Context, eventID, ticketTypeID int64) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.SoldCount")
	defer span.End()

	return s.orderRepo.SoldCount(ctx, eventID, ticketTypeID)
}

func (s *orderService) OrderDetail(ctx context.Context, orderID int64) (*domain.OrderDetail, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.OrderDetail")
	defer span.End()

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	detail := &domain.OrderDetail{Order: *order}
	err = inTx(ctx, s.pool, s.logger, func(tx pgx.Tx) error {
		email, err := s.userRepo.GetEmail(ctx, tx, order.UserID)
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		detail.UserEmail = email
		return err
	})
	if err != nil {
		return nil, err
	}

	return detail, nil
}

func (s *orderService) HandleUserRegistered(ctx context.Context, event *generalDomain.UserRegisteredEvent) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.HandleUserRegistered")
	defer span.End()

	if event.UserID <= 0 || strings.TrimSpace(event.Email) == "" {
		return fmt.Errorf("%w: user id and email are required", ErrInvalidRequest)
	}

	return s.userRepo.Save(ctx, event)
}

// HandlePaymentEvent applies an outcome delivered over the bus. Outcomes that conflict
// with a terminal order are logged and dropped so the message is not redelivered forever.
func (s *orderService) HandlePaymentEvent(ctx context.Context, outcome domain.PaymentOutcome) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.HandlePaymentEvent")
	defer span.End()

	_, err := s.ProcessPaymentCallback(ctx, outcome)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrOrderNotPending), errors.Is(err, repository.ErrOrderNotFound):
		mylogger.Warn(ctx, s.logger, "Dropping payment event",
			zap.Int64("order_id", outcome.OrderID),
			zap.String("status", string(outcome.Status)),
			zap.Error(err),
		)
		return nil
	default:
		return err
	}
}
