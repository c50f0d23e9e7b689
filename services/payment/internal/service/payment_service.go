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
	"github.com/sakashimaa/eventhub/services/payment/internal/client"
	"github.com/sakashimaa/eventhub/services/payment/internal/domain"
	"github.com/sakashimaa/eventhub/services/payment/internal/provider"
	"github.com/sakashimaa/eventhub/services/payment/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	aggregatePayment = "payment"
	defaultCurrency  = "USD"
)

type PaymentService interface {
	Charge(ctx context.Context, req domain.ChargeRequest) (*domain.ChargeResult, error)
	Refund(ctx context.Context, req domain.RefundRequest) (*domain.RefundResult, error)
	ConfirmSimulated(ctx context.Context, transactionID string, success bool) (*domain.Payment, error)
	Void(ctx context.Context, orderID int64) (*domain.Payment, error)
	HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error
	GetByOrder(ctx context.Context, orderID int64) (*domain.Payment, error)
}

type paymentService struct {
	pool        *pgxpool.Pool
	paymentRepo repository.PaymentRepository
	refundRepo  repository.RefundRepository
	outboxRepo  worker.OutboxRepository
	providers   *provider.Registry
	webhook     provider.WebhookParser
	orders      client.OrderClient
	logger      *zap.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

type PaymentDeps struct {
	Pool        *pgxpool.Pool
	PaymentRepo repository.PaymentRepository
	RefundRepo  repository.RefundRepository
	OutboxRepo  worker.OutboxRepository
	Providers   *provider.Registry
	// Webhook is nil when no provider with signed notifications is configured.
	Webhook provider.WebhookParser
	Orders  client.OrderClient
}

func NewPaymentService(deps PaymentDeps, logger *zap.Logger) PaymentService {
	return &paymentService{
		pool:        deps.Pool,
		paymentRepo: deps.PaymentRepo,
		refundRepo:  deps.RefundRepo,
		outboxRepo:  deps.OutboxRepo,
		providers:   deps.Providers,
		webhook:     deps.Webhook,
		orders:      deps.Orders,
		logger:      logger,
		tracer:      otel.Tracer("service/payment_service"),
		now:         time.Now,
	}
}

// Charge creates the single payment of an order. Charging an order that already has a
// payment with the same method returns that payment unchanged.
func (s *paymentService) Charge(ctx context.Context, req domain.ChargeRequest) (*domain.ChargeResult, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.Charge")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", req.OrderID),
		attribute.Int64("amount", req.Amount),
	)

	if req.OrderID <= 0 || req.Amount < 0 {
		return nil, fmt.Errorf("%w: order id and amount are required", ErrInvalidRequest)
	}

	req.Method = provider.NormalizeMethod(req.Method)
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if req.Currency == "" {
		req.Currency = defaultCurrency
	}

	existing, err := s.paymentRepo.GetByOrderID(ctx, req.OrderID)
	switch {
	case err == nil:
		return s.existingCharge(ctx, existing, req.Method)
	case !errors.Is(err, repository.ErrPaymentNotFound):
		return nil, err
	}

	p, err := s.providers.For(req.Method)
	if err != nil {
		return nil, err
	}

	res, err := p.Charge(ctx, req)
	if err != nil {
		span.RecordError(err)
		mylogger.Error(ctx, s.logger, "Provider charge failed", zap.String("provider", p.Name()), zap.Error(err))
		return nil, err
	}

	payment := &domain.Payment{
		OrderID:       req.OrderID,
		UserID:        req.UserID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Method:        req.Method,
		Provider:      p.Name(),
		TransactionID: res.TransactionID,
		Status:        res.Status,
		PaymentURL:    res.PaymentURL,
	}

	err = inTx(ctx, s.pool, s.logger, func(tx pgx.Tx) error {
		if err := s.paymentRepo.Create(ctx, tx, payment); err != nil {
			return err
		}

		if payment.Status.Terminal() {
			return s.emitOutcome(ctx, tx, payment)
		}
		return nil
	})
	if errors.Is(err, repository.ErrPaymentExists) {
		existing, err := s.paymentRepo.GetByOrderID(ctx, req.OrderID)
		if err != nil {
			return nil, err
		}
		return s.existingCharge(ctx, existing, req.Method)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	paymentsTotal.WithLabelValues(payment.Provider, string(payment.Status)).Inc()

	mylogger.Info(ctx, s.logger, "Payment created",
		zap.Int64("order_id", payment.OrderID),
		zap.String("provider", payment.Provider),
		zap.String("status", string(payment.Status)),
		zap.String("transaction_id", payment.TransactionID),
	)

	return chargeResult(payment), nil
}

func (s *paymentService) existingCharge(ctx context.Context, existing *domain.Payment, method string) (*domain.ChargeResult, error) {
	if existing.Method != method {
		return nil, fmt.Errorf("%w: order %d is paid by %s", ErrMethodMismatch, existing.OrderID, existing.Method)
	}

	mylogger.Info(ctx, s.logger, "Payment already exists for order", zap.Int64("order_id", existing.OrderID))
	return chargeResult(existing), nil
}

func chargeResult(p *domain.Payment) *domain.ChargeResult {
	return &domain.ChargeResult{
		PaymentID:     p.ID,
		TransactionID: p.TransactionID,
		Status:        p.Status,
		PaymentURL:    p.PaymentURL,
	}
}

// Refund returns money for a settled payment once. The refund is recorded as pending
// before the provider is called and completed afterwards, so no row lock is held across
// the provider call. A pending refund left by a failed call is retried with its recorded
// amount; a completed one is returned as is.
func (s *paymentService) Refund(ctx context.Context, req domain.RefundRequest) (*domain.RefundResult, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.Refund")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", req.OrderID),
		attribute.Int64("amount", req.Amount),
	)

	if req.OrderID <= 0 || req.Amount <= 0 {
		return nil, fmt.Errorf("%w: order id and a positive amount are required", ErrInvalidRequest)
	}

	var (
		payment *domain.Payment
		refund  *domain.Refund
	)
	err := inTx(ctx, s.pool, s.logger, func(tx pgx.Tx) error {
		var err error
		payment, err = s.paymentRepo.GetByOrderForUpdate(ctx, tx, req.OrderID)
		if err != nil {
			return err
		}

		if payment.Status != domain.StatusSuccess && payment.Status != domain.StatusRefunded {
			return fmt.Errorf("%w: status %s", ErrNotRefundable, payment.Status)
		}

		refund, err = s.refundRepo.GetByPaymentID(ctx, tx, payment.ID)
		if err == nil || !errors.Is(err, repository.ErrRefundNotFound) {
			return err
		}

		if req.Amount > payment.Amount {
			return ErrRefundExceedsAmount
		}

		refund = &domain.Refund{
			PaymentID:     payment.ID,
			TransactionID: "REF-" + payment.TransactionID,
			Amount:        req.Amount,
			Reason:        req.Reason,
			Status:        domain.RefundPending,
		}
		return s.refundRepo.Create(ctx, tx, refund)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if refund.Status == domain.RefundCompleted {
		return &domain.RefundResult{TransactionID: refund.TransactionID, Amount: refund.Amount}, nil
	}

	p, err := s.providers.ByName(payment.Provider)
	if err != nil {
		return nil, err
	}

	reference, err := p.Refund(ctx, payment, refund.Amount)
	if err != nil {
		span.RecordError(err)
		mylogger.Error(ctx, s.logger, "Provider refund failed, refund stays pending",
			zap.Int64("order_id", payment.OrderID),
			zap.String("provider", p.Name()),
			zap.Error(err),
		)
		return nil, err
	}

	var issued bool
	err = inTx(ctx, s.pool, s.logger, func(tx pgx.Tx) error {
		locked, err := s.paymentRepo.GetByOrderForUpdate(ctx, tx, req.OrderID)
		if err != nil {
			return err
		}
		if locked.Status == domain.StatusRefunded {
			return nil
		}

		if err := s.refundRepo.Complete(ctx, tx, refund.ID, reference); err != nil {
			return err
		}

		issued = true
		return s.paymentRepo.UpdateStatus(ctx, tx, locked.ID, domain.StatusRefunded)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if issued {
		refundsTotal.WithLabelValues(p.Name()).Inc()
		mylogger.Info(ctx, s.logger, "Refund issued",
			zap.Int64("order_id", payment.OrderID),
			zap.String("provider_reference", reference),
			zap.Int64("amount", refund.Amount),
		)
	}

	return &domain.RefundResult{TransactionID: refund.TransactionID, Amount: refund.Amount}, nil
}

// ConfirmSimulated completes a pending simulated payment from its return page.
func (s *paymentService) ConfirmSimulated(ctx context.Context, transactionID string, success bool) (*domain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.ConfirmSimulated")
	defer span.End()

	status := domain.StatusFailed
	if success {
		status = domain.StatusSuccess
	}

	return s.complete(ctx, domain.Completion{TransactionID: transactionID, Status: status}, func(p *domain.Payment) error {
		if p.Provider != "simulated" {
			return ErrNotConfirmable
		}
		return nil
	})
}

// Void fails the pending payment of an order that is being cancelled. It emits no outcome
// event. Voiding twice is a no-op; a settled payment is ErrPaymentNotPending.
func (s *paymentService) Void(ctx context.Context, orderID int64) (*domain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.Void")
	defer span.End()

	span.SetAttributes(attribute.Int64("order_id", orderID))

	var payment *domain.Payment
	err := inTx(ctx, s.pool, s.logger, func(tx pgx.Tx) error {
		var err error
		payment, err = s.paymentRepo.GetByOrderForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}

		if payment.Status == domain.StatusFailed {
			return nil
		}
		if payment.Status != domain.StatusPending {
			return fmt.Errorf("%w: status %s", ErrPaymentNotPending, payment.Status)
		}

		if err := s.paymentRepo.UpdateStatus(ctx, tx, payment.ID, domain.StatusFailed); err != nil {
			return err
		}
		payment.Status = domain.StatusFailed

		return nil
	})
	if err != nil {
		if !errors.Is(err, repository.ErrPaymentNotFound) && !errors.Is(err, ErrPaymentNotPending) {
			span.RecordError(err)
		}
		return nil, err
	}

	mylogger.Info(ctx, s.logger, "Payment voided",
		zap.Int64("order_id", orderID),
		zap.String("transaction_id", payment.TransactionID),
	)

	return payment, nil
}

func (s *paymentService) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	ctx, span := s.tracer.Start(ctx, "PaymentService.HandleStripeWebhook")
	defer span.End()

	if s.webhook == nil {
		return ErrWebhookDisabled
	}

	completion, err := s.webhook.ParseWebhook(payload, signature)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if completion == nil {
		return nil
	}

	_, err = s.complete(ctx, *completion, nil)
	if errors.Is(err, repository.ErrPaymentNotFound) {
		mylogger.Warn(ctx, s.logger, "Webhook for unknown payment", zap.String("transaction_id", completion.TransactionID))
		return nil
	}

	return err
}

// complete moves a PENDING payment to its final status, records the outcome on the bus
// and tells the order service. Repeating the current final status is a no-op.
func (s *paymentService) complete(ctx context.Context, c domain.Completion, check func(p *domain.Payment) error) (*domain.Payment, error) {
	var (
		payment *domain.Payment
		applied bool
	)
	err := inTx(ctx, s.pool, s.logger, func(tx pgx.Tx) error {
		var err error
		payment, err = s.paymentRepo.GetByTransactionForUpdate(ctx, tx, c.TransactionID)
		if err != nil {
			return err
		}

		if check != nil {
			if err := check(payment); err != nil {
				return err
			}
		}

		if payment.Status == c.Status {
			return nil
		}
		if payment.Status != domain.StatusPending {
			return fmt.Errorf("%w: status %s", ErrPaymentNotPending, payment.Status)
		}

		if err := s.paymentRepo.UpdateStatus(ctx, tx, payment.ID, c.Status); err != nil {
			return err
		}
		payment.Status = c.Status
		applied = true

		return s.emitOutcome(ctx, tx, payment)
	})
	if err != nil {
		return nil, err
	}

	if !applied {
		return payment, nil
	}

	paymentsTotal.WithLabelValues(payment.Provider, string(payment.Status)).Inc()

	if err := s.orders.PaymentCallback(ctx, payment.OrderID, payment.TransactionID, payment.Status); err != nil {
		mylogger.Warn(ctx, s.logger, "Order callback failed, relying on the bus",
			zap.Int64("order_id", payment.OrderID),
			zap.Error(err),
		)
	}

	return payment, nil
}

func (s *paymentService) emitOutcome(ctx context.Context, tx pgx.Tx, p *domain.Payment) error {
	var (
		eventType string
		payload   any
	)

	switch p.Status {
	case domain.StatusSuccess:
		eventType = generalDomain.EventPaymentSucceeded
		payload = generalDomain.PaymentSucceededEvent{
			OrderID:       p.OrderID,
			PaymentID:     p.ID,
			TransactionID: p.TransactionID,
			Amount:        p.Amount,
			PaidAt:        s.now(),
		}
	case domain.StatusFailed:
		eventType = generalDomain.EventPaymentFailed
		payload = generalDomain.PaymentFailedEvent{
			OrderID:       p.OrderID,
			PaymentID:     p.ID,
			TransactionID: p.TransactionID,
			Amount:        p.Amount,
			FailedAt:      s.now(),
		}
	default:
		return nil
	}

	event, err := outboxDomain.NewOutboxEvent(generalDomain.TopicPaymentEvents, aggregatePayment, p.ID, eventType, payload)
	if err != nil {
		return err
	}

	return s.outboxRepo.SaveOutboxEvent(ctx, tx, event)
}

func (s *paymentService) GetByOrder(ctx context.Context, orderID int64) (*domain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentService.GetByOrder")
	defer span.End()

	span.SetAttributes(attribute.Int64("order_id", orderID))

	return s.paymentRepo.GetByOrderID(ctx, orderID)
}
