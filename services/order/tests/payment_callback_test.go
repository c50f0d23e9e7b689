package tests

import (
	"encoding/json"
	"fmt"
	"time"

	generalDomain "github.com/sakashimaa/eventhub/pkg/domain"
	"github.com/sakashimaa/eventhub/services/order/internal/domain"
	"github.com/sakashimaa/eventhub/services/order/internal/service"
)

func (s *IntegrationTestSuite) pendingOrder() *domain.Order {
	s.seedUser(buyerID, "buyer@example.com")
	res := s.hold(buyerID, gaTypeID, 2)

	order, err := s.OrderService.CreateOrder(s.Ctx, domain.CreateOrderRequest{
		UserID:         buyerID,
		EventID:        testEventID,
		ReservationIDs: []int64{res.ID},
		PaymentMethod:  "CREDIT_CARD",
	})
	s.Require().NoError(err)

	return order
}

func (s *IntegrationTestSuite) TestPaymentCallback_SuccessIsIdempotent() {
	order := s.pendingOrder()

	outcome := domain.PaymentOutcome{OrderID: order.ID, TransactionID: "TX-CREDIT_CARD-1", Status: domain.PaymentStatusSuccess}

	for i := 0; i < 3; i++ {
		got, err := s.OrderService.ProcessPaymentCallback(s.Ctx, outcome)
		s.Require().NoError(err)
		s.Require().Equal(domain.OrderStatusPaid, got.Status)
	}

	s.Require().Equal(domain.OrderStatusPaid, s.orderStatus(order.ID))
	s.Require().Equal(1, s.outboxCount(generalDomain.TopicOrderPaid, order.ID))

	var (
		txID   string
		status string
		paidAt *time.Time
	)
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `
		SELECT transaction_id, status, paid_at FROM payment_info WHERE order_id = $1
	`, order.ID).Scan(&txID, &status, &paidAt))
	s.Require().Equal("TX-CREDIT_CARD-1", txID)
	s.Require().Equal(string(domain.PaymentStatusSuccess), status)
	s.Require().NotNil(paidAt)

	var payload []byte
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `
		SELECT payload FROM outbox WHERE topic = $1 AND aggregate_id = $2
	`, generalDomain.TopicOrderPaid, fmt.Sprintf("%d", order.ID)).Scan(&payload))

	var envelope generalDomain.Envelope
	s.Require().NoError(json.Unmarshal(payload, &envelope))
	s.Require().Equal(generalDomain.EventOrderPaid, envelope.Event)

	var paid generalDomain.OrderPaidEvent
	s.Require().NoError(json.Unmarshal(envelope.Payload, &paid))
	s.Require().Equal("buyer@example.com", paid.UserEmail)
	s.Require().Equal(int64(2500), paid.TotalAmount)

	s.Require().Eventually(func() bool {
		var publishedAt *time.Time
		err := s.DbPool.QueryRow(s.Ctx, `
			SELECT published_at FROM outbox WHERE topic = $1 AND aggregate_id = $2
		`, generalDomain.TopicOrderPaid, fmt.Sprintf("%d", order.ID)).Scan(&publishedAt)
		return err == nil && publishedAt != nil
	}, 10*time.Second, 100*time.Millisecond)
}

func (s *IntegrationTestSuite) TestPaymentCallback_FailedCancelsOrder() {
	order := s.pendingOrder()

	got, err := s.OrderService.ProcessPaymentCallback(s.Ctx, domain.PaymentOutcome{
		OrderID: order.ID, TransactionID: "TX-DECLINED_CARD-1", Status: domain.PaymentStatusFailed,
	})
	s.Require().NoError(err)
	s.Require().Equal(domain.OrderStatusCancelled, got.Status)

	s.Require().Equal(1, s.outboxCount(generalDomain.TopicOrderCancelled, order.ID))
	s.Require().Zero(s.outboxCount(generalDomain.TopicOrderPaid, order.ID))

	var reservationStatus string
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `SELECT status FROM reservations WHERE order_id = $1`, order.ID).Scan(&reservationStatus))
	s.Require().Equal(string(domain.ReservationStatusCancelled), reservationStatus)
}

func (s *IntegrationTestSuite) TestPaymentCallback_ConflictingOutcomeOnTerminalOrder() {
	order := s.pendingOrder()

	_, err := s.OrderService.ProcessPaymentCallback(s.Ctx, domain.PaymentOutcome{
		OrderID: order.ID, TransactionID: "TX-1", Status: domain.PaymentStatusSuccess,
	})
	s.Require().NoError(err)

	_, err = s.OrderService.ProcessPaymentCallback(s.Ctx, domain.PaymentOutcome{
		OrderID: order.ID, TransactionID: "TX-1", Status: domain.PaymentStatusFailed,
	})
	s.Require().ErrorIs(err, service.ErrOrderNotPending)
	s.Require().Equal(domain.OrderStatusPaid, s.orderStatus(order.ID))

	s.Require().NoError(s.OrderService.HandlePaymentEvent(s.Ctx, domain.PaymentOutcome{
		OrderID: order.ID, TransactionID: "TX-1", Status: domain.PaymentStatusFailed,
	}))
}

func (s *IntegrationTestSuite) TestPaymentCallback_PendingRecordsTransaction() {
	order := s.pendingOrder()

	_, err := s.OrderService.ProcessPaymentCallback(s.Ctx, domain.PaymentOutcome{
		OrderID: order.ID, TransactionID: "TX-BANK_TRANSFER-1", Status: domain.PaymentStatusPending,
	})
	s.Require().NoError(err)
	s.Require().Equal(domain.OrderStatusPending, s.orderStatus(order.ID))

	var txID string
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `SELECT transaction_id FROM payment_info WHERE order_id = $1`, order.ID).Scan(&txID))
	s.Require().Equal("TX-BANK_TRANSFER-1", txID)
}

func (s *IntegrationTestSuite) TestInitiatePayment_SynchronousSuccess() {
	order := s.pendingOrder()

	outcome, err := s.OrderService.InitiatePayment(s.Ctx, buyerID, order.ID, "credit_card")
	s.Require().NoError(err)
	s.Require().Equal(domain.PaymentStatusSuccess, outcome.Status)
	s.Require().Equal(domain.OrderStatusPaid, s.orderStatus(order.ID))

	s.Require().Len(s.Payments.charges, 1)
	s.Require().Equal("CREDIT_CARD", s.Payments.charges[0].Method)
	s.Require().Equal(int64(2500), s.Payments.charges[0].Amount)

	_, err = s.OrderService.InitiatePayment(s.Ctx, buyerID, order.ID, "CREDIT_CARD")
	s.Require().ErrorIs(err, service.ErrOrderNotPending)

	_, err = s.OrderService.InitiatePayment(s.Ctx, buyerID+1, order.ID, "CREDIT_CARD")
	s.Require().ErrorIs(err, service.ErrForbidden)
}
