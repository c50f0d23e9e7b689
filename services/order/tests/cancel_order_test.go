package tests

import (
	"encoding/json"
	"fmt"
	"time"

	generalDomain "github.com/sakashimaa/eventhub/pkg/domain"
	"github.com/sakashimaa/eventhub/services/order/internal/domain"
	"github.com/sakashimaa/eventhub/services/order/internal/service"
)

func (s *IntegrationTestSuite) TestCancelOrder_PaidIsRefundedMinusFee() {
	order := s.createPaidOrder()

	got, err := s.OrderService.CancelOrder(s.Ctx, buyerID, order.ID)
	s.Require().NoError(err)
	s.Require().Equal(domain.OrderStatusRefunded, got.Status)

	s.Require().Len(s.Payments.refunds, 1)
	s.Require().Equal(int64(2250), s.Payments.refunds[0].Amount)

	var payload []byte
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `
		SELECT payload FROM outbox WHERE topic = $1 AND aggregate_id = $2
	`, generalDomain.TopicOrderCancelled, fmt.Sprintf("%d", order.ID)).Scan(&payload))

	var envelope generalDomain.Envelope
	s.Require().NoError(json.Unmarshal(payload, &envelope))

	var cancelled generalDomain.OrderCancelledEvent
	s.Require().NoError(json.Unmarshal(envelope.Payload, &cancelled))
	s.Require().True(cancelled.Refunded)
	s.Require().Equal([]generalDomain.OrderCancelledItem{{TicketTypeID: gaTypeID, Quantity: 2}}, cancelled.Items)

	_, err = s.OrderService.CancelOrder(s.Ctx, buyerID, order.ID)
	s.Require().ErrorIs(err, service.ErrAlreadyTerminal)
}

func (s *IntegrationTestSuite) TestCancelOrder_PendingIsCancelledWithoutRefund() {
	order := s.pendingOrder()

	got, err := s.OrderService.CancelOrder(s.Ctx, buyerID, order.ID)
	s.Require().NoError(err)
	s.Require().Equal(domain.OrderStatusCancelled, got.Status)
	s.Require().Empty(s.Payments.refunds)
	s.Require().Equal([]int64{order.ID}, s.Payments.voided)
	s.Require().Equal(1, s.outboxCount(generalDomain.TopicOrderCancelled, order.ID))
}

func (s *IntegrationTestSuite) TestCancelOrder_PendingWithSettledPaymentIsKept() {
	order := s.pendingOrder()
	s.Payments.voidErr = fmt.Errorf("order %d: %w", order.ID, domain.ErrPaymentSettled)

	_, err := s.OrderService.CancelOrder(s.Ctx, buyerID, order.ID)
	s.Require().ErrorIs(err, service.ErrOrderNotPending)
	s.Require().Equal(domain.OrderStatusPending, s.orderStatus(order.ID))
	s.Require().Zero(s.outboxCount(generalDomain.TopicOrderCancelled, order.ID))
}

func (s *IntegrationTestSuite) TestCancelOrder_RefundRules() {
	tests := []struct {
		name    string
		policy  domain.EventPolicy
		wantErr error
	}{
		{
			name:    "deadline passed",
			policy:  domain.EventPolicy{ID: testEventID, StartTime: time.Now().Add(12 * time.Hour), RefundEnabled: true, RefundDeadlineHours: 24},
			wantErr: domain.ErrRefundDeadlinePassed,
		},
		{
			name:    "refunds disabled",
			policy:  domain.EventPolicy{ID: testEventID, StartTime: time.Now().Add(72 * time.Hour), RefundEnabled: false},
			wantErr: domain.ErrRefundNotAllowed,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.TruncateTable("saga_steps", "sagas", "payment_info", "order_items", "orders", "reservations", "outbox")
			s.Payments.refunds = nil

			order := s.createPaidOrder()
			s.Inventory.addEvent(tt.policy)

			_, err := s.OrderService.CancelOrder(s.Ctx, buyerID, order.ID)
			s.Require().ErrorIs(err, tt.wantErr)
			s.Require().Equal(domain.OrderStatusPaid, s.orderStatus(order.ID))
			s.Require().Empty(s.Payments.refunds)
			s.Require().Empty(s.Payments.voided)
		})
	}
}

func (s *IntegrationTestSuite) TestCancelOrder_OtherUsersOrder() {
	order := s.pendingOrder()

	_, err := s.OrderService.CancelOrder(s.Ctx, buyerID+1, order.ID)
	s.Require().ErrorIs(err, service.ErrForbidden)
}
