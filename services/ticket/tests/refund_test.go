package tests

import (
	generalDomain "github.com/sakashimaa/eventhub/pkg/domain"
	"github.com/sakashimaa/eventhub/services/ticket/internal/domain"
	"github.com/sakashimaa/eventhub/services/ticket/internal/service"
)

func (s *IntegrationTestSuite) issue(orderID int64, items ...domain.OrderItem) {
	s.paidOrder(orderID, items...)

	_, err := s.TicketService.IssueForOrder(s.Ctx, &generalDomain.OrderPaidEvent{OrderID: orderID})
	s.Require().NoError(err)
}

func (s *IntegrationTestSuite) TestRefund_MarksTicketsOfRefundedOrder() {
	s.issue(200, domain.OrderItem{TicketTypeID: gaTypeID, Quantity: 2})

	body := s.envelope(generalDomain.EventOrderCancelled, generalDomain.OrderCancelledEvent{
		OrderID:  200,
		EventID:  eventID,
		Refunded: true,
	})
	s.Require().NoError(s.Consumer.ProcessMessage(s.Ctx, generalDomain.TopicOrderCancelled, body))

	tickets, err := s.TicketService.OrderTickets(s.Ctx, 200)
	s.Require().NoError(err)
	for _, t := range tickets {
		s.Equal(domain.TicketStatusRefunded, t.Status)
	}

	n, err := s.TicketService.RefundOrder(s.Ctx, &generalDomain.OrderCancelledEvent{OrderID: 200, Refunded: true})
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *IntegrationTestSuite) TestRefund_IgnoresCancellationWithoutRefund() {
	s.issue(201, domain.OrderItem{TicketTypeID: gaTypeID, Quantity: 1})

	n, err := s.TicketService.RefundOrder(s.Ctx, &generalDomain.OrderCancelledEvent{OrderID: 201})
	s.Require().NoError(err)
	s.Zero(n)

	tickets, err := s.TicketService.OrderTickets(s.Ctx, 201)
	s.Require().NoError(err)
	s.Equal(domain.TicketStatusIssued, tickets[0].Status)
}

func (s *IntegrationTestSuite) TestCount_ExcludesRefundedTickets() {
	s.issue(202, domain.OrderItem{TicketTypeID: gaTypeID, Quantity: 2})
	s.issue(203, domain.OrderItem{TicketTypeID: gaTypeID, Quantity: 3}, domain.OrderItem{TicketTypeID: vipTypeID, Quantity: 1})

	n, err := s.TicketService.CountTickets(s.Ctx, buyerID, gaTypeID)
	s.Require().NoError(err)
	s.Equal(int64(5), n)

	_, err = s.TicketService.RefundOrder(s.Ctx, &generalDomain.OrderCancelledEvent{OrderID: 203, Refunded: true})
	s.Require().NoError(err)

	n, err = s.TicketService.CountTickets(s.Ctx, buyerID, gaTypeID)
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	mine, err := s.TicketService.UserTickets(s.Ctx, buyerID)
	s.Require().NoError(err)
	s.Len(mine, 6)

	_, err = s.TicketService.CountTickets(s.Ctx, 0, gaTypeID)
	s.ErrorIs(err, service.ErrInvalidRequest)
}
