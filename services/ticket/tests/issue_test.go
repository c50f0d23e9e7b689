package tests

import (
	generalDomain "github.com/sakashimaa/eventhub/pkg/domain"
	"github.com/sakashimaa/eventhub/services/ticket/internal/domain"
)

func (s *IntegrationTestSuite) TestIssue_QuantityBecomesTickets() {
	s.paidOrder(100, domain.OrderItem{TicketTypeID: gaTypeID, Quantity: 3})

	n, err := s.TicketService.IssueForOrder(s.Ctx, &generalDomain.OrderPaidEvent{OrderID: 100, UserID: buyerID})
	s.Require().NoError(err)
	s.Equal(3, n)

	tickets, err := s.TicketService.OrderTickets(s.Ctx, 100)
	s.Require().NoError(err)
	s.Require().Len(tickets, 3)

	codes := make(map[string]struct{})
	for _, t := range tickets {
		s.Equal(domain.TicketStatusIssued, t.Status)
		s.Equal(buyerID, t.UserID)
		s.Equal(gaTypeID, t.TicketTypeID)
		s.Equal("buyer@example.com", t.AttendeeEmail)
		s.Require().NotNil(t.SeatLabel)
		s.Equal("GA", *t.SeatLabel)
		codes[t.TicketCode] = struct{}{}
	}
	s.Len(codes, 3)
}

func (s *IntegrationTestSuite) TestIssue_DoubleDeliveryWritesOneBatch() {
	s.paidOrder(101, domain.OrderItem{TicketTypeID: gaTypeID, Quantity: 2})

	body := s.envelope(generalDomain.EventOrderPaid, generalDomain.OrderPaidEvent{
		OrderID:   101,
		UserID:    buyerID,
		UserEmail: "attendee@example.com",
		EventID:   eventID,
	})

	s.Require().NoError(s.Consumer.ProcessMessage(s.Ctx, generalDomain.TopicOrderPaid, body))
	s.Require().NoError(s.Consumer.ProcessMessage(s.Ctx, generalDomain.TopicOrderPaid, body))

	s.Equal(2, s.ticketCount(101))
	s.Equal(1, s.Orders.calls)

	tickets, err := s.TicketService.OrderTickets(s.Ctx, 101)
	s.Require().NoError(err)
	s.Equal("attendee@example.com", tickets[0].AttendeeEmail)
}

func (s *IntegrationTestSuite) TestIssue_SkipsOrderThatIsNotPaid() {
	d := s.paidOrder(102, domain.OrderItem{TicketTypeID: gaTypeID, Quantity: 1})
	d.Status = "REFUNDED"
	s.Orders.put(d)

	n, err := s.TicketService.IssueForOrder(s.Ctx, &generalDomain.OrderPaidEvent{OrderID: 102})
	s.Require().NoError(err)
	s.Zero(n)
	s.Zero(s.ticketCount(102))

	d.Status = domain.OrderStatusPaid
	s.Orders.put(d)

	n, err = s.TicketService.IssueForOrder(s.Ctx, &generalDomain.OrderPaidEvent{OrderID: 102})
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *IntegrationTestSuite) TestIssue_ZoneLabelsFromLatestSnapshot() {
	_, err := s.TicketService.SaveConfigSnapshot(s.Ctx, &domain.TicketConfig{
		EventID: eventID,
		TicketDetails: []domain.TicketDetail{
			{TicketTypeCode: "VIP", ZoneName: "OLD"},
		},
	})
	s.Require().NoError(err)

	_, err = s.TicketService.SaveConfigSnapshot(s.Ctx, &domain.TicketConfig{
		EventID:   eventID,
		EventCode: "ROCK-2026",
		TicketDetails: []domain.TicketDetail{
			{TicketTypeCode: "VIP", ZoneName: "A"},
			{TicketTypeCode: "VIP", Code: "B-2"},
		},
	})
	s.Require().NoError(err)

	s.paidOrder(103,
		domain.OrderItem{TicketTypeID: vipTypeID, Quantity: 3},
		domain.OrderItem{TicketTypeID: gaTypeID, Quantity: 1},
	)

	n, err := s.TicketService.IssueForOrder(s.Ctx, &generalDomain.OrderPaidEvent{OrderID: 103})
	s.Require().NoError(err)
	s.Equal(4, n)

	tickets, err := s.TicketService.OrderTickets(s.Ctx, 103)
	s.Require().NoError(err)

	var labels []string
	for _, t := range tickets {
		s.Require().NotNil(t.SeatLabel)
		labels = append(labels, *t.SeatLabel)
	}
	s.Equal([]string{"A", "B-2", "A", "GA"}, labels)
}

func (s *IntegrationTestSuite) TestIssue_UnknownTicketTypeLeavesOrderRetryable() {
	s.paidOrder(104, domain.OrderItem{TicketTypeID: 999, Quantity: 1})

	_, err := s.TicketService.IssueForOrder(s.Ctx, &generalDomain.OrderPaidEvent{OrderID: 104})
	s.ErrorIs(err, domain.ErrTicketTypeNotFound)
	s.Zero(s.ticketCount(104))

	s.Inventory.codes[999] = "BALCONY"

	n, err := s.TicketService.IssueForOrder(s.Ctx, &generalDomain.OrderPaidEvent{OrderID: 104})
	s.Require().NoError(err)
	s.Equal(1, n)
}
