package tests

import (
	"time"

	generalDomain "github.com/sakashimaa/eventhub/pkg/domain"
)

func (s *IntegrationTestSuite) TestRestoreQuota_AppliedOncePerOrder() {
	eventID := s.seedEvent("Opera", time.Now().Add(72*time.Hour))
	gaID := s.seedTicketType(eventID, "GA", 1000, 10)
	vipID := s.seedTicketType(eventID, "VIP", 4000, 2)

	_, err := s.InventoryService.DecrementQuota(s.Ctx, gaID, 3)
	s.Require().NoError(err)
	_, err = s.InventoryService.DecrementQuota(s.Ctx, vipID, 1)
	s.Require().NoError(err)

	event := &generalDomain.OrderCancelledEvent{
		OrderID:  77,
		EventID:  eventID,
		Refunded: true,
		Items: []generalDomain.OrderCancelledItem{
			{TicketTypeID: gaID, Quantity: 3},
			{TicketTypeID: vipID, Quantity: 1},
		},
	}

	changes, err := s.CachedInventoryService.RestoreQuota(s.Ctx, event)
	s.Require().NoError(err)
	s.Require().Len(changes, 2)
	s.Require().Equal(int64(10), s.quotaOf(gaID))
	s.Require().Equal(int64(2), s.quotaOf(vipID))

	changes, err = s.CachedInventoryService.RestoreQuota(s.Ctx, event)
	s.Require().NoError(err)
	s.Require().Empty(changes)
	s.Require().Equal(int64(10), s.quotaOf(gaID))
	s.Require().Equal(int64(2), s.quotaOf(vipID))
}

func (s *IntegrationTestSuite) TestRestoreQuota_UnknownTypeIsSkipped() {
	eventID := s.seedEvent("Opera", time.Now().Add(72*time.Hour))
	gaID := s.seedTicketType(eventID, "GA", 1000, 10)

	_, err := s.InventoryService.DecrementQuota(s.Ctx, gaID, 2)
	s.Require().NoError(err)

	event := &generalDomain.OrderCancelledEvent{
		OrderID: 78,
		EventID: eventID,
		Items: []generalDomain.OrderCancelledItem{
			{TicketTypeID: gaID, Quantity: 2},
			{TicketTypeID: gaID + 999, Quantity: 1},
		},
	}

	changes, err := s.InventoryService.RestoreQuota(s.Ctx, event)
	s.Require().NoError(err)
	s.Require().Len(changes, 1)
	s.Require().Equal(int64(10), s.quotaOf(gaID))

	var marked int
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `SELECT COUNT(*) FROM processed_events WHERE event_key = '78'`).Scan(&marked))
	s.Require().Equal(1, marked)
}
