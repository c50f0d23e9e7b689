package tests

import (
	"time"

	"github.com/sakashimaa/eventhub/services/inventory/internal/repository"
)

func (s *IntegrationTestSuite) seedDiscount(eventID int64, code string, percent int32, limit *int32) int64 {
	var id int64
	err := s.DbPool.QueryRow(s.Ctx, `
		INSERT INTO discounts (event_id, code, discount_percent, usage_limit)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, eventID, code, percent, limit).Scan(&id)
	s.Require().NoError(err)

	return id
}

func (s *IntegrationTestSuite) TestValidateDiscount_Found() {
	eventID := s.seedEvent("Festival", time.Now().Add(96*time.Hour))
	s.seedDiscount(eventID, "EARLY10", 10, nil)

	d, err := s.InventoryService.ValidateDiscount(s.Ctx, eventID, " EARLY10 ")
	s.Require().NoError(err)
	s.Require().Equal("EARLY10", d.Code)
	s.Require().NotNil(d.DiscountPercent)
	s.Require().Equal(int32(10), *d.DiscountPercent)
	s.Require().Nil(d.DiscountAmount)
	s.Require().True(d.Active)
}

func (s *IntegrationTestSuite) TestValidateDiscount_WrongEvent() {
	eventID := s.seedEvent("Festival", time.Now().Add(96*time.Hour))
	otherID := s.seedEvent("Other", time.Now().Add(96*time.Hour))
	s.seedDiscount(eventID, "EARLY10", 10, nil)

	_, err := s.InventoryService.ValidateDiscount(s.Ctx, otherID, "EARLY10")
	s.Require().ErrorIs(err, repository.ErrDiscountNotFound)
}

func (s *IntegrationTestSuite) TestIncrementDiscountUsage_StopsAtLimit() {
	eventID := s.seedEvent("Festival", time.Now().Add(96*time.Hour))
	limit := int32(2)
	id := s.seedDiscount(eventID, "TWICE", 20, &limit)

	d, err := s.InventoryService.IncrementDiscountUsage(s.Ctx, id)
	s.Require().NoError(err)
	s.Require().Equal(int32(1), d.UsedCount)

	d, err = s.InventoryService.IncrementDiscountUsage(s.Ctx, id)
	s.Require().NoError(err)
	s.Require().Equal(int32(2), d.UsedCount)

	_, err = s.InventoryService.IncrementDiscountUsage(s.Ctx, id)
	s.Require().ErrorIs(err, repository.ErrDiscountExhausted)

	_, err = s.InventoryService.IncrementDiscountUsage(s.Ctx, id+100)
	s.Require().ErrorIs(err, repository.ErrDiscountNotFound)
}

func (s *IntegrationTestSuite) TestGetEvent_RefundPolicy() {
	start := time.Now().Add(96 * time.Hour).UTC().Truncate(time.Second)
	eventID := s.seedEvent("Festival", start)

	e, err := s.InventoryService.GetEvent(s.Ctx, eventID)
	s.Require().NoError(err)
	s.Require().True(e.RefundEnabled)
	s.Require().Equal(int32(48), e.RefundDeadlineHours)
	s.Require().Equal(int32(10), e.RefundFeePercent)
	s.Require().True(start.Equal(e.StartTime))

	_, err = s.InventoryService.GetEvent(s.Ctx, eventID+1)
	s.Require().ErrorIs(err, repository.ErrEventNotFound)
}
