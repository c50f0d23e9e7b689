package tests

import (
	"errors"
	"sync"
	"time"

	"github.com/sakashimaa/eventhub/services/order/internal/domain"
	"github.com/sakashimaa/eventhub/services/order/internal/repository"
	"github.com/sakashimaa/eventhub/services/order/internal/service"
)

func seat(id int64) *int64 {
	return &id
}

func (s *IntegrationTestSuite) TestHold_PendingWithFiveMinuteWindow() {
	before := time.Now()
	res := s.hold(buyerID, gaTypeID, 2)

	s.Require().Equal(domain.ReservationStatusPending, res.Status)
	s.Require().Equal(int32(2), res.Quantity)
	s.Require().WithinDuration(before.Add(domain.HoldDuration), res.ExpireAt, 5*time.Second)
}

func (s *IntegrationTestSuite) TestHold_SeatTakenBySomeoneElse() {
	_, err := s.ReservationService.Hold(s.Ctx, domain.HoldRequest{
		UserID: 1, EventID: testEventID, TicketTypeID: gaTypeID, SeatID: seat(7), Quantity: 1,
	})
	s.Require().NoError(err)

	_, err = s.ReservationService.Hold(s.Ctx, domain.HoldRequest{
		UserID: 2, EventID: testEventID, TicketTypeID: gaTypeID, SeatID: seat(7), Quantity: 1,
	})
	s.Require().ErrorIs(err, repository.ErrSeatUnavailable)

	available, err := s.ReservationService.IsAvailable(s.Ctx, 7)
	s.Require().NoError(err)
	s.Require().False(available)
}

func (s *IntegrationTestSuite) TestHold_ConcurrentSameSeatOneWinner() {
	const workers = 10

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		won        int
		lost       int
		unexpected []error
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()

			_, err := s.ReservationService.Hold(s.Ctx, domain.HoldRequest{
				UserID: userID, EventID: testEventID, TicketTypeID: gaTypeID, SeatID: seat(42), Quantity: 1,
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case errors.Is(err, repository.ErrSeatUnavailable):
				lost++
			default:
				unexpected = append(unexpected, err)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	s.Require().Empty(unexpected)
	s.Require().Equal(1, won)
	s.Require().Equal(workers-1, lost)
}

func (s *IntegrationTestSuite) TestHold_LapsedSeatHoldBlocksUntilSwept() {
	stale := s.insertReservation(1, seat(8), domain.ReservationStatusPending, time.Now().Add(-time.Minute))

	available, err := s.ReservationService.IsAvailable(s.Ctx, 8)
	s.Require().NoError(err)
	s.Require().False(available)

	_, err = s.ReservationService.Hold(s.Ctx, domain.HoldRequest{
		UserID: 2, EventID: testEventID, TicketTypeID: gaTypeID, SeatID: seat(8), Quantity: 1,
	})
	s.Require().ErrorIs(err, repository.ErrSeatUnavailable)
	s.Require().Equal(domain.ReservationStatusPending, s.reservationStatus(stale))

	_, err = s.ReservationService.SweepExpired(s.Ctx)
	s.Require().NoError(err)

	available, err = s.ReservationService.IsAvailable(s.Ctx, 8)
	s.Require().NoError(err)
	s.Require().True(available)

	res, err := s.ReservationService.Hold(s.Ctx, domain.HoldRequest{
		UserID: 2, EventID: testEventID, TicketTypeID: gaTypeID, SeatID: seat(8), Quantity: 1,
	})
	s.Require().NoError(err)
	s.Require().NotEqual(stale, res.ID)
	s.Require().Equal(domain.ReservationStatusExpired, s.reservationStatus(stale))
}

func (s *IntegrationTestSuite) TestHold_SeatRequiresSingleQuantity() {
	_, err := s.ReservationService.Hold(s.Ctx, domain.HoldRequest{
		UserID: 1, EventID: testEventID, TicketTypeID: gaTypeID, SeatID: seat(9), Quantity: 2,
	})
	s.Require().ErrorIs(err, service.ErrInvalidQuantity)
}

func (s *IntegrationTestSuite) TestHold_PurchaseLimitCountsTicketsAndHolds() {
	s.Tickets.set(buyerID, gaTypeID, 2)

	s.hold(buyerID, gaTypeID, 1)
	s.hold(buyerID, gaTypeID, 1)

	_, err := s.ReservationService.Hold(s.Ctx, domain.HoldRequest{
		UserID: buyerID, EventID: testEventID, TicketTypeID: gaTypeID, Quantity: 1,
	})
	s.Require().ErrorIs(err, domain.ErrPurchaseLimitExceeded)

	// Another user is not affected.
	s.hold(buyerID+1, gaTypeID, 4)
}

func (s *IntegrationTestSuite) TestHold_SaleWindowClosed() {
	ended := time.Now().Add(-time.Hour)
	s.Inventory.addTicketType(domain.TicketTypeInfo{ID: 300, EventID: testEventID, Code: "EARLY", Price: 900, Quota: 5, SaleEnd: &ended})

	_, err := s.ReservationService.Hold(s.Ctx, domain.HoldRequest{
		UserID: buyerID, EventID: testEventID, TicketTypeID: 300, Quantity: 1,
	})
	s.Require().ErrorIs(err, domain.ErrSaleWindowClosed)
}

func (s *IntegrationTestSuite) TestHold_TicketTypeOfAnotherEvent() {
	_, err := s.ReservationService.Hold(s.Ctx, domain.HoldRequest{
		UserID: buyerID, EventID: testEventID + 1, TicketTypeID: gaTypeID, Quantity: 1,
	})
	s.Require().ErrorIs(err, service.ErrInvalidRequest)
}

func (s *IntegrationTestSuite) TestConfirm_ExpiredReservation() {
	id := s.insertReservation(buyerID, nil, domain.ReservationStatusPending, time.Now().Add(-time.Second))

	_, err := s.ReservationService.Confirm(s.Ctx, buyerID, id)
	s.Require().ErrorIs(err, repository.ErrReservationExpired)
	s.Require().Equal(domain.ReservationStatusPending, s.reservationStatus(id))

	_, err = s.ReservationService.Confirm(s.Ctx, buyerID, 987654)
	s.Require().ErrorIs(err, repository.ErrReservationNotFound)
}

func (s *IntegrationTestSuite) TestCancel_OnlyFromPendingOrConfirmed() {
	res := s.hold(buyerID, gaTypeID, 1)

	confirmed, err := s.ReservationService.Confirm(s.Ctx, buyerID, res.ID)
	s.Require().NoError(err)
	s.Require().Equal(domain.ReservationStatusConfirmed, confirmed.Status)

	cancelled, err := s.ReservationService.Cancel(s.Ctx, buyerID, res.ID)
	s.Require().NoError(err)
	s.Require().Equal(domain.ReservationStatusCancelled, cancelled.Status)

	_, err = s.ReservationService.Cancel(s.Ctx, buyerID, res.ID)
	s.Require().ErrorIs(err, repository.ErrReservationNotCancellable)
}

func (s *IntegrationTestSuite) TestConfirmAndCancel_OnlyByOwner() {
	res := s.hold(buyerID, gaTypeID, 1)

	_, err := s.ReservationService.Confirm(s.Ctx, buyerID+1, res.ID)
	s.Require().ErrorIs(err, service.ErrForbidden)
	s.Require().Equal(domain.ReservationStatusPending, s.reservationStatus(res.ID))

	_, err = s.ReservationService.Confirm(s.Ctx, buyerID, res.ID)
	s.Require().NoError(err)

	_, err = s.ReservationService.Cancel(s.Ctx, buyerID+1, res.ID)
	s.Require().ErrorIs(err, service.ErrForbidden)
	s.Require().Equal(domain.ReservationStatusConfirmed, s.reservationStatus(res.ID))
}

func (s *IntegrationTestSuite) TestCancel_ReservationOfAnOrderKeepsSeat() {
	res, err := s.ReservationService.Hold(s.Ctx, domain.HoldRequest{
		UserID: buyerID, EventID: testEventID, TicketTypeID: gaTypeID, SeatID: seat(21), Quantity: 1,
	})
	s.Require().NoError(err)

	_, err = s.OrderService.CreateOrder(s.Ctx, domain.CreateOrderRequest{
		UserID:         buyerID,
		EventID:        testEventID,
		ReservationIDs: []int64{res.ID},
	})
	s.Require().NoError(err)

	_, err = s.ReservationService.Cancel(s.Ctx, buyerID, res.ID)
	s.Require().ErrorIs(err, service.ErrInvalidReservation)
	s.Require().Equal(domain.ReservationStatusConfirmed, s.reservationStatus(res.ID))

	available, err := s.ReservationService.IsAvailable(s.Ctx, 21)
	s.Require().NoError(err)
	s.Require().False(available)
}

func (s *IntegrationTestSuite) TestSweepExpired_Idempotent() {
	stale := s.insertReservation(1, nil, domain.ReservationStatusPending, time.Now().Add(-time.Minute))
	live := s.insertReservation(2, nil, domain.ReservationStatusPending, time.Now().Add(time.Minute))

	n, err := s.ReservationService.SweepExpired(s.Ctx)
	s.Require().NoError(err)
	s.Require().Equal(int64(1), n)

	n, err = s.ReservationService.SweepExpired(s.Ctx)
	s.Require().NoError(err)
	s.Require().Zero(n)

	s.Require().Equal(domain.ReservationStatusExpired, s.reservationStatus(stale))
	s.Require().Equal(domain.ReservationStatusPending, s.reservationStatus(live))
}

func (s *IntegrationTestSuite) TestActiveReservations_SkipsExpired() {
	s.insertReservation(1, nil, domain.ReservationStatusPending, time.Now().Add(-time.Minute))
	live := s.insertReservation(2, nil, domain.ReservationStatusPending, time.Now().Add(time.Minute))
	confirmed := s.insertReservation(3, nil, domain.ReservationStatusConfirmed, time.Now().Add(-time.Minute))

	active, err := s.ReservationService.ActiveReservations(s.Ctx, testEventID)
	s.Require().NoError(err)

	ids := make([]int64, 0, len(active))
	for _, r := range active {
		ids = append(ids, r.ID)
	}
	s.Require().ElementsMatch([]int64{live, confirmed}, ids)
}

func (s *IntegrationTestSuite) TestCart_UpsertRefreshesSameItem() {
	req := domain.HoldRequest{UserID: buyerID, EventID: testEventID, TicketTypeID: gaTypeID, Quantity: 1}

	first, err := s.ReservationService.AddOrUpdateCartItem(s.Ctx, req)
	s.Require().NoError(err)

	req.Quantity = 3
	second, err := s.ReservationService.AddOrUpdateCartItem(s.Ctx, req)
	s.Require().NoError(err)
	s.Require().Equal(first.ID, second.ID)
	s.Require().Equal(int32(3), second.Quantity)
	s.Require().False(second.ExpireAt.Before(first.ExpireAt))

	req.Quantity = 5
	_, err = s.ReservationService.AddOrUpdateCartItem(s.Ctx, req)
	s.Require().ErrorIs(err, domain.ErrPurchaseLimitExceeded)

	cart, err := s.ReservationService.Cart(s.Ctx, buyerID)
	s.Require().NoError(err)
	s.Require().Len(cart, 1)

	err = s.ReservationService.RemoveCartItem(s.Ctx, buyerID+1, first.ID)
	s.Require().ErrorIs(err, service.ErrForbidden)

	s.Require().NoError(s.ReservationService.RemoveCartItem(s.Ctx, buyerID, first.ID))

	cart, err = s.ReservationService.Cart(s.Ctx, buyerID)
	s.Require().NoError(err)
	s.Require().Empty(cart)
}
