package tests

import (
	"time"

	"github.com/google/uuid"
	generalDomain "github.com/sakashimaa/eventhub/pkg/domain"
	"github.com/sakashimaa/eventhub/services/order/internal/domain"
	"github.com/sakashimaa/eventhub/services/order/internal/service"
)

func (s *IntegrationTestSuite) sagaStatusOf(orderID int64) domain.SagaStatus {
	var status string
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `SELECT status FROM sagas WHERE order_id = $1`, orderID).Scan(&status))

	return domain.SagaStatus(status)
}

func (s *IntegrationTestSuite) TestCreateOrder_AppliesPercentDiscount() {
	percent := int32(10)
	s.Inventory.addDiscount(domain.Discount{ID: 1, EventID: testEventID, Code: "SAVE10", DiscountPercent: &percent, Active: true})

	res := s.hold(buyerID, gaTypeID, 2)

	order, err := s.OrderService.CreateOrder(s.Ctx, domain.CreateOrderRequest{
		UserID:         buyerID,
		EventID:        testEventID,
		ReservationIDs: []int64{res.ID},
		DiscountCode:   "SAVE10",
		PaymentMethod:  "CREDIT_CARD",
	})
	s.Require().NoError(err)

	s.Require().Equal(int64(2250), order.TotalAmount)
	s.Require().Equal(domain.OrderStatusPending, order.Status)
	s.Require().Equal(domain.DefaultCurrency, order.Currency)
	s.Require().Len(order.Items, 1)
	s.Require().Equal(int64(1250), order.Items[0].UnitPrice)

	s.Require().Equal(domain.ReservationStatusConfirmed, s.reservationStatus(res.ID))
	s.Require().Equal(int64(8), s.Inventory.quota(gaTypeID))
	s.Require().Equal(domain.SagaStatusCompleted, s.sagaStatusOf(order.ID))
	s.Require().Equal(1, s.Inventory.usage[1])

	var linked int64
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `SELECT order_id FROM reservations WHERE id = $1`, res.ID).Scan(&linked))
	s.Require().Equal(order.ID, linked)

	var paymentStatus string
	var amount int64
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `SELECT status, amount FROM payment_info WHERE order_id = $1`, order.ID).Scan(&paymentStatus, &amount))
	s.Require().Equal(string(domain.PaymentStatusPending), paymentStatus)
	s.Require().Equal(int64(2250), amount)
}

func (s *IntegrationTestSuite) TestCreateOrder_SameTicketTypeBecomesOneItem() {
	first := s.hold(buyerID, gaTypeID, 1)
	second := s.hold(buyerID, gaTypeID, 1)

	order, err := s.OrderService.CreateOrder(s.Ctx, domain.CreateOrderRequest{
		UserID:         buyerID,
		EventID:        testEventID,
		ReservationIDs: []int64{first.ID, second.ID},
	})
	s.Require().NoError(err)

	s.Require().Len(order.Items, 1)
	s.Require().Equal(gaTypeID, order.Items[0].TicketTypeID)
	s.Require().Equal(int32(2), order.Items[0].Quantity)
	s.Require().Equal(int64(2500), order.TotalAmount)

	var rows int
	var quantity int32
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx,
		`SELECT COUNT(*), COALESCE(SUM(quantity), 0)::int FROM order_items WHERE order_id = $1`, order.ID,
	).Scan(&rows, &quantity))
	s.Require().Equal(1, rows)
	s.Require().Equal(int32(2), quantity)

	s.Require().Equal(1, s.Inventory.decrements[gaTypeID])
	s.Require().Equal(int64(8), s.Inventory.quota(gaTypeID))
	s.Require().Equal(domain.ReservationStatusConfirmed, s.reservationStatus(first.ID))
	s.Require().Equal(domain.ReservationStatusConfirmed, s.reservationStatus(second.ID))
}

func (s *IntegrationTestSuite) TestCreateOrder_DirectItemsOfOneTypeAreMerged() {
	order, err := s.OrderService.CreateOrder(s.Ctx, domain.CreateOrderRequest{
		UserID:  buyerID,
		EventID: testEventID,
		Items: []domain.ItemRequest{
			{TicketTypeID: vipTypeID, Quantity: 1},
			{TicketTypeID: vipTypeID, Quantity: 2},
		},
	})
	s.Require().NoError(err)

	s.Require().Len(order.Items, 1)
	s.Require().Equal(int32(3), order.Items[0].Quantity)
	s.Require().Equal(1, s.Inventory.decrements[vipTypeID])
}

func (s *IntegrationTestSuite) TestCreateOrder_DirectItems() {
	order, err := s.OrderService.CreateOrder(s.Ctx, domain.CreateOrderRequest{
		UserID:  buyerID,
		EventID: testEventID,
		Items:   []domain.ItemRequest{{TicketTypeID: vipTypeID, Quantity: 2}},
	})
	s.Require().NoError(err)

	s.Require().Equal(int64(10000), order.TotalAmount)
	s.Require().Equal(int64(3), s.Inventory.quota(vipTypeID))
}

func (s *IntegrationTestSuite) TestCreateOrder_InvalidDiscountHasNoSideEffects() {
	res := s.hold(buyerID, gaTypeID, 1)

	_, err := s.OrderService.CreateOrder(s.Ctx, domain.CreateOrderRequest{
		UserID:         buyerID,
		EventID:        testEventID,
		ReservationIDs: []int64{res.ID},
		DiscountCode:   "NOPE",
	})
	s.Require().ErrorIs(err, domain.ErrInvalidDiscount)

	s.Require().Equal(domain.ReservationStatusPending, s.reservationStatus(res.ID))
	s.Require().Equal(int64(10), s.Inventory.quota(gaTypeID))

	var sagas int
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `SELECT COUNT(*) FROM sagas`).Scan(&sagas))
	s.Require().Zero(sagas)
}

func (s *IntegrationTestSuite) TestCreateOrder_ReservationOfAnotherUser() {
	res := s.hold(buyerID+1, gaTypeID, 1)

	_, err := s.OrderService.CreateOrder(s.Ctx, domain.CreateOrderRequest{
		UserID:         buyerID,
		EventID:        testEventID,
		ReservationIDs: []int64{res.ID},
	})
	s.Require().ErrorIs(err, service.ErrInvalidReservation)
	s.Require().Equal(domain.ReservationStatusPending, s.reservationStatus(res.ID))
}

func (s *IntegrationTestSuite) TestCreateOrder_ExpiredReservation() {
	id := s.insertReservation(buyerID, nil, domain.ReservationStatusPending, time.Now().Add(-time.Minute))

	_, err := s.OrderService.CreateOrder(s.Ctx, domain.CreateOrderRequest{
		UserID:         buyerID,
		EventID:        testEventID,
		ReservationIDs: []int64{id},
	})
	s.Require().ErrorIs(err, service.ErrInvalidReservation)
}

func (s *IntegrationTestSuite) TestCreateOrder_InsufficientQuotaCompensates() {
	s.Inventory.addTicketType(domain.TicketTypeInfo{ID: vipTypeID, EventID: testEventID, Code: "VIP", Price: 5000, Quota: 0})

	ga := s.hold(buyerID, gaTypeID, 2)
	vip := s.hold(buyerID, vipTypeID, 1)

	_, err := s.OrderService.CreateOrder(s.Ctx, domain.CreateOrderRequest{
		UserID:         buyerID,
		EventID:        testEventID,
		ReservationIDs: []int64{ga.ID, vip.ID},
	})
	s.Require().ErrorIs(err, domain.ErrInsufficientQuota)

	s.Require().Equal(int64(10), s.Inventory.quota(gaTypeID))
	s.Require().Equal(int64(0), s.Inventory.quota(vipTypeID))
	s.Require().Equal(domain.ReservationStatusPending, s.reservationStatus(ga.ID))
	s.Require().Equal(domain.ReservationStatusPending, s.reservationStatus(vip.ID))

	var orderID int64
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `SELECT id FROM orders WHERE user_id = $1`, buyerID).Scan(&orderID))
	s.Require().Equal(domain.OrderStatusCancelled, s.orderStatus(orderID))
	s.Require().Equal(domain.SagaStatusCompensated, s.sagaStatusOf(orderID))
	s.Require().Zero(s.outboxCount(generalDomain.TopicOrderCancelled, orderID))

	var pending int
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, `
		SELECT COUNT(*) FROM saga_steps WHERE status <> 'COMPENSATED'
	`).Scan(&pending))
	s.Require().Zero(pending)
}

func (s *IntegrationTestSuite) TestSagaRecoverer_CompensatesStaleRunningSaga() {
	res := s.hold(buyerID, gaTypeID, 1)
	_, err := s.ReservationService.Confirm(s.Ctx, buyerID, res.ID)
	s.Require().NoError(err)

	saga := &domain.Saga{ID: uuid.NewString(), Status: domain.SagaStatusRunning}
	s.Require().NoError(s.SagaRepo.Create(s.Ctx, saga))
	s.Require().NoError(s.SagaRepo.AppendStep(s.Ctx, &domain.SagaStep{
		SagaID: saga.ID, Seq: 1, Kind: domain.StepConfirmReservation, RefID: res.ID, Quantity: 1, Status: domain.StepStatusDone,
	}))

	_, err = s.DbPool.Exec(s.Ctx, `UPDATE sagas SET updated_at = NOW() - INTERVAL '10 minutes' WHERE id = $1`, saga.ID)
	s.Require().NoError(err)

	recovered, err := s.Recoverer.RecoverOnce(s.Ctx)
	s.Require().NoError(err)
	s.Require().Equal(1, recovered)

	s.Require().Equal(domain.ReservationStatusPending, s.reservationStatus(res.ID))

	got, err := s.SagaRepo.Get(s.Ctx, saga.ID)
	s.Require().NoError(err)
	s.Require().Equal(domain.SagaStatusCompensated, got.Status)

	recovered, err = s.Recoverer.RecoverOnce(s.Ctx)
	s.Require().NoError(err)
	s.Require().Zero(recovered)
}
