package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	"github.com/sakashimaa/eventhub/services/order/internal/client"
	"github.com/sakashimaa/eventhub/services/order/internal/domain"
	"github.com/sakashimaa/eventhub/services/order/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ReservationConsumer is what checkout needs from reservations: take a hold
// into an order and give it back when the order is compensated.
type ReservationConsumer interface {
	Consume(ctx context.Context, reservationID, userID int64) (*domain.LineItem, error)
	Release(ctx context.Context, reservationID int64) error
}

type ReservationService interface {
	ReservationConsumer

	Hold(ctx context.Context, req domain.HoldRequest) (*domain.Reservation, error)
	Confirm(ctx context.Context, userID, reservationID int64) (*domain.Reservation, error)
	Cancel(ctx context.Context, userID, reservationID int64) (*domain.Reservation, error)
	SweepExpired(ctx context.Context) (int64, error)
	IsAvailable(ctx context.Context, seatID int64) (bool, error)
	ActiveReservations(ctx context.Context, eventID int64) ([]domain.Reservation, error)
	GetReservation(ctx context.Context, reservationID int64) (*domain.Reservation, error)
	UserReservations(ctx context.Context, userID int64) ([]domain.Reservation, error)

	AddOrUpdateCartItem(ctx context.Context, req domain.HoldRequest) (*domain.Reservation, error)
	Cart(ctx context.Context, userID int64) ([]domain.Reservation, error)
	RemoveCartItem(ctx context.Context, userID, reservationID int64) error
}

type reservationService struct {
	pool            *pgxpool.Pool
	reservationRepo repository.ReservationRepository
	inventory       client.InventoryClient
	tickets         client.TicketClient
	logger          *zap.Logger
	tracer          trace.Tracer
	now             func() time.Time
}

func NewReservationService(
	pool *pgxpool.Pool,
	reservationRepo repository.ReservationRepository,
	inventory client.InventoryClient,
	tickets client.TicketClient,
	logger *zap.Logger,
) ReservationService {
	return &reservationService{
		pool:            pool,
		reservationRepo: reservationRepo,
		inventory:       inventory,
		tickets:         tickets,
		logger:          logger,
		tracer:          otel.Tracer("service/reservation_service"),
		now:             time.Now,
	}
}

func (s *reservationService) Hold(ctx context.Context, req domain.HoldRequest) (*domain.Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "ReservationService.Hold")
	defer span.End()

	return s.hold(ctx, span, req, false)
}

func (s *reservationService) AddOrUpdateCartItem(ctx context.Context, req domain.HoldRequest) (*domain.Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "ReservationService.AddOrUpdateCartItem")
	defer span.End()

	return s.hold(ctx, span, req, true)
}

// hold places a PENDING reservation. With upsert, an existing unexpired hold on the same
// (user, event, ticket type, seat) gets the new quantity and a fresh countdown instead.
func (s *reservationService) hold(ctx context.Context, span trace.Span, req domain.HoldRequest, upsert bool) (*domain.Reservation, error) {
	span.SetAttributes(
		attribute.Int64("user_id", req.UserID),
		attribute.Int64("ticket_type_id", req.TicketTypeID),
		attribute.Int("quantity", int(req.Quantity)),
	)

	if req.Quantity <= 0 || (req.SeatID != nil && req.Quantity != 1) {
		return nil, ErrInvalidQuantity
	}

	now := s.now()

	if req.SeatID != nil && !upsert {
		held, err := s.reservationRepo.SeatHeld(ctx, *req.SeatID)
		if err != nil {
			return nil, err
		}
		if held {
			return nil, repository.ErrSeatUnavailable
		}
	}

	tt, err := s.inventory.GetTicketType(ctx, req.TicketTypeID)
	if err != nil {
		return nil, err
	}

	if tt.EventID != req.EventID {
		return nil, fmt.Errorf("%w: ticket type %d does not belong to event %d", ErrInvalidRequest, tt.ID, req.EventID)
	}

	if !tt.SaleOpen(now) {
		return nil, domain.ErrSaleWindowClosed
	}

	var purchased int64
	if tt.PurchaseLimit > 0 {
		purchased, err = s.tickets.CountTickets(ctx, req.UserID, req.TicketTypeID)
		if err != nil {
			return nil, err
		}
	}

	var res *domain.Reservation
	err = inTx(ctx, s.pool, s.logger, func(tx pgx.Tx) error {
		if err := s.reservationRepo.LockUserTicketType(ctx, tx, req.UserID, req.TicketTypeID); err != nil {
			return err
		}

		reserved, err := s.reservationRepo.SumPendingQuantity(ctx, tx, req.UserID, req.TicketTypeID, now)
		if err != nil {
			return err
		}

		if upsert {
			existing, err := s.reservationRepo.FindCartItem(ctx, tx, req, now)
			switch {
			case err == nil:
				if !tt.WithinLimit(purchased, reserved-int64(existing.Quantity), int64(req.Quantity)) {
					return domain.ErrPurchaseLimitExceeded
				}
				res, err = s.reservationRepo.RefreshCartItem(ctx, tx, existing.ID, req.Quantity, now.Add(domain.HoldDuration))
				return err
			case !errors.Is(err, repository.ErrReservationNotFound):
				return err
			}
		}

		if !tt.WithinLimit(purchased, reserved, int64(req.Quantity)) {
			return domain.ErrPurchaseLimitExceeded
		}

		res = &domain.Reservation{
			UserID:       req.UserID,
			EventID:      req.EventID,
			TicketTypeID: req.TicketTypeID,
			SeatID:       req.SeatID,
			Quantity:     req.Quantity,
			Status:       domain.ReservationStatusPending,
			ExpireAt:     now.Add(domain.HoldDuration),
		}
		return s.reservationRepo.Insert(ctx, tx, res)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrPurchaseLimitExceeded) && !errors.Is(err, repository.ErrSeatUnavailable) {
			span.RecordError(err)
		}
		return nil, err
	}

	reservationsHeld.Inc()
	mylogger.Info(ctx, s.logger, "Reservation held",
		zap.Int64("reservation_id", res.ID),
		zap.Int64("user_id", res.UserID),
		zap.Int64("ticket_type_id", res.TicketTypeID),
		zap.Int32("quantity", res.Quantity),
		zap.Time("expire_at", res.ExpireAt),
	)

	return res, nil
}

func (s *reservationService) Confirm(ctx context.Context, userID, reservationID int64) (*domain.Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "ReservationService.Confirm")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("reservation_id", reservationID),
		attribute.Int64("user_id", userID),
	)

	var res *domain.Reservation
	err := inTx(ctx, s.pool, s.logger, func(tx pgx.Tx) error {
		if _, err := s.ownedForUpdate(ctx, tx, userID, reservationID); err != nil {
			return err
		}

		var err error
		res, err = s.reservationRepo.Confirm(ctx, tx, reservationID, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// Cancel releases a PENDING or CONFIRMED reservation of userID. Reservations already
// consumed by an order are released through the order instead.
func (s *reservationService) Cancel(ctx context.Context, userID, reservationID int64) (*domain.Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "ReservationService.Cancel")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("reservation_id", reservationID),
		attribute.Int64("user_id", userID),
	)

	var res *domain.Reservation
	err := inTx(ctx, s.pool, s.logger, func(tx pgx.Tx) error {
		current, err := s.ownedForUpdate(ctx, tx, userID, reservationID)
		if err != nil {
			return err
		}
		if current.OrderID != nil {
			return fmt.Errorf("%w: reservation %d belongs to order %d", ErrInvalidReservation, reservationID, *current.OrderID)
		}

		res, err = s.reservationRepo.Cancel(ctx, tx, reservationID, domain.ReservationStatusPending, domain.ReservationStatusConfirmed)
		return err
	})
	if err != nil {
		return nil, err
	}

	mylogger.Info(ctx, s.logger, "Reservation cancelled", zap.Int64("reservation_id", reservationID))
	return res, nil
}

func (s *reservationService) ownedForUpdate(ctx context.Context, tx pgx.Tx, userID, reservationID int64) (*domain.Reservation, error) {
	res, err := s.reservationRepo.GetForUpdate(ctx, tx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, ErrForbidden
	}

	return res, nil
}

func (s *reservationService) SweepExpired(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "ReservationService.SweepExpired")
	defer span.End()

	n, err := s.reservationRepo.SweepExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}

	span.SetAttributes(attribute.Int64("expired", n))
	if n > 0 {
		reservationsExpired.Add(float64(n))
		mylogger.Info(ctx, s.logger, "Expired stale reservations", zap.Int64("count", n))
	}

	return n, nil
}

func (s *reservationService) IsAvailable(ctx context.Context, seatID int64) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "ReservationService.IsAvailable")
	defer span.End()

	held, err := s.reservationRepo.SeatHeld(ctx, seatID)
	if err != nil {
		return false, err
	}

	return !held, nil
}

func (s *reservationService) ActiveReservations(ctx context.Context, eventID int64) ([]domain.Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "ReservationService.ActiveReservations")
	defer span.End()

	return s.reservationRepo.ActiveByEvent(ctx, eventID, s.now())
}

func (s *reservationService) GetReservation(ctx context.Context, reservationID int64) (*domain.Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "ReservationService.GetReservation")
	defer span.End()

	return s.reservationRepo.GetByID(ctx, reservationID)
}

func (s *reservationService) UserReservations(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "ReservationService.UserReservations")
	defer span.End()

	return s.reservationRepo.ListByUser(ctx, userID)
}

func (s *reservationService) Cart(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "ReservationService.Cart")
	defer span.End()

	return s.reservationRepo.CartByUser(ctx, userID, s.now())
}

func (s *reservationService) RemoveCartItem(ctx context.Context, userID, reservationID int64) error {
	ctx, span := s.tracer.Start(ctx, "ReservationService.RemoveCartItem")
	defer span.End()

	return inTx(ctx, s.pool, s.logger, func(tx pgx.Tx) error {
		if _, err := s.ownedForUpdate(ctx, tx, userID, reservationID); err != nil {
			return err
		}

		_, err := s.reservationRepo.Cancel(ctx, tx, reservationID, domain.ReservationStatusPending)
		return err
	})
}

// Consume confirms a PENDING unexpired reservation owned by userID.
func (s *reservationService) Consume(ctx context.Context, reservationID, userID int64) (*domain.LineItem, error) {
	ctx, span := s.tracer.Start(ctx, "ReservationService.Consume")
	defer span.End()

	span.SetAttributes(attribute.Int64("reservation_id", reservationID))

	var res *domain.Reservation
	err := inTx(ctx, s.pool, s.logger, func(tx pgx.Tx) error {
		current, err := s.reservationRepo.GetForUpdate(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if current.UserID != userID {
			return ErrInvalidReservation
		}

		res, err = s.reservationRepo.Confirm(ctx, tx, reservationID, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	return &domain.LineItem{
		ReservationID: res.ID,
		EventID:       res.EventID,
		TicketTypeID:  res.TicketTypeID,
		SeatID:        res.SeatID,
		Quantity:      res.Quantity,
	}, nil
}

func (s *reservationService) Release(ctx context.Context, reservationID int64) error {
	ctx, span := s.tracer.Start(ctx, "ReservationService.Release")
	defer span.End()

	span.SetAttributes(attribute.Int64("reservation_id", reservationID))

	return inTx(ctx, s.pool, s.logger, func(tx pgx.Tx) error {
		return s.reservationRepo.Release(ctx, tx, reservationID)
	})
}
