package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	outboxUtils "github.com/sakashimaa/eventhub/pkg/outbox/utils"
	"github.com/sakashimaa/eventhub/services/order/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ReservationRepository interface {
	Insert(ctx context.Context, tx pgx.Tx, r *domain.Reservation) error
	LockUserTicketType(ctx context.Context, tx pgx.Tx, userID, ticketTypeID int64) error
	SumPendingQuantity(ctx context.Context, tx pgx.Tx, userID, ticketTypeID int64, now time.Time) (int64, error)

	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Reservation, error)
	Confirm(ctx context.Context, tx pgx.Tx, id int64, now time.Time) (*domain.Reservation, error)
	Cancel(ctx context.Context, tx pgx.Tx, id int64, from ...domain.ReservationStatus) (*domain.Reservation, error)
	Release(ctx context.Context, tx pgx.Tx, id int64) error
	LinkOrder(ctx context.Context, tx pgx.Tx, ids []int64, orderID int64) error
	CancelForOrder(ctx context.Context, tx pgx.Tx, orderID int64) (int64, error)
	SweepExpired(ctx context.Context, now time.Time) (int64, error)

	SeatHeld(ctx context.Context, seatID int64) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Reservation, error)
	ActiveByEvent(ctx context.Context, eventID int64, now time.Time) ([]domain.Reservation, error)
	CartByUser(ctx context.Context, userID int64, now time.Time) ([]domain.Reservation, error)
	FindCartItem(ctx context.Context, tx pgx.Tx, req domain.HoldRequest, now time.Time) (*domain.Reservation, error)
	RefreshCartItem(ctx context.Context, tx pgx.Tx, id int64, quantity int32, expireAt time.Time) (*domain.Reservation, error)
}

type reservationRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewReservationRepository(pool *pgxpool.Pool, logger *zap.Logger) ReservationRepository {
	return &reservationRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("repository/reservation_repo"),
	}
}

const reservationColumns = `id, user_id, event_id, ticket_type_id, seat_id, quantity, status, expire_at, order_id, created_at, updated_at`

func (r *reservationRepo) Insert(ctx context.Context, tx pgx.Tx, res *domain.Reservation) error {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.Insert")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", res.UserID),
		attribute.Int64("ticket_type_id", res.TicketTypeID),
	)

	query := `
		INSERT INTO reservations (user_id, event_id, ticket_type_id, seat_id, quantity, status, expire_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(
		ctx,
		query,
		res.UserID,
		res.EventID,
		res.TicketTypeID,
		res.SeatID,
		res.Quantity,
		string(res.Status),
		res.ExpireAt,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if outboxUtils.IsUniqueViolation(err) {
			return ErrSeatUnavailable
		}

		span.RecordError(err)
		mylogger.Error(ctx, r.logger, "Failed to insert reservation", zap.Error(err))

		return fmt.Errorf("failed to insert reservation: %w", err)
	}

	return nil
}

func (r *reservationRepo) LockUserTicketType(ctx context.Context, tx pgx.Tx, userID, ticketTypeID int64) error {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.LockUserTicketType")
	defer span.End()

	query := `SELECT pg_advisory_xact_lock(hashtextextended($1::bigint::text || ':' || $2::bigint::text, 0))`

	if _, err := tx.Exec(ctx, query, userID, ticketTypeID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to acquire purchase lock: %w", err)
	}

	return nil
}

func (r *reservationRepo) SumPendingQuantity(ctx context.Context, tx pgx.Tx, userID, ticketTypeID int64, now time.Time) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.SumPendingQuantity")
	defer span.End()

	query := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM reservations
		WHERE user_id = $1 AND ticket_type_id = $2 AND status = 'PENDING' AND expire_at > $3
	`

	var sum int64
	if err := tx.QueryRow(ctx, query, userID, ticketTypeID, now).Scan(&sum); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to sum reserved quantity: %w", err)
	}

	return sum, nil
}

func (r *reservationRepo) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.GetByID")
	defer span.End()

	span.SetAttributes(attribute.Int64("reservation_id", id))

	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	res, err := scanReservation(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReservationNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("failed to query reservation %d: %w", id, err)
	}

	return res, nil
}

func (r *reservationRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Reservation, error) {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.GetForUpdate")
	defer span.End()

	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1 FOR UPDATE`

	res, err := scanReservation(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReservationNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("failed to lock reservation %d: %w", id, err)
	}

	return res, nil
}

func (r *reservationRepo) Confirm(ctx context.Context, tx pgx.Tx, id int64, now time.Time) (*domain.Reservation, error) {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.Confirm")
	defer span.End()

	span.SetAttributes(attribute.Int64("reservation_id", id))

	query := `
		UPDATE reservations
		SET status = 'CONFIRMED', updated_at = $2
		WHERE id = $1 AND status = 'PENDING' AND expire_at > $2
		RETURNING ` + reservationColumns

	res, err := scanReservation(tx.QueryRow(ctx, query, id, now))
	if err == nil {
		return res, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to confirm reservation %d: %w", id, err)
	}

	if ok, err := r.exists(ctx, tx, id); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrReservationNotFound
	}

	return nil, ErrReservationExpired
}

func (r *reservationRepo) Cancel(ctx context.Context, tx pgx.Tx, id int64, from ...domain.ReservationStatus) (*domain.Reservation, error) {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.Cancel")
	defer span.End()

	span.SetAttributes(attribute.Int64("reservation_id", id))

	statuses := make([]string, len(from))
	for i, s := range from {
		statuses[i] = string(s)
	}

	query := `
		UPDATE reservations
		SET status = 'CANCELLED', updated_at = NOW()
		WHERE id = $1 AND status = ANY($2)
		RETURNING ` + reservationColumns

	res, err := scanReservation(tx.QueryRow(ctx, query, id, statuses))
	if err == nil {
		return res, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to cancel reservation %d: %w", id, err)
	}

	if ok, err := r.exists(ctx, tx, id); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrReservationNotFound
	}

	return nil, ErrReservationNotCancellable
}

func (r *reservationRepo) Release(ctx context.Context, tx pgx.Tx, id int64) error {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.Release")
	defer span.End()

	span.SetAttributes(attribute.Int64("reservation_id", id))

	query := `
		UPDATE reservations
		SET status = 'PENDING', order_id = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'CONFIRMED'
	`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to release reservation %d: %w", id, err)
	}

	if tag.RowsAffected() == 0 {
		mylogger.Warn(ctx, r.logger, "Reservation not confirmed, nothing to release", zap.Int64("reservation_id", id))
	}

	return nil
}

func (r *reservationRepo) LinkOrder(ctx context.Context, tx pgx.Tx, ids []int64, orderID int64) error {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.LinkOrder")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
		attribute.Int("reservations", len(ids)),
	)

	if len(ids) == 0 {
		return nil
	}

	query := `
		UPDATE reservations
		SET order_id = $2, updated_at = NOW()
		WHERE id = ANY($1)
	`

	if _, err := tx.Exec(ctx, query, ids, orderID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to link reservations to order %d: %w", orderID, err)
	}

	return nil
}

func (r *reservationRepo) CancelForOrder(ctx context.Context, tx pgx.Tx, orderID int64) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.CancelForOrder")
	defer span.End()

	span.SetAttributes(attribute.Int64("order_id", orderID))

	query := `
		UPDATE reservations
		SET status = 'CANCELLED', updated_at = NOW()
		WHERE order_id = $1 AND status IN ('PENDING', 'CONFIRMED')
	`

	tag, err := tx.Exec(ctx, query, orderID)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to cancel reservations of order %d: %w", orderID, err)
	}

	return tag.RowsAffected(), nil
}

func (r *reservationRepo) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.SweepExpired")
	defer span.End()

	query := `
		UPDATE reservations
		SET status = 'EXPIRED', updated_at = $1
		WHERE status = 'PENDING' AND expire_at < $1
	`

	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		span.RecordError(err)
		mylogger.Error(ctx, r.logger, "Failed to sweep expired reservations", zap.Error(err))

		return 0, fmt.Errorf("failed to sweep expired reservations: %w", err)
	}

	span.SetAttributes(attribute.Int64("expired", tag.RowsAffected()))

	return tag.RowsAffected(), nil
}

// SeatHeld reports whether a PENDING or CONFIRMED reservation owns the seat. A lapsed
// PENDING hold keeps the seat until SweepExpired moves it to EXPIRED.
func (r *reservationRepo) SeatHeld(ctx context.Context, seatID int64) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.SeatHeld")
	defer span.End()

	query := `
		SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE seat_id = $1 AND status IN ('PENDING', 'CONFIRMED')
		)
	`

	var held bool
	if err := r.pool.QueryRow(ctx, query, seatID).Scan(&held); err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to check seat %d: %w", seatID, err)
	}

	return held, nil
}

func (r *reservationRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.ListByUser")
	defer span.End()

	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	return r.list(ctx, span, query, userID)
}

func (r *reservationRepo) ActiveByEvent(ctx context.Context, eventID int64, now time.Time) ([]domain.Reservation, error) {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.ActiveByEvent")
	defer span.End()

	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE event_id = $1
			AND (status = 'CONFIRMED' OR (status = 'PENDING' AND expire_at > $2))
		ORDER BY id
	`

	return r.list(ctx, span, query, eventID, now)
}

func (r *reservationRepo) CartByUser(ctx context.Context, userID int64, now time.Time) ([]domain.Reservation, error) {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.CartByUser")
	defer span.End()

	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE user_id = $1 AND status = 'PENDING' AND expire_at > $2
		ORDER BY id
	`

	return r.list(ctx, span, query, userID, now)
}

func (r *reservationRepo) FindCartItem(ctx context.Context, tx pgx.Tx, req domain.HoldRequest, now time.Time) (*domain.Reservation, error) {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.FindCartItem")
	defer span.End()

	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE user_id = $1 AND event_id = $2 AND ticket_type_id = $3
			AND seat_id IS NOT DISTINCT FROM $4
			AND status = 'PENDING' AND expire_at > $5
		ORDER BY id
		LIMIT 1
		FOR UPDATE
	`

	res, err := scanReservation(tx.QueryRow(ctx, query, req.UserID, req.EventID, req.TicketTypeID, req.SeatID, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReservationNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("failed to find cart item: %w", err)
	}

	return res, nil
}

func (r *reservationRepo) RefreshCartItem(ctx context.Context, tx pgx.Tx, id int64, quantity int32, expireAt time.Time) (*domain.Reservation, error) {
	ctx, span := r.tracer.Start(ctx, "ReservationRepository.RefreshCartItem")
	defer span.End()

	query := `
		UPDATE reservations
		SET quantity = $2, expire_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING ` + reservationColumns

	res, err := scanReservation(tx.QueryRow(ctx, query, id, quantity, expireAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReservationNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("failed to refresh cart item %d: %w", id, err)
	}

	return res, nil
}

func (r *reservationRepo) list(ctx context.Context, span trace.Span, query string, args ...any) ([]domain.Reservation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		result = append(result, *res)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	return result, nil
}

func (r *reservationRepo) exists(ctx context.Context, tx pgx.Tx, id int64) (bool, error) {
	var ok bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reservations WHERE id = $1)`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check reservation %d: %w", id, err)
	}

	return ok, nil
}

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var res domain.Reservation
	if err := row.Scan(
		&res.ID,
		&res.UserID,
		&res.EventID,
		&res.TicketTypeID,
		&res.SeatID,
		&res.Quantity,
		&res.Status,
		&res.ExpireAt,
		&res.OrderID,
		&res.CreatedAt,
		&res.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &res, nil
}
