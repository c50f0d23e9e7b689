package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	"github.com/sakashimaa/eventhub/services/ticket/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type TicketRepository interface {
	InsertBatch(ctx context.Context, tx pgx.Tx, tickets []domain.Ticket) (int64, error)
	CountByUserAndType(ctx context.Context, userID, ticketTypeID int64) (int64, error)
	ByOrder(ctx context.Context, orderID int64) ([]domain.Ticket, error)
	ByUser(ctx context.Context, userID int64) ([]domain.Ticket, error)
	MarkRefunded(ctx context.Context, orderID int64) (int64, error)
}

type ticketRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewTicketRepository(pool *pgxpool.Pool, logger *zap.Logger) TicketRepository {
	return &ticketRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("repository/ticket_repo"),
	}
}

var ticketCopyColumns = []string{
	"order_id", "event_id", "ticket_type_id", "showtime_id", "user_id",
	"attendee_email", "seat_label", "ticket_code", "status",
}

func (r *ticketRepo) InsertBatch(ctx context.Context, tx pgx.Tx, tickets []domain.Ticket) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "TicketRepository.InsertBatch")
	defer span.End()

	span.SetAttributes(attribute.Int("tickets", len(tickets)))

	rows := make([][]any, 0, len(tickets))
	for _, t := range tickets {
		rows = append(rows, []any{
			t.OrderID, t.EventID, t.TicketTypeID, t.ShowtimeID, t.UserID,
			t.AttendeeEmail, t.SeatLabel, t.TicketCode, string(t.Status),
		})
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"tickets"}, ticketCopyColumns, pgx.CopyFromRows(rows))
	if err != nil {
		span.RecordError(err)
		mylogger.Error(ctx, r.logger, "Failed to copy tickets", zap.Error(err))
		return 0, fmt.Errorf("failed to insert tickets: %w", err)
	}

	return n, nil
}

func (r *ticketRepo) CountByUserAndType(ctx context.Context, userID, ticketTypeID int64) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "TicketRepository.CountByUserAndType")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("ticket_type_id", ticketTypeID),
	)

	query := `
		SELECT COUNT(*)
		FROM tickets
		WHERE user_id = $1 AND ticket_type_id = $2 AND status <> 'REFUNDED'
	`

	var n int64
	if err := r.pool.QueryRow(ctx, query, userID, ticketTypeID).Scan(&n); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}

	return n, nil
}

const ticketColumns = `id, order_id, event_id, ticket_type_id, showtime_id, user_id, attendee_email, seat_label, ticket_code, status, created_at`

func (r *ticketRepo) ByOrder(ctx context.Context, orderID int64) ([]domain.Ticket, error) {
	ctx, span := r.tracer.Start(ctx, "TicketRepository.ByOrder")
	defer span.End()

	span.SetAttributes(attribute.Int64("order_id", orderID))

	return r.list(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE order_id = $1 ORDER BY id`, orderID)
}

func (r *ticketRepo) ByUser(ctx context.Context, userID int64) ([]domain.Ticket, error) {
	ctx, span := r.tracer.Start(ctx, "TicketRepository.ByUser")
	defer span.End()

	span.SetAttributes(attribute.Int64("user_id", userID))

	return r.list(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
}

func (r *ticketRepo) list(ctx context.Context, query string, arg int64) ([]domain.Ticket, error) {
	span := trace.SpanFromContext(ctx)

	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(
			&t.ID, &t.OrderID, &t.EventID, &t.TicketTypeID, &t.ShowtimeID, &t.UserID,
			&t.AttendeeEmail, &t.SeatLabel, &t.TicketCode, &t.Status, &t.CreatedAt,
		); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}

	return tickets, rows.Err()
}

func (r *ticketRepo) MarkRefunded(ctx context.Context, orderID int64) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "TicketRepository.MarkRefunded")
	defer span.End()

	span.SetAttributes(attribute.Int64("order_id", orderID))

	tag, err := r.pool.Exec(ctx, `UPDATE tickets SET status = 'REFUNDED' WHERE order_id = $1 AND status <> 'REFUNDED'`, orderID)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to refund tickets: %w", err)
	}

	return tag.RowsAffected(), nil
}
