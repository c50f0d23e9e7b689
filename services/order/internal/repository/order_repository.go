package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	"github.com/sakashimaa/eventhub/services/order/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Order, error)
	ChangeOrderStatus(ctx context.Context, tx pgx.Tx, orderID int64, status domain.OrderStatus) error
	ChangeStatusIfPending(ctx context.Context, tx pgx.Tx, orderID int64, status domain.OrderStatus) (bool, error)
	GetAllItemsOfOrder(ctx context.Context, tx pgx.Tx, orderID int64) ([]domain.OrderItem, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	ListByEvent(ctx context.Context, eventID int64) ([]domain.Order, error)
	SoldCount(ctx context.Context, eventID, ticketTypeID int64) (int64, error)
}

type orderRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewOrderRepository(pool *pgxpool.Pool, logger *zap.Logger) OrderRepository {
	return &orderRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("order_repository"),
	}
}

const orderColumns = `id, user_id, event_id, total_amount, currency, discount_code, payment_method, status, created_at, updated_at`

func (r *orderRepo) CreateOrder(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.CreateOrder")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", order.UserID),
		attribute.Int("items_count", len(order.Items)),
	)

	queryOrder := `
		INSERT INTO orders (user_id, event_id, total_amount, currency, discount_code, payment_method, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	if err := tx.QueryRow(
		ctx,
		queryOrder,
		order.UserID,
		order.EventID,
		order.TotalAmount,
		order.Currency,
		order.DiscountCode,
		order.PaymentMethod,
		string(order.Status),
	).Scan(
		&order.ID,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		span.RecordError(err)

		mylogger.Warn(
			ctx,
			r.logger,
			"Failed to insert order",
			zap.Error(err),
		)

		return fmt.Errorf("failed to insert order: %w", err)
	}

	queryItem := `
		INSERT INTO order_items (order_id, ticket_type_id, showtime_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID

		if err := tx.QueryRow(
			ctx,
			queryItem,
			order.ID,
			item.TicketTypeID,
			item.ShowtimeID,
			item.Quantity,
			item.UnitPrice,
		).Scan(&item.ID); err != nil {
			span.RecordError(err)

			mylogger.Error(
				ctx,
				r.logger,
				"Failed to insert item",
				zap.Error(err),
			)

			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetByID")
	defer span.End()

	span.SetAttributes(attribute.Int64("order_id", id))

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("failed to query order %d: %w", id, err)
	}

	items, err := r.queryItems(ctx, r.pool, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	order.Items = items

	return order, nil
}

func (r *orderRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetForUpdate")
	defer span.End()

	span.SetAttributes(attribute.Int64("order_id", id))

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	order, err := scanOrder(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("failed to lock order %d: %w", id, err)
	}

	items, err := r.queryItems(ctx, tx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	order.Items = items

	return order, nil
}

func (r *orderRepo) GetAllItemsOfOrder(ctx context.Context, tx pgx.Tx, orderID int64) ([]domain.OrderItem, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetAllItemsOfOrder")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
	)

	items, err := r.queryItems(ctx, tx, orderID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query order_items",
			zap.Error(err),
		)

		return nil, err
	}

	return items, nil
}

func (r *orderRepo) ChangeOrderStatus(ctx context.Context, tx pgx.Tx, orderID int64, status domain.OrderStatus) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.ChangeOrderStatus")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
		attribute.String("status", string(status)),
	)

	query := `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2;
	`

	commandTag, err := tx.Exec(ctx, query, string(status), orderID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to update order",
			zap.Error(err),
		)

		return fmt.Errorf("failed to update order: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		mylogger.Warn(
			ctx,
			r.logger,
			"Order not found",
			zap.Int64("order_id", orderID),
		)

		return ErrOrderNotFound
	}

	return nil
}

// ChangeStatusIfPending moves a PENDING order to status and reports whether it did.
func (r *orderRepo) ChangeStatusIfPending(ctx context.Context, tx pgx.Tx, orderID int64, status domain.OrderStatus) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.ChangeStatusIfPending")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
		attribute.String("status", string(status)),
	)

	query := `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'PENDING'
	`

	tag, err := tx.Exec(ctx, query, string(status), orderID)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to update order: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *orderRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.ListByUser")
	defer span.End()

	span.SetAttributes(attribute.Int64("user_id", userID))

	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	return r.list(ctx, span, query, userID)
}

func (r *orderRepo) ListByEvent(ctx context.Context, eventID int64) ([]domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.ListByEvent")
	defer span.End()

	span.SetAttributes(attribute.Int64("event_id", eventID))

	query := `SELECT ` + orderColumns + ` FROM orders WHERE event_id = $1 ORDER BY created_at DESC, id DESC`

	return r.list(ctx, span, query, eventID)
}

func (r *orderRepo) SoldCount(ctx context.Context, eventID, ticketTypeID int64) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.SoldCount")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", eventID),
		attribute.Int64("ticket_type_id", ticketTypeID),
	)

	query := `
		SELECT COALESCE(SUM(oi.quantity), 0)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.event_id = $1 AND oi.ticket_type_id = $2 AND o.status = 'PAID'
	`

	var sold int64
	if err := r.pool.QueryRow(ctx, query, eventID, ticketTypeID).Scan(&sold); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count sold tickets: %w", err)
	}

	return sold, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *orderRepo) queryItems(ctx context.Context, q querier, orderID int64) ([]domain.OrderItem, error) {
	query := `
		SELECT id, order_id, ticket_type_id, showtime_id, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	result := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.TicketTypeID,
			&item.ShowtimeID,
			&item.Quantity,
			&item.UnitPrice,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *orderRepo) list(ctx context.Context, span trace.Span, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	rows.Close()

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	for i := range orders {
		items, err := r.queryItems(ctx, r.pool, orders[i].ID)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	if err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.EventID,
		&o.TotalAmount,
		&o.Currency,
		&o.DiscountCode,
		&o.PaymentMethod,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &o, nil
}
