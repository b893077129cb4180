package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ielts-payments/internal/models"

	"github.com/jmoiron/sqlx"
)

const orderColumns = `id, order_id, user_id, kind, plan_id, package_id, amount, status,
	idempotency_key, created_at, expires_at, paid_at`

// CreateOrder creates a new order
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (order_id, user_id, kind, plan_id, package_id, amount, status, idempotency_key, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := s.db.QueryRowxContext(ctx, query,
		order.OrderID, order.UserID, order.Kind, order.PlanID, order.PackageID,
		order.Amount, order.Status, order.IdempotencyKey, order.ExpiresAt,
	).Scan(&order.ID, &order.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("order %s: %w", order.OrderID, ErrDuplicate)
	}
	return err
}

// GetOrderByOrderID retrieves an order by its external id
func (s *Store) GetOrderByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	return getOrder(ctx, s.db, "SELECT "+orderColumns+" FROM orders WHERE order_id = $1", orderID)
}

// GetOrderByIdempotencyKey retrieves an order by idempotency key
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT "+orderColumns+" FROM orders WHERE idempotency_key = $1", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ExpireOrder moves a pending order past its expiry to expired. Orders holding
// a created or completed Payme transaction are left pending so the gateway can
// still finish them. It reports whether a row was changed.
func (s *Store) ExpireOrder(ctx context.Context, id int64, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET status = $1
		WHERE id = $2 AND status = $3 AND expires_at <= $4
		AND NOT EXISTS (
			SELECT 1 FROM payme_transactions t WHERE t.order_ref = orders.id AND t.state IN ($5, $6)
		)`,
		models.OrderStatusExpired, id, models.OrderStatusPending, now,
		models.StateCreated, models.StateCompleted)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// GetOrdersByUserID retrieves orders for a user
func (s *Store) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

func (t *pgTx) LockOrder(ctx context.Context, id int64) (*models.Order, error) {
	return getOrder(ctx, t.tx, "SELECT "+orderColumns+" FROM orders WHERE id = $1 FOR UPDATE", id)
}

func (t *pgTx) LockOrderByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	return getOrder(ctx, t.tx, "SELECT "+orderColumns+" FROM orders WHERE order_id = $1 FOR UPDATE", orderID)
}

func (t *pgTx) MarkOrderPaid(ctx context.Context, id int64, paidAt time.Time) error {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE orders SET status = $1, paid_at = $2 WHERE id = $3 AND status = $4",
		models.OrderStatusPaid, paidAt, id, models.OrderStatusPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("order %d is not pending", id)
	}
	return nil
}

func (t *pgTx) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	_, err := t.tx.ExecContext(ctx, "UPDATE orders SET status = $1 WHERE id = $2", status, id)
	return err
}

func getOrder(ctx context.Context, q sqlx.QueryerContext, query string, arg interface{}) (*models.Order, error) {
	var order models.Order
	if err := sqlx.GetContext(ctx, q, &order, query, arg); err != nil {
		return nil, notFound(err, "order %v", arg)
	}
	return &order, nil
}
