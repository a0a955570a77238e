package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vastralabs/photoshoot/internal/models"
)

// OrderRepository owns purchase order status. Transitions are
// compare-and-swap UPDATEs on the status column, so duplicate payment
// callbacks racing each other resolve without external locking.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) CreatePending(ctx context.Context, order *models.PurchaseOrder) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO purchase_orders (id, user_id, amount, credits, status, gateway_order_id)
VALUES (?, ?, ?, ?, ?, ?)`,
		order.ID, order.UserID, order.Amount, order.Credits, models.OrderPending, order.GatewayOrderID)
	if err != nil {
		if isDuplicateEntry(err) {
			return models.ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", err)
	}
	order.Status = models.OrderPending
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, orderID string) (*models.PurchaseOrder, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, amount, credits, status, gateway_order_id, COALESCE(fail_reason, ''), created_at, updated_at
FROM purchase_orders WHERE id = ?`, orderID)
	var o models.PurchaseOrder
	if err := row.Scan(&o.ID, &o.UserID, &o.Amount, &o.Credits, &o.Status, &o.GatewayOrderID, &o.FailReason, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return &o, nil
}

// MarkCaptured moves Pending to Captured.
func (r *OrderRepository) MarkCaptured(ctx context.Context, orderID string) error {
	return r.transition(ctx, orderID, models.OrderCaptured, "", models.OrderPending)
}

// MarkCredited moves Captured to Credited. It is the single gate the
// payment reconciler checks before touching the ledger.
func (r *OrderRepository) MarkCredited(ctx context.Context, orderID string) error {
	return r.transition(ctx, orderID, models.OrderCredited, "", models.OrderCaptured)
}

// MarkFailed terminates an order from Pending or Captured.
func (r *OrderRepository) MarkFailed(ctx context.Context, orderID, reason string) error {
	return r.transition(ctx, orderID, models.OrderFailed, reason, models.OrderPending, models.OrderCaptured)
}

func (r *OrderRepository) transition(ctx context.Context, orderID string, to models.OrderStatus, failReason string, from ...models.OrderStatus) error {
	query := `UPDATE purchase_orders SET status = ?, fail_reason = NULLIF(?, ''), updated_at = NOW() WHERE id = ? AND status IN (?`
	args := []any{to, failReason, orderID, from[0]}
	for _, s := range from[1:] {
		query += `, ?`
		args = append(args, s)
	}
	query += `)`

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("transition order to %s: %w", to, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition rows affected: %w", err)
	}
	if affected == 0 {
		// CAS missed: either the order does not exist or it is not in a
		// legal source status.
		var current models.OrderStatus
		err := r.db.QueryRowContext(ctx, `SELECT status FROM purchase_orders WHERE id = ?`, orderID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("read order status: %w", err)
		}
		return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, current, to)
	}
	return nil
}

func (r *OrderRepository) CountByStatus(ctx context.Context) (map[models.OrderStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM purchase_orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.OrderStatus]int)
	for rows.Next() {
		var status models.OrderStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan order count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
