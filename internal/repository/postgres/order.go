package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minhvu/catalog-backend/internal/entity"
	"github.com/minhvu/catalog-backend/internal/repository"
)

// OrderStore implements both the read side (repository.OrderRepository) and
// the transactional write side (repository.OrderStore) for orders.
type OrderStore struct {
	db *sql.DB
}

// NewOrderStore creates an OrderStore backed by the given database.
func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

// RunInTx begins a transaction, hands the explicit handle to fn and commits
// iff fn returns nil. The deferred Rollback is a no-op after a successful
// commit, and guarantees cleanup when fn fails or the context is cancelled
// mid-transaction.
func (s *OrderStore) RunInTx(ctx context.Context, fn func(tx repository.OrderTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&orderTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type orderTx struct {
	tx *sql.Tx
}

func (t *orderTx) InsertOrder(ctx context.Context, customer entity.Customer) (string, error) {
	id := uuid.NewString()
	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO orders (id, customer_name, customer_email, customer_address, total_amount, status, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		id, customer.Name, customer.Email, customer.Address, decimal.Zero, entity.OrderStatusPlaced, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert order: %w", err)
	}
	return id, nil
}

func (t *orderTx) InsertLineItem(ctx context.Context, orderID string, item entity.OrderItem) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO order_items (order_id, product_id, name, unit_price, quantity) VALUES ($1, $2, $3, $4, $5)",
		orderID, item.ProductID, item.Name, item.UnitPrice, item.Quantity,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order item: %w", err)
	}
	return nil
}

func (t *orderTx) DebitStock(ctx context.Context, productID string, qty int) error {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $3 AND deleted_at IS NULL",
		qty, productID, qty,
	)
	if err != nil {
		return fmt.Errorf("failed to update product stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	// The guard rejected the debit: the stock observed at validation time
	// was consumed by a concurrent order, or the product vanished.
	if n == 0 {
		return fmt.Errorf("debit of %d for product %s: %w", qty, productID, repository.ErrStockConflict)
	}
	return nil
}

func (t *orderTx) SetOrderTotal(ctx context.Context, orderID string, total decimal.Decimal) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE orders SET total_amount = $1 WHERE id = $2",
		total, orderID,
	)
	if err != nil {
		return fmt.Errorf("failed to set order total: %w", err)
	}
	return nil
}

func (t *orderTx) FindOrder(ctx context.Context, id string) (*entity.Order, error) {
	return findOrder(ctx, t.tx, id)
}

func (s *OrderStore) FindByID(ctx context.Context, id string) (*entity.Order, error) {
	return findOrder(ctx, s.db, id)
}

func findOrder(ctx context.Context, q querier, id string) (*entity.Order, error) {
	row := q.QueryRowContext(ctx,
		"SELECT id, customer_name, customer_email, customer_address, total_amount, status, created_at FROM orders WHERE id = $1", id)

	var o entity.Order
	err := row.Scan(&o.ID, &o.Customer.Name, &o.Customer.Email, &o.Customer.Address, &o.TotalAmount, &o.Status, &o.PlacedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	items, err := orderItems(ctx, q, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func orderItems(ctx context.Context, q querier, orderID string) ([]entity.OrderItem, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT product_id, name, unit_price, quantity FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []entity.OrderItem
	for rows.Next() {
		var item entity.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.UnitPrice, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order item rows: %w", err)
	}
	return items, nil
}

func (s *OrderStore) FindAll(ctx context.Context, f repository.OrderFilter) ([]entity.Order, error) {
	var (
		conds []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	query := "SELECT id, customer_name, customer_email, customer_address, total_amount, status, created_at FROM orders"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []entity.Order
	for rows.Next() {
		var o entity.Order
		if err := rows.Scan(&o.ID, &o.Customer.Name, &o.Customer.Email, &o.Customer.Address, &o.TotalAmount, &o.Status, &o.PlacedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}

	for i := range orders {
		items, err := orderItems(ctx, s.db, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (s *OrderStore) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1 WHERE id = $2",
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return requireRow(res)
}
