package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/minhvu/catalog-backend/internal/entity"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist.
	ErrNotFound = errors.New("not found")
	// ErrStockConflict is returned by a stock debit that would drive stock
	// negative — typically a concurrent order consumed the stock after it
	// was validated.
	ErrStockConflict = errors.New("stock conflict")
)

// ProductFilter narrows and pages product listings. Zero values mean
// "no constraint"; SortBy must be one of the whitelisted columns.
type ProductFilter struct {
	CategoryID     string
	Search         string
	IncludeDeleted bool
	SortBy         string // "name", "price", "stock", "created_at"
	SortDesc       bool
	Limit          int
	Offset         int
}

// OrderFilter narrows and pages order listings. Orders come back newest first.
type OrderFilter struct {
	Status string
	Limit  int
	Offset int
}

// ProductRepository handles persistence for products.
type ProductRepository interface {
	Create(ctx context.Context, p *entity.Product) error
	FindByID(ctx context.Context, id string) (*entity.Product, error)
	// ProductsByID bulk-reads live (non-deleted) products for the given ID
	// set in a single query. Missing or soft-deleted IDs are simply absent
	// from the result.
	ProductsByID(ctx context.Context, ids []string) (map[string]entity.Product, error)
	FindAll(ctx context.Context, f ProductFilter) ([]entity.Product, error)
	Update(ctx context.Context, p *entity.Product) error
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	// Seed inserts initial products if the table is empty.
	Seed(ctx context.Context, products []entity.Product) error
}

// CategoryRepository handles persistence for categories.
type CategoryRepository interface {
	Create(ctx context.Context, c *entity.Category) error
	FindByID(ctx context.Context, id string) (*entity.Category, error)
	FindAll(ctx context.Context, includeDeleted bool) ([]entity.Category, error)
	Update(ctx context.Context, c *entity.Category) error
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
}

// OrderRepository is the read side for orders.
type OrderRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Order, error)
	FindAll(ctx context.Context, f OrderFilter) ([]entity.Order, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// OrderTx is the write surface available inside one order transaction.
// Every method runs against the same underlying transaction; nothing is
// visible to other callers until the enclosing RunInTx returns nil.
type OrderTx interface {
	// InsertOrder persists the order header with a zero total and returns
	// the store-assigned order ID.
	InsertOrder(ctx context.Context, customer entity.Customer) (string, error)
	InsertLineItem(ctx context.Context, orderID string, item entity.OrderItem) error
	// DebitStock decrements the product's stock by qty, guarded so the
	// stock can never go negative. Returns ErrStockConflict when the guard
	// rejects the debit.
	DebitStock(ctx context.Context, productID string, qty int) error
	SetOrderTotal(ctx context.Context, orderID string, total decimal.Decimal) error
	// FindOrder reloads the order with its line items within the
	// transaction, so the caller sees server-assigned fields pre-commit.
	FindOrder(ctx context.Context, id string) (*entity.Order, error)
}

// OrderStore opens order transactions. RunInTx begins a transaction, passes
// the explicit handle to fn, and commits iff fn returns nil; any error (or
// context cancellation) rolls the whole transaction back.
type OrderStore interface {
	RunInTx(ctx context.Context, fn func(tx OrderTx) error) error
}
