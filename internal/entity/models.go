package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the store. Stock is the on-hand quantity;
// DeletedAt is set when the product is soft-deleted, hiding it from the
// live catalog.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	CategoryID  string          `json:"category_id"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
	DeletedAt   *time.Time      `json:"deleted_at,omitempty"`
}

// Category groups products.
type Category struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Customer is pass-through metadata stored verbatim on the order.
type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// OrderLine is one requested (product, quantity) pair. Prices never travel
// with the request; the unit price is captured from the catalog snapshot
// taken at validation time.
type OrderLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// PlaceOrder is a command to create a new order.
type PlaceOrder struct {
	Customer Customer    `json:"customer"`
	Lines    []OrderLine `json:"lines"`
}

// OrderItem is a line item within a committed order. UnitPrice is the price
// observed at validation time and is never recomputed from the catalog.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns quantity x unit price for the line.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order represents a committed customer order.
// Invariant: TotalAmount equals the sum of its items' subtotals.
type Order struct {
	ID          string          `json:"id"`
	Customer    Customer        `json:"customer"`
	Items       []OrderItem     `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	PlacedAt    time.Time       `json:"placed_at"`
}

const (
	OrderStatusPlaced    = "placed"
	OrderStatusConfirmed = "confirmed"
)

// --- Events ---

// Event is a domain event published to the message broker.
type Event interface {
	EventType() string
}

// OrderPlaced is emitted after an order commits.
type OrderPlaced struct {
	OrderID     string          `json:"order_id"`
	Items       []OrderItem     `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PlacedAt    time.Time       `json:"placed_at"`
}

func (e OrderPlaced) EventType() string { return "OrderPlaced" }

// OrderConfirmed is emitted once a placed order has been confirmed.
type OrderConfirmed struct {
	OrderID     string    `json:"order_id"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

func (e OrderConfirmed) EventType() string { return "OrderConfirmed" }
