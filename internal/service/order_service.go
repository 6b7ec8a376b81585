package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/minhvu/catalog-backend/internal/entity"
	"github.com/minhvu/catalog-backend/internal/messaging"
	"github.com/minhvu/catalog-backend/internal/repository"
)

// TopicOrdersPlaced carries OrderPlaced events for downstream consumers.
const TopicOrdersPlaced = "orders.placed"

// OrderService orchestrates order-related business logic: validate against
// inventory, execute the atomic write, then announce the committed order.
type OrderService struct {
	validator *InventoryValidator
	executor  *OrderExecutor
	orders    repository.OrderRepository
	publisher messaging.Publisher
}

func NewOrderService(
	validator *InventoryValidator,
	executor *OrderExecutor,
	orders repository.OrderRepository,
	publisher messaging.Publisher,
) *OrderService {
	return &OrderService{
		validator: validator,
		executor:  executor,
		orders:    orders,
		publisher: publisher,
	}
}

// CreateOrder places an order. Failure modes form a closed set:
// ErrEmptyOrder and the validator's typed errors surface before any
// transaction is opened; *ExecutionError means the transaction rolled back
// and nothing of the attempt persists.
func (s *OrderService) CreateOrder(ctx context.Context, cmd *entity.PlaceOrder) (*entity.Order, error) {
	if len(cmd.Lines) == 0 {
		return nil, ErrEmptyOrder
	}

	snapshot, err := s.validator.CheckAvailability(ctx, cmd.Lines)
	if err != nil {
		return nil, err
	}

	order, err := s.executor.Execute(ctx, cmd, snapshot)
	if err != nil {
		return nil, err
	}

	slog.Info("Order placed", "order_id", order.ID, "total", order.TotalAmount, "items", len(order.Items))

	// The order is committed at this point; a publish failure must not fail
	// the request.
	if s.publisher != nil {
		event := entity.OrderPlaced{
			OrderID:     order.ID,
			Items:       order.Items,
			TotalAmount: order.TotalAmount,
			PlacedAt:    order.PlacedAt,
		}
		if err := s.publisher.PublishEvent(ctx, TopicOrdersPlaced, order.ID, event); err != nil {
			slog.Error("Failed to publish OrderPlaced", "order_id", order.ID, "err", err)
		}
	}

	return order, nil
}

// GetOrder returns a single order by ID.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*entity.Order, error) {
	return s.orders.FindByID(ctx, id)
}

// ListOrders returns orders newest first, narrowed by the filter.
func (s *OrderService) ListOrders(ctx context.Context, f repository.OrderFilter) ([]entity.Order, error) {
	return s.orders.FindAll(ctx, f)
}

// ConfirmOrder transitions a placed order to confirmed. Triggered by the
// orders.placed consumer; confirming an already-confirmed order is a no-op.
func (s *OrderService) ConfirmOrder(ctx context.Context, orderID string) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status == entity.OrderStatusConfirmed {
		slog.Info("Order already confirmed", "order_id", orderID)
		return nil
	}

	if err := s.orders.UpdateStatus(ctx, orderID, entity.OrderStatusConfirmed); err != nil {
		return err
	}

	if s.publisher != nil {
		event := entity.OrderConfirmed{OrderID: orderID, ConfirmedAt: time.Now().UTC()}
		if err := s.publisher.PublishEvent(ctx, "orders.confirmed", orderID, event); err != nil {
			slog.Error("Failed to publish OrderConfirmed", "order_id", orderID, "err", err)
		}
	}

	slog.Info("Order confirmed", "order_id", orderID)
	return nil
}
