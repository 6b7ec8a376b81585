package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/minhvu/catalog-backend/internal/entity"
	"github.com/minhvu/catalog-backend/internal/repository"
)

// OrderExecutor persists a validated order atomically: the header, every
// line item and every stock debit commit together or not at all.
type OrderExecutor struct {
	store repository.OrderStore
}

func NewOrderExecutor(store repository.OrderStore) *OrderExecutor {
	return &OrderExecutor{store: store}
}

// Execute runs the write sequence for cmd inside one transaction. The unit
// price of every line comes from the snapshot taken at validation time,
// never from a fresh read, so the customer pays the price they were quoted
// even if the catalog changes mid-flight.
//
// The caller must ensure the snapshot covers every product referenced by
// cmd.Lines (CheckAvailability guarantees this). Stock sufficiency is not
// re-checked here; the guarded debit in the store rejects a decrement that
// would go negative, which rolls everything back.
//
// Any failure is wrapped in *ExecutionError after the rollback.
func (e *OrderExecutor) Execute(ctx context.Context, cmd *entity.PlaceOrder, snapshot map[string]entity.Product) (*entity.Order, error) {
	var created *entity.Order

	err := e.store.RunInTx(ctx, func(tx repository.OrderTx) error {
		orderID, err := tx.InsertOrder(ctx, cmd.Customer)
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, line := range cmd.Lines {
			p := snapshot[line.ProductID]

			item := entity.OrderItem{
				ProductID: line.ProductID,
				Name:      p.Name,
				UnitPrice: p.Price,
				Quantity:  line.Quantity,
			}
			total = total.Add(item.Subtotal())

			if err := tx.InsertLineItem(ctx, orderID, item); err != nil {
				return err
			}
			if err := tx.DebitStock(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}

		if err := tx.SetOrderTotal(ctx, orderID, total); err != nil {
			return err
		}

		// Reload within the transaction so the caller gets the
		// store-assigned fields exactly as committed.
		created, err = tx.FindOrder(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, &ExecutionError{Err: err}
	}

	return created, nil
}
