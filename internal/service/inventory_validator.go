package service

import (
	"context"

	"github.com/minhvu/catalog-backend/internal/entity"
)

// ProductReader is the read surface the validator needs: a single bulk
// lookup of live products by ID set.
type ProductReader interface {
	ProductsByID(ctx context.Context, ids []string) (map[string]entity.Product, error)
}

// InventoryValidator checks a proposed order's lines against live inventory.
// It is a pure read: the snapshot it returns is point-in-time and may be
// invalidated by concurrent orders the moment it is returned.
type InventoryValidator struct {
	products ProductReader
}

func NewInventoryValidator(products ProductReader) *InventoryValidator {
	return &InventoryValidator{products: products}
}

// CheckAvailability fetches the referenced products in one bulk read and
// confirms every line can be satisfied. Duplicate lines for the same product
// are additive demand. Checks fail fast in input order (after
// de-duplication); the snapshot of all fetched products is returned on
// success so the executor need not re-fetch.
func (v *InventoryValidator) CheckAvailability(ctx context.Context, lines []entity.OrderLine) (map[string]entity.Product, error) {
	// Distinct IDs in first-occurrence order, with demand summed per product.
	var ordered []string
	demand := make(map[string]int, len(lines))
	for _, line := range lines {
		if _, seen := demand[line.ProductID]; !seen {
			ordered = append(ordered, line.ProductID)
		}
		demand[line.ProductID] += line.Quantity
	}

	snapshot, err := v.products.ProductsByID(ctx, ordered)
	if err != nil {
		return nil, err
	}

	for _, id := range ordered {
		p, ok := snapshot[id]
		if !ok {
			return nil, &ItemNotFoundError{ProductID: id}
		}
		if p.Stock < demand[id] {
			return nil, &InsufficientStockError{
				ProductID: id,
				Requested: demand[id],
				Available: p.Stock,
			}
		}
	}

	return snapshot, nil
}
