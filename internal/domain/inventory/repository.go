package inventory

import (
	"context"

	"github.com/marketbay/stockroom/internal/domain/catalog"
	"github.com/marketbay/stockroom/internal/domain/quantity"
)

// Repository is the index of stock items, one per product.
//
// FindByProduct returns (nil, nil) when no item tracks the product; absence is policy
// for the caller, not an error. Add rejects a second item for an already-tracked
// product with ErrDuplicateItem.
//
// Deduct and Increase run the read-check-write sequence inside a per-item exclusive
// section (an in-memory lock or a row-scoped transaction), so two concurrent deducts
// against the same product serialize and the on-hand quantity can never go negative.
// Deducting from an untracked product fails with ErrInsufficientStock unless the
// quantity is zero.
type Repository interface {
	FindByProduct(ctx context.Context, productID catalog.ProductID) (*Item, error)
	Add(ctx context.Context, item *Item) error
	Deduct(ctx context.Context, productID catalog.ProductID, q quantity.Quantity) (*Item, error)
	Increase(ctx context.Context, productID catalog.ProductID, q quantity.Quantity) (*Item, error)
}
