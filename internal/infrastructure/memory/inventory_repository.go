package memory

import (
	"context"
	"sync"

	"github.com/marketbay/stockroom/internal/domain/catalog"
	domain "github.com/marketbay/stockroom/internal/domain/inventory"
	"github.com/marketbay/stockroom/internal/domain/quantity"
)

// InventoryRepository keeps stock items in a map keyed by product, one item per
// product. Mutations take a per-product lock around the read-check-write sequence, so
// deducts on the same product serialize while different products proceed
// independently.
type InventoryRepository struct {
	mu    sync.RWMutex
	items map[catalog.ProductID]*domain.Item
	locks map[catalog.ProductID]*sync.Mutex
}

func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{
		items: make(map[catalog.ProductID]*domain.Item),
		locks: make(map[catalog.ProductID]*sync.Mutex),
	}
}

func (r *InventoryRepository) FindByProduct(ctx context.Context, productID catalog.ProductID) (*domain.Item, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[productID]
	if !ok {
		return nil, nil
	}
	return cloneItem(item), nil
}

func (r *InventoryRepository) Add(ctx context.Context, item *domain.Item) error {
	_ = ctx
	if item == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ProductID]; ok {
		return domain.ErrDuplicateItem
	}
	r.items[item.ProductID] = cloneItem(item)
	r.locks[item.ProductID] = &sync.Mutex{}
	return nil
}

func (r *InventoryRepository) Deduct(ctx context.Context, productID catalog.ProductID, q quantity.Quantity) (*domain.Item, error) {
	_ = ctx
	if q.IsNegative() {
		return nil, domain.ErrInvalidQuantity
	}

	lock, item := r.recordFor(productID)
	if item == nil {
		// No record means zero stock; only a zero deduct can succeed.
		if q.IsZeroOrNegative() {
			return nil, nil
		}
		return nil, domain.ErrInsufficientStock
	}

	lock.Lock()
	defer lock.Unlock()

	// Re-read under the record lock; the snapshot above may be stale.
	r.mu.RLock()
	current := cloneItem(r.items[productID])
	r.mu.RUnlock()

	if err := current.Deduct(q); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.items[productID] = current
	r.mu.Unlock()

	return cloneItem(current), nil
}

func (r *InventoryRepository) Increase(ctx context.Context, productID catalog.ProductID, q quantity.Quantity) (*domain.Item, error) {
	_ = ctx
	if q.IsNegative() {
		return nil, domain.ErrInvalidQuantity
	}

	lock, item := r.recordFor(productID)
	if item == nil {
		return nil, domain.ErrNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	r.mu.RLock()
	current := cloneItem(r.items[productID])
	r.mu.RUnlock()

	if err := current.Increase(q); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.items[productID] = current
	r.mu.Unlock()

	return cloneItem(current), nil
}

// recordFor returns the per-product lock and a snapshot of the item, or nils when the
// product is untracked.
func (r *InventoryRepository) recordFor(productID catalog.ProductID) (*sync.Mutex, *domain.Item) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[productID]
	if !ok {
		return nil, nil
	}
	return r.locks[productID], cloneItem(item)
}

func cloneItem(item *domain.Item) *domain.Item {
	if item == nil {
		return nil
	}
	clone := *item
	return &clone
}
