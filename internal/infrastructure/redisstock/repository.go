package redisstock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marketbay/stockroom/internal/domain/catalog"
	domain "github.com/marketbay/stockroom/internal/domain/inventory"
	"github.com/marketbay/stockroom/internal/domain/quantity"
)

const (
	stockKeyPrefix = "stock:"
	maxRetries     = 16

	fieldID        = "id"
	fieldAmount    = "amount"
	fieldUnit      = "unit"
	fieldUpdatedAt = "updated_at"
)

var ErrTooMuchContention = errors.New("redisstock: transaction retries exhausted")

// Repository stores one hash per product. Mutations run a WATCH-guarded
// compare-and-set instead of a Lua DECRBY so decimal magnitudes round-trip exactly;
// a concurrent write to the same key aborts the transaction and the sequence retries.
type Repository struct {
	client *redis.Client
}

func New(client *redis.Client) *Repository {
	return &Repository{client: client}
}

func stockKey(productID catalog.ProductID) string {
	return stockKeyPrefix + productID.String()
}

func (r *Repository) FindByProduct(ctx context.Context, productID catalog.ProductID) (*domain.Item, error) {
	fields, err := r.client.HGetAll(ctx, stockKey(productID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstock: hgetall: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return itemFromFields(productID, fields)
}

func (r *Repository) Add(ctx context.Context, item *domain.Item) error {
	if item == nil {
		return nil
	}
	key := stockKey(item.ProductID)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists == 1 {
			return domain.ErrDuplicateItem
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, itemToFields(item))
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return domain.ErrDuplicateItem
	}
	return err
}

func (r *Repository) Deduct(ctx context.Context, productID catalog.ProductID, q quantity.Quantity) (*domain.Item, error) {
	return r.mutate(ctx, productID, q, func(item *domain.Item) error {
		if item == nil {
			if q.IsZeroOrNegative() {
				return nil
			}
			return domain.ErrInsufficientStock
		}
		return item.Deduct(q)
	})
}

func (r *Repository) Increase(ctx context.Context, productID catalog.ProductID, q quantity.Quantity) (*domain.Item, error) {
	return r.mutate(ctx, productID, q, func(item *domain.Item) error {
		if item == nil {
			return domain.ErrNotFound
		}
		return item.Increase(q)
	})
}

// mutate runs apply on the current item inside a WATCH/EXEC cycle and writes the
// result back. apply sees nil for untracked products and decides the policy.
func (r *Repository) mutate(
	ctx context.Context,
	productID catalog.ProductID,
	q quantity.Quantity,
	apply func(item *domain.Item) error,
) (*domain.Item, error) {
	if q.IsNegative() {
		return nil, domain.ErrInvalidQuantity
	}

	key := stockKey(productID)
	var result *domain.Item

	txn := func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("redisstock: hgetall: %w", err)
		}

		var item *domain.Item
		if len(fields) > 0 {
			item, err = itemFromFields(productID, fields)
			if err != nil {
				return err
			}
		}

		if err := apply(item); err != nil {
			return err
		}
		if item == nil {
			result = nil
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, itemToFields(item))
			return nil
		})
		if err != nil {
			return err
		}
		result = item
		return nil
	}

	for i := 0; i < maxRetries; i++ {
		err := r.client.Watch(ctx, txn, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, ErrTooMuchContention
}

func itemToFields(item *domain.Item) map[string]any {
	return map[string]any{
		fieldID:        item.ID,
		fieldAmount:    item.OnHand.Amount().String(),
		fieldUnit:      string(item.OnHand.Unit()),
		fieldUpdatedAt: item.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func itemFromFields(productID catalog.ProductID, fields map[string]string) (*domain.Item, error) {
	onHand, err := quantity.Parse(fields[fieldAmount], quantity.Unit(fields[fieldUnit]))
	if err != nil {
		return nil, fmt.Errorf("redisstock: corrupt amount for %s: %w", productID, err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, fields[fieldUpdatedAt])
	if err != nil {
		updatedAt = time.Time{}
	}
	return &domain.Item{
		ID:        fields[fieldID],
		ProductID: productID,
		OnHand:    onHand,
		UpdatedAt: updatedAt,
	}, nil
}
