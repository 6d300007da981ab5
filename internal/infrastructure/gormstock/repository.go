package gormstock

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marketbay/stockroom/internal/domain/catalog"
	domain "github.com/marketbay/stockroom/internal/domain/inventory"
	"github.com/marketbay/stockroom/internal/domain/quantity"
)

// Repository persists stock items in MySQL through GORM. Deduct and Increase read the
// row under a FOR UPDATE lock inside a transaction, so the check-then-write sequence
// for one product serializes on the database row while other products stay
// uncontended.
type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Open connects to MySQL and migrates the stock_items table.
func Open(dsn string) (*Repository, error) {
	// TranslateError maps the driver's duplicate-key error onto gorm.ErrDuplicatedKey.
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("gormstock: open: %w", err)
	}
	if err := db.AutoMigrate(&ItemModel{}); err != nil {
		return nil, fmt.Errorf("gormstock: migrate: %w", err)
	}
	return New(db), nil
}

func (r *Repository) FindByProduct(ctx context.Context, productID catalog.ProductID) (*domain.Item, error) {
	var model ItemModel
	err := r.db.WithContext(ctx).Where("product_id = ?", productID.String()).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("gormstock: find: %w", err)
	}
	return toDomain(&model)
}

func (r *Repository) Add(ctx context.Context, item *domain.Item) error {
	if item == nil {
		return nil
	}
	err := r.db.WithContext(ctx).Create(toModel(item)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateItem
		}
		return fmt.Errorf("gormstock: create: %w", err)
	}
	return nil
}

func (r *Repository) Deduct(ctx context.Context, productID catalog.ProductID, q quantity.Quantity) (*domain.Item, error) {
	return r.mutate(ctx, productID, func(item *domain.Item) error {
		if item == nil {
			if q.IsZeroOrNegative() {
				return nil
			}
			return domain.ErrInsufficientStock
		}
		return item.Deduct(q)
	}, q)
}

func (r *Repository) Increase(ctx context.Context, productID catalog.ProductID, q quantity.Quantity) (*domain.Item, error) {
	return r.mutate(ctx, productID, func(item *domain.Item) error {
		if item == nil {
			return domain.ErrNotFound
		}
		return item.Increase(q)
	}, q)
}

func (r *Repository) mutate(
	ctx context.Context,
	productID catalog.ProductID,
	apply func(item *domain.Item) error,
	q quantity.Quantity,
) (*domain.Item, error) {
	if q.IsNegative() {
		return nil, domain.ErrInvalidQuantity
	}

	var result *domain.Item
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model ItemModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("product_id = ?", productID.String()).
			First(&model).Error

		var item *domain.Item
		switch {
		case err == nil:
			item, err = toDomain(&model)
			if err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = nil
		default:
			return fmt.Errorf("gormstock: lock row: %w", err)
		}

		if err := apply(item); err != nil {
			return err
		}
		if item == nil {
			result = nil
			return nil
		}

		updates := map[string]any{
			"amount":     item.OnHand.Amount(),
			"unit":       string(item.OnHand.Unit()),
			"updated_at": item.UpdatedAt,
		}
		if err := tx.Model(&ItemModel{}).Where("id = ?", item.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("gormstock: update: %w", err)
		}
		result = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
