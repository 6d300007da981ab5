package gormstock

import (
	"fmt"
	"time"

	"github.com/marketbay/stockroom/internal/domain/catalog"
	domain "github.com/marketbay/stockroom/internal/domain/inventory"
	"github.com/marketbay/stockroom/internal/domain/quantity"
	"github.com/shopspring/decimal"
)

// ItemModel maps a stock item to the stock_items table. The magnitude is stored as a
// SQL decimal so the database compares and sums it exactly; the unit rides alongside.
type ItemModel struct {
	ID        string          `gorm:"primaryKey;size:36"`
	ProductID string          `gorm:"uniqueIndex;size:36;not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	Unit      string          `gorm:"size:16;not null"`
	UpdatedAt time.Time
}

func (ItemModel) TableName() string {
	return "stock_items"
}

func toModel(item *domain.Item) *ItemModel {
	return &ItemModel{
		ID:        item.ID,
		ProductID: item.ProductID.String(),
		Amount:    item.OnHand.Amount(),
		Unit:      string(item.OnHand.Unit()),
		UpdatedAt: item.UpdatedAt,
	}
}

func toDomain(m *ItemModel) (*domain.Item, error) {
	productID, err := catalog.ParseProductID(m.ProductID)
	if err != nil {
		return nil, fmt.Errorf("gormstock: corrupt product id %q: %w", m.ProductID, err)
	}
	return &domain.Item{
		ID:        m.ID,
		ProductID: productID,
		OnHand:    quantity.New(m.Amount, quantity.Unit(m.Unit)),
		UpdatedAt: m.UpdatedAt,
	}, nil
}
