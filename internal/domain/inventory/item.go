package inventory

import (
	"errors"
	"time"

	"github.com/marketbay/stockroom/internal/domain/catalog"
	"github.com/marketbay/stockroom/internal/domain/quantity"
)

var (
	ErrNotFound          = errors.New("inventory: product not tracked")
	ErrDuplicateItem     = errors.New("inventory: product already tracked")
	ErrInvalidQuantity   = errors.New("inventory: quantity must not be negative")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
)

// Item records the on-hand quantity for exactly one product. Uniqueness (one item per
// product) is enforced by the stores; the item itself only guards the non-negativity
// of its stock level.
type Item struct {
	ID        string
	ProductID catalog.ProductID
	OnHand    quantity.Quantity
	UpdatedAt time.Time
}

func NewItem(id string, productID catalog.ProductID, onHand quantity.Quantity) (*Item, error) {
	if onHand.IsNegative() {
		return nil, ErrInvalidQuantity
	}
	return &Item{
		ID:        id,
		ProductID: productID,
		OnHand:    onHand,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// HasSufficientQuantity reports whether the item covers the demanded quantity.
// A unit mismatch between stock and demand is a data-integrity error and propagates.
func (i *Item) HasSufficientQuantity(demand quantity.Quantity) (bool, error) {
	return i.OnHand.GreaterThanOrEqual(demand)
}

// Deduct lowers the on-hand quantity, never below zero. Deducting zero is a no-op;
// a negative quantity is rejected.
func (i *Item) Deduct(q quantity.Quantity) error {
	if q.IsNegative() {
		return ErrInvalidQuantity
	}
	ok, err := i.HasSufficientQuantity(q)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInsufficientStock
	}
	rest, err := i.OnHand.Sub(q)
	if err != nil {
		return err
	}
	i.OnHand = rest
	i.touch()
	return nil
}

// Increase raises the on-hand quantity. Negative replenishments are rejected.
func (i *Item) Increase(q quantity.Quantity) error {
	if q.IsNegative() {
		return ErrInvalidQuantity
	}
	sum, err := i.OnHand.Add(q)
	if err != nil {
		return err
	}
	i.OnHand = sum
	i.touch()
	return nil
}

func (i *Item) touch() {
	i.UpdatedAt = time.Now().UTC()
}
