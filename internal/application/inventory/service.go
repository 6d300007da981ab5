package inventory

import (
	"context"
	"fmt"

	"github.com/marketbay/stockroom/internal/domain/catalog"
	dominv "github.com/marketbay/stockroom/internal/domain/inventory"
	domorder "github.com/marketbay/stockroom/internal/domain/order"
	"github.com/marketbay/stockroom/internal/domain/quantity"
)

// IDGenerator issues identifiers for newly tracked stock items.
type IDGenerator interface {
	NewID() string
}

// Service answers availability questions and applies stock mutations through the
// repository. Availability checks are advisory: the repository's locked deduct is the
// authoritative guard, so a deduct may still fail after a positive check.
type Service struct {
	repo  dominv.Repository
	idGen IDGenerator
}

func NewService(repo dominv.Repository, idGen IDGenerator) *Service {
	return &Service{repo: repo, idGen: idGen}
}

// HasSufficientQuantity reports whether the product's stock covers the demanded
// quantity. An untracked product has zero stock, so only a zero-or-negative demand is
// satisfiable.
func (s *Service) HasSufficientQuantity(ctx context.Context, productID catalog.ProductID, demand quantity.Quantity) (bool, error) {
	item, err := s.repo.FindByProduct(ctx, productID)
	if err != nil {
		return false, fmt.Errorf("inventory: find %s: %w", productID, err)
	}
	if item == nil {
		return demand.IsZeroOrNegative(), nil
	}
	ok, err := item.HasSufficientQuantity(demand)
	if err != nil {
		return false, fmt.Errorf("inventory: check %s: %w", productID, err)
	}
	return ok, nil
}

// HasSufficientQuantityForOrder aggregates the order's lines into per-product demand
// and requires every product to pass. The reduction is side-effect free and
// fails fast on the first uncovered product.
func (s *Service) HasSufficientQuantityForOrder(ctx context.Context, o *domorder.Order) (bool, error) {
	return s.HasSufficientQuantityForLines(ctx, o.Lines)
}

func (s *Service) HasSufficientQuantityForLines(ctx context.Context, lines []domorder.Line) (bool, error) {
	demand, err := domorder.AggregateDemand(lines)
	if err != nil {
		return false, err
	}
	for productID, q := range demand {
		ok, err := s.HasSufficientQuantity(ctx, productID, q)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// AddItem starts tracking a product with the given initial stock.
func (s *Service) AddItem(ctx context.Context, productID catalog.ProductID, onHand quantity.Quantity) (*dominv.Item, error) {
	item, err := dominv.NewItem(s.idGen.NewID(), productID, onHand)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Add(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Deduct atomically lowers the product's stock, failing with ErrInsufficientStock
// rather than ever clamping to zero.
func (s *Service) Deduct(ctx context.Context, productID catalog.ProductID, q quantity.Quantity) (*dominv.Item, error) {
	return s.repo.Deduct(ctx, productID, q)
}

// Increase atomically replenishes the product's stock.
func (s *Service) Increase(ctx context.Context, productID catalog.ProductID, q quantity.Quantity) (*dominv.Item, error) {
	return s.repo.Increase(ctx, productID, q)
}
