package order

import (
	"fmt"

	"github.com/marketbay/stockroom/internal/domain/catalog"
	"github.com/marketbay/stockroom/internal/domain/quantity"
)

// Demand is the per-product aggregated requested quantity of an order. It is derived
// fresh per reconciliation and never persisted.
type Demand map[catalog.ProductID]quantity.Quantity

// AggregateDemand folds order lines into a demand map, summing the quantities of lines
// that reference the same product. The fold starts from quantity.None, so totals are
// independent of line order. Two lines for the same product with incompatible units
// are a data-integrity error and fail with quantity.ErrUnitMismatch.
func AggregateDemand(lines []Line) (Demand, error) {
	demand := make(Demand, len(lines))
	for _, line := range lines {
		total, ok := demand[line.ProductID]
		if !ok {
			total = quantity.None
		}
		sum, err := total.Add(line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("order: aggregate product %s: %w", line.ProductID, err)
		}
		demand[line.ProductID] = sum
	}
	return demand, nil
}

// Demand aggregates the order's own lines.
func (o *Order) Demand() (Demand, error) {
	return AggregateDemand(o.Lines)
}
