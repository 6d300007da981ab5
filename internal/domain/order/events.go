package order

import (
	"time"

	"github.com/marketbay/stockroom/internal/domain/catalog"
	"github.com/marketbay/stockroom/internal/domain/quantity"
)

// PlacedLine is the event-facing projection of an order line.
type PlacedLine struct {
	ProductID catalog.ProductID
	Quantity  quantity.Quantity
}

// OrderPlacedEvent is emitted once a new order has been stored. The inventory worker
// reacts to it by attempting a reservation.
type OrderPlacedEvent struct {
	OrderID    string
	CustomerID string
	Lines      []PlacedLine
	OccurredAt time.Time
}

func (OrderPlacedEvent) EventName() string { return "order.placed" }

func NewOrderPlacedEvent(o *Order) OrderPlacedEvent {
	lines := make([]PlacedLine, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, PlacedLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return OrderPlacedEvent{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Lines:      lines,
		OccurredAt: time.Now().UTC(),
	}
}

// OrderLines converts the event payload back to domain lines for demand aggregation.
func (e OrderPlacedEvent) OrderLines() []Line {
	lines := make([]Line, 0, len(e.Lines))
	for _, l := range e.Lines {
		lines = append(lines, Line{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return lines
}
