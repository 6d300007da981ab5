package inventory

import "time"

const (
	FailureReasonNotTracked        = "not_tracked"
	FailureReasonInsufficientStock = "insufficient_stock"
	FailureReasonUnitMismatch      = "unit_mismatch"
	FailureReasonPersistenceError  = "persist_error"
)

// LineResult reports the reservation outcome for one product of an order.
type LineResult struct {
	ProductID string
	Quantity  string
}

// StockReservedEvent is emitted after every product of an order has been deducted.
type StockReservedEvent struct {
	OrderID    string
	Lines      []LineResult
	OccurredAt time.Time
}

func (StockReservedEvent) EventName() string { return "stock.reserved" }

func NewStockReservedEvent(orderID string, lines []LineResult) StockReservedEvent {
	return StockReservedEvent{
		OrderID:    orderID,
		Lines:      lines,
		OccurredAt: time.Now().UTC(),
	}
}

// StockReservationFailedEvent is emitted when an order's demand cannot be covered.
// Any deductions already applied for the order have been rolled back.
type StockReservationFailedEvent struct {
	OrderID    string
	ProductID  string
	Reason     string
	OccurredAt time.Time
}

func (StockReservationFailedEvent) EventName() string { return "stock.reservation_failed" }

func NewStockReservationFailedEvent(orderID, productID, reason string) StockReservationFailedEvent {
	return StockReservationFailedEvent{
		OrderID:    orderID,
		ProductID:  productID,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
}

// StockReplenishedEvent is emitted after a successful restock.
type StockReplenishedEvent struct {
	ProductID  string
	Quantity   string
	OnHand     string
	OccurredAt time.Time
}

func (StockReplenishedEvent) EventName() string { return "stock.replenished" }

func NewStockReplenishedEvent(productID, quantity, onHand string) StockReplenishedEvent {
	return StockReplenishedEvent{
		ProductID:  productID,
		Quantity:   quantity,
		OnHand:     onHand,
		OccurredAt: time.Now().UTC(),
	}
}
