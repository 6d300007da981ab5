package order

import (
	"errors"
	"time"

	"github.com/marketbay/stockroom/internal/domain/catalog"
	"github.com/marketbay/stockroom/internal/domain/quantity"
)

var (
	ErrNotFound               = errors.New("order: not found")
	ErrNoLines                = errors.New("order: at least one line required")
	ErrInvalidLine            = errors.New("order: line quantity must not be negative")
	ErrInvalidStateTransition = errors.New("order: invalid state transition")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
)

// Line is one position of an order: a product, the requested quantity and the unit
// price in cents. The price plays no role in stock reconciliation.
type Line struct {
	ProductID catalog.ProductID
	Quantity  quantity.Quantity
	UnitPrice int64
}

// Order owns an ordered collection of lines. The same product may appear in more than
// one line; demand aggregation sums them.
type Order struct {
	ID            string
	CustomerID    string
	Lines         []Line
	Status        Status
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func New(id, customerID string, lines []Line) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	for _, l := range lines {
		if l.Quantity.IsNegative() {
			return nil, ErrInvalidLine
		}
	}

	now := time.Now().UTC()
	return &Order{
		ID:         id,
		CustomerID: customerID,
		Lines:      append([]Line(nil), lines...),
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Confirm moves a pending order to confirmed once its stock has been reserved.
func (o *Order) Confirm() error {
	if o.Status != StatusPending {
		return ErrInvalidStateTransition
	}
	o.Status = StatusConfirmed
	o.FailureReason = ""
	o.touch()
	return nil
}

// Reject moves a pending order to rejected, recording why the reservation failed.
func (o *Order) Reject(reason string) error {
	if o.Status != StatusPending {
		return ErrInvalidStateTransition
	}
	o.Status = StatusRejected
	o.FailureReason = reason
	o.touch()
	return nil
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
