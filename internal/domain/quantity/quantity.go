package quantity

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrUnitMismatch  = errors.New("quantity: incompatible units")
	ErrInvalidAmount = errors.New("quantity: invalid amount")
)

// Unit labels what a quantity counts. The empty unit belongs to None only and is
// compatible with every other unit.
type Unit string

const (
	UnitEach     Unit = "each"
	UnitKilogram Unit = "kg"
	UnitLiter    Unit = "l"
	UnitMeter    Unit = "m"
)

// Quantity is an immutable unit-tagged amount. The magnitude is kept as a decimal so
// fractional stock counts never pick up binary rounding error. Arithmetic returns new
// values and fails on incompatible units instead of coercing.
type Quantity struct {
	amount decimal.Decimal
	unit   Unit
}

// None is the unit-neutral zero. It is the identity for Add and compares against any
// unit.
var None = Quantity{}

func New(amount decimal.Decimal, unit Unit) Quantity {
	return Quantity{amount: amount, unit: unit}
}

func FromInt64(n int64, unit Unit) Quantity {
	return Quantity{amount: decimal.NewFromInt(n), unit: unit}
}

// Parse builds a Quantity from a decimal string such as "2.5".
func Parse(amount string, unit Unit) (Quantity, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return None, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return Quantity{amount: d, unit: unit}, nil
}

func (q Quantity) Amount() decimal.Decimal { return q.amount }
func (q Quantity) Unit() Unit              { return q.unit }

// CompatibleWith reports whether the two quantities may be combined. None matches
// everything.
func (q Quantity) CompatibleWith(other Quantity) bool {
	return q.unit == "" || other.unit == "" || q.unit == other.unit
}

// resultUnit keeps the concrete unit when one side is None.
func (q Quantity) resultUnit(other Quantity) Unit {
	if q.unit != "" {
		return q.unit
	}
	return other.unit
}

func (q Quantity) Add(other Quantity) (Quantity, error) {
	if !q.CompatibleWith(other) {
		return None, fmt.Errorf("%w: %s + %s", ErrUnitMismatch, q, other)
	}
	return Quantity{amount: q.amount.Add(other.amount), unit: q.resultUnit(other)}, nil
}

func (q Quantity) Sub(other Quantity) (Quantity, error) {
	if !q.CompatibleWith(other) {
		return None, fmt.Errorf("%w: %s - %s", ErrUnitMismatch, q, other)
	}
	return Quantity{amount: q.amount.Sub(other.amount), unit: q.resultUnit(other)}, nil
}

// Compare returns -1, 0 or 1 as q is less than, equal to or greater than other.
func (q Quantity) Compare(other Quantity) (int, error) {
	if !q.CompatibleWith(other) {
		return 0, fmt.Errorf("%w: %s vs %s", ErrUnitMismatch, q, other)
	}
	return q.amount.Cmp(other.amount), nil
}

func (q Quantity) GreaterThanOrEqual(other Quantity) (bool, error) {
	c, err := q.Compare(other)
	if err != nil {
		return false, err
	}
	return c >= 0, nil
}

func (q Quantity) IsZeroOrNegative() bool { return q.amount.Sign() <= 0 }
func (q Quantity) IsNegative() bool       { return q.amount.Sign() < 0 }
func (q Quantity) IsPositive() bool       { return q.amount.Sign() > 0 }

func (q Quantity) Equal(other Quantity) bool {
	return q.CompatibleWith(other) && q.amount.Equal(other.amount)
}

func (q Quantity) String() string {
	if q.unit == "" {
		return q.amount.String()
	}
	return q.amount.String() + " " + string(q.unit)
}
