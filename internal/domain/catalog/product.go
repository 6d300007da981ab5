package catalog

import (
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidProductID = errors.New("catalog: invalid product id")

// ProductID identifies a catalog product. It is opaque to every other package; stock
// and order lines reference products through it only.
type ProductID string

// NewProductID mints a fresh identifier.
func NewProductID() ProductID {
	return ProductID(uuid.NewString())
}

// ParseProductID validates an externally supplied identifier.
func ParseProductID(s string) (ProductID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", ErrInvalidProductID
	}
	return ProductID(id.String()), nil
}

func (id ProductID) String() string { return string(id) }
func (id ProductID) IsZero() bool   { return id == "" }
