package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbay/stockroom/internal/domain/catalog"
	"github.com/marketbay/stockroom/internal/domain/quantity"
)

func TestNew(t *testing.T) {
	p := catalog.NewProductID()

	o, err := New("order-1", "customer-1", []Line{{ProductID: p, Quantity: each(2), UnitPrice: 499}})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status)

	_, err = New("order-2", "customer-1", nil)
	assert.ErrorIs(t, err, ErrNoLines)

	neg, err := quantity.Parse("-1", quantity.UnitEach)
	require.NoError(t, err)
	_, err = New("order-3", "customer-1", []Line{{ProductID: p, Quantity: neg}})
	assert.ErrorIs(t, err, ErrInvalidLine)
}

func TestConfirm(t *testing.T) {
	o, err := New("order-1", "customer-1", []Line{{ProductID: catalog.NewProductID(), Quantity: each(1)}})
	require.NoError(t, err)

	require.NoError(t, o.Confirm())
	assert.Equal(t, StatusConfirmed, o.Status)

	// Confirmed orders cannot transition again.
	assert.ErrorIs(t, o.Confirm(), ErrInvalidStateTransition)
	assert.ErrorIs(t, o.Reject("late"), ErrInvalidStateTransition)
}

func TestReject(t *testing.T) {
	o, err := New("order-1", "customer-1", []Line{{ProductID: catalog.NewProductID(), Quantity: each(1)}})
	require.NoError(t, err)

	require.NoError(t, o.Reject("insufficient_stock"))
	assert.Equal(t, StatusRejected, o.Status)
	assert.Equal(t, "insufficient_stock", o.FailureReason)

	assert.ErrorIs(t, o.Confirm(), ErrInvalidStateTransition)
}
