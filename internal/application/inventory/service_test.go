package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbay/stockroom/internal/domain/catalog"
	dominv "github.com/marketbay/stockroom/internal/domain/inventory"
	domorder "github.com/marketbay/stockroom/internal/domain/order"
	"github.com/marketbay/stockroom/internal/domain/quantity"
	"github.com/marketbay/stockroom/internal/infrastructure/id"
	"github.com/marketbay/stockroom/internal/infrastructure/memory"
)

func each(n int64) quantity.Quantity {
	return quantity.FromInt64(n, quantity.UnitEach)
}

func newService(t *testing.T) (*Service, dominv.Repository) {
	t.Helper()
	repo := memory.NewInventoryRepository()
	return NewService(repo, id.NewUUIDGenerator()), repo
}

func stock(t *testing.T, svc *Service, onHand int64) catalog.ProductID {
	t.Helper()
	pid := catalog.NewProductID()
	_, err := svc.AddItem(context.Background(), pid, each(onHand))
	require.NoError(t, err)
	return pid
}

func TestHasSufficientQuantity_TrackedProduct(t *testing.T) {
	svc, _ := newService(t)
	pid := stock(t, svc, 10)

	tests := []struct {
		name   string
		demand quantity.Quantity
		want   bool
	}{
		{"less than stock", each(9), true},
		{"exactly stock", each(10), true},
		{"more than stock", each(11), false},
		{"zero demand", each(0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.HasSufficientQuantity(context.Background(), pid, tt.demand)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasSufficientQuantity_UntrackedProduct(t *testing.T) {
	svc, _ := newService(t)
	pid := catalog.NewProductID()

	// No record means zero stock: only zero-or-negative demand is satisfiable.
	got, err := svc.HasSufficientQuantity(context.Background(), pid, each(1))
	require.NoError(t, err)
	assert.False(t, got)

	got, err = svc.HasSufficientQuantity(context.Background(), pid, each(0))
	require.NoError(t, err)
	assert.True(t, got)
}

func TestHasSufficientQuantityForOrder(t *testing.T) {
	svc, _ := newService(t)
	a := stock(t, svc, 10)
	b := stock(t, svc, 0)

	// Demand aggregates to {a: 7, b: 0}; both covered.
	o, err := domorder.New("order-1", "customer-1", []domorder.Line{
		{ProductID: a, Quantity: each(4)},
		{ProductID: a, Quantity: each(3)},
		{ProductID: b, Quantity: each(0)},
	})
	require.NoError(t, err)

	ok, err := svc.HasSufficientQuantityForOrder(context.Background(), o)
	require.NoError(t, err)
	assert.True(t, ok)

	// One more unit of a than stocked tips the order over.
	o2, err := domorder.New("order-2", "customer-1", []domorder.Line{
		{ProductID: a, Quantity: each(4)},
		{ProductID: a, Quantity: each(7)},
	})
	require.NoError(t, err)

	ok, err = svc.HasSufficientQuantityForOrder(context.Background(), o2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasSufficientQuantityForOrder_PermutationInvariant(t *testing.T) {
	svc, _ := newService(t)
	a := stock(t, svc, 5)
	b := stock(t, svc, 3)

	lines := []domorder.Line{
		{ProductID: a, Quantity: each(2)},
		{ProductID: b, Quantity: each(3)},
		{ProductID: a, Quantity: each(3)},
	}
	permutations := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}

	for _, perm := range permutations {
		shuffled := make([]domorder.Line, len(lines))
		for i, j := range perm {
			shuffled[i] = lines[j]
		}
		ok, err := svc.HasSufficientQuantityForLines(context.Background(), shuffled)
		require.NoError(t, err)
		assert.True(t, ok, "permutation %v", perm)
	}
}

func TestHasSufficientQuantityForOrder_UnitMismatch(t *testing.T) {
	svc, _ := newService(t)
	a := stock(t, svc, 5)

	_, err := svc.HasSufficientQuantityForLines(context.Background(), []domorder.Line{
		{ProductID: a, Quantity: each(1)},
		{ProductID: a, Quantity: quantity.FromInt64(1, quantity.UnitKilogram)},
	})
	assert.ErrorIs(t, err, quantity.ErrUnitMismatch)
}

func TestDeductThenInsufficient(t *testing.T) {
	svc, _ := newService(t)
	pid := stock(t, svc, 10)

	item, err := svc.Deduct(context.Background(), pid, each(7))
	require.NoError(t, err)
	assert.True(t, item.OnHand.Equal(each(3)))

	_, err = svc.Deduct(context.Background(), pid, each(4))
	assert.ErrorIs(t, err, dominv.ErrInsufficientStock)

	got, err := svc.HasSufficientQuantity(context.Background(), pid, each(3))
	require.NoError(t, err)
	assert.True(t, got)
}

func TestAddItem_Duplicate(t *testing.T) {
	svc, _ := newService(t)
	pid := stock(t, svc, 1)

	_, err := svc.AddItem(context.Background(), pid, each(2))
	assert.ErrorIs(t, err, dominv.ErrDuplicateItem)
}
