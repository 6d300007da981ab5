package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbay/stockroom/internal/domain/catalog"
	domain "github.com/marketbay/stockroom/internal/domain/inventory"
	"github.com/marketbay/stockroom/internal/domain/quantity"
)

func each(n int64) quantity.Quantity {
	return quantity.FromInt64(n, quantity.UnitEach)
}

func addItem(t *testing.T, repo *InventoryRepository, onHand int64) catalog.ProductID {
	t.Helper()
	pid := catalog.NewProductID()
	item, err := domain.NewItem("item-"+pid.String(), pid, each(onHand))
	require.NoError(t, err)
	require.NoError(t, repo.Add(context.Background(), item))
	return pid
}

func TestAdd_RejectsDuplicateProduct(t *testing.T) {
	repo := NewInventoryRepository()
	pid := addItem(t, repo, 5)

	dup, err := domain.NewItem("item-dup", pid, each(3))
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Add(context.Background(), dup), domain.ErrDuplicateItem)

	// The original record is untouched.
	got, err := repo.FindByProduct(context.Background(), pid)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.OnHand.Equal(each(5)))
}

func TestFindByProduct_AbsentIsNotAnError(t *testing.T) {
	repo := NewInventoryRepository()

	got, err := repo.FindByProduct(context.Background(), catalog.NewProductID())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeduct(t *testing.T) {
	repo := NewInventoryRepository()
	pid := addItem(t, repo, 10)

	item, err := repo.Deduct(context.Background(), pid, each(4))
	require.NoError(t, err)
	assert.True(t, item.OnHand.Equal(each(6)))

	_, err = repo.Deduct(context.Background(), pid, each(7))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	got, err := repo.FindByProduct(context.Background(), pid)
	require.NoError(t, err)
	assert.True(t, got.OnHand.Equal(each(6)))
}

func TestDeduct_UntrackedProduct(t *testing.T) {
	repo := NewInventoryRepository()

	_, err := repo.Deduct(context.Background(), catalog.NewProductID(), each(1))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// Zero demand against an untracked product is a no-op.
	_, err = repo.Deduct(context.Background(), catalog.NewProductID(), each(0))
	assert.NoError(t, err)
}

func TestIncrease(t *testing.T) {
	repo := NewInventoryRepository()
	pid := addItem(t, repo, 2)

	item, err := repo.Increase(context.Background(), pid, each(3))
	require.NoError(t, err)
	assert.True(t, item.OnHand.Equal(each(5)))

	_, err = repo.Increase(context.Background(), catalog.NewProductID(), each(1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeduct_ConcurrentSameRecord(t *testing.T) {
	repo := NewInventoryRepository()
	pid := addItem(t, repo, 5)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Deduct(context.Background(), pid, each(5))
		}(i)
	}
	wg.Wait()

	// Exactly one of the two full-stock deducts may win.
	var won, lost int
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			lost++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)

	got, err := repo.FindByProduct(context.Background(), pid)
	require.NoError(t, err)
	assert.True(t, got.OnHand.Equal(each(0)))
}

func TestDeduct_ConcurrentDistinctRecords(t *testing.T) {
	repo := NewInventoryRepository()
	pids := make([]catalog.ProductID, 8)
	for i := range pids {
		pids[i] = addItem(t, repo, 100)
	}

	var wg sync.WaitGroup
	for _, pid := range pids {
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(pid catalog.ProductID) {
				defer wg.Done()
				_, err := repo.Deduct(context.Background(), pid, each(10))
				assert.NoError(t, err)
			}(pid)
		}
	}
	wg.Wait()

	for _, pid := range pids {
		got, err := repo.FindByProduct(context.Background(), pid)
		require.NoError(t, err)
		assert.True(t, got.OnHand.Equal(each(0)), "product %s: on hand %s", pid, got.OnHand)
	}
}
