package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbay/stockroom/internal/domain/catalog"
	dominv "github.com/marketbay/stockroom/internal/domain/inventory"
	domorder "github.com/marketbay/stockroom/internal/domain/order"
	domoutbox "github.com/marketbay/stockroom/internal/domain/outbox"
	"github.com/marketbay/stockroom/internal/infrastructure/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventName())
	}
	return out
}

func placedEvent(t *testing.T, lines []domorder.Line) domorder.OrderPlacedEvent {
	t.Helper()
	o, err := domorder.New("order-1", "customer-1", lines)
	require.NoError(t, err)
	return domorder.NewOrderPlacedEvent(o)
}

func TestReserve_Success(t *testing.T) {
	repo := memory.NewInventoryRepository()
	svc := NewService(repo, fixedIDs{})
	a := mustStock(t, svc, 10)
	b := mustStock(t, svc, 5)

	pub := &recordingPublisher{}
	uc := NewReserveStockUseCase(repo, pub, nil)

	result, err := uc.Execute(context.Background(), placedEvent(t, []domorder.Line{
		{ProductID: a, Quantity: each(4)},
		{ProductID: a, Quantity: each(3)},
		{ProductID: b, Quantity: each(5)},
	}))
	require.NoError(t, err)
	assert.True(t, result.Reserved)
	assert.Equal(t, []string{"stock.reserved"}, pub.names())

	itemA, err := repo.FindByProduct(context.Background(), a)
	require.NoError(t, err)
	assert.True(t, itemA.OnHand.Equal(each(3)))

	itemB, err := repo.FindByProduct(context.Background(), b)
	require.NoError(t, err)
	assert.True(t, itemB.OnHand.Equal(each(0)))
}

func TestReserve_InsufficientRollsBack(t *testing.T) {
	repo := memory.NewInventoryRepository()
	svc := NewService(repo, fixedIDs{})
	a := mustStock(t, svc, 10)
	b := mustStock(t, svc, 1)

	pub := &recordingPublisher{}
	uc := NewReserveStockUseCase(repo, pub, nil)

	result, err := uc.Execute(context.Background(), placedEvent(t, []domorder.Line{
		{ProductID: a, Quantity: each(4)},
		{ProductID: b, Quantity: each(2)},
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, dominv.ErrInsufficientStock)
	assert.False(t, result.Reserved)
	assert.Equal(t, dominv.FailureReasonInsufficientStock, result.FailureReason)
	assert.Equal(t, []string{"stock.reservation_failed"}, pub.names())

	// Whatever was already deducted for the order has been restored.
	itemA, err := repo.FindByProduct(context.Background(), a)
	require.NoError(t, err)
	assert.True(t, itemA.OnHand.Equal(each(10)), "on hand %s", itemA.OnHand)

	itemB, err := repo.FindByProduct(context.Background(), b)
	require.NoError(t, err)
	assert.True(t, itemB.OnHand.Equal(each(1)))
}

func TestReserve_UntrackedProduct(t *testing.T) {
	repo := memory.NewInventoryRepository()
	pub := &recordingPublisher{}
	uc := NewReserveStockUseCase(repo, pub, nil)

	result, err := uc.Execute(context.Background(), placedEvent(t, []domorder.Line{
		{ProductID: catalog.NewProductID(), Quantity: each(1)},
	}))
	require.Error(t, err)
	assert.False(t, result.Reserved)
	assert.Equal(t, dominv.FailureReasonInsufficientStock, result.FailureReason)
}

func TestReserve_ConcurrentOrdersSameProduct(t *testing.T) {
	repo := memory.NewInventoryRepository()
	svc := NewService(repo, fixedIDs{})
	pid := mustStock(t, svc, 5)

	uc := NewReserveStockUseCase(repo, &recordingPublisher{}, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.Execute(context.Background(), placedEvent(t, []domorder.Line{
				{ProductID: pid, Quantity: each(5)},
			}))
		}(i)
	}
	wg.Wait()

	var won int
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, dominv.ErrInsufficientStock)
		}
	}
	assert.Equal(t, 1, won)

	item, err := repo.FindByProduct(context.Background(), pid)
	require.NoError(t, err)
	assert.True(t, item.OnHand.Equal(each(0)))
}

type fixedIDs struct{}

func (fixedIDs) NewID() string { return "fixed-id" }

func mustStock(t *testing.T, svc *Service, onHand int64) catalog.ProductID {
	t.Helper()
	pid := catalog.NewProductID()
	_, err := svc.AddItem(context.Background(), pid, each(onHand))
	require.NoError(t, err)
	return pid
}
