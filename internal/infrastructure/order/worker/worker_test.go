package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbay/stockroom/internal/domain/catalog"
	dominv "github.com/marketbay/stockroom/internal/domain/inventory"
	domorder "github.com/marketbay/stockroom/internal/domain/order"
	domoutbox "github.com/marketbay/stockroom/internal/domain/outbox"
	"github.com/marketbay/stockroom/internal/domain/quantity"
	"github.com/marketbay/stockroom/internal/infrastructure/memory"
)

type stubSubscriber struct {
	handlers map[string]domoutbox.Handler
}

func (s *stubSubscriber) Subscribe(name string, h domoutbox.Handler) {
	if s.handlers == nil {
		s.handlers = make(map[string]domoutbox.Handler)
	}
	s.handlers[name] = h
}

func pendingOrder(t *testing.T, repo *memory.OrderRepository) *domorder.Order {
	t.Helper()
	o, err := domorder.New("order-1", "customer-1", []domorder.Line{
		{ProductID: catalog.NewProductID(), Quantity: quantity.FromInt64(1, quantity.UnitEach)},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), o))
	return o
}

func TestStockReservedConfirmsOrder(t *testing.T) {
	repo := memory.NewOrderRepository()
	o := pendingOrder(t, repo)

	sub := &stubSubscriber{}
	New(sub, repo).Start()

	err := sub.handlers["stock.reserved"](context.Background(), dominv.NewStockReservedEvent(o.ID, nil))
	require.NoError(t, err)

	stored, err := repo.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusConfirmed, stored.Status)
}

func TestReservationFailedRejectsOrder(t *testing.T) {
	repo := memory.NewOrderRepository()
	o := pendingOrder(t, repo)

	sub := &stubSubscriber{}
	New(sub, repo).Start()

	evt := dominv.NewStockReservationFailedEvent(o.ID, "product-1", dominv.FailureReasonInsufficientStock)
	err := sub.handlers["stock.reservation_failed"](context.Background(), evt)
	require.NoError(t, err)

	stored, err := repo.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusRejected, stored.Status)
	assert.Equal(t, dominv.FailureReasonInsufficientStock, stored.FailureReason)
}

func TestUnknownOrderFails(t *testing.T) {
	repo := memory.NewOrderRepository()
	sub := &stubSubscriber{}
	New(sub, repo).Start()

	err := sub.handlers["stock.reserved"](context.Background(), dominv.NewStockReservedEvent("missing", nil))
	assert.ErrorIs(t, err, domorder.ErrNotFound)
}
