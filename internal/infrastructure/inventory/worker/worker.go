package worker

import (
	"context"

	"go.uber.org/zap"

	appInventory "github.com/marketbay/stockroom/internal/application/inventory"
	domorder "github.com/marketbay/stockroom/internal/domain/order"
	domoutbox "github.com/marketbay/stockroom/internal/domain/outbox"
	"github.com/marketbay/stockroom/internal/pkg/logging"
)

// Worker runs stock reservations for placed orders.
type Worker struct {
	subscriber domoutbox.Subscriber
	reserve    *appInventory.ReserveStockUseCase
}

func New(subscriber domoutbox.Subscriber, reserve *appInventory.ReserveStockUseCase) *Worker {
	return &Worker{
		subscriber: subscriber,
		reserve:    reserve,
	}
}

func (w *Worker) Start() {
	w.subscriber.Subscribe(domorder.OrderPlacedEvent{}.EventName(), w.handleOrderPlaced)
}

func (w *Worker) handleOrderPlaced(ctx context.Context, e domoutbox.Event) error {
	logger := logging.FromContext(ctx).With(zap.String("component", "inventory_worker"))
	evt, ok := e.(domorder.OrderPlacedEvent)
	if !ok {
		return nil
	}

	result, err := w.reserve.Execute(ctx, evt)
	if err != nil {
		fields := []zap.Field{zap.String("order_id", evt.OrderID), zap.Error(err)}
		if result != nil {
			fields = append(fields,
				zap.String("failed_product", result.FailedProduct),
				zap.String("reason", result.FailureReason),
			)
		}
		logger.Warn("stock_reservation_failed", fields...)
		return err
	}

	logger.Info("stock_reservation_succeeded",
		zap.String("order_id", evt.OrderID),
		zap.Int("lines", len(evt.Lines)),
	)
	return nil
}
