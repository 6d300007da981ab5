package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	dominv "github.com/marketbay/stockroom/internal/domain/inventory"
	domorder "github.com/marketbay/stockroom/internal/domain/order"
	domoutbox "github.com/marketbay/stockroom/internal/domain/outbox"
	"github.com/marketbay/stockroom/internal/pkg/logging"
)

// Worker closes the order lifecycle on the reservation outcome: reserved orders are
// confirmed, failed ones rejected with the failure reason.
type Worker struct {
	subscriber domoutbox.Subscriber
	repo       domorder.Repository
}

func New(subscriber domoutbox.Subscriber, repo domorder.Repository) *Worker {
	return &Worker{
		subscriber: subscriber,
		repo:       repo,
	}
}

func (w *Worker) Start() {
	w.subscriber.Subscribe(dominv.StockReservedEvent{}.EventName(), w.handleStockReserved)
	w.subscriber.Subscribe(dominv.StockReservationFailedEvent{}.EventName(), w.handleReservationFailed)
}

func (w *Worker) handleStockReserved(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(dominv.StockReservedEvent)
	if !ok {
		return nil
	}
	return w.transition(ctx, evt.OrderID, func(o *domorder.Order) error {
		return o.Confirm()
	})
}

func (w *Worker) handleReservationFailed(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(dominv.StockReservationFailedEvent)
	if !ok {
		return nil
	}
	return w.transition(ctx, evt.OrderID, func(o *domorder.Order) error {
		return o.Reject(evt.Reason)
	})
}

func (w *Worker) transition(ctx context.Context, orderID string, apply func(*domorder.Order) error) error {
	logger := logging.FromContext(ctx).With(
		zap.String("component", "order_worker"),
		zap.String("order_id", orderID),
	)

	o, err := w.repo.FindByID(ctx, orderID)
	if err != nil {
		logger.Warn("order_lookup_failed", zap.Error(err))
		return fmt.Errorf("order worker: find %s: %w", orderID, err)
	}

	if err := apply(o); err != nil {
		logger.Warn("order_transition_rejected", zap.Error(err))
		return fmt.Errorf("order worker: transition %s: %w", orderID, err)
	}

	if err := w.repo.Update(ctx, o); err != nil {
		logger.Warn("order_update_failed", zap.Error(err))
		return fmt.Errorf("order worker: update %s: %w", orderID, err)
	}

	logger.Info("order_status_updated", zap.String("status", string(o.Status)))
	return nil
}
