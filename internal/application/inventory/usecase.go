package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/marketbay/stockroom/internal/domain/catalog"
	dominv "github.com/marketbay/stockroom/internal/domain/inventory"
	domorder "github.com/marketbay/stockroom/internal/domain/order"
	domoutbox "github.com/marketbay/stockroom/internal/domain/outbox"
	"github.com/marketbay/stockroom/internal/domain/quantity"
	"github.com/marketbay/stockroom/internal/observability"
	"github.com/marketbay/stockroom/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	inventoryService = "inventory-service"
	useCaseReserve   = "stock.reserve"
	reserveSpanName  = "OnOrderPlaced"
	spanPrefix       = "UC."
	publishPeer      = "outbox"
	publishTimeout   = 300 * time.Millisecond
)

// ReservationResult exposes the outcome of a reservation attempt.
type ReservationResult struct {
	Reserved      bool
	FailedProduct string
	FailureReason string
}

// ReserveStockUseCase reacts to placed orders: it aggregates per-product demand,
// deducts every product's stock and rolls the deductions back if any product cannot
// be covered, then reports the outcome on the bus.
type ReserveStockUseCase struct {
	repo      dominv.Repository
	publisher domoutbox.Publisher

	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter
	durHistogram observability.Histogram
	extCounter   observability.Counter
	extHistogram observability.Histogram
}

func NewReserveStockUseCase(repo dominv.Repository, publisher domoutbox.Publisher, tel observability.Observability) *ReserveStockUseCase {
	baseLog := observability.NopLogger()
	tracer := observability.NopTracer()
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		baseLog = tel.Logger()
		tracer = tel.Tracer()
		metricsProvider = tel.Metrics()
	}
	baseLog = baseLog.With(observability.F("service", inventoryService))

	return &ReserveStockUseCase{
		repo:         repo,
		publisher:    publisher,
		log:          baseLog,
		tracer:       tracer,
		reqCounter:   metricsProvider.Counter(observability.MUsecaseRequests),
		durHistogram: metricsProvider.Histogram(observability.MUsecaseDuration),
		extCounter:   metricsProvider.Counter(observability.MExternalRequests),
		extHistogram: metricsProvider.Histogram(observability.MExternalRequestDuration),
	}
}

// Execute performs the reservation flow for one placed order.
func (uc *ReserveStockUseCase) Execute(ctx context.Context, e domorder.OrderPlacedEvent) (_ *ReservationResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseReserve),
		observability.F("order_id", e.OrderID),
		observability.F("lines", len(e.Lines)),
	)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+reserveSpanName,
		attribute.String("use_case", useCaseReserve),
		attribute.String("order.id", e.OrderID),
		attribute.Int("order.lines", len(e.Lines)),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	result := &ReservationResult{Reserved: true}

	defer func() {
		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		latency := time.Since(start).Seconds()
		if uc.reqCounter != nil {
			uc.reqCounter.Add(1,
				observability.L("use_case", useCaseReserve),
				observability.L("outcome", outcome),
			)
		}
		if uc.durHistogram != nil {
			uc.durHistogram.Observe(latency,
				observability.L("use_case", useCaseReserve),
			)
		}

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", latency),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if result.FailureReason != "" {
			fields = append(fields,
				observability.F("failure_reason", result.FailureReason),
				observability.F("failed_product", result.FailedProduct),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}

		logger.Info("use_case_done", fields...)
	}()

	demand, err := domorder.AggregateDemand(e.OrderLines())
	if err != nil {
		outcome, statusText = "error", "BAD_DEMAND"
		result.Reserved = false
		result.FailureReason = dominv.FailureReasonUnitMismatch
		uc.publishFailure(ctx, e.OrderID, "", result.FailureReason)
		return result, fmt.Errorf("inventory: aggregate demand: %w", err)
	}

	// Deduct in a fixed product order so failures and rollbacks are deterministic.
	products := make([]catalog.ProductID, 0, len(demand))
	for productID := range demand {
		products = append(products, productID)
	}
	sort.Slice(products, func(i, j int) bool { return products[i] < products[j] })

	deducted := make([]catalog.ProductID, 0, len(products))
	for _, productID := range products {
		if _, deductErr := uc.repo.Deduct(ctx, productID, demand[productID]); deductErr != nil {
			uc.rollback(ctx, logger, deducted, demand)

			outcome, statusText = "error", "RESERVE_FAILED"
			result.Reserved = false
			result.FailedProduct = productID.String()
			result.FailureReason = failureReasonFromError(deductErr)
			uc.publishFailure(ctx, e.OrderID, productID.String(), result.FailureReason)
			return result, fmt.Errorf("inventory: deduct %s: %w", productID, deductErr)
		}
		deducted = append(deducted, productID)
	}

	if span != nil {
		span.AddEvent("stock.reserved",
			trace.WithAttributes(
				attribute.String("order.id", e.OrderID),
				attribute.Int("order.products", len(products)),
			),
		)
	}

	lines := make([]dominv.LineResult, 0, len(products))
	for _, productID := range products {
		lines = append(lines, dominv.LineResult{
			ProductID: productID.String(),
			Quantity:  demand[productID].String(),
		})
	}
	if publishErr := uc.publish(ctx, dominv.StockReservedEvent{}.EventName(), dominv.NewStockReservedEvent(e.OrderID, lines)); publishErr != nil {
		outcome, statusText = "error", "EVENT_PUBLISH_FAILED"
		return result, fmt.Errorf("inventory: publish reserved: %w", publishErr)
	}

	return result, nil
}

// rollback re-increases every product already deducted for this order. Failures are
// logged, not returned: the reservation error stays the primary outcome.
func (uc *ReserveStockUseCase) rollback(ctx context.Context, logger observability.Logger, deducted []catalog.ProductID, demand map[catalog.ProductID]quantity.Quantity) {
	for _, productID := range deducted {
		if _, err := uc.repo.Increase(ctx, productID, demand[productID]); err != nil {
			logger.Error("stock_rollback_failed",
				observability.F("product_id", productID.String()),
				observability.F("error", err.Error()),
			)
		}
	}
}

func (uc *ReserveStockUseCase) publishFailure(ctx context.Context, orderID, productID, reason string) {
	evt := dominv.NewStockReservationFailedEvent(orderID, productID, reason)
	if err := uc.publish(ctx, evt.EventName(), evt); err != nil {
		logctx.FromOr(ctx, uc.log).Warn("failure_event_publish_failed",
			observability.F("order_id", orderID),
			observability.F("error", err.Error()),
		)
	}
}

func (uc *ReserveStockUseCase) publish(ctx context.Context, endpoint string, event domoutbox.Event) error {
	if uc.publisher == nil || event == nil {
		return nil
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	start := time.Now()
	err := uc.publisher.Publish(pubCtx, event)
	outcome := "success"
	if err != nil {
		outcome = "error"
	} else if pubCtx.Err() != nil {
		outcome = "canceled"
		err = pubCtx.Err()
	}
	cancel()

	if uc.extCounter != nil {
		uc.extCounter.Add(1,
			observability.L("peer", publishPeer),
			observability.L("endpoint", endpoint),
			observability.L("outcome", outcome),
		)
	}
	if uc.extHistogram != nil {
		uc.extHistogram.Observe(time.Since(start).Seconds(),
			observability.L("peer", publishPeer),
			observability.L("endpoint", endpoint),
		)
	}

	return err
}

func failureReasonFromError(err error) string {
	switch {
	case errors.Is(err, dominv.ErrNotFound):
		return dominv.FailureReasonNotTracked
	case errors.Is(err, dominv.ErrInsufficientStock):
		return dominv.FailureReasonInsufficientStock
	case errors.Is(err, quantity.ErrUnitMismatch):
		return dominv.FailureReasonUnitMismatch
	default:
		return dominv.FailureReasonPersistenceError
	}
}
