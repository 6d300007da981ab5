package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/marketbay/stockroom/internal/domain/order"
	domoutbox "github.com/marketbay/stockroom/internal/domain/outbox"
	"github.com/marketbay/stockroom/internal/observability"
	"github.com/marketbay/stockroom/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	orderService      = "order-service"
	useCaseOrderPlace = "order.place"
	spanPrefix        = "UC."
	publishPeer       = "outbox"
	publishEndpoint   = "order.placed"
	publishTimeout    = 300 * time.Millisecond
)

var (
	ErrNotFound   = domain.ErrNotFound
	ErrRepository = errors.New("order: repository failure")
)

// PlaceOrderUseCase stores a new order and announces it on the bus; stock
// reservation happens asynchronously in the inventory worker.
type PlaceOrderUseCase struct {
	repo        domain.Repository
	idGenerator IDGenerator
	publisher   domoutbox.Publisher

	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter
	durHistogram observability.Histogram
	extCounter   observability.Counter
	extHistogram observability.Histogram
}

func NewPlaceOrderUseCase(
	repo domain.Repository,
	idGen IDGenerator,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *PlaceOrderUseCase {
	baseLog := observability.NopLogger()
	tracer := observability.NopTracer()
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		baseLog = tel.Logger()
		tracer = tel.Tracer()
		metricsProvider = tel.Metrics()
	}
	baseLog = baseLog.With(observability.F("service", orderService))

	return &PlaceOrderUseCase{
		repo:         repo,
		idGenerator:  idGen,
		publisher:    publisher,
		log:          baseLog,
		tracer:       tracer,
		reqCounter:   metricsProvider.Counter(observability.MUsecaseRequests),
		durHistogram: metricsProvider.Histogram(observability.MUsecaseDuration),
		extCounter:   metricsProvider.Counter(observability.MExternalRequests),
		extHistogram: metricsProvider.Histogram(observability.MExternalRequestDuration),
	}
}

type PlaceOrderInput struct {
	CustomerID string
	Lines      []domain.Line
}

type PlaceOrderResult struct {
	OrderID string
	Status  domain.Status
}

// Execute performs the order placement flow.
func (uc *PlaceOrderUseCase) Execute(ctx context.Context, cmd PlaceOrderInput) (_ *PlaceOrderResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseOrderPlace),
		observability.F("customer_id", cmd.CustomerID),
		observability.F("lines", len(cmd.Lines)),
	)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"PlaceOrder",
		attribute.String("use_case", useCaseOrderPlace),
		attribute.String("order.customer_id", cmd.CustomerID),
		attribute.Int("order.lines", len(cmd.Lines)),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	var orderID string
	var publishErr error

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
				observability.L("use_case", useCaseOrderPlace),
				observability.L("outcome", outcome),
			)
		}
		if uc.durHistogram != nil {
			uc.durHistogram.Observe(latency,
				observability.L("use_case", useCaseOrderPlace),
			)
		}

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", latency),
			observability.F("order_id", orderID),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if publishErr != nil {
			fields = append(fields, observability.F("publish_error", publishErr.Error()))
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}

		logger.Info("use_case_done", fields...)
	}()

	o, err := domain.New(uc.idGenerator.NewID(), cmd.CustomerID, cmd.Lines)
	if err != nil {
		outcome, statusText = "error", "INVALID_ORDER"
		return nil, err
	}
	orderID = o.ID

	if err = uc.repo.Save(ctx, o); err != nil {
		outcome, statusText = "error", "SAVE_FAILED"
		return nil, fmt.Errorf("%w: %v", ErrRepository, err)
	}

	if span != nil {
		span.AddEvent("order.placed",
			trace.WithAttributes(attribute.String("order.id", o.ID)),
		)
	}

	publishErr = uc.publish(ctx, domain.NewOrderPlacedEvent(o))
	if publishErr != nil {
		outcome, statusText = "error", "EVENT_PUBLISH_FAILED"
		return nil, fmt.Errorf("order: publish placed: %w", publishErr)
	}

	return &PlaceOrderResult{OrderID: o.ID, Status: o.Status}, nil
}

func (uc *PlaceOrderUseCase) publish(ctx context.Context, event domoutbox.Event) error {
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
			observability.L("endpoint", publishEndpoint),
			observability.L("outcome", outcome),
		)
	}
	if uc.extHistogram != nil {
		uc.extHistogram.Observe(time.Since(start).Seconds(),
			observability.L("peer", publishPeer),
			observability.L("endpoint", publishEndpoint),
		)
	}

	return err
}
