package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appInventory "github.com/marketbay/stockroom/internal/application/inventory"
	appOrder "github.com/marketbay/stockroom/internal/application/order"
	dominv "github.com/marketbay/stockroom/internal/domain/inventory"
	"github.com/marketbay/stockroom/internal/infrastructure/gormstock"
	"github.com/marketbay/stockroom/internal/infrastructure/id"
	inventoryworker "github.com/marketbay/stockroom/internal/infrastructure/inventory/worker"
	"github.com/marketbay/stockroom/internal/infrastructure/memory"
	infraobs "github.com/marketbay/stockroom/internal/infrastructure/observability"
	"github.com/marketbay/stockroom/internal/infrastructure/observability/oteltrace"
	"github.com/marketbay/stockroom/internal/infrastructure/observability/prometrics"
	"github.com/marketbay/stockroom/internal/infrastructure/observability/zaplogger"
	orderworker "github.com/marketbay/stockroom/internal/infrastructure/order/worker"
	"github.com/marketbay/stockroom/internal/infrastructure/outbox"
	"github.com/marketbay/stockroom/internal/infrastructure/redisstock"
	"github.com/marketbay/stockroom/internal/observability"
	"github.com/marketbay/stockroom/internal/pkg/logging"
	httppresentation "github.com/marketbay/stockroom/internal/presentation/http"
)

func main() {
	serviceName := getenvDefault("SERVICE_NAME", "stockroom")
	env := getenvDefault("ENV", "dev")
	addr := getenvDefault("ADDR", ":8080")

	baseLogger := logging.MustNewLogger(serviceName, env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)

	obsLogger := zaplogger.New(
		observability.F("service", serviceName),
		observability.F("env", env),
	)

	registry := prometrics.New(serviceName, "")
	counters := map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: registry.Counter(
			string(observability.MUsecaseRequests),
			"Total number of use case invocations.",
			"use_case", "outcome",
		),
		observability.MExternalRequests: registry.Counter(
			string(observability.MExternalRequests),
			"Total number of calls to external collaborators.",
			"peer", "endpoint", "outcome",
		),
		observability.MHTTPRequests: registry.Counter(
			string(observability.MHTTPRequests),
			"Total number of HTTP requests.",
			"method", "route", "status",
		),
	}
	histograms := map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: registry.Histogram(
			string(observability.MUsecaseDuration),
			"Duration of use case execution in seconds.",
			prometheus.DefBuckets,
			"use_case",
		),
		observability.MExternalRequestDuration: registry.Histogram(
			string(observability.MExternalRequestDuration),
			"Duration of external calls in seconds.",
			prometheus.DefBuckets,
			"peer", "endpoint",
		),
		observability.MHTTPRequestDuration: registry.Histogram(
			string(observability.MHTTPRequestDuration),
			"Duration of HTTP requests in seconds.",
			prometheus.DefBuckets,
			"method", "route", "status",
		),
	}

	tel := infraobs.New(oteltrace.New(serviceName), obsLogger, counters, histograms)

	invRepo := buildStockRepository(systemLogger)
	orderRepo := memory.NewOrderRepository()
	idGenerator := id.NewUUIDGenerator()

	bus := outbox.NewBus(obsLogger, tel)

	reserveUC := appInventory.NewReserveStockUseCase(invRepo, bus, tel)
	inventorySvc := appInventory.NewService(invRepo, idGenerator)
	placeOrderUC := appOrder.NewPlaceOrderUseCase(orderRepo, idGenerator, bus, tel)
	orderSvc := appOrder.NewService(placeOrderUC, orderRepo)

	inventoryworker.New(bus, reserveUC).Start()
	orderworker.New(bus, orderRepo).Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = logging.ContextWithLogger(ctx, systemLogger)
	bus.Start(ctx)
	defer bus.Stop(ctx)

	handler := httppresentation.NewHandler(orderSvc, inventorySvc, obsLogger, tel)
	mux := http.NewServeMux()
	mux.Handle("/", handler.Router())
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		systemLogger.Info("http_server_listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	systemLogger.Info("shutdown_started")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Warn("http_server_shutdown_failed", zap.Error(err))
	}
	systemLogger.Info("shutdown_complete")
}

// buildStockRepository selects the stock backend: in-memory by default, Redis when
// REDIS_ADDR is set, MySQL when MYSQL_DSN is set.
func buildStockRepository(logger *zap.Logger) dominv.Repository {
	if dsn := os.Getenv("MYSQL_DSN"); dsn != "" {
		repo, err := gormstock.Open(dsn)
		if err != nil {
			logger.Fatal("mysql_stock_store_unavailable", zap.Error(err))
		}
		logger.Info("stock_store_selected", zap.String("backend", "mysql"))
		return repo
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		logger.Info("stock_store_selected", zap.String("backend", "redis"))
		return redisstock.New(client)
	}
	logger.Info("stock_store_selected", zap.String("backend", "memory"))
	return memory.NewInventoryRepository()
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
