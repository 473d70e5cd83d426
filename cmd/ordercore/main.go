package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/shopdash/ordercore/internal/cart"
	"github.com/shopdash/ordercore/internal/catalog"
	"github.com/shopdash/ordercore/internal/checkout"
	"github.com/shopdash/ordercore/internal/config"
	"github.com/shopdash/ordercore/internal/deals"
	h "github.com/shopdash/ordercore/internal/http"
	"github.com/shopdash/ordercore/internal/inventory"
	"github.com/shopdash/ordercore/internal/logger"
	"github.com/shopdash/ordercore/internal/orders"
	"github.com/shopdash/ordercore/internal/outbox"
	"github.com/shopdash/ordercore/internal/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck
	zap.ReplaceGlobals(zl)

	if err := run(cfg, zl); err != nil {
		zl.Fatal("ordercore stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("ordercore starting...")
	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	// Postgres: stock, deals, orders, outbox
	db, err := postgres.Open(startCtx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db, cfg.Postgres.MigrationsDirPath); err != nil {
		return err
	}
	log.Info("database migrations completed")

	// MongoDB: carts
	mongoDB, err := cart.ConnectMongoDB(startCtx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return fmt.Errorf("connect to mongodb: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoDB.Client().Disconnect(ctx); err != nil {
			log.Warn("mongodb disconnect failed", zap.Error(err))
		}
	}()

	cartRepo := cart.NewMongoRepository(mongoDB)
	if err := cartRepo.EnsureIndexes(startCtx); err != nil {
		return fmt.Errorf("create cart indexes: %w", err)
	}

	// Redis: cart cache and optional deal counters
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(startCtx).Err(); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}

	carts := cart.NewService(cartRepo, cart.NewRedisCache(rdb, cfg.CartCacheTTL), log.Named("cart"))
	products := catalog.NewBreakerCatalog(catalog.NewPostgresCatalog(db), catalog.DefaultBreakerSettings(), log.Named("catalog"))
	ledger := inventory.NewPostgresStore(db)
	orderRepo := orders.NewPostgresRepository(db)
	events := outbox.NewPostgresStore(db)
	tx := postgres.NewTxRunner(db)

	var counter deals.Counter
	switch cfg.DealsBackend {
	case "redis":
		counter = deals.NewRedisCounter(rdb, products)
	default:
		counter = deals.NewPostgresCounter(db)
	}

	checkoutService := checkout.NewService(checkout.Deps{
		Carts:    carts,
		Catalog:  products,
		Ledger:   ledger,
		Deals:    counter,
		Orders:   orderRepo,
		Events:   events,
		Tx:       tx,
		Log:      log.Named("checkout"),
		Currency: cfg.Currency,
	})
	orderService := orders.NewService(orders.Deps{
		Repo:            orderRepo,
		Ledger:          ledger,
		Events:          events,
		Tx:              tx,
		Log:             log.Named("orders"),
		BulkConcurrency: cfg.BulkUpdateConcurrency,
	})

	var wg sync.WaitGroup
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	publisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	if publisher != nil {
		defer publisher.Close()
		poller := outbox.NewPoller(events, publisher, cfg.OutboxInterval, log.Named("outbox"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(workerCtx)
		}()
	}

	// HTTP API
	router := h.NewRouter(
		h.NewCheckoutHandler(checkoutService, cfg.RequestTimeout, log.Named("http")),
		h.NewOrdersHandler(orderService, cfg.RequestTimeout, log.Named("http")),
		cfg.RequestTimeout,
		log.Named("http"),
	)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "ordercore"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// gRPC health
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen on grpc port: %w", err)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	serveErr := make(chan error, 2)
	go func() {
		log.Info("http server listening", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		log.Info("grpc health server listening", zap.String("port", cfg.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			serveErr <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case runErr = <-serveErr:
		log.Error("server failed, shutting down", zap.Error(runErr))
	}

	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server forced to shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	stopWorkers()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Info("outbox poller stopped cleanly")
	case <-shutdownCtx.Done():
		log.Warn("outbox poller didn't stop in time")
	}

	log.Info("ordercore stopped")
	return runErr
}

func newPublisher(cfg *config.Config) (outbox.Publisher, error) {
	switch cfg.EventBroker {
	case "kafka":
		return outbox.NewKafkaPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...), nil
	case "rabbitmq":
		p, err := outbox.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			return nil, fmt.Errorf("connect to rabbitmq: %w", err)
		}
		return p, nil
	default:
		return nil, nil
	}
}
