package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fjod/bagshop/internal/auth"
	"github.com/fjod/bagshop/internal/cart"
	"github.com/fjod/bagshop/internal/cart/cache"
	"github.com/fjod/bagshop/internal/cart/poller"
	cartrepo "github.com/fjod/bagshop/internal/cart/repository"
	catalog "github.com/fjod/bagshop/internal/catalog/repository"
	"github.com/fjod/bagshop/internal/checkout"
	"github.com/fjod/bagshop/internal/config"
	h "github.com/fjod/bagshop/internal/http"
	"github.com/fjod/bagshop/internal/logger"
	"github.com/fjod/bagshop/internal/orders"
	"github.com/fjod/bagshop/internal/orders/publisher"
	orderrepo "github.com/fjod/bagshop/internal/orders/repository"
	"github.com/fjod/bagshop/internal/payment"
	"github.com/fjod/bagshop/internal/pricing"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer lg.Sync()
	zap.ReplaceGlobals(lg)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	policy, err := pricing.NewPolicy(cfg.DiscountRate)
	if err != nil {
		lg.Fatal("Invalid discount rate", zap.Float64("rate", cfg.DiscountRate), zap.Error(err))
	}

	ctx := context.Background()

	// Carts: MongoDB behind a Redis cache
	mongoDB, err := cartrepo.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		lg.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	cartRepo := cartrepo.NewMongoRepository(mongoDB)
	if err := cartRepo.CreateIndexes(ctx); err != nil {
		lg.Fatal("Failed to create cart indexes", zap.Error(err))
	}
	lg.Info("Connected to MongoDB", zap.String("db", cfg.MongoDBName))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		lg.Fatal("Redis connection failed", zap.Error(err))
	}
	lg.Info("Redis ping succeeded", zap.String("addr", cfg.RedisAddr))

	cartService := cart.NewService(cartRepo, cache.NewRedisCache(redisClient), lg.Named("cart"))

	// Orders and outbox: Postgres
	creds := &orderrepo.Credentials{
		Host:              cfg.Postgres.Host,
		Port:              cfg.Postgres.Port,
		User:              cfg.Postgres.User,
		Password:          cfg.Postgres.Password,
		DBName:            cfg.Postgres.DBName,
		MigrationsDirPath: cfg.Postgres.MigrationsPath,
	}
	orderRepo, err := orderrepo.NewRepository(creds)
	if err != nil {
		lg.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer orderRepo.Close()
	if err := orderRepo.RunMigrations(creds); err != nil {
		lg.Fatal("Failed to run order migrations", zap.Error(err))
	}
	lg.Info("Order migrations completed")

	// Catalog: SQLite
	catalogRepo, err := catalog.NewRepository(cfg.CatalogDBPath)
	if err != nil {
		lg.Fatal("Failed to open catalog", zap.Error(err))
	}
	defer catalogRepo.Close()
	if err := catalogRepo.RunMigrations(cfg.CatalogMigrationsPath); err != nil {
		lg.Fatal("Failed to run catalog migrations", zap.Error(err))
	}
	lg.Info("Catalog migrations completed", zap.String("path", cfg.CatalogDBPath))

	// Identity and payment
	authService := auth.NewService(
		auth.NewOTPClient(cfg.OTPBaseURL, cfg.OutboundTimeout, lg.Named("otp")),
		auth.NewSessionStore(redisClient, cfg.SessionTTL),
		lg.Named("auth"),
	)
	gateway := payment.NewClient(cfg.PaymentBaseURL, cfg.PaymentAPIKey, cfg.OutboundTimeout, lg.Named("payment"))

	orchestrator := checkout.NewOrchestrator(
		orderRepo,
		checkout.NewCartHandler(cartService, cfg.OutboundTimeout),
		checkout.NewPaymentHandler(gateway, cfg.OutboundTimeout),
		policy,
		lg.Named("checkout"),
	)
	lookup := orders.NewLookup(orderRepo, orders.NewTracker())

	// Background workers
	var wg sync.WaitGroup
	workerCtx, workerCancel := context.WithCancel(context.Background())

	outboxPoller := publisher.NewOutboxPoller(orderRepo, lg.Named("outbox"), cfg.OrdersTopic, cfg.KafkaBrokers...)
	cartPoller := poller.NewPoller(cartService, lg.Named("cart-poller"), cfg.OrdersTopic, cfg.KafkaBrokers...)

	wg.Add(2)
	go func() {
		defer wg.Done()
		outboxPoller.Run(workerCtx)
	}()
	go func() {
		defer wg.Done()
		cartPoller.Run(workerCtx)
	}()

	router := h.NewRouter(h.RouterConfig{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}, h.Handlers{
		Products: h.NewProductHandler(catalogRepo, policy, cfg.ProductListTimeout),
		Cart:     h.NewCartHandler(cartService, catalogRepo, policy, cfg.RequestTimeout),
		Checkout: h.NewCheckoutHandler(orchestrator, cfg.RequestTimeout),
		Orders:   h.NewOrdersHandler(lookup, cfg.RequestTimeout),
		Auth:     h.NewAuthHandler(authService, cfg.RequestTimeout),
		Sessions: authService,
	}, lg)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		lg.Info("Storefront starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		lg.Info("Workers stopped cleanly")
	case <-shutdownCtx.Done():
		lg.Warn("Workers didn't stop in time")
	}

	outboxPoller.Close()
	cartPoller.Close()
	if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
		lg.Warn("mongo disconnect", zap.Error(err))
	}
	lg.Info("server exited")
}
