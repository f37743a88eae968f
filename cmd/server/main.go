package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appcart "github.com/storefront/backend/internal/application/cart"
	appcatalog "github.com/storefront/backend/internal/application/catalog"
	appidentity "github.com/storefront/backend/internal/application/identity"
	appnotification "github.com/storefront/backend/internal/application/notification"
	apporder "github.com/storefront/backend/internal/application/order"
	apppayment "github.com/storefront/backend/internal/application/payment"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/broker"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/payment"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.App.Name,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("tracer provider shutdown failed", zap.Error(err))
		}
	}()

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTracing
	if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
		return err
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	orderRepo := persistence.NewOrderRepository(db.DB)
	cartRepo := persistence.NewCartRepository(db.DB)
	productRepo := persistence.NewProductRepository(db.DB)
	categoryRepo := persistence.NewCategoryRepository(db.DB)
	userRepo := persistence.NewUserRepository(db.DB)
	outboxRepo := persistence.NewOutboxRepository(db.DB)
	deliveryRepo := persistence.NewEmailDeliveryRepository(db.DB)

	producer := broker.NewKafkaProducer(cfg.Broker.Brokers, cfg.Broker.BatchTimeout, log)
	defer producer.Close()

	jwtService := auth.NewJWTService(&cfg.JWT)
	idempotency := cache.NewRedisIdempotencyStore(redisClient)
	paymentClient := payment.NewClient(cfg.PaymentService.BaseURL, cfg.PaymentService.Timeout)

	emailService := appnotification.NewEmailService(
		event.NewOutboxSaver(outboxRepo), deliveryRepo, cfg.Messaging.CurrentVersion, log)
	processingService := apppayment.NewProcessingService(orderRepo, userRepo, emailService,
		apppayment.VersionPolicy{
			Min:     cfg.Messaging.MinSupportedVersion,
			Current: cfg.Messaging.CurrentVersion,
		}, log)

	identityService := appidentity.NewService(userRepo, jwtService, emailService, log)
	catalogService := appcatalog.NewService(productRepo, categoryRepo, log)
	cartService := appcart.NewService(cartRepo, productRepo, log)
	orderService := apporder.NewService(orderRepo, cartRepo, productRepo, producer,
		cfg.Messaging.CurrentVersion, log)

	// Inbound listeners consume the payment and email response queues.
	registry := broker.NewListenerRegistry()
	apppayment.RegisterListeners(registry, processingService, emailService, idempotency, log)
	consumer := broker.NewKafkaConsumer(cfg.Broker.Brokers, cfg.Broker.ConsumerGroup, registry, log)
	consumer.Start(ctx)
	defer consumer.Stop()

	if cfg.Outbox.Enabled {
		dispatcher := event.NewDispatcher(outboxRepo, producer, event.DefaultRoute,
			event.DispatcherConfig{
				BatchSize:        cfg.Outbox.BatchSize,
				PollInterval:     cfg.Outbox.PollInterval,
				CleanupEnabled:   cfg.Outbox.CleanupEnabled,
				CleanupRetention: cfg.Outbox.CleanupRetention,
			}, log)
		dispatcher.Start(ctx)
		defer dispatcher.Stop()
	}

	if cfg.Reconciliation.Enabled {
		reconciler := apporder.NewReconciler(orderRepo, paymentClient, processingService,
			apporder.ReconcilerConfig{
				PollInterval: cfg.Reconciliation.PollInterval,
				OrderExpiry:  cfg.Reconciliation.OrderExpiry,
				BatchSize:    cfg.Reconciliation.BatchSize,
			}, log)
		reconciler.Start(ctx)
		defer reconciler.Stop()
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.App.Name,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.RequestLogger(log),
		middleware.CORSWithConfig(middleware.DefaultCORSConfig()),
	)

	authHandler := handler.NewAuthHandler(identityService, log)
	catalogHandler := handler.NewCatalogHandler(catalogService, log)
	cartHandler := handler.NewCartHandler(cartService, log)
	orderHandler := handler.NewOrderHandler(orderService, log)

	r := router.New(engine, jwtService, log)
	r.Public(authHandler, catalogHandler)
	r.Protected(cartHandler, orderHandler,
		router.RegistrarFunc(authHandler.RegisterProtectedRoutes))
	r.Admin(router.RegistrarFunc(catalogHandler.RegisterAdminRoutes))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
