package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pos-order-api/config"
	"pos-order-api/internal/api"
	"pos-order-api/internal/broker"
	"pos-order-api/internal/redisclient"
	"pos-order-api/internal/service"
	"pos-order-api/internal/store"
	"pos-order-api/internal/store/memstore"
	"pos-order-api/internal/util"
	"pos-order-api/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting POS order API")

	tp, err := util.InitTracer(util.ServiceName, cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	repo, ready, closeStore := openStore(cfg, logger)
	defer closeStore()

	var (
		cache service.ProductCache
		bus   service.Bus
	)
	if cfg.Redis.Enabled {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.ProductCacheTTL)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		cache, bus = redisClient, redisClient
		logger.Info("Redis connected", zap.String("addr", cfg.Redis.Addr))
	} else {
		logger.Warn("Redis disabled, product cache and bus notifications disabled")
	}

	var publisher service.EventPublisher
	kafkaEnabled := cfg.Kafka.Enabled
	if kafkaEnabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrderEvents)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicOrderEvents))
	} else {
		logger.Warn("Kafka disabled, order events and user events disabled")
	}

	resolver := service.NewResolver(repo, cache, cfg.Business.AdminLogin)
	strategies := service.DefaultStrategies(repo, bus, cfg.Business.AdminLogin)
	orderService := service.NewOrderService(
		repo,
		resolver,
		service.NewPersister(repo),
		service.NewNotifier(strategies...),
		publisher,
		cfg.Business.DefaultPosName,
	)
	catalog := service.NewCatalogService(repo, resolver)
	diagnostics := service.NewDiagnostics(repo, service.NewBroadcastStrategy(repo, bus))
	restorer := service.NewPermissionRestorer(repo, cfg.Business.AdminLogin)

	if cfg.Business.PermissionRestoreOnStart {
		if _, err := restorer.Restore(context.Background()); err != nil {
			logger.Error("Startup permission restore failed", zap.Error(err))
		}
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	permissionWorker := worker.NewPermissionWorker(restorer, cfg.Business.PermissionRestoreInterval)
	go func() {
		if err := permissionWorker.Start(workerCtx); err != nil && err != context.Canceled {
			logger.Error("Permission worker error", zap.Error(err))
		}
	}()

	var userWorker *worker.UserWorker
	if kafkaEnabled {
		userConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicUserEvents, cfg.Kafka.ConsumerGroup)
		userWorker = worker.NewUserWorker(userConsumer, restorer)
		go func() {
			if err := userWorker.Start(workerCtx); err != nil && err != context.Canceled {
				logger.Error("User worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(orderService, catalog, diagnostics, ready)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if userWorker != nil {
		userWorker.Stop()
	}

	logger.Info("Server exited")
}

// openStore returns the repository selected by STORE_DRIVER, a readiness
// probe and a close function
func openStore(cfg *config.Config, logger *zap.Logger) (store.Repository, func() error, func()) {
	if cfg.Database.Driver == "memory" {
		logger.Warn("Using in-memory store, data is lost on restart")
		return memstore.New(), nil, func() {}
	}

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	logger.Info("Database connected")

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(context.Background()); err != nil {
			logger.Fatal("Failed to apply schema", zap.Error(err))
		}
		logger.Info("Database schema applied")
	}

	ready := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return db.Ping(ctx)
	}
	return db, ready, func() { db.Close() }
}
