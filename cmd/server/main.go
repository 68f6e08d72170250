package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	catalogapp "github.com/stockpilot/backend/internal/application/catalog"
	ledgerapp "github.com/stockpilot/backend/internal/application/ledger"
	"github.com/stockpilot/backend/internal/application/orderflow"
	syncapp "github.com/stockpilot/backend/internal/application/sync"
	warehouseapp "github.com/stockpilot/backend/internal/application/warehouse"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/infrastructure/cache"
	"github.com/stockpilot/backend/internal/infrastructure/config"
	"github.com/stockpilot/backend/internal/infrastructure/event"
	"github.com/stockpilot/backend/internal/infrastructure/logger"
	"github.com/stockpilot/backend/internal/infrastructure/persistence"
	"github.com/stockpilot/backend/internal/infrastructure/platform"
	"github.com/stockpilot/backend/internal/interfaces/http/handler"
	"github.com/stockpilot/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := persistence.NewDatabase(&cfg.Database,
		logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level)))
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	if err := persistence.Migrate(db.DB); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	componentRepo := persistence.NewGormBundleComponentRepository(db.DB)
	warehouseRepo := persistence.NewGormWarehouseRepository(db.DB)
	stockRepo := persistence.NewGormStockRepository(db.DB)
	jobRepo := persistence.NewGormSyncJobRepository(db.DB)
	jobLogRepo := persistence.NewGormSyncJobLogRepository(db.DB)
	settingsRepo := persistence.NewGormSettingsRepository(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)

	// Event bus and idempotency store
	bus := event.NewInMemoryEventBus(log)
	if err := bus.Start(ctx); err != nil {
		log.Fatal("failed to start event bus", zap.Error(err))
	}

	var idempotencyStore shared.IdempotencyStore
	if cfg.Redis.Enabled {
		store, err := cache.NewRedisIdempotencyStore(
			fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			cfg.Redis.Password,
			cfg.Redis.DB,
		)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		idempotencyStore = store
		log.Info("using redis idempotency store")
	} else {
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
		log.Info("using in-memory idempotency store")
	}
	defer func() { _ = idempotencyStore.Close() }()

	// Platform adapters
	registry, err := platform.NewRegistryFromConfig(cfg.Platforms)
	if err != nil {
		log.Fatal("invalid platform configuration", zap.Error(err))
	}

	// Application services
	ledgerSvc := ledgerapp.NewLedgerService(scope, bus, log)
	catalogSvc := catalogapp.NewCatalogService(productRepo, bus, log)
	resolver := catalogapp.NewBundleResolver(productRepo, componentRepo)

	settingsSvc, err := orderflow.NewSettingsService(ctx, settingsRepo, log)
	if err != nil {
		log.Fatal("failed to load stock deduction settings", zap.Error(err))
	}

	orderSvc := orderflow.NewOrderStatusService(settingsSvc, catalogSvc, resolver,
		ledgerSvc, idempotencyStore, cfg.Inventory.IdempotencyTTL, log)
	transferSvc := warehouseapp.NewTransferService(scope, bus, ledgerSvc.Locks(), cfg.Inventory.MultiWarehouse, log)

	reconciler := syncapp.NewReconciler(cfg.Sync, registry, productRepo, jobRepo, jobLogRepo, bus, log)
	if err := reconciler.Start(ctx); err != nil {
		log.Fatal("failed to start sync reconciler", zap.Error(err))
	}

	// Event subscribers. Stock sync is wrapped so a movement event delivered
	// twice enqueues a push only once.
	bus.Subscribe(event.NewIdempotentHandler(
		syncapp.NewStockSyncHandler(reconciler, log),
		idempotencyStore,
		shared.DefaultIdempotencyConfig(),
		log,
	))
	bus.Subscribe(catalogapp.NewLowStockHandler(productRepo, log))

	// HTTP surface
	r := router.New(log, cfg.HTTP.MaxBodySize)
	r.Register(handler.NewStockHandler(catalogSvc, ledgerSvc))
	r.Register(handler.NewOrderHandler(orderSvc))
	r.Register(handler.NewWarehouseHandler(warehouseRepo, stockRepo, transferSvc))
	r.Register(handler.NewSettingsHandler(settingsSvc))
	r.Register(handler.NewSyncHandler(syncapp.NewJobService(jobRepo, jobLogRepo), reconciler))

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r.Setup(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("env", cfg.App.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
	if err := reconciler.Stop(shutdownCtx); err != nil {
		log.Error("reconciler shutdown failed", zap.Error(err))
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("event bus shutdown failed", zap.Error(err))
	}

	log.Info("server stopped")
}
