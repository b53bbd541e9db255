package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	inventoryapp "github.com/erp/inventory-ledger/internal/application/inventory"
	salesapp "github.com/erp/inventory-ledger/internal/application/sales"
	"github.com/erp/inventory-ledger/internal/infrastructure/config"
	"github.com/erp/inventory-ledger/internal/infrastructure/event"
	"github.com/erp/inventory-ledger/internal/infrastructure/lock"
	"github.com/erp/inventory-ledger/internal/infrastructure/logger"
	"github.com/erp/inventory-ledger/internal/infrastructure/migration"
	"github.com/erp/inventory-ledger/internal/infrastructure/persistence"
	"github.com/erp/inventory-ledger/internal/infrastructure/telemetry"
	"github.com/erp/inventory-ledger/internal/interfaces/http/handler"
	"github.com/erp/inventory-ledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("Starting inventory ledger",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("driver", cfg.Database.Driver),
		zap.String("lock_backend", cfg.Ledger.LockBackend),
	)
	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mp.Shutdown(shutdownCtx); err != nil {
			log.Warn("Meter provider shutdown failed", zap.Error(err))
		}
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("Tracer provider shutdown failed", zap.Error(err))
		}
	}()

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Database.SlowThreshold)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := migrateSchema(db, log); err != nil {
		return err
	}

	dbSystem := "postgresql"
	if db.Driver() == config.DriverSQLite {
		dbSystem = "sqlite"
	}
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem:   dbSystem,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
	}, log); err != nil {
		return err
	}

	meter := mp.Meter("inventory-ledger")
	ledgerMetrics, err := telemetry.NewLedgerMetrics(meter, log)
	if err != nil {
		return err
	}

	locker, closeLocker, err := newVariantLocker(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLocker()

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(inventoryapp.NewRestockAdvisoryHandler(log))
	if err := bus.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = bus.Stop(context.Background()) }()

	ledger := salesapp.NewSaleItemLedger(persistence.NewGormTransactionScope(db.DB), locker, log)
	ledger.SetEventPublisher(bus)
	ledger.SetLedgerMetrics(ledgerMetrics)
	for _, st := range ledger.Strategies() {
		log.Info("Ledger strategy",
			zap.Stringer("type", st.Type()),
			zap.String("name", st.Name()),
			zap.String("description", st.Description()),
		)
	}
	saleService := salesapp.NewSaleService(persistence.NewGormTransactionScope(db.DB), ledger, log)
	batchService := inventoryapp.NewBatchService(
		persistence.NewGormStockBatchRepository(db.DB),
		persistence.NewGormProductVariantRepository(db.DB),
		log,
	)
	batchService.SetEventPublisher(bus)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := router.NewEngine(router.EngineOptions{
		HTTP:           cfg.HTTP,
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: cfg.Telemetry.Enabled,
		Meter:          meter,
		RequestTimeout: cfg.HTTP.WriteTimeout,
	}, log)
	if err != nil {
		return err
	}
	handler.NewHealthHandler(db).RegisterRoutes(engine)
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.NewSaleHandler(saleService, ledger)).
		Register(handler.NewSaleItemHandler(ledger)).
		Register(handler.NewStockBatchHandler(batchService)).
		Setup()

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
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("Shutting down server...", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("Server exited gracefully", zap.Int64("events_delivered", bus.Delivered()))
	return nil
}

// migrateSchema brings the schema up to date. PostgreSQL uses the versioned
// SQL migrations; SQLite is created from the models.
func migrateSchema(db *persistence.Database, log *zap.Logger) error {
	if db.Driver() == config.DriverSQLite {
		return db.AutoMigrate()
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, log)
	if err != nil {
		return err
	}
	return m.Up()
}

// newVariantLocker picks the lock backend. Redis is required when more than
// one instance serves the same database.
func newVariantLocker(ctx context.Context, cfg *config.Config, log *zap.Logger) (salesapp.VariantLocker, func(), error) {
	if cfg.Ledger.LockBackend != config.LockBackendRedis {
		return lock.NewInMemoryVariantLocker(cfg.Ledger.LockWaitTimeout), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	locker := lock.NewRedisVariantLocker(rdb, lock.RedisLockerConfig{
		TTL:           cfg.Ledger.LockTTL,
		WaitTimeout:   cfg.Ledger.LockWaitTimeout,
		RetryInterval: cfg.Ledger.LockRetryInterval,
	}, log)
	return locker, func() {
		if err := rdb.Close(); err != nil {
			log.Warn("Error closing redis client", zap.Error(err))
		}
	}, nil
}
