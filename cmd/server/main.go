package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	inventoryapp "github.com/stockplan/backend/internal/application/inventory"
	planningapp "github.com/stockplan/backend/internal/application/planning"
	"github.com/stockplan/backend/internal/domain/inventory"
	"github.com/stockplan/backend/internal/infrastructure/cache"
	"github.com/stockplan/backend/internal/infrastructure/config"
	"github.com/stockplan/backend/internal/infrastructure/event"
	"github.com/stockplan/backend/internal/infrastructure/logger"
	"github.com/stockplan/backend/internal/infrastructure/persistence"
	"github.com/stockplan/backend/internal/infrastructure/scheduler"
	"github.com/stockplan/backend/internal/interfaces/http/handler"
	"github.com/stockplan/backend/internal/interfaces/http/middleware"
	"github.com/stockplan/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log := logger.New(cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting StockPlan Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}

	// Initialize repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	batchRepo := persistence.NewGormBatchRepository(db.DB)
	movementRepo := persistence.NewGormMovementRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Forecast cache: Redis when configured, in-process otherwise
	var forecastCache planningapp.ForecastCache
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		forecastCache = cache.NewRedisForecastCache(redisClient,
			cache.WithForecastTTL(cfg.Planning.ForecastCacheTTL),
			cache.WithForecastCacheLogger(log),
		)
		log.Info("Redis forecast cache enabled",
			zap.String("addr", cfg.Redis.Addr()),
			zap.Duration("ttl", cfg.Planning.ForecastCacheTTL),
		)
	} else {
		forecastCache = cache.NewInMemoryForecastCache(cfg.Planning.ForecastCacheTTL)
	}

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)

	lowStockHandler := planningapp.NewLowStockHandler(log).
		WithNotifier(planningapp.NewLoggingReplenishmentNotifier(log))
	eventBus.Subscribe(lowStockHandler)
	log.Info("Event handlers registered",
		zap.Strings("low_stock_events", lowStockHandler.EventTypes()),
	)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Ledger configuration: which movement types may drive stock negative
	backorderTypes := make([]inventory.MovementType, 0, len(cfg.Inventory.BackorderTypes))
	for _, t := range cfg.Inventory.BackorderTypes {
		backorderTypes = append(backorderTypes, inventory.MovementType(t))
	}
	ledger := inventory.NewStockLedger(inventory.LedgerConfig{BackorderTypes: backorderTypes})

	// Initialize application services
	ledgerService := inventoryapp.NewLedgerService(productRepo, movementRepo, ledger, txScope)
	ledgerService.SetEventPublisher(eventBus)

	allocationService := inventoryapp.NewAllocationService(
		productRepo, batchRepo, inventory.NewBatchAllocator(), ledger, txScope, log,
	)
	allocationService.SetEventPublisher(eventBus)

	planningService := planningapp.NewPlanningService(productRepo, movementRepo, log)
	planningService.SetForecastCache(forecastCache)
	planningService.SetEventPublisher(eventBus)

	// Every ledger adjustment invalidates cached forecasts and re-checks
	// the reorder point
	stockAdjustedHandler := planningapp.NewStockAdjustedHandler(planningService, log)
	eventBus.Subscribe(stockAdjustedHandler)
	log.Info("Event handlers registered",
		zap.Strings("stock_adjusted_events", stockAdjustedHandler.EventTypes()),
	)

	// Periodic low-stock sweep over all products
	if cfg.Scheduler.SweepEnabled {
		sweeper := scheduler.NewLowStockSweeper(scheduler.SweeperConfig{
			Interval: cfg.Scheduler.SweepInterval,
		}, planningService, log)
		if err := sweeper.Start(context.Background()); err != nil {
			log.Fatal("Failed to start low-stock sweeper", zap.Error(err))
		}
		defer func() {
			if err := sweeper.Stop(context.Background()); err != nil {
				log.Error("Error stopping low-stock sweeper", zap.Error(err))
			}
		}()
		log.Info("Low-stock sweeper started",
			zap.Duration("interval", cfg.Scheduler.SweepInterval),
		)
	}

	// Initialize HTTP handlers
	inventoryHandler := handler.NewInventoryHandler(ledgerService, allocationService)
	planningHandler := handler.NewPlanningHandler(planningService, cfg.Planning.DefaultForecastHorizon)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	router.NewRouter(engine).
		Register(inventoryHandler).
		Register(planningHandler).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
