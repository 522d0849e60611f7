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
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	billingapp "github.com/wms/backend/internal/application/billing"
	fulfillmentapp "github.com/wms/backend/internal/application/fulfillment"
	inventoryapp "github.com/wms/backend/internal/application/inventory"
	"github.com/wms/backend/internal/infrastructure/auth"
	"github.com/wms/backend/internal/infrastructure/config"
	"github.com/wms/backend/internal/infrastructure/event"
	"github.com/wms/backend/internal/infrastructure/logger"
	"github.com/wms/backend/internal/infrastructure/notification"
	"github.com/wms/backend/internal/infrastructure/numbering"
	"github.com/wms/backend/internal/infrastructure/persistence"
	"github.com/wms/backend/internal/infrastructure/telemetry"
	"github.com/wms/backend/internal/interfaces/http/handler"
	"github.com/wms/backend/internal/interfaces/http/middleware"
	"github.com/wms/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting fulfillment backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Register database query tracing
	if cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        "postgresql",
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}

	// Shared Redis client for document numbering and warehouse notifications
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing Redis client", zap.Error(err))
		}
	}()

	// Initialize repositories
	stockUnitRepo := persistence.NewGormStockUnitRepository(db.DB)
	consumptionRepo := persistence.NewGormConsumptionRecordRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	priceListRepo := persistence.NewGormPriceListRepository(db.DB)

	// Transaction scope shared by all pipeline services
	scope := persistence.NewGormTransactionScope(db.DB)

	// Initialize event bus with the audit trail handler
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewActivityLogHandler(log))
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Document numbering: Redis counters when configured, in-process otherwise
	var numberer fulfillmentapp.DocumentNumberer
	if cfg.Warehouse.NumberingRedis {
		numberer = numbering.NewRedisDocumentNumbererWithClient(redisClient, "")
		log.Info("Document numbering backed by Redis")
	} else {
		numberer = numbering.NewMemoryDocumentNumberer()
	}

	// Initialize application services
	ledgerService := inventoryapp.NewLedgerService(scope, stockUnitRepo, consumptionRepo, log)
	allocationService := inventoryapp.NewAllocationService(scope, log)
	orderService := fulfillmentapp.NewOrderService(scope, orderRepo, numberer, log)
	pickingService := fulfillmentapp.NewPickingService(scope, allocationService, numberer, log)
	shippingService := fulfillmentapp.NewShippingService(scope, numberer, log)
	invoicingService := billingapp.NewInvoicingService(scope, numberer, log)
	priceListService := billingapp.NewPriceListService(priceListRepo, log)

	// Inject event bus into services that publish pipeline events
	ledgerService.SetEventPublisher(eventBus)
	allocationService.SetEventPublisher(eventBus)
	orderService.SetEventPublisher(eventBus)
	pickingService.SetEventPublisher(eventBus)
	shippingService.SetEventPublisher(eventBus)
	invoicingService.SetEventPublisher(eventBus)

	// Price list resolves lines the intake request leaves unpriced
	orderService.SetPricingService(priceListService)

	// Announce released external pick requests over Redis Pub/Sub
	notifierOpts := []notification.RedisReleaseNotifierOption{
		notification.WithReleaseLogger(log),
	}
	if cfg.Warehouse.ReleaseChannel != "" {
		notifierOpts = append(notifierOpts, notification.WithReleaseChannel(cfg.Warehouse.ReleaseChannel))
	}
	pickingService.SetReleaseNotifier(notification.NewRedisReleaseNotifier(redisClient, notifierOpts...))

	// JWT verification
	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize HTTP handlers
	inventoryHandler := handler.NewInventoryHandler(ledgerService, allocationService)
	orderHandler := handler.NewOrderHandler(orderService)
	pickingHandler := handler.NewPickingHandler(pickingService)
	shippingHandler := handler.NewShippingHandler(shippingService)
	invoicingHandler := handler.NewInvoicingHandler(invoicingService)
	pricingHandler := handler.NewPricingHandler(priceListService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request ID first so every later layer can log it
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	if cfg.Telemetry.Enabled {
		engine.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoints (outside API versioning and authentication)
	engine.GET("/health", healthHandler(db))
	engine.GET("/ready", readyHandler(db, redisClient))

	// API routes require a valid access token
	r := router.New(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		Logger:     log,
	}))

	// Role guards; reads need only a valid token
	controller := middleware.RequireRole("inventory-controller")
	orderDesk := middleware.RequireRole("order-desk")
	picker := middleware.RequireRole("picker")
	shippingClerk := middleware.RequireRole("shipping-clerk")
	billingClerk := middleware.RequireRole("billing")

	// Inventory ledger and FEFO allocation
	inventoryRoutes := router.NewDomainGroup("inventory", "/inventory")
	inventoryRoutes.POST("/stock-units", controller, inventoryHandler.RegisterStockUnit)
	inventoryRoutes.GET("/stock-units/:id", inventoryHandler.GetStockUnit)
	inventoryRoutes.POST("/stock-units/:id/quarantine", controller, inventoryHandler.Quarantine)
	inventoryRoutes.POST("/stock-units/:id/release-quarantine", controller, inventoryHandler.ReleaseQuarantine)
	inventoryRoutes.GET("/products/:id/availability", inventoryHandler.Availability)
	inventoryRoutes.GET("/products/:id/ledger", inventoryHandler.History)
	inventoryRoutes.GET("/ledger/by-request/:id", inventoryHandler.HistoryByRequest)
	inventoryRoutes.POST("/reservations", controller, inventoryHandler.Reserve)
	inventoryRoutes.POST("/ledger/:id/release", controller, inventoryHandler.Release)
	inventoryRoutes.POST("/allocations/preview", inventoryHandler.PreviewAllocation)
	inventoryRoutes.POST("/allocations", controller, inventoryHandler.Allocate)
	inventoryRoutes.POST("/allocations/by-request/:id/release", controller, inventoryHandler.ReleaseAllocation)

	// Order intake and fulfillment rollup
	orderRoutes := router.NewDomainGroup("orders", "/orders")
	orderRoutes.POST("", orderDesk, orderHandler.Create)
	orderRoutes.GET("", orderHandler.List)
	orderRoutes.GET("/number/:number", orderHandler.GetByNumber)
	orderRoutes.GET("/:id", orderHandler.GetByID)
	orderRoutes.POST("/:id/packed", middleware.RequireRole("picker", "order-desk"), orderHandler.RecordPacked)
	orderRoutes.POST("/:id/complete", orderDesk, orderHandler.Complete)
	orderRoutes.GET("/:id/pick-requests", pickingHandler.ListByOrder)
	orderRoutes.GET("/:id/shipments", shippingHandler.ListByOrder)
	orderRoutes.GET("/:id/invoices", invoicingHandler.ListByOrder)

	// Picking pipeline
	pickingRoutes := router.NewDomainGroup("picking", "/pick-requests")
	pickingRoutes.POST("", picker, pickingHandler.Create)
	pickingRoutes.GET("/:id", pickingHandler.GetByID)
	pickingRoutes.POST("/:id/picks", picker, pickingHandler.RecordPick)
	pickingRoutes.POST("/:id/complete", picker, pickingHandler.Complete)
	pickingRoutes.POST("/:id/external-confirmation", picker, pickingHandler.ConfirmExternal)

	// Shipping pipeline
	shippingRoutes := router.NewDomainGroup("shipping", "/shipments")
	shippingRoutes.POST("", shippingClerk, shippingHandler.Create)
	shippingRoutes.GET("/:id", shippingHandler.GetByID)
	shippingRoutes.POST("/:id/ship", shippingClerk, shippingHandler.MarkShipped)
	shippingRoutes.POST("/:id/deliver", shippingClerk, shippingHandler.MarkDelivered)

	// Invoicing
	invoiceRoutes := router.NewDomainGroup("billing", "/invoices")
	invoiceRoutes.POST("", billingClerk, invoicingHandler.Generate)
	invoiceRoutes.GET("/number/:number", invoicingHandler.GetByNumber)
	invoiceRoutes.GET("/:id", invoicingHandler.GetByID)
	invoiceRoutes.POST("/:id/payments", billingClerk, invoicingHandler.RecordPayment)
	invoiceRoutes.POST("/:id/emails", billingClerk, invoicingHandler.RecordEmailSent)
	invoiceRoutes.POST("/:id/prints", billingClerk, invoicingHandler.RecordPrinted)

	// Customer price list
	priceListRoutes := router.NewDomainGroup("pricing", "/price-list")
	priceListRoutes.POST("", billingClerk, pricingHandler.AddEntry)
	priceListRoutes.GET("/quote", pricingHandler.Quote)

	r.Register(inventoryRoutes, orderRoutes, pickingRoutes, shippingRoutes, invoiceRoutes, priceListRoutes)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports process liveness and database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}

// readyHandler additionally checks the Redis connection used for numbering
// and warehouse notifications
func readyHandler(db *persistence.Database, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		dbStatus := "ok"
		redisStatus := "ok"

		if err := db.Ping(); err != nil {
			dbStatus = "error"
			status = http.StatusServiceUnavailable
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			redisStatus = "error"
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
			"time":     time.Now().Format(time.RFC3339),
		})
	}
}
