// Salesdesk backend server.
//
//	@title			Salesdesk API
//	@version		1.0
//	@description	Sales and invoicing backend: customers, products, bills and receipts.
//
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	billingapp "github.com/salesdesk/backend/internal/application/billing"
	catalogapp "github.com/salesdesk/backend/internal/application/catalog"
	identityapp "github.com/salesdesk/backend/internal/application/identity"
	partnerapp "github.com/salesdesk/backend/internal/application/partner"
	"github.com/salesdesk/backend/internal/infrastructure/auth"
	"github.com/salesdesk/backend/internal/infrastructure/cache"
	"github.com/salesdesk/backend/internal/infrastructure/config"
	identityinfra "github.com/salesdesk/backend/internal/infrastructure/identity"
	"github.com/salesdesk/backend/internal/infrastructure/keymgmt"
	"github.com/salesdesk/backend/internal/infrastructure/logger"
	"github.com/salesdesk/backend/internal/infrastructure/mail"
	"github.com/salesdesk/backend/internal/infrastructure/persistence"
	"github.com/salesdesk/backend/internal/infrastructure/receipt"
	"github.com/salesdesk/backend/internal/infrastructure/storage"
	"github.com/salesdesk/backend/internal/infrastructure/telemetry"
	"github.com/salesdesk/backend/internal/interfaces/http/handler"
	"github.com/salesdesk/backend/internal/interfaces/http/middleware"
	"github.com/salesdesk/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	ctx := context.Background()

	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize OTLP log exporter", zap.Error(err))
	}
	if logProvider.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: logProvider,
			Level:          logger.ParseLevel(cfg.Log.Level),
		})
		log = telemetry.NewBridgedLogger(log.Core(), otelCore,
			zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	}

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:             cfg.Profiling.Enabled,
		ServerAddress:       cfg.Profiling.ServerAddress,
		ApplicationName:     cfg.Profiling.AppName,
		ProfileCPU:          true,
		ProfileAllocObjects: true,
		ProfileAllocSpace:   true,
		ProfileInuseObjects: true,
		ProfileInuseSpace:   true,
		ProfileGoroutines:   true,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DBMetricsConfig{
		Enabled:            cfg.Telemetry.Enabled,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		PoolStatsInterval:  15 * time.Second,
	}, log)
	if err != nil {
		log.Warn("Failed to register database metrics", zap.Error(err))
	}

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.DBTraceEnabled,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}

	store, err := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithMemoryFallback(cfg.Cache.AllowMemoryFallback),
		cache.WithKeyPrefix(cfg.Cache.KeyPrefix),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to connect to cache store", zap.Error(err))
	}

	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:         meterProvider.Meter("business"),
		Logger:        log,
		StockProvider: telemetry.NewGormStockMetricsProvider(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to initialize business metrics", zap.Error(err))
	}
	businessMetrics.StartPeriodicCollection(ctx, 0)

	productRepo := persistence.NewGormProductRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	billRepo := persistence.NewGormBillRepository(db.DB)

	decoratorCfg := cache.DecoratorConfig{
		Store:   store,
		TTL:     cfg.Cache.TTL,
		Logger:  log,
		Metrics: businessMetrics,
	}
	cachedProducts := cache.NewCachedProductRepository(productRepo, decoratorCfg)
	cachedCustomers := cache.NewCachedCustomerRepository(customerRepo, decoratorCfg)
	cachedBills := cache.NewCachedBillRepository(billRepo, decoratorCfg)

	encryptor, err := keymgmt.New(cfg.KeyMgmt, cfg.AWS, log)
	if err != nil {
		log.Fatal("Failed to initialize field encryption", zap.Error(err))
	}

	idp, err := identityinfra.NewCognitoProvider(cfg.AWS, cfg.Identity, identityinfra.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize identity provider", zap.Error(err))
	}

	objectStore, err := storage.NewS3Storage(cfg.AWS, cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	var mailer mail.Sender
	if cfg.Mail.Enabled {
		mailer, err = mail.NewSESSender(cfg.AWS, cfg.Mail, mail.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize mail sender", zap.Error(err))
		}
	} else {
		mailer = mail.NewNoopSender(log)
	}

	renderer, err := receipt.NewEngine(cfg.Receipt)
	if err != nil {
		log.Fatal("Failed to initialize receipt engine", zap.Error(err))
	}

	var pdfRenderer receipt.PDFRenderer = receipt.DisabledPDFRenderer{}
	if cfg.Receipt.PDFEnabled {
		pdfRenderer, err = receipt.NewChromedpRenderer(cfg.Receipt, receipt.WithChromeLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT)

	var blacklist auth.TokenBlacklist
	if redisStore, ok := store.(*cache.RedisStore); ok {
		blacklist = auth.NewRedisTokenBlacklistWithClient(redisStore.GetClient())
	} else {
		blacklist = auth.NewInMemoryTokenBlacklist()
		log.Warn("Token blacklist is in-memory; revocations will not survive a restart")
	}

	productService := catalogapp.NewProductService(cachedProducts, log)
	customerService := partnerapp.NewCustomerService(cachedCustomers, encryptor, log)
	billService := billingapp.NewBillService(cachedBills, cachedCustomers, cachedProducts, renderer, pdfRenderer, log)

	// The sale transaction reads products and bills through the raw
	// repositories; going through the cache inside the transaction would
	// serve stale stock. Cache maintenance happens after commit.
	saleService := billingapp.NewSaleService(
		cachedCustomers, productRepo, billRepo, db,
		cachedBills, cachedProducts,
		renderer, objectStore, mailer, log,
	)
	saleService.SetBusinessMetrics(businessMetrics)

	authService := identityapp.NewAuthService(idp, jwtService, blacklist, log)

	if err := handler.SetupValidator(); err != nil {
		log.Fatal("Failed to register request validators", zap.Error(err))
	}

	handlers := router.Handlers{
		Products:  handler.NewProductHandler(productService),
		Customers: handler.NewCustomerHandler(customerService),
		Bills:     handler.NewBillHandler(billService),
		Sales:     handler.NewSaleHandler(saleService),
		Auth:      handler.NewAuthHandler(authService),
		System:    handler.NewSystemHandler(db, store),
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodySizeLimit(cfg.HTTP.MaxBodySize))
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName))
	engine.Use(middleware.SpanEnrichment())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{MeterProvider: meterProvider}))

	profilingCfg := middleware.DefaultProfilingConfig()
	profilingCfg.Enabled = cfg.Profiling.Enabled
	engine.Use(middleware.Profiling(profilingCfg))

	router.RegisterSystem(engine, handlers.System)

	jwtAuth := middleware.JWT(middleware.JWTConfig{
		JWTService:       jwtService,
		TokenBlacklist:   blacklist,
		SkipPaths:        middleware.DefaultJWTSkipPaths(),
		SkipPathPrefixes: middleware.DefaultJWTSkipPathPrefixes(),
		Logger:           log,
	})

	engine.GET("/swagger/*any", middleware.SwaggerProtection(middleware.SwaggerAccessConfig{
		Enabled:     cfg.Swagger.Enabled,
		RequireAuth: cfg.Swagger.RequireAuth,
		AllowedIPs:  cfg.Swagger.AllowedIPs,
	}, jwtAuth), ginSwagger.WrapHandler(swaggerFiles.Handler))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(jwtAuth)
	router.RegisterAll(r, handlers)
	r.Setup()
	router.RegisterFallbacks(engine)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Starting server",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Env),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	businessMetrics.Stop()
	if dbMetrics != nil {
		dbMetrics.Stop()
	}
	if err := pdfRenderer.Close(); err != nil {
		log.Warn("Failed to close PDF renderer", zap.Error(err))
	}
	if err := store.Close(); err != nil {
		log.Warn("Failed to close cache store", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Warn("Failed to close database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Failed to stop profiler", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to shut down tracer provider", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to shut down meter provider", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to shut down log exporter", zap.Error(err))
	}

	log.Info("Server exited")
}
