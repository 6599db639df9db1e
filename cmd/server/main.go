package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	variationapp "github.com/stockwave/harmony/internal/application/variation"
	"github.com/stockwave/harmony/internal/domain/integration"
	"github.com/stockwave/harmony/internal/domain/variation"
	"github.com/stockwave/harmony/internal/infrastructure/cache"
	"github.com/stockwave/harmony/internal/infrastructure/config"
	"github.com/stockwave/harmony/internal/infrastructure/event"
	"github.com/stockwave/harmony/internal/infrastructure/logger"
	"github.com/stockwave/harmony/internal/infrastructure/persistence"
	"github.com/stockwave/harmony/internal/infrastructure/scheduler"
	"github.com/stockwave/harmony/internal/infrastructure/storage"
	"github.com/stockwave/harmony/internal/infrastructure/telemetry"
	"github.com/stockwave/harmony/internal/infrastructure/woocommerce"
	"github.com/stockwave/harmony/internal/interfaces/http/handler"
	"github.com/stockwave/harmony/internal/interfaces/http/middleware"
	"github.com/stockwave/harmony/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		Service:    cfg.App.Name,
		Env:        cfg.App.Env,
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// The log bridge needs a logger for its own errors, so the final logger
	// is built once the provider exists.
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log, err := logger.New(logCfg, logProvider.Core(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Harmony",
		zap.String("app", cfg.App.Name),
		zap.String("version", version),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	meter := meterProvider.Meter("harmony")
	variationMetrics, err := telemetry.NewVariationMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create variation metrics", zap.Error(err))
	}

	// Database
	var gormOpts []logger.GormLoggerOption
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		gormOpts = append(gormOpts, logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	}
	dbOpts := []persistence.Option{
		persistence.WithGormLogger(logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), gormOpts...)),
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbSystem := "postgresql"
		if cfg.Database.Driver == config.DriverSQLite {
			dbSystem = "sqlite"
		}
		dbOpts = append(dbOpts, persistence.WithTracing(telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        dbSystem,
		}, log)))
	}
	db, err := persistence.NewDatabase(&cfg.Database, dbOpts...)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if db.Driver() == config.DriverSQLite {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to create SQLite schema", zap.Error(err))
		}
	}
	log.Info("Database connected successfully", zap.String("driver", db.Driver()))

	// Session store
	sessions, closeSessions, err := cache.NewSessionStoreFactory(cfg.Session, cfg.Redis, cache.WithLogger(log)).
		Create(persistence.NewGormSessionRepository(db.DB))
	if err != nil {
		log.Fatal("Failed to create session store", zap.Error(err))
	}
	defer func() {
		if err := closeSessions(); err != nil {
			log.Error("Error closing session cache", zap.Error(err))
		}
	}()

	// Idle session sweeping
	purger, _ := sessions.(variation.IdleSessionPurger)
	sweeper := scheduler.NewSessionSweeper(scheduler.SweeperConfig{
		MaxIdle:  cfg.Session.MaxIdle,
		Interval: cfg.Session.SweepInterval,
	}, purger, log)
	if err := sweeper.Start(ctx); err != nil {
		log.Fatal("Failed to start session sweeper", zap.Error(err))
	}

	// Store connection
	catalog, wooImages := newStoreClient(cfg, log)
	images, err := newImageUploader(ctx, cfg, wooImages, log)
	if err != nil {
		log.Fatal("Failed to initialize image storage", zap.Error(err))
	}

	// Events
	eventBus := event.NewInMemoryEventBus(log)
	activity := event.NewSessionActivityLogger(log)
	eventBus.Subscribe(activity, activity.EventTypes()...)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	variationService := variationapp.NewVariationService(variationapp.ServiceConfig{
		Sessions:        sessions,
		Catalog:         catalog,
		Images:          images,
		ImageBackend:    cfg.Images.Backend,
		EventPublisher:  eventBus,
		Metrics:         variationMetrics,
		Logger:          log,
		MaxCombinations: cfg.Variation.MaxCombinations,
		Currency:        cfg.Variation.Currency,
		Locale:          cfg.Variation.Locale,
	})

	// HTTP
	engine, err := router.NewEngine(router.EngineConfig{
		Logger: log,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Security: securityConfig(cfg),
		CORS: middleware.CORSConfig{
			AllowOrigins:  cfg.HTTP.CORSAllowOrigins,
			AllowMethods:  cfg.HTTP.CORSAllowMethods,
			AllowHeaders:  cfg.HTTP.CORSAllowHeaders,
			ExposeHeaders: []string{middleware.RequestIDKey},
			MaxAge:        12 * time.Hour,
		},
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		Meter:          meter,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	})
	if err != nil {
		log.Fatal("Failed to create HTTP engine", zap.Error(err))
	}

	var storeLimiter *middleware.RateLimiter
	if cfg.HTTP.StoreRateLimit > 0 {
		storeLimiter = middleware.NewRateLimiter(cfg.HTTP.StoreRateLimit, time.Minute)
		defer storeLimiter.Stop()
	}

	systemHandler := handler.NewSystemHandler(version)
	systemHandler.AddCheck("database", db.Ping)
	if cached, ok := sessions.(*cache.RedisSessionCache); ok {
		systemHandler.AddCheck("redis", cached.Ping)
	}

	variationHandler := handler.NewVariationHandler(variationService,
		handler.WithMaxImageBytes(cfg.Images.MaxBytes))

	router.NewRouter(engine).
		Register(router.VariationRoutes(variationHandler, middleware.RateLimit(storeLimiter))).
		Register(router.SystemRoutes(systemHandler)).
		Setup()
	router.RegisterHealth(engine, systemHandler)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := sweeper.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping session sweeper", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down metrics", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracing", zap.Error(err))
	}
	log.Info("Server exited gracefully")
	// flush the bridge last so the shutdown entries above are exported
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		bootLog.Error("Error shutting down log exporter", zap.Error(err))
	}
}

// newStoreClient connects to the configured WooCommerce store. Without a store
// URL the service still serves drafts and stateless generation.
func newStoreClient(cfg *config.Config, log *zap.Logger) (integration.ProductCatalog, integration.ImageUploader) {
	if cfg.WooCommerce.StoreURL == "" {
		log.Warn("woocommerce.store_url is not set; store calls will fail with ERR_STORE_NOT_CONFIGURED")
		return woocommerce.Unconfigured{}, woocommerce.Unconfigured{}
	}
	client, err := woocommerce.NewClient(woocommerce.Config{
		StoreURL:             cfg.WooCommerce.StoreURL,
		ConsumerKey:          cfg.WooCommerce.ConsumerKey,
		ConsumerSecret:       cfg.WooCommerce.ConsumerSecret,
		APIVersion:           cfg.WooCommerce.APIVersion,
		Timeout:              cfg.WooCommerce.Timeout,
		MaxRetries:           cfg.WooCommerce.MaxRetries,
		WordPressUser:        cfg.WooCommerce.WordPressUser,
		WordPressAppPassword: cfg.WooCommerce.WordPressAppPassword,
		MaxImageBytes:        cfg.Images.MaxBytes,
	}, woocommerce.WithLogger(log))
	if err != nil {
		log.Fatal("Invalid WooCommerce configuration", zap.Error(err))
	}
	log.Info("WooCommerce store configured", zap.String("store_url", cfg.WooCommerce.StoreURL))
	return client, client
}

// newImageUploader selects the image backend. The s3 backend creates its
// bucket when missing.
func newImageUploader(ctx context.Context, cfg *config.Config, store integration.ImageUploader, log *zap.Logger) (integration.ImageUploader, error) {
	if cfg.Images.Backend != config.ImageBackendS3 {
		return store, nil
	}
	uploader, err := storage.NewS3ImageUploader(&cfg.Images.S3,
		storage.WithLogger(log),
		storage.WithMaxBytes(cfg.Images.MaxBytes),
	)
	if err != nil {
		return nil, err
	}
	ensureCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := uploader.EnsureBucket(ensureCtx); err != nil {
		return nil, err
	}
	log.Info("S3 image storage configured", zap.String("bucket", uploader.Bucket()))
	return uploader, nil
}

func securityConfig(cfg *config.Config) middleware.SecurityConfig {
	sec := middleware.DefaultSecurityConfig()
	sec.HSTSEnabled = cfg.App.Env == "production"
	return sec
}
