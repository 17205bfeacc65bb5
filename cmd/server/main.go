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
	identityapp "github.com/orderdesk/backend/internal/application/identity"
	applocal "github.com/orderdesk/backend/internal/application/local"
	apporder "github.com/orderdesk/backend/internal/application/order"
	appprofit "github.com/orderdesk/backend/internal/application/profit"
	"github.com/orderdesk/backend/internal/domain/identity"
	"github.com/orderdesk/backend/internal/infrastructure/auth"
	"github.com/orderdesk/backend/internal/infrastructure/cache"
	"github.com/orderdesk/backend/internal/infrastructure/config"
	"github.com/orderdesk/backend/internal/infrastructure/logger"
	"github.com/orderdesk/backend/internal/infrastructure/metrics"
	"github.com/orderdesk/backend/internal/infrastructure/migration"
	"github.com/orderdesk/backend/internal/infrastructure/orderapi"
	"github.com/orderdesk/backend/internal/infrastructure/persistence"
	"github.com/orderdesk/backend/internal/infrastructure/printing"
	"github.com/orderdesk/backend/internal/infrastructure/spreadsheet"
	"github.com/orderdesk/backend/internal/infrastructure/storage"
	"github.com/orderdesk/backend/internal/infrastructure/telemetry"
	"github.com/orderdesk/backend/internal/interfaces/http/handler"
	"github.com/orderdesk/backend/internal/interfaces/http/middleware"
	"github.com/orderdesk/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	baseLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(baseLog)
	}()

	ctx := context.Background()
	tel := setupTelemetry(ctx, cfg, baseLog)
	defer tel.shutdown(baseLog)
	log := tel.log

	log.Info("Starting order desk",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("remote", cfg.Remote.BaseURL),
	)

	db := openDatabase(cfg, tel, log)
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	// Prometheus registry shared by HTTP, remote and bulk metrics
	exporter := metrics.New(metrics.Config{Namespace: "orderdesk", IncludeRuntime: true})

	// Remote order API
	client, err := orderapi.NewClient(orderapi.Config{
		BaseURL:   cfg.Remote.BaseURL,
		Timeout:   cfg.Remote.Timeout,
		UserAgent: cfg.Remote.UserAgent,
	}, log, orderapi.WithObserver(exporter))
	if err != nil {
		log.Fatal("Failed to create order API client", zap.Error(err))
	}
	orderMetrics, err := telemetry.NewOrderMetrics(tel.meters.Meter("orderdesk.orders"), log)
	if err != nil {
		log.Fatal("Failed to create order metrics", zap.Error(err))
	}
	orderGateway := telemetry.InstrumentGateway(orderapi.NewOrderGateway(client), orderMetrics)

	// Local data services
	activityService := applocal.NewActivityService(persistence.NewGormActivityRepository(db.DB))
	addressService := applocal.NewAddressService(persistence.NewGormAddressRepository(db.DB))
	ticketService := applocal.NewTicketService(persistence.NewGormTicketRepository(db.DB))

	// Order services
	tables := apporder.NewTableService(orderGateway, activityService, log,
		apporder.WithOwnerViews(cfg.Owners.Views),
		apporder.WithBulkDeleteLimit(cfg.Remote.BulkDeleteConcurrency),
	)
	reports := apporder.NewReportService(tables, cfg.Owners.Names)

	artifacts, err := storage.New(ctx, &cfg.Export, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize export storage", zap.Error(err))
	}
	browser := printing.NewChromedpRenderer(&printing.ChromedpConfig{
		DefaultTimeout: cfg.Chrome.Timeout,
		RemoteURL:      cfg.Chrome.RemoteURL,
		NoSandbox:      cfg.Chrome.NoSandbox,
		Logger:         log,
	})
	defer func() {
		if err := browser.Close(); err != nil {
			log.Warn("Error closing browser", zap.Error(err))
		}
	}()
	documents, err := printing.NewDocumentRenderer(browser, printing.DocumentOptions{Company: cfg.App.Name})
	if err != nil {
		log.Fatal("Failed to load document templates", zap.Error(err))
	}
	exports := apporder.NewExportService(tables, spreadsheet.NewWriter(time.UTC), documents, artifacts, activityService, log)

	profitService := appprofit.NewService(orderapi.NewProfitGateway(client), log)

	// Identity
	users, err := configuredUsers(cfg.Auth.Users)
	if err != nil {
		log.Fatal("Invalid auth.users", zap.Error(err))
	}
	jwtService := auth.NewJWTService(cfg.JWT)
	revocations, err := auth.NewRevocationList(ctx, cfg.Auth.Revocation)
	if err != nil {
		log.Fatal("Failed to initialize token revocation", zap.Error(err))
	}
	authService := identityapp.NewAuthService(users, jwtService, log, identityapp.WithTokenRevoker(revocations))

	submissions, err := cache.NewKeyStore(ctx, cfg.Idempotency, log)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		_ = submissions.Close()
	}()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order matters:
	// RequestID before the logger so every line carries it, tracing before
	// JWT so rejected requests still get a span, SpanAttributes after JWT.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tel.tracer.IsEnabled(),
	}))
	if cfg.Metrics.Enabled {
		engine.Use(middleware.HTTPMetrics(exporter))
	}
	if tel.profiler.IsEnabled() && cfg.Profiler.HTTPLabels {
		profilingConfig := middleware.DefaultProfilingConfig()
		profilingConfig.SkipPaths = append(profilingConfig.SkipPaths, cfg.Metrics.Path)
		engine.Use(middleware.ProfilingWithConfig(profilingConfig))
	}
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.Revocations = revocations
	jwtConfig.Disabled = !cfg.Auth.Enabled
	jwtConfig.Logger = log
	if cfg.Metrics.Enabled {
		jwtConfig = jwtConfig.WithSkipPaths(cfg.Metrics.Path)
	}
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))
	engine.Use(middleware.SpanAttributes())

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, cfg.App.Env, map[string]handler.HealthCheck{
		"database": func(context.Context) error { return db.Ping() },
	})
	engine.GET("/health", systemHandler.Health)
	if cfg.Metrics.Enabled {
		engine.GET(cfg.Metrics.Path, gin.WrapH(exporter.Handler()))
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	routes := router.MountDashboard(r, router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Orders:  handler.NewOrderHandler(tables, exporter),
		Reports: handler.NewReportHandler(reports),
		Exports: handler.NewExportHandler(exports, exporter),
		Profit:  handler.NewProfitHandler(profitService),
		Local:   handler.NewLocalHandler(addressService, ticketService, activityService),
		System:  systemHandler,
	}, router.Guards{
		LoginLimit:  middleware.RateLimit(middleware.NewRateLimiter(cfg.Auth.LoginRate, cfg.Auth.LoginBurst)),
		ViewAccess:  middleware.ViewAccess(tables),
		Idempotency: middleware.Idempotency(submissions, cfg.Idempotency.TTL),
	})
	r.Setup()
	log.Debug("Routes registered", zap.Int("count", len(routes)), zap.Strings("routes", routes))

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

type telemetryStack struct {
	log      *zap.Logger
	tracer   *telemetry.TracerProvider
	meters   *telemetry.MeterProvider
	logs     *telemetry.LoggerProvider
	profiler *telemetry.Profiler
	dbStats  *telemetry.DBMetrics
}

// setupTelemetry starts tracing, OTLP metrics and logs, and the profiler.
// Failures degrade to no-op providers; the service still starts.
func setupTelemetry(ctx context.Context, cfg *config.Config, base *zap.Logger) *telemetryStack {
	t := &telemetryStack{log: base}
	tc := cfg.Telemetry

	var err error
	if t.profiler, err = telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiler.Enabled,
		ServerAddress:     cfg.Profiler.ServerAddress,
		ApplicationName:   cfg.Profiler.ApplicationName,
		BasicAuthUser:     cfg.Profiler.BasicAuthUser,
		BasicAuthPassword: cfg.Profiler.BasicAuthPassword,
		ProfileTypes:      cfg.Profiler.ProfileTypes,
	}, base); err != nil {
		base.Warn("Profiler disabled", zap.Error(err))
		t.profiler, _ = telemetry.NewProfiler(telemetry.ProfilerConfig{}, base)
	}

	if t.tracer, err = telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, base); err != nil {
		base.Warn("Tracing disabled", zap.Error(err))
		t.tracer, _ = telemetry.NewTracerProvider(ctx, telemetry.Config{}, base)
	}
	if tc.SpanProfilesEnabled && t.profiler.IsEnabled() {
		if err := t.tracer.EnableSpanProfiles(); err != nil {
			base.Warn("Span profiles disabled", zap.Error(err))
		}
	}

	if t.meters, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tc.Enabled && tc.MetricsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ExportInterval:    tc.MetricsExportInterval,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, base); err != nil {
		base.Warn("OTLP metrics disabled", zap.Error(err))
		t.meters, _ = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{}, base)
	}

	if t.logs, err = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           tc.Enabled && tc.LogsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, base); err != nil {
		base.Warn("OTLP logs disabled", zap.Error(err))
		t.logs = nil
	}
	t.log = telemetry.Bridge(base, t.logs, tc.ServiceName, logger.ParseLevel(tc.LogsLevel))
	return t
}

func (t *telemetryStack) shutdown(log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if t.dbStats != nil {
		t.dbStats.Stop()
	}
	if t.logs != nil {
		if err := t.logs.Shutdown(ctx); err != nil {
			log.Warn("Error shutting down logger provider", zap.Error(err))
		}
	}
	if err := t.meters.Shutdown(ctx); err != nil {
		log.Warn("Error shutting down meter provider", zap.Error(err))
	}
	if err := t.tracer.Shutdown(ctx); err != nil {
		log.Warn("Error shutting down tracer provider", zap.Error(err))
	}
	if err := t.profiler.Stop(); err != nil {
		log.Warn("Error stopping profiler", zap.Error(err))
	}
}

// openDatabase connects the local database, installs instrumentation and
// applies pending migrations.
func openDatabase(cfg *config.Config, tel *telemetryStack, log *zap.Logger) *persistence.Database {
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL))

	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", db.Driver()))

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		tracing := telemetry.DefaultDBTracingConfig()
		tracing.Enabled = true
		tracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
		tracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
		if db.Driver() == "postgres" {
			tracing.DBSystem = "postgresql"
		}
		if err := telemetry.NewDBTracingPlugin(tracing, log).Register(db.DB); err != nil {
			log.Warn("Database tracing disabled", zap.Error(err))
		}
	}
	tel.dbStats, err = telemetry.RegisterDBMetrics(db.DB, tel.meters, telemetry.DBMetricsConfig{
		Enabled:            cfg.Telemetry.DBMetricsEnabled,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err != nil {
		log.Warn("Database metrics disabled", zap.Error(err))
	}

	if cfg.Database.MigrateOnStart {
		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatal("Failed to get database handle", zap.Error(err))
		}
		m, err := migration.New(sqlDB, db.Driver(), log)
		if err != nil {
			log.Fatal("Failed to prepare migrations", zap.Error(err))
		}
		if err := m.Up(); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}
	return db
}

func configuredUsers(in []config.UserConfig) ([]*identity.User, error) {
	users := make([]*identity.User, 0, len(in))
	for _, u := range in {
		user, err := identity.NewUser(u.Username, u.PasswordHash, u.Owners)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}
