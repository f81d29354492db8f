package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	approvalapp "github.com/dealerdesk/backend/internal/application/approval"
	dealershipapp "github.com/dealerdesk/backend/internal/application/dealership"
	depositapp "github.com/dealerdesk/backend/internal/application/deposit"
	"github.com/dealerdesk/backend/internal/application/guard"
	subscriptionapp "github.com/dealerdesk/backend/internal/application/subscription"
	"github.com/dealerdesk/backend/internal/domain/lifecycle"
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/dealerdesk/backend/internal/infrastructure/auth"
	"github.com/dealerdesk/backend/internal/infrastructure/cache"
	"github.com/dealerdesk/backend/internal/infrastructure/config"
	"github.com/dealerdesk/backend/internal/infrastructure/event"
	"github.com/dealerdesk/backend/internal/infrastructure/logger"
	"github.com/dealerdesk/backend/internal/infrastructure/persistence"
	"github.com/dealerdesk/backend/internal/infrastructure/scheduler"
	"github.com/dealerdesk/backend/internal/infrastructure/telemetry"
	"github.com/dealerdesk/backend/internal/interfaces/http/handler"
	"github.com/dealerdesk/backend/internal/interfaces/http/middleware"
	"github.com/dealerdesk/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		Service:    cfg.Telemetry.ServiceName,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting DealerDesk backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	otelProviders, err := telemetry.Setup(rootCtx, telemetry.Config{
		ServiceName:       cfg.Telemetry.ServiceName,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		TracingEnabled:    cfg.Telemetry.Enabled,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	dbTracing.DBName = cfg.Database.DBName
	if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, otelProviders, telemetry.DBMetricsConfig{}, log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}
	if dbMetrics != nil {
		dbMetrics.StartPoolStatsCollection(rootCtx)
		defer dbMetrics.Stop()
	}

	// Redis backs the approval guard, delivery dedup and the plan cache when
	// enabled. Without it every replica keeps its own in-memory state.
	var (
		redisClient   *redis.Client
		guardStore    shared.IdempotencyStore
		deliveryStore shared.IdempotencyStore
		planStore     cache.PlanStore
	)
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
		guardStore = cache.NewRedisIdempotencyStore(redisClient, "dealerdesk:guard:")
		deliveryStore = cache.NewRedisIdempotencyStore(redisClient, "dealerdesk:delivery:")
		planStore = cache.NewRedisPlanStore(redisClient)
		log.Info("Redis connected", zap.String("host", cfg.Redis.Host), zap.Int("db", cfg.Redis.DB))
	} else {
		memGuard := cache.NewInMemoryIdempotencyStore()
		defer func() { _ = memGuard.Close() }()
		memDelivery := cache.NewInMemoryIdempotencyStore()
		defer func() { _ = memDelivery.Close() }()
		guardStore, deliveryStore = memGuard, memDelivery
		planStore = cache.NewInMemoryPlanStore()
		log.Warn("Redis disabled, approval guard and caches are process-local")
	}

	dealershipRepo := persistence.NewGormDealershipRepository(db.DB)
	depositRepo := persistence.NewGormDepositRepository(db.DB)
	subscriptionRepo := persistence.NewGormSubscriptionRepository(db.DB)
	planRepo := cache.NewCachedPlanRepository(
		persistence.NewGormPlanRepository(db.DB), planStore, cfg.Plans.CacheTTL, log,
	)

	engine := lifecycle.NewFacade(planRepo, time.Now)
	approvalGuard := guard.NewApprovalGuard(guardStore, cfg.Approval.GuardTTL, log)

	eventBus := event.NewInMemoryEventBus(log)

	dealershipService := dealershipapp.NewService(dealershipRepo, engine, eventBus, approvalGuard)
	depositService := depositapp.NewService(depositRepo, engine, eventBus, approvalGuard)
	subscriptionService := subscriptionapp.NewService(subscriptionRepo, planRepo, dealershipRepo, engine, eventBus).
		WithSweepBatch(cfg.Scheduler.BatchSize)

	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:           otelProviders.Meter("dealerdesk.business"),
		Logger:          log,
		CollectInterval: cfg.Telemetry.MetricsInterval,
		Pending:         approvalapp.NewPendingApprovals(dealershipService, depositService),
	})
	if err != nil {
		log.Fatal("Failed to initialize business metrics", zap.Error(err))
	}
	businessMetrics.StartPeriodicCollection(rootCtx)
	defer businessMetrics.Stop()

	auditHandler := event.NewAuditHandler(event.NewLifecycleSerializer(), log)
	eventBus.Subscribe(auditHandler)
	metricsHandler := event.NewIdempotentHandler(event.NewMetricsHandler(businessMetrics), deliveryStore, 0, log)
	eventBus.Subscribe(metricsHandler)
	log.Info("Event handlers registered",
		zap.Strings("audit_events", auditHandler.EventTypes()),
		zap.Strings("metrics_events", metricsHandler.EventTypes()),
	)

	if err := eventBus.Start(rootCtx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	var expiryTrigger *scheduler.ExpiryTrigger
	if cfg.Scheduler.ExpiryEnabled {
		triggerCfg := scheduler.DefaultExpiryTriggerConfig()
		triggerCfg.Hour = cfg.Scheduler.ExpiryHour
		triggerCfg.Minute = cfg.Scheduler.ExpiryMinute
		triggerCfg.CheckInterval = cfg.Scheduler.CheckInterval

		sweep := func(ctx context.Context, today valueobject.Date) error {
			result, err := subscriptionService.ExpireDue(ctx, today)
			if err != nil {
				return err
			}
			log.Info("Expiry sweep finished",
				zap.String("as_of", today.String()),
				zap.Int("expired", result.Expired),
				zap.Int("conflicts", result.Conflicts),
			)
			return nil
		}
		expiryTrigger, err = scheduler.NewExpiryTrigger(triggerCfg, sweep, log)
		if err != nil {
			log.Fatal("Failed to create expiry trigger", zap.Error(err))
		}
		if err := expiryTrigger.Start(rootCtx); err != nil {
			log.Fatal("Failed to start expiry trigger", zap.Error(err))
		}
		log.Info("Expiry trigger started",
			zap.Int("hour", triggerCfg.Hour),
			zap.Int("minute", triggerCfg.Minute),
		)
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	r.Use(middleware.RequestID())
	r.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     otelProviders.TracingEnabled(),
	}))
	r.Use(logger.GinMiddleware(log))
	r.Use(logger.Recovery(log))
	r.Use(middleware.Secure())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.CORSAllowOrigins,
		AllowMethods: cfg.HTTP.CORSAllowMethods,
		AllowHeaders: cfg.HTTP.CORSAllowHeaders,
		MaxAge:       12 * time.Hour,
	}))
	r.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow, cfg.HTTP.RateLimitBurst)
		go limiter.RunCleanup(rootCtx)
		r.Use(middleware.RateLimit(limiter))
	}
	if otelProviders.MetricsEnabled() {
		r.Use(middleware.HTTPMetrics(otelProviders.Meter("dealerdesk.http")))
	}

	healthHandler := handler.NewHealthHandler(telemetry.ServiceVersion).
		WithCheck("database", db.PingContext)
	if redisClient != nil {
		healthHandler.WithCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	routes := router.Mount(r, router.Handlers{
		Health:       healthHandler,
		Dealership:   handler.NewDealershipHandler(dealershipService),
		Subscription: handler.NewSubscriptionHandler(subscriptionService),
		Deposit:      handler.NewDepositHandler(depositService),
	}, log,
		middleware.JWTAuth(middleware.DefaultJWTConfig(jwtService)),
		middleware.SpanEnricher(),
	)
	log.Info("API routes mounted", zap.Int("routes", len(routes)))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        r,
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if expiryTrigger != nil {
		if err := expiryTrigger.Stop(ctx); err != nil {
			log.Error("Error stopping expiry trigger", zap.Error(err))
		}
	}
	stopBackground()

	if err := otelProviders.Shutdown(ctx); err != nil {
		log.Error("Error shutting down telemetry", zap.Error(err))
	}

	hits, misses := planRepo.Stats()
	published, failed := eventBus.Stats()
	log.Info("Server exited",
		zap.Int64("plan_cache_hits", hits),
		zap.Int64("plan_cache_misses", misses),
		zap.Int64("events_published", published),
		zap.Int64("events_failed", failed),
	)
}
