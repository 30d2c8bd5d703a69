package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	ledgerapp "github.com/memberhub/backend/internal/application/ledger"
	memberapp "github.com/memberhub/backend/internal/application/member"
	"github.com/memberhub/backend/internal/domain/shared"
	"github.com/memberhub/backend/internal/infrastructure/auth"
	"github.com/memberhub/backend/internal/infrastructure/cache"
	"github.com/memberhub/backend/internal/infrastructure/config"
	"github.com/memberhub/backend/internal/infrastructure/event"
	"github.com/memberhub/backend/internal/infrastructure/logger"
	"github.com/memberhub/backend/internal/infrastructure/persistence"
	"github.com/memberhub/backend/internal/infrastructure/telemetry"
	"github.com/memberhub/backend/internal/interfaces/http/handler"
	"github.com/memberhub/backend/internal/interfaces/http/middleware"
	"github.com/memberhub/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting member hub backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	// Telemetry providers fall back to no-op implementations when disabled
	tracerProvider, err := telemetry.NewTracerProvider(rootCtx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(rootCtx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	businessMetrics, err := telemetry.NewBusinessMetrics(meterProvider.Meter("memberhub"))
	if err != nil {
		log.Fatal("Failed to initialize business metrics", zap.Error(err))
	}

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), 200*time.Millisecond)

	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
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
	if err := telemetry.NewDBTracingPlugin(dbTracing, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Initialize repositories
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	blockRecordRepo := persistence.NewGormBlockRecordRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	dailyRewardRepo := persistence.NewGormDailyRewardRepository(db.DB)
	rewardConfigRepo := persistence.NewGormRewardConfigRepository(db.DB)
	rewardEventRepo := persistence.NewGormRewardEventRepository(db.DB)

	txManager := persistence.NewTransactor(db.DB, persistence.TransactorConfig{
		Serializable: cfg.Database.Serializable,
		MaxRetries:   cfg.Database.MaxTxRetries,
		Backoff:      cfg.Database.TxRetryBackoff,
	}, log)

	// Redis backs the token blacklist and event idempotency when enabled
	stores := cache.NewStores(rootCtx, cfg.Redis, log)
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing cache stores", zap.Error(err))
		}
	}()

	var tokenBlacklist auth.TokenBlacklist
	if stores.Redis != nil {
		tokenBlacklist = auth.NewRedisTokenBlacklist(stores.Redis)
	} else {
		tokenBlacklist = auth.NewInMemoryTokenBlacklist()
	}
	jwtService := auth.NewJWTService(cfg.JWT)

	eventBus := event.NewInMemoryEventBus(log)

	// Initialize application services
	directoryService := memberapp.NewDirectoryService(accountRepo, log)
	blockService := memberapp.NewBlockService(accountRepo, blockRecordRepo, txManager, eventBus, log)
	blockHistoryService := memberapp.NewBlockHistoryService(blockRecordRepo, accountRepo, directoryService)
	registrationService := memberapp.NewRegistrationService(accountRepo, directoryService, eventBus, log)
	authService := memberapp.NewAuthService(accountRepo, jwtService, log)
	ledgerService := ledgerapp.NewLedgerService(accountRepo, transactionRepo, dailyRewardRepo, txManager, eventBus, log)
	referralService := ledgerapp.NewReferralService(accountRepo, rewardConfigRepo, rewardEventRepo, ledgerService, txManager, eventBus, log)

	blockService.SetBusinessMetrics(businessMetrics)
	ledgerService.SetBusinessMetrics(businessMetrics)
	referralService.SetBusinessMetrics(businessMetrics)

	// Subscribe event handlers
	eventBus.Subscribe(event.NewIdempotentHandler(referralService, stores.Idempotency, log,
		event.WithIdempotencyConfig(shared.IdempotencyConfig{
			TTL:     cfg.Event.IdempotencyTTL,
			Enabled: true,
		}),
	))
	eventBus.Subscribe(memberapp.NewSessionRevocationHandler(tokenBlacklist, jwtService, log))

	if err := eventBus.Start(rootCtx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanEnricher())
	engine.Use(middleware.Secure())

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsCfg))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		go limiter.Run(rootCtx)
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Login and registration get their own, tighter budget per client
	var authLimit gin.HandlerFunc
	if cfg.HTTP.AuthRateLimitRequests > 0 {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		go authLimiter.Run(rootCtx)
		authLimit = middleware.RateLimitByKey(authLimiter, middleware.ClientKey)
	}

	healthHandler := handler.NewHealthHandler(db)
	handlers := router.Handlers{
		Auth:      handler.NewAuthHandler(authService, registrationService, directoryService),
		Blocks:    handler.NewBlockHandler(blockService, blockHistoryService),
		Ledger:    handler.NewLedgerHandler(ledgerService, cfg.Ledger),
		Hierarchy: handler.NewHierarchyHandler(directoryService),
		Referral:  handler.NewReferralHandler(referralService),
		Health:    healthHandler,
	}

	r := router.NewRouter(engine)
	r.Use(middleware.JWTAuth(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: tokenBlacklist,
		SkipPaths:      router.PublicPaths(r.BasePath()),
		Logger:         log,
	}))
	r.Register(router.Groups(handlers, authLimit)...)
	r.Setup()

	// Unversioned probe for load balancers
	engine.GET("/health", healthHandler.Check)

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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := meterProvider.Shutdown(ctx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(ctx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
