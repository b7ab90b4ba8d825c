package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	fiscalapp "github.com/fiscalflow/backend/internal/application/fiscal"
	"github.com/fiscalflow/backend/internal/domain/fiscal"
	"github.com/fiscalflow/backend/internal/infrastructure/cache"
	"github.com/fiscalflow/backend/internal/infrastructure/config"
	"github.com/fiscalflow/backend/internal/infrastructure/distribution"
	"github.com/fiscalflow/backend/internal/infrastructure/logger"
	"github.com/fiscalflow/backend/internal/infrastructure/persistence"
	"github.com/fiscalflow/backend/internal/interfaces/http/handler"
	"github.com/fiscalflow/backend/internal/interfaces/http/middleware"
	"github.com/fiscalflow/backend/internal/interfaces/http/router"
)

//	@title			FiscalFlow Backend API
//	@version		1.0
//	@description	Fiscal document sync and reconciliation service for NFe distribution

//	@contact.name	API Support
//	@contact.url	https://github.com/fiscalflow/backend

//	@host		localhost:8080
//	@BasePath	/api/v1

var version = "dev"

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

	log.Info("Starting FiscalFlow Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
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

	// Initialize repositories
	noteRepo := persistence.NewGormFiscalNoteRepository(db.DB)
	cursorRepo := persistence.NewGormSyncCursorRepository(db.DB)
	receiptRepo := persistence.NewGormReceiptRepository(db.DB)
	unrecognizedRepo := persistence.NewGormUnrecognizedDocumentRepository(db.DB)

	// Distribution channel. Without a default CNPJ every location needs an
	// explicitly configured channel before its first sync.
	var defaultChannel *distribution.ChannelConfig
	if cfg.Distribution.CNPJ != "" {
		defaultChannel = &distribution.ChannelConfig{
			CNPJ:           cfg.Distribution.CNPJ,
			UFCode:         cfg.Distribution.UFCode,
			CertificateRef: cfg.Distribution.CertificateRef,
			APIBaseURL:     cfg.Distribution.BaseURL,
			Environment:    cfg.Distribution.Environment,
			TimeoutSeconds: int(cfg.Distribution.Timeout / time.Second),
		}
	}
	distClient, err := distribution.NewSefazAdapter(defaultChannel)
	if err != nil {
		log.Fatal("Failed to configure distribution channel", zap.Error(err))
	}
	log.Info("Distribution client ready",
		zap.String("environment", cfg.Distribution.Environment),
		zap.Bool("default_channel", defaultChannel != nil),
	)

	// Per-location sync locks: Redis when enabled, otherwise in-process.
	lockerFactory := cache.NewSyncLockerFactory(cfg.Redis, cfg.Sync,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	locker, err := lockerFactory.CreateLocker()
	if err != nil {
		log.Fatal("Failed to create sync locker", zap.Error(err))
	}

	// Category keyword table, optionally overridden from a file.
	keywords := fiscal.DefaultKeywordTable()
	if cfg.Sync.KeywordsFile != "" {
		keywords, err = config.LoadKeywordTable(cfg.Sync.KeywordsFile)
		if err != nil {
			log.Fatal("Failed to load keyword table", zap.Error(err))
		}
		log.Info("Loaded keyword table override",
			zap.String("file", cfg.Sync.KeywordsFile),
			zap.Int("categories", len(keywords)),
		)
	}

	// Initialize application services
	reconciliationService := fiscalapp.NewReconciliationService(noteRepo, receiptRepo, distClient, keywords, log)
	syncService := fiscalapp.NewSyncService(distClient, cursorRepo, noteRepo, unrecognizedRepo, reconciliationService, locker, keywords, log)
	noteService := fiscalapp.NewNoteService(noteRepo, unrecognizedRepo, log)

	// Initialize HTTP handlers
	syncHandler := handler.NewSyncHandler(syncService)
	noteHandler := handler.NewFiscalNoteHandler(noteService)
	reconciliationHandler := handler.NewReconciliationHandler(reconciliationService)
	systemHandler := handler.NewSystemHandler(db, version)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	fiscalRoutes := router.NewDomainGroup("fiscal", "/fiscal")
	fiscalRoutes.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "fiscal service ready"})
	})

	r.Register(fiscalRoutes).
		Register(syncHandler).
		Register(noteHandler).
		Register(reconciliationHandler).
		Register(systemHandler)

	// Setup routes
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
