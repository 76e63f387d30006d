package main

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"shortcut-relay.backend/internal/config"
	"shortcut-relay.backend/internal/infrastructure/jobs"
	"shortcut-relay.backend/internal/infrastructure/push"
	"shortcut-relay.backend/internal/infrastructure/repositories"
	"shortcut-relay.backend/internal/interfaces/http/handlers"
	"shortcut-relay.backend/internal/interfaces/http/middleware"
	"shortcut-relay.backend/internal/usecases"
	"shortcut-relay.backend/pkg/jwt"
	"shortcut-relay.backend/pkg/logger"
	"shortcut-relay.backend/pkg/metrics"
	"shortcut-relay.backend/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	runMigrations = repositories.Migrate
	runServer     = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB      = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	// Load .env file
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	metrics.MustRegister()

	// Redis backs the idempotency layer only; a failure here is fatal so a
	// half-configured deployment never silently loses replay protection.
	if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(context.Background(), "Redis initialized")

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database using GORM
	db, err := openDB(cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Printf("⚠️ Database not available: %v (endpoints will return errors)", err)
	} else {
		log.Println("✅ Connected to PostgreSQL via GORM")
		if err := runMigrations(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	encryptionKey, err := hex.DecodeString(cfg.Security.EncryptionKey)
	if err != nil || len(encryptionKey) != 32 {
		return fmt.Errorf("SECRET_ENCRYPTION_KEY must be 32 bytes of hex")
	}

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiry)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	apiKeyRepo := repositories.NewApiKeyRepository(db)
	deviceRepo := repositories.NewDeviceRepository(db)
	webhookRepo := repositories.NewWebhookRepository(db)
	rotationRepo := repositories.NewWebhookRotationRepository(db)
	executionRepo := repositories.NewExecutionRepository(db)
	analyticsRepo := repositories.NewAnalyticsRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)
	rateLimitRepo := repositories.NewRateLimitRepository(db)

	// Initialize usecases
	recorder := usecases.NewExecutionRecorder(executionRepo, analyticsRepo, auditRepo)
	resolver := usecases.NewCredentialResolver(userRepo, sessionRepo, apiKeyRepo, jwtService)
	gate := usecases.NewWebhookGate(webhookRepo, resolver, encryptionKey)
	limiter := usecases.NewRateLimiter(rateLimitRepo, cfg.RateLimit.Window)
	dispatcher := push.NewHTTPDispatcher(&cfg.Push)

	orchestrator := usecases.NewTriggerOrchestrator(
		gate, limiter, recorder,
		webhookRepo, rotationRepo, deviceRepo, analyticsRepo,
		dispatcher,
		usecases.TriggerPolicy{
			MaxPayloadBytes:  cfg.Trigger.MaxPayloadBytes,
			MaxRequests:      int64(cfg.RateLimit.MaxRequests),
			AnonymousMax:     int64(cfg.RateLimit.AnonymousMax),
			SecretEncryption: encryptionKey,
		},
	)
	authUsecase := usecases.NewAuthUsecase(userRepo, sessionRepo, recorder, jwtService, cfg.Security.SessionExpiry)
	deviceUsecase := usecases.NewDeviceUsecase(deviceRepo, recorder, encryptionKey)
	webhookUsecase := usecases.NewWebhookUsecase(webhookRepo, deviceRepo, recorder, encryptionKey)
	apiKeyUsecase := usecases.NewApiKeyUsecase(apiKeyRepo, recorder)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authUsecase)
	deviceHandler := handlers.NewDeviceHandler(deviceUsecase)
	webhookHandler := handlers.NewWebhookHandler(webhookUsecase, orchestrator)
	apiKeyHandler := handlers.NewApiKeyHandler(apiKeyUsecase)
	triggerHandler := handlers.NewTriggerHandler(orchestrator, cfg.Trigger.MaxPayloadBytes)

	authMiddleware := middleware.AuthMiddleware(resolver, "")

	// Start background jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanupJob := jobs.NewRateLimitCleanupJob(rateLimitRepo, cfg.RateLimit.CleanupPeriod, cfg.RateLimit.Window)
	go cleanupJob.Start(ctx)

	// Initialize router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	registerMetricsRoute(r)
	registerAPIV1Routes(r, routeDeps{
		authHandler:    authHandler,
		deviceHandler:  deviceHandler,
		webhookHandler: webhookHandler,
		apiKeyHandler:  apiKeyHandler,
		triggerHandler: triggerHandler,
		authMiddleware: authMiddleware,
	})

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("🛑 Shutting down server...")
		cleanupJob.Stop()
		cancel()
	}()

	log.Printf("🚀 Shortcut Relay Backend starting on port %s", cfg.Server.Port)
	log.Printf("📚 API: http://localhost:%s/api/v1", cfg.Server.Port)
	log.Printf("❤️ Health: http://localhost:%s/health", cfg.Server.Port)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
