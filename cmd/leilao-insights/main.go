package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leilao-insights/internal/api"
	"leilao-insights/internal/api/handlers"
	"leilao-insights/internal/repository"
	"leilao-insights/internal/service"
	"leilao-insights/internal/wizard"
	"leilao-insights/pkg/auth"
	"leilao-insights/pkg/config"
	"leilao-insights/pkg/logger"
	"leilao-insights/pkg/monitoring"
	"leilao-insights/pkg/postgres"
	"leilao-insights/pkg/redis"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// @title Leilão Insights API
// @version 1.0
// @description Property auction analysis wizard: listing extraction, review, document upload and analysis submission.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Wizard session token: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level, cfg.Logger.Format); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting Leilão Insights service")

	ctx := context.Background()

	// Metrics
	telemetry, err := monitoring.New()
	if err != nil {
		appLogger.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	metrics, err := service.NewMetrics(telemetry.Meter())
	if err != nil {
		appLogger.Fatal("Failed to create instruments", zap.Error(err))
	}

	checks := map[string]handlers.HealthCheck{}

	// Backend response cache
	var cache service.ResponseCache = service.NoopCache{}
	redisClient, err := redis.NewClient(ctx, &cfg.Redis, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
		cache = service.NewRedisCache(redisClient, cfg.Cache.TTL, logger.Named("cache"))
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	backendClient := service.NewBackendClient(&cfg.Backend, cache, metrics, logger.Named("backend"))
	orchestrator := service.NewOrchestrator(backendClient, backendClient, logger.Named("orchestrator"))

	// Report archive
	var (
		archive wizard.Archiver
		reports *handlers.ReportHandler
	)
	if cfg.Database.Enabled {
		db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		reportRepo := repository.NewReportRepository(db, appLogger)
		if err := reportRepo.Migrate(ctx); err != nil {
			appLogger.Fatal("Failed to migrate reports table", zap.Error(err))
		}
		archive = reportRepo
		reports = handlers.NewReportHandler(reportRepo, appLogger)
		checks["postgres"] = db.Ping
	} else {
		appLogger.Info("Database disabled, completed analyses will not be archived")
	}

	// Wizard sessions
	store := wizard.NewStore(cfg.Session.Capacity, cfg.Session.TTL)
	wizards := wizard.NewService(store, orchestrator, archive, metrics, logger.Named("wizard"))
	jwtManager := auth.NewJWTManager(cfg.Session.SecretKey, cfg.Session.TTL)

	// Initialize handlers
	maxUpload := int64(cfg.Server.MaxUploadMB) * 1024 * 1024
	app := api.SetupRouter(api.Handlers{
		Wizard:  handlers.NewWizardHandler(wizards, jwtManager, maxUpload, appLogger),
		Reports: reports,
		Health:  handlers.NewHealthHandler(store.Len, checks, appLogger),
		Metrics: telemetry.Handler(),
	}, jwtManager, &cfg.Server, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Metrics shutdown error", zap.Error(err))
	}
}
