package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fluxodocs/internal/api"
	"fluxodocs/internal/api/handlers"
	"fluxodocs/internal/repository"
	"fluxodocs/internal/service"
	"fluxodocs/pkg/auth"
	"fluxodocs/pkg/config"
	"fluxodocs/pkg/logger"
	"fluxodocs/pkg/postgres"

	"go.uber.org/zap"
)

// @title FluxoDocs API
// @version 1.0
// @description Extraction of contracts, receivables and expenses from uploaded financial documents
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@fluxodocs.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting FluxoDocs service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	contractRepo := repository.NewContractRepository(db, appLogger)
	receivableRepo := repository.NewReceivableRepository(db, appLogger)
	expenseRepo := repository.NewExpenseRepository(db, appLogger)
	auditRepo := repository.NewAuditRepository(db, appLogger)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration)

	// Initialize services
	llmService, err := service.NewLLMService(&cfg.GigaChat, &cfg.Pipeline, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize LLM service", zap.Error(err))
	}
	defer llmService.Close()

	analyzer := service.NewSheetAnalyzer(llmService, cfg.Pipeline.SampleRows, appLogger)
	transformer := service.NewDataTransformer(appLogger)
	vision := service.NewVisionExtractor(llmService, appLogger)
	creator := service.NewBulkEntityCreator(contractRepo, receivableRepo, expenseRepo, auditRepo, cfg.Pipeline.FuzzyThreshold, appLogger)
	progress := service.NewProgressService(cfg.Pipeline.ProgressTTL)
	defer progress.Close()

	processor := service.NewProcessor(analyzer, transformer, vision, creator, contractRepo, progress, &cfg.Pipeline, appLogger)

	// Initialize handlers
	uploadHandler := handlers.NewUploadHandler(processor, progress, appLogger)
	contractHandler := handlers.NewContractHandler(contractRepo, receivableRepo, appLogger)

	// Setup router
	app := api.SetupRouter(uploadHandler, contractHandler, jwtManager, &cfg.Server, appLogger)

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
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
