package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"fluxodocs/internal/models"
	"fluxodocs/internal/repository"
	"fluxodocs/pkg/auth"
	"fluxodocs/pkg/config"
	"fluxodocs/pkg/logger"
	"fluxodocs/pkg/postgres"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Seeds a demo team with a few contracts so uploaded receivables and expenses
// have something to link against, and prints a ready-to-use bearer token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	contractRepo := repository.NewContractRepository(db, appLogger)

	teamID := uuid.New()
	userID := uuid.New()
	now := time.Now()

	contracts := []*models.Contract{
		{
			ID:          uuid.New(),
			TeamID:      teamID,
			ClientName:  "Construtora Horizonte",
			ProjectName: "Reforma Sede",
			Description: "Reforma completa do escritório central",
			TotalValue:  185000,
			SignedDate:  now.AddDate(0, -3, 0),
			Status:      models.ContractStatusActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          uuid.New(),
			TeamID:      teamID,
			ClientName:  "Padaria São José",
			ProjectName: "Sistema de Pedidos",
			Description: "Desenvolvimento de sistema de pedidos online",
			TotalValue:  42000,
			SignedDate:  now.AddDate(0, -1, -10),
			Status:      models.ContractStatusActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          uuid.New(),
			TeamID:      teamID,
			ClientName:  "Clínica Bem Estar",
			ProjectName: "Identidade Visual",
			Description: "Rebranding e materiais de divulgação",
			TotalValue:  18500,
			SignedDate:  now.AddDate(-1, 2, 0),
			Status:      models.ContractStatusCompleted,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}

	if err := contractRepo.CreateBatch(ctx, contracts); err != nil {
		appLogger.Fatal("Failed to seed contracts", zap.Error(err))
	}
	appLogger.Info("Seeded demo contracts",
		zap.String("team_id", teamID.String()),
		zap.Int("contracts", len(contracts)),
	)

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration)
	token, err := jwtManager.GenerateToken(userID.String(), teamID.String(), "demo@fluxodocs.com")
	if err != nil {
		appLogger.Fatal("Failed to generate token", zap.Error(err))
	}

	fmt.Printf("Team ID: %s\n", teamID)
	fmt.Printf("Bearer token:\n%s\n", token)
}
