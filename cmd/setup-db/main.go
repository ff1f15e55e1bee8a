// Command setup-db recreates the finance table on the Neon instance and
// seeds the canonical demo records.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/config"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/internal/observability"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/models"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/repositories/postgres"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/services/presenter"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	cfg, err := config.New(ctx)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgres.NewDB(cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		logger.Fatal("failed to initialize schema", zap.Error(err))
	}
	if err := db.SeedFinanceData(ctx); err != nil {
		logger.Fatal("failed to seed finance data", zap.Error(err))
	}

	// Read back and print the seeded rows.
	repo := postgres.NewFinanceRepository(db, logger)
	records, err := repo.Query(ctx, models.UnrestrictedPolicy())
	if err != nil {
		logger.Fatal("failed to read seeded data", zap.Error(err))
	}

	fmt.Println(presenter.NewPresenter(logger).RenderRecords(records, models.UnrestrictedPolicy()))
	fmt.Printf("Neon Postgres database is set up with %d records\n", len(records))
}
