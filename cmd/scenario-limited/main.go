// Command scenario-limited runs the role-gated demo: the user's roles are
// loaded from the role file, resolved into a data-access policy, and the
// collector tasks are issued through that policy's gates.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/access"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/config"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/internal/observability"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/repositories/postgres"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/roles"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/services/agent"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/services/market"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/services/presenter"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/services/scenario"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/services/search"
	"go.uber.org/zap"
)

// currentUser selects which role assignment drives the run.
const currentUser = "user_b"

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

	// The role file is configuration: a missing or malformed file aborts
	// before any network call.
	roleFile, err := roles.Load(cfg.Access.RoleFilePath)
	if err != nil {
		logger.Fatal("failed to load role file", zap.Error(err))
	}

	db, err := postgres.NewDB(cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	agents, err := agent.NewAzureAgent(cfg.Azure, logger)
	if err != nil {
		logger.Fatal("failed to build agent client", zap.Error(err))
	}

	service := scenario.NewService(
		agents,
		postgres.NewFinanceRepository(db, logger),
		market.NewClient(cfg.Providers.AlphaVantage, logger),
		search.NewClient(cfg.Providers.Serper, logger),
		presenter.NewPresenter(logger),
		access.NewResolver(access.UnknownRoleMode(cfg.Access.UnknownRoleMode), logger),
		cfg.Azure.Deployment,
		logger,
	)

	report, err := service.RunLimited(ctx, currentUser, roleFile.RolesFor(currentUser))
	if err != nil {
		logger.Fatal("scenario run failed", zap.Error(err))
	}

	fmt.Println(report.Conversation)
}
