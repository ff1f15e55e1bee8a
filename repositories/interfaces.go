// Package repositories defines data access interfaces for the finance store.
package repositories

import (
	"context"

	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/models"
)

// FinanceRepository reads the finance table through a data-access policy.
// One request/response round trip per call: no retries, no pagination, no
// caching.
type FinanceRepository interface {
	// Query returns the rows visible under the policy, with the policy's
	// column projection applied at the source. A deny-all policy returns no
	// rows without touching the database.
	Query(ctx context.Context, policy models.DataAccessPolicy) ([]models.FinanceRecord, error)

	// QueryByCompany returns the rows for one company visible under the policy.
	QueryByCompany(ctx context.Context, policy models.DataAccessPolicy, company string) ([]models.FinanceRecord, error)
}
