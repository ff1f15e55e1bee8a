package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/models"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/repositories"
	"go.uber.org/zap"
)

// FinanceRepository implements repositories.FinanceRepository against the
// Neon finance table. The data-access policy drives both the column
// projection and the row predicate of the single SELECT it issues.
type FinanceRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewFinanceRepository creates a new finance repository
func NewFinanceRepository(db *DB, logger *zap.Logger) repositories.FinanceRepository {
	return &FinanceRepository{
		db:     db,
		logger: logger,
	}
}

// Query returns the rows visible under the policy.
func (r *FinanceRepository) Query(ctx context.Context, policy models.DataAccessPolicy) ([]models.FinanceRecord, error) {
	return r.query(ctx, policy, "")
}

// QueryByCompany returns the rows for one company visible under the policy.
func (r *FinanceRepository) QueryByCompany(ctx context.Context, policy models.DataAccessPolicy, company string) ([]models.FinanceRecord, error) {
	return r.query(ctx, policy, company)
}

func (r *FinanceRepository) query(ctx context.Context, policy models.DataAccessPolicy, company string) ([]models.FinanceRecord, error) {
	// A deny-all policy returns nothing; no reason for a round trip.
	if policy.RowFilter == models.RowFilterNone {
		r.logger.Debug("row filter denies all rows, skipping query")
		return []models.FinanceRecord{}, nil
	}

	columns, err := projection(policy)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM finance", strings.Join(columns, ", "))

	var args []interface{}
	var predicates []string
	if policy.RowFilter == models.RowFilterRestrictedOnly {
		args = append(args, "restricted")
		predicates = append(predicates, fmt.Sprintf("user_role = $%d", len(args)))
	}
	if company != "" {
		args = append(args, company)
		predicates = append(predicates, fmt.Sprintf("company = $%d", len(args)))
	}
	if len(predicates) > 0 {
		query += " WHERE " + strings.Join(predicates, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query finance data: %w", err)
	}
	defer rows.Close()

	records := make([]models.FinanceRecord, 0)
	for rows.Next() {
		var record models.FinanceRecord
		targets, err := scanTargets(&record, columns)
		if err != nil {
			return nil, err
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("failed to scan finance row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read finance rows: %w", err)
	}

	r.logger.Debug("finance query executed",
		zap.Strings("columns", columns),
		zap.String("row_filter", string(policy.RowFilter)),
		zap.Int("rows", len(records)))

	return records, nil
}

// projection returns the columns to select under the policy, validated
// against the schema so an allow-list can never smuggle SQL.
func projection(policy models.DataAccessPolicy) ([]string, error) {
	if len(policy.ColumnAllowList) == 0 {
		return models.FinanceColumns, nil
	}
	columns := make([]string, 0, len(policy.ColumnAllowList))
	for _, col := range policy.ColumnAllowList {
		if !isFinanceColumn(col) {
			return nil, fmt.Errorf("unknown finance column in allow list: %q", col)
		}
		columns = append(columns, col)
	}
	return columns, nil
}

func isFinanceColumn(name string) bool {
	for _, col := range models.FinanceColumns {
		if col == name {
			return true
		}
	}
	return false
}

func scanTargets(record *models.FinanceRecord, columns []string) ([]interface{}, error) {
	targets := make([]interface{}, 0, len(columns))
	for _, col := range columns {
		switch col {
		case models.FinanceColumnID:
			targets = append(targets, &record.ID)
		case models.FinanceColumnCompany:
			targets = append(targets, &record.Company)
		case models.FinanceColumnRevenue:
			targets = append(targets, &record.Revenue)
		case models.FinanceColumnProfit:
			targets = append(targets, &record.Profit)
		case models.FinanceColumnStockPrice:
			targets = append(targets, &record.StockPrice)
		case models.FinanceColumnUserRole:
			targets = append(targets, &record.UserRole)
		default:
			return nil, fmt.Errorf("unknown finance column: %q", col)
		}
	}
	return targets, nil
}
