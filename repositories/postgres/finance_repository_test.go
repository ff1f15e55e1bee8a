package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockRepo(t *testing.T) (*FinanceRepository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := &DB{DB: mockDB, logger: zap.NewNop()}
	return &FinanceRepository{db: db, logger: zap.NewNop()}, mock
}

func TestQuery_UnrestrictedPolicy(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows(models.FinanceColumns).
		AddRow(1, "IBM", 75000.0, 5000.0, 145.32, "restricted").
		AddRow(7, "Tesla", 123000.0, 15500.0, 199.35, "public")
	mock.ExpectQuery("SELECT id, company, revenue, profit, stock_price, user_role FROM finance ORDER BY id").
		WillReturnRows(rows)

	records, err := repo.Query(context.Background(), models.UnrestrictedPolicy())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "IBM", records[0].Company.String)
	assert.Equal(t, 75000.0, records[0].Revenue.Float64)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_RowRestrictedPolicy(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows(models.FinanceColumns).
		AddRow(1, "IBM", 75000.0, 5000.0, 145.32, "restricted")
	mock.ExpectQuery("SELECT id, company, revenue, profit, stock_price, user_role FROM finance WHERE user_role = $1 ORDER BY id").
		WithArgs("restricted").
		WillReturnRows(rows)

	policy := models.DataAccessPolicy{
		RowFilter:          models.RowFilterRestrictedOnly,
		ExternalAPIEnabled: true,
	}
	records, err := repo.Query(context.Background(), policy)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "restricted", records[0].UserRole.String)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_ColumnAllowList(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"company", "stock_price"}).
		AddRow("IBM", 145.32).
		AddRow("Apple", 179.95)
	mock.ExpectQuery("SELECT company, stock_price FROM finance ORDER BY id").
		WillReturnRows(rows)

	policy := models.DataAccessPolicy{
		RowFilter:          models.RowFilterAll,
		ColumnAllowList:    []string{"company", "stock_price"},
		ExternalAPIEnabled: true,
	}
	records, err := repo.Query(context.Background(), policy)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "IBM", records[0].Company.String)
	assert.True(t, records[0].StockPrice.Valid)
	// Columns outside the projection stay invalid.
	assert.False(t, records[0].Revenue.Valid)
	assert.False(t, records[0].Profit.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_DenyAllSkipsDatabase(t *testing.T) {
	repo, mock := newMockRepo(t)

	records, err := repo.Query(context.Background(), models.DenyAllPolicy())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_InvalidAllowListColumn(t *testing.T) {
	repo, _ := newMockRepo(t)

	policy := models.DataAccessPolicy{
		RowFilter:       models.RowFilterAll,
		ColumnAllowList: []string{"company; DROP TABLE finance"},
	}
	_, err := repo.Query(context.Background(), policy)
	assert.Error(t, err)
}

func TestQueryByCompany(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows(models.FinanceColumns).
		AddRow(1, "IBM", 75000.0, 5000.0, 145.32, "restricted")
	mock.ExpectQuery("SELECT id, company, revenue, profit, stock_price, user_role FROM finance WHERE company = $1 ORDER BY id").
		WithArgs("IBM").
		WillReturnRows(rows)

	records, err := repo.QueryByCompany(context.Background(), models.UnrestrictedPolicy(), "IBM")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryByCompany_RowRestricted(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows(models.FinanceColumns)
	mock.ExpectQuery("SELECT id, company, revenue, profit, stock_price, user_role FROM finance WHERE user_role = $1 AND company = $2 ORDER BY id").
		WithArgs("restricted", "Tesla").
		WillReturnRows(rows)

	policy := models.DataAccessPolicy{RowFilter: models.RowFilterRestrictedOnly}
	records, err := repo.QueryByCompany(context.Background(), policy, "Tesla")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}
