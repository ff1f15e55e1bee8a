package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// seedRow is one canonical finance record for the demo dataset.
type seedRow struct {
	Company    string
	Revenue    float64
	Profit     float64
	StockPrice float64
	UserRole   string
}

var seedData = []seedRow{
	{"IBM", 75000, 5000, 145.32, "restricted"},
	{"Apple", 394000, 99900, 179.95, "restricted"},
	{"Microsoft", 211000, 72000, 314.10, "restricted"},
	{"Google", 280000, 76000, 2801.12, "restricted"},
	{"Amazon", 502000, 33000, 142.92, "restricted"},
	{"Meta", 117000, 39000, 302.56, "restricted"},
	{"Tesla", 123000, 15500, 199.35, "public"},
	{"Netflix", 35000, 5400, 412.75, "public"},
	{"Nvidia", 26000, 9600, 450.99, "public"},
	{"Samsung", 244000, 41000, 70.10, "public"},
}

// InitSchema drops and recreates the finance table.
func (db *DB) InitSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS finance"); err != nil {
		return fmt.Errorf("failed to drop finance table: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS finance (
			id SERIAL PRIMARY KEY,
			company TEXT,
			revenue REAL,
			profit REAL,
			stock_price REAL,
			user_role TEXT
		)
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create finance table: %w", err)
	}

	db.logger.Info("finance schema initialized")
	return nil
}

// SeedFinanceData inserts the canonical demo records.
func (db *DB) SeedFinanceData(ctx context.Context) error {
	query := `
		INSERT INTO finance (company, revenue, profit, stock_price, user_role)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, row := range seedData {
		if _, err := db.ExecContext(ctx, query,
			row.Company,
			row.Revenue,
			row.Profit,
			row.StockPrice,
			row.UserRole,
		); err != nil {
			return fmt.Errorf("failed to seed finance row for %s: %w", row.Company, err)
		}
	}

	db.logger.Info("finance table seeded", zap.Int("rows", len(seedData)))
	return nil
}
