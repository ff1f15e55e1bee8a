package models

import "database/sql"

// Finance table column names, in schema order.
const (
	FinanceColumnID         = "id"
	FinanceColumnCompany    = "company"
	FinanceColumnRevenue    = "revenue"
	FinanceColumnProfit     = "profit"
	FinanceColumnStockPrice = "stock_price"
	FinanceColumnUserRole   = "user_role"
)

// FinanceColumns lists every column of the finance table in schema order.
var FinanceColumns = []string{
	FinanceColumnID,
	FinanceColumnCompany,
	FinanceColumnRevenue,
	FinanceColumnProfit,
	FinanceColumnStockPrice,
	FinanceColumnUserRole,
}

// FinanceRecord is one row of the finance table. Columns excluded by a
// policy's allow-list come back as invalid (NULL-like) values.
type FinanceRecord struct {
	ID         sql.NullInt64   `json:"id" db:"id"`
	Company    sql.NullString  `json:"company" db:"company"`
	Revenue    sql.NullFloat64 `json:"revenue" db:"revenue"`
	Profit     sql.NullFloat64 `json:"profit" db:"profit"`
	StockPrice sql.NullFloat64 `json:"stock_price" db:"stock_price"`
	UserRole   sql.NullString  `json:"user_role" db:"user_role"`
}

// TableName returns the table name for the FinanceRecord model.
func (FinanceRecord) TableName() string {
	return "finance"
}
