// Package presenter renders fetched data for display. Masking happens here,
// strictly after fetch: it is a display-time transform, not an access
// restriction.
package presenter

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/models"
	"go.uber.org/zap"
)

// MaskPlaceholder replaces the value of every masked field.
const MaskPlaceholder = "[masked]"

// NoRecordsSentinel is rendered when a query returns no visible rows.
const NoRecordsSentinel = "No finance records visible."

// Presenter formats finance records and conversation output.
type Presenter struct {
	logger *zap.Logger
}

// NewPresenter creates a new Presenter
func NewPresenter(logger *zap.Logger) *Presenter {
	return &Presenter{logger: logger}
}

// RenderRecords renders records as one line per row, applying the policy's
// field masking. Only columns present in the fetched projection appear.
func (p *Presenter) RenderRecords(records []models.FinanceRecord, policy models.DataAccessPolicy) string {
	if len(records) == 0 {
		return NoRecordsSentinel
	}

	masked := 0
	lines := make([]string, 0, len(records))
	for _, record := range records {
		fields := make([]string, 0, len(models.FinanceColumns))
		for _, col := range models.FinanceColumns {
			value, ok := fieldValue(record, col)
			if !ok {
				continue
			}
			if policy.MasksField(col) {
				value = MaskPlaceholder
				masked++
			}
			fields = append(fields, fmt.Sprintf("%s: %s", col, value))
		}
		lines = append(lines, strings.Join(fields, ", "))
	}

	if masked > 0 {
		p.logger.Debug("masked fields in rendered records",
			zap.Int("fields", masked),
			zap.Strings("masked_fields", policy.MaskedFields))
	}

	return strings.Join(lines, "\n")
}

// fieldValue returns the rendered value for one column of a record, or
// ok=false when the column was outside the fetched projection.
func fieldValue(record models.FinanceRecord, column string) (string, bool) {
	switch column {
	case models.FinanceColumnID:
		if !record.ID.Valid {
			return "", false
		}
		return strconv.FormatInt(record.ID.Int64, 10), true
	case models.FinanceColumnCompany:
		if !record.Company.Valid {
			return "", false
		}
		return record.Company.String, true
	case models.FinanceColumnRevenue:
		return floatValue(record.Revenue)
	case models.FinanceColumnProfit:
		return floatValue(record.Profit)
	case models.FinanceColumnStockPrice:
		return floatValue(record.StockPrice)
	case models.FinanceColumnUserRole:
		if !record.UserRole.Valid {
			return "", false
		}
		return record.UserRole.String, true
	}
	return "", false
}

func floatValue(v sql.NullFloat64) (string, bool) {
	if !v.Valid {
		return "", false
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64), true
}
