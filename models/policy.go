package models

// RowFilter tags which rows of the finance table a policy exposes.
type RowFilter string

const (
	// RowFilterAll exposes every row.
	RowFilterAll RowFilter = "all"
	// RowFilterRestrictedOnly exposes only rows tagged user_role = 'restricted'.
	RowFilterRestrictedOnly RowFilter = "restricted-only"
	// RowFilterNone exposes no rows at all.
	RowFilterNone RowFilter = "none"
)

// DataAccessPolicy is the resolved set of visibility restrictions for a role
// set. It is a pure function of the roles that produced it: identical role
// sets always yield identical policies. Values are never mutated after
// construction.
type DataAccessPolicy struct {
	RowFilter          RowFilter
	ColumnAllowList    []string // ordered; empty means all columns
	MaskedFields       []string // redacted post-fetch, before display
	ExternalAPIEnabled bool
}

// UnrestrictedPolicy returns the policy granted to admin-marked role sets:
// every row, every column, nothing masked, external APIs enabled.
func UnrestrictedPolicy() DataAccessPolicy {
	return DataAccessPolicy{
		RowFilter:          RowFilterAll,
		ExternalAPIEnabled: true,
	}
}

// DenyAllPolicy returns the most restrictive default: no rows visible and no
// external API access. Resolved for empty or wholly-unrecognized role sets.
func DenyAllPolicy() DataAccessPolicy {
	return DataAccessPolicy{
		RowFilter:          RowFilterNone,
		ExternalAPIEnabled: false,
	}
}

// IsUnrestricted reports whether the policy imposes no restriction at all.
func (p DataAccessPolicy) IsUnrestricted() bool {
	return p.RowFilter == RowFilterAll &&
		len(p.ColumnAllowList) == 0 &&
		len(p.MaskedFields) == 0 &&
		p.ExternalAPIEnabled
}

// MasksField reports whether the named field must be redacted before display.
func (p DataAccessPolicy) MasksField(field string) bool {
	for _, f := range p.MaskedFields {
		if f == field {
			return true
		}
	}
	return false
}
