// Package access maps a user's role set to a data-visibility policy. This is
// the decision core of the repo: everything downstream (query building,
// masking, API gating) only consumes the policy it produces.
package access

import (
	"fmt"
	"strings"

	"github.com/neondatabase-labs/neon-azure-secure-ai-agent-data-access/models"
	"go.uber.org/zap"
)

// UnknownRoleMode selects how the resolver treats role labels it does not
// recognize.
type UnknownRoleMode string

const (
	// UnknownRoleIgnore drops unrecognized labels silently. A role set with
	// no recognized marker at all resolves to the deny-all default.
	UnknownRoleIgnore UnknownRoleMode = "ignore"
	// UnknownRoleReject makes Resolve return an error naming the labels.
	UnknownRoleReject UnknownRoleMode = "reject"
)

// RestrictedColumns is the projection granted by the restricted_db marker.
var RestrictedColumns = []string{
	models.FinanceColumnCompany,
	models.FinanceColumnStockPrice,
}

// SensitiveFields are the fields redacted by the mask_data marker.
var SensitiveFields = []string{
	models.FinanceColumnRevenue,
	models.FinanceColumnProfit,
}

// Resolver derives DataAccessPolicy values from role sets. The zero value is
// not usable; construct with NewResolver.
type Resolver struct {
	mode   UnknownRoleMode
	logger *zap.Logger
}

// NewResolver creates a Resolver with the given unknown-role mode.
func NewResolver(mode UnknownRoleMode, logger *zap.Logger) *Resolver {
	if mode == "" {
		mode = UnknownRoleIgnore
	}
	return &Resolver{
		mode:   mode,
		logger: logger,
	}
}

// Resolve computes the data-access policy for a role set.
//
// Precedence, highest first:
//  1. admin or full_data_access grants the unrestricted policy outright.
//  2. Otherwise restrictions accumulate: row_restricted narrows the row
//     filter, restricted_db narrows the projection, mask_data redacts the
//     sensitive fields, and restricted or limited_api_access disables the
//     external APIs.
//  3. A set with no recognized marker resolves to the deny-all default.
//
// Resolve is a pure function of its input: no hidden state, no
// time-dependence, identical sets yield identical policies.
func (r *Resolver) Resolve(roles models.RoleSet) (models.DataAccessPolicy, error) {
	if unknown := unknownRoles(roles); len(unknown) > 0 {
		if r.mode == UnknownRoleReject {
			return models.DenyAllPolicy(), fmt.Errorf("unknown roles: %s", strings.Join(unknown, ", "))
		}
		r.logger.Warn("ignoring unknown roles",
			zap.Strings("roles", unknown))
	}

	if roles.HasAny(models.RoleAdmin, models.RoleFullDataAccess) {
		return models.UnrestrictedPolicy(), nil
	}

	policy := models.DataAccessPolicy{
		RowFilter:          models.RowFilterAll,
		ExternalAPIEnabled: true,
	}
	recognized := false

	if roles.Has(models.RoleRowRestricted) {
		policy.RowFilter = models.RowFilterRestrictedOnly
		recognized = true
	}
	if roles.Has(models.RoleRestrictedDB) {
		policy.ColumnAllowList = append([]string(nil), RestrictedColumns...)
		recognized = true
	}
	if roles.Has(models.RoleMaskData) {
		policy.MaskedFields = append([]string(nil), SensitiveFields...)
		recognized = true
	}
	if roles.HasAny(models.RoleRestricted, models.RoleLimitedAPIAccess) {
		policy.ExternalAPIEnabled = false
		recognized = true
	}

	if !recognized {
		return models.DenyAllPolicy(), nil
	}

	r.logger.Debug("resolved data access policy",
		zap.Strings("roles", roles.Labels()),
		zap.String("row_filter", string(policy.RowFilter)),
		zap.Strings("columns", policy.ColumnAllowList),
		zap.Strings("masked_fields", policy.MaskedFields),
		zap.Bool("external_api_enabled", policy.ExternalAPIEnabled))

	return policy, nil
}

var recognizedRoles = map[models.Role]struct{}{
	models.RoleAdmin:            {},
	models.RoleFullDataAccess:   {},
	models.RoleRestricted:       {},
	models.RoleRestrictedDB:     {},
	models.RoleRowRestricted:    {},
	models.RoleLimitedAPIAccess: {},
	models.RoleMaskData:         {},
}

func unknownRoles(roles models.RoleSet) []string {
	var unknown []string
	for _, label := range roles.Labels() {
		if _, ok := recognizedRoles[models.Role(label)]; !ok {
			unknown = append(unknown, label)
		}
	}
	return unknown
}
