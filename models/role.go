package models

import "sort"

// Role is an opaque label granting or restricting data visibility.
type Role string

// Role markers recognized by the access resolver.
const (
	RoleAdmin            Role = "admin"
	RoleFullDataAccess   Role = "full_data_access"
	RoleRestricted       Role = "restricted"
	RoleRestrictedDB     Role = "restricted_db"
	RoleRowRestricted    Role = "row_restricted"
	RoleLimitedAPIAccess Role = "limited_api_access"
	RoleMaskData         Role = "mask_data"
)

// RoleSet is an unordered collection of roles. Duplicates collapse.
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet from a list of labels.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Has reports whether the set contains the given role.
func (s RoleSet) Has(role Role) bool {
	_, ok := s[role]
	return ok
}

// HasAny reports whether the set contains any of the given roles.
func (s RoleSet) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Labels returns the roles as a sorted slice, for logging and error messages.
func (s RoleSet) Labels() []string {
	labels := make([]string, 0, len(s))
	for r := range s {
		labels = append(labels, string(r))
	}
	sort.Strings(labels)
	return labels
}

// UserRoleAssignment maps a username to the roles it holds. Loaded once from
// the role file and immutable for the duration of a run.
type UserRoleAssignment struct {
	Username string `yaml:"username" validate:"required"`
	Roles    []Role `yaml:"roles"`
}

// RoleSet collapses the assignment's role list into a set.
func (a UserRoleAssignment) RoleSet() RoleSet {
	return NewRoleSet(a.Roles...)
}
