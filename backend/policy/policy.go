// Package policy is the single source of truth for role checks. Every route
// declares its required roles here instead of comparing role strings inline.
package policy

import (
	"strings"

	"tektongeo/backend/models"
)

const (
	RoleSuperAdmin = "super-admin"
	RoleAdmin      = "admin"
	RoleEncoder    = "encoder"
	RoleResearcher = "researcher"
)

// MarkerEditors are the roles allowed to mutate markers. Researchers are
// read-only on purpose.
var MarkerEditors = []string{RoleEncoder, RoleAdmin}

type Policy struct {
	superAdminEmail string
}

func New(superAdminEmail string) *Policy {
	return &Policy{superAdminEmail: strings.ToLower(strings.TrimSpace(superAdminEmail))}
}

// IsSuperAdmin reports whether the user is the distinguished super-admin
// identity, matched by its fixed email.
func (p *Policy) IsSuperAdmin(u *models.User) bool {
	return u != nil && strings.EqualFold(u.Email, p.superAdminEmail)
}

// Authorize reports whether the user may perform an operation restricted to
// the given roles. The super-admin identity passes every check, even when its
// nominal role would not qualify.
func (p *Policy) Authorize(u *models.User, required ...string) bool {
	if u == nil {
		return false
	}
	if p.IsSuperAdmin(u) {
		return true
	}
	for _, r := range required {
		if u.Role == r {
			return true
		}
	}
	return false
}

// Immutable reports whether the user may not be the target of a mutating
// admin operation. The super-admin identity can never be role-changed,
// disabled, updated or deleted, regardless of who asks.
func (p *Policy) Immutable(u *models.User) bool {
	return p.IsSuperAdmin(u)
}

// AssignableRole reports whether a role may be granted through admin
// management. The super-admin role is never assignable.
func AssignableRole(role string) bool {
	switch role {
	case RoleAdmin, RoleEncoder, RoleResearcher:
		return true
	}
	return false
}
