package domain

import "slices"

// Role codes.
const (
	RoleAdmin   = "admin"
	RoleTrainer = "trainer"
	RoleTrainee = "trainee"
)

// ValidRole reports whether code is one of the known role codes.
func ValidRole(code string) bool {
	switch code {
	case RoleAdmin, RoleTrainer, RoleTrainee:
		return true
	}
	return false
}

// Principal is the authenticated caller. It is decoded from the bearer token by the HTTP layer
// and passed explicitly to every service operation that needs to know who is acting.
type Principal struct {
	UserID string
	Email  string
	Roles  []string
}

// HasRole reports whether the principal carries the given role.
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.Roles, role)
}

// IsAdmin is shorthand for HasRole(RoleAdmin).
func (p *Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// CanManagePrograms reports whether the principal may create programs and events.
func (p *Principal) CanManagePrograms() bool {
	return p.HasRole(RoleAdmin) || p.HasRole(RoleTrainer)
}
