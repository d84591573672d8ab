package auth

import (
	"context"
	"fmt"

	"github.com/dutch3883/th-stray-sub000/internal/repository"
)

// Role determines which operations a caller may invoke.
type Role string

const (
	RoleReporter Role = "reporter"
	RoleRescuer  Role = "rescuer"
	RoleAdmin    Role = "admin"
)

// Valid reports whether the role is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleReporter, RoleRescuer, RoleAdmin:
		return true
	}
	return false
}

// Operator reports whether the role has global report visibility.
func (r Role) Operator() bool {
	return r == RoleRescuer || r == RoleAdmin
}

// RoleResolver maps a verified subject to a role. Injected as a
// dependency; the gate never reaches into ambient global state.
type RoleResolver interface {
	Resolve(ctx context.Context, subject, email string, claimed Role) (Role, error)
}

// roleResolver resolves against the override table first, then the
// token's role claim, then falls back to reporter.
type roleResolver struct {
	overrides repository.RoleOverrideRepository
}

// NewRoleResolver creates the override-table-backed resolver.
func NewRoleResolver(overrides repository.RoleOverrideRepository) RoleResolver {
	return &roleResolver{overrides: overrides}
}

// Resolve returns the caller's effective role.
func (r *roleResolver) Resolve(ctx context.Context, subject, email string, claimed Role) (Role, error) {
	if subject == "" {
		return "", ErrUnauthenticated
	}
	if email != "" {
		override, err := r.overrides.FindByEmail(ctx, email)
		if err != nil {
			return "", fmt.Errorf("failed to look up role override: %w", err)
		}
		if override != nil {
			role := Role(override.Role)
			if !role.Valid() {
				return "", fmt.Errorf("role override for %s holds unknown role %q", email, override.Role)
			}
			return role, nil
		}
	}
	if claimed.Valid() {
		return claimed, nil
	}
	return RoleReporter, nil
}
