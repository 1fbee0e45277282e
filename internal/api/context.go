package api

import (
	"context"

	"github.com/fundnetwork/memberportal/internal/survey"
)

// roleContextKey is the context key for the caller's resolved role.
type roleContextKey struct{}

// WithRole returns a new context with the caller's role attached.
func WithRole(ctx context.Context, role survey.Role) context.Context {
	return context.WithValue(ctx, roleContextKey{}, role)
}

// RoleFromContext extracts the caller's role from the context.
// Returns RoleViewer if no role was resolved.
func RoleFromContext(ctx context.Context) survey.Role {
	role, ok := ctx.Value(roleContextKey{}).(survey.Role)
	if !ok || role == survey.RoleUnknown {
		return survey.RoleViewer
	}
	return role
}
