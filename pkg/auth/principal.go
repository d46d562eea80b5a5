package auth

import "context"

// Roles understood by the orchestrator.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
}

// IsAdmin reports whether the caller has the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// System is the principal used by scheduled sweeps.
var System = Principal{UserID: 0, Role: RoleAdmin}

type ctxKey int

const principalKey ctxKey = 1

// WithPrincipal stores p on ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal stored on ctx.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
