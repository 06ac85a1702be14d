package auth

import "context"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
	RoleCashier Role = "cashier"
)

// Supervises reports whether the role may act on other cashiers' data.
func (r Role) Supervises() bool {
	return r == RoleAdmin || r == RoleManager
}

// Identity is the caller as resolved by the auth service.
type Identity struct {
	Username string `json:"username"`
	Role     Role   `json:"userRole"`
	// Token is the caller's bearer token, forwarded on service-to-service calls.
	Token string `json:"-"`
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
