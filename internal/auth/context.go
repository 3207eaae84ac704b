package auth

import "context"

type contextKey struct{}

// Roles carried by a session.
const (
	RoleGuardian = "guardian"
	RoleSenior   = "senior"
)

type AuthContext struct {
	GuardianID int64
	SeniorID   int64
	Role       string
	SessionID  int64
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func GuardianID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.GuardianID
}

func SeniorID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.SeniorID
}

func IsGuardian(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	return ok && ac.Role == RoleGuardian
}
