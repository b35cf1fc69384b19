package auth

import (
	"context"

	"meritboard/internal/model"
)

type contextKey struct{}

// AuthContext carries the authenticated user through a request.
type AuthContext struct {
	UserID    int64
	Username  string
	Role      string
	Root      bool
	SessionID int64
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}

func Username(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.Username
}

// IsLeader reports whether the request is from a leader account.
func IsLeader(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	return ok && ac.Role == model.RoleLeader
}

// IsRoot reports whether the request is from the bootstrap leader, the only
// account allowed to manage other leader accounts.
func IsRoot(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	return ok && ac.Root
}

// CanManage reports whether the role may create or edit members and points.
// Visors are read-only.
func CanManage(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.Role == model.RoleLeader || ac.Role == model.RoleCoLeader
}
