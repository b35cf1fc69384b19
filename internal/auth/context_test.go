package auth

import (
	"context"
	"testing"

	"meritboard/internal/model"
)

func TestFromContextMissing(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("expected ok=false on empty context")
	}
	if id := UserID(context.Background()); id != 0 {
		t.Errorf("UserID = %d, want 0", id)
	}
	if CanManage(context.Background()) {
		t.Error("CanManage must be false without auth")
	}
}

func TestRoundTrip(t *testing.T) {
	ac := AuthContext{UserID: 7, Username: "dina", Role: model.RoleCoLeader, SessionID: 3}
	ctx := WithAuth(context.Background(), ac)

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if got != ac {
		t.Errorf("got %+v, want %+v", got, ac)
	}
	if Username(ctx) != "dina" {
		t.Errorf("Username = %q", Username(ctx))
	}
}

func TestRoleChecks(t *testing.T) {
	tests := []struct {
		role      string
		root      bool
		leader    bool
		canManage bool
	}{
		{model.RoleLeader, false, true, true},
		{model.RoleLeader, true, true, true},
		{model.RoleCoLeader, false, false, true},
		{model.RoleVisor, false, false, false},
	}
	for _, tt := range tests {
		ctx := WithAuth(context.Background(), AuthContext{UserID: 1, Role: tt.role, Root: tt.root})
		if IsLeader(ctx) != tt.leader {
			t.Errorf("role %s: IsLeader = %v, want %v", tt.role, IsLeader(ctx), tt.leader)
		}
		if CanManage(ctx) != tt.canManage {
			t.Errorf("role %s: CanManage = %v, want %v", tt.role, CanManage(ctx), tt.canManage)
		}
		if IsRoot(ctx) != tt.root {
			t.Errorf("role %s: IsRoot = %v, want %v", tt.role, IsRoot(ctx), tt.root)
		}
	}
}
