package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"meritboard/internal/model"
)

func TestUserCreate(t *testing.T) {
	env := newTestEnv(t)
	h := env.userHandler()

	r := jsonRequest(t, http.MethodPost, "/api/users", userRequest{Username: "sara", Role: model.RoleCoLeader})
	rec := httptest.NewRecorder()
	h.Create(rec, asUser(r, env.root))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var u model.User
	decodeBody(t, rec, &u)
	if u.Username != "sara" || u.Role != model.RoleCoLeader {
		t.Errorf("got %+v", u)
	}
	if !u.FirstLogin {
		t.Error("new user should be forced to change the default password")
	}
}

func TestUserCreateActiveConflict(t *testing.T) {
	env := newTestEnv(t)
	h := env.userHandler()
	env.createCoLeader(t, "sara")

	r := jsonRequest(t, http.MethodPost, "/api/users", userRequest{Username: "sara", Role: model.RoleVisor})
	rec := httptest.NewRecorder()
	h.Create(rec, asUser(r, env.root))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["code"] == "USER_INACTIVE" {
		t.Error("active conflict must not use the USER_INACTIVE code")
	}
}

func TestUserCreateInactiveConflictCode(t *testing.T) {
	env := newTestEnv(t)
	h := env.userHandler()
	co := env.createCoLeader(t, "sara")
	env.users.Deactivate(co.ID)

	r := jsonRequest(t, http.MethodPost, "/api/users", userRequest{Username: "sara", Role: model.RoleVisor})
	rec := httptest.NewRecorder()
	h.Create(rec, asUser(r, env.root))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["code"] != "USER_INACTIVE" {
		t.Errorf("code = %q, want USER_INACTIVE", resp["code"])
	}
}

func TestUserCreateLeaderRequiresRoot(t *testing.T) {
	env := newTestEnv(t)
	h := env.userHandler()

	// Promote a non-root leader and have them try to mint another leader.
	hashCo := env.createCoLeader(t, "second")
	env.users.Update(hashCo.ID, "second", model.RoleLeader)
	secondLeader, _ := env.users.GetByID(hashCo.ID)

	r := jsonRequest(t, http.MethodPost, "/api/users", userRequest{Username: "third", Role: model.RoleLeader})
	rec := httptest.NewRecorder()
	h.Create(rec, asUser(r, secondLeader))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestForceCreateFlow(t *testing.T) {
	env := newTestEnv(t)
	h := env.userHandler()

	co := env.createCoLeader(t, "sara")
	m, _ := env.members.Create("Kenan", co.ID)
	env.users.Deactivate(co.ID)

	// Arm.
	r := jsonRequest(t, http.MethodPost, "/api/users/force-create", userRequest{Username: "sara", Role: model.RoleVisor})
	rec := httptest.NewRecorder()
	h.ForceCreate(rec, asUser(r, env.root))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("arm status = %d, want 202: %s", rec.Code, rec.Body.String())
	}

	// Nothing happened yet.
	if got, _ := env.users.GetByID(co.ID); got == nil {
		t.Fatal("old account must survive until confirmation")
	}

	// A second arm while pending is rejected.
	r = jsonRequest(t, http.MethodPost, "/api/users/force-create", userRequest{Username: "sara", Role: model.RoleVisor})
	rec = httptest.NewRecorder()
	h.ForceCreate(rec, asUser(r, env.root))
	if rec.Code != http.StatusConflict {
		t.Fatalf("re-arm status = %d, want 409", rec.Code)
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["code"] != "CONFIRM_PENDING" {
		t.Errorf("code = %q, want CONFIRM_PENDING", resp["code"])
	}

	// Confirm replaces the account and removes its creations.
	r = httptest.NewRequest(http.MethodPost, "/api/users/force-create/confirm", nil)
	rec = httptest.NewRecorder()
	h.ForceCreateConfirm(rec, asUser(r, env.root))
	if rec.Code != http.StatusCreated {
		t.Fatalf("confirm status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var created model.User
	decodeBody(t, rec, &created)
	if created.Username != "sara" || created.Role != model.RoleVisor {
		t.Errorf("got %+v", created)
	}
	if created.ID == co.ID {
		t.Error("replacement must be a new account")
	}
	if got, _ := env.users.GetByID(co.ID); got != nil {
		t.Error("old account should be hard-deleted")
	}
	if got, _ := env.members.GetByID(m.ID); got != nil {
		t.Error("old account's member rows should be hard-deleted")
	}
}

func TestForceCreateCancel(t *testing.T) {
	env := newTestEnv(t)
	h := env.userHandler()

	co := env.createCoLeader(t, "sara")
	env.users.Deactivate(co.ID)

	r := jsonRequest(t, http.MethodPost, "/api/users/force-create", userRequest{Username: "sara", Role: model.RoleVisor})
	rec := httptest.NewRecorder()
	h.ForceCreate(rec, asUser(r, env.root))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("arm status = %d, want 202", rec.Code)
	}

	r = httptest.NewRequest(http.MethodPost, "/api/users/force-create/cancel", nil)
	rec = httptest.NewRecorder()
	h.ForceCreateCancel(rec, asUser(r, env.root))
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, want 200", rec.Code)
	}

	// Old account untouched, and a new arm is possible.
	if got, _ := env.users.GetByID(co.ID); got == nil {
		t.Fatal("cancel must leave the old account intact")
	}
	r = jsonRequest(t, http.MethodPost, "/api/users/force-create", userRequest{Username: "sara", Role: model.RoleVisor})
	rec = httptest.NewRecorder()
	h.ForceCreate(rec, asUser(r, env.root))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("re-arm after cancel status = %d, want 202", rec.Code)
	}
}

func TestForceCreateConfirmWithoutArm(t *testing.T) {
	env := newTestEnv(t)
	h := env.userHandler()

	r := httptest.NewRequest(http.MethodPost, "/api/users/force-create/confirm", nil)
	rec := httptest.NewRecorder()
	h.ForceCreateConfirm(rec, asUser(r, env.root))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUserDeleteGuards(t *testing.T) {
	env := newTestEnv(t)
	h := env.userHandler()
	co := env.createCoLeader(t, "sara")

	// Root cannot be deleted.
	r := httptest.NewRequest(http.MethodDelete, "/api/users/1", nil)
	r.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	h.Delete(rec, asUser(r, env.root))
	if rec.Code != http.StatusBadRequest { // also the requester's own account
		t.Fatalf("self delete status = %d, want 400", rec.Code)
	}

	// Regular delete deactivates and revokes sessions.
	sess, _ := env.sessions.Create(co.ID)
	r = httptest.NewRequest(http.MethodDelete, "/api/users/2", nil)
	r.SetPathValue("id", "2")
	rec = httptest.NewRecorder()
	h.Delete(rec, asUser(r, env.root))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	got, _ := env.users.GetByID(co.ID)
	if got.IsActive {
		t.Error("user should be deactivated")
	}
	if s, _ := env.sessions.GetByToken(sess.Token); s != nil {
		t.Error("sessions should be revoked on delete")
	}
}

func TestUserUpdateRootImmutable(t *testing.T) {
	env := newTestEnv(t)
	h := env.userHandler()

	r := jsonRequest(t, http.MethodPut, "/api/users/1", userRequest{Username: "NewName", Role: model.RoleLeader})
	r.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	h.Update(rec, asUser(r, env.root))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestUserReactivate(t *testing.T) {
	env := newTestEnv(t)
	h := env.userHandler()
	co := env.createCoLeader(t, "sara")
	env.users.Deactivate(co.ID)

	r := httptest.NewRequest(http.MethodPost, "/api/users/2/reactivate", nil)
	r.SetPathValue("id", "2")
	rec := httptest.NewRecorder()
	h.Reactivate(rec, asUser(r, env.root))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	got, _ := env.users.GetByID(co.ID)
	if !got.IsActive {
		t.Error("user should be active again")
	}
}

func TestUserResetPassword(t *testing.T) {
	env := newTestEnv(t)
	h := env.userHandler()
	co := env.createCoLeader(t, "sara")
	env.users.SetPassword(co.ID, "custom-hash", false)
	sess, _ := env.sessions.Create(co.ID)

	r := httptest.NewRequest(http.MethodPost, "/api/users/2/reset-password", nil)
	r.SetPathValue("id", "2")
	rec := httptest.NewRecorder()
	h.ResetPassword(rec, asUser(r, env.root))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	got, _ := env.users.GetByID(co.ID)
	if !got.FirstLogin {
		t.Error("reset should force a password change on next login")
	}
	if s, _ := env.sessions.GetByToken(sess.Token); s != nil {
		t.Error("sessions should be revoked on reset")
	}
}
