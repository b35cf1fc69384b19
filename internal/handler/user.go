package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"meritboard/internal/auth"
	"meritboard/internal/confirm"
	"meritboard/internal/model"
	"meritboard/internal/store"
	"meritboard/internal/websocket"
)

const maxUsernameLength = 50

// UserHandler serves account management. All routes are leader-only; the
// root leader additionally guards leader-role accounts.
type UserHandler struct {
	users           *store.UserStore
	sessions        *store.SessionStore
	activity        *store.ActivityStore
	hub             *websocket.Hub
	defaultPassword string
	logger          *slog.Logger

	// force holds the pending force-create decision. forceMu guards the
	// result handed from the confirm callback to the confirm endpoint.
	force       confirm.Confirmer
	forceMu     sync.Mutex
	forceResult *model.User
}

func NewUserHandler(users *store.UserStore, sessions *store.SessionStore, activity *store.ActivityStore, hub *websocket.Hub, defaultPassword string, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:           users,
		sessions:        sessions,
		activity:        activity,
		hub:             hub,
		defaultPassword: defaultPassword,
		logger:          logger.With("component", "users"),
	}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List()
	if err != nil {
		h.logger.Error("list users failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

type userRequest struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

func validateUserRequest(req *userRequest) string {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return "username is required"
	}
	if len(req.Username) > maxUsernameLength {
		return "username is too long"
	}
	if !model.ValidRole(req.Role) {
		return "role must be leader, co_leader, or visor"
	}
	return ""
}

// Create adds an account with the default password and first_login set, so
// the new user must pick their own password on first sign-in. A username held
// by a deactivated account returns 409 with code USER_INACTIVE; the client
// can then start the force-create flow.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateUserRequest(&req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if req.Role == model.RoleLeader && !auth.IsRoot(r.Context()) {
		writeError(w, http.StatusForbidden, "only the root leader can create leader accounts")
		return
	}

	existing, err := h.users.GetByUsername(req.Username)
	if err != nil {
		h.logger.Error("username lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	if existing != nil {
		if existing.IsActive {
			writeError(w, http.StatusConflict, "username is already taken")
			return
		}
		writeErrorCode(w, http.StatusConflict,
			"username belongs to a deactivated account; use force create to replace it",
			"USER_INACTIVE")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	user, err := h.createUser(req, ac.UserID)
	if err != nil {
		h.logger.Error("create user failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// createUser hashes the default password, inserts the account, and records
// the audit entry. Shared by Create and the force-create confirm callback.
func (h *UserHandler) createUser(req userRequest, creatorID int64) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(h.defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := h.users.Create(req.Username, string(hash), req.Role, &creatorID)
	if err != nil {
		return nil, err
	}

	details := fmt.Sprintf("created %s account %s", user.Role, user.Username)
	if err := h.activity.Record(model.ActionCreate, model.TargetUser, &user.ID, details, &creatorID); err != nil {
		h.logger.Error("record user create failed", "error", err)
	}
	h.hub.Broadcast(websocket.NewEvent(websocket.EntityUser, "created", user.ID))
	return user, nil
}

// ForceCreate arms a pending decision to replace a deactivated account: on
// confirm, the old account and everything it created are permanently removed
// and a fresh account takes the username. Nothing is touched until the
// confirm call arrives.
func (h *UserHandler) ForceCreate(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateUserRequest(&req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if req.Role == model.RoleLeader && !auth.IsRoot(r.Context()) {
		writeError(w, http.StatusForbidden, "only the root leader can create leader accounts")
		return
	}

	existing, err := h.users.GetByUsername(req.Username)
	if err != nil {
		h.logger.Error("username lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "no deactivated account holds this username")
		return
	}
	if existing.IsActive {
		writeError(w, http.StatusConflict, "username is already taken by an active account")
		return
	}
	if existing.IsRoot() {
		writeError(w, http.StatusForbidden, "the root leader account cannot be replaced")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	oldID := existing.ID
	oldUsername := existing.Username

	err = h.force.Arm(func() error {
		if err := h.users.HardDeleteWithCreations(oldID); err != nil {
			return err
		}
		details := fmt.Sprintf("force-removed deactivated account %s and its records", oldUsername)
		if err := h.activity.Record(model.ActionDelete, model.TargetUser, nil, details, &ac.UserID); err != nil {
			h.logger.Error("record force delete failed", "error", err)
		}

		user, err := h.createUser(req, ac.UserID)
		if err != nil {
			return err
		}
		h.forceMu.Lock()
		h.forceResult = user
		h.forceMu.Unlock()
		return nil
	}, func() {
		h.logger.Info("force create cancelled", "username", req.Username)
	})
	if err == confirm.ErrPending {
		writeErrorCode(w, http.StatusConflict,
			"another force create is awaiting confirmation", "CONFIRM_PENDING")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to arm force create")
		return
	}

	h.forceMu.Lock()
	h.forceResult = nil
	h.forceMu.Unlock()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"message":  "confirm to permanently replace the deactivated account",
		"username": req.Username,
	})
}

// ForceCreateConfirm executes the armed replacement.
func (h *UserHandler) ForceCreateConfirm(w http.ResponseWriter, r *http.Request) {
	if err := h.force.Confirm(); err != nil {
		if err == confirm.ErrNotArmed {
			writeError(w, http.StatusBadRequest, "no force create is pending")
			return
		}
		h.logger.Error("force create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to replace account")
		return
	}

	h.forceMu.Lock()
	user := h.forceResult
	h.forceResult = nil
	h.forceMu.Unlock()

	writeJSON(w, http.StatusCreated, user)
}

// ForceCreateCancel discards the armed replacement without touching anything.
func (h *UserHandler) ForceCreateCancel(w http.ResponseWriter, r *http.Request) {
	if err := h.force.Cancel(); err != nil {
		writeError(w, http.StatusBadRequest, "no force create is pending")
		return
	}

	h.forceMu.Lock()
	h.forceResult = nil
	h.forceMu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "force create cancelled"})
}

// Update changes a user's username or role. The root leader account is
// immutable, and only root may touch leader accounts or promote to leader.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateUserRequest(&req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	target, err := h.users.GetByID(id)
	if err != nil {
		h.logger.Error("get user failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	if target == nil || !target.IsActive {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if target.IsRoot() {
		writeError(w, http.StatusForbidden, "the root leader account cannot be modified")
		return
	}
	if (target.Role == model.RoleLeader || req.Role == model.RoleLeader) && !auth.IsRoot(r.Context()) {
		writeError(w, http.StatusForbidden, "only the root leader can manage leader accounts")
		return
	}

	taken, err := h.users.UsernameExists(req.Username, id)
	if err != nil {
		h.logger.Error("username check failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	if taken {
		writeError(w, http.StatusConflict, "username is already taken")
		return
	}

	updated, err := h.users.Update(id, req.Username, req.Role)
	if err != nil {
		h.logger.Error("update user failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	details := fmt.Sprintf("updated account %s (role %s)", updated.Username, updated.Role)
	if err := h.activity.Record(model.ActionUpdate, model.TargetUser, &id, details, &ac.UserID); err != nil {
		h.logger.Error("record user update failed", "error", err)
	}
	h.hub.Broadcast(websocket.NewEvent(websocket.EntityUser, "updated", id))

	writeJSON(w, http.StatusOK, updated)
}

// Delete deactivates an account and revokes its sessions. The row and its
// history stay in place so the activity log keeps its author names.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ac, _ := auth.FromContext(r.Context())
	if id == ac.UserID {
		writeError(w, http.StatusBadRequest, "you cannot delete your own account")
		return
	}

	target, err := h.users.GetByID(id)
	if err != nil {
		h.logger.Error("get user failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	if target == nil || !target.IsActive {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if target.IsRoot() {
		writeError(w, http.StatusForbidden, "the root leader account cannot be deleted")
		return
	}
	if target.Role == model.RoleLeader && !auth.IsRoot(r.Context()) {
		writeError(w, http.StatusForbidden, "only the root leader can manage leader accounts")
		return
	}

	if err := h.users.Deactivate(id); err != nil {
		h.logger.Error("deactivate user failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	if err := h.sessions.DeleteForUser(id); err != nil {
		h.logger.Error("revoke sessions failed", "error", err)
	}

	details := "deactivated account " + target.Username
	if err := h.activity.Record(model.ActionDelete, model.TargetUser, &id, details, &ac.UserID); err != nil {
		h.logger.Error("record user delete failed", "error", err)
	}
	h.hub.Broadcast(websocket.NewEvent(websocket.EntityUser, "deleted", id))

	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// Reactivate restores a deactivated account.
func (h *UserHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	target, err := h.users.GetByID(id)
	if err != nil {
		h.logger.Error("get user failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reactivate user")
		return
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if target.IsActive {
		writeError(w, http.StatusBadRequest, "user is already active")
		return
	}
	if target.Role == model.RoleLeader && !auth.IsRoot(r.Context()) {
		writeError(w, http.StatusForbidden, "only the root leader can manage leader accounts")
		return
	}

	if err := h.users.Reactivate(id); err != nil {
		h.logger.Error("reactivate user failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reactivate user")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	details := "reactivated account " + target.Username
	if err := h.activity.Record(model.ActionReactivate, model.TargetUser, &id, details, &ac.UserID); err != nil {
		h.logger.Error("record user reactivate failed", "error", err)
	}
	h.hub.Broadcast(websocket.NewEvent(websocket.EntityUser, "updated", id))

	writeJSON(w, http.StatusOK, map[string]string{"message": "user reactivated"})
}

// ResetPassword restores the default password and forces a change on the
// next login. Existing sessions are revoked.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	target, err := h.users.GetByID(id)
	if err != nil {
		h.logger.Error("get user failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reset password")
		return
	}
	if target == nil || !target.IsActive {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if target.IsRoot() {
		writeError(w, http.StatusForbidden, "the root leader password cannot be reset this way")
		return
	}
	if target.Role == model.RoleLeader && !auth.IsRoot(r.Context()) {
		writeError(w, http.StatusForbidden, "only the root leader can manage leader accounts")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(h.defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset password")
		return
	}
	if err := h.users.SetPassword(id, string(hash), true); err != nil {
		h.logger.Error("set password failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reset password")
		return
	}
	if err := h.sessions.DeleteForUser(id); err != nil {
		h.logger.Error("revoke sessions failed", "error", err)
	}

	ac, _ := auth.FromContext(r.Context())
	details := "reset password for " + target.Username
	if err := h.activity.Record(model.ActionPasswordChange, model.TargetUser, &id, details, &ac.UserID); err != nil {
		h.logger.Error("record password reset failed", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password reset to default"})
}
