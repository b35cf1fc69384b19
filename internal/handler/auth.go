package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"meritboard/internal/auth"
	"meritboard/internal/middleware"
	"meritboard/internal/model"
	"meritboard/internal/store"
)

const minPasswordLength = 6

// AuthHandler serves login, logout, and password management.
type AuthHandler struct {
	users           *store.UserStore
	sessions        *store.SessionStore
	activity        *store.ActivityStore
	defaultPassword string
	logger          *slog.Logger
}

func NewAuthHandler(users *store.UserStore, sessions *store.SessionStore, activity *store.ActivityStore, defaultPassword string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:           users,
		sessions:        sessions,
		activity:        activity,
		defaultPassword: defaultPassword,
		logger:          logger.With("component", "auth"),
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	User       *model.User `json:"user"`
	FirstLogin bool        `json:"first_login"`
}

// Login validates credentials and issues a session cookie. Inactive accounts
// and unknown usernames get the same generic rejection.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.users.GetByUsername(req.Username)
	if err != nil {
		h.logger.Error("login lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if user == nil || !user.IsActive {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	hash, err := h.users.PasswordHash(user.ID)
	if err != nil {
		h.logger.Error("password hash lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	sess, err := h.sessions.Create(user.ID)
	if err != nil {
		h.logger.Error("session create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	if err := h.activity.Record(model.ActionLogin, model.TargetUser, &user.ID, user.Username+" logged in", &user.ID); err != nil {
		h.logger.Error("record login failed", "error", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)
	writeJSON(w, http.StatusOK, loginResponse{User: user, FirstLogin: user.FirstLogin})
}

// Logout deletes the session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(cookie.Value); err != nil {
			h.logger.Error("session delete failed", "error", err)
		}
	}

	ac, ok := auth.FromContext(r.Context())
	if ok {
		if err := h.activity.Record(model.ActionLogout, model.TargetUser, &ac.UserID, ac.Username+" logged out", &ac.UserID); err != nil {
			h.logger.Error("record logout failed", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// CurrentUser returns the authenticated user's profile.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	user, err := h.users.GetByID(ac.UserID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword verifies the current password, rejects weak or default
// replacements, stores the new hash, and clears the first-login flag.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(req.NewPassword) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "new password must be at least 6 characters")
		return
	}
	if req.NewPassword == h.defaultPassword {
		writeError(w, http.StatusBadRequest, "new password must differ from the default password")
		return
	}

	hash, err := h.users.PasswordHash(ac.UserID)
	if err != nil {
		h.logger.Error("password hash lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "password change failed")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.CurrentPassword)) != nil {
		writeError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "password change failed")
		return
	}
	if err := h.users.SetPassword(ac.UserID, string(newHash), false); err != nil {
		h.logger.Error("set password failed", "error", err)
		writeError(w, http.StatusInternalServerError, "password change failed")
		return
	}

	if err := h.activity.Record(model.ActionPasswordChange, model.TargetUser, &ac.UserID, ac.Username+" changed their password", &ac.UserID); err != nil {
		h.logger.Error("record password change failed", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}
