package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"meritboard/internal/auth"
	"meritboard/internal/database"
	"meritboard/internal/model"
	"meritboard/internal/store"
	"meritboard/internal/websocket"
)

const testDefaultPassword = "123"

type testEnv struct {
	db       *sql.DB
	users    *store.UserStore
	sessions *store.SessionStore
	members  *store.MemberStore
	points   *store.PointStore
	activity *store.ActivityStore
	hub      *websocket.Hub
	root     *model.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		db:       db,
		users:    store.NewUserStore(db),
		sessions: store.NewSessionStore(db),
		members:  store.NewMemberStore(db),
		points:   store.NewPointStore(db),
		activity: store.NewActivityStore(db),
		hub:      websocket.NewHub(slog.Default()),
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(testDefaultPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	env.root, _, err = env.users.EnsureRootLeader("Gon", string(hash))
	if err != nil {
		t.Fatalf("ensure root: %v", err)
	}
	return env
}

func (e *testEnv) authHandler() *AuthHandler {
	return NewAuthHandler(e.users, e.sessions, e.activity, testDefaultPassword, slog.Default())
}

func (e *testEnv) memberHandler() *MemberHandler {
	return NewMemberHandler(e.members, e.points, e.activity, e.hub, slog.Default())
}

func (e *testEnv) pointHandler() *PointHandler {
	return NewPointHandler(e.points, e.members, e.activity, e.hub, slog.Default())
}

func (e *testEnv) userHandler() *UserHandler {
	return NewUserHandler(e.users, e.sessions, e.activity, e.hub, testDefaultPassword, slog.Default())
}

// asUser attaches an authenticated context for the given user.
func asUser(r *http.Request, u *model.User) *http.Request {
	ac := auth.AuthContext{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		Root:     u.IsRoot(),
	}
	return r.WithContext(auth.WithAuth(r.Context(), ac))
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// createCoLeader adds a co_leader account for permission tests.
func (e *testEnv) createCoLeader(t *testing.T, username string) *model.User {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte(testDefaultPassword), bcrypt.MinCost)
	u, err := e.users.Create(username, string(hash), model.RoleCoLeader, &e.root.ID)
	if err != nil {
		t.Fatalf("create co_leader: %v", err)
	}
	return u
}
