package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"meritboard/internal/backup"
	"meritboard/internal/config"
	"meritboard/internal/handler"
	"meritboard/internal/middleware"
	"meritboard/internal/model"
	"meritboard/internal/store"
	ws "meritboard/internal/websocket"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	authH         *handler.AuthHandler
	memberH       *handler.MemberHandler
	pointH        *handler.PointHandler
	userH         *handler.UserHandler
	activityH     *handler.ActivityHandler
	sessionStore  *store.SessionStore
	userStore     *store.UserStore
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	cfg           *config.Config
	logger        *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, backupMgr *backup.Manager, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	memberStore := store.NewMemberStore(db)
	pointStore := store.NewPointStore(db)
	activityStore := store.NewActivityStore(db)

	return &Server{
		db:            db,
		hub:           hub,
		authH:         handler.NewAuthHandler(userStore, sessionStore, activityStore, cfg.AdminPassword, logger),
		memberH:       handler.NewMemberHandler(memberStore, pointStore, activityStore, hub, logger),
		pointH:        handler.NewPointHandler(pointStore, memberStore, activityStore, hub, logger),
		userH:         handler.NewUserHandler(userStore, sessionStore, activityStore, hub, cfg.AdminPassword, logger),
		activityH:     handler.NewActivityHandler(activityStore, logger),
		sessionStore:  sessionStore,
		userStore:     userStore,
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
		cfg:           cfg,
		logger:        logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.cfg.StaticDir))))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes, wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, s.cfg.LoginRateLimit, s.cfg.LoginRateWindow)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

// manageOnly gates a route to roles allowed to write members and points.
func (s *Server) manageOnly(h http.HandlerFunc) http.Handler {
	return middleware.RequireRoles(model.RoleLeader, model.RoleCoLeader)(h)
}

// leaderOnly gates a route to leader accounts.
func (s *Server) leaderOnly(h http.HandlerFunc) http.Handler {
	return middleware.RequireRoles(model.RoleLeader)(h)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Session routes
	mux.HandleFunc("POST /api/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.CurrentUser)
	mux.HandleFunc("POST /api/change-password", s.authH.ChangePassword)

	// Member API routes
	mux.HandleFunc("GET /api/members", s.memberH.List)
	mux.HandleFunc("GET /api/members/{id}", s.memberH.Get)
	mux.Handle("POST /api/members", s.manageOnly(s.memberH.Create))
	mux.Handle("PUT /api/members/{id}", s.manageOnly(s.memberH.Update))
	mux.Handle("DELETE /api/members/{id}", s.leaderOnly(s.memberH.Delete))

	// Point API routes
	mux.HandleFunc("GET /api/points", s.pointH.List)
	mux.Handle("POST /api/points", s.manageOnly(s.pointH.Create))
	mux.Handle("PUT /api/points/{id}", s.manageOnly(s.pointH.Update))
	mux.Handle("DELETE /api/points/{id}", s.manageOnly(s.pointH.Delete))
	mux.Handle("POST /api/points/bulk-delete", s.leaderOnly(s.pointH.BulkDelete))

	// User management API routes, leader accounts only
	mux.Handle("GET /api/users", s.leaderOnly(s.userH.List))
	mux.Handle("POST /api/users", s.leaderOnly(s.userH.Create))
	mux.Handle("PUT /api/users/{id}", s.leaderOnly(s.userH.Update))
	mux.Handle("DELETE /api/users/{id}", s.leaderOnly(s.userH.Delete))
	mux.Handle("POST /api/users/{id}/reactivate", s.leaderOnly(s.userH.Reactivate))
	mux.Handle("POST /api/users/{id}/reset-password", s.leaderOnly(s.userH.ResetPassword))
	mux.Handle("POST /api/users/force-create", s.leaderOnly(s.userH.ForceCreate))
	mux.Handle("POST /api/users/force-create/confirm", s.leaderOnly(s.userH.ForceCreateConfirm))
	mux.Handle("POST /api/users/force-create/cancel", s.leaderOnly(s.userH.ForceCreateCancel))

	// Activity log, leader accounts only
	mux.Handle("GET /api/logs", s.leaderOnly(s.activityH.List))

	// Reference data
	mux.HandleFunc("GET /api/categories", handler.Categories)
	mux.HandleFunc("GET /api/roles", handler.Roles)

	// Backup status + manual trigger, leader accounts only
	mux.Handle("GET /api/backup/status", s.leaderOnly(s.backupStatusHandler))
	mux.Handle("POST /api/backup/run", s.leaderOnly(s.backupRunHandler))

	// Live updates
	mux.Handle("GET /ws", ws.Handler(s.hub))
}

func (s *Server) backupStatusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.backupManager.Status())
}

func (s *Server) backupRunHandler(w http.ResponseWriter, r *http.Request) {
	if !s.backupManager.Enabled() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"error": "backups are not configured"})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.backupManager.RunNow(ctx); err != nil {
			s.logger.Error("manual backup failed", "error", err)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"message": "backup started"})
}
