package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"chattala/internal/ratelimit"
	"chattala/internal/util"
	"chattala/pkg/app"
	"chattala/pkg/domain"
	"chattala/pkg/storage"
)

const defaultMaxUploadBytes = 5 << 20

// Config wires required dependencies for the HTTP server.
type Config struct {
	App    *app.App
	Images storage.ImageStore

	SignupLimiter  *ratelimit.FixedWindowLimiter
	LoginLimiter   *ratelimit.FixedWindowLimiter
	MutateLimiter  *ratelimit.FixedWindowLimiter
	TrustedProxies *util.TrustedProxies
	MaxUploadBytes int64
}

// Server exposes the HTTP API.
type Server struct {
	app    *app.App
	images storage.ImageStore
	mux    *http.ServeMux

	signupLimiter  *ratelimit.FixedWindowLimiter
	loginLimiter   *ratelimit.FixedWindowLimiter
	mutateLimiter  *ratelimit.FixedWindowLimiter
	trusted        *util.TrustedProxies
	maxUploadBytes int64
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	s := &Server{
		app:            cfg.App,
		images:         cfg.Images,
		mux:            http.NewServeMux(),
		signupLimiter:  cfg.SignupLimiter,
		loginLimiter:   cfg.LoginLimiter,
		mutateLimiter:  cfg.MutateLimiter,
		trusted:        cfg.TrustedProxies,
		maxUploadBytes: maxUpload,
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/api/auth/signup", s.ratelimited(s.signupLimiter, s.handleSignup))
	s.mux.HandleFunc("/api/auth/login", s.ratelimited(s.loginLimiter, s.handleLogin))
	s.mux.HandleFunc("/api/auth/logout", s.handleLogout)
	s.mux.Handle("/api/me", s.authenticated(s.handleMe))
	s.mux.Handle("/api/me/listings", s.authenticated(s.handleOwnListings))

	// marketplace
	s.mux.HandleFunc("/api/listings", s.handleListings)
	s.mux.HandleFunc("/api/listings/", s.handleListingByID)

	// community
	s.mux.HandleFunc("/api/posts", s.handlePosts)
	s.mux.HandleFunc("/api/posts/", s.handlePostByID)

	s.mux.HandleFunc("/api/categories", s.handleCategories)
	s.mux.Handle("/api/uploads", s.authenticated(s.handleUpload))

	// admin
	s.mux.Handle("/api/admin/stats", s.adminOnly(s.handleAdminStats))
	s.mux.Handle("/api/admin/users", s.adminOnly(s.handleAdminUsers))
	s.mux.Handle("/api/admin/users/", s.adminOnly(s.handleAdminUserByID))
	s.mux.Handle("/api/admin/categories", s.adminOnly(s.handleAdminCategories))
	s.mux.Handle("/api/admin/categories/", s.adminOnly(s.handleAdminCategoryByID))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type authHandler func(http.ResponseWriter, *http.Request, domain.Account)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, ok := s.authorize(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, account)
	})
}

func (s *Server) adminOnly(next authHandler) http.Handler {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request, account domain.Account) {
		if account.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r, account)
	})
}

func (s *Server) authorize(r *http.Request) (domain.Account, bool) {
	token, ok := bearerToken(r)
	if !ok {
		return domain.Account{}, false
	}
	return s.app.AccountFromToken(r.Context(), token)
}

// actor resolves the optional caller: nil means anonymous. Public
// reads use this so owners see their own pending listings.
func (s *Server) actor(r *http.Request) *domain.Account {
	if account, ok := s.authorize(r); ok {
		return &account
	}
	return nil
}

func (s *Server) ratelimited(limiter *ratelimit.FixedWindowLimiter, next http.HandlerFunc) http.HandlerFunc {
	if limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow(util.ClientIP(r, s.trusted)) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next(w, r)
	}
}

// allowMutate applies the shared write rate limit. Called at the top of
// every handler branch that mutates state.
func (s *Server) allowMutate(w http.ResponseWriter, r *http.Request) bool {
	if s.mutateLimiter == nil {
		return true
	}
	if !s.mutateLimiter.Allow(util.ClientIP(r, s.trusted)) {
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return false
	}
	return true
}

// writeAppError maps the application's error taxonomy onto HTTP status
// codes.
func writeAppError(w http.ResponseWriter, err error) {
	var notFound *app.NotFoundError
	var unauthorized *app.UnauthorizedError
	var validation *app.ValidationError
	var conflict *app.ConflictError
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &unauthorized):
		if unauthorized.Reason == "authentication required" {
			writeError(w, http.StatusUnauthorized, unauthorized.Error())
			return
		}
		writeError(w, http.StatusForbidden, unauthorized.Error())
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, conflict.Error())
	default:
		slog.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
