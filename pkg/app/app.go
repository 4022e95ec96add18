// Package app is the mutation gateway: every write to a listing, post,
// comment, category, or account flows through the same pipeline of
// load, authorize, validate, transact, invalidate. Reads honor the
// listing visibility rules. The actor is always an explicit parameter;
// nothing here consults ambient request state.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chattala/internal/util"
	"chattala/pkg/auth"
	"chattala/pkg/cache"
	"chattala/pkg/domain"
	"chattala/pkg/events"
	"chattala/pkg/queue"
	"chattala/pkg/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration
	JWTSecret     string

	// ModerationEnabled controls whether new listings start PENDING.
	// When disabled, listings are created APPROVED and visible at once;
	// transitions stay admin-only either way.
	ModerationEnabled bool

	Store    store.Store
	Sessions auth.SessionStore
	Views    cache.Invalidator
	Events   events.Publisher
	Cleanup  queue.Cleaner
}

// App wires storage, sessions, and the policy layer together.
type App struct {
	store             store.Store
	sessions          auth.SessionStore
	views             cache.Invalidator
	events            events.Publisher
	cleanup           queue.Cleaner
	moderationEnabled bool
}

// New constructs the application core.
func New(cfg Config) (*App, error) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		switch {
		case cfg.RedisAddr != "":
			sessionStore = auth.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL)
		case cfg.JWTSecret != "":
			sessionStore = auth.NewJWTSessionStore(cfg.JWTSecret, cfg.SessionTTL)
		default:
			return nil, fmt.Errorf("session store required (redisAddr or jwtSecret)")
		}
	}

	views := cfg.Views
	if views == nil {
		if cfg.RedisAddr != "" {
			views = cache.NewRedisInvalidator(cfg.RedisAddr, cfg.RedisPassword, "")
		} else {
			views = cache.Noop{}
		}
	}

	eventSink := cfg.Events
	if eventSink == nil {
		eventSink = events.Noop{}
	}

	cleanup := cfg.Cleanup
	if cleanup == nil {
		cleanup = queue.Noop{}
	}

	return &App{
		store:             dataStore,
		sessions:          sessionStore,
		views:             views,
		events:            eventSink,
		cleanup:           cleanup,
		moderationEnabled: cfg.ModerationEnabled,
	}, nil
}

// Resolve maps a verified external principal (a stable email address)
// to an internal account, creating a MEMBER record on first sight.
// An empty principal means an anonymous request: ok is false and that
// is not an error.
func (a *App) Resolve(ctx context.Context, email string) (domain.Account, bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return domain.Account{}, false, nil
	}
	account, found, err := a.store.GetAccountByEmail(ctx, email)
	if err != nil {
		return domain.Account{}, false, storeErr("resolve account", "account", err)
	}
	if found {
		return account, true, nil
	}
	now := time.Now().UTC()
	account = domain.Account{
		ID:        util.NewID(),
		Email:     email,
		Role:      domain.RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			// Raced with another first-sight request; read the winner.
			account, found, err = a.store.GetAccountByEmail(ctx, email)
			if err != nil || !found {
				return domain.Account{}, false, storeErr("resolve account", "account", err)
			}
			return account, true, nil
		}
		return domain.Account{}, false, storeErr("create account", "account", err)
	}
	return account, true, nil
}

// SignUp registers a new account. The first account becomes ADMIN.
func (a *App) SignUp(ctx context.Context, email, password, name string) (domain.Account, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return domain.Account{}, "", ErrEmailAndPasswordRequired
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.Account{}, "", &ValidationError{Field: "password", Message: err.Error()}
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.Account{}, "", fmt.Errorf("hash password: %w", err)
	}
	role := domain.RoleMember
	count, err := a.store.CountAccounts(ctx)
	if err != nil {
		return domain.Account{}, "", storeErr("count accounts", "account", err)
	}
	if count == 0 {
		role = domain.RoleAdmin
	}
	now := time.Now().UTC()
	account := domain.Account{
		ID:           util.NewID(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.CreateAccount(ctx, account); err != nil {
		return domain.Account{}, "", storeErr("create account", "account", err)
	}
	token, err := a.sessions.Issue(account.ID)
	if err != nil {
		return domain.Account{}, "", fmt.Errorf("issue session: %w", err)
	}
	return account, token, nil
}

// Login validates credentials and issues a session token. Suspended
// accounts may still log in; suspension only blocks create actions.
func (a *App) Login(ctx context.Context, email, password string) (domain.Account, string, error) {
	email = normalizeEmail(email)
	account, found, err := a.store.GetAccountByEmail(ctx, email)
	if err != nil {
		return domain.Account{}, "", storeErr("fetch account", "account", err)
	}
	if !found || !auth.CheckPassword(password, account.PasswordHash) {
		return domain.Account{}, "", ErrInvalidCredentials
	}
	token, err := a.sessions.Issue(account.ID)
	if err != nil {
		return domain.Account{}, "", fmt.Errorf("issue session: %w", err)
	}
	return account, token, nil
}

// AccountFromToken resolves an account from a session token.
func (a *App) AccountFromToken(ctx context.Context, token string) (domain.Account, bool) {
	id, ok, err := a.sessions.Resolve(token)
	if err != nil || !ok {
		return domain.Account{}, false
	}
	account, found, err := a.store.GetAccountByID(ctx, id)
	if err != nil || !found {
		return domain.Account{}, false
	}
	return account, true
}

// Logout revokes a session token.
func (a *App) Logout(token string) error {
	return a.sessions.Revoke(token)
}

// UpdateProfile changes the actor's own display name.
func (a *App) UpdateProfile(ctx context.Context, actor *domain.Account, name string) (domain.Account, error) {
	if actor == nil {
		return domain.Account{}, &UnauthorizedError{Reason: "authentication required"}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Account{}, &ValidationError{Field: "name", Message: "must not be blank"}
	}
	account, err := a.store.UpdateAccount(ctx, actor.ID, func(acc *domain.Account) error {
		acc.Name = name
		acc.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return domain.Account{}, storeErr("update profile", "account", err)
	}
	return account, nil
}

// invalidate signals affected read views after a committed mutation.
// Failures are logged, never surfaced: the views are advisory.
func (a *App) invalidate(ctx context.Context, views ...string) {
	if err := a.views.Invalidate(ctx, views...); err != nil {
		slog.Warn("view invalidation failed", "views", views, "err", err)
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
