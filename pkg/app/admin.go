package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"chattala/internal/util"
	"chattala/pkg/domain"
	"chattala/pkg/policy"
	"chattala/pkg/store"
)

// Admin operations: account management, categories, dashboard stats.
// Each one is gated on an ADMIN-only action before touching storage.

// SetAccountVerified flips the verified badge on an account.
func (a *App) SetAccountVerified(ctx context.Context, actor *domain.Account, id string, verified bool) (domain.Account, error) {
	if d := policy.Authorize(actor, domain.ActionManageUser, nil); !d.Allowed {
		return domain.Account{}, &UnauthorizedError{Reason: d.Reason}
	}
	account, err := a.store.UpdateAccount(ctx, id, func(acc *domain.Account) error {
		acc.Verified = verified
		acc.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return domain.Account{}, storeErr("set verified", "account", err)
	}
	return account, nil
}

// SetAccountSuspended suspends or reinstates an account. Admins cannot
// suspend themselves; that would lock the moderation queue behind a
// mistake.
func (a *App) SetAccountSuspended(ctx context.Context, actor *domain.Account, id string, suspended bool) (domain.Account, error) {
	if d := policy.Authorize(actor, domain.ActionManageUser, nil); !d.Allowed {
		return domain.Account{}, &UnauthorizedError{Reason: d.Reason}
	}
	if suspended && actor.ID == id {
		return domain.Account{}, &ConflictError{Reason: "cannot suspend own account"}
	}
	account, err := a.store.UpdateAccount(ctx, id, func(acc *domain.Account) error {
		acc.Suspended = suspended
		acc.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return domain.Account{}, storeErr("set suspended", "account", err)
	}
	slog.Info("account suspension changed", "account_id", id, "suspended", suspended, "actor_id", actor.ID)
	return account, nil
}

// SetAccountRole changes an account's role. An admin cannot demote
// themselves, so the system always keeps at least one admin.
func (a *App) SetAccountRole(ctx context.Context, actor *domain.Account, id string, role domain.Role) (domain.Account, error) {
	if d := policy.Authorize(actor, domain.ActionManageUser, nil); !d.Allowed {
		return domain.Account{}, &UnauthorizedError{Reason: d.Reason}
	}
	if role != domain.RoleMember && role != domain.RoleAdmin {
		return domain.Account{}, &ValidationError{Field: "role", Message: "must be MEMBER or ADMIN"}
	}
	if actor.ID == id && role != domain.RoleAdmin {
		return domain.Account{}, &ConflictError{Reason: "cannot demote own account"}
	}
	account, err := a.store.UpdateAccount(ctx, id, func(acc *domain.Account) error {
		acc.Role = role
		acc.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return domain.Account{}, storeErr("set role", "account", err)
	}
	return account, nil
}

// ListAccounts returns accounts for the admin user table.
func (a *App) ListAccounts(ctx context.Context, actor *domain.Account, f store.AccountFilter) ([]domain.Account, error) {
	if d := policy.Authorize(actor, domain.ActionManageUser, nil); !d.Allowed {
		return nil, &UnauthorizedError{Reason: d.Reason}
	}
	accounts, err := a.store.ListAccounts(ctx, f)
	if err != nil {
		return nil, storeErr("list accounts", "account", err)
	}
	return accounts, nil
}

// Stats returns the admin dashboard counters.
func (a *App) Stats(ctx context.Context, actor *domain.Account) (store.Stats, error) {
	if d := policy.Authorize(actor, domain.ActionManageUser, nil); !d.Allowed {
		return store.Stats{}, &UnauthorizedError{Reason: d.Reason}
	}
	stats, err := a.store.Stats(ctx)
	if err != nil {
		return store.Stats{}, storeErr("stats", "stats", err)
	}
	return stats, nil
}

// CreateCategory adds a category to the marketplace or community tree.
func (a *App) CreateCategory(ctx context.Context, actor *domain.Account, in CategoryInput) (domain.Category, error) {
	if d := policy.Authorize(actor, domain.ActionManageCategory, nil); !d.Allowed {
		return domain.Category{}, &UnauthorizedError{Reason: d.Reason}
	}
	if err := validateCategoryInput(in); err != nil {
		return domain.Category{}, err
	}
	category := domain.Category{
		ID:          util.NewID(),
		Name:        strings.TrimSpace(in.Name),
		Slug:        in.Slug,
		Kind:        in.Kind,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   time.Now().UTC(),
	}
	if err := a.store.CreateCategory(ctx, category); err != nil {
		return domain.Category{}, storeErr("create category", "category", err)
	}
	a.invalidate(ctx, "categories")
	return category, nil
}

// UpdateCategory edits a category's name, slug, or description.
func (a *App) UpdateCategory(ctx context.Context, actor *domain.Account, id string, in CategoryUpdate) (domain.Category, error) {
	if d := policy.Authorize(actor, domain.ActionManageCategory, nil); !d.Allowed {
		return domain.Category{}, &UnauthorizedError{Reason: d.Reason}
	}
	if err := validateCategoryUpdate(in); err != nil {
		return domain.Category{}, err
	}
	category, err := a.store.UpdateCategory(ctx, id, func(c *domain.Category) error {
		if in.Name != nil {
			c.Name = strings.TrimSpace(*in.Name)
		}
		if in.Slug != nil {
			c.Slug = *in.Slug
		}
		if in.Description != nil {
			c.Description = strings.TrimSpace(*in.Description)
		}
		return nil
	})
	if err != nil {
		return domain.Category{}, storeErr("update category", "category", err)
	}
	a.invalidate(ctx, "categories")
	return category, nil
}

// DeleteCategory removes an empty category. Categories with listings or
// posts attached are kept and the call fails with a conflict.
func (a *App) DeleteCategory(ctx context.Context, actor *domain.Account, id string) error {
	if d := policy.Authorize(actor, domain.ActionManageCategory, nil); !d.Allowed {
		return &UnauthorizedError{Reason: d.Reason}
	}
	if err := a.store.DeleteCategory(ctx, id); err != nil {
		return storeErr("delete category", "category", err)
	}
	a.invalidate(ctx, "categories")
	return nil
}
