package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"chattala/internal/util"
	"chattala/pkg/domain"
	"chattala/pkg/store"
)

type seedCategory struct {
	name string
	slug string
	kind domain.CategoryKind
}

var seedCategories = []seedCategory{
	{"Electronics", "electronics", domain.KindMarketplace},
	{"Fashion & Apparel", "fashion-apparel", domain.KindMarketplace},
	{"Home & Garden", "home-garden", domain.KindMarketplace},
	{"Vehicles", "vehicles", domain.KindMarketplace},
	{"Services", "services", domain.KindMarketplace},
	{"Books & Education", "books-education", domain.KindMarketplace},
	{"Sports & Hobbies", "sports-hobbies", domain.KindMarketplace},
	{"Pets", "pets", domain.KindMarketplace},
	{"Local News", "local-news", domain.KindCommunity},
	{"Events", "events", domain.KindCommunity},
	{"Discussions", "discussions", domain.KindCommunity},
	{"Announcements", "announcements", domain.KindCommunity},
	{"Lost & Found", "lost-found", domain.KindCommunity},
	{"Help & Support", "help-support", domain.KindCommunity},
}

// SeedCategories inserts the default category tree. Idempotent: slugs
// that already exist are skipped.
func (a *App) SeedCategories(ctx context.Context) error {
	created := 0
	for _, sc := range seedCategories {
		if _, found, err := a.store.GetCategoryBySlug(ctx, sc.slug); err != nil {
			return storeErr("seed categories", "category", err)
		} else if found {
			continue
		}
		err := a.store.CreateCategory(ctx, domain.Category{
			ID:        util.NewID(),
			Name:      sc.name,
			Slug:      sc.slug,
			Kind:      sc.kind,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			if errors.Is(err, store.ErrSlugTaken) {
				// Raced with a concurrent seeder.
				continue
			}
			return storeErr("seed categories", "category", err)
		}
		created++
	}
	if created > 0 {
		slog.Info("seeded default categories", "created", created)
	}
	return nil
}
