package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chattala/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(
		&AccountModel{},
		&ListingModel{},
		&PostModel{},
		&CommentModel{},
		&CategoryModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// accounts

func (s *GormStore) CreateAccount(ctx context.Context, a domain.Account) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&AccountModel{}).Where("email = ?", a.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}
		model := accountToModel(a)
		return tx.Create(&model).Error
	})
}

func (s *GormStore) GetAccountByID(ctx context.Context, id string) (domain.Account, bool, error) {
	var model AccountModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Account{}, false, nil
		}
		return domain.Account{}, false, err
	}
	return accountFromModel(model), true, nil
}

func (s *GormStore) GetAccountByEmail(ctx context.Context, email string) (domain.Account, bool, error) {
	var model AccountModel
	if err := s.db.WithContext(ctx).First(&model, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Account{}, false, nil
		}
		return domain.Account{}, false, err
	}
	return accountFromModel(model), true, nil
}

func (s *GormStore) UpdateAccount(ctx context.Context, id string, apply func(*domain.Account) error) (domain.Account, error) {
	var out domain.Account
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model AccountModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		account := accountFromModel(model)
		if err := apply(&account); err != nil {
			return err
		}
		out = account
		updated := accountToModel(account)
		return tx.Save(&updated).Error
	})
	if err != nil {
		return domain.Account{}, err
	}
	return out, nil
}

func (s *GormStore) ListAccounts(ctx context.Context, f AccountFilter) ([]domain.Account, error) {
	tx := s.db.WithContext(ctx).Model(&AccountModel{}).Order("created_at DESC")
	if f.Role != "" {
		tx = tx.Where("role = ?", string(f.Role))
	}
	if f.Verified != nil {
		tx = tx.Where("verified = ?", *f.Verified)
	}
	if f.Suspended != nil {
		tx = tx.Where("suspended = ?", *f.Suspended)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		tx = tx.Where("name ILIKE ? OR email ILIKE ?", pattern, pattern)
	}
	var models []AccountModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Account, 0, len(models))
	for _, m := range models {
		res = append(res, accountFromModel(m))
	}
	return res, nil
}

func (s *GormStore) CountAccounts(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&AccountModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// listings

func (s *GormStore) CreateListing(ctx context.Context, l domain.Listing) error {
	model := listingToModel(l)
	return s.db.WithContext(ctx).Create(&model).Error
}

func (s *GormStore) GetListing(ctx context.Context, id string) (domain.Listing, bool, error) {
	var model ListingModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Listing{}, false, nil
		}
		return domain.Listing{}, false, err
	}
	return listingFromModel(model), true, nil
}

func (s *GormStore) UpdateListing(ctx context.Context, id string, apply func(*domain.Listing) error) (domain.Listing, error) {
	var out domain.Listing
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model ListingModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		listing := listingFromModel(model)
		if err := apply(&listing); err != nil {
			return err
		}
		out = listing
		updated := listingToModel(listing)
		return tx.Save(&updated).Error
	})
	if err != nil {
		return domain.Listing{}, err
	}
	return out, nil
}

func (s *GormStore) DeleteListing(ctx context.Context, id string, guard func(domain.Listing) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model ListingModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if guard != nil {
			if err := guard(listingFromModel(model)); err != nil {
				return err
			}
		}
		return tx.Delete(&ListingModel{}, "id = ?", id).Error
	})
}

func (s *GormStore) ListListings(ctx context.Context, f ListingFilter) ([]domain.Listing, error) {
	tx := s.db.WithContext(ctx).Model(&ListingModel{})
	if f.CategoryID != "" {
		tx = tx.Where("category_id = ?", f.CategoryID)
	}
	if f.OwnerID != "" {
		tx = tx.Where("owner_id = ?", f.OwnerID)
	}
	if f.State != "" {
		tx = tx.Where("state = ?", string(f.State))
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		tx = tx.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	if f.Location != "" {
		tx = tx.Where("location ILIKE ?", "%"+f.Location+"%")
	}
	if f.MinPrice != nil {
		tx = tx.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		tx = tx.Where("price <= ?", *f.MaxPrice)
	}
	switch f.Sort {
	case "oldest":
		tx = tx.Order("created_at ASC")
	case "price-low":
		tx = tx.Order("price ASC")
	case "price-high":
		tx = tx.Order("price DESC")
	default:
		tx = tx.Order("created_at DESC")
	}
	tx = paginate(tx, f.Page, f.Limit)
	var models []ListingModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Listing, 0, len(models))
	for _, m := range models {
		res = append(res, listingFromModel(m))
	}
	return res, nil
}

// posts

func (s *GormStore) CreatePost(ctx context.Context, p domain.Post) error {
	model := postToModel(p)
	return s.db.WithContext(ctx).Create(&model).Error
}

func (s *GormStore) GetPost(ctx context.Context, id string) (domain.Post, bool, error) {
	var model PostModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Post{}, false, nil
		}
		return domain.Post{}, false, err
	}
	return postFromModel(model), true, nil
}

func (s *GormStore) UpdatePost(ctx context.Context, id string, apply func(*domain.Post) error) (domain.Post, error) {
	var out domain.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model PostModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		post := postFromModel(model)
		if err := apply(&post); err != nil {
			return err
		}
		out = post
		updated := postToModel(post)
		return tx.Save(&updated).Error
	})
	if err != nil {
		return domain.Post{}, err
	}
	return out, nil
}

func (s *GormStore) DeletePost(ctx context.Context, id string, guard func(domain.Post) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model PostModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if guard != nil {
			if err := guard(postFromModel(model)); err != nil {
				return err
			}
		}
		if err := tx.Delete(&CommentModel{}, "post_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&PostModel{}, "id = ?", id).Error
	})
}

func (s *GormStore) ListPosts(ctx context.Context, f PostFilter) ([]domain.Post, error) {
	tx := s.db.WithContext(ctx).Model(&PostModel{})
	if f.CategoryID != "" {
		tx = tx.Where("category_id = ?", f.CategoryID)
	}
	if f.OwnerID != "" {
		tx = tx.Where("owner_id = ?", f.OwnerID)
	}
	if f.Verified != nil {
		tx = tx.Where("verified = ?", *f.Verified)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		tx = tx.Where("title ILIKE ? OR content ILIKE ?", pattern, pattern)
	}
	if f.Sort == "oldest" {
		tx = tx.Order("pinned DESC, created_at ASC")
	} else {
		tx = tx.Order("pinned DESC, created_at DESC")
	}
	tx = paginate(tx, f.Page, f.Limit)
	var models []PostModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Post, 0, len(models))
	for _, m := range models {
		res = append(res, postFromModel(m))
	}
	return res, nil
}

// comments

func (s *GormStore) CreateComment(ctx context.Context, c domain.Comment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&PostModel{}).Where("id = ?", c.PostID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		model := commentToModel(c)
		return tx.Create(&model).Error
	})
}

func (s *GormStore) ListComments(ctx context.Context, postID string) ([]domain.Comment, error) {
	var models []CommentModel
	if err := s.db.WithContext(ctx).Where("post_id = ?", postID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Comment, 0, len(models))
	for _, m := range models {
		res = append(res, commentFromModel(m))
	}
	return res, nil
}

// categories

func (s *GormStore) CreateCategory(ctx context.Context, c domain.Category) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&CategoryModel{}).Where("slug = ?", c.Slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrSlugTaken
		}
		model := categoryToModel(c)
		return tx.Create(&model).Error
	})
}

func (s *GormStore) GetCategory(ctx context.Context, id string) (domain.Category, bool, error) {
	var model CategoryModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Category{}, false, nil
		}
		return domain.Category{}, false, err
	}
	return categoryFromModel(model), true, nil
}

func (s *GormStore) GetCategoryBySlug(ctx context.Context, slug string) (domain.Category, bool, error) {
	var model CategoryModel
	if err := s.db.WithContext(ctx).First(&model, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Category{}, false, nil
		}
		return domain.Category{}, false, err
	}
	return categoryFromModel(model), true, nil
}

func (s *GormStore) UpdateCategory(ctx context.Context, id string, apply func(*domain.Category) error) (domain.Category, error) {
	var out domain.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model CategoryModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		category := categoryFromModel(model)
		if err := apply(&category); err != nil {
			return err
		}
		if category.Slug != model.Slug {
			var count int64
			if err := tx.Model(&CategoryModel{}).Where("slug = ? AND id <> ?", category.Slug, id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrSlugTaken
			}
		}
		out = category
		updated := categoryToModel(category)
		return tx.Save(&updated).Error
	})
	if err != nil {
		return domain.Category{}, err
	}
	return out, nil
}

// DeleteCategory removes a category only when no listing or post still
// references it; the check and the delete share one transaction.
func (s *GormStore) DeleteCategory(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model CategoryModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		var listings, posts int64
		if err := tx.Model(&ListingModel{}).Where("category_id = ?", id).Count(&listings).Error; err != nil {
			return err
		}
		if err := tx.Model(&PostModel{}).Where("category_id = ?", id).Count(&posts).Error; err != nil {
			return err
		}
		if listings > 0 || posts > 0 {
			return ErrHasDependents
		}
		return tx.Delete(&CategoryModel{}, "id = ?", id).Error
	})
}

func (s *GormStore) ListCategories(ctx context.Context, kind domain.CategoryKind) ([]domain.Category, error) {
	tx := s.db.WithContext(ctx).Model(&CategoryModel{}).Order("name ASC")
	if kind != "" {
		tx = tx.Where("kind = ?", string(kind))
	}
	var models []CategoryModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Category, 0, len(models))
	for _, m := range models {
		res = append(res, categoryFromModel(m))
	}
	return res, nil
}

// Stats aggregates admin dashboard counters.
func (s *GormStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	db := s.db.WithContext(ctx)
	if err := db.Model(&AccountModel{}).Count(&stats.Accounts).Error; err != nil {
		return Stats{}, err
	}
	if err := db.Model(&ListingModel{}).Count(&stats.Listings).Error; err != nil {
		return Stats{}, err
	}
	if err := db.Model(&PostModel{}).Count(&stats.Posts).Error; err != nil {
		return Stats{}, err
	}
	if err := db.Model(&ListingModel{}).Where("state = ?", string(domain.StatePending)).Count(&stats.PendingListings).Error; err != nil {
		return Stats{}, err
	}
	if err := db.Model(&AccountModel{}).Where("verified = ?", true).Count(&stats.VerifiedAccounts).Error; err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func paginate(tx *gorm.DB, page, limit int) *gorm.DB {
	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	return tx.Offset((page - 1) * limit).Limit(limit)
}
