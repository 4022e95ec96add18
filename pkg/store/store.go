package store

import (
	"context"
	"errors"

	"chattala/pkg/domain"
)

var (
	// ErrNotFound is returned when the referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrHasDependents blocks category deletion while listings or posts
	// still reference the category.
	ErrHasDependents = errors.New("category has dependents")
	// ErrEmailTaken signals the unique constraint on account email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrSlugTaken signals the unique constraint on category slug.
	ErrSlugTaken = errors.New("slug already in use")
)

// ListingFilter narrows listing queries. Zero values mean "no filter".
type ListingFilter struct {
	CategoryID string
	OwnerID    string
	State      domain.ModerationState
	Search     string
	Location   string
	MinPrice   *float64
	MaxPrice   *float64
	Sort       string // newest | oldest | price-low | price-high
	Page       int
	Limit      int
}

// PostFilter narrows post queries.
type PostFilter struct {
	CategoryID string
	OwnerID    string
	Verified   *bool
	Search     string
	Sort       string // newest | oldest
	Page       int
	Limit      int
}

// AccountFilter narrows account queries (admin user table).
type AccountFilter struct {
	Role      domain.Role
	Verified  *bool
	Suspended *bool
	Search    string
}

// Stats are the counters shown on the admin dashboard.
type Stats struct {
	Accounts         int64 `json:"accounts"`
	Listings         int64 `json:"listings"`
	Posts            int64 `json:"posts"`
	PendingListings  int64 `json:"pendingListings"`
	VerifiedAccounts int64 `json:"verifiedAccounts"`
}

// Store defines persistence for accounts, listings, posts, comments,
// and categories.
//
// The Update* methods run apply against a freshly loaded row inside a
// single storage transaction: an error returned by apply rolls the
// transaction back and is propagated to the caller unchanged. The
// mutation gateway relies on this to re-check ownership and moderation
// transitions against current state, not a possibly-stale copy read
// earlier in the request. Delete guards work the same way.
type Store interface {
	// accounts
	CreateAccount(ctx context.Context, a domain.Account) error
	GetAccountByID(ctx context.Context, id string) (domain.Account, bool, error)
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, bool, error)
	UpdateAccount(ctx context.Context, id string, apply func(*domain.Account) error) (domain.Account, error)
	ListAccounts(ctx context.Context, f AccountFilter) ([]domain.Account, error)
	CountAccounts(ctx context.Context) (int64, error)

	// listings
	CreateListing(ctx context.Context, l domain.Listing) error
	GetListing(ctx context.Context, id string) (domain.Listing, bool, error)
	UpdateListing(ctx context.Context, id string, apply func(*domain.Listing) error) (domain.Listing, error)
	DeleteListing(ctx context.Context, id string, guard func(domain.Listing) error) error
	ListListings(ctx context.Context, f ListingFilter) ([]domain.Listing, error)

	// posts
	CreatePost(ctx context.Context, p domain.Post) error
	GetPost(ctx context.Context, id string) (domain.Post, bool, error)
	UpdatePost(ctx context.Context, id string, apply func(*domain.Post) error) (domain.Post, error)
	DeletePost(ctx context.Context, id string, guard func(domain.Post) error) error
	ListPosts(ctx context.Context, f PostFilter) ([]domain.Post, error)

	// comments (append-only)
	CreateComment(ctx context.Context, c domain.Comment) error
	ListComments(ctx context.Context, postID string) ([]domain.Comment, error)

	// categories
	CreateCategory(ctx context.Context, c domain.Category) error
	GetCategory(ctx context.Context, id string) (domain.Category, bool, error)
	GetCategoryBySlug(ctx context.Context, slug string) (domain.Category, bool, error)
	UpdateCategory(ctx context.Context, id string, apply func(*domain.Category) error) (domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	ListCategories(ctx context.Context, kind domain.CategoryKind) ([]domain.Category, error)

	Stats(ctx context.Context) (Stats, error)
}
