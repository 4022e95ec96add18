package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"chattala/pkg/domain"
)

// MemoryStore keeps everything in-process. It backs unit tests and
// mirrors GormStore semantics, including the run-apply-under-lock
// contract of the Update* methods.
type MemoryStore struct {
	mu         sync.RWMutex
	accounts   map[string]domain.Account
	emails     map[string]string // email -> account ID
	listings   map[string]domain.Listing
	posts      map[string]domain.Post
	comments   map[string][]domain.Comment // post ID -> comments
	categories map[string]domain.Category
	slugs      map[string]string // slug -> category ID
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:   make(map[string]domain.Account),
		emails:     make(map[string]string),
		listings:   make(map[string]domain.Listing),
		posts:      make(map[string]domain.Post),
		comments:   make(map[string][]domain.Comment),
		categories: make(map[string]domain.Category),
		slugs:      make(map[string]string),
	}
}

// accounts

func (m *MemoryStore) CreateAccount(_ context.Context, a domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.emails[a.Email]; taken {
		return ErrEmailTaken
	}
	m.accounts[a.ID] = a
	m.emails[a.Email] = a.ID
	return nil
}

func (m *MemoryStore) GetAccountByID(_ context.Context, id string) (domain.Account, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	return a, ok, nil
}

func (m *MemoryStore) GetAccountByEmail(_ context.Context, email string) (domain.Account, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.emails[email]
	if !ok {
		return domain.Account{}, false, nil
	}
	a, ok := m.accounts[id]
	return a, ok, nil
}

func (m *MemoryStore) UpdateAccount(_ context.Context, id string, apply func(*domain.Account) error) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return domain.Account{}, ErrNotFound
	}
	if err := apply(&a); err != nil {
		return domain.Account{}, err
	}
	m.accounts[id] = a
	return a, nil
}

func (m *MemoryStore) ListAccounts(_ context.Context, f AccountFilter) ([]domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		if f.Role != "" && a.Role != f.Role {
			continue
		}
		if f.Verified != nil && a.Verified != *f.Verified {
			continue
		}
		if f.Suspended != nil && a.Suspended != *f.Suspended {
			continue
		}
		if f.Search != "" && !containsFold(a.Name, f.Search) && !containsFold(a.Email, f.Search) {
			continue
		}
		res = append(res, a)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (m *MemoryStore) CountAccounts(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.accounts)), nil
}

// listings

func (m *MemoryStore) CreateListing(_ context.Context, l domain.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[l.ID] = l
	return nil
}

func (m *MemoryStore) GetListing(_ context.Context, id string) (domain.Listing, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.listings[id]
	return l, ok, nil
}

func (m *MemoryStore) UpdateListing(_ context.Context, id string, apply func(*domain.Listing) error) (domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return domain.Listing{}, ErrNotFound
	}
	if err := apply(&l); err != nil {
		return domain.Listing{}, err
	}
	m.listings[id] = l
	return l, nil
}

func (m *MemoryStore) DeleteListing(_ context.Context, id string, guard func(domain.Listing) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return ErrNotFound
	}
	if guard != nil {
		if err := guard(l); err != nil {
			return err
		}
	}
	delete(m.listings, id)
	return nil
}

func (m *MemoryStore) ListListings(_ context.Context, f ListingFilter) ([]domain.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Listing, 0, len(m.listings))
	for _, l := range m.listings {
		if f.CategoryID != "" && l.CategoryID != f.CategoryID {
			continue
		}
		if f.OwnerID != "" && l.OwnerID != f.OwnerID {
			continue
		}
		if f.State != "" && l.State != f.State {
			continue
		}
		if f.Search != "" && !containsFold(l.Title, f.Search) && !containsFold(l.Description, f.Search) {
			continue
		}
		if f.Location != "" && !containsFold(l.Location, f.Location) {
			continue
		}
		if f.MinPrice != nil && l.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && l.Price > *f.MaxPrice {
			continue
		}
		res = append(res, l)
	}
	switch f.Sort {
	case "oldest":
		sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	case "price-low":
		sort.Slice(res, func(i, j int) bool { return res[i].Price < res[j].Price })
	case "price-high":
		sort.Slice(res, func(i, j int) bool { return res[i].Price > res[j].Price })
	default:
		sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	}
	return pageSlice(res, f.Page, f.Limit), nil
}

// posts

func (m *MemoryStore) CreatePost(_ context.Context, p domain.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[p.ID] = p
	return nil
}

func (m *MemoryStore) GetPost(_ context.Context, id string) (domain.Post, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.posts[id]
	return p, ok, nil
}

func (m *MemoryStore) UpdatePost(_ context.Context, id string, apply func(*domain.Post) error) (domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return domain.Post{}, ErrNotFound
	}
	if err := apply(&p); err != nil {
		return domain.Post{}, err
	}
	m.posts[id] = p
	return p, nil
}

func (m *MemoryStore) DeletePost(_ context.Context, id string, guard func(domain.Post) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return ErrNotFound
	}
	if guard != nil {
		if err := guard(p); err != nil {
			return err
		}
	}
	delete(m.posts, id)
	delete(m.comments, id)
	return nil
}

func (m *MemoryStore) ListPosts(_ context.Context, f PostFilter) ([]domain.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Post, 0, len(m.posts))
	for _, p := range m.posts {
		if f.CategoryID != "" && p.CategoryID != f.CategoryID {
			continue
		}
		if f.OwnerID != "" && p.OwnerID != f.OwnerID {
			continue
		}
		if f.Verified != nil && p.Verified != *f.Verified {
			continue
		}
		if f.Search != "" && !containsFold(p.Title, f.Search) && !containsFold(p.Content, f.Search) {
			continue
		}
		res = append(res, p)
	}
	oldest := f.Sort == "oldest"
	sort.Slice(res, func(i, j int) bool {
		if res[i].Pinned != res[j].Pinned {
			return res[i].Pinned
		}
		if oldest {
			return res[i].CreatedAt.Before(res[j].CreatedAt)
		}
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return pageSlice(res, f.Page, f.Limit), nil
}

// comments

func (m *MemoryStore) CreateComment(_ context.Context, c domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[c.PostID]; !ok {
		return ErrNotFound
	}
	m.comments[c.PostID] = append(m.comments[c.PostID], c)
	return nil
}

func (m *MemoryStore) ListComments(_ context.Context, postID string) ([]domain.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	comments := m.comments[postID]
	res := make([]domain.Comment, len(comments))
	copy(res, comments)
	return res, nil
}

// categories

func (m *MemoryStore) CreateCategory(_ context.Context, c domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.slugs[c.Slug]; taken {
		return ErrSlugTaken
	}
	m.categories[c.ID] = c
	m.slugs[c.Slug] = c.ID
	return nil
}

func (m *MemoryStore) GetCategory(_ context.Context, id string) (domain.Category, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.categories[id]
	return c, ok, nil
}

func (m *MemoryStore) GetCategoryBySlug(_ context.Context, slug string) (domain.Category, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.slugs[slug]
	if !ok {
		return domain.Category{}, false, nil
	}
	c, ok := m.categories[id]
	return c, ok, nil
}

func (m *MemoryStore) UpdateCategory(_ context.Context, id string, apply func(*domain.Category) error) (domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return domain.Category{}, ErrNotFound
	}
	oldSlug := c.Slug
	if err := apply(&c); err != nil {
		return domain.Category{}, err
	}
	if c.Slug != oldSlug {
		if other, taken := m.slugs[c.Slug]; taken && other != id {
			return domain.Category{}, ErrSlugTaken
		}
		delete(m.slugs, oldSlug)
		m.slugs[c.Slug] = id
	}
	m.categories[id] = c
	return c, nil
}

func (m *MemoryStore) DeleteCategory(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return ErrNotFound
	}
	for _, l := range m.listings {
		if l.CategoryID == id {
			return ErrHasDependents
		}
	}
	for _, p := range m.posts {
		if p.CategoryID == id {
			return ErrHasDependents
		}
	}
	delete(m.categories, id)
	delete(m.slugs, c.Slug)
	return nil
}

func (m *MemoryStore) ListCategories(_ context.Context, kind domain.CategoryKind) ([]domain.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Category, 0, len(m.categories))
	for _, c := range m.categories {
		if kind != "" && c.Kind != kind {
			continue
		}
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (m *MemoryStore) Stats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := Stats{
		Accounts: int64(len(m.accounts)),
		Listings: int64(len(m.listings)),
		Posts:    int64(len(m.posts)),
	}
	for _, l := range m.listings {
		if l.State == domain.StatePending {
			stats.PendingListings++
		}
	}
	for _, a := range m.accounts {
		if a.Verified {
			stats.VerifiedAccounts++
		}
	}
	return stats, nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func pageSlice[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
