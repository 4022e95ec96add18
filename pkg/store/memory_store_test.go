package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"chattala/pkg/domain"
)

func seedStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.CreateCategory(ctx, domain.Category{ID: "cat-1", Name: "Electronics", Slug: "electronics", Kind: domain.KindMarketplace}); err != nil {
		t.Fatalf("create category: %v", err)
	}
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	listings := []domain.Listing{
		{ID: "l1", OwnerID: "u1", CategoryID: "cat-1", Title: "Used phone", Price: 500, State: domain.StateApproved, Location: "Agrabad", CreatedAt: base},
		{ID: "l2", OwnerID: "u1", CategoryID: "cat-1", Title: "Laptop", Price: 30000, State: domain.StatePending, Location: "Khulshi", CreatedAt: base.Add(time.Hour)},
		{ID: "l3", OwnerID: "u2", CategoryID: "cat-1", Title: "Bike", Price: 1500, State: domain.StateApproved, Location: "Agrabad", CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, l := range listings {
		if err := s.CreateListing(ctx, l); err != nil {
			t.Fatalf("create listing: %v", err)
		}
	}
	return s
}

func TestListListingsFilters(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	got, err := s.ListListings(ctx, ListingFilter{State: domain.StateApproved})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("approved filter expected 2 listings, got %d", len(got))
	}
	// newest first by default
	if got[0].ID != "l3" {
		t.Fatalf("expected newest first, got %s", got[0].ID)
	}

	min := 1000.0
	got, err = s.ListListings(ctx, ListingFilter{MinPrice: &min, Sort: "price-high"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "l2" {
		t.Fatalf("price filter/sort mismatch: %+v", got)
	}

	got, err = s.ListListings(ctx, ListingFilter{Location: "agrabad"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("location filter expected 2 listings, got %d", len(got))
	}
}

func TestUpdateListingApplyErrorRollsBack(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := s.UpdateListing(ctx, "l1", func(l *domain.Listing) error {
		l.Title = "changed"
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected apply error, got %v", err)
	}
	l, _, _ := s.GetListing(ctx, "l1")
	if l.Title != "Used phone" {
		t.Fatalf("failed apply must not persist, title = %q", l.Title)
	}
}

func TestDeleteListingGuard(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()
	denied := errors.New("denied")

	if err := s.DeleteListing(ctx, "l1", func(domain.Listing) error { return denied }); !errors.Is(err, denied) {
		t.Fatalf("expected guard error, got %v", err)
	}
	if _, ok, _ := s.GetListing(ctx, "l1"); !ok {
		t.Fatalf("guarded delete removed the row")
	}
	if err := s.DeleteListing(ctx, "l1", nil); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.GetListing(ctx, "l1"); ok {
		t.Fatalf("listing should be gone")
	}
	if err := s.DeleteListing(ctx, "missing", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCategoryDeletionBlockedByDependents(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	if err := s.DeleteCategory(ctx, "cat-1"); !errors.Is(err, ErrHasDependents) {
		t.Fatalf("expected ErrHasDependents, got %v", err)
	}
	if _, ok, _ := s.GetCategory(ctx, "cat-1"); !ok {
		t.Fatalf("category must survive blocked delete")
	}

	for _, id := range []string{"l1", "l2", "l3"} {
		if err := s.DeleteListing(ctx, id, nil); err != nil {
			t.Fatalf("delete listing %s: %v", id, err)
		}
	}
	if err := s.DeleteCategory(ctx, "cat-1"); err != nil {
		t.Fatalf("delete empty category: %v", err)
	}
}

func TestAccountEmailUnique(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	a := domain.Account{ID: "u1", Email: "bob@example.com", Role: domain.RoleMember}
	if err := s.CreateAccount(ctx, a); err != nil {
		t.Fatalf("create account: %v", err)
	}
	dup := domain.Account{ID: "u2", Email: "bob@example.com", Role: domain.RoleMember}
	if err := s.CreateAccount(ctx, dup); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestCommentRequiresPost(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	err := s.CreateComment(ctx, domain.Comment{ID: "c1", PostID: "nope", OwnerID: "u1", Content: "hello"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing post, got %v", err)
	}
	if err := s.CreatePost(ctx, domain.Post{ID: "p1", OwnerID: "u1", Title: "Hi"}); err != nil {
		t.Fatalf("create post: %v", err)
	}
	if err := s.CreateComment(ctx, domain.Comment{ID: "c1", PostID: "p1", OwnerID: "u1", Content: "hello"}); err != nil {
		t.Fatalf("create comment: %v", err)
	}
	comments, err := s.ListComments(ctx, "p1")
	if err != nil || len(comments) != 1 {
		t.Fatalf("expected one comment, got %v %v", comments, err)
	}
}

func TestStats(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()
	if err := s.CreateAccount(ctx, domain.Account{ID: "u1", Email: "a@example.com", Verified: true}); err != nil {
		t.Fatalf("create account: %v", err)
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Listings != 3 || stats.PendingListings != 1 || stats.Accounts != 1 || stats.VerifiedAccounts != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
