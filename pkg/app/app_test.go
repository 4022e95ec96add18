package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"chattala/pkg/domain"
	"chattala/pkg/store"
)

func newTestApp(t *testing.T, moderation bool) (*App, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	a, err := New(Config{
		Store:             st,
		JWTSecret:         "test-secret",
		SessionTTL:        time.Hour,
		ModerationEnabled: moderation,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a, st
}

func signUp(t *testing.T, a *App, email string) domain.Account {
	t.Helper()
	account, _, err := a.SignUp(context.Background(), email, "hunter2!", "")
	if err != nil {
		t.Fatalf("sign up %s: %v", email, err)
	}
	return account
}

func mustCategory(t *testing.T, a *App, admin domain.Account, slug string, kind domain.CategoryKind) domain.Category {
	t.Helper()
	category, err := a.CreateCategory(context.Background(), &admin, CategoryInput{
		Name: "Category " + slug,
		Slug: slug,
		Kind: kind,
	})
	if err != nil {
		t.Fatalf("create category %s: %v", slug, err)
	}
	return category
}

func bikeInput(categoryID string) ListingInput {
	return ListingInput{
		Title:       "Bike",
		Description: "A sturdy commuter bike in good shape.",
		Price:       1500,
		CategoryID:  categoryID,
	}
}

func TestFirstSignUpBecomesAdmin(t *testing.T) {
	a, _ := newTestApp(t, true)
	carol := signUp(t, a, "carol@example.com")
	if carol.Role != domain.RoleAdmin {
		t.Fatalf("first account role = %s, want ADMIN", carol.Role)
	}
	bob := signUp(t, a, "bob@example.com")
	if bob.Role != domain.RoleMember {
		t.Fatalf("second account role = %s, want MEMBER", bob.Role)
	}
}

func TestLoginAndSessionRoundTrip(t *testing.T) {
	a, _ := newTestApp(t, true)
	signUp(t, a, "carol@example.com")

	account, token, err := a.Login(context.Background(), "Carol@Example.com", "hunter2!")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resolved, ok := a.AccountFromToken(context.Background(), token)
	if !ok || resolved.ID != account.ID {
		t.Fatalf("token did not resolve back to the account")
	}

	if _, _, err := a.Login(context.Background(), "carol@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("bad password: got %v, want ErrInvalidCredentials", err)
	}
}

// Scenario: member creates a PENDING listing, a non-admin cannot
// approve it, an admin can.
func TestModerationFlow(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, true)
	carol := signUp(t, a, "carol@example.com")
	bob := signUp(t, a, "bob@example.com")
	alice := signUp(t, a, "alice@example.com")
	cat := mustCategory(t, a, carol, "vehicles", domain.KindMarketplace)

	bike, err := a.CreateListing(ctx, &bob, bikeInput(cat.ID))
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	if bike.State != domain.StatePending {
		t.Fatalf("new listing state = %s, want PENDING", bike.State)
	}

	var unauthorized *UnauthorizedError
	if _, err := a.TransitionListing(ctx, &alice, bike.ID, domain.StateApproved); !errors.As(err, &unauthorized) {
		t.Fatalf("member transition: got %v, want UnauthorizedError", err)
	}

	approved, err := a.TransitionListing(ctx, &carol, bike.ID, domain.StateApproved)
	if err != nil {
		t.Fatalf("admin transition: %v", err)
	}
	if approved.State != domain.StateApproved {
		t.Fatalf("state = %s, want APPROVED", approved.State)
	}

	// PENDING is never re-entered.
	var conflict *ConflictError
	if _, err := a.TransitionListing(ctx, &carol, bike.ID, domain.StatePending); !errors.As(err, &conflict) {
		t.Fatalf("transition back to PENDING: got %v, want ConflictError", err)
	}
}

func TestModerationDisabledCreatesApproved(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, false)
	carol := signUp(t, a, "carol@example.com")
	bob := signUp(t, a, "bob@example.com")
	cat := mustCategory(t, a, carol, "vehicles", domain.KindMarketplace)

	bike, err := a.CreateListing(ctx, &bob, bikeInput(cat.ID))
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	if bike.State != domain.StateApproved {
		t.Fatalf("state = %s, want APPROVED with moderation disabled", bike.State)
	}
}

// Scenario: a suspended member cannot create, and the failed call
// leaves storage untouched.
func TestSuspendedCannotCreate(t *testing.T) {
	ctx := context.Background()
	a, st := newTestApp(t, true)
	carol := signUp(t, a, "carol@example.com")
	bob := signUp(t, a, "bob@example.com")

	bob, err := a.SetAccountSuspended(ctx, &carol, bob.ID, true)
	if err != nil {
		t.Fatalf("suspend: %v", err)
	}

	_, err = a.CreatePost(ctx, &bob, PostInput{Title: "Hi there", Content: "Hello community"})
	var unauthorized *UnauthorizedError
	if !errors.As(err, &unauthorized) {
		t.Fatalf("suspended create: got %v, want UnauthorizedError", err)
	}
	posts, err := st.ListPosts(ctx, store.PostFilter{})
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("post count = %d after denied create, want 0", len(posts))
	}
}

// Scenario: editing your own PENDING listing succeeds and does not
// change the moderation state.
func TestEditDoesNotAdvanceModeration(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, true)
	carol := signUp(t, a, "carol@example.com")
	bob := signUp(t, a, "bob@example.com")
	cat := mustCategory(t, a, carol, "vehicles", domain.KindMarketplace)

	bike, err := a.CreateListing(ctx, &bob, bikeInput(cat.ID))
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	title := "Bike (used)"
	updated, err := a.UpdateListing(ctx, &bob, bike.ID, ListingUpdate{Title: &title})
	if err != nil {
		t.Fatalf("update listing: %v", err)
	}
	if updated.Title != title {
		t.Fatalf("title = %q, want %q", updated.Title, title)
	}
	if updated.State != domain.StatePending {
		t.Fatalf("state = %s after edit, want PENDING", updated.State)
	}
}

func TestNonOwnerCannotEditOrDelete(t *testing.T) {
	ctx := context.Background()
	a, st := newTestApp(t, true)
	carol := signUp(t, a, "carol@example.com")
	bob := signUp(t, a, "bob@example.com")
	alice := signUp(t, a, "alice@example.com")
	cat := mustCategory(t, a, carol, "vehicles", domain.KindMarketplace)

	bike, err := a.CreateListing(ctx, &bob, bikeInput(cat.ID))
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}

	title := "Stolen bike"
	var unauthorized *UnauthorizedError
	if _, err := a.UpdateListing(ctx, &alice, bike.ID, ListingUpdate{Title: &title}); !errors.As(err, &unauthorized) {
		t.Fatalf("non-owner edit: got %v, want UnauthorizedError", err)
	}
	if err := a.DeleteListing(ctx, &alice, bike.ID); !errors.As(err, &unauthorized) {
		t.Fatalf("non-owner delete: got %v, want UnauthorizedError", err)
	}
	// Admin role does not substitute for ownership on edits either.
	if _, err := a.UpdateListing(ctx, &carol, bike.ID, ListingUpdate{Title: &title}); !errors.As(err, &unauthorized) {
		t.Fatalf("admin edit of another's listing: got %v, want UnauthorizedError", err)
	}

	got, found, err := st.GetListing(ctx, bike.ID)
	if err != nil || !found {
		t.Fatalf("listing gone after denied mutations: found=%v err=%v", found, err)
	}
	if got.Title != "Bike" {
		t.Fatalf("title = %q after denied mutations, want unchanged", got.Title)
	}
}

// Scenario: deleting a category with dependents fails with Conflict and
// leaves the category in place.
func TestCategoryDeletionGuard(t *testing.T) {
	ctx := context.Background()
	a, st := newTestApp(t, true)
	carol := signUp(t, a, "carol@example.com")
	bob := signUp(t, a, "bob@example.com")
	cat := mustCategory(t, a, carol, "electronics", domain.KindMarketplace)

	for i := 0; i < 3; i++ {
		if _, err := a.CreateListing(ctx, &bob, ListingInput{
			Title:       "Gadget",
			Description: "A gadget in working condition.",
			Price:       25,
			CategoryID:  cat.ID,
		}); err != nil {
			t.Fatalf("create listing %d: %v", i, err)
		}
	}

	var conflict *ConflictError
	if err := a.DeleteCategory(ctx, &carol, cat.ID); !errors.As(err, &conflict) {
		t.Fatalf("delete with dependents: got %v, want ConflictError", err)
	}
	if _, found, err := st.GetCategory(ctx, cat.ID); err != nil || !found {
		t.Fatalf("category missing after failed delete: found=%v err=%v", found, err)
	}

	empty := mustCategory(t, a, carol, "empty", domain.KindMarketplace)
	if err := a.DeleteCategory(ctx, &carol, empty.ID); err != nil {
		t.Fatalf("delete empty category: %v", err)
	}
}

// Scenario: an anonymous actor is denied comment creation.
func TestAnonymousCannotComment(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, true)
	bob := signUp(t, a, "bob@example.com")
	post, err := a.CreatePost(ctx, &bob, PostInput{Title: "Hi there", Content: "Hello community"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	var unauthorized *UnauthorizedError
	if _, err := a.CreateComment(ctx, nil, post.ID, "first!"); !errors.As(err, &unauthorized) {
		t.Fatalf("anonymous comment: got %v, want UnauthorizedError", err)
	}
}

func TestValidationFailureTouchesNothing(t *testing.T) {
	ctx := context.Background()
	a, st := newTestApp(t, true)
	carol := signUp(t, a, "carol@example.com")
	cat := mustCategory(t, a, carol, "vehicles", domain.KindMarketplace)

	cases := []ListingInput{
		{Title: "ab", Description: "long enough description", Price: 10, CategoryID: cat.ID},
		{Title: "Valid title", Description: "short", Price: 10, CategoryID: cat.ID},
		{Title: "Valid title", Description: "long enough description", Price: 0, CategoryID: cat.ID},
		{Title: "Valid title", Description: "long enough description", Price: 10},
	}
	for i, in := range cases {
		_, err := a.CreateListing(ctx, &carol, in)
		var validation *ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("case %d: got %v, want ValidationError", i, err)
		}
	}
	listings, err := st.ListListings(ctx, store.ListingFilter{})
	if err != nil {
		t.Fatalf("list listings: %v", err)
	}
	if len(listings) != 0 {
		t.Fatalf("listing count = %d after failed creates, want 0", len(listings))
	}
}

func TestListingRequiresMarketplaceCategory(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, true)
	carol := signUp(t, a, "carol@example.com")
	community := mustCategory(t, a, carol, "events", domain.KindCommunity)

	_, err := a.CreateListing(ctx, &carol, bikeInput(community.ID))
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("listing in community category: got %v, want ValidationError", err)
	}
}

func TestBrowseVisibility(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, true)
	carol := signUp(t, a, "carol@example.com")
	bob := signUp(t, a, "bob@example.com")
	alice := signUp(t, a, "alice@example.com")
	cat := mustCategory(t, a, carol, "vehicles", domain.KindMarketplace)

	bike, err := a.CreateListing(ctx, &bob, bikeInput(cat.ID))
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}

	// Pending listing hidden from the public feed and from strangers.
	public, err := a.BrowseListings(ctx, nil, store.ListingFilter{})
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	if len(public) != 0 {
		t.Fatalf("public feed shows %d pending listings, want 0", len(public))
	}
	var notFound *NotFoundError
	if _, err := a.GetListing(ctx, &alice, bike.ID); !errors.As(err, &notFound) {
		t.Fatalf("stranger read of pending listing: got %v, want NotFoundError", err)
	}

	// Owner and admin see it.
	if _, err := a.GetListing(ctx, &bob, bike.ID); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := a.GetListing(ctx, &carol, bike.ID); err != nil {
		t.Fatalf("admin read: %v", err)
	}

	if _, err := a.TransitionListing(ctx, &carol, bike.ID, domain.StateApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}
	public, err = a.BrowseListings(ctx, nil, store.ListingFilter{})
	if err != nil {
		t.Fatalf("browse after approve: %v", err)
	}
	if len(public) != 1 {
		t.Fatalf("public feed shows %d listings after approve, want 1", len(public))
	}
}

func TestTogglePostFlags(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, true)
	carol := signUp(t, a, "carol@example.com")
	bob := signUp(t, a, "bob@example.com")

	post, err := a.CreatePost(ctx, &bob, PostInput{Title: "Yard sale", Content: "Everything must go this weekend."})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	var unauthorized *UnauthorizedError
	if _, err := a.TogglePost(ctx, &bob, post.ID, domain.FlagPinned, true); !errors.As(err, &unauthorized) {
		t.Fatalf("owner pin: got %v, want UnauthorizedError", err)
	}

	pinned, err := a.TogglePost(ctx, &carol, post.ID, domain.FlagPinned, true)
	if err != nil {
		t.Fatalf("admin pin: %v", err)
	}
	if !pinned.Pinned {
		t.Fatal("post not pinned")
	}
	verified, err := a.TogglePost(ctx, &carol, post.ID, domain.FlagVerified, true)
	if err != nil {
		t.Fatalf("admin verify: %v", err)
	}
	if !verified.Verified || !verified.Pinned {
		t.Fatalf("flags = pinned:%v verified:%v, want both true", verified.Pinned, verified.Verified)
	}

	var validation *ValidationError
	if _, err := a.TogglePost(ctx, &carol, post.ID, domain.PostFlag("starred"), true); !errors.As(err, &validation) {
		t.Fatalf("unknown flag: got %v, want ValidationError", err)
	}
}

func TestMutateDispatch(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, true)
	carol := signUp(t, a, "carol@example.com")
	bob := signUp(t, a, "bob@example.com")
	cat := mustCategory(t, a, carol, "vehicles", domain.KindMarketplace)

	created, err := a.Mutate(ctx, &bob, domain.ActionCreateListing, "", bikeInput(cat.ID))
	if err != nil {
		t.Fatalf("mutate create: %v", err)
	}
	bike, ok := created.(domain.Listing)
	if !ok {
		t.Fatalf("mutate create returned %T, want domain.Listing", created)
	}

	if _, err := a.Mutate(ctx, &carol, domain.ActionModerateListing, bike.ID, domain.StateApproved); err != nil {
		t.Fatalf("mutate moderate: %v", err)
	}
	if _, err := a.Mutate(ctx, &bob, domain.ActionToggleSold, bike.ID, SoldToggle{Sold: true}); err != nil {
		t.Fatalf("mutate toggle sold: %v", err)
	}

	var validation *ValidationError
	if _, err := a.Mutate(ctx, &bob, domain.ActionCreateListing, "", "not a listing"); !errors.As(err, &validation) {
		t.Fatalf("wrong payload: got %v, want ValidationError", err)
	}
	if _, err := a.Mutate(ctx, &bob, domain.Action("NOPE"), "", nil); !errors.As(err, &validation) {
		t.Fatalf("unknown action: got %v, want ValidationError", err)
	}

	if _, err := a.Mutate(ctx, &bob, domain.ActionDeleteListing, bike.ID, nil); err != nil {
		t.Fatalf("mutate delete: %v", err)
	}
}

func TestAdminAccountOps(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, true)
	carol := signUp(t, a, "carol@example.com")
	bob := signUp(t, a, "bob@example.com")

	var unauthorized *UnauthorizedError
	if _, err := a.SetAccountVerified(ctx, &bob, carol.ID, true); !errors.As(err, &unauthorized) {
		t.Fatalf("member manage user: got %v, want UnauthorizedError", err)
	}

	verified, err := a.SetAccountVerified(ctx, &carol, bob.ID, true)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !verified.Verified {
		t.Fatal("account not verified")
	}

	var conflict *ConflictError
	if _, err := a.SetAccountSuspended(ctx, &carol, carol.ID, true); !errors.As(err, &conflict) {
		t.Fatalf("self-suspend: got %v, want ConflictError", err)
	}
	if _, err := a.SetAccountRole(ctx, &carol, carol.ID, domain.RoleMember); !errors.As(err, &conflict) {
		t.Fatalf("self-demote: got %v, want ConflictError", err)
	}

	promoted, err := a.SetAccountRole(ctx, &carol, bob.ID, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if promoted.Role != domain.RoleAdmin {
		t.Fatalf("role = %s, want ADMIN", promoted.Role)
	}

	stats, err := a.Stats(ctx, &carol)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Accounts != 2 || stats.VerifiedAccounts != 1 {
		t.Fatalf("stats = %+v, want 2 accounts / 1 verified", stats)
	}
}

func TestSeedCategoriesIdempotent(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, true)

	if err := a.SeedCategories(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	first, err := a.ListCategories(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first) == 0 {
		t.Fatal("seed produced no categories")
	}

	if err := a.SeedCategories(ctx); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	second, err := a.ListCategories(ctx, "")
	if err != nil {
		t.Fatalf("list after reseed: %v", err)
	}
	if len(second) != len(first) {
		t.Fatalf("category count changed on reseed: %d -> %d", len(first), len(second))
	}

	marketplace, err := a.ListCategories(ctx, domain.KindMarketplace)
	if err != nil {
		t.Fatalf("list marketplace: %v", err)
	}
	for _, c := range marketplace {
		if c.Kind != domain.KindMarketplace {
			t.Fatalf("kind filter leaked %s category %s", c.Kind, c.Slug)
		}
	}
}

func TestResolveCreatesOnFirstSight(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, true)

	account, ok, err := a.Resolve(ctx, "  New@Example.COM ")
	if err != nil || !ok {
		t.Fatalf("resolve: ok=%v err=%v", ok, err)
	}
	if account.Email != "new@example.com" {
		t.Fatalf("email = %q, want normalized", account.Email)
	}
	if account.Role != domain.RoleMember {
		t.Fatalf("role = %s, want MEMBER", account.Role)
	}

	again, ok, err := a.Resolve(ctx, "new@example.com")
	if err != nil || !ok {
		t.Fatalf("second resolve: ok=%v err=%v", ok, err)
	}
	if again.ID != account.ID {
		t.Fatal("second resolve created a new account")
	}

	if _, ok, err := a.Resolve(ctx, ""); err != nil || ok {
		t.Fatalf("anonymous resolve: ok=%v err=%v, want false/nil", ok, err)
	}
}
