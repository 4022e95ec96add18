package app

import (
	"context"

	"chattala/pkg/domain"
	"chattala/pkg/policy"
	"chattala/pkg/store"
)

// Read operations. Listings honor the visibility rules: only APPROVED
// listings are public, owners and admins also see PENDING and REJECTED.

// BrowseListings lists marketplace listings for the public feed. The
// state filter is forced to APPROVED unless the actor is an admin or is
// browsing their own listings.
func (a *App) BrowseListings(ctx context.Context, actor *domain.Account, f store.ListingFilter) ([]domain.Listing, error) {
	ownScoped := actor != nil && f.OwnerID == actor.ID && f.OwnerID != ""
	admin := actor != nil && actor.Role == domain.RoleAdmin
	if !ownScoped && !admin {
		f.State = domain.StateApproved
	}
	listings, err := a.store.ListListings(ctx, f)
	if err != nil {
		return nil, storeErr("list listings", "listing", err)
	}
	return listings, nil
}

// GetListing returns one listing if the actor may see it. Invisible and
// missing listings are indistinguishable to the caller.
func (a *App) GetListing(ctx context.Context, actor *domain.Account, id string) (domain.Listing, error) {
	listing, found, err := a.store.GetListing(ctx, id)
	if err != nil {
		return domain.Listing{}, storeErr("get listing", "listing", err)
	}
	if !found || !policy.ListingVisibleTo(actor, listing) {
		return domain.Listing{}, &NotFoundError{Entity: "listing"}
	}
	return listing, nil
}

// ListOwnListings returns the actor's listings in every state, for
// their dashboard.
func (a *App) ListOwnListings(ctx context.Context, actor *domain.Account, f store.ListingFilter) ([]domain.Listing, error) {
	if actor == nil {
		return nil, &UnauthorizedError{Reason: "authentication required"}
	}
	f.OwnerID = actor.ID
	listings, err := a.store.ListListings(ctx, f)
	if err != nil {
		return nil, storeErr("list own listings", "listing", err)
	}
	return listings, nil
}

// ListPosts lists community posts, pinned first.
func (a *App) ListPosts(ctx context.Context, f store.PostFilter) ([]domain.Post, error) {
	posts, err := a.store.ListPosts(ctx, f)
	if err != nil {
		return nil, storeErr("list posts", "post", err)
	}
	return posts, nil
}

// GetPost returns one post. Posts have no moderation gate; any reader
// may fetch any post.
func (a *App) GetPost(ctx context.Context, id string) (domain.Post, error) {
	post, found, err := a.store.GetPost(ctx, id)
	if err != nil {
		return domain.Post{}, storeErr("get post", "post", err)
	}
	if !found {
		return domain.Post{}, &NotFoundError{Entity: "post"}
	}
	return post, nil
}

// ListComments returns a post's comments oldest first.
func (a *App) ListComments(ctx context.Context, postID string) ([]domain.Comment, error) {
	if _, err := a.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := a.store.ListComments(ctx, postID)
	if err != nil {
		return nil, storeErr("list comments", "post", err)
	}
	return comments, nil
}

// ListCategories returns categories of one kind, or all when kind is
// empty.
func (a *App) ListCategories(ctx context.Context, kind domain.CategoryKind) ([]domain.Category, error) {
	categories, err := a.store.ListCategories(ctx, kind)
	if err != nil {
		return nil, storeErr("list categories", "category", err)
	}
	return categories, nil
}
