package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chattala/internal/util"
	"chattala/pkg/domain"
	"chattala/pkg/events"
	"chattala/pkg/policy"
)

// Listing mutations.

// CreateListing creates a listing owned by actor. With moderation
// enabled the listing starts PENDING and stays invisible to other
// members until approved.
func (a *App) CreateListing(ctx context.Context, actor *domain.Account, in ListingInput) (domain.Listing, error) {
	if d := policy.Authorize(actor, domain.ActionCreateListing, nil); !d.Allowed {
		return domain.Listing{}, &UnauthorizedError{Reason: d.Reason}
	}
	if err := validateListingInput(in); err != nil {
		return domain.Listing{}, err
	}
	if err := a.requireCategory(ctx, in.CategoryID, domain.KindMarketplace); err != nil {
		return domain.Listing{}, err
	}
	state := domain.StatePending
	if !a.moderationEnabled {
		state = domain.StateApproved
	}
	now := time.Now().UTC()
	listing := domain.Listing{
		ID:          util.NewID(),
		OwnerID:     actor.ID,
		CategoryID:  in.CategoryID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Price:       in.Price,
		Images:      in.Images,
		Location:    strings.TrimSpace(in.Location),
		Contact:     strings.TrimSpace(in.Contact),
		State:       state,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.store.CreateListing(ctx, listing); err != nil {
		return domain.Listing{}, storeErr("create listing", "listing", err)
	}
	a.invalidate(ctx, "marketplace", "dashboard:"+actor.ID)
	return listing, nil
}

// UpdateListing applies a partial edit to the actor's own listing.
// Editing never changes the moderation state.
func (a *App) UpdateListing(ctx context.Context, actor *domain.Account, id string, in ListingUpdate) (domain.Listing, error) {
	current, found, err := a.store.GetListing(ctx, id)
	if err != nil {
		return domain.Listing{}, storeErr("get listing", "listing", err)
	}
	if !found {
		return domain.Listing{}, &NotFoundError{Entity: "listing"}
	}
	if d := policy.Authorize(actor, domain.ActionEditListing, &policy.Target{OwnerID: current.OwnerID}); !d.Allowed {
		return domain.Listing{}, &UnauthorizedError{Reason: d.Reason}
	}
	if err := validateListingUpdate(in); err != nil {
		return domain.Listing{}, err
	}
	if in.CategoryID != nil {
		if err := a.requireCategory(ctx, *in.CategoryID, domain.KindMarketplace); err != nil {
			return domain.Listing{}, err
		}
	}
	listing, err := a.store.UpdateListing(ctx, id, func(l *domain.Listing) error {
		// Ownership re-checked against the freshly loaded row.
		if l.OwnerID != actor.ID {
			return &UnauthorizedError{Reason: "not owner"}
		}
		if in.Title != nil {
			l.Title = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			l.Description = *in.Description
		}
		if in.Price != nil {
			l.Price = *in.Price
		}
		if in.CategoryID != nil {
			l.CategoryID = *in.CategoryID
		}
		if in.Images != nil {
			l.Images = *in.Images
		}
		if in.Location != nil {
			l.Location = strings.TrimSpace(*in.Location)
		}
		if in.Contact != nil {
			l.Contact = strings.TrimSpace(*in.Contact)
		}
		l.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return domain.Listing{}, storeErr("update listing", "listing", err)
	}
	a.invalidate(ctx, "marketplace", "listing:"+id, "dashboard:"+actor.ID)
	return listing, nil
}

// DeleteListing removes the actor's own listing.
func (a *App) DeleteListing(ctx context.Context, actor *domain.Account, id string) error {
	current, found, err := a.store.GetListing(ctx, id)
	if err != nil {
		return storeErr("get listing", "listing", err)
	}
	if !found {
		return &NotFoundError{Entity: "listing"}
	}
	if d := policy.Authorize(actor, domain.ActionDeleteListing, &policy.Target{OwnerID: current.OwnerID}); !d.Allowed {
		return &UnauthorizedError{Reason: d.Reason}
	}
	err = a.store.DeleteListing(ctx, id, func(l domain.Listing) error {
		if l.OwnerID != actor.ID {
			return &UnauthorizedError{Reason: "not owner"}
		}
		return nil
	})
	if err != nil {
		return storeErr("delete listing", "listing", err)
	}
	a.invalidate(ctx, "marketplace", "listing:"+id, "dashboard:"+actor.ID)
	a.scheduleCleanup(ctx, current.Images)
	return nil
}

// SetSold toggles the sold flag on the actor's own listing. The flag is
// orthogonal to moderation state and may be flipped in any state.
func (a *App) SetSold(ctx context.Context, actor *domain.Account, id string, sold bool) (domain.Listing, error) {
	current, found, err := a.store.GetListing(ctx, id)
	if err != nil {
		return domain.Listing{}, storeErr("get listing", "listing", err)
	}
	if !found {
		return domain.Listing{}, &NotFoundError{Entity: "listing"}
	}
	if d := policy.Authorize(actor, domain.ActionToggleSold, &policy.Target{OwnerID: current.OwnerID}); !d.Allowed {
		return domain.Listing{}, &UnauthorizedError{Reason: d.Reason}
	}
	listing, err := a.store.UpdateListing(ctx, id, func(l *domain.Listing) error {
		if l.OwnerID != actor.ID {
			return &UnauthorizedError{Reason: "not owner"}
		}
		l.Sold = sold
		l.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return domain.Listing{}, storeErr("toggle sold", "listing", err)
	}
	a.invalidate(ctx, "marketplace", "listing:"+id, "dashboard:"+actor.ID)
	return listing, nil
}

// TransitionListing moves a listing between moderation states. Admin
// only; the transition is checked against the fresh row inside the
// store transaction so concurrent decisions cannot produce an illegal
// move.
func (a *App) TransitionListing(ctx context.Context, actor *domain.Account, id string, next domain.ModerationState) (domain.Listing, error) {
	if !policy.ValidState(next) {
		return domain.Listing{}, &ValidationError{Field: "state", Message: "unknown moderation state"}
	}
	current, found, err := a.store.GetListing(ctx, id)
	if err != nil {
		return domain.Listing{}, storeErr("get listing", "listing", err)
	}
	if !found {
		return domain.Listing{}, &NotFoundError{Entity: "listing"}
	}
	if d := policy.Authorize(actor, domain.ActionModerateListing, &policy.Target{OwnerID: current.OwnerID}); !d.Allowed {
		return domain.Listing{}, &UnauthorizedError{Reason: d.Reason}
	}
	var from domain.ModerationState
	listing, err := a.store.UpdateListing(ctx, id, func(l *domain.Listing) error {
		if !policy.CanTransition(l.State, next) {
			return &ConflictError{Reason: fmt.Sprintf("cannot move listing from %s to %s", l.State, next)}
		}
		from = l.State
		l.State = next
		l.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return domain.Listing{}, storeErr("transition listing", "listing", err)
	}
	a.invalidate(ctx, "marketplace", "listing:"+id, "admin:listings", "dashboard:"+listing.OwnerID)
	decision := events.ModerationDecision{
		ListingID: listing.ID,
		OwnerID:   listing.OwnerID,
		ActorID:   actor.ID,
		From:      from,
		To:        next,
		DecidedAt: time.Now().UTC(),
	}
	if err := a.events.PublishModerationDecision(ctx, decision); err != nil {
		slog.Warn("moderation event publish failed", "listing_id", listing.ID, "err", err)
	}
	slog.Info("listing moderated", "listing_id", listing.ID, "from", from, "to", next, "actor_id", actor.ID)
	return listing, nil
}

// Post mutations.

// CreatePost creates a community post owned by actor.
func (a *App) CreatePost(ctx context.Context, actor *domain.Account, in PostInput) (domain.Post, error) {
	if d := policy.Authorize(actor, domain.ActionCreatePost, nil); !d.Allowed {
		return domain.Post{}, &UnauthorizedError{Reason: d.Reason}
	}
	if err := validatePostInput(in); err != nil {
		return domain.Post{}, err
	}
	if in.CategoryID != "" {
		if err := a.requireCategory(ctx, in.CategoryID, domain.KindCommunity); err != nil {
			return domain.Post{}, err
		}
	}
	now := time.Now().UTC()
	post := domain.Post{
		ID:         util.NewID(),
		OwnerID:    actor.ID,
		CategoryID: in.CategoryID,
		Title:      strings.TrimSpace(in.Title),
		Content:    in.Content,
		Images:     in.Images,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := a.store.CreatePost(ctx, post); err != nil {
		return domain.Post{}, storeErr("create post", "post", err)
	}
	a.invalidate(ctx, "community", "dashboard:"+actor.ID)
	return post, nil
}

// UpdatePost applies a partial edit to the actor's own post.
func (a *App) UpdatePost(ctx context.Context, actor *domain.Account, id string, in PostUpdate) (domain.Post, error) {
	current, found, err := a.store.GetPost(ctx, id)
	if err != nil {
		return domain.Post{}, storeErr("get post", "post", err)
	}
	if !found {
		return domain.Post{}, &NotFoundError{Entity: "post"}
	}
	if d := policy.Authorize(actor, domain.ActionEditPost, &policy.Target{OwnerID: current.OwnerID}); !d.Allowed {
		return domain.Post{}, &UnauthorizedError{Reason: d.Reason}
	}
	if err := validatePostUpdate(in); err != nil {
		return domain.Post{}, err
	}
	if in.CategoryID != nil && *in.CategoryID != "" {
		if err := a.requireCategory(ctx, *in.CategoryID, domain.KindCommunity); err != nil {
			return domain.Post{}, err
		}
	}
	post, err := a.store.UpdatePost(ctx, id, func(p *domain.Post) error {
		if p.OwnerID != actor.ID {
			return &UnauthorizedError{Reason: "not owner"}
		}
		if in.Title != nil {
			p.Title = strings.TrimSpace(*in.Title)
		}
		if in.Content != nil {
			p.Content = *in.Content
		}
		if in.CategoryID != nil {
			p.CategoryID = *in.CategoryID
		}
		if in.Images != nil {
			p.Images = *in.Images
		}
		p.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return domain.Post{}, storeErr("update post", "post", err)
	}
	a.invalidate(ctx, "community", "post:"+id, "dashboard:"+actor.ID)
	return post, nil
}

// DeletePost removes the actor's own post and its comments.
func (a *App) DeletePost(ctx context.Context, actor *domain.Account, id string) error {
	current, found, err := a.store.GetPost(ctx, id)
	if err != nil {
		return storeErr("get post", "post", err)
	}
	if !found {
		return &NotFoundError{Entity: "post"}
	}
	if d := policy.Authorize(actor, domain.ActionDeletePost, &policy.Target{OwnerID: current.OwnerID}); !d.Allowed {
		return &UnauthorizedError{Reason: d.Reason}
	}
	err = a.store.DeletePost(ctx, id, func(p domain.Post) error {
		if p.OwnerID != actor.ID {
			return &UnauthorizedError{Reason: "not owner"}
		}
		return nil
	})
	if err != nil {
		return storeErr("delete post", "post", err)
	}
	a.invalidate(ctx, "community", "post:"+id, "dashboard:"+actor.ID)
	a.scheduleCleanup(ctx, current.Images)
	return nil
}

// TogglePost sets one of the admin-controlled flags (pinned, verified)
// on a post. The flags are independent booleans, not a state machine.
func (a *App) TogglePost(ctx context.Context, actor *domain.Account, id string, flag domain.PostFlag, value bool) (domain.Post, error) {
	if flag != domain.FlagPinned && flag != domain.FlagVerified {
		return domain.Post{}, &ValidationError{Field: "flag", Message: "must be pinned or verified"}
	}
	current, found, err := a.store.GetPost(ctx, id)
	if err != nil {
		return domain.Post{}, storeErr("get post", "post", err)
	}
	if !found {
		return domain.Post{}, &NotFoundError{Entity: "post"}
	}
	if d := policy.Authorize(actor, domain.ActionModeratePost, &policy.Target{OwnerID: current.OwnerID}); !d.Allowed {
		return domain.Post{}, &UnauthorizedError{Reason: d.Reason}
	}
	post, err := a.store.UpdatePost(ctx, id, func(p *domain.Post) error {
		switch flag {
		case domain.FlagPinned:
			p.Pinned = value
		case domain.FlagVerified:
			p.Verified = value
		}
		p.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return domain.Post{}, storeErr("toggle post flag", "post", err)
	}
	a.invalidate(ctx, "community", "post:"+id)
	return post, nil
}

// CreateComment appends a comment to a post. Comments are append-only;
// there is no edit or delete.
func (a *App) CreateComment(ctx context.Context, actor *domain.Account, postID, content string) (domain.Comment, error) {
	if d := policy.Authorize(actor, domain.ActionCreateComment, nil); !d.Allowed {
		return domain.Comment{}, &UnauthorizedError{Reason: d.Reason}
	}
	if err := validateCommentContent(content); err != nil {
		return domain.Comment{}, err
	}
	comment := domain.Comment{
		ID:        util.NewID(),
		PostID:    postID,
		OwnerID:   actor.ID,
		Content:   strings.TrimSpace(content),
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.CreateComment(ctx, comment); err != nil {
		return domain.Comment{}, storeErr("create comment", "post", err)
	}
	a.invalidate(ctx, "post:"+postID)
	return comment, nil
}

// scheduleCleanup queues the deleted entity's images for object-store
// removal. Best-effort, after commit.
func (a *App) scheduleCleanup(ctx context.Context, images []string) {
	if len(images) == 0 {
		return
	}
	if err := a.cleanup.Enqueue(ctx, images...); err != nil {
		slog.Warn("image cleanup enqueue failed", "count", len(images), "err", err)
	}
}

// requireCategory checks that the category exists and has the wanted
// kind.
func (a *App) requireCategory(ctx context.Context, id string, kind domain.CategoryKind) error {
	category, found, err := a.store.GetCategory(ctx, id)
	if err != nil {
		return storeErr("get category", "category", err)
	}
	if !found {
		return &NotFoundError{Entity: "category"}
	}
	if category.Kind != kind {
		return &ValidationError{Field: "categoryId", Message: "wrong category kind"}
	}
	return nil
}
