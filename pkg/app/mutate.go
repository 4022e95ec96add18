package app

import (
	"context"
	"fmt"

	"chattala/pkg/domain"
)

// PostFlagToggle is the payload for MODERATE_POST.
type PostFlagToggle struct {
	Flag  domain.PostFlag `json:"flag"`
	Value bool            `json:"value"`
}

// SoldToggle is the payload for TOGGLE_SOLD.
type SoldToggle struct {
	Sold bool `json:"sold"`
}

// Mutate is the uniform write entry point: one action enum, one
// optional target, one payload. It dispatches to the typed operations,
// so callers that want a single surface (a generic handler, a job
// consumer) get the same pipeline as callers using the typed methods
// directly. Deletes return a nil entity.
func (a *App) Mutate(ctx context.Context, actor *domain.Account, action domain.Action, targetID string, payload any) (any, error) {
	switch action {
	case domain.ActionCreateListing:
		in, ok := payload.(ListingInput)
		if !ok {
			return nil, payloadErr(action)
		}
		return a.CreateListing(ctx, actor, in)
	case domain.ActionEditListing:
		in, ok := payload.(ListingUpdate)
		if !ok {
			return nil, payloadErr(action)
		}
		return a.UpdateListing(ctx, actor, targetID, in)
	case domain.ActionDeleteListing:
		return nil, a.DeleteListing(ctx, actor, targetID)
	case domain.ActionToggleSold:
		in, ok := payload.(SoldToggle)
		if !ok {
			return nil, payloadErr(action)
		}
		return a.SetSold(ctx, actor, targetID, in.Sold)
	case domain.ActionModerateListing:
		state, ok := payload.(domain.ModerationState)
		if !ok {
			return nil, payloadErr(action)
		}
		return a.TransitionListing(ctx, actor, targetID, state)
	case domain.ActionCreatePost:
		in, ok := payload.(PostInput)
		if !ok {
			return nil, payloadErr(action)
		}
		return a.CreatePost(ctx, actor, in)
	case domain.ActionEditPost:
		in, ok := payload.(PostUpdate)
		if !ok {
			return nil, payloadErr(action)
		}
		return a.UpdatePost(ctx, actor, targetID, in)
	case domain.ActionDeletePost:
		return nil, a.DeletePost(ctx, actor, targetID)
	case domain.ActionModeratePost:
		in, ok := payload.(PostFlagToggle)
		if !ok {
			return nil, payloadErr(action)
		}
		return a.TogglePost(ctx, actor, targetID, in.Flag, in.Value)
	case domain.ActionCreateComment:
		content, ok := payload.(string)
		if !ok {
			return nil, payloadErr(action)
		}
		return a.CreateComment(ctx, actor, targetID, content)
	case domain.ActionManageCategory:
		// One action covers the category CRUD; the payload shape picks
		// the operation.
		switch in := payload.(type) {
		case CategoryInput:
			return a.CreateCategory(ctx, actor, in)
		case CategoryUpdate:
			return a.UpdateCategory(ctx, actor, targetID, in)
		case nil:
			return nil, a.DeleteCategory(ctx, actor, targetID)
		default:
			return nil, payloadErr(action)
		}
	default:
		return nil, &ValidationError{Field: "action", Message: fmt.Sprintf("unknown action %s", action)}
	}
}

func payloadErr(action domain.Action) error {
	return &ValidationError{Field: "payload", Message: fmt.Sprintf("wrong payload type for %s", action)}
}
