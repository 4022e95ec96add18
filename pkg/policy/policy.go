// Package policy holds the pure authorization rules and the listing
// moderation state machine. Nothing in this package performs I/O or
// mutates state; the mutation gateway in pkg/app consults it before
// every write.
package policy

import "chattala/pkg/domain"

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow returns a positive decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a negative decision with a caller-visible reason.
func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Target carries the fields of a mutation target that the rules inspect.
// Create actions have no target; pass nil.
type Target struct {
	OwnerID string
}

var adminActions = map[domain.Action]bool{
	domain.ActionModerateListing: true,
	domain.ActionModeratePost:    true,
	domain.ActionManageUser:      true,
	domain.ActionManageCategory:  true,
}

var ownerActions = map[domain.Action]bool{
	domain.ActionEditListing:   true,
	domain.ActionDeleteListing: true,
	domain.ActionToggleSold:    true,
	domain.ActionEditPost:      true,
	domain.ActionDeletePost:    true,
}

var createActions = map[domain.Action]bool{
	domain.ActionCreateListing: true,
	domain.ActionCreatePost:    true,
	domain.ActionCreateComment: true,
}

// Authorize decides whether actor may perform action on target.
// Rules are evaluated in precedence order; the first match wins:
//
//  1. anonymous actors are denied everything
//  2. suspended actors are denied create actions (only create actions;
//     they keep editing their existing content and stay reachable by
//     admin actions)
//  3. admin-gated actions require the ADMIN role
//  4. ownership actions require identifier equality with the target
//     owner; role never substitutes for ownership
//  5. create actions are allowed
//
// Anything else is denied.
func Authorize(actor *domain.Account, action domain.Action, target *Target) Decision {
	if actor == nil {
		return Deny("authentication required")
	}
	if actor.Suspended && createActions[action] {
		return Deny("account suspended")
	}
	if adminActions[action] {
		if actor.Role == domain.RoleAdmin {
			return Allow()
		}
		return Deny("admin required")
	}
	if ownerActions[action] {
		if target != nil && target.OwnerID == actor.ID {
			return Allow()
		}
		return Deny("not owner")
	}
	if createActions[action] {
		return Allow()
	}
	return Deny("unauthorized")
}
