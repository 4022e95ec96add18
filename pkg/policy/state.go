package policy

import "chattala/pkg/domain"

// transitions enumerates the legal moderation moves. PENDING is only
// produced by listing creation, never re-entered.
var transitions = map[domain.ModerationState][]domain.ModerationState{
	domain.StatePending:  {domain.StateApproved, domain.StateRejected},
	domain.StateApproved: {domain.StateRejected},
	domain.StateRejected: {domain.StateApproved},
}

// CanTransition reports whether a listing may move from one moderation
// state to another.
func CanTransition(from, to domain.ModerationState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidState reports whether s is a known moderation state.
func ValidState(s domain.ModerationState) bool {
	_, ok := transitions[s]
	return ok
}

// ListingVisibleTo reports whether actor may read the listing. Approved
// listings are public; owners and admins see their listings in any state.
func ListingVisibleTo(actor *domain.Account, l domain.Listing) bool {
	if l.State == domain.StateApproved {
		return true
	}
	if actor == nil {
		return false
	}
	return actor.ID == l.OwnerID || actor.Role == domain.RoleAdmin
}
