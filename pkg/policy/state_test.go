package policy

import (
	"testing"

	"chattala/pkg/domain"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from, to domain.ModerationState
		ok       bool
	}{
		{domain.StatePending, domain.StateApproved, true},
		{domain.StatePending, domain.StateRejected, true},
		{domain.StateApproved, domain.StateRejected, true},
		{domain.StateRejected, domain.StateApproved, true},
		// PENDING is unreachable once left.
		{domain.StateApproved, domain.StatePending, false},
		{domain.StateRejected, domain.StatePending, false},
		// self transitions are not defined
		{domain.StatePending, domain.StatePending, false},
		{domain.StateApproved, domain.StateApproved, false},
		{domain.StateRejected, domain.StateRejected, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.ok {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestValidState(t *testing.T) {
	for _, s := range []domain.ModerationState{domain.StatePending, domain.StateApproved, domain.StateRejected} {
		if !ValidState(s) {
			t.Fatalf("%s should be valid", s)
		}
	}
	if ValidState(domain.ModerationState("ARCHIVED")) {
		t.Fatalf("unknown state should be invalid")
	}
}

func TestListingVisibility(t *testing.T) {
	owner := member("owner")
	stranger := member("stranger")
	moderator := admin("mod")

	approved := domain.Listing{OwnerID: "owner", State: domain.StateApproved}
	pending := domain.Listing{OwnerID: "owner", State: domain.StatePending}
	rejected := domain.Listing{OwnerID: "owner", State: domain.StateRejected}

	if !ListingVisibleTo(nil, approved) || !ListingVisibleTo(stranger, approved) {
		t.Fatalf("approved listing should be public")
	}
	for _, l := range []domain.Listing{pending, rejected} {
		if ListingVisibleTo(nil, l) {
			t.Fatalf("%s listing visible to anonymous", l.State)
		}
		if ListingVisibleTo(stranger, l) {
			t.Fatalf("%s listing visible to stranger", l.State)
		}
		if !ListingVisibleTo(owner, l) {
			t.Fatalf("%s listing hidden from owner", l.State)
		}
		if !ListingVisibleTo(moderator, l) {
			t.Fatalf("%s listing hidden from admin", l.State)
		}
	}
}

func TestSoldOrthogonalToModeration(t *testing.T) {
	// A sold listing stays visible per its moderation state alone.
	l := domain.Listing{OwnerID: "owner", State: domain.StateApproved, Sold: true}
	if !ListingVisibleTo(member("stranger"), l) {
		t.Fatalf("sold flag must not affect visibility")
	}
}
