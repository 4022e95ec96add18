package policy

import (
	"testing"

	"chattala/pkg/domain"
)

func member(id string) *domain.Account {
	return &domain.Account{ID: id, Role: domain.RoleMember}
}

func admin(id string) *domain.Account {
	return &domain.Account{ID: id, Role: domain.RoleAdmin}
}

func suspended(id string) *domain.Account {
	return &domain.Account{ID: id, Role: domain.RoleMember, Suspended: true}
}

var allActions = []domain.Action{
	domain.ActionCreateListing,
	domain.ActionEditListing,
	domain.ActionDeleteListing,
	domain.ActionToggleSold,
	domain.ActionModerateListing,
	domain.ActionCreatePost,
	domain.ActionEditPost,
	domain.ActionDeletePost,
	domain.ActionModeratePost,
	domain.ActionCreateComment,
	domain.ActionManageUser,
	domain.ActionManageCategory,
}

func TestAnonymousDeniedEverything(t *testing.T) {
	for _, action := range allActions {
		if d := Authorize(nil, action, &Target{OwnerID: "u1"}); d.Allowed {
			t.Fatalf("anonymous actor allowed %s", action)
		}
	}
}

func TestOwnershipActions(t *testing.T) {
	ownerActions := []domain.Action{
		domain.ActionEditListing,
		domain.ActionDeleteListing,
		domain.ActionToggleSold,
		domain.ActionEditPost,
		domain.ActionDeletePost,
	}
	target := &Target{OwnerID: "owner"}
	for _, action := range ownerActions {
		if d := Authorize(member("owner"), action, target); !d.Allowed {
			t.Fatalf("owner denied %s: %s", action, d.Reason)
		}
		if d := Authorize(member("someone-else"), action, target); d.Allowed {
			t.Fatalf("non-owner allowed %s", action)
		}
		// Admin role does not substitute for ownership.
		if d := Authorize(admin("someone-else"), action, target); d.Allowed {
			t.Fatalf("admin bypassed ownership on %s", action)
		}
	}
}

func TestAdminGatedActions(t *testing.T) {
	adminActions := []domain.Action{
		domain.ActionModerateListing,
		domain.ActionModeratePost,
		domain.ActionManageUser,
		domain.ActionManageCategory,
	}
	for _, action := range adminActions {
		if d := Authorize(admin("a1"), action, &Target{OwnerID: "other"}); !d.Allowed {
			t.Fatalf("admin denied %s: %s", action, d.Reason)
		}
		// Owning the target does not unlock admin actions.
		if d := Authorize(member("owner"), action, &Target{OwnerID: "owner"}); d.Allowed {
			t.Fatalf("member allowed admin action %s", action)
		}
		if reason := Authorize(member("m1"), action, nil).Reason; reason != "admin required" {
			t.Fatalf("expected reason %q for %s, got %q", "admin required", action, reason)
		}
	}
}

func TestCreateActions(t *testing.T) {
	creates := []domain.Action{
		domain.ActionCreateListing,
		domain.ActionCreatePost,
		domain.ActionCreateComment,
	}
	for _, action := range creates {
		if d := Authorize(member("m1"), action, nil); !d.Allowed {
			t.Fatalf("member denied %s: %s", action, d.Reason)
		}
		if d := Authorize(suspended("m1"), action, nil); d.Allowed {
			t.Fatalf("suspended account allowed %s", action)
		}
	}
}

func TestSuspensionOnlyBlocksCreates(t *testing.T) {
	actor := suspended("owner")
	target := &Target{OwnerID: "owner"}
	for _, action := range []domain.Action{
		domain.ActionEditListing,
		domain.ActionDeleteListing,
		domain.ActionToggleSold,
		domain.ActionEditPost,
		domain.ActionDeletePost,
	} {
		if d := Authorize(actor, action, target); !d.Allowed {
			t.Fatalf("suspension blocked non-create action %s: %s", action, d.Reason)
		}
	}
}

func TestUnknownActionDenied(t *testing.T) {
	if d := Authorize(admin("a1"), domain.Action("FROB_WIDGET"), nil); d.Allowed {
		t.Fatalf("unknown action allowed")
	}
}
