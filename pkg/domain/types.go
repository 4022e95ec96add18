package domain

import "time"

type Role string

const (
	RoleMember Role = "MEMBER"
	RoleAdmin  Role = "ADMIN"
)

// ModerationState is the lifecycle state of a marketplace listing.
// Listings start PENDING and are moved between APPROVED and REJECTED
// by admins; PENDING is never re-entered.
type ModerationState string

const (
	StatePending  ModerationState = "PENDING"
	StateApproved ModerationState = "APPROVED"
	StateRejected ModerationState = "REJECTED"
)

type CategoryKind string

const (
	KindMarketplace CategoryKind = "MARKETPLACE"
	KindCommunity   CategoryKind = "COMMUNITY"
)

// Action names a mutation subject to authorization.
type Action string

const (
	ActionCreateListing   Action = "CREATE_LISTING"
	ActionEditListing     Action = "EDIT_LISTING"
	ActionDeleteListing   Action = "DELETE_LISTING"
	ActionToggleSold      Action = "TOGGLE_SOLD"
	ActionModerateListing Action = "MODERATE_LISTING"
	ActionCreatePost      Action = "CREATE_POST"
	ActionEditPost        Action = "EDIT_POST"
	ActionDeletePost      Action = "DELETE_POST"
	ActionModeratePost    Action = "MODERATE_POST"
	ActionCreateComment   Action = "CREATE_COMMENT"
	ActionManageUser      Action = "ADMIN_MANAGE_USER"
	ActionManageCategory  Action = "ADMIN_MANAGE_CATEGORY"
)

// PostFlag selects one of the admin-controlled booleans on a post.
type PostFlag string

const (
	FlagPinned   PostFlag = "pinned"
	FlagVerified PostFlag = "verified"
)

type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Verified     bool      `json:"verified"`
	Suspended    bool      `json:"suspended"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Listing struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"ownerId"`
	CategoryID  string          `json:"categoryId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       float64         `json:"price"`
	Images      []string        `json:"images"`
	Location    string          `json:"location,omitempty"`
	Contact     string          `json:"contact,omitempty"`
	State       ModerationState `json:"state"`
	Sold        bool            `json:"sold"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type Post struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	CategoryID string    `json:"categoryId,omitempty"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Images     []string  `json:"images"`
	Verified   bool      `json:"verified"`
	Pinned     bool      `json:"pinned"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type Category struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Slug        string       `json:"slug"`
	Kind        CategoryKind `json:"kind"`
	Description string       `json:"description,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}
