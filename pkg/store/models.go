package store

import (
	"time"

	"gorm.io/datatypes"

	"chattala/pkg/domain"
)

// GORM models used for persistence.
type AccountModel struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	Name         string
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"not null"`
	Verified     bool      `gorm:"not null"`
	Suspended    bool      `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

type ListingModel struct {
	ID          string  `gorm:"primaryKey"`
	OwnerID     string  `gorm:"not null;index"`
	CategoryID  string  `gorm:"not null;index"`
	Title       string  `gorm:"not null"`
	Description string  `gorm:"not null"`
	Price       float64 `gorm:"not null"`
	Images      datatypes.JSONSlice[string]
	Location    string
	Contact     string
	State       string    `gorm:"not null;index"`
	Sold        bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null;index"`
	UpdatedAt   time.Time `gorm:"not null"`
}

type PostModel struct {
	ID         string `gorm:"primaryKey"`
	OwnerID    string `gorm:"not null;index"`
	CategoryID string `gorm:"index"`
	Title      string `gorm:"not null"`
	Content    string `gorm:"not null"`
	Images     datatypes.JSONSlice[string]
	Verified   bool      `gorm:"not null"`
	Pinned     bool      `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null;index"`
	UpdatedAt  time.Time `gorm:"not null"`
}

type CommentModel struct {
	ID        string    `gorm:"primaryKey"`
	PostID    string    `gorm:"not null;index"`
	OwnerID   string    `gorm:"not null;index"`
	Content   string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

type CategoryModel struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Slug        string `gorm:"uniqueIndex;not null"`
	Kind        string `gorm:"not null;index"`
	Description string
	CreatedAt   time.Time `gorm:"not null"`
}

func accountToModel(a domain.Account) AccountModel {
	return AccountModel{
		ID:           a.ID,
		Email:        a.Email,
		Name:         a.Name,
		PasswordHash: a.PasswordHash,
		Role:         string(a.Role),
		Verified:     a.Verified,
		Suspended:    a.Suspended,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func accountFromModel(m AccountModel) domain.Account {
	return domain.Account{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		Role:         domain.Role(m.Role),
		Verified:     m.Verified,
		Suspended:    m.Suspended,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func listingToModel(l domain.Listing) ListingModel {
	return ListingModel{
		ID:          l.ID,
		OwnerID:     l.OwnerID,
		CategoryID:  l.CategoryID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Images:      datatypes.NewJSONSlice(l.Images),
		Location:    l.Location,
		Contact:     l.Contact,
		State:       string(l.State),
		Sold:        l.Sold,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func listingFromModel(m ListingModel) domain.Listing {
	return domain.Listing{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		CategoryID:  m.CategoryID,
		Title:       m.Title,
		Description: m.Description,
		Price:       m.Price,
		Images:      []string(m.Images),
		Location:    m.Location,
		Contact:     m.Contact,
		State:       domain.ModerationState(m.State),
		Sold:        m.Sold,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func postToModel(p domain.Post) PostModel {
	return PostModel{
		ID:         p.ID,
		OwnerID:    p.OwnerID,
		CategoryID: p.CategoryID,
		Title:      p.Title,
		Content:    p.Content,
		Images:     datatypes.NewJSONSlice(p.Images),
		Verified:   p.Verified,
		Pinned:     p.Pinned,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func postFromModel(m PostModel) domain.Post {
	return domain.Post{
		ID:         m.ID,
		OwnerID:    m.OwnerID,
		CategoryID: m.CategoryID,
		Title:      m.Title,
		Content:    m.Content,
		Images:     []string(m.Images),
		Verified:   m.Verified,
		Pinned:     m.Pinned,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func commentToModel(c domain.Comment) CommentModel {
	return CommentModel{
		ID:        c.ID,
		PostID:    c.PostID,
		OwnerID:   c.OwnerID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

func commentFromModel(m CommentModel) domain.Comment {
	return domain.Comment{
		ID:        m.ID,
		PostID:    m.PostID,
		OwnerID:   m.OwnerID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func categoryToModel(c domain.Category) CategoryModel {
	return CategoryModel{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Kind:        string(c.Kind),
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}

func categoryFromModel(m CategoryModel) domain.Category {
	return domain.Category{
		ID:          m.ID,
		Name:        m.Name,
		Slug:        m.Slug,
		Kind:        domain.CategoryKind(m.Kind),
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}
