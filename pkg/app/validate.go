package app

import (
	"regexp"
	"strings"

	"chattala/pkg/domain"
)

const (
	minTitleLen   = 3
	maxTitleLen   = 120
	minContentLen = 10
	maxImages     = 8
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ListingInput is the payload for listing creation.
type ListingInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	CategoryID  string   `json:"categoryId"`
	Images      []string `json:"images"`
	Location    string   `json:"location"`
	Contact     string   `json:"contact"`
}

// ListingUpdate carries a partial listing edit; nil fields stay as-is.
type ListingUpdate struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price"`
	CategoryID  *string   `json:"categoryId"`
	Images      *[]string `json:"images"`
	Location    *string   `json:"location"`
	Contact     *string   `json:"contact"`
}

// PostInput is the payload for post creation.
type PostInput struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	CategoryID string   `json:"categoryId"`
	Images     []string `json:"images"`
}

// PostUpdate carries a partial post edit.
type PostUpdate struct {
	Title      *string   `json:"title"`
	Content    *string   `json:"content"`
	CategoryID *string   `json:"categoryId"`
	Images     *[]string `json:"images"`
}

// CategoryInput is the payload for category creation.
type CategoryInput struct {
	Name        string              `json:"name"`
	Slug        string              `json:"slug"`
	Kind        domain.CategoryKind `json:"kind"`
	Description string              `json:"description"`
}

// CategoryUpdate carries a partial category edit. Kind is fixed at
// creation and cannot change.
type CategoryUpdate struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
}

func validateTitle(title string) error {
	title = strings.TrimSpace(title)
	if len(title) < minTitleLen {
		return &ValidationError{Field: "title", Message: "must be at least 3 characters"}
	}
	if len(title) > maxTitleLen {
		return &ValidationError{Field: "title", Message: "must be at most 120 characters"}
	}
	return nil
}

func validateContent(field, content string) error {
	if len(strings.TrimSpace(content)) < minContentLen {
		return &ValidationError{Field: field, Message: "must be at least 10 characters"}
	}
	return nil
}

func validatePrice(price float64) error {
	if price <= 0 {
		return &ValidationError{Field: "price", Message: "must be greater than zero"}
	}
	return nil
}

func validateImages(images []string) error {
	if len(images) > maxImages {
		return &ValidationError{Field: "images", Message: "too many images"}
	}
	for _, url := range images {
		if strings.TrimSpace(url) == "" {
			return &ValidationError{Field: "images", Message: "image URL must not be blank"}
		}
	}
	return nil
}

func validateListingInput(in ListingInput) error {
	if err := validateTitle(in.Title); err != nil {
		return err
	}
	if err := validateContent("description", in.Description); err != nil {
		return err
	}
	if err := validatePrice(in.Price); err != nil {
		return err
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		return &ValidationError{Field: "categoryId", Message: "required"}
	}
	return validateImages(in.Images)
}

func validateListingUpdate(in ListingUpdate) error {
	if in.Title != nil {
		if err := validateTitle(*in.Title); err != nil {
			return err
		}
	}
	if in.Description != nil {
		if err := validateContent("description", *in.Description); err != nil {
			return err
		}
	}
	if in.Price != nil {
		if err := validatePrice(*in.Price); err != nil {
			return err
		}
	}
	if in.CategoryID != nil && strings.TrimSpace(*in.CategoryID) == "" {
		return &ValidationError{Field: "categoryId", Message: "must not be blank"}
	}
	if in.Images != nil {
		return validateImages(*in.Images)
	}
	return nil
}

func validatePostInput(in PostInput) error {
	if err := validateTitle(in.Title); err != nil {
		return err
	}
	if err := validateContent("content", in.Content); err != nil {
		return err
	}
	return validateImages(in.Images)
}

func validatePostUpdate(in PostUpdate) error {
	if in.Title != nil {
		if err := validateTitle(*in.Title); err != nil {
			return err
		}
	}
	if in.Content != nil {
		if err := validateContent("content", *in.Content); err != nil {
			return err
		}
	}
	if in.Images != nil {
		return validateImages(*in.Images)
	}
	return nil
}

func validateCommentContent(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return &ValidationError{Field: "content", Message: "must not be blank"}
	}
	if len(content) > 2000 {
		return &ValidationError{Field: "content", Message: "must be at most 2000 characters"}
	}
	return nil
}

func validateCategoryInput(in CategoryInput) error {
	if len(strings.TrimSpace(in.Name)) < 2 {
		return &ValidationError{Field: "name", Message: "must be at least 2 characters"}
	}
	if !slugPattern.MatchString(in.Slug) {
		return &ValidationError{Field: "slug", Message: "must be lowercase letters, digits, and hyphens"}
	}
	if in.Kind != domain.KindMarketplace && in.Kind != domain.KindCommunity {
		return &ValidationError{Field: "kind", Message: "must be MARKETPLACE or COMMUNITY"}
	}
	return nil
}

func validateCategoryUpdate(in CategoryUpdate) error {
	if in.Name != nil && len(strings.TrimSpace(*in.Name)) < 2 {
		return &ValidationError{Field: "name", Message: "must be at least 2 characters"}
	}
	if in.Slug != nil && !slugPattern.MatchString(*in.Slug) {
		return &ValidationError{Field: "slug", Message: "must be lowercase letters, digits, and hyphens"}
	}
	return nil
}
