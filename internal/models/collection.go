package models

import (
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Collection represents a curated group of photos
type Collection struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Description   *string    `json:"description,omitempty"`
	CoverImageURL string     `json:"coverImageUrl,omitempty"`
	DisplayOrder  *float64   `json:"displayOrder,omitempty"`
	CoverPhotoID  *string    `json:"-"`
	CreatedAt     *time.Time `json:"-"`

	// Computed on every fetch, never stored
	PhotoCount int `json:"photoCount"`
}

// Validate checks a collection document before it is written to a local store
func (c *Collection) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Title, validation.Required),
		validation.Field(&c.Slug, slugRules()...),
	)
}

// Category is a loose classification of photos, independent of collections
type Category struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Description *string `json:"description,omitempty"`

	// Computed on every fetch, never stored
	PhotoCount int `json:"photoCount"`
}

// Validate checks a category document before it is written to a local store
func (c *Category) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Title, validation.Required),
		validation.Field(&c.Slug, slugRules()...),
	)
}

var slugCleanup = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateSlug creates a URL-friendly slug from a title
func GenerateSlug(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugCleanup.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > MaxSlugLength {
		slug = strings.TrimRight(slug[:MaxSlugLength], "-")
	}
	return slug
}

// Errors
type CollectionError struct {
	Message string
}

func (e CollectionError) Error() string {
	return e.Message
}

var (
	ErrCollectionNotFound = CollectionError{"collection not found"}
	ErrCategoryNotFound   = CollectionError{"category not found"}
)
