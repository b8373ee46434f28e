package models

import (
	"errors"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// MaxSlugLength is the longest slug a document may carry
const MaxSlugLength = 96

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// CameraSettings holds the free-text capture details of a photo
type CameraSettings struct {
	Camera       *string `json:"camera,omitempty" bson:"camera,omitempty"`
	Lens         *string `json:"lens,omitempty" bson:"lens,omitempty"`
	Aperture     *string `json:"aperture,omitempty" bson:"aperture,omitempty"`
	ShutterSpeed *string `json:"shutterSpeed,omitempty" bson:"shutterSpeed,omitempty"`
	ISO          *string `json:"iso,omitempty" bson:"iso,omitempty"`
}

// IsEmpty returns true when no setting is present
func (c *CameraSettings) IsEmpty() bool {
	return c == nil || (c.Camera == nil && c.Lens == nil && c.Aperture == nil && c.ShutterSpeed == nil && c.ISO == nil)
}

// CollectionRef is the projection of a collection joined onto a photo
type CollectionRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// Photo is a single picture with its display metadata
type Photo struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	Slug           string           `json:"slug"`
	Description    *string          `json:"description,omitempty"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	ImageURL       string           `json:"imageUrl,omitempty"`
	Collections    []CollectionRef  `json:"collections,omitempty"`
	DateTaken      *time.Time       `json:"dateTaken,omitempty"`
	CameraSettings *CameraSettings  `json:"cameraSettings,omitempty"`
	DisplayOrder   *float64         `json:"displayOrder,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`

	// Storage-side fields for the local backends (not part of the projection)
	ImagePath     string   `json:"-"`
	CollectionIDs []string `json:"-"`
	CategoryIDs   []string `json:"-"`
}

// HasImage returns true when the photo resolves to an image URL
func (p *Photo) HasImage() bool {
	return p.ImageURL != ""
}

// Validate checks a photo document before it is written to a local store
func (p *Photo) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.ID, validation.Required),
		validation.Field(&p.Title, validation.Required),
		validation.Field(&p.Slug, slugRules()...),
		validation.Field(&p.Price, validation.By(positivePrice)),
	)
}

func slugRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(1, MaxSlugLength),
		validation.Match(slugPattern).Error("must be lowercase words separated by hyphens"),
	}
}

func positivePrice(value interface{}) error {
	price, _ := value.(*decimal.Decimal)
	if price == nil {
		return nil
	}
	if !price.IsPositive() {
		return ErrInvalidPrice
	}
	return nil
}

// IsValidSlug checks a slug against the document rules
func IsValidSlug(slug string) bool {
	return validation.Validate(slug, slugRules()...) == nil
}

// Errors
type PhotoError struct {
	Message string
}

func (e PhotoError) Error() string {
	return e.Message
}

var (
	ErrPhotoNotFound = PhotoError{"photo not found"}
	ErrInvalidPrice  = PhotoError{"price must be positive"}
)

// StoreError reports a failure of the document store itself
type StoreError struct {
	Message string
}

func (e StoreError) Error() string {
	return e.Message
}

var ErrStoreUnavailable = StoreError{"content store unavailable"}

// IsNotFound returns true for any of the not-found sentinels
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPhotoNotFound) ||
		errors.Is(err, ErrCollectionNotFound) ||
		errors.Is(err, ErrCategoryNotFound)
}
