package repository

import (
	"context"

	"github.com/photogallery/server/internal/models"
)

// PhotoRepo defines the read operations on photos.
// Single-item lookups return (nil, nil) when nothing matches.
type PhotoRepo interface {
	GetAll(ctx context.Context) ([]*models.Photo, error)
	GetBySlug(ctx context.Context, slug string) (*models.Photo, error)
	GetByCollectionID(ctx context.Context, collectionID string) ([]*models.Photo, error)
	GetByCategoryID(ctx context.Context, categoryID string) ([]*models.Photo, error)
	GetForCollectionAdmin(ctx context.Context, collectionID string) ([]*models.Photo, error)
}

// CollectionRepo defines the read operations on collections.
// PhotoCount is computed by every call.
type CollectionRepo interface {
	GetAll(ctx context.Context) ([]*models.Collection, error)
	GetBySlug(ctx context.Context, slug string) (*models.Collection, error)
}

// CategoryRepo defines the read operations on categories
type CategoryRepo interface {
	GetAll(ctx context.Context) ([]*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
}

// Store is a document-store backend
type Store interface {
	Photos() PhotoRepo
	Collections() CollectionRepo
	Categories() CategoryRepo
	Driver() string
	Ping(ctx context.Context) error
	Close() error
}

// Seeder writes documents into a local backend. Writes are upserts keyed by ID.
type Seeder interface {
	SeedCategory(ctx context.Context, category *models.Category) error
	SeedCollection(ctx context.Context, collection *models.Collection) error
	SeedPhoto(ctx context.Context, photo *models.Photo) error
}
