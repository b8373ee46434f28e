package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/photogallery/server/internal/models"
)

const photoColumns = `p.id, p.title, p.slug, p.description, p.price, p.image_path, p.date_taken,
	p.camera, p.lens, p.aperture, p.shutter_speed, p.iso, p.display_order, p.created_at`

// Nulls sort last on both SQLite and PostgreSQL because false < true
const (
	photoListingOrder = `ORDER BY p.display_order IS NULL, p.display_order ASC, p.created_at DESC`
	photoAdminOrder   = `ORDER BY p.display_order IS NULL, p.display_order ASC, p.title ASC`
)

// Photo ID scopes, shared by a listing and its collection join
const (
	scopeAllPhotos       = `SELECT id FROM photos`
	scopePhotoBySlug     = `SELECT id FROM photos WHERE slug = $1`
	scopeCollectionPhoto = `SELECT photo_id FROM photo_collections WHERE collection_id = $1`
	scopeCategoryPhoto   = `SELECT photo_id FROM photo_categories WHERE category_id = $1`
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// PhotoRepository implements PhotoRepo for PostgreSQL/SQLite
type PhotoRepository struct {
	db           *sql.DB
	assetBaseURL string
}

// NewPhotoRepository creates a new PhotoRepository
func NewPhotoRepository(db *sql.DB, assetBaseURL string) *PhotoRepository {
	return &PhotoRepository{db: db, assetBaseURL: assetBaseURL}
}

// GetAll returns every photo in listing order
func (r *PhotoRepository) GetAll(ctx context.Context) ([]*models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos p ` + photoListingOrder
	return r.list(ctx, query, scopeAllPhotos)
}

// GetBySlug retrieves a photo by its slug
func (r *PhotoRepository) GetBySlug(ctx context.Context, slug string) (*models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos p WHERE p.slug = $1`

	photo, err := r.scanPhoto(r.db.QueryRowContext(ctx, query, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := r.attachCollections(ctx, []*models.Photo{photo}, scopePhotoBySlug, slug); err != nil {
		return nil, err
	}
	return photo, nil
}

// GetByCollectionID returns the photos referencing a collection, in listing order
func (r *PhotoRepository) GetByCollectionID(ctx context.Context, collectionID string) ([]*models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos p
			  WHERE p.id IN (` + scopeCollectionPhoto + `) ` + photoListingOrder
	return r.list(ctx, query, scopeCollectionPhoto, collectionID)
}

// GetByCategoryID returns the photos referencing a category, in listing order
func (r *PhotoRepository) GetByCategoryID(ctx context.Context, categoryID string) ([]*models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos p
			  WHERE p.id IN (` + scopeCategoryPhoto + `) ` + photoListingOrder
	return r.list(ctx, query, scopeCategoryPhoto, categoryID)
}

// GetForCollectionAdmin returns the photos referencing a collection ordered by
// display order then title. Photos without an image are included.
func (r *PhotoRepository) GetForCollectionAdmin(ctx context.Context, collectionID string) ([]*models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos p
			  INNER JOIN photo_collections pc ON pc.photo_id = p.id
			  WHERE pc.collection_id = $1 ` + photoAdminOrder

	rows, err := r.db.QueryContext(ctx, query, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanRows(rows)
}

// list runs query and joins collections for the photo IDs selected by scope.
// Both statements take the same arguments.
func (r *PhotoRepository) list(ctx context.Context, query, scope string, args ...interface{}) ([]*models.Photo, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	photos, err := r.scanRows(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachCollections(ctx, photos, scope, args...); err != nil {
		return nil, err
	}
	return photos, nil
}

func (r *PhotoRepository) scanRows(rows *sql.Rows) ([]*models.Photo, error) {
	photos := []*models.Photo{}
	for rows.Next() {
		photo, err := r.scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}
	return photos, rows.Err()
}

func (r *PhotoRepository) scanPhoto(row rowScanner) (*models.Photo, error) {
	var (
		p         models.Photo
		imagePath sql.NullString
		settings  models.CameraSettings
	)

	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Slug,
		&p.Description,
		&p.Price,
		&imagePath,
		&p.DateTaken,
		&settings.Camera,
		&settings.Lens,
		&settings.Aperture,
		&settings.ShutterSpeed,
		&settings.ISO,
		&p.DisplayOrder,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.ImagePath = imagePath.String
	p.ImageURL = assetURL(r.assetBaseURL, imagePath.String)
	if !settings.IsEmpty() {
		p.CameraSettings = &settings
	}
	return &p, nil
}

// attachCollections joins the {id, title, slug} projection of each photo's collections.
// The photo IDs come from the scope subquery so the statement size does not grow with the listing.
func (r *PhotoRepository) attachCollections(ctx context.Context, photos []*models.Photo, scope string, args ...interface{}) error {
	if len(photos) == 0 {
		return nil
	}

	byID := make(map[string]*models.Photo, len(photos))
	for _, p := range photos {
		byID[p.ID] = p
	}

	query := `SELECT pc.photo_id, c.id, c.title, c.slug
			  FROM photo_collections pc
			  INNER JOIN collections c ON c.id = pc.collection_id
			  WHERE pc.photo_id IN (` + scope + `)
			  ORDER BY pc.photo_id, pc.position`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to join collections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var photoID string
		var ref models.CollectionRef
		if err := rows.Scan(&photoID, &ref.ID, &ref.Title, &ref.Slug); err != nil {
			return err
		}
		if p, ok := byID[photoID]; ok {
			p.Collections = append(p.Collections, ref)
			p.CollectionIDs = append(p.CollectionIDs, ref.ID)
		}
	}
	return rows.Err()
}
