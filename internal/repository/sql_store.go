package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/photogallery/server/internal/models"
)

// SQLStore is the SQLite/PostgreSQL backend
type SQLStore struct {
	db          *sql.DB
	driver      string
	photos      *PhotoRepository
	collections *CollectionRepository
	categories  *CategoryRepository
}

// NewSQLStore wraps an initialized database
func NewSQLStore(db *sql.DB, driver, assetBaseURL string) *SQLStore {
	return &SQLStore{
		db:          db,
		driver:      driver,
		photos:      NewPhotoRepository(db, assetBaseURL),
		collections: NewCollectionRepository(db, assetBaseURL),
		categories:  NewCategoryRepository(db),
	}
}

func (s *SQLStore) Photos() PhotoRepo           { return s.photos }
func (s *SQLStore) Collections() CollectionRepo { return s.collections }
func (s *SQLStore) Categories() CategoryRepo    { return s.categories }
func (s *SQLStore) Driver() string              { return s.driver }

// Ping verifies the database connection
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// SeedCategory upserts a category
func (s *SQLStore) SeedCategory(ctx context.Context, k *models.Category) error {
	query := `INSERT INTO categories (id, title, slug, description)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (id) DO UPDATE SET
			  title = excluded.title, slug = excluded.slug, description = excluded.description`

	if _, err := s.db.ExecContext(ctx, query, k.ID, k.Title, k.Slug, k.Description); err != nil {
		return fmt.Errorf("failed to seed category %s: %w", k.ID, err)
	}
	return nil
}

// SeedCollection upserts a collection
func (s *SQLStore) SeedCollection(ctx context.Context, c *models.Collection) error {
	createdAt := time.Now().UTC()
	if c.CreatedAt != nil {
		createdAt = c.CreatedAt.UTC()
	}

	query := `INSERT INTO collections (id, title, slug, description, cover_photo_id, display_order, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  ON CONFLICT (id) DO UPDATE SET
			  title = excluded.title, slug = excluded.slug, description = excluded.description,
			  cover_photo_id = excluded.cover_photo_id, display_order = excluded.display_order`

	if _, err := s.db.ExecContext(ctx, query, c.ID, c.Title, c.Slug, c.Description,
		c.CoverPhotoID, c.DisplayOrder, createdAt); err != nil {
		return fmt.Errorf("failed to seed collection %s: %w", c.ID, err)
	}
	return nil
}

// SeedPhoto upserts a photo and replaces its collection and category references
func (s *SQLStore) SeedPhoto(ctx context.Context, p *models.Photo) error {
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var price interface{}
	if p.Price != nil {
		price = p.Price.String()
	}

	var imagePath interface{}
	if p.ImagePath != "" {
		imagePath = p.ImagePath
	}

	settings := p.CameraSettings
	if settings == nil {
		settings = &models.CameraSettings{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO photos (id, title, slug, description, price, image_path, date_taken,
			  camera, lens, aperture, shutter_speed, iso, display_order, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			  ON CONFLICT (id) DO UPDATE SET
			  title = excluded.title, slug = excluded.slug, description = excluded.description,
			  price = excluded.price, image_path = excluded.image_path, date_taken = excluded.date_taken,
			  camera = excluded.camera, lens = excluded.lens, aperture = excluded.aperture,
			  shutter_speed = excluded.shutter_speed, iso = excluded.iso,
			  display_order = excluded.display_order`

	if _, err := tx.ExecContext(ctx, query, p.ID, p.Title, p.Slug, p.Description, price, imagePath,
		p.DateTaken, settings.Camera, settings.Lens, settings.Aperture, settings.ShutterSpeed,
		settings.ISO, p.DisplayOrder, createdAt.UTC()); err != nil {
		return fmt.Errorf("failed to seed photo %s: %w", p.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM photo_collections WHERE photo_id = $1`, p.ID); err != nil {
		return err
	}
	for i, collectionID := range p.CollectionIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO photo_collections (photo_id, collection_id, position) VALUES ($1, $2, $3)
			 ON CONFLICT (photo_id, collection_id) DO NOTHING`,
			p.ID, collectionID, i); err != nil {
			return fmt.Errorf("failed to link photo %s to collection %s: %w", p.ID, collectionID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM photo_categories WHERE photo_id = $1`, p.ID); err != nil {
		return err
	}
	for _, categoryID := range p.CategoryIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO photo_categories (photo_id, category_id) VALUES ($1, $2)
			 ON CONFLICT (photo_id, category_id) DO NOTHING`,
			p.ID, categoryID); err != nil {
			return fmt.Errorf("failed to link photo %s to category %s: %w", p.ID, categoryID, err)
		}
	}

	return tx.Commit()
}
