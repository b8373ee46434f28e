package repository

import (
	"context"
	"database/sql"

	"github.com/photogallery/server/internal/models"
)

// CollectionRepository implements CollectionRepo for PostgreSQL/SQLite
type CollectionRepository struct {
	db           *sql.DB
	assetBaseURL string
}

// NewCollectionRepository creates a new CollectionRepository
func NewCollectionRepository(db *sql.DB, assetBaseURL string) *CollectionRepository {
	return &CollectionRepository{db: db, assetBaseURL: assetBaseURL}
}

const collectionColumns = `c.id, c.title, c.slug, c.description, c.cover_photo_id, cp.image_path,
	c.display_order, c.created_at,
	(SELECT COUNT(*) FROM photo_collections pc WHERE pc.collection_id = c.id) as photo_count`

func (r *CollectionRepository) GetAll(ctx context.Context) ([]*models.Collection, error) {
	query := `SELECT ` + collectionColumns + `
			  FROM collections c
			  LEFT JOIN photos cp ON cp.id = c.cover_photo_id
			  ORDER BY c.display_order IS NULL, c.display_order ASC, c.title ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	collections := []*models.Collection{}
	for rows.Next() {
		c, err := r.scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

func (r *CollectionRepository) GetBySlug(ctx context.Context, slug string) (*models.Collection, error) {
	query := `SELECT ` + collectionColumns + `
			  FROM collections c
			  LEFT JOIN photos cp ON cp.id = c.cover_photo_id
			  WHERE c.slug = $1`

	c, err := r.scanCollection(r.db.QueryRowContext(ctx, query, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CollectionRepository) scanCollection(row rowScanner) (*models.Collection, error) {
	var c models.Collection
	var coverPath sql.NullString

	if err := row.Scan(&c.ID, &c.Title, &c.Slug, &c.Description, &c.CoverPhotoID, &coverPath,
		&c.DisplayOrder, &c.CreatedAt, &c.PhotoCount); err != nil {
		return nil, err
	}

	c.CoverImageURL = assetURL(r.assetBaseURL, coverPath.String)
	return &c, nil
}

// CategoryRepository implements CategoryRepo for PostgreSQL/SQLite
type CategoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryColumns = `k.id, k.title, k.slug, k.description,
	(SELECT COUNT(*) FROM photo_categories pk WHERE pk.category_id = k.id) as photo_count`

func (r *CategoryRepository) GetAll(ctx context.Context) ([]*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories k ORDER BY k.title ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []*models.Category{}
	for rows.Next() {
		var k models.Category
		if err := rows.Scan(&k.ID, &k.Title, &k.Slug, &k.Description, &k.PhotoCount); err != nil {
			return nil, err
		}
		categories = append(categories, &k)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories k WHERE k.slug = $1`

	var k models.Category
	err := r.db.QueryRowContext(ctx, query, slug).Scan(&k.ID, &k.Title, &k.Slug, &k.Description, &k.PhotoCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &k, nil
}
