package repository

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// NewPostgresDB creates and initializes a PostgreSQL database connection
func NewPostgresDB(ctx context.Context, connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := createPostgresTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// postgresSchema mirrors the SQLite schema. Prices are unconstrained NUMERIC
// so they round-trip exactly, as they do in the other backends.
const postgresSchema = `
	CREATE TABLE IF NOT EXISTS photos (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT,
		price NUMERIC,
		image_path TEXT,
		date_taken TIMESTAMPTZ,
		camera TEXT,
		lens TEXT,
		aperture TEXT,
		shutter_speed TEXT,
		iso TEXT,
		display_order DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_photos_order ON photos(display_order, created_at);

	CREATE TABLE IF NOT EXISTS collections (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT,
		cover_photo_id TEXT,
		display_order DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT
	);

	CREATE TABLE IF NOT EXISTS photo_collections (
		photo_id TEXT NOT NULL REFERENCES photos(id) ON DELETE CASCADE,
		collection_id TEXT NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
		position INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (photo_id, collection_id)
	);

	CREATE INDEX IF NOT EXISTS idx_photo_collections_collection ON photo_collections(collection_id);

	CREATE TABLE IF NOT EXISTS photo_categories (
		photo_id TEXT NOT NULL REFERENCES photos(id) ON DELETE CASCADE,
		category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		PRIMARY KEY (photo_id, category_id)
	);

	CREATE INDEX IF NOT EXISTS idx_photo_categories_category ON photo_categories(category_id);

	-- Databases created with a fixed scale keep it otherwise
	ALTER TABLE photos ALTER COLUMN price TYPE NUMERIC;
`

func createPostgresTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, postgresSchema)
	return err
}
