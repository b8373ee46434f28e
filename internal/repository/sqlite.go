package repository

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteDB creates and initializes a SQLite database
func NewSQLiteDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS photos (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT,
		price TEXT,
		image_path TEXT,
		date_taken DATETIME,
		camera TEXT,
		lens TEXT,
		aperture TEXT,
		shutter_speed TEXT,
		iso TEXT,
		display_order REAL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_photos_order ON photos(display_order, created_at);

	CREATE TABLE IF NOT EXISTS collections (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT,
		cover_photo_id TEXT,
		display_order REAL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT
	);

	-- Photo owns its collection references
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
	`

	_, err := db.Exec(schema)
	return err
}
