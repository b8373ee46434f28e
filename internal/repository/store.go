package repository

import (
	"context"
	"fmt"
	"strings"
)

// Store drivers
const (
	DriverSanity   = "sanity"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Options selects and addresses a backend
type Options struct {
	Driver string

	// Hosted CMS
	ProjectID  string
	Dataset    string
	APIVersion string
	UseCDN     bool
	Token      string
	// BaseURL overrides the derived CMS API host
	BaseURL string

	// SQL and Mongo
	DatabasePath string
	DatabaseURL  string
	MongoURI     string

	// AssetBaseURL prefixes stored asset paths in the local backends
	AssetBaseURL string
}

// Open connects to the backend named by opts.Driver
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverSanity, "":
		return NewSanityStore(opts)
	case DriverSQLite:
		db, err := NewSQLiteDB(opts.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return NewSQLStore(db, DriverSQLite, opts.AssetBaseURL), nil
	case DriverPostgres:
		db, err := NewPostgresDB(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres database: %w", err)
		}
		return NewSQLStore(db, DriverPostgres, opts.AssetBaseURL), nil
	case DriverMongo:
		return NewMongoStore(ctx, opts.MongoURI, opts.Dataset, opts.AssetBaseURL)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

// assetURL joins a stored asset path onto the public asset base URL.
// Absolute URLs are returned unchanged.
func assetURL(baseURL, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
