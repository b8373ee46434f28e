package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/caarlos0/env/v6"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
)

// Store drivers
const (
	DriverSanity   = "sanity"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

var datasetPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Config holds all application configuration
type Config struct {
	ServerAddress string        `json:"serverAddress" env:"SERVER_ADDRESS"`
	CMS           CMS           `json:"cms"`
	Store         Store         `json:"store"`
	Assets        Assets        `json:"assets"`
	Admin         Admin         `json:"admin"`
	CORS          CORS          `json:"cors"`
	QueryTimeout  time.Duration `json:"queryTimeout" env:"QUERY_TIMEOUT"`
}

// CMS identifies the hosted content project
type CMS struct {
	ProjectID  string `json:"projectId" env:"CMS_PROJECT_ID"`
	Dataset    string `json:"dataset" env:"CMS_DATASET"`
	APIVersion string `json:"apiVersion" env:"CMS_API_VERSION"`
	UseCDN     bool   `json:"useCdn" env:"CMS_USE_CDN"`
	Token      string `json:"token" env:"CMS_TOKEN"`
}

// Store selects and addresses the document-store backend
type Store struct {
	Driver       string `json:"driver" env:"STORE_DRIVER"`
	DatabasePath string `json:"databasePath" env:"DATABASE_PATH"`
	DatabaseURL  string `json:"databaseUrl" env:"DATABASE_URL"`
	MongoURI     string `json:"mongoUri" env:"MONGODB_URI"`
}

// Assets configures locally hosted images
type Assets struct {
	BasePath string `json:"basePath" env:"ASSET_PATH"`
	BaseURL  string `json:"baseUrl" env:"ASSET_BASE_URL"`
}

// Admin configures the protected admin views
type Admin struct {
	Username     string `json:"username" env:"ADMIN_USERNAME"`
	PasswordHash string `json:"passwordHash" env:"ADMIN_PASSWORD_HASH"`
}

// CORS configuration for the JSON API
type CORS struct {
	AllowedOrigins []string `json:"allowedOrigins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// UnmarshalJSON accepts queryTimeout as a duration string ("10s") or as
// integer nanoseconds.
func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	aux := struct {
		*plain
		QueryTimeout json.RawMessage `json:"queryTimeout"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.QueryTimeout) == 0 || string(aux.QueryTimeout) == "null" {
		return nil
	}

	var text string
	if err := json.Unmarshal(aux.QueryTimeout, &text); err == nil {
		d, err := time.ParseDuration(text)
		if err != nil {
			return fmt.Errorf("queryTimeout: %w", err)
		}
		c.QueryTimeout = d
		return nil
	}

	var nanos int64
	if err := json.Unmarshal(aux.QueryTimeout, &nanos); err != nil {
		return fmt.Errorf("queryTimeout: expected a duration string or integer nanoseconds")
	}
	c.QueryTimeout = time.Duration(nanos)
	return nil
}

// AdminEnabled returns true when admin credentials are configured
func (c *Config) AdminEnabled() bool {
	return c.Admin.PasswordHash != ""
}

// UsesLocalAssets returns true when images are served from ASSET_PATH
func (c *Config) UsesLocalAssets() bool {
	return c.Store.Driver != DriverSanity
}

// Default configuration
func defaultConfig() *Config {
	return &Config{
		ServerAddress: ":3000",
		CMS: CMS{
			APIVersion: "2023-05-03",
		},
		Store: Store{
			Driver:       DriverSanity,
			DatabasePath: "gallery.db",
		},
		Assets: Assets{
			BasePath: "./assets",
			BaseURL:  "/images",
		},
		Admin: Admin{
			Username: "admin",
		},
		CORS: CORS{
			AllowedOrigins: []string{"*"},
		},
		QueryTimeout: 10 * time.Second,
	}
}

// Load loads configuration from .env, an optional JSON file and the environment
func Load() (*Config, error) {
	// A missing .env file is normal outside local development
	_ = godotenv.Load()

	cfg := defaultConfig()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for missing or inconsistent values
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ServerAddress, validation.Required),
		validation.Field(&c.CMS),
		validation.Field(&c.Store),
		validation.Field(&c.QueryTimeout,
			validation.Required.Error("QUERY_TIMEOUT must be positive"),
			validation.Min(time.Millisecond).Error("QUERY_TIMEOUT must be at least 1ms"),
		),
	)
}

// Validate checks the CMS project settings
func (c CMS) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ProjectID, validation.Required.Error("CMS_PROJECT_ID is required")),
		validation.Field(&c.Dataset,
			validation.Required.Error("CMS_DATASET is required"),
			validation.Match(datasetPattern).Error("must contain only lowercase letters, digits, '_' and '-'"),
		),
		validation.Field(&c.APIVersion, validation.Required),
	)
}

// Validate checks the store settings for the selected driver
func (s Store) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Driver,
			validation.Required,
			validation.In(DriverSanity, DriverSQLite, DriverPostgres, DriverMongo),
		),
		validation.Field(&s.DatabasePath, validation.When(s.Driver == DriverSQLite, validation.Required)),
		validation.Field(&s.DatabaseURL, validation.When(s.Driver == DriverPostgres, validation.Required.Error("DATABASE_URL is required for postgres"))),
		validation.Field(&s.MongoURI, validation.When(s.Driver == DriverMongo, validation.Required.Error("MONGODB_URI is required for mongo"))),
	)
}
