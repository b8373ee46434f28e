package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/photogallery/server/internal/config"
	"github.com/photogallery/server/internal/observability"
	"github.com/photogallery/server/internal/repository"
	"github.com/photogallery/server/internal/services"
)

func main() {
	file := flag.String("file", "data.ndjson", "NDJSON export to import")
	assetsDir := flag.String("assets", "", "export directory holding file-backed images (defaults to the export's directory)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if !cfg.UsesLocalAssets() {
		log.Fatalf("STORE_DRIVER=%s is read-only; import into sqlite, postgres or mongo", cfg.Store.Driver)
	}

	logger := observability.GetLogger()
	defer logger.Sync()

	ctx := context.Background()

	store, err := repository.Open(ctx, repository.Options{
		Driver:       cfg.Store.Driver,
		Dataset:      cfg.CMS.Dataset,
		DatabasePath: cfg.Store.DatabasePath,
		DatabaseURL:  cfg.Store.DatabaseURL,
		MongoURI:     cfg.Store.MongoURI,
		AssetBaseURL: cfg.Assets.BaseURL,
	})
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Store.Driver, err)
	}
	defer store.Close()

	seeder, ok := store.(repository.Seeder)
	if !ok {
		log.Fatalf("Store %s does not accept imports", store.Driver())
	}

	storage, err := services.NewAssetStorage(cfg.Assets.BasePath, nil, 0)
	if err != nil {
		log.Fatalf("Failed to initialize asset storage: %v", err)
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("Failed to open export: %v", err)
	}
	defer f.Close()

	dir := *assetsDir
	if dir == "" {
		dir = filepath.Dir(*file)
	}

	importer := services.NewImportService(seeder, storage, services.NewEXIFService(), logger)
	stats, err := importer.Import(ctx, f, dir)
	if err != nil {
		logger.WithError(err).Errorf("Import of %s failed", *file)
		os.Exit(1)
	}

	logger.Infof("Imported %d categories, %d collections and %d photos (%d assets, %d skipped) into %s",
		stats.Categories, stats.Collections, stats.Photos, stats.Assets, stats.Skipped, store.Driver())
}
