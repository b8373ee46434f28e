package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/photogallery/server/internal/config"
	"github.com/photogallery/server/internal/handlers"
	"github.com/photogallery/server/internal/observability"
	"github.com/photogallery/server/internal/repository"
	"github.com/photogallery/server/internal/services"
)

const serviceName = "photo-gallery"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.GetLogger()
	defer logger.Sync()

	ctx := context.Background()

	telemetry, err := observability.Initialize(ctx, observability.NewConfig(serviceName, handlers.Version))
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}

	storeMetrics, err := observability.NewStoreMetrics()
	if err != nil {
		log.Fatalf("Failed to create store metrics: %v", err)
	}
	imageMetrics, err := observability.NewImageMetrics()
	if err != nil {
		log.Fatalf("Failed to create image metrics: %v", err)
	}
	httpMetrics, err := observability.NewHTTPMetrics()
	if err != nil {
		log.Fatalf("Failed to create HTTP metrics: %v", err)
	}

	// Initialize content store
	store, err := repository.Open(ctx, storeOptions(cfg))
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Store.Driver, err)
	}
	defer store.Close()

	gallery := services.NewGalleryService(store, cfg.QueryTimeout, logger).WithMetrics(storeMetrics)

	// Local backends serve their own image assets
	var images *services.ImageService
	if cfg.UsesLocalAssets() {
		storage, err := services.NewAssetStorage(cfg.Assets.BasePath, nil, 0)
		if err != nil {
			log.Fatalf("Failed to initialize asset storage: %v", err)
		}
		images = services.NewImageService(storage, services.NewEXIFService(), imageMetrics)
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Gallery:           gallery,
		Templates:         handlers.MustLoadTemplates(),
		Images:            images,
		AdminUsername:     cfg.Admin.Username,
		AdminPasswordHash: cfg.Admin.PasswordHash,
		AllowedOrigins:    cfg.CORS.AllowedOrigins,
		ServiceName:       serviceName,
		HTTPMetrics:       httpMetrics,
		RequestLogging:    true,
	})

	// Create server
	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.WithFields(map[string]interface{}{
			"address": cfg.ServerAddress,
			"store":   store.Driver(),
			"admin":   cfg.AdminEnabled(),
		}).Info("Photo gallery starting")
		if images != nil {
			logger.Infof("Serving assets from %s at %s", images.Storage().BasePath(), cfg.Assets.BaseURL)
		}

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Telemetry shutdown failed")
	}

	logger.Info("Server stopped")
}

func storeOptions(cfg *config.Config) repository.Options {
	return repository.Options{
		Driver:       cfg.Store.Driver,
		ProjectID:    cfg.CMS.ProjectID,
		Dataset:      cfg.CMS.Dataset,
		APIVersion:   cfg.CMS.APIVersion,
		UseCDN:       cfg.CMS.UseCDN,
		Token:        cfg.CMS.Token,
		DatabasePath: cfg.Store.DatabasePath,
		DatabaseURL:  cfg.Store.DatabaseURL,
		MongoURI:     cfg.Store.MongoURI,
		AssetBaseURL: cfg.Assets.BaseURL,
	}
}
