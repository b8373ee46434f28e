package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/photogallery/server/internal/middleware"
	"github.com/photogallery/server/internal/observability"
	"github.com/photogallery/server/internal/services"
)

// RouterDeps carries everything the HTTP surface is built from
type RouterDeps struct {
	Gallery   *services.GalleryService
	Templates *Templates
	// Images is nil when assets are hosted by the CMS
	Images *services.ImageService

	AdminUsername     string
	AdminPasswordHash string

	AllowedOrigins []string

	// ServiceName enables request tracing when set
	ServiceName string
	HTTPMetrics *observability.HTTPMetrics

	// RequestLogging adds chi's request logger
	RequestLogging bool
}

// NewRouter builds the gallery's routes
func NewRouter(deps RouterDeps) http.Handler {
	pages := NewPageHandler(deps.Gallery, deps.Templates)
	api := NewAPIHandler(deps.Gallery)
	health := NewHealthHandler(deps.Gallery)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if deps.RequestLogging {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	if deps.ServiceName != "" {
		r.Use(observability.TracingMiddleware(deps.ServiceName))
	}
	if deps.HTTPMetrics != nil {
		r.Use(observability.MetricsMiddleware(deps.HTTPMetrics))
	}

	r.NotFound(pages.NotFound)

	// Pages
	r.Get("/", pages.Home)
	r.Get("/collections/{slug}", pages.Collection)
	r.Get("/photos/{slug}", pages.Photo)

	if deps.Images != nil {
		r.Get("/images/*", NewImageHandler(deps.Images).Serve)
	}

	r.Get("/health", health.HealthCheck)

	var adminAuth func(http.Handler) http.Handler
	var admin *AdminHandler
	if deps.AdminPasswordHash != "" {
		adminAuth = middleware.BasicAuth(middleware.AdminRealm, deps.AdminUsername, deps.AdminPasswordHash)
		admin = NewAdminHandler(deps.Gallery, deps.Templates)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: deps.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}).Handler)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "Not found")
		})

		r.Get("/health", health.HealthCheck)
		r.Get("/version", VersionHandler(deps.Gallery.Driver()))

		r.Get("/photos", api.ListPhotos)
		r.Get("/photos/{slug}", api.GetPhoto)

		r.Get("/collections", api.ListCollections)
		r.Get("/collections/{slug}", api.GetCollection)
		r.Get("/collections/{slug}/photos", api.ListCollectionPhotos)

		r.Get("/categories", api.ListCategories)
		r.Get("/categories/{slug}", api.GetCategory)
		r.Get("/categories/{slug}/photos", api.ListCategoryPhotos)

		if admin != nil {
			r.With(adminAuth).Get("/admin/collections/{id}/photos", admin.CollectionPhotosJSON)
		}
	})

	if admin != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Use(adminAuth)
			r.Get("/", admin.Index)
			r.Get("/collections/{id}/photos", admin.CollectionPhotos)
		})
	}

	r.Get(swaggerDocPath, SwaggerDoc)
	r.Get("/swagger/*", SwaggerUI())

	return r
}
