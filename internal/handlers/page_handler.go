package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/photogallery/server/internal/models"
	"github.com/photogallery/server/internal/services"
)

// PageHandler serves the public gallery pages
type PageHandler struct {
	gallery   *services.GalleryService
	templates *Templates
}

// NewPageHandler creates a new PageHandler
func NewPageHandler(gallery *services.GalleryService, templates *Templates) *PageHandler {
	return &PageHandler{
		gallery:   gallery,
		templates: templates,
	}
}

type homePage struct {
	Collections []*models.Collection
	CurrentSlug string
	Columns     [][]*models.Photo
}

type collectionPage struct {
	Collections []*models.Collection
	CurrentSlug string
	Collection  *models.Collection
	Columns     [][]*models.Photo
	HasPhotos   bool
}

type photoPage struct {
	Photo *models.Photo
}

// Home renders the collections strip above the full gallery.
// A failing store renders the page with empty sections.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	var photos services.Result[[]*models.Photo]
	var collections services.Result[[]*models.Collection]

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		photos = h.gallery.ListPhotos(ctx)
		return nil
	})
	g.Go(func() error {
		collections = h.gallery.ListCollections(ctx)
		return nil
	})
	g.Wait()

	h.templates.render(w, r, http.StatusOK, pageHome, homePage{
		Collections: collections.Value,
		Columns:     services.Columns(photos.Value, services.GalleryColumns),
	})
}

// Collection renders one collection with its photos
func (h *PageHandler) Collection(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	collection := h.gallery.GetCollectionBySlug(r.Context(), slug)
	if collection.Unavailable() {
		h.templates.renderUnavailable(w, r)
		return
	}
	if collection.Value == nil {
		h.templates.renderNotFound(w, r, "This collection does not exist.")
		return
	}

	var photos services.Result[[]*models.Photo]
	var collections services.Result[[]*models.Collection]

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		photos = h.gallery.ListPhotosByCollection(ctx, collection.Value.ID)
		return nil
	})
	g.Go(func() error {
		collections = h.gallery.ListCollections(ctx)
		return nil
	})
	g.Wait()

	h.templates.render(w, r, http.StatusOK, pageCollection, collectionPage{
		Collections: collections.Value,
		CurrentSlug: slug,
		Collection:  collection.Value,
		Columns:     services.Columns(photos.Value, services.GalleryColumns),
		HasPhotos:   len(photos.Value) > 0,
	})
}

// Photo renders a single photo with its details
func (h *PageHandler) Photo(w http.ResponseWriter, r *http.Request) {
	photo := h.gallery.GetPhotoBySlug(r.Context(), chi.URLParam(r, "slug"))
	if photo.Unavailable() {
		h.templates.renderUnavailable(w, r)
		return
	}
	if photo.Value == nil {
		h.templates.renderNotFound(w, r, "This photo does not exist.")
		return
	}

	h.templates.render(w, r, http.StatusOK, pagePhoto, photoPage{Photo: photo.Value})
}

// NotFound renders the 404 page for unknown routes
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.templates.renderNotFound(w, r, "The page you are looking for does not exist.")
}
