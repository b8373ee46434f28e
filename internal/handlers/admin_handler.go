package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/photogallery/server/internal/models"
	"github.com/photogallery/server/internal/services"
)

// AdminHandler serves the read-only content desk
type AdminHandler struct {
	gallery   *services.GalleryService
	templates *Templates
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(gallery *services.GalleryService, templates *Templates) *AdminHandler {
	return &AdminHandler{
		gallery:   gallery,
		templates: templates,
	}
}

type adminIndexPage struct {
	PhotoCount  int
	Collections []*models.Collection
}

type adminCollectionPhotosPage struct {
	CollectionID string
	Title        string
	Photos       []*models.Photo
}

// Index lists the content types with their counts
func (h *AdminHandler) Index(w http.ResponseWriter, r *http.Request) {
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

	h.templates.render(w, r, http.StatusOK, pageAdminIndex, adminIndexPage{
		PhotoCount:  len(photos.Value),
		Collections: collections.Value,
	})
}

// CollectionPhotos renders every photo referencing a collection, images or not
func (h *AdminHandler) CollectionPhotos(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "id")
	photos := h.gallery.ListCollectionPhotosForAdmin(r.Context(), collectionID)

	h.templates.render(w, r, http.StatusOK, pageAdminCollectionPhotos, adminCollectionPhotosPage{
		CollectionID: collectionID,
		Title:        h.collectionTitle(r, collectionID),
		Photos:       photos.Value,
	})
}

// CollectionPhotosJSON is the JSON form of CollectionPhotos
// @Summary Photos in a collection (admin)
// @Description Every photo referencing the collection, including photos without an image, ordered by displayOrder then title
// @Tags admin
// @Produce json
// @Security BasicAuth
// @Param id path string true "Collection ID"
// @Param title query string false "Collection title for display"
// @Success 200 {object} models.AdminCollectionPhotosResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /api/admin/collections/{id}/photos [get]
func (h *AdminHandler) CollectionPhotosJSON(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "id")
	photos := h.gallery.ListCollectionPhotosForAdmin(r.Context(), collectionID)
	if photos.Unavailable() {
		writeUnavailable(w)
		return
	}

	writeJSON(w, http.StatusOK, models.AdminCollectionPhotosResponse{
		CollectionID: collectionID,
		Title:        r.URL.Query().Get("title"),
		Count:        len(photos.Value),
		Photos:       photos.Value,
	})
}

// collectionTitle prefers the title passed by the desk link, then the stored title
func (h *AdminHandler) collectionTitle(r *http.Request, collectionID string) string {
	if title := r.URL.Query().Get("title"); title != "" {
		return title
	}
	for _, c := range h.gallery.ListCollections(r.Context()).Value {
		if c.ID == collectionID {
			return c.Title
		}
	}
	return collectionID
}
