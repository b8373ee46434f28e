package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/photogallery/server/internal/models"
	"github.com/photogallery/server/internal/services"
)

// APIHandler serves the read-only JSON API.
// Unlike the pages, it reports a failing store as 503 instead of an empty list.
type APIHandler struct {
	gallery *services.GalleryService
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(gallery *services.GalleryService) *APIHandler {
	return &APIHandler{gallery: gallery}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: message})
}

func writeUnavailable(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "30")
	writeError(w, http.StatusServiceUnavailable, models.ErrStoreUnavailable.Error())
}

// writeList writes a list result, or 503 when the store failed
func writeList[T any](w http.ResponseWriter, res services.Result[[]T]) {
	if res.Unavailable() {
		writeUnavailable(w)
		return
	}
	writeJSON(w, http.StatusOK, res.Value)
}

// writeItem writes a single result, 404 when absent or 503 when the store failed
func writeItem[T any](w http.ResponseWriter, res services.Result[*T], notFound error) {
	switch {
	case res.Unavailable():
		writeUnavailable(w)
	case res.Value == nil:
		writeError(w, http.StatusNotFound, notFound.Error())
	default:
		writeJSON(w, http.StatusOK, res.Value)
	}
}

// ListPhotos returns every photo with an image
// @Summary List photos
// @Description Photos with an image, ordered by displayOrder (nulls last) then newest first. Image URLs carry the optimization parameters.
// @Tags photos
// @Produce json
// @Success 200 {array} models.Photo
// @Failure 503 {object} models.ErrorResponse "Content store unavailable"
// @Router /api/photos [get]
func (h *APIHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	writeList(w, h.gallery.ListPhotos(r.Context()))
}

// GetPhoto returns a photo by slug
// @Summary Get photo
// @Tags photos
// @Produce json
// @Param slug path string true "Photo slug"
// @Success 200 {object} models.Photo
// @Failure 404 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /api/photos/{slug} [get]
func (h *APIHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	writeItem(w, h.gallery.GetPhotoBySlug(r.Context(), chi.URLParam(r, "slug")), models.ErrPhotoNotFound)
}

// ListCollections returns every collection with its photo count
// @Summary List collections
// @Tags collections
// @Produce json
// @Success 200 {array} models.Collection
// @Failure 503 {object} models.ErrorResponse
// @Router /api/collections [get]
func (h *APIHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	writeList(w, h.gallery.ListCollections(r.Context()))
}

// GetCollection returns a collection by slug
// @Summary Get collection
// @Tags collections
// @Produce json
// @Param slug path string true "Collection slug"
// @Success 200 {object} models.Collection
// @Failure 404 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /api/collections/{slug} [get]
func (h *APIHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	writeItem(w, h.gallery.GetCollectionBySlug(r.Context(), chi.URLParam(r, "slug")), models.ErrCollectionNotFound)
}

// ListCollectionPhotos returns the photos of a collection
// @Summary List photos in a collection
// @Tags collections
// @Produce json
// @Param slug path string true "Collection slug"
// @Success 200 {array} models.Photo
// @Failure 404 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /api/collections/{slug}/photos [get]
func (h *APIHandler) ListCollectionPhotos(w http.ResponseWriter, r *http.Request) {
	collection := h.gallery.GetCollectionBySlug(r.Context(), chi.URLParam(r, "slug"))
	if collection.Value == nil {
		writeItem(w, collection, models.ErrCollectionNotFound)
		return
	}
	writeList(w, h.gallery.ListPhotosByCollection(r.Context(), collection.Value.ID))
}

// ListCategories returns every category with its photo count
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {array} models.Category
// @Failure 503 {object} models.ErrorResponse
// @Router /api/categories [get]
func (h *APIHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeList(w, h.gallery.ListCategories(r.Context()))
}

// GetCategory returns a category by slug
// @Summary Get category
// @Tags categories
// @Produce json
// @Param slug path string true "Category slug"
// @Success 200 {object} models.Category
// @Failure 404 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /api/categories/{slug} [get]
func (h *APIHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	writeItem(w, h.gallery.GetCategoryBySlug(r.Context(), chi.URLParam(r, "slug")), models.ErrCategoryNotFound)
}

// ListCategoryPhotos returns the photos of a category
// @Summary List photos in a category
// @Tags categories
// @Produce json
// @Param slug path string true "Category slug"
// @Success 200 {array} models.Photo
// @Failure 404 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /api/categories/{slug}/photos [get]
func (h *APIHandler) ListCategoryPhotos(w http.ResponseWriter, r *http.Request) {
	category := h.gallery.GetCategoryBySlug(r.Context(), chi.URLParam(r, "slug"))
	if category.Value == nil {
		writeItem(w, category, models.ErrCategoryNotFound)
		return
	}
	writeList(w, h.gallery.ListPhotosByCategory(r.Context(), category.Value.ID))
}
