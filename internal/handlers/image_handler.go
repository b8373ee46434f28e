package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/photogallery/server/internal/models"
	"github.com/photogallery/server/internal/observability"
	"github.com/photogallery/server/internal/services"
)

const imageCacheControl = "public, max-age=86400"

// ImageHandler serves locally stored assets, transformed on request
type ImageHandler struct {
	images *services.ImageService
}

// NewImageHandler creates a new ImageHandler
func NewImageHandler(images *services.ImageService) *ImageHandler {
	return &ImageHandler{images: images}
}

// Serve handles GET /images/*. Without transformation parameters, or for
// formats the decoder does not handle, the original file is served.
func (h *ImageHandler) Serve(w http.ResponseWriter, r *http.Request) {
	storedPath := chi.URLParam(r, "*")
	if storedPath == "" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	opts, err := services.ParseImageOptions(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if opts.IsZero() || !services.IsSupportedFormat(storedPath) {
		h.serveOriginal(w, r, storedPath)
		return
	}

	out, err := h.images.Transform(r.Context(), storedPath, opts)
	if err != nil {
		h.fail(w, r, storedPath, err)
		return
	}

	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	w.Header().Set("Cache-Control", imageCacheControl)
	w.Header().Set("Vary", "Accept")
	w.Write(out.Data)
}

func (h *ImageHandler) serveOriginal(w http.ResponseWriter, r *http.Request, storedPath string) {
	f, info, err := h.images.Storage().Open(storedPath)
	if err != nil {
		h.fail(w, r, storedPath, err)
		return
	}
	defer f.Close()

	w.Header().Set("Cache-Control", imageCacheControl)
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (h *ImageHandler) fail(w http.ResponseWriter, r *http.Request, storedPath string, err error) {
	switch {
	case errors.Is(err, models.ErrAssetNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, models.ErrPathTraversal):
		http.Error(w, "Invalid path", http.StatusBadRequest)
	default:
		observability.WithContext(r.Context()).
			WithField("path", storedPath).
			WithError(err).
			Error("Failed to serve image")
		http.Error(w, "Failed to process image", http.StatusInternalServerError)
	}
}
