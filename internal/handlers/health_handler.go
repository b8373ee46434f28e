package handlers

import (
	"net/http"
	"time"

	"github.com/photogallery/server/internal/models"
	"github.com/photogallery/server/internal/services"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	gallery *services.GalleryService
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(gallery *services.GalleryService) *HealthHandler {
	return &HealthHandler{gallery: gallery}
}

// HealthCheck returns the server health status
// @Summary Health check
// @Description Returns the current health status of the server and its content store
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse "Server is healthy"
// @Failure 503 {object} models.HealthResponse "Content store unreachable"
// @Router /api/health [get]
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := models.HealthResponse{
		Status:    "healthy",
		Store:     h.gallery.Driver(),
		Timestamp: time.Now().UTC(),
	}

	if err := h.gallery.Ping(r.Context()); err != nil {
		response.Status = "degraded"
		response.Error = models.ErrStoreUnavailable.Error()
		writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	writeJSON(w, http.StatusOK, response)
}
