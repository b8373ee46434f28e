package handlers

import (
	"net/http"

	"github.com/photogallery/server/internal/models"
)

// Version information injected at build time
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// VersionHandler reports the build and the configured store driver
// @Summary Version
// @Tags health
// @Produce json
// @Success 200 {object} models.VersionResponse
// @Router /api/version [get]
func VersionHandler(driver string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.VersionResponse{
			Version:   Version,
			GitCommit: GitCommit,
			BuildTime: BuildTime,
			Store:     driver,
		})
	}
}
