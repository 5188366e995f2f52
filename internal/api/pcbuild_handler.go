package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ratacueva-backend/internal/models"
	"ratacueva-backend/internal/services"
)

// PcBuildHandler exposes the PC configurator endpoints
type PcBuildHandler struct {
	builds *services.PcBuildService
	logger *zap.Logger
}

// NewPcBuildHandler creates a new PC build handler
func NewPcBuildHandler(builds *services.PcBuildService, logger *zap.Logger) *PcBuildHandler {
	return &PcBuildHandler{builds: builds, logger: logger}
}

// CreateBuild handles POST /api/pc-builds
func (h *PcBuildHandler) CreateBuild(c *gin.Context) {
	var creation models.PcBuildCreation
	if err := c.ShouldBindJSON(&creation); err != nil {
		badRequestBody(c, err)
		return
	}

	build, err := h.builds.CreateBuild(currentUserID(c), &creation)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusCreated, build)
}

// ListBuilds handles GET /api/pc-builds
func (h *PcBuildHandler) ListBuilds(c *gin.Context) {
	builds, err := h.builds.ListBuilds(currentUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, builds)
}

// DeleteBuild handles DELETE /api/pc-builds/:buildId
func (h *PcBuildHandler) DeleteBuild(c *gin.Context) {
	if err := h.builds.DeleteBuild(c.Param("buildId"), currentUserID(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, "Configuración eliminada correctamente.")
}
