package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ratacueva-backend/internal/services"
)

// FavoritesHandler exposes the favorites endpoints
type FavoritesHandler struct {
	favorites *services.FavoritesService
	logger    *zap.Logger
}

// NewFavoritesHandler creates a new favorites handler
func NewFavoritesHandler(favorites *services.FavoritesService, logger *zap.Logger) *FavoritesHandler {
	return &FavoritesHandler{favorites: favorites, logger: logger}
}

// ListFavorites handles GET /api/favorites
func (h *FavoritesHandler) ListFavorites(c *gin.Context) {
	limit, offset := pagination(c)
	products, total, err := h.favorites.ListFavorites(currentUserID(c), limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondList(c, products, total, limit, offset)
}

// AddFavorite handles POST /api/favorites/:productId
func (h *FavoritesHandler) AddFavorite(c *gin.Context) {
	if err := h.favorites.AddFavorite(currentUserID(c), c.Param("productId")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusCreated, "Producto añadido a favoritos.")
}

// RemoveFavorite handles DELETE /api/favorites/:productId
func (h *FavoritesHandler) RemoveFavorite(c *gin.Context) {
	if err := h.favorites.RemoveFavorite(currentUserID(c), c.Param("productId")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, "Producto eliminado de favoritos.")
}
