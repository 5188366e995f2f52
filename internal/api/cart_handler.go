package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ratacueva-backend/internal/models"
	"ratacueva-backend/internal/services"
)

// CartHandler exposes the authenticated cart endpoints
type CartHandler struct {
	carts  *services.CartService
	logger *zap.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts *services.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, logger: logger}
}

// GetCart handles GET /api/cart
func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.carts.GetCart(currentUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, cart)
}

// AddItem handles POST /api/cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var input models.AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequestBody(c, err)
		return
	}

	cart, err := h.carts.AddItem(currentUserID(c), input.ProductID, input.Quantity, input.SelectedVariation)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, cart)
}

// UpdateItem handles PUT /api/cart/items/:itemId
func (h *CartHandler) UpdateItem(c *gin.Context) {
	var input models.UpdateCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequestBody(c, err)
		return
	}

	cart, err := h.carts.UpdateItem(currentUserID(c), c.Param("itemId"), &input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, cart)
}

// RemoveItem handles DELETE /api/cart/items/:itemId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	if err := h.carts.RemoveItem(currentUserID(c), c.Param("itemId")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, "Artículo eliminado del carrito.")
}

// ClearCart handles DELETE /api/cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.carts.ClearCart(currentUserID(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, "Carrito vaciado.")
}

// SyncCart handles POST /api/cart/sync
func (h *CartHandler) SyncCart(c *gin.Context) {
	var body struct {
		Items []models.SyncCartItem `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequestBody(c, err)
		return
	}

	cart, err := h.carts.SyncCart(currentUserID(c), body.Items)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, cart)
}
