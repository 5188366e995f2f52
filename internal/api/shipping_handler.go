package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ratacueva-backend/internal/models"
	"ratacueva-backend/internal/services"
)

// ShippingHandler exposes shipment management, public tracking and the live
// tracking feed
type ShippingHandler struct {
	shipping *services.ShippingService
	feed     *services.TrackingFeed
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewShippingHandler creates a new shipping handler
func NewShippingHandler(shipping *services.ShippingService, feed *services.TrackingFeed, logger *zap.Logger) *ShippingHandler {
	return &ShippingHandler{
		shipping: shipping,
		feed:     feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// CreateShipment handles POST /api/shipping (staff)
func (h *ShippingHandler) CreateShipment(c *gin.Context) {
	var creation models.ShipmentCreation
	if err := c.ShouldBindJSON(&creation); err != nil {
		badRequestBody(c, err)
		return
	}

	shipment, err := h.shipping.CreateShipment(&creation)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusCreated, shipment)
}

// ListShipments handles GET /api/shipping (staff)
func (h *ShippingHandler) ListShipments(c *gin.Context) {
	filters := models.ShipmentFilters{}
	if v := c.Query("status"); v != "" {
		status := models.ShipmentStatus(v)
		filters.Status = &status
	}
	if v := c.Query("orderId"); v != "" {
		filters.OrderID = &v
	}
	if v := c.Query("provider"); v != "" {
		filters.Provider = &v
	}

	limit, offset := pagination(c)
	shipments, total, err := h.shipping.ListShipments(filters, limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondList(c, shipments, total, limit, offset)
}

// GetShipment handles GET /api/shipping/:shipmentId (staff)
func (h *ShippingHandler) GetShipment(c *gin.Context) {
	shipment, err := h.shipping.GetShipmentByID(c.Param("shipmentId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, shipment)
}

// UpdateShipmentStatus handles PATCH /api/shipping/:shipmentId/status (staff)
func (h *ShippingHandler) UpdateShipmentStatus(c *gin.Context) {
	var update models.ShipmentStatusUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequestBody(c, err)
		return
	}

	shipment, err := h.shipping.UpdateShipmentStatus(c.Param("shipmentId"), &update)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, shipment)
}

// TrackShipment handles GET /api/shipping/track/:trackingNumber (public)
func (h *ShippingHandler) TrackShipment(c *gin.Context) {
	shipment, err := h.shipping.GetShipmentByTracking(c.Param("trackingNumber"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, shipment)
}

// Feed handles GET /api/shipping/:shipmentId/feed, upgrading to a websocket
// that streams tracking events as they are recorded
func (h *ShippingHandler) Feed(c *gin.Context) {
	shipmentID := c.Param("shipmentId")
	if _, err := h.shipping.GetShipmentByID(shipmentID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.feed.Subscribe(shipmentID, conn)
	defer func() {
		h.feed.Unsubscribe(shipmentID, conn)
		conn.Close()
	}()

	// Drain client frames until the connection closes. The feed is one-way;
	// anything the client sends is ignored.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
