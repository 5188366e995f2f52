package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ratacueva-backend/internal/models"
	"ratacueva-backend/internal/services"
)

// OrderHandler exposes client and staff order endpoints
type OrderHandler struct {
	orders *services.OrderService
	logger *zap.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *services.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// CreateOrder handles POST /api/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var creation models.OrderCreation
	if err := c.ShouldBindJSON(&creation); err != nil {
		badRequestBody(c, err)
		return
	}

	order, err := h.orders.CreateOrder(currentUserID(c), &creation)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusCreated, order)
}

// ListMyOrders handles GET /api/orders
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	limit, offset := pagination(c)
	orders, total, err := h.orders.ListOrdersForUser(currentUserID(c), limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondList(c, orders, total, limit, offset)
}

// GetOrder handles GET /api/orders/:orderId
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrderByID(c.Param("orderId"), currentUserID(c), currentUserRole(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, order)
}

// CancelOrder handles PATCH /api/orders/:orderId/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	order, err := h.orders.CancelOrder(c.Param("orderId"), currentUserID(c), currentUserRole(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, order)
}

// ListOrders handles GET /api/admin/orders (staff)
func (h *OrderHandler) ListOrders(c *gin.Context) {
	filters := models.OrderFilters{}
	if v := c.Query("status"); v != "" {
		status := models.OrderStatus(v)
		filters.Status = &status
	}
	if v := c.Query("userId"); v != "" {
		filters.UserID = &v
	}

	limit, offset := pagination(c)
	orders, total, err := h.orders.ListOrders(filters, limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondList(c, orders, total, limit, offset)
}

// UpdateOrderStatus handles PATCH /api/admin/orders/:orderId/status (staff)
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	var body struct {
		Status models.OrderStatus `json:"status" binding:"required"`
		Notes  *string            `json:"notes,omitempty"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequestBody(c, err)
		return
	}

	order, err := h.orders.UpdateOrderStatus(c.Param("orderId"), body.Status, body.Notes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, order)
}

// UpdatePaymentStatus handles PATCH /api/admin/orders/:orderId/payment (staff)
func (h *OrderHandler) UpdatePaymentStatus(c *gin.Context) {
	var body struct {
		PaymentStatus models.PaymentStatus `json:"paymentStatus" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequestBody(c, err)
		return
	}

	order, err := h.orders.UpdatePaymentStatus(c.Param("orderId"), body.PaymentStatus)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, order)
}

// UpdateShippingDetails handles PATCH /api/admin/orders/:orderId/shipping (staff)
func (h *OrderHandler) UpdateShippingDetails(c *gin.Context) {
	var body struct {
		TrackingNumber        string     `json:"trackingNumber" binding:"required"`
		ShippingProvider      string     `json:"shippingProvider" binding:"required"`
		EstimatedDeliveryDate *time.Time `json:"estimatedDeliveryDate,omitempty"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequestBody(c, err)
		return
	}

	order, err := h.orders.UpdateShippingDetails(
		c.Param("orderId"), body.TrackingNumber, body.ShippingProvider,
		body.EstimatedDeliveryDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, order)
}
