package models

import "time"

// ShipmentStatus represents the carrier-side state of a shipment
type ShipmentStatus string

const (
	ShipmentStatusPendingPickup ShipmentStatus = "pending_pickup"
	ShipmentStatusInTransit     ShipmentStatus = "in_transit"
	ShipmentStatusDelivered     ShipmentStatus = "delivered"
	ShipmentStatusException     ShipmentStatus = "exception"
	ShipmentStatusCancelled     ShipmentStatus = "cancelled"
)

// IsValidShipmentStatus checks enum membership
func IsValidShipmentStatus(s ShipmentStatus) bool {
	switch s {
	case ShipmentStatusPendingPickup, ShipmentStatusInTransit,
		ShipmentStatusDelivered, ShipmentStatusException, ShipmentStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the shipment status admits no further updates
func (s ShipmentStatus) IsTerminal() bool {
	return s == ShipmentStatusDelivered || s == ShipmentStatusCancelled
}

// TrackingEvent is one entry in a shipment's append-only tracking log
type TrackingEvent struct {
	ID         string         `json:"id" db:"id"`
	ShipmentID string         `json:"-" db:"shipment_id"`
	Status     ShipmentStatus `json:"status" db:"status"`
	Timestamp  time.Time      `json:"timestamp" db:"timestamp"`
	Location   *string        `json:"location,omitempty" db:"location"`
	Notes      *string        `json:"notes,omitempty" db:"notes"`
}

// ShipmentItem is a product line carried by a shipment
type ShipmentItem struct {
	ProductID string `json:"productId" db:"product_id"`
	Quantity  int    `json:"quantity" db:"quantity"`
}

// Shipment represents a simulated carrier shipment, one per order
type Shipment struct {
	ID                    string          `json:"id" db:"id"`
	OrderID               string          `json:"orderId" db:"order_id"`
	TrackingNumber        string          `json:"trackingNumber" db:"tracking_number"`
	ShippingProvider      string          `json:"shippingProvider" db:"shipping_provider"`
	CurrentStatus         ShipmentStatus  `json:"currentStatus" db:"current_status"`
	ShippingAddress       OrderAddress    `json:"shippingAddress"`
	Items                 []ShipmentItem  `json:"items"`
	EstimatedDeliveryDate *time.Time      `json:"estimatedDeliveryDate,omitempty" db:"estimated_delivery_date"`
	TrackingEvents        []TrackingEvent `json:"trackingEvents"`
	CreatedAt             time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt             time.Time       `json:"updatedAt" db:"updated_at"`
}

// ShipmentCreation represents data for creating a shipment
type ShipmentCreation struct {
	OrderID               string         `json:"orderId" binding:"required"`
	ShippingAddress       OrderAddress   `json:"shippingAddress" binding:"required"`
	Items                 []ShipmentItem `json:"items" binding:"required,min=1"`
	ShippingProvider      string         `json:"shippingProvider" binding:"required"`
	EstimatedDeliveryDate *time.Time     `json:"estimatedDeliveryDate,omitempty"`
}

// ShipmentStatusUpdate represents a carrier status change
type ShipmentStatusUpdate struct {
	NewStatus ShipmentStatus `json:"newStatus" binding:"required"`
	Location  *string        `json:"location,omitempty"`
	Notes     *string        `json:"notes,omitempty"`
}

// ShipmentFilters represents listing filters
type ShipmentFilters struct {
	Status   *ShipmentStatus
	OrderID  *string
	Provider *string
}
