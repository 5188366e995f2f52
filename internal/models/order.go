package models

import (
	"encoding/json"
	"time"
)

// OrderStatus represents the order state machine
type OrderStatus string

const (
	OrderStatusPending       OrderStatus = "pending"
	OrderStatusProcessing    OrderStatus = "processing"
	OrderStatusShipped       OrderStatus = "shipped"
	OrderStatusDelivered     OrderStatus = "delivered"
	OrderStatusCancelled     OrderStatus = "cancelled"
	OrderStatusRefunded      OrderStatus = "refunded"
	OrderStatusPaymentFailed OrderStatus = "payment_failed"
	OrderStatusOnHold        OrderStatus = "on_hold"
)

// IsValidOrderStatus checks enum membership
func IsValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded,
		OrderStatusPaymentFailed, OrderStatusOnHold:
		return true
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusRefunded || s == OrderStatusDelivered
}

// CanCancel reports whether an order in this status may still be cancelled
func (s OrderStatus) CanCancel() bool {
	switch s {
	case OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return false
	}
	return true
}

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// IsValidPaymentStatus checks enum membership
func IsValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// ShippingStatus represents the shipping state of an order
type ShippingStatus string

const (
	ShippingStatusPending   ShippingStatus = "pending"
	ShippingStatusShipped   ShippingStatus = "shipped"
	ShippingStatusDelivered ShippingStatus = "delivered"
)

// OrderItem is an immutable snapshot of a product at purchase time
type OrderItem struct {
	ID                        string  `json:"id" db:"id"`
	OrderID                   string  `json:"-" db:"order_id"`
	ProductID                 string  `json:"productId" db:"product_id"`
	Name                      string  `json:"name" db:"name"`
	PriceAtPurchase           float64 `json:"priceAtPurchase" db:"price_at_purchase"`
	Quantity                  int     `json:"quantity" db:"quantity"`
	SelectedVariation         string  `json:"selectedVariation,omitempty" db:"selected_variation"`
	ImageURL                  *string `json:"imageUrl,omitempty" db:"image_url"`
	DiscountPercentageApplied float64 `json:"discountPercentageApplied" db:"discount_percentage_applied"`
}

// LineTotal returns the snapshot price times quantity
func (oi *OrderItem) LineTotal() float64 {
	return oi.PriceAtPurchase * float64(oi.Quantity)
}

// OrderAddress is the address snapshot embedded in an order
type OrderAddress struct {
	PostalCode     string  `json:"postalCode" binding:"required"`
	Street         string  `json:"street" binding:"required"`
	ExternalNumber *string `json:"externalNumber,omitempty"`
	InternalNumber *string `json:"internalNumber,omitempty"`
	Neighborhood   *string `json:"neighborhood,omitempty"`
	City           string  `json:"city" binding:"required"`
	State          string  `json:"state" binding:"required"`
	Country        string  `json:"country" binding:"required"`
}

// ToJSON serializes the address snapshot for storage
func (a OrderAddress) ToJSON() (string, error) {
	data, err := json.Marshal(a)
	return string(data), err
}

// OrderAddressFromJSON deserializes a stored address snapshot
func OrderAddressFromJSON(data string) (OrderAddress, error) {
	var a OrderAddress
	err := json.Unmarshal([]byte(data), &a)
	return a, err
}

// PaymentDetails holds the payment reference captured at checkout. Never raw
// card data; only the gateway transaction id and the method type.
type PaymentDetails struct {
	Type          PaymentType `json:"type"`
	TransactionID string      `json:"transactionId"`
}

// Order represents an immutable order snapshot
type Order struct {
	ID                    string         `json:"id" db:"id"`
	UserID                string         `json:"userId" db:"user_id"`
	Items                 []OrderItem    `json:"items"`
	Subtotal              float64        `json:"subtotal" db:"subtotal"`
	ShippingCost          float64        `json:"shippingCost" db:"shipping_cost"`
	TaxAmount             float64        `json:"taxAmount" db:"tax_amount"`
	DiscountAmount        float64        `json:"discountAmount" db:"discount_amount"`
	TotalAmount           float64        `json:"totalAmount" db:"total_amount"`
	Currency              string         `json:"currency" db:"currency"`
	OrderStatus           OrderStatus    `json:"orderStatus" db:"order_status"`
	PaymentStatus         PaymentStatus  `json:"paymentStatus" db:"payment_status"`
	ShippingStatus        ShippingStatus `json:"shippingStatus" db:"shipping_status"`
	ShippingAddress       OrderAddress   `json:"shippingAddress"`
	BillingAddress        OrderAddress   `json:"billingAddress"`
	PaymentDetails        PaymentDetails `json:"paymentDetails"`
	TrackingNumber        *string        `json:"trackingNumber,omitempty" db:"tracking_number"`
	ShippingProvider      *string        `json:"shippingProvider,omitempty" db:"shipping_provider"`
	EstimatedDeliveryDate *time.Time     `json:"estimatedDeliveryDate,omitempty" db:"estimated_delivery_date"`
	Notes                 *string        `json:"notes,omitempty" db:"notes"`
	ShippedAt             *time.Time     `json:"shippedAt,omitempty" db:"shipped_at"`
	DeliveredAt           *time.Time     `json:"deliveredAt,omitempty" db:"delivered_at"`
	CancelledAt           *time.Time     `json:"cancelledAt,omitempty" db:"cancelled_at"`
	RefundedAt            *time.Time     `json:"refundedAt,omitempty" db:"refunded_at"`
	CreatedAt             time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt             time.Time      `json:"updatedAt" db:"updated_at"`
}

// OrderItemInput is a requested line in a new order
type OrderItemInput struct {
	ProductID         string `json:"productId" binding:"required"`
	Quantity          int    `json:"quantity" binding:"required,gte=1"`
	SelectedVariation string `json:"selectedVariation"`
}

// OrderPaymentInput describes how the client wants to pay. Gateway tokens are
// opaque references generated client-side; raw card data is never accepted.
type OrderPaymentInput struct {
	Type                PaymentType `json:"type" binding:"required"`
	PaymentGatewayToken string      `json:"paymentGatewayToken"`
}

// OrderCreation is the full payload for creating an order
type OrderCreation struct {
	Items           []OrderItemInput  `json:"items" binding:"required,min=1,dive"`
	ShippingAddress OrderAddress      `json:"shippingAddress" binding:"required"`
	BillingAddress  *OrderAddress     `json:"billingAddress,omitempty"`
	PaymentMethod   OrderPaymentInput `json:"paymentMethod" binding:"required"`
	ShippingCost    float64           `json:"shippingCost" binding:"gte=0"`
	TaxAmount       float64           `json:"taxAmount" binding:"gte=0"`
	DiscountAmount  float64           `json:"discountAmount" binding:"gte=0"`
}

// OrderFilters represents staff listing filters
type OrderFilters struct {
	Status *OrderStatus
	UserID *string
}
