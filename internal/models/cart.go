package models

import "time"

// Cart represents a user's cart. One cart per user; created lazily on first add.
type Cart struct {
	ID        string     `json:"id" db:"id"`
	UserID    string     `json:"userId" db:"user_id"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
}

// TotalAmount returns the sum of line totals at their captured prices
func (c *Cart) TotalAmount() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.PriceAtAddition * float64(item.Quantity)
	}
	return total
}

// CartItem represents a line in a cart. The same product may appear in
// multiple lines with different variations.
type CartItem struct {
	ID                string    `json:"id" db:"id"`
	CartID            string    `json:"-" db:"cart_id"`
	ProductID         string    `json:"productId" db:"product_id"`
	Quantity          int       `json:"quantity" db:"quantity"`
	PriceAtAddition   float64   `json:"priceAtAddition" db:"price_at_addition"`
	SelectedVariation string    `json:"selectedVariation,omitempty" db:"selected_variation"`
	AddedAt           time.Time `json:"addedAt" db:"added_at"`

	// Joined data (populated when needed)
	Product *Product `json:"product,omitempty"`
}

// AddToCartInput represents data for adding a product to the cart
type AddToCartInput struct {
	ProductID         string `json:"productId" binding:"required"`
	Quantity          int    `json:"quantity" binding:"required,gte=1"`
	SelectedVariation string `json:"selectedVariation"`
}

// UpdateCartItemInput represents data for updating a cart line
type UpdateCartItemInput struct {
	Quantity          *int    `json:"quantity,omitempty"`
	SelectedVariation *string `json:"selectedVariation,omitempty"`
}

// SyncCartItem represents a client-side cart line reconciled on login
type SyncCartItem struct {
	ProductID         string `json:"productId"`
	Quantity          int    `json:"quantity"`
	SelectedVariation string `json:"selectedVariation"`
}
