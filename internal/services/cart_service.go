package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ratacueva-backend/internal/apperrors"
	"ratacueva-backend/internal/models"
)

// CartService handles cart business logic. Stock is checked opportunistically
// at mutation time, not reserved; concurrent mutations are last-write-wins.
type CartService struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(db *sql.DB, logger *zap.Logger) *CartService {
	return &CartService{db: db, logger: logger}
}

// GetCart retrieves the user's cart with items resolved against current
// product data. Fails NotFound if the cart is absent or empty.
func (s *CartService) GetCart(userID string) (*models.Cart, error) {
	cart, err := s.findCart(userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, apperrors.NotFound("No hay artículos en tu carrito.")
	}

	query := `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.price_at_addition,
			   ci.selected_variation, ci.added_at,
			   p.id, p.name, p.description, p.price, p.stock, p.brand, p.images,
			   p.videos, p.section, p.category, p.subcategory, p.specs,
			   p.discount_percentage, p.rating, p.is_featured, p.is_new,
			   p.created_at, p.updated_at
		FROM cart_items ci
		INNER JOIN products p ON ci.product_id = p.id
		WHERE ci.cart_id = ?
		ORDER BY ci.added_at ASC
	`
	rows, err := s.db.Query(query, cart.ID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to query cart items: %w", err))
	}
	defer rows.Close()

	for rows.Next() {
		var item models.CartItem
		product := &models.Product{}
		var imagesJSON, videosJSON, specsJSON string

		err := rows.Scan(
			&item.ID, &item.CartID, &item.ProductID, &item.Quantity,
			&item.PriceAtAddition, &item.SelectedVariation, &item.AddedAt,
			&product.ID, &product.Name, &product.Description, &product.Price,
			&product.Stock, &product.Brand, &imagesJSON, &videosJSON,
			&product.Section, &product.Category, &product.Subcategory, &specsJSON,
			&product.DiscountPercentage, &product.Rating, &product.IsFeatured,
			&product.IsNewProduct, &product.CreatedAt, &product.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to scan cart item: %w", err))
		}
		if err := product.SetImagesFromJSON(imagesJSON); err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to parse product images: %w", err))
		}
		if err := product.SetVideosFromJSON(videosJSON); err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to parse product videos: %w", err))
		}
		if err := product.SetSpecsFromJSON(specsJSON); err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to parse product specs: %w", err))
		}
		item.Product = product
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("error iterating cart items: %w", err))
	}

	if len(cart.Items) == 0 {
		return nil, apperrors.NotFound("No hay artículos en tu carrito.")
	}
	return cart, nil
}

// AddItem adds a product to the user's cart, merging with an existing line
// that shares the same product and variation
func (s *CartService) AddItem(userID, productID string, quantity int, selectedVariation string) (*models.Cart, error) {
	var product models.Product
	err := s.db.QueryRow("SELECT id, name, price, stock FROM products WHERE id = ?", productID).
		Scan(&product.ID, &product.Name, &product.Price, &product.Stock)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("Producto no disponible.")
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get product: %w", err))
	}

	if product.Stock < quantity {
		return nil, apperrors.BadRequest("No hay suficiente stock disponible. Solo quedan %d unidades.", product.Stock)
	}

	cart, err := s.ensureCart(userID)
	if err != nil {
		return nil, err
	}

	var existingID string
	var existingQuantity int
	err = s.db.QueryRow(
		"SELECT id, quantity FROM cart_items WHERE cart_id = ? AND product_id = ? AND selected_variation = ?",
		cart.ID, productID, selectedVariation,
	).Scan(&existingID, &existingQuantity)

	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.Exec(
			"INSERT INTO cart_items (id, cart_id, product_id, quantity, price_at_addition, selected_variation, added_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			uuid.New().String(), cart.ID, productID, quantity, product.Price, selectedVariation, time.Now().UTC(),
		)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to add cart item: %w", err))
		}
	case err == nil:
		newQuantity := existingQuantity + quantity
		if product.Stock < newQuantity {
			return nil, apperrors.BadRequest("No puedes añadir más. Solo quedan %d unidades de este producto.", product.Stock)
		}
		_, err = s.db.Exec("UPDATE cart_items SET quantity = ? WHERE id = ?", newQuantity, existingID)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to update cart item: %w", err))
		}
	default:
		return nil, apperrors.Internal(fmt.Errorf("failed to check cart: %w", err))
	}

	if err := s.touchCart(cart.ID); err != nil {
		return nil, err
	}
	return s.GetCart(userID)
}

// UpdateItem updates the quantity and/or variation of a cart line,
// re-validating against live stock. If the underlying product no longer
// exists the orphaned line is removed and NotFound is reported.
func (s *CartService) UpdateItem(userID, itemID string, input *models.UpdateCartItemInput) (*models.Cart, error) {
	cart, err := s.findCart(userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, apperrors.NotFound("Carrito no encontrado.")
	}

	var productID string
	err = s.db.QueryRow("SELECT product_id FROM cart_items WHERE id = ? AND cart_id = ?", itemID, cart.ID).Scan(&productID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("Producto no encontrado en el carrito.")
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get cart item: %w", err))
	}

	if input.Quantity != nil {
		if *input.Quantity < 1 {
			return nil, apperrors.BadRequest("La cantidad debe ser al menos 1.")
		}

		var stock int
		err := s.db.QueryRow("SELECT stock FROM products WHERE id = ?", productID).Scan(&stock)
		if err == sql.ErrNoRows {
			// Orphaned line: the product was removed from the catalog
			if _, delErr := s.db.Exec("DELETE FROM cart_items WHERE id = ?", itemID); delErr != nil {
				return nil, apperrors.Internal(fmt.Errorf("failed to remove orphaned cart item: %w", delErr))
			}
			return nil, apperrors.NotFound("Producto asociado al ítem ya no disponible. Ítem eliminado del carrito.")
		}
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to get product stock: %w", err))
		}
		if stock < *input.Quantity {
			return nil, apperrors.BadRequest("No hay suficiente stock disponible. Solo quedan %d unidades.", stock)
		}

		if _, err := s.db.Exec("UPDATE cart_items SET quantity = ? WHERE id = ?", *input.Quantity, itemID); err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to update cart item: %w", err))
		}
	}

	if input.SelectedVariation != nil {
		if _, err := s.db.Exec("UPDATE cart_items SET selected_variation = ? WHERE id = ?", *input.SelectedVariation, itemID); err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to update cart item variation: %w", err))
		}
	}

	if err := s.touchCart(cart.ID); err != nil {
		return nil, err
	}
	return s.GetCart(userID)
}

// RemoveItem removes a line from the cart. Removing a nonexistent line is a
// no-op.
func (s *CartService) RemoveItem(userID, itemID string) error {
	cart, err := s.findCart(userID)
	if err != nil {
		return err
	}
	if cart == nil {
		return nil
	}
	if _, err := s.db.Exec("DELETE FROM cart_items WHERE id = ? AND cart_id = ?", itemID, cart.ID); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to remove cart item: %w", err))
	}
	return s.touchCart(cart.ID)
}

// ClearCart removes every line from the cart. Clearing an absent or empty
// cart is a no-op.
func (s *CartService) ClearCart(userID string) error {
	cart, err := s.findCart(userID)
	if err != nil {
		return err
	}
	if cart == nil {
		return nil
	}
	if _, err := s.db.Exec("DELETE FROM cart_items WHERE cart_id = ?", cart.ID); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to clear cart: %w", err))
	}
	return s.touchCart(cart.ID)
}

// SyncCart reconciles a client-supplied item list (e.g. pre-login local
// storage) into the server cart. Invalid or missing products are skipped with
// a warning; quantities exceeding stock are clamped, never rejected.
func (s *CartService) SyncCart(userID string, localItems []models.SyncCartItem) (*models.Cart, error) {
	cart, err := s.ensureCart(userID)
	if err != nil {
		return nil, err
	}

	for _, localItem := range localItems {
		if localItem.ProductID == "" || localItem.Quantity < 1 {
			s.logger.Warn("cart sync: invalid item skipped",
				zap.String("userId", userID),
				zap.String("productId", localItem.ProductID))
			continue
		}

		var price float64
		var stock int
		err := s.db.QueryRow("SELECT price, stock FROM products WHERE id = ?", localItem.ProductID).Scan(&price, &stock)
		if err == sql.ErrNoRows {
			s.logger.Warn("cart sync: product not found, item skipped",
				zap.String("userId", userID),
				zap.String("productId", localItem.ProductID))
			continue
		}
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to get product for sync: %w", err))
		}

		quantityToAdd := localItem.Quantity
		if stock < quantityToAdd {
			quantityToAdd = stock
			s.logger.Warn("cart sync: quantity clamped to available stock",
				zap.String("productId", localItem.ProductID),
				zap.Int("clamped", quantityToAdd))
		}
		if quantityToAdd <= 0 {
			continue
		}

		var existingID string
		var existingQuantity int
		err = s.db.QueryRow(
			"SELECT id, quantity FROM cart_items WHERE cart_id = ? AND product_id = ? AND selected_variation = ?",
			cart.ID, localItem.ProductID, localItem.SelectedVariation,
		).Scan(&existingID, &existingQuantity)

		switch {
		case err == sql.ErrNoRows:
			_, err = s.db.Exec(
				"INSERT INTO cart_items (id, cart_id, product_id, quantity, price_at_addition, selected_variation, added_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
				uuid.New().String(), cart.ID, localItem.ProductID, quantityToAdd, price, localItem.SelectedVariation, time.Now().UTC(),
			)
			if err != nil {
				return nil, apperrors.Internal(fmt.Errorf("failed to insert synced item: %w", err))
			}
		case err == nil:
			newQuantity := existingQuantity + quantityToAdd
			if stock < newQuantity {
				newQuantity = stock
			}
			if _, err := s.db.Exec("UPDATE cart_items SET quantity = ? WHERE id = ?", newQuantity, existingID); err != nil {
				return nil, apperrors.Internal(fmt.Errorf("failed to merge synced item: %w", err))
			}
		default:
			return nil, apperrors.Internal(fmt.Errorf("failed to check cart during sync: %w", err))
		}
	}

	if err := s.touchCart(cart.ID); err != nil {
		return nil, err
	}
	return s.GetCart(userID)
}

// findCart returns the user's cart without items, or nil if none exists
func (s *CartService) findCart(userID string) (*models.Cart, error) {
	cart := &models.Cart{}
	err := s.db.QueryRow("SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = ?", userID).
		Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to get cart: %w", err))
	}
	return cart, nil
}

// ensureCart returns the user's cart, creating it lazily on first use
func (s *CartService) ensureCart(userID string) (*models.Cart, error) {
	cart, err := s.findCart(userID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}

	now := time.Now().UTC()
	cart = &models.Cart{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.db.Exec(
		"INSERT INTO carts (id, user_id, created_at, updated_at) VALUES (?, ?, ?, ?)",
		cart.ID, cart.UserID, cart.CreatedAt, cart.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to create cart: %w", err))
	}
	return cart, nil
}

func (s *CartService) touchCart(cartID string) error {
	if _, err := s.db.Exec("UPDATE carts SET updated_at = ? WHERE id = ?", time.Now().UTC(), cartID); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to touch cart: %w", err))
	}
	return nil
}
