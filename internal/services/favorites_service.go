package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ratacueva-backend/internal/apperrors"
	"ratacueva-backend/internal/models"
)

// FavoritesService manages each user's favorite products
type FavoritesService struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewFavoritesService creates a new favorites service
func NewFavoritesService(db *sql.DB, logger *zap.Logger) *FavoritesService {
	return &FavoritesService{db: db, logger: logger}
}

// AddFavorite marks a product as favorite. Adding an already-favorited
// product is a Conflict.
func (s *FavoritesService) AddFavorite(userID, productID string) error {
	var exists int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM products WHERE id = ?", productID).Scan(&exists); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to check product: %w", err))
	}
	if exists == 0 {
		return apperrors.NotFound("Producto no encontrado.")
	}

	_, err := s.db.Exec(
		"INSERT INTO favorites (user_id, product_id, added_at) VALUES (?, ?, ?)",
		userID, productID, time.Now().UTC(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "PRIMARY") {
			return apperrors.Conflict("El producto ya está en tus favoritos.")
		}
		return apperrors.Internal(fmt.Errorf("failed to add favorite: %w", err))
	}
	return nil
}

// RemoveFavorite unmarks a product. Removing a product that is not a favorite
// is a no-op.
func (s *FavoritesService) RemoveFavorite(userID, productID string) error {
	if _, err := s.db.Exec(
		"DELETE FROM favorites WHERE user_id = ? AND product_id = ?",
		userID, productID,
	); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to remove favorite: %w", err))
	}
	return nil
}

// ListFavorites returns the user's favorite products, most recently added
// first. Products removed from the catalog silently drop out of the list.
func (s *FavoritesService) ListFavorites(userID string, limit, offset int) ([]*models.Product, int, error) {
	var total int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM favorites f
		INNER JOIN products p ON f.product_id = p.id
		WHERE f.user_id = ?`, userID).Scan(&total)
	if err != nil {
		return nil, 0, apperrors.Internal(fmt.Errorf("failed to count favorites: %w", err))
	}

	query := `SELECT p.id, p.name, p.description, p.price, p.stock, p.brand,
			p.images, p.videos, p.section, p.category, p.subcategory, p.specs,
			p.discount_percentage, p.rating, p.is_featured, p.is_new,
			p.created_at, p.updated_at
		FROM favorites f
		INNER JOIN products p ON f.product_id = p.id
		WHERE f.user_id = ?
		ORDER BY f.added_at DESC LIMIT ? OFFSET ?`

	rows, err := s.db.Query(query, userID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Internal(fmt.Errorf("failed to query favorites: %w", err))
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, apperrors.Internal(fmt.Errorf("failed to scan favorite: %w", err))
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Internal(fmt.Errorf("error iterating favorites: %w", err))
	}
	return products, total, nil
}

// IsFavorite reports whether the product is in the user's favorites
func (s *FavoritesService) IsFavorite(userID, productID string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM favorites WHERE user_id = ? AND product_id = ?",
		userID, productID).Scan(&count)
	if err != nil {
		return false, apperrors.Internal(fmt.Errorf("failed to check favorite: %w", err))
	}
	return count > 0, nil
}
