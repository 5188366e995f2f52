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

// ProductService handles catalog business logic
type ProductService struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(db *sql.DB, logger *zap.Logger) *ProductService {
	return &ProductService{db: db, logger: logger}
}

const productColumns = `id, name, description, price, stock, brand, images, videos,
	section, category, subcategory, specs, discount_percentage, rating,
	is_featured, is_new, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	product := &models.Product{}
	var imagesJSON, videosJSON, specsJSON string

	err := row.Scan(
		&product.ID, &product.Name, &product.Description, &product.Price,
		&product.Stock, &product.Brand, &imagesJSON, &videosJSON,
		&product.Section, &product.Category, &product.Subcategory, &specsJSON,
		&product.DiscountPercentage, &product.Rating, &product.IsFeatured,
		&product.IsNewProduct, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := product.SetImagesFromJSON(imagesJSON); err != nil {
		return nil, fmt.Errorf("failed to parse images: %w", err)
	}
	if err := product.SetVideosFromJSON(videosJSON); err != nil {
		return nil, fmt.Errorf("failed to parse videos: %w", err)
	}
	if err := product.SetSpecsFromJSON(specsJSON); err != nil {
		return nil, fmt.Errorf("failed to parse specs: %w", err)
	}
	return product, nil
}

// CreateProduct creates a new catalog product
func (s *ProductService) CreateProduct(creation *models.ProductCreation) (*models.Product, error) {
	product := &models.Product{
		ID:                 uuid.New().String(),
		Name:               creation.Name,
		Description:        creation.Description,
		Price:              creation.Price,
		Stock:              creation.Stock,
		Brand:              creation.Brand,
		Images:             creation.Images,
		Videos:             creation.Videos,
		Section:            creation.Section,
		Category:           creation.Category,
		Subcategory:        creation.Subcategory,
		Specs:              creation.Specs,
		DiscountPercentage: creation.DiscountPercentage,
		Rating:             0,
		CreatedAt:          time.Now().UTC(),
		UpdatedAt:          time.Now().UTC(),
	}

	imagesJSON, err := product.GetImagesJSON()
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to serialize images: %w", err))
	}
	videosJSON, err := product.GetVideosJSON()
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to serialize videos: %w", err))
	}
	specsJSON, err := product.GetSpecsJSON()
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to serialize specs: %w", err))
	}

	query := `
		INSERT INTO products (
			id, name, description, price, stock, brand, images, videos, section,
			category, subcategory, specs, discount_percentage, rating,
			is_featured, is_new, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.Exec(query,
		product.ID, product.Name, product.Description, product.Price,
		product.Stock, product.Brand, imagesJSON, videosJSON, product.Section,
		product.Category, product.Subcategory, specsJSON,
		product.DiscountPercentage, product.Rating, product.IsFeatured,
		product.IsNewProduct, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to create product: %w", err))
	}

	return product, nil
}

// GetProductByID retrieves a product by ID
func (s *ProductService) GetProductByID(productID string) (*models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE id = ?"
	product, err := scanProduct(s.db.QueryRow(query, productID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("Producto no encontrado.")
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get product: %w", err))
	}
	return product, nil
}

// ListProducts retrieves products with filters and pagination
func (s *ProductService) ListProducts(filters models.ProductFilters, limit, offset int) ([]*models.Product, int, error) {
	where := " WHERE 1=1"
	var args []interface{}

	if filters.Section != nil {
		where += " AND section = ?"
		args = append(args, *filters.Section)
	}
	if filters.Category != nil {
		where += " AND category = ?"
		args = append(args, *filters.Category)
	}
	if filters.Subcategory != nil {
		where += " AND subcategory = ?"
		args = append(args, *filters.Subcategory)
	}
	if filters.Brand != nil {
		where += " AND brand = ?"
		args = append(args, *filters.Brand)
	}
	if filters.Search != nil {
		where += " AND (name LIKE ? OR description LIKE ?)"
		searchTerm := "%" + *filters.Search + "%"
		args = append(args, searchTerm, searchTerm)
	}
	if filters.Featured != nil {
		where += " AND is_featured = ?"
		args = append(args, *filters.Featured)
	}
	if filters.New != nil {
		where += " AND is_new = ?"
		args = append(args, *filters.New)
	}
	if filters.MinPrice != nil {
		where += " AND price >= ?"
		args = append(args, *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		where += " AND price <= ?"
		args = append(args, *filters.MaxPrice)
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM products"+where, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.Internal(fmt.Errorf("failed to count products: %w", err))
	}

	query := "SELECT " + productColumns + " FROM products" + where +
		" ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, apperrors.Internal(fmt.Errorf("failed to query products: %w", err))
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, apperrors.Internal(fmt.Errorf("failed to scan product: %w", err))
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Internal(fmt.Errorf("error iterating products: %w", err))
	}

	return products, total, nil
}

// UpdateProduct applies a partial update to a product
func (s *ProductService) UpdateProduct(productID string, update *models.ProductUpdate) (*models.Product, error) {
	product, err := s.GetProductByID(productID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		product.Name = *update.Name
	}
	if update.Description != nil {
		product.Description = *update.Description
	}
	if update.Price != nil {
		if *update.Price <= 0 {
			return nil, apperrors.BadRequest("El precio debe ser mayor que cero.")
		}
		product.Price = *update.Price
	}
	if update.Brand != nil {
		product.Brand = update.Brand
	}
	if update.Images != nil {
		product.Images = update.Images
	}
	if update.Videos != nil {
		product.Videos = update.Videos
	}
	if update.Section != nil {
		product.Section = *update.Section
	}
	if update.Category != nil {
		product.Category = *update.Category
	}
	if update.Subcategory != nil {
		product.Subcategory = update.Subcategory
	}
	if update.Specs != nil {
		product.Specs = update.Specs
	}
	product.UpdatedAt = time.Now().UTC()

	imagesJSON, err := product.GetImagesJSON()
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	videosJSON, err := product.GetVideosJSON()
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	specsJSON, err := product.GetSpecsJSON()
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	query := `
		UPDATE products SET name = ?, description = ?, price = ?, brand = ?,
			images = ?, videos = ?, section = ?, category = ?, subcategory = ?,
			specs = ?, updated_at = ?
		WHERE id = ?
	`
	_, err = s.db.Exec(query,
		product.Name, product.Description, product.Price, product.Brand,
		imagesJSON, videosJSON, product.Section, product.Category,
		product.Subcategory, specsJSON, product.UpdatedAt, productID,
	)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to update product: %w", err))
	}

	return product, nil
}

// UpdateStock sets the absolute stock of a product (admin operation)
func (s *ProductService) UpdateStock(productID string, stock int) (*models.Product, error) {
	if stock < 0 {
		return nil, apperrors.BadRequest("El stock no puede ser negativo.")
	}
	if err := s.execOnProduct(productID, "UPDATE products SET stock = ?, updated_at = ? WHERE id = ?", stock, time.Now().UTC(), productID); err != nil {
		return nil, err
	}
	return s.GetProductByID(productID)
}

// UpdateDiscount sets the discount percentage of a product
func (s *ProductService) UpdateDiscount(productID string, discountPercentage float64) (*models.Product, error) {
	if discountPercentage < 0 || discountPercentage > 100 {
		return nil, apperrors.BadRequest("El descuento debe estar entre 0 y 100.")
	}
	if err := s.execOnProduct(productID, "UPDATE products SET discount_percentage = ?, updated_at = ? WHERE id = ?", discountPercentage, time.Now().UTC(), productID); err != nil {
		return nil, err
	}
	return s.GetProductByID(productID)
}

// SetFeatured toggles the featured flag
func (s *ProductService) SetFeatured(productID string, featured bool) (*models.Product, error) {
	if err := s.execOnProduct(productID, "UPDATE products SET is_featured = ?, updated_at = ? WHERE id = ?", featured, time.Now().UTC(), productID); err != nil {
		return nil, err
	}
	return s.GetProductByID(productID)
}

// SetNewProduct toggles the new-product flag
func (s *ProductService) SetNewProduct(productID string, isNew bool) (*models.Product, error) {
	if err := s.execOnProduct(productID, "UPDATE products SET is_new = ?, updated_at = ? WHERE id = ?", isNew, time.Now().UTC(), productID); err != nil {
		return nil, err
	}
	return s.GetProductByID(productID)
}

// DeleteProduct removes a product from the catalog
func (s *ProductService) DeleteProduct(productID string) error {
	result, err := s.db.Exec("DELETE FROM products WHERE id = ?", productID)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to delete product: %w", err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Internal(err)
	}
	if rowsAffected == 0 {
		return apperrors.NotFound("Producto no encontrado.")
	}
	return nil
}

func (s *ProductService) execOnProduct(productID, query string, args ...interface{}) error {
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to update product: %w", err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Internal(err)
	}
	if rowsAffected == 0 {
		return apperrors.NotFound("Producto no encontrado.")
	}
	return nil
}
