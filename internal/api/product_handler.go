package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ratacueva-backend/internal/apperrors"
	"ratacueva-backend/internal/models"
	"ratacueva-backend/internal/services"
)

// ProductHandler exposes the public catalog and its admin operations
type ProductHandler struct {
	products *services.ProductService
	logger   *zap.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(products *services.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{products: products, logger: logger}
}

// ListProducts handles GET /api/products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	filters := models.ProductFilters{}
	if v := c.Query("section"); v != "" {
		filters.Section = &v
	}
	if v := c.Query("category"); v != "" {
		filters.Category = &v
	}
	if v := c.Query("subcategory"); v != "" {
		filters.Subcategory = &v
	}
	if v := c.Query("brand"); v != "" {
		filters.Brand = &v
	}
	if v := c.Query("search"); v != "" {
		filters.Search = &v
	}
	if v := c.Query("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err == nil {
			filters.Featured = &featured
		}
	}
	if v := c.Query("new"); v != "" {
		isNew, err := strconv.ParseBool(v)
		if err == nil {
			filters.New = &isNew
		}
	}
	if v := c.Query("minPrice"); v != "" {
		minPrice, err := strconv.ParseFloat(v, 64)
		if err != nil || minPrice < 0 {
			respondError(c, h.logger, apperrors.BadRequest("El precio mínimo es inválido."))
			return
		}
		filters.MinPrice = &minPrice
	}
	if v := c.Query("maxPrice"); v != "" {
		maxPrice, err := strconv.ParseFloat(v, 64)
		if err != nil || maxPrice < 0 {
			respondError(c, h.logger, apperrors.BadRequest("El precio máximo es inválido."))
			return
		}
		filters.MaxPrice = &maxPrice
	}

	limit, offset := pagination(c)
	products, total, err := h.products.ListProducts(filters, limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondList(c, products, total, limit, offset)
}

// GetProduct handles GET /api/products/:productId
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.products.GetProductByID(c.Param("productId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, product)
}

// CreateProduct handles POST /api/products (staff)
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var creation models.ProductCreation
	if err := c.ShouldBindJSON(&creation); err != nil {
		badRequestBody(c, err)
		return
	}

	product, err := h.products.CreateProduct(&creation)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/products/:productId (staff)
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var update models.ProductUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequestBody(c, err)
		return
	}

	product, err := h.products.UpdateProduct(c.Param("productId"), &update)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, product)
}

// UpdateStock handles PATCH /api/products/:productId/stock (staff)
func (h *ProductHandler) UpdateStock(c *gin.Context) {
	var body struct {
		Stock *int `json:"stock" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequestBody(c, err)
		return
	}

	product, err := h.products.UpdateStock(c.Param("productId"), *body.Stock)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, product)
}

// UpdateDiscount handles PATCH /api/products/:productId/discount (staff)
func (h *ProductHandler) UpdateDiscount(c *gin.Context) {
	var body struct {
		DiscountPercentage *float64 `json:"discountPercentage" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequestBody(c, err)
		return
	}

	product, err := h.products.UpdateDiscount(c.Param("productId"), *body.DiscountPercentage)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, product)
}

// SetFeatured handles PATCH /api/products/:productId/featured (staff)
func (h *ProductHandler) SetFeatured(c *gin.Context) {
	var body struct {
		Featured *bool `json:"featured" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequestBody(c, err)
		return
	}

	product, err := h.products.SetFeatured(c.Param("productId"), *body.Featured)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, product)
}

// SetNewProduct handles PATCH /api/products/:productId/new (staff)
func (h *ProductHandler) SetNewProduct(c *gin.Context) {
	var body struct {
		New *bool `json:"new" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequestBody(c, err)
		return
	}

	product, err := h.products.SetNewProduct(c.Param("productId"), *body.New)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/:productId (staff)
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.products.DeleteProduct(c.Param("productId")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, "Producto eliminado correctamente.")
}
