package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ratacueva-backend/internal/models"
	"ratacueva-backend/internal/services"
)

// ReviewHandler exposes product review endpoints
type ReviewHandler struct {
	reviews *services.ReviewService
	logger  *zap.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviews *services.ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: logger}
}

// CreateReview handles POST /api/reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var creation models.ReviewCreation
	if err := c.ShouldBindJSON(&creation); err != nil {
		badRequestBody(c, err)
		return
	}

	review, err := h.reviews.CreateReview(currentUserID(c), &creation)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusCreated, review)
}

// ListProductReviews handles GET /api/products/:productId/reviews
func (h *ReviewHandler) ListProductReviews(c *gin.Context) {
	limit, offset := pagination(c)
	reviews, total, err := h.reviews.GetReviewsByProduct(c.Param("productId"), limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondList(c, reviews, total, limit, offset)
}

// UpdateReview handles PUT /api/reviews/:reviewId
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	var update models.ReviewUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequestBody(c, err)
		return
	}

	review, err := h.reviews.UpdateReview(c.Param("reviewId"), currentUserID(c), &update)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, review)
}

// DeleteReview handles DELETE /api/reviews/:reviewId
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	if err := h.reviews.DeleteReview(c.Param("reviewId"), currentUserID(c), currentUserRole(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, "Reseña eliminada correctamente.")
}
