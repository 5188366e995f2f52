package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ratacueva-backend/internal/apperrors"
	"ratacueva-backend/internal/models"
)

// ReviewService handles product reviews. Every mutation recomputes the
// product's aggregate rating in the same transaction so the catalog never
// shows a stale average.
type ReviewService struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(db *sql.DB, logger *zap.Logger) *ReviewService {
	return &ReviewService{db: db, logger: logger}
}

// CreateReview creates a review for a product. One review per user per
// product; the reviewer's display name is snapshotted at creation time.
func (s *ReviewService) CreateReview(userID string, creation *models.ReviewCreation) (*models.Review, error) {
	if !models.IsValidRating(creation.Rating) {
		return nil, apperrors.BadRequest("La calificación debe estar entre 0.5 y 5 en pasos de 0.5.")
	}

	var user models.User
	err := s.db.QueryRow("SELECT name, last_name FROM users WHERE id = ?", userID).
		Scan(&user.Name, &user.LastName)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to get reviewer: %w", err))
	}

	var exists int
	err = s.db.QueryRow("SELECT COUNT(*) FROM products WHERE id = ?", creation.ProductID).Scan(&exists)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to check product: %w", err))
	}
	if exists == 0 {
		return nil, apperrors.NotFound("Producto no encontrado.")
	}

	err = s.db.QueryRow(
		"SELECT COUNT(*) FROM reviews WHERE user_id = ? AND product_id = ?",
		userID, creation.ProductID,
	).Scan(&exists)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to check existing review: %w", err))
	}
	if exists > 0 {
		return nil, apperrors.Conflict("Ya has reseñado este producto.")
	}

	now := time.Now().UTC()
	review := &models.Review{
		ID:        uuid.New().String(),
		UserID:    userID,
		UserName:  fmt.Sprintf("%s %s", user.Name, user.LastName),
		ProductID: creation.ProductID,
		Text:      creation.Text,
		Images:    creation.Images,
		Videos:    creation.Videos,
		Rating:    creation.Rating,
		CreatedAt: now,
		UpdatedAt: now,
	}

	imagesJSON, err := marshalStringSlice(review.Images)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	videosJSON, err := marshalStringSlice(review.Videos)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO reviews (id, user_id, user_name, product_id, text, images,
			videos, rating, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		review.ID, review.UserID, review.UserName, review.ProductID, review.Text,
		imagesJSON, videosJSON, review.Rating, review.CreatedAt, review.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to create review: %w", err))
	}

	if err := recomputeProductRating(tx, review.ProductID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to commit review: %w", err))
	}
	return review, nil
}

// GetReviewsByProduct lists a product's reviews, newest first
func (s *ReviewService) GetReviewsByProduct(productID string, limit, offset int) ([]*models.Review, int, error) {
	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM reviews WHERE product_id = ?", productID).Scan(&total); err != nil {
		return nil, 0, apperrors.Internal(fmt.Errorf("failed to count reviews: %w", err))
	}

	rows, err := s.db.Query(
		`SELECT id, user_id, user_name, product_id, text, images, videos, rating,
			created_at, updated_at
		FROM reviews WHERE product_id = ?
		ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		productID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Internal(fmt.Errorf("failed to query reviews: %w", err))
	}
	defer rows.Close()

	var reviews []*models.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, 0, apperrors.Internal(err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Internal(fmt.Errorf("error iterating reviews: %w", err))
	}
	return reviews, total, nil
}

// UpdateReview applies a partial update to the author's own review
func (s *ReviewService) UpdateReview(reviewID, userID string, update *models.ReviewUpdate) (*models.Review, error) {
	review, err := s.getOwnedReview(reviewID, userID)
	if err != nil {
		return nil, err
	}

	if update.Rating != nil {
		if !models.IsValidRating(*update.Rating) {
			return nil, apperrors.BadRequest("La calificación debe estar entre 0.5 y 5 en pasos de 0.5.")
		}
		review.Rating = *update.Rating
	}
	if update.Text != nil {
		review.Text = update.Text
	}
	if update.Images != nil {
		review.Images = update.Images
	}
	if update.Videos != nil {
		review.Videos = update.Videos
	}
	review.UpdatedAt = time.Now().UTC()

	imagesJSON, err := marshalStringSlice(review.Images)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	videosJSON, err := marshalStringSlice(review.Videos)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		"UPDATE reviews SET text = ?, images = ?, videos = ?, rating = ?, updated_at = ? WHERE id = ?",
		review.Text, imagesJSON, videosJSON, review.Rating, review.UpdatedAt, reviewID,
	)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to update review: %w", err))
	}

	if err := recomputeProductRating(tx, review.ProductID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to commit review update: %w", err))
	}
	return review, nil
}

// DeleteReview removes a review. The author can delete their own; staff can
// delete any.
func (s *ReviewService) DeleteReview(reviewID, requesterID string, requesterRole models.Role) error {
	var review models.Review
	err := s.db.QueryRow("SELECT id, user_id, product_id FROM reviews WHERE id = ?", reviewID).
		Scan(&review.ID, &review.UserID, &review.ProductID)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperrors.NotFound("Reseña no encontrada.")
		}
		return apperrors.Internal(fmt.Errorf("failed to get review: %w", err))
	}
	if !requesterRole.IsStaff() && review.UserID != requesterID {
		return apperrors.Forbidden("No puedes eliminar reseñas de otros usuarios.")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM reviews WHERE id = ?", reviewID); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to delete review: %w", err))
	}
	if err := recomputeProductRating(tx, review.ProductID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to commit review deletion: %w", err))
	}
	return nil
}

func (s *ReviewService) getOwnedReview(reviewID, userID string) (*models.Review, error) {
	review, err := scanReview(s.db.QueryRow(
		`SELECT id, user_id, user_name, product_id, text, images, videos, rating,
			created_at, updated_at
		FROM reviews WHERE id = ?`, reviewID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("Reseña no encontrada.")
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get review: %w", err))
	}
	if review.UserID != userID {
		return nil, apperrors.Forbidden("No puedes modificar reseñas de otros usuarios.")
	}
	return review, nil
}

func scanReview(row rowScanner) (*models.Review, error) {
	review := &models.Review{}
	var imagesJSON, videosJSON string
	err := row.Scan(&review.ID, &review.UserID, &review.UserName,
		&review.ProductID, &review.Text, &imagesJSON, &videosJSON,
		&review.Rating, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(imagesJSON), &review.Images); err != nil {
		return nil, fmt.Errorf("failed to parse review images: %w", err)
	}
	if err := json.Unmarshal([]byte(videosJSON), &review.Videos); err != nil {
		return nil, fmt.Errorf("failed to parse review videos: %w", err)
	}
	return review, nil
}

func marshalStringSlice(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to serialize list: %w", err)
	}
	return string(data), nil
}

// recomputeProductRating sets the product rating to the review average
// rounded to the nearest half step, or 0 when the last review is gone
func recomputeProductRating(tx *sql.Tx, productID string) error {
	var avg sql.NullFloat64
	if err := tx.QueryRow("SELECT AVG(rating) FROM reviews WHERE product_id = ?", productID).Scan(&avg); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to average ratings: %w", err))
	}

	rating := 0.0
	if avg.Valid {
		rating = math.Round(avg.Float64*2) / 2
	}
	if _, err := tx.Exec(
		"UPDATE products SET rating = ?, updated_at = ? WHERE id = ?",
		rating, time.Now().UTC(), productID,
	); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to update product rating: %w", err))
	}
	return nil
}
