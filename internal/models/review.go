package models

import "time"

// Review represents a product review. The reviewer's name is snapshotted so
// later profile renames don't rewrite review history.
type Review struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	UserName  string    `json:"userName" db:"user_name"`
	ProductID string    `json:"productId" db:"product_id"`
	Text      *string   `json:"text,omitempty" db:"text"`
	Images    []string  `json:"images" db:"images"`
	Videos    []string  `json:"videos" db:"videos"`
	Rating    float64   `json:"rating" db:"rating"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// IsValidRating checks the rating is a half-step value in [0.5, 5]
func IsValidRating(rating float64) bool {
	if rating < 0.5 || rating > 5 {
		return false
	}
	return rating*2 == float64(int(rating*2))
}

// ReviewCreation represents data for creating a review
type ReviewCreation struct {
	ProductID string   `json:"productId" binding:"required"`
	Text      *string  `json:"text,omitempty" binding:"omitempty,max=1000"`
	Images    []string `json:"images"`
	Videos    []string `json:"videos"`
	Rating    float64  `json:"rating" binding:"required"`
}

// ReviewUpdate represents data for updating a review
type ReviewUpdate struct {
	Text   *string  `json:"text,omitempty" binding:"omitempty,max=1000"`
	Images []string `json:"images,omitempty"`
	Videos []string `json:"videos,omitempty"`
	Rating *float64 `json:"rating,omitempty"`
}
