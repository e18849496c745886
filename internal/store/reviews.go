package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/models"
)

// CreateReview inserts a review. A second review by the same user for the
// same product returns ErrDuplicate.
func (s *Store) CreateReview(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (user_id, product_id, rating, title, body, is_verified_purchase)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := s.db.QueryRowxContext(ctx, query,
		review.UserID, review.ProductID, review.Rating, review.Title, review.Body, review.IsVerifiedPurchase,
	).Scan(&review.ID, &review.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetReviewByID retrieves a review, nil when missing
func (s *Store) GetReviewByID(ctx context.Context, id int64) (*models.Review, error) {
	var review models.Review
	err := s.db.GetContext(ctx, &review, `
		SELECT id, user_id, product_id, rating, title, body, is_verified_purchase, created_at
		FROM reviews WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// GetReviewsByProductID lists reviews of a product, newest first
func (s *Store) GetReviewsByProductID(ctx context.Context, productID int64) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.SelectContext(ctx, &reviews, `
		SELECT id, user_id, product_id, rating, title, body, is_verified_purchase, created_at
		FROM reviews WHERE product_id = $1 ORDER BY created_at DESC, id DESC`, productID)
	return reviews, err
}

// DeleteReview removes a review
func (s *Store) DeleteReview(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM reviews WHERE id = $1", id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("review not found: %d", id)
	}
	return nil
}
