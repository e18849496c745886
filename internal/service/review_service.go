package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"go.uber.org/zap"
)

const (
	maxReviewTitle = 100
	maxReviewBody  = 500
)

var (
	ErrReviewNotFound  = apperr.NotFound("review_not_found", "Review not found")
	ErrAlreadyReviewed = apperr.BusinessRule("already_reviewed", "You have already reviewed this product")
	ErrInvalidRating   = apperr.Validation("invalid_rating", "Rating must be between 1 and 5")
)

// ReviewStore persists reviews and product ratings
type ReviewStore interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	HasPurchased(ctx context.Context, userID, productID int64) (bool, error)
	CreateReview(ctx context.Context, review *models.Review) error
	GetReviewByID(ctx context.Context, id int64) (*models.Review, error)
	GetReviewsByProductID(ctx context.Context, productID int64) ([]models.Review, error)
	DeleteReview(ctx context.Context, id int64) error
	ProductRatingStats(ctx context.Context, productID int64) (float64, int, error)
	UpdateProductRating(ctx context.Context, productID int64, average float64, count int) error
}

// ReviewService handles product reviews and the derived product rating
type ReviewService struct {
	store  ReviewStore
	logger *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(store ReviewStore) *ReviewService {
	return &ReviewService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// CreateReviewRequest is a new review for a product
type CreateReviewRequest struct {
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	Title  string `json:"title"`
	Review string `json:"review"`
}

// RoundRating rounds an average rating to one decimal place
func RoundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}

// CreateReview stores a review and refreshes the product rating. A failed
// refresh is logged and does not fail the request.
func (rs *ReviewService) CreateReview(ctx context.Context, userID, productID int64, req *CreateReviewRequest) (*models.Review, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.CreateReview")
	defer span.End()

	title := strings.TrimSpace(req.Title)
	body := strings.TrimSpace(req.Review)
	switch {
	case req.Rating < 1 || req.Rating > 5:
		return nil, ErrInvalidRating
	case utf8.RuneCountInString(title) > maxReviewTitle:
		return nil, apperr.Validation("title_too_long", fmt.Sprintf("Title must be at most %d characters", maxReviewTitle))
	case utf8.RuneCountInString(body) > maxReviewBody:
		return nil, apperr.Validation("review_too_long", fmt.Sprintf("Review must be at most %d characters", maxReviewBody))
	}

	product, err := rs.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	verified, err := rs.store.HasPurchased(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to check purchase: %w", err)
	}

	review := &models.Review{
		UserID:             userID,
		ProductID:          productID,
		Rating:             req.Rating,
		Title:              title,
		Body:               body,
		IsVerifiedPurchase: verified,
	}
	if err := rs.store.CreateReview(ctx, review); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrAlreadyReviewed
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	util.ReviewsWrittenTotal.WithLabelValues("create").Inc()
	rs.logger.Info("Review created",
		zap.Int64("review_id", review.ID),
		zap.Int64("product_id", productID),
		zap.Bool("verified", verified))

	rs.refreshRating(ctx, productID)

	return review, nil
}

// DeleteReview removes a review written by the caller, or any review for an
// admin, and refreshes the product rating
func (rs *ReviewService) DeleteReview(ctx context.Context, userID int64, isAdmin bool, reviewID int64) error {
	ctx, span := util.StartSpan(ctx, "ReviewService.DeleteReview")
	defer span.End()

	review, err := rs.store.GetReviewByID(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("failed to get review: %w", err)
	}
	if review == nil || (review.UserID != userID && !isAdmin) {
		return ErrReviewNotFound
	}

	if err := rs.store.DeleteReview(ctx, reviewID); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	util.ReviewsWrittenTotal.WithLabelValues("delete").Inc()
	rs.logger.Info("Review deleted",
		zap.Int64("review_id", reviewID),
		zap.Int64("product_id", review.ProductID))

	rs.refreshRating(ctx, review.ProductID)

	return nil
}

// refreshRating recomputes after a committed review write. The write stands
// when this fails; the next write or a manual RecomputeRating repairs it.
func (rs *ReviewService) refreshRating(ctx context.Context, productID int64) {
	if _, err := rs.RecomputeRating(ctx, productID); err != nil {
		util.RatingRecomputeFailedTotal.Inc()
		util.RecordError(ctx, err)
		rs.logger.Error("Failed to refresh product rating",
			zap.Int64("product_id", productID),
			zap.Error(err))
	}
}

// ListReviews returns a product's reviews, newest first
func (rs *ReviewService) ListReviews(ctx context.Context, productID int64) ([]models.Review, error) {
	reviews, err := rs.store.GetReviewsByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// RecomputeRating rewrites the product's average rating and review count
func (rs *ReviewService) RecomputeRating(ctx context.Context, productID int64) (models.Rating, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.RecomputeRating")
	defer span.End()

	avg, count, err := rs.store.ProductRatingStats(ctx, productID)
	if err != nil {
		return models.Rating{}, fmt.Errorf("failed to aggregate ratings: %w", err)
	}

	rating := models.Rating{ProductID: productID, Average: RoundRating(avg), Count: count}
	if err := rs.store.UpdateProductRating(ctx, productID, rating.Average, rating.Count); err != nil {
		return models.Rating{}, fmt.Errorf("failed to update product rating: %w", err)
	}
	return rating, nil
}
