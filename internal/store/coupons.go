package store

import (
	"context"
	"database/sql"

	"storefront/internal/models"
)

// GetCouponByCode retrieves a coupon by its normalized code, nil when missing
func (s *Store) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := s.db.GetContext(ctx, &coupon, `
		SELECT id, code, description, discount_amount, min_cart_value, max_discount, type,
			valid_from, valid_until, usage_limit, usage_count, is_active
		FROM coupons WHERE code = $1`, code)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// IncrementCouponUsage consumes one use in a single conditional update.
// It reports false when the coupon is inactive, missing or exhausted.
func (s *Store) IncrementCouponUsage(ctx context.Context, code string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE coupons SET usage_count = usage_count + 1
		WHERE code = $1 AND is_active AND usage_count < usage_limit`, code)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}
