package coupon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/currency"
	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// Reason explains why a coupon does not apply
type Reason string

const (
	ReasonNotFound      Reason = "not_found"
	ReasonInactive      Reason = "inactive"
	ReasonNotYetValid   Reason = "not_yet_valid"
	ReasonExpired       Reason = "expired"
	ReasonLimitReached  Reason = "limit_reached"
	ReasonMinimumNotMet Reason = "minimum_not_met"
)

var reasonMessages = map[Reason]string{
	ReasonNotFound:      "Coupon not found",
	ReasonInactive:      "Coupon is not active",
	ReasonNotYetValid:   "Coupon is not valid yet",
	ReasonExpired:       "Coupon has expired",
	ReasonLimitReached:  "Coupon usage limit reached",
	ReasonMinimumNotMet: "Cart value is below the coupon minimum",
}

// ErrLimitReached is returned by Commit when no usage is left
var ErrLimitReached = apperr.BusinessRule(string(ReasonLimitReached), reasonMessages[ReasonLimitReached])

// Repository reads coupons and commits usage.
// GetCouponByCode returns nil, nil when missing. IncrementCouponUsage must be a
// single conditional update that increments only while usage_count < usage_limit
// on an active coupon, reporting false when nothing was updated.
type Repository interface {
	GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error)
	IncrementCouponUsage(ctx context.Context, code string) (bool, error)
}

// Evaluation is the outcome of checking a coupon against a cart
type Evaluation struct {
	Code       string `json:"code"`
	Applicable bool   `json:"applicable"`
	Discount   int64  `json:"discount"`
	Reason     Reason `json:"reason,omitempty"`
}

// Err converts an inapplicable evaluation into a classified error
func (e Evaluation) Err() error {
	if e.Applicable {
		return nil
	}
	msg := reasonMessages[e.Reason]
	if e.Reason == ReasonNotFound {
		return apperr.NotFound("coupon_not_found", msg)
	}
	return apperr.BusinessRule(string(e.Reason), msg)
}

// NormalizeCode trims and upper-cases a coupon code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Check applies the coupon rules in order. c may be nil.
func Check(c *models.Coupon, subtotal int64, now time.Time) Evaluation {
	if c == nil {
		return Evaluation{Reason: ReasonNotFound}
	}

	eval := Evaluation{Code: c.Code}
	switch {
	case !c.IsActive:
		eval.Reason = ReasonInactive
	case now.Before(c.ValidFrom):
		eval.Reason = ReasonNotYetValid
	case !now.Before(c.ValidUntil):
		eval.Reason = ReasonExpired
	case c.UsageCount >= c.UsageLimit:
		eval.Reason = ReasonLimitReached
	case subtotal < c.MinCartValue:
		eval.Reason = ReasonMinimumNotMet
	default:
		eval.Applicable = true
		eval.Discount = Discount(c, subtotal)
	}
	return eval
}

// Discount computes the clamped discount for an applicable coupon.
// Percentage coupons read DiscountAmount as the rate.
func Discount(c *models.Coupon, subtotal int64) int64 {
	var raw int64
	switch c.Type {
	case models.CouponTypePercentage:
		raw = currency.Percentage(subtotal, c.DiscountAmount)
	default:
		raw = c.DiscountAmount
	}

	if raw > c.MaxDiscount {
		raw = c.MaxDiscount
	}
	if raw < 0 {
		raw = 0
	}
	return raw
}

// Evaluator checks coupon applicability against the coupon repository
type Evaluator struct {
	repo   Repository
	logger *zap.Logger
}

// NewEvaluator creates a new coupon evaluator
func NewEvaluator(repo Repository) *Evaluator {
	return &Evaluator{
		repo:   repo,
		logger: util.GetLogger(),
	}
}

// Evaluate reports whether code applies to a cart of subtotal at now. It never
// changes usage counts.
func (e *Evaluator) Evaluate(ctx context.Context, code string, subtotal int64, now time.Time) (Evaluation, error) {
	ctx, span := util.StartSpan(ctx, "Evaluator.Evaluate")
	defer span.End()

	if subtotal < 0 {
		return Evaluation{}, apperr.Validation("invalid_subtotal", "Subtotal must not be negative")
	}

	code = NormalizeCode(code)
	if code == "" {
		return Evaluation{}, apperr.Validation("invalid_coupon_code", "Coupon code is required")
	}

	c, err := e.repo.GetCouponByCode(ctx, code)
	if err != nil {
		return Evaluation{}, fmt.Errorf("failed to get coupon: %w", err)
	}

	eval := Check(c, subtotal, now)
	eval.Code = code

	result := "applied"
	if !eval.Applicable {
		result = string(eval.Reason)
	}
	util.CouponEvaluationsTotal.WithLabelValues(result).Inc()

	return eval, nil
}

// Commit consumes one use of code. Call only once the order is placed.
func (e *Evaluator) Commit(ctx context.Context, code string) error {
	ctx, span := util.StartSpan(ctx, "Evaluator.Commit")
	defer span.End()

	code = NormalizeCode(code)
	ok, err := e.repo.IncrementCouponUsage(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to increment coupon usage: %w", err)
	}
	if !ok {
		util.CouponCommitFailedTotal.Inc()
		e.logger.Warn("Coupon usage not committed, limit reached or coupon inactive",
			zap.String("code", code))
		return ErrLimitReached
	}

	e.logger.Info("Coupon usage committed", zap.String("code", code))
	return nil
}
