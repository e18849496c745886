package order

import (
	"context"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/coupon"
	"storefront/internal/currency"
	"storefront/internal/models"
	"storefront/internal/pincode"
	"storefront/internal/util"

	"github.com/google/uuid"
)

var (
	ErrEmptyOrder           = apperr.Validation("empty_order", "Order must contain at least one item")
	ErrInvalidQuantity      = apperr.Validation("invalid_quantity", "Quantity must be at least 1")
	ErrInvalidUnitPrice     = apperr.Validation("invalid_unit_price", "Unit price must not be negative")
	ErrUndeliverableAddress = apperr.BusinessRule("undeliverable_address", "We do not deliver to this pincode yet")
	ErrInvalidStatus        = apperr.Validation("invalid_status", "Unknown order status")
)

// PincodeLookup resolves serviceability for a shipping pincode
type PincodeLookup interface {
	Lookup(ctx context.Context, code string) (*pincode.Serviceability, error)
}

// CouponEvaluator checks a coupon against a subtotal
type CouponEvaluator interface {
	Evaluate(ctx context.Context, code string, subtotal int64, now time.Time) (coupon.Evaluation, error)
}

// LineItem is a cart line with the product price copied at checkout
type LineItem struct {
	ProductID     int64
	Quantity      int
	UnitPrice     int64
	TaxApplicable bool
}

// BuildRequest carries everything needed to assemble an order
type BuildRequest struct {
	UserID        int64
	Items         []LineItem
	Address       models.Address
	CouponCode    string
	PaymentMethod models.PaymentMethod
}

// Breakdown is the monetary summary of an order
type Breakdown struct {
	Subtotal    int64 `json:"subtotal"`
	Tax         int64 `json:"gst"`
	ShippingFee int64 `json:"shippingFee"`
	Discount    int64 `json:"discount"`
	Total       int64 `json:"total"`
}

// Options configures tax and shipping
type Options struct {
	TaxRatePercent int64
	ShippingFee    int64
}

// Aggregator assembles orders from line items
type Aggregator struct {
	pincodes PincodeLookup
	coupons  CouponEvaluator
	opts     Options
}

// NewAggregator creates a new order aggregator
func NewAggregator(pincodes PincodeLookup, coupons CouponEvaluator, opts Options) *Aggregator {
	return &Aggregator{
		pincodes: pincodes,
		coupons:  coupons,
		opts:     opts,
	}
}

// Totals computes the breakdown. GST applies only to tax-applicable lines and
// is charged on the pre-discount amount.
func Totals(items []LineItem, taxRatePercent, shippingFee, discount int64) Breakdown {
	var subtotal, taxable int64
	for _, item := range items {
		line := int64(item.Quantity) * item.UnitPrice
		subtotal += line
		if item.TaxApplicable {
			taxable += line
		}
	}

	b := Breakdown{
		Subtotal:    subtotal,
		Tax:         currency.ComputeTax(taxable, taxRatePercent),
		ShippingFee: shippingFee,
		Discount:    discount,
	}
	b.Total = b.Subtotal + b.Tax + b.ShippingFee - b.Discount
	if b.Total < 0 {
		b.Total = 0
	}
	return b
}

// BuildOrder validates the request and returns a new order in status Placed
func (a *Aggregator) BuildOrder(ctx context.Context, req BuildRequest, now time.Time) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "Aggregator.BuildOrder")
	defer span.End()

	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		if item.UnitPrice < 0 {
			return nil, ErrInvalidUnitPrice
		}
	}

	if err := validateAddress(req.Address); err != nil {
		return nil, err
	}

	delivery, err := a.pincodes.Lookup(ctx, req.Address.Pincode)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, ErrUndeliverableAddress
		}
		return nil, err
	}
	if !delivery.Deliverable {
		return nil, ErrUndeliverableAddress
	}

	breakdown := Totals(req.Items, a.opts.TaxRatePercent, a.opts.ShippingFee, 0)

	couponCode := coupon.NormalizeCode(req.CouponCode)
	if couponCode != "" {
		eval, err := a.coupons.Evaluate(ctx, couponCode, breakdown.Subtotal, now)
		if err != nil {
			return nil, err
		}
		if err := eval.Err(); err != nil {
			return nil, err
		}
		breakdown = Totals(req.Items, a.opts.TaxRatePercent, a.opts.ShippingFee, eval.Discount)
	}

	orderID := uuid.New().String()
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, models.OrderItem{
			OrderID:       orderID,
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			TaxApplicable: item.TaxApplicable,
		})
	}

	o := &models.Order{
		ID:              orderID,
		UserID:          req.UserID,
		Items:           items,
		ShippingAddress: req.Address,
		Subtotal:        breakdown.Subtotal,
		Tax:             breakdown.Tax,
		ShippingFee:     breakdown.ShippingFee,
		Discount:        breakdown.Discount,
		Total:           breakdown.Total,
		CouponCode:      couponCode,
		Payment: models.Payment{
			Method: req.PaymentMethod,
			Status: models.PaymentStatusPending,
		},
		Status: models.OrderStatusPlaced,
		StatusHistory: []models.StatusEntry{
			{OrderID: orderID, Status: models.OrderStatusPlaced, Timestamp: now},
		},
		EstimatedDeliveryDays: delivery.EstimatedDays,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	return o, nil
}

// AdvanceStatus appends a history entry and moves the order to status.
// Transitions are not ordered: any known status may follow any other.
func AdvanceStatus(o *models.Order, status models.OrderStatus, comment string, now time.Time) (models.StatusEntry, error) {
	if !status.Valid() {
		return models.StatusEntry{}, ErrInvalidStatus
	}

	entry := models.StatusEntry{
		OrderID:   o.ID,
		Status:    status,
		Comment:   strings.TrimSpace(comment),
		Timestamp: now,
	}
	o.StatusHistory = append(o.StatusHistory, entry)
	o.Status = status
	o.UpdatedAt = now

	return entry, nil
}

func validateAddress(a models.Address) error {
	fields := []struct {
		name  string
		value string
	}{
		{"name", a.Name},
		{"phone", a.Phone},
		{"street", a.Street},
		{"city", a.City},
		{"state", a.State},
		{"pincode", a.Pincode},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return apperr.Validation("invalid_address", "Shipping address "+f.name+" is required")
		}
	}
	if !pincode.ValidCode(a.Pincode) {
		return pincode.ErrInvalidFormat
	}
	return nil
}
