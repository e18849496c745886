package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// All amounts are in paise (1 INR = 100 paise).

// OrderStatus is a step in the fulfilment timeline
type OrderStatus string

// Order statuses, in display order
const (
	OrderStatusPlaced         OrderStatus = "Placed"
	OrderStatusConfirmed      OrderStatus = "Confirmed"
	OrderStatusPacked         OrderStatus = "Packed"
	OrderStatusShipped        OrderStatus = "Shipped"
	OrderStatusOutForDelivery OrderStatus = "Out for Delivery"
	OrderStatusDelivered      OrderStatus = "Delivered"
)

// OrderStatuses lists every known status in timeline order
var OrderStatuses = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusConfirmed,
	OrderStatusPacked,
	OrderStatusShipped,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// PaymentMethod identifies the payment gateway
type PaymentMethod string

const (
	PaymentMethodRazorpay PaymentMethod = "razorpay"
	PaymentMethodPaytm    PaymentMethod = "paytm"
)

// PaymentStatus is the state of the payment sub-record
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// CouponType selects how DiscountAmount is read
type CouponType string

const (
	CouponTypeFlat       CouponType = "flat"
	CouponTypePercentage CouponType = "percentage"
)

// Product represents a catalog product
type Product struct {
	ID              int64     `db:"id" json:"id"`
	SKU             string    `db:"sku" json:"sku"`
	Title           string    `db:"title" json:"title"`
	Category        string    `db:"category" json:"category"`
	Price           int64     `db:"price" json:"price"`
	StockQty        int       `db:"stock_qty" json:"stockQty"`
	IsGSTApplicable bool      `db:"is_gst_applicable" json:"isGstApplicable"`
	RatingAverage   float64   `db:"rating_average" json:"ratingAverage"`
	RatingCount     int       `db:"rating_count" json:"ratingCount"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}

// Coupon is a discount code. For percentage coupons DiscountAmount holds the rate.
type Coupon struct {
	ID             int64      `db:"id" json:"id"`
	Code           string     `db:"code" json:"code"`
	Description    string     `db:"description" json:"description"`
	DiscountAmount int64      `db:"discount_amount" json:"discountAmount"`
	MinCartValue   int64      `db:"min_cart_value" json:"minCartValue"`
	MaxDiscount    int64      `db:"max_discount" json:"maxDiscount"`
	Type           CouponType `db:"type" json:"type"`
	ValidFrom      time.Time  `db:"valid_from" json:"validFrom"`
	ValidUntil     time.Time  `db:"valid_until" json:"validUntil"`
	UsageLimit     int        `db:"usage_limit" json:"usageLimit"`
	UsageCount     int        `db:"usage_count" json:"usageCount"`
	IsActive       bool       `db:"is_active" json:"isActive"`
}

// Pincode is a serviceability record keyed by 6-digit postal code
type Pincode struct {
	Code          string `db:"code" json:"code"`
	City          string `db:"city" json:"city"`
	State         string `db:"state" json:"state"`
	IsDeliverable bool   `db:"is_deliverable" json:"isDeliverable"`
	EstimatedDays int    `db:"estimated_days" json:"estimatedDays"`
}

// Address is the shipping address stored on an order
type Address struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Street  string `json:"street" binding:"required"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state" binding:"required"`
	Pincode string `json:"pincode" binding:"required"`
}

// Value stores the address as JSONB
func (a Address) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan reads the address from JSONB
func (a *Address) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	case nil:
		*a = Address{}
		return nil
	default:
		return fmt.Errorf("unsupported address type %T", src)
	}
}

// OrderItem is a line item with the unit price copied at order time
type OrderItem struct {
	ID            int64  `db:"id" json:"id"`
	OrderID       string `db:"order_id" json:"orderId"`
	ProductID     int64  `db:"product_id" json:"productId"`
	Quantity      int    `db:"quantity" json:"quantity"`
	UnitPrice     int64  `db:"unit_price" json:"unitPrice"`
	TaxApplicable bool   `db:"tax_applicable" json:"taxApplicable"`
}

// LineTotal returns quantity * unit price
func (i OrderItem) LineTotal() int64 {
	return int64(i.Quantity) * i.UnitPrice
}

// Payment is the gateway payment sub-record of an order
type Payment struct {
	Method           PaymentMethod `json:"method"`
	Status           PaymentStatus `json:"status"`
	GatewayOrderID   string        `json:"gatewayOrderId,omitempty"`
	GatewayPaymentID string        `json:"gatewayPaymentId,omitempty"`
	Signature        string        `json:"signature,omitempty"`
}

// StatusEntry is one append-only entry of an order's status history
type StatusEntry struct {
	ID        int64       `db:"id" json:"-"`
	OrderID   string      `db:"order_id" json:"-"`
	Status    OrderStatus `db:"status" json:"status"`
	Comment   string      `db:"comment" json:"comment,omitempty"`
	Timestamp time.Time   `db:"created_at" json:"timestamp"`
}

// Order represents a placed customer order
type Order struct {
	ID                    string        `json:"id"`
	UserID                int64         `json:"userId"`
	Items                 []OrderItem   `json:"items"`
	ShippingAddress       Address       `json:"shippingAddress"`
	Subtotal              int64         `json:"subtotal"`
	Tax                   int64         `json:"gst"`
	ShippingFee           int64         `json:"shippingFee"`
	Discount              int64         `json:"discount"`
	Total                 int64         `json:"total"`
	CouponCode            string        `json:"couponCode,omitempty"`
	Payment               Payment       `json:"payment"`
	Status                OrderStatus   `json:"status"`
	StatusHistory         []StatusEntry `json:"statusHistory"`
	EstimatedDeliveryDays int           `json:"estimatedDeliveryDays"`
	CreatedAt             time.Time     `json:"createdAt"`
	UpdatedAt             time.Time     `json:"updatedAt"`
}

// ContainsProduct reports whether any line item references productID
func (o *Order) ContainsProduct(productID int64) bool {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// Review is a user's rating of a product
type Review struct {
	ID                 int64     `db:"id" json:"id"`
	UserID             int64     `db:"user_id" json:"userId"`
	ProductID          int64     `db:"product_id" json:"productId"`
	Rating             int       `db:"rating" json:"rating"`
	Title              string    `db:"title" json:"title"`
	Body               string    `db:"body" json:"review"`
	IsVerifiedPurchase bool      `db:"is_verified_purchase" json:"isVerifiedPurchase"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
}

// Rating is the materialized review aggregate of a product
type Rating struct {
	ProductID int64   `json:"productId"`
	Average   float64 `json:"average"`
	Count     int     `json:"count"`
}
