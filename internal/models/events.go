package models

import "time"

// Event types
const (
	EventTypeOrderPlaced        = "ORDER_PLACED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventTypePaymentVerified    = "PAYMENT_VERIFIED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent published when a paid order is persisted
type OrderPlacedEvent struct {
	BaseEvent
	OrderID          string          `json:"order_id"`
	UserID           int64           `json:"user_id"`
	Total            int64           `json:"total"`
	Discount         int64           `json:"discount"`
	CouponCode       string          `json:"coupon_code,omitempty"`
	GatewayPaymentID string          `json:"gateway_payment_id"`
	Pincode          string          `json:"pincode"`
	Items            []OrderItemData `json:"items"`
}

// OrderStatusChangedEvent published when a status entry is appended
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID string      `json:"order_id"`
	UserID  int64       `json:"user_id"`
	From    OrderStatus `json:"from"`
	To      OrderStatus `json:"to"`
	Comment string      `json:"comment,omitempty"`
}

// PaymentVerifiedEvent published when a gateway signature checks out
type PaymentVerifiedEvent struct {
	BaseEvent
	UserID           int64  `json:"user_id"`
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}
