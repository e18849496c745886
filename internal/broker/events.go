package broker

import (
	"context"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
)

// EventWriter writes a keyed event to the order events topic
type EventWriter interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer EventWriter
	now      func() time.Time
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer EventWriter) *EventPublisher {
	return &EventPublisher{producer: producer, now: time.Now}
}

func (ep *EventPublisher) base(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: ep.now(),
	}
}

// PublishOrderPlaced publishes OrderPlaced event
func (ep *EventPublisher) PublishOrderPlaced(ctx context.Context, order *models.Order) error {
	items := make([]models.OrderItemData, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, models.OrderItemData{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	event := &models.OrderPlacedEvent{
		BaseEvent:        ep.base(models.EventTypeOrderPlaced),
		OrderID:          order.ID,
		UserID:           order.UserID,
		Total:            order.Total,
		Discount:         order.Discount,
		CouponCode:       order.CouponCode,
		GatewayPaymentID: order.Payment.GatewayPaymentID,
		Pincode:          order.ShippingAddress.Pincode,
		Items:            items,
	}
	return ep.producer.PublishEvent(ctx, "order-"+order.ID, event)
}

// PublishOrderStatusChanged publishes OrderStatusChanged event
func (ep *EventPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, from models.OrderStatus, entry models.StatusEntry) error {
	event := &models.OrderStatusChangedEvent{
		BaseEvent: ep.base(models.EventTypeOrderStatusChanged),
		OrderID:   order.ID,
		UserID:    order.UserID,
		From:      from,
		To:        entry.Status,
		Comment:   entry.Comment,
	}
	return ep.producer.PublishEvent(ctx, "order-"+order.ID, event)
}

// PublishPaymentVerified publishes PaymentVerified event
func (ep *EventPublisher) PublishPaymentVerified(ctx context.Context, userID int64, gatewayOrderID, gatewayPaymentID string) error {
	event := &models.PaymentVerifiedEvent{
		BaseEvent:        ep.base(models.EventTypePaymentVerified),
		UserID:           userID,
		GatewayOrderID:   gatewayOrderID,
		GatewayPaymentID: gatewayPaymentID,
	}
	return ep.producer.PublishEvent(ctx, "payment-"+gatewayOrderID, event)
}
