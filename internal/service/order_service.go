package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/order"
	"storefront/internal/payment"
	"storefront/internal/store"
	"storefront/internal/util"

	"go.uber.org/zap"
)

const paymentClaimTTL = 30 * 24 * time.Hour

var (
	ErrOrderNotFound            = apperr.NotFound("order_not_found", "Order not found")
	ErrProductNotFound          = apperr.NotFound("product_not_found", "Product not found")
	ErrUnsupportedPaymentMethod = apperr.Validation("unsupported_payment_method", "Payment method is not supported")
	ErrMissingPaymentDetails    = apperr.Validation("missing_payment_details", "Gateway order id, payment id and signature are required")
	ErrDuplicatePayment         = apperr.BusinessRule("duplicate_payment", "This payment has already been used for an order")
	ErrAmountMismatch           = apperr.BusinessRule("amount_mismatch", "Paid amount does not match the order total")
)

// OrderStore persists orders and reads the catalog
type OrderStore interface {
	GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error)
	AppendOrderStatus(ctx context.Context, entry *models.StatusEntry) error
}

// OrderBuilder prices and validates a checkout
type OrderBuilder interface {
	BuildOrder(ctx context.Context, req order.BuildRequest, now time.Time) (*models.Order, error)
}

// PaymentVerifier checks gateway payment signatures and reads back the
// gateway order a payment settled
type PaymentVerifier interface {
	Verify(gatewayOrderID, gatewayPaymentID, signature string) bool
	RemoteOrder(ctx context.Context, gatewayOrderID string) (*payment.GatewayOrder, error)
}

// CouponCommitter consumes coupon usage
type CouponCommitter interface {
	Commit(ctx context.Context, code string) error
}

// PaymentClaimer makes a gateway payment id single-use
type PaymentClaimer interface {
	ClaimPayment(ctx context.Context, paymentID string, ttl time.Duration) (bool, error)
	ReleasePayment(ctx context.Context, paymentID string) error
}

// OrderEventPublisher emits order lifecycle events
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, order *models.Order) error
	PublishOrderStatusChanged(ctx context.Context, order *models.Order, from models.OrderStatus, entry models.StatusEntry) error
}

// OrderService handles order business logic
type OrderService struct {
	store          OrderStore
	builder        OrderBuilder
	verifier       PaymentVerifier
	coupons        CouponCommitter
	claims         PaymentClaimer
	eventPublisher OrderEventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService(
	store OrderStore,
	builder OrderBuilder,
	verifier PaymentVerifier,
	coupons CouponCommitter,
	claims PaymentClaimer,
	eventPublisher OrderEventPublisher,
) *OrderService {
	return &OrderService{
		store:          store,
		builder:        builder,
		verifier:       verifier,
		coupons:        coupons,
		claims:         claims,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
		now:            time.Now,
	}
}

// PlaceOrderRequest represents a checkout request
type PlaceOrderRequest struct {
	Items           []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	ShippingAddress models.Address     `json:"shippingAddress" binding:"required"`
	CouponCode      string             `json:"couponCode"`
	Payment         PaymentRequest     `json:"payment" binding:"required"`
}

// OrderItemRequest represents an item in an order
type OrderItemRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// PaymentRequest carries the gateway callback values for a completed payment
type PaymentRequest struct {
	Method           models.PaymentMethod `json:"method" binding:"required"`
	GatewayOrderID   string               `json:"gatewayOrderId"`
	GatewayPaymentID string               `json:"gatewayPaymentId"`
	Signature        string               `json:"signature"`
}

// PlaceOrder verifies the payment and persists a new order in status Placed
func (s *OrderService) PlaceOrder(ctx context.Context, userID int64, req *PlaceOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	o, err := s.placeOrder(ctx, userID, req)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues(apperr.CodeOf(err)).Inc()
		util.RecordError(ctx, err)
		return nil, err
	}
	return o, nil
}

func (s *OrderService) placeOrder(ctx context.Context, userID int64, req *PlaceOrderRequest) (*models.Order, error) {
	if req.Payment.Method != models.PaymentMethodRazorpay {
		return nil, ErrUnsupportedPaymentMethod
	}

	pay := req.Payment
	if pay.GatewayOrderID == "" || pay.GatewayPaymentID == "" || pay.Signature == "" {
		return nil, ErrMissingPaymentDetails
	}
	if !s.verifier.Verify(pay.GatewayOrderID, pay.GatewayPaymentID, pay.Signature) {
		s.logger.Warn("Payment signature mismatch",
			zap.Int64("user_id", userID),
			zap.String("gateway_order_id", pay.GatewayOrderID))
		return nil, payment.ErrInvalidSignature
	}

	lines, err := s.lineItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	o, err := s.builder.BuildOrder(ctx, order.BuildRequest{
		UserID:        userID,
		Items:         lines,
		Address:       req.ShippingAddress,
		CouponCode:    req.CouponCode,
		PaymentMethod: pay.Method,
	}, s.now())
	if err != nil {
		return nil, err
	}

	remote, err := s.verifier.RemoteOrder(ctx, pay.GatewayOrderID)
	if err != nil {
		return nil, err
	}
	if remote.Amount != o.Total {
		s.logger.Warn("Paid amount does not match order total",
			zap.Int64("user_id", userID),
			zap.String("gateway_order_id", pay.GatewayOrderID),
			zap.Int64("paid", remote.Amount),
			zap.Int64("total", o.Total))
		return nil, ErrAmountMismatch
	}

	claimed, err := s.claims.ClaimPayment(ctx, pay.GatewayPaymentID, paymentClaimTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to claim payment: %w", err)
	}
	if !claimed {
		return nil, ErrDuplicatePayment
	}

	o.Payment = models.Payment{
		Method:           pay.Method,
		Status:           models.PaymentStatusCompleted,
		GatewayOrderID:   pay.GatewayOrderID,
		GatewayPaymentID: pay.GatewayPaymentID,
		Signature:        pay.Signature,
	}

	if err := s.store.CreateOrder(ctx, o); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicatePayment
		}
		if relErr := s.claims.ReleasePayment(ctx, pay.GatewayPaymentID); relErr != nil {
			s.logger.Error("Failed to release payment claim",
				zap.String("gateway_payment_id", pay.GatewayPaymentID),
				zap.Error(relErr))
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.String("order_id", o.ID),
		zap.Int64("user_id", userID),
		zap.Int64("total", o.Total))

	// The order stands even if the coupon ran out in the meantime.
	if o.CouponCode != "" {
		if err := s.coupons.Commit(ctx, o.CouponCode); err != nil {
			s.logger.Warn("Coupon usage not recorded for placed order",
				zap.String("order_id", o.ID),
				zap.String("coupon", o.CouponCode),
				zap.Error(err))
		}
	}

	if err := s.eventPublisher.PublishOrderPlaced(ctx, o); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}

	return o, nil
}

// lineItems snapshots current product prices and GST flags
func (s *OrderService) lineItems(ctx context.Context, items []OrderItemRequest) ([]order.LineItem, error) {
	productIDs := make([]int64, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}

	products, err := s.store.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	productMap := make(map[int64]*models.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	lines := make([]order.LineItem, 0, len(items))
	for _, item := range items {
		product, ok := productMap[item.ProductID]
		if !ok {
			return nil, ErrProductNotFound
		}
		lines = append(lines, order.LineItem{
			ProductID:     product.ID,
			Quantity:      item.Quantity,
			UnitPrice:     product.Price,
			TaxApplicable: product.IsGSTApplicable,
		})
	}
	return lines, nil
}

// UpdateStatusRequest moves an order along its timeline
type UpdateStatusRequest struct {
	Status  models.OrderStatus `json:"status" binding:"required"`
	Comment string             `json:"comment" binding:"max=500"`
}

// AdvanceStatus appends a status entry to an order
func (s *OrderService) AdvanceStatus(ctx context.Context, orderID string, req *UpdateStatusRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.AdvanceStatus")
	defer span.End()

	o, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}

	from := o.Status
	entry, err := order.AdvanceStatus(o, req.Status, req.Comment, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.store.AppendOrderStatus(ctx, &entry); err != nil {
		return nil, fmt.Errorf("failed to append order status: %w", err)
	}
	o.StatusHistory[len(o.StatusHistory)-1] = entry

	util.OrderStatusTransitionsTotal.WithLabelValues(string(entry.Status)).Inc()
	s.logger.Info("Order status updated",
		zap.String("order_id", o.ID),
		zap.String("from", string(from)),
		zap.String("to", string(entry.Status)))

	if err := s.eventPublisher.PublishOrderStatusChanged(ctx, o, from, entry); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
	}

	return o, nil
}

// GetOrder retrieves an order visible to the caller. Orders of other users
// are reported as not found unless the caller is an admin.
func (s *OrderService) GetOrder(ctx context.Context, userID int64, isAdmin bool, orderID string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder")
	defer span.End()

	o, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if o == nil || (o.UserID != userID && !isAdmin) {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// ListOrders returns the caller's orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListOrders")
	defer span.End()

	orders, err := s.store.GetOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}
