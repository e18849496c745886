package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/payment"
	"storefront/internal/util"

	"go.uber.org/zap"
)

var ErrIdempotencyKeyReused = apperr.Validation("idempotency_key_reused", "Idempotency key was already used with a different amount")

// GatewayOrders creates gateway orders and checks callback signatures
type GatewayOrders interface {
	CreateRemoteOrder(ctx context.Context, amount int64) (*payment.GatewayOrder, error)
	Verify(gatewayOrderID, gatewayPaymentID, signature string) bool
}

// IdempotencyStore remembers responses by client-supplied key
type IdempotencyStore interface {
	GetIdempotencyKey(ctx context.Context, key string, dst interface{}) (bool, error)
	SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// PaymentEventPublisher emits payment events
type PaymentEventPublisher interface {
	PublishPaymentVerified(ctx context.Context, userID int64, gatewayOrderID, gatewayPaymentID string) error
}

// PaymentService handles gateway order creation and payment verification
type PaymentService struct {
	gateway        GatewayOrders
	idempotency    IdempotencyStore
	idempotencyTTL time.Duration
	eventPublisher PaymentEventPublisher
	logger         *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(gateway GatewayOrders, idempotency IdempotencyStore, idempotencyTTL time.Duration, eventPublisher PaymentEventPublisher) *PaymentService {
	return &PaymentService{
		gateway:        gateway,
		idempotency:    idempotency,
		idempotencyTTL: idempotencyTTL,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// CreateOrderRequest asks for a gateway order of amount paise
type CreateOrderRequest struct {
	Amount *int64 `json:"amount" binding:"required"`
}

// VerifyPaymentRequest carries the gateway callback values
type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"gatewayOrderId" binding:"required"`
	GatewayPaymentID string `json:"gatewayPaymentId" binding:"required"`
	Signature        string `json:"signature" binding:"required"`
}

// CreateGatewayOrder creates a remote order. With a non-empty idempotency key
// a repeated request returns the first gateway order; replayed reports that.
func (ps *PaymentService) CreateGatewayOrder(ctx context.Context, userID, amount int64, idempotencyKey string) (order *payment.GatewayOrder, replayed bool, err error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.CreateGatewayOrder")
	defer span.End()

	key := ""
	if idempotencyKey != "" {
		key = fmt.Sprintf("%d:%s", userID, idempotencyKey)

		var cached payment.GatewayOrder
		found, err := ps.idempotency.GetIdempotencyKey(ctx, key, &cached)
		if err != nil {
			ps.logger.Warn("Idempotency lookup failed", zap.String("key", key), zap.Error(err))
		}
		if found {
			if cached.Amount != amount {
				return nil, false, ErrIdempotencyKeyReused
			}
			ps.logger.Info("Duplicate gateway order request detected",
				zap.String("idempotency_key", idempotencyKey),
				zap.String("gateway_order_id", cached.ID))
			return &cached, true, nil
		}
	}

	order, err = ps.gateway.CreateRemoteOrder(ctx, amount)
	if err != nil {
		return nil, false, err
	}

	if key != "" {
		if err := ps.idempotency.SetIdempotencyKey(ctx, key, order, ps.idempotencyTTL); err != nil {
			ps.logger.Warn("Failed to store idempotency key", zap.String("key", key), zap.Error(err))
		}
	}

	return order, false, nil
}

// VerifyPayment checks a payment callback signature
func (ps *PaymentService) VerifyPayment(ctx context.Context, userID int64, req *VerifyPaymentRequest) error {
	ctx, span := util.StartSpan(ctx, "PaymentService.VerifyPayment")
	defer span.End()

	if !ps.gateway.Verify(req.GatewayOrderID, req.GatewayPaymentID, req.Signature) {
		ps.logger.Warn("Payment signature mismatch",
			zap.Int64("user_id", userID),
			zap.String("gateway_order_id", req.GatewayOrderID))
		return payment.ErrInvalidSignature
	}

	ps.logger.Info("Payment verified",
		zap.Int64("user_id", userID),
		zap.String("gateway_order_id", req.GatewayOrderID),
		zap.String("gateway_payment_id", req.GatewayPaymentID))

	if err := ps.eventPublisher.PublishPaymentVerified(ctx, userID, req.GatewayOrderID, req.GatewayPaymentID); err != nil {
		ps.logger.Error("Failed to publish PaymentVerified event", zap.Error(err))
	}

	return nil
}
