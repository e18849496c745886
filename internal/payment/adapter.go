package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/util"

	"go.uber.org/zap"
)

var (
	ErrInvalidAmount    = apperr.Validation("invalid_amount", "Amount must be a non-negative number of paise")
	ErrInvalidSignature = apperr.Validation("invalid_signature", "Payment signature verification failed")
)

// Gateway creates and reads orders with a remote payment processor
type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*GatewayOrder, error)
	FetchOrder(ctx context.Context, gatewayOrderID string) (*GatewayOrder, error)
}

// GatewayOrder is the processor-side order a client pays against
type GatewayOrder struct {
	ID       string `json:"gatewayOrderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
}

// Adapter wraps a Gateway with amount validation and signature checks
type Adapter struct {
	gateway  Gateway
	secret   string
	currency string
	logger   *zap.Logger
}

// NewAdapter creates a new payment adapter. secret is the key used by the
// processor to sign payment callbacks.
func NewAdapter(gateway Gateway, secret, currency string) *Adapter {
	return &Adapter{
		gateway:  gateway,
		secret:   secret,
		currency: currency,
		logger:   util.GetLogger(),
	}
}

// CreateRemoteOrder registers amount paise with the gateway. Failures are not
// retried.
func (a *Adapter) CreateRemoteOrder(ctx context.Context, amount int64) (*GatewayOrder, error) {
	ctx, span := util.StartSpan(ctx, "Adapter.CreateRemoteOrder")
	defer span.End()

	if amount < 0 {
		return nil, ErrInvalidAmount
	}

	receipt := fmt.Sprintf("order_%d", time.Now().UnixMilli())

	start := time.Now()
	order, err := a.gateway.CreateOrder(ctx, amount, a.currency, receipt)
	util.PaymentGatewayLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		util.PaymentGatewayOrdersTotal.WithLabelValues("error").Inc()
		util.RecordError(ctx, err)
		a.logger.Error("Gateway order creation failed",
			zap.Int64("amount", amount),
			zap.Error(err))
		return nil, apperr.Gateway(err)
	}

	util.PaymentGatewayOrdersTotal.WithLabelValues("created").Inc()
	a.logger.Info("Gateway order created",
		zap.String("gateway_order_id", order.ID),
		zap.Int64("amount", order.Amount))

	return order, nil
}

// RemoteOrder reads a gateway order back from the processor, so callers can
// check what amount the payment settled.
func (a *Adapter) RemoteOrder(ctx context.Context, gatewayOrderID string) (*GatewayOrder, error) {
	ctx, span := util.StartSpan(ctx, "Adapter.RemoteOrder")
	defer span.End()

	start := time.Now()
	order, err := a.gateway.FetchOrder(ctx, gatewayOrderID)
	util.PaymentGatewayLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		util.PaymentGatewayOrdersTotal.WithLabelValues("fetch_error").Inc()
		util.RecordError(ctx, err)
		a.logger.Error("Gateway order fetch failed",
			zap.String("gateway_order_id", gatewayOrderID),
			zap.Error(err))
		return nil, apperr.Gateway(err)
	}

	util.PaymentGatewayOrdersTotal.WithLabelValues("fetched").Inc()
	return order, nil
}

// Verify checks a payment callback signature against the configured secret.
// An adapter without a secret verifies nothing.
func (a *Adapter) Verify(gatewayOrderID, gatewayPaymentID, signature string) bool {
	ok := a.secret != "" && VerifySignature(gatewayOrderID, gatewayPaymentID, signature, a.secret)
	result := "valid"
	if !ok {
		result = "invalid"
	}
	util.PaymentVerificationsTotal.WithLabelValues(result).Inc()
	return ok
}

// Sign returns the hex HMAC-SHA256 of "orderID|paymentID"
func Sign(gatewayOrderID, gatewayPaymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches the recomputed HMAC.
// The hex strings are compared in constant time, so any change to the
// signature text, including letter case, fails.
func VerifySignature(gatewayOrderID, gatewayPaymentID, signature, secret string) bool {
	expected := Sign(gatewayOrderID, gatewayPaymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
