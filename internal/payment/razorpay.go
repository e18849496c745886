package payment

import (
	"context"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// orderResource is the subset of the Razorpay order resource we call
type orderResource interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Fetch(orderID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// RazorpayGateway creates and reads orders through the Razorpay Orders API
type RazorpayGateway struct {
	orders orderResource
}

// NewRazorpayGateway builds a gateway client from API credentials
func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	client := razorpay.NewClient(keyID, keySecret)
	return &RazorpayGateway{orders: client.Order}
}

// CreateOrder implements Gateway
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*GatewayOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := g.orders.Create(map[string]interface{}{
		"amount":          amount,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order create: %w", err)
	}

	order, err := parseOrder(body)
	if err != nil {
		return nil, fmt.Errorf("razorpay order create: %w", err)
	}
	return order, nil
}

// FetchOrder implements Gateway
func (g *RazorpayGateway) FetchOrder(ctx context.Context, gatewayOrderID string) (*GatewayOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := g.orders.Fetch(gatewayOrderID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order fetch: %w", err)
	}

	order, err := parseOrder(body)
	if err != nil {
		return nil, fmt.Errorf("razorpay order fetch: %w", err)
	}
	return order, nil
}

func parseOrder(body map[string]interface{}) (*GatewayOrder, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return nil, errors.New("response has no order id")
	}

	order := &GatewayOrder{ID: id}
	order.Currency, _ = body["currency"].(string)
	order.Receipt, _ = body["receipt"].(string)
	order.Amount = paise(body["amount"])

	return order, nil
}

// paise reads an amount field; JSON numbers decode as float64
func paise(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}
