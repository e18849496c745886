package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"storefront/internal/models"
	"storefront/internal/payment"
	"storefront/internal/pincode"
	"storefront/internal/store"
)

// memStore is an in-memory OrderStore and ReviewStore
type memStore struct {
	mu        sync.Mutex
	products  map[int64]models.Product
	orders    map[string]*models.Order
	payments  map[string]bool
	reviews   map[int64]*models.Review
	nextID    int64
	createErr error
	ratingErr error
}

func newMemStore(products ...models.Product) *memStore {
	s := &memStore{
		products: make(map[int64]models.Product),
		orders:   make(map[string]*models.Order),
		payments: make(map[string]bool),
		reviews:  make(map[int64]*models.Review),
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *memStore) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *memStore) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Product
	seen := make(map[int64]bool)
	for _, id := range ids {
		if p, ok := s.products[id]; ok && !seen[id] {
			out = append(out, p)
			seen[id] = true
		}
	}
	return out, nil
}

func (s *memStore) CreateOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if s.payments[order.Payment.GatewayPaymentID] {
		return store.ErrDuplicate
	}
	s.payments[order.Payment.GatewayPaymentID] = true
	cp := *order
	s.orders[order.ID] = &cp
	return nil
}

func (s *memStore) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	cp.StatusHistory = append([]models.StatusEntry(nil), o.StatusHistory...)
	return &cp, nil
}

func (s *memStore) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) AppendOrderStatus(ctx context.Context, entry *models.StatusEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[entry.OrderID]
	if !ok {
		return errors.New("order not found")
	}
	s.nextID++
	entry.ID = s.nextID
	o.StatusHistory = append(o.StatusHistory, *entry)
	o.Status = entry.Status
	return nil
}

func (s *memStore) HasPurchased(ctx context.Context, userID, productID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.UserID == userID && o.ContainsProduct(productID) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) CreateReview(ctx context.Context, review *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reviews {
		if r.UserID == review.UserID && r.ProductID == review.ProductID {
			return store.ErrDuplicate
		}
	}
	s.nextID++
	review.ID = s.nextID
	review.CreatedAt = time.Now()
	cp := *review
	s.reviews[review.ID] = &cp
	return nil
}

func (s *memStore) GetReviewByID(ctx context.Context, id int64) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) GetReviewsByProductID(ctx context.Context, productID int64) ([]models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Review
	for _, r := range s.reviews {
		if r.ProductID == productID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memStore) DeleteReview(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reviews, id)
	return nil
}

func (s *memStore) ProductRatingStats(ctx context.Context, productID int64) (float64, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum, count int
	for _, r := range s.reviews {
		if r.ProductID == productID {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

func (s *memStore) UpdateProductRating(ctx context.Context, productID int64, average float64, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ratingErr != nil {
		return s.ratingErr
	}
	p := s.products[productID]
	p.RatingAverage = average
	p.RatingCount = count
	s.products[productID] = p
	return nil
}

type memCoupons struct {
	mu      sync.Mutex
	coupons map[string]*models.Coupon
}

func (r *memCoupons) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.coupons[code]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *memCoupons) IncrementCouponUsage(ctx context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.coupons[code]
	if !ok || !c.IsActive || c.UsageCount >= c.UsageLimit {
		return false, nil
	}
	c.UsageCount++
	return true, nil
}

type memPincodes map[string]models.Pincode

func (m memPincodes) GetPincode(ctx context.Context, code string) (*models.Pincode, error) {
	p, ok := m[code]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m memPincodes) SearchPincodes(ctx context.Context, prefix string, limit int) ([]models.Pincode, error) {
	return nil, nil
}

var _ pincode.Repository = memPincodes{}

type memClaims struct {
	mu      sync.Mutex
	claimed map[string]bool
}

func (c *memClaims) ClaimPayment(ctx context.Context, paymentID string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.claimed[paymentID] {
		return false, nil
	}
	c.claimed[paymentID] = true
	return true, nil
}

func (c *memClaims) ReleasePayment(ctx context.Context, paymentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.claimed, paymentID)
	return nil
}

type memIdempotency struct {
	entries map[string]payment.GatewayOrder
}

func (m *memIdempotency) GetIdempotencyKey(ctx context.Context, key string, dst interface{}) (bool, error) {
	v, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	*dst.(*payment.GatewayOrder) = v
	return true, nil
}

func (m *memIdempotency) SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.entries[key] = *value.(*payment.GatewayOrder)
	return nil
}

// recordingPublisher captures published events
type recordingPublisher struct {
	placed   []*models.Order
	changed  []models.StatusEntry
	verified []string
}

func (p *recordingPublisher) PublishOrderPlaced(ctx context.Context, order *models.Order) error {
	p.placed = append(p.placed, order)
	return nil
}

func (p *recordingPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, from models.OrderStatus, entry models.StatusEntry) error {
	p.changed = append(p.changed, entry)
	return nil
}

func (p *recordingPublisher) PublishPaymentVerified(ctx context.Context, userID int64, gatewayOrderID, gatewayPaymentID string) error {
	p.verified = append(p.verified, gatewayPaymentID)
	return nil
}

type fakeGateway struct {
	calls    int
	err      error
	fetchErr error
	orders   map[string]payment.GatewayOrder
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*payment.GatewayOrder, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	order := payment.GatewayOrder{ID: fmt.Sprintf("order_gw%d", g.calls), Amount: amount, Currency: currency, Receipt: receipt}
	if g.orders == nil {
		g.orders = make(map[string]payment.GatewayOrder)
	}
	g.orders[order.ID] = order
	return &order, nil
}

func (g *fakeGateway) FetchOrder(ctx context.Context, gatewayOrderID string) (*payment.GatewayOrder, error) {
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	order, ok := g.orders[gatewayOrderID]
	if !ok {
		return nil, errors.New("BAD_REQUEST_ERROR: The id provided does not exist")
	}
	return &order, nil
}
