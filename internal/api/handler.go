package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/coupon"
	"storefront/internal/currency"
	"storefront/internal/models"
	"storefront/internal/payment"
	"storefront/internal/pincode"
	"storefront/internal/service"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// OrderService is the checkout and order history use case
type OrderService interface {
	PlaceOrder(ctx context.Context, userID int64, req *service.PlaceOrderRequest) (*models.Order, error)
	AdvanceStatus(ctx context.Context, orderID string, req *service.UpdateStatusRequest) (*models.Order, error)
	GetOrder(ctx context.Context, userID int64, isAdmin bool, orderID string) (*models.Order, error)
	ListOrders(ctx context.Context, userID int64) ([]models.Order, error)
}

// PaymentService creates gateway orders and verifies payments
type PaymentService interface {
	CreateGatewayOrder(ctx context.Context, userID, amount int64, idempotencyKey string) (*payment.GatewayOrder, bool, error)
	VerifyPayment(ctx context.Context, userID int64, req *service.VerifyPaymentRequest) error
}

// ReviewService manages product reviews
type ReviewService interface {
	CreateReview(ctx context.Context, userID, productID int64, req *service.CreateReviewRequest) (*models.Review, error)
	DeleteReview(ctx context.Context, userID int64, isAdmin bool, reviewID int64) error
	ListReviews(ctx context.Context, productID int64) ([]models.Review, error)
}

// PincodeDirectory answers serviceability questions
type PincodeDirectory interface {
	Lookup(ctx context.Context, code string) (*pincode.Serviceability, error)
	Autocomplete(ctx context.Context, prefix string) ([]pincode.Suggestion, error)
}

// CouponEvaluator previews coupon discounts
type CouponEvaluator interface {
	Evaluate(ctx context.Context, code string, subtotal int64, now time.Time) (coupon.Evaluation, error)
}

// ReadinessCheck reports whether a dependency is reachable
type ReadinessCheck func(ctx context.Context) error

// Dependencies wires the handler
type Dependencies struct {
	Orders    OrderService
	Payments  PaymentService
	Reviews   ReviewService
	Pincodes  PincodeDirectory
	Coupons   CouponEvaluator
	JWTSecret []byte
	Checks    map[string]ReadinessCheck
}

// Handler contains HTTP handlers
type Handler struct {
	orders    OrderService
	payments  PaymentService
	reviews   ReviewService
	pincodes  PincodeDirectory
	coupons   CouponEvaluator
	jwtSecret []byte
	checks    map[string]ReadinessCheck
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		orders:    deps.Orders,
		payments:  deps.Payments,
		reviews:   deps.Reviews,
		pincodes:  deps.Pincodes,
		coupons:   deps.Coupons,
		jwtSecret: deps.JWTSecret,
		checks:    deps.Checks,
		logger:    util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/pincodes/check/:code", h.checkPincode)
		v1.GET("/pincodes/autocomplete", h.autocompletePincode)
		v1.GET("/products/:id/reviews", h.listReviews)
	}

	private := v1.Group("")
	private.Use(authMiddleware(h.jwtSecret))
	{
		private.POST("/payments/create-order", h.createPaymentOrder)
		private.POST("/payments/verify", h.verifyPayment)
		private.POST("/payments/paytm/initiate", h.initiatePaytm)

		private.POST("/coupons/evaluate", h.evaluateCoupon)

		private.POST("/orders", h.placeOrder)
		private.GET("/orders", h.listOrders)
		private.GET("/orders/:id", h.getOrder)
		private.POST("/orders/:id/status", requireAdmin(), h.updateOrderStatus)

		private.POST("/products/:id/reviews", h.createReview)
		private.DELETE("/reviews/:id", h.deleteReview)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every registered dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// checkPincode handles GET /pincodes/check/:code
func (h *Handler) checkPincode(c *gin.Context) {
	code := c.Param("code")

	s, err := h.pincodes.Lookup(c.Request.Context(), code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pincode":       code,
		"deliverable":   s.Deliverable,
		"city":          s.City,
		"state":         s.State,
		"estimatedDays": s.EstimatedDays,
	})
}

// autocompletePincode handles GET /pincodes/autocomplete?query=
func (h *Handler) autocompletePincode(c *gin.Context) {
	suggestions, err := h.pincodes.Autocomplete(c.Request.Context(), c.Query("query"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// createPaymentOrder handles POST /payments/create-order
func (h *Handler) createPaymentOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, replayed, err := h.payments.CreateGatewayOrder(
		c.Request.Context(), currentUser(c), *req.Amount, c.GetHeader("Idempotency-Key"))
	if err != nil {
		respondError(c, err)
		return
	}

	if replayed {
		c.Header("Idempotent-Replayed", "true")
	}
	c.JSON(http.StatusOK, gin.H{
		"gatewayOrderId": order.ID,
		"amount":         order.Amount,
		"currency":       order.Currency,
		"amountDisplay":  currency.ToDisplay(order.Amount),
	})
}

// verifyPayment handles POST /payments/verify
func (h *Handler) verifyPayment(c *gin.Context) {
	var req service.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.payments.VerifyPayment(c.Request.Context(), currentUser(c), &req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"gatewayOrderId":   req.GatewayOrderID,
		"gatewayPaymentId": req.GatewayPaymentID,
	})
}

// initiatePaytm is reserved for the second gateway
func (h *Handler) initiatePaytm(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{
		"error": "Paytm payments are not available yet",
		"code":  "not_implemented",
	})
}

type evaluateCouponRequest struct {
	Code     string `json:"code" binding:"required"`
	Subtotal *int64 `json:"subtotal" binding:"required"`
}

// evaluateCoupon previews a coupon against a cart subtotal without using it
func (h *Handler) evaluateCoupon(c *gin.Context) {
	var req evaluateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	eval, err := h.coupons.Evaluate(c.Request.Context(), req.Code, *req.Subtotal, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{
		"code":       eval.Code,
		"applicable": eval.Applicable,
		"discount":   eval.Discount,
	}
	if !eval.Applicable {
		resp["reason"] = eval.Reason
		if appErr, ok := apperr.As(eval.Err()); ok {
			resp["message"] = appErr.Message
		}
	} else {
		resp["discountDisplay"] = currency.ToDisplay(eval.Discount)
	}
	c.JSON(http.StatusOK, resp)
}

// placeOrder handles POST /orders
func (h *Handler) placeOrder(c *gin.Context) {
	var req service.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.orders.PlaceOrder(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newOrderView(order))
}

// listOrders handles GET /orders
func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": newOrderViews(orders)})
}

// getOrder handles GET /orders/:id
func (h *Handler) getOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), currentUser(c), isAdmin(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newOrderView(order))
}

// updateOrderStatus handles POST /orders/:id/status
func (h *Handler) updateOrderStatus(c *gin.Context) {
	var req service.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.orders.AdvanceStatus(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newOrderView(order))
}

// listReviews handles GET /products/:id/reviews
func (h *Handler) listReviews(c *gin.Context) {
	productID, ok := int64Param(c, "id")
	if !ok {
		return
	}

	reviews, err := h.reviews.ListReviews(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// createReview handles POST /products/:id/reviews
func (h *Handler) createReview(c *gin.Context) {
	productID, ok := int64Param(c, "id")
	if !ok {
		return
	}

	var req service.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	review, err := h.reviews.CreateReview(c.Request.Context(), currentUser(c), productID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

// deleteReview handles DELETE /reviews/:id
func (h *Handler) deleteReview(c *gin.Context) {
	reviewID, ok := int64Param(c, "id")
	if !ok {
		return
	}

	if err := h.reviews.DeleteReview(c.Request.Context(), currentUser(c), isAdmin(c), reviewID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperr.Validation("invalid_id", "Invalid "+name))
		return 0, false
	}
	return id, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
