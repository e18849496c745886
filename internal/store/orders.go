package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/jmoiron/sqlx"
)

// orderRow is the flattened orders table row
type orderRow struct {
	ID                    string         `db:"id"`
	UserID                int64          `db:"user_id"`
	ShippingAddress       models.Address `db:"shipping_address"`
	Subtotal              int64          `db:"subtotal"`
	Tax                   int64          `db:"tax"`
	ShippingFee           int64          `db:"shipping_fee"`
	Discount              int64          `db:"discount"`
	Total                 int64          `db:"total"`
	CouponCode            sql.NullString `db:"coupon_code"`
	PaymentMethod         string         `db:"payment_method"`
	PaymentStatus         string         `db:"payment_status"`
	GatewayOrderID        sql.NullString `db:"gateway_order_id"`
	GatewayPaymentID      sql.NullString `db:"gateway_payment_id"`
	PaymentSignature      sql.NullString `db:"payment_signature"`
	Status                string         `db:"status"`
	EstimatedDeliveryDays int            `db:"estimated_delivery_days"`
	CreatedAt             time.Time      `db:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at"`
}

const orderColumns = `id, user_id, shipping_address, subtotal, tax, shipping_fee, discount, total,
	coupon_code, payment_method, payment_status, gateway_order_id, gateway_payment_id,
	payment_signature, status, estimated_delivery_days, created_at, updated_at`

func (r orderRow) toModel() *models.Order {
	return &models.Order{
		ID:              r.ID,
		UserID:          r.UserID,
		ShippingAddress: r.ShippingAddress,
		Subtotal:        r.Subtotal,
		Tax:             r.Tax,
		ShippingFee:     r.ShippingFee,
		Discount:        r.Discount,
		Total:           r.Total,
		CouponCode:      r.CouponCode.String,
		Payment: models.Payment{
			Method:           models.PaymentMethod(r.PaymentMethod),
			Status:           models.PaymentStatus(r.PaymentStatus),
			GatewayOrderID:   r.GatewayOrderID.String,
			GatewayPaymentID: r.GatewayPaymentID.String,
			Signature:        r.PaymentSignature.String,
		},
		Status:                models.OrderStatus(r.Status),
		EstimatedDeliveryDays: r.EstimatedDeliveryDays,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
		Items:                 []models.OrderItem{},
		StatusHistory:         []models.StatusEntry{},
	}
}

// CreateOrder persists an order with its items and initial history in one
// transaction. A reused gateway payment id returns ErrDuplicate.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		order.ID, order.UserID, order.ShippingAddress, order.Subtotal, order.Tax, order.ShippingFee,
		order.Discount, order.Total, nullString(order.CouponCode),
		string(order.Payment.Method), string(order.Payment.Status),
		nullString(order.Payment.GatewayOrderID), nullString(order.Payment.GatewayPaymentID),
		nullString(order.Payment.Signature),
		string(order.Status), order.EstimatedDeliveryDays, order.CreatedAt, order.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err = tx.GetContext(ctx, &item.ID, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price, tax_applicable)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.TaxApplicable)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	for i := range order.StatusHistory {
		entry := &order.StatusHistory[i]
		entry.OrderID = order.ID
		if err := insertStatusEntry(ctx, tx, entry); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// AppendOrderStatus records a history entry and moves the order's current
// status in one transaction
func (s *Store) AppendOrderStatus(ctx context.Context, entry *models.StatusEntry) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3",
		string(entry.Status), entry.Timestamp, entry.OrderID)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("order not found: %s", entry.OrderID)
	}

	if err := insertStatusEntry(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit()
}

func insertStatusEntry(ctx context.Context, tx *sqlx.Tx, entry *models.StatusEntry) error {
	err := tx.GetContext(ctx, &entry.ID, `
		INSERT INTO order_status_history (order_id, status, comment, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		entry.OrderID, string(entry.Status), entry.Comment, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert status entry: %w", err)
	}
	return nil
}

// GetOrderByID retrieves an order with items and history, nil when missing
func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var row orderRow
	err := s.db.GetContext(ctx, &row, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	order := row.toModel()
	if err := s.loadOrderChildren(ctx, []*models.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrdersByUserID retrieves a user's orders, newest first
func (s *Store) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	var rows []orderRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}

	orders := make([]*models.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, row.toModel())
	}
	if err := s.loadOrderChildren(ctx, orders); err != nil {
		return nil, err
	}

	result := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		result = append(result, *o)
	}
	return result, nil
}

// HasPurchased reports whether userID has an order containing productID
func (s *Store) HasPurchased(ctx context.Context, userID, productID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM order_items i JOIN orders o ON o.id = i.order_id
			WHERE o.user_id = $1 AND i.product_id = $2
		)`, userID, productID)
	return exists, err
}

func (s *Store) loadOrderChildren(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[string]*models.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	query, args, err := sqlx.In(`
		SELECT id, order_id, product_id, quantity, unit_price, tax_applicable
		FROM order_items WHERE order_id IN (?) ORDER BY id`, ids)
	if err != nil {
		return err
	}
	var items []models.OrderItem
	if err := s.db.SelectContext(ctx, &items, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	for _, item := range items {
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}

	query, args, err = sqlx.In(`
		SELECT id, order_id, status, comment, created_at
		FROM order_status_history WHERE order_id IN (?) ORDER BY created_at, id`, ids)
	if err != nil {
		return err
	}
	var history []models.StatusEntry
	if err := s.db.SelectContext(ctx, &history, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to load status history: %w", err)
	}
	for _, entry := range history {
		if o, ok := byID[entry.OrderID]; ok {
			o.StatusHistory = append(o.StatusHistory, entry)
		}
	}

	return nil
}
