package store

import (
	"context"
	"database/sql"

	"storefront/internal/models"

	"github.com/jmoiron/sqlx"
)

const productColumns = `id, sku, title, category, price, stock_qty, is_gst_applicable,
	rating_average, rating_count, created_at`

// GetProductByID retrieves a product by ID, nil when missing
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductsByIDs retrieves multiple products by IDs
func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In("SELECT "+productColumns+" FROM products WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var products []models.Product
	err = s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// ProductRatingStats aggregates the reviews of a product
func (s *Store) ProductRatingStats(ctx context.Context, productID int64) (float64, int, error) {
	var stats struct {
		Average float64 `db:"average"`
		Count   int     `db:"count"`
	}
	err := s.db.GetContext(ctx, &stats,
		"SELECT COALESCE(AVG(rating), 0)::float8 AS average, COUNT(*) AS count FROM reviews WHERE product_id = $1",
		productID)
	if err != nil {
		return 0, 0, err
	}
	return stats.Average, stats.Count, nil
}

// UpdateProductRating stores the materialized rating of a product
func (s *Store) UpdateProductRating(ctx context.Context, productID int64, average float64, count int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE products SET rating_average = $1, rating_count = $2 WHERE id = $3",
		average, count, productID)
	return err
}
