package store

import (
	"context"
	"database/sql"

	"storefront/internal/models"
)

// GetPincode retrieves a serviceability record, nil when missing
func (s *Store) GetPincode(ctx context.Context, code string) (*models.Pincode, error) {
	var p models.Pincode
	err := s.db.GetContext(ctx, &p,
		"SELECT code, city, state, is_deliverable, estimated_days FROM pincodes WHERE code = $1", code)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SearchPincodes returns up to limit records whose code starts with prefix,
// ordered by code. prefix must contain digits only.
func (s *Store) SearchPincodes(ctx context.Context, prefix string, limit int) ([]models.Pincode, error) {
	var pincodes []models.Pincode
	err := s.db.SelectContext(ctx, &pincodes, `
		SELECT code, city, state, is_deliverable, estimated_days
		FROM pincodes WHERE code LIKE $1 ORDER BY code LIMIT $2`,
		prefix+"%", limit)
	return pincodes, err
}
