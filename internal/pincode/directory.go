package pincode

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// MaxSuggestions caps autocomplete results
const MaxSuggestions = 10

var (
	codeRe   = regexp.MustCompile(`^\d{6}$`)
	prefixRe = regexp.MustCompile(`^\d{3,6}$`)

	ErrInvalidFormat = apperr.Validation("invalid_format", "Invalid pincode format. Please enter a 6-digit pincode.")
	ErrInvalidPrefix = apperr.Validation("invalid_format", "Please provide at least 3 digits of pincode")
	ErrNotFound      = apperr.NotFound("pincode_not_found", "Pincode not found in our database")
)

// Repository reads pincode records. GetPincode returns nil, nil when missing.
type Repository interface {
	GetPincode(ctx context.Context, code string) (*models.Pincode, error)
	SearchPincodes(ctx context.Context, prefix string, limit int) ([]models.Pincode, error)
}

// Cache holds looked-up records in front of the repository
type Cache interface {
	GetPincode(ctx context.Context, code string) (*models.Pincode, bool, error)
	SetPincode(ctx context.Context, p *models.Pincode, ttl time.Duration) error
}

// Serviceability is the lookup result for a single pincode
type Serviceability struct {
	Code          string `json:"-"`
	Deliverable   bool   `json:"deliverable"`
	City          string `json:"city"`
	State         string `json:"state"`
	EstimatedDays int    `json:"estimatedDays"`
}

// Suggestion is an autocomplete entry
type Suggestion struct {
	Code  string `json:"code"`
	City  string `json:"city"`
	State string `json:"state"`
}

// Directory answers pincode serviceability questions
type Directory struct {
	repo     Repository
	cache    Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewDirectory creates a directory; cache may be nil
func NewDirectory(repo Repository, cache Cache, cacheTTL time.Duration) *Directory {
	return &Directory{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   util.GetLogger(),
	}
}

// ValidCode reports whether code is exactly six ASCII digits
func ValidCode(code string) bool {
	return codeRe.MatchString(code)
}

// Lookup returns delivery information for a 6-digit pincode
func (d *Directory) Lookup(ctx context.Context, code string) (*Serviceability, error) {
	ctx, span := util.StartSpan(ctx, "Directory.Lookup")
	defer span.End()

	if !ValidCode(code) {
		util.PincodeLookupsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidFormat
	}

	record, err := d.get(ctx, code)
	if err != nil {
		return nil, err
	}
	if record == nil {
		util.PincodeLookupsTotal.WithLabelValues("not_found").Inc()
		return nil, ErrNotFound
	}

	util.PincodeLookupsTotal.WithLabelValues("found").Inc()
	return &Serviceability{
		Code:          record.Code,
		Deliverable:   record.IsDeliverable,
		City:          record.City,
		State:         record.State,
		EstimatedDays: record.EstimatedDays,
	}, nil
}

func (d *Directory) get(ctx context.Context, code string) (*models.Pincode, error) {
	if d.cache != nil {
		cached, ok, err := d.cache.GetPincode(ctx, code)
		if err != nil {
			d.logger.Warn("Pincode cache read failed, falling back to DB",
				zap.String("pincode", code),
				zap.Error(err))
		} else if ok {
			util.PincodeCacheHitsTotal.Inc()
			return cached, nil
		}
		util.PincodeCacheMissesTotal.Inc()
	}

	record, err := d.repo.GetPincode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get pincode: %w", err)
	}

	if record != nil && d.cache != nil {
		if err := d.cache.SetPincode(ctx, record, d.cacheTTL); err != nil {
			d.logger.Warn("Failed to cache pincode",
				zap.String("pincode", code),
				zap.Error(err))
		}
	}

	return record, nil
}

// Autocomplete returns up to MaxSuggestions pincodes starting with prefix
func (d *Directory) Autocomplete(ctx context.Context, prefix string) ([]Suggestion, error) {
	ctx, span := util.StartSpan(ctx, "Directory.Autocomplete")
	defer span.End()

	if !prefixRe.MatchString(prefix) {
		return nil, ErrInvalidPrefix
	}

	records, err := d.repo.SearchPincodes(ctx, prefix, MaxSuggestions)
	if err != nil {
		return nil, fmt.Errorf("failed to search pincodes: %w", err)
	}

	suggestions := make([]Suggestion, 0, len(records))
	for _, r := range records {
		if len(suggestions) == MaxSuggestions {
			break
		}
		if !strings.HasPrefix(r.Code, prefix) {
			continue
		}
		suggestions = append(suggestions, Suggestion{Code: r.Code, City: r.City, State: r.State})
	}

	return suggestions, nil
}
