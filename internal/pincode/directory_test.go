package pincode

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	records map[string]models.Pincode
	gets    int
	err     error
}

func newFakeRepo(records ...models.Pincode) *fakeRepo {
	r := &fakeRepo{records: make(map[string]models.Pincode)}
	for _, p := range records {
		r.records[p.Code] = p
	}
	return r
}

func (r *fakeRepo) GetPincode(ctx context.Context, code string) (*models.Pincode, error) {
	r.gets++
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.records[code]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *fakeRepo) SearchPincodes(ctx context.Context, prefix string, limit int) ([]models.Pincode, error) {
	var out []models.Pincode
	for code, p := range r.records {
		if strings.HasPrefix(code, prefix) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeCache struct {
	entries map[string]models.Pincode
}

func (c *fakeCache) GetPincode(ctx context.Context, code string) (*models.Pincode, bool, error) {
	p, ok := c.entries[code]
	if !ok {
		return nil, false, nil
	}
	return &p, true, nil
}

func (c *fakeCache) SetPincode(ctx context.Context, p *models.Pincode, ttl time.Duration) error {
	c.entries[p.Code] = *p
	return nil
}

var seeded = []models.Pincode{
	{Code: "110001", City: "New Delhi", State: "Delhi", IsDeliverable: true, EstimatedDays: 2},
	{Code: "110003", City: "New Delhi", State: "Delhi", IsDeliverable: true, EstimatedDays: 2},
	{Code: "201301", City: "Noida", State: "Uttar Pradesh", IsDeliverable: true, EstimatedDays: 2},
	{Code: "400001", City: "Mumbai", State: "Maharashtra", IsDeliverable: true, EstimatedDays: 3},
	{Code: "560001", City: "Bengaluru", State: "Karnataka", IsDeliverable: false, EstimatedDays: 3},
}

func TestLookupFound(t *testing.T) {
	d := NewDirectory(newFakeRepo(seeded...), nil, 0)

	got, err := d.Lookup(context.Background(), "400001")
	require.NoError(t, err)
	assert.True(t, got.Deliverable)
	assert.Equal(t, "Mumbai", got.City)
	assert.Equal(t, "Maharashtra", got.State)
	assert.Equal(t, 3, got.EstimatedDays)
}

func TestLookupUndeliverableIsStillFound(t *testing.T) {
	d := NewDirectory(newFakeRepo(seeded...), nil, 0)

	got, err := d.Lookup(context.Background(), "560001")
	require.NoError(t, err)
	assert.False(t, got.Deliverable)
}

func TestLookupNotSeeded(t *testing.T) {
	d := NewDirectory(newFakeRepo(seeded...), nil, 0)

	for _, code := range []string{"000000", "999999", "110002"} {
		_, err := d.Lookup(context.Background(), code)
		assert.ErrorIs(t, err, ErrNotFound, code)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	}
}

func TestLookupInvalidFormat(t *testing.T) {
	repo := newFakeRepo(seeded...)
	d := NewDirectory(repo, nil, 0)

	for _, code := range []string{"", "11000", "1100011", "11000a", " 110001", "११०००१"} {
		_, err := d.Lookup(context.Background(), code)
		assert.ErrorIs(t, err, ErrInvalidFormat, "code=%q", code)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	}
	assert.Zero(t, repo.gets)
}

func TestLookupRepositoryError(t *testing.T) {
	repo := newFakeRepo()
	repo.err = errors.New("connection refused")
	d := NewDirectory(repo, nil, 0)

	_, err := d.Lookup(context.Background(), "110001")
	require.Error(t, err)
	assert.Equal(t, apperr.KindServer, apperr.KindOf(err))
}

func TestLookupUsesCache(t *testing.T) {
	repo := newFakeRepo(seeded...)
	cache := &fakeCache{entries: make(map[string]models.Pincode)}
	d := NewDirectory(repo, cache, time.Hour)

	_, err := d.Lookup(context.Background(), "110001")
	require.NoError(t, err)
	_, err = d.Lookup(context.Background(), "110001")
	require.NoError(t, err)

	assert.Equal(t, 1, repo.gets)
	assert.Contains(t, cache.entries, "110001")
}

func TestAutocomplete(t *testing.T) {
	d := NewDirectory(newFakeRepo(seeded...), nil, 0)

	got, err := d.Autocomplete(context.Background(), "110")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "110001", got[0].Code)
	assert.Equal(t, "110003", got[1].Code)
}

func TestAutocompleteCapsResults(t *testing.T) {
	var many []models.Pincode
	for i := 0; i < 25; i++ {
		many = append(many, models.Pincode{Code: fmt.Sprintf("1100%02d", i), City: "New Delhi", State: "Delhi"})
	}
	d := NewDirectory(newFakeRepo(many...), nil, 0)

	got, err := d.Autocomplete(context.Background(), "1100")
	require.NoError(t, err)
	assert.Len(t, got, MaxSuggestions)
	for _, s := range got {
		assert.True(t, strings.HasPrefix(s.Code, "1100"))
	}
}

func TestAutocompleteRejectsShortPrefix(t *testing.T) {
	d := NewDirectory(newFakeRepo(seeded...), nil, 0)

	for _, prefix := range []string{"", "1", "11", "11a", "1100011"} {
		_, err := d.Autocomplete(context.Background(), prefix)
		assert.ErrorIs(t, err, ErrInvalidPrefix, "prefix=%q", prefix)
	}
}

func TestAutocompleteNoMatches(t *testing.T) {
	d := NewDirectory(newFakeRepo(seeded...), nil, 0)

	got, err := d.Autocomplete(context.Background(), "999")
	require.NoError(t, err)
	assert.Empty(t, got)
}
