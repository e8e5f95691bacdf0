package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPriceBook_BaseRatesAlwaysPresent(t *testing.T) {
	for _, st := range []string{"electrical", "roofing", "hvac", "plumbing", "general", "", "landscaping"} {
		book := DefaultPriceBook(st)
		assert.Equal(t, 85.0, book["labor_standard"], st)
		assert.Equal(t, 125.0, book["labor_emergency"], st)
		assert.Equal(t, 65.0, book["labor_apprentice"], st)
		assert.Equal(t, 150.0, book["permit_standard"], st)
		assert.Equal(t, 75.0, book["disposal_fee"], st)
	}
}

func TestDefaultPriceBook_ServiceTypeAliases(t *testing.T) {
	assert.Equal(t, DefaultPriceBook("electrical"), DefaultPriceBook("Electric"))
	assert.Equal(t, DefaultPriceBook("roofing"), DefaultPriceBook("ROOF"))
	assert.Equal(t, DefaultPriceBook("hvac"), DefaultPriceBook("heating"))
	assert.Equal(t, DefaultPriceBook("hvac"), DefaultPriceBook("cooling"))
}

func TestDefaultPriceBook_CategoryEntries(t *testing.T) {
	assert.Equal(t, 12.00, DefaultPriceBook("electrical")["outlet_gfci"])
	assert.Equal(t, 35.00, DefaultPriceBook("roofing")["shingle_bundle"])
	assert.Equal(t, 95.0, DefaultPriceBook("hvac")["hvac_labor_standard"])
	assert.Equal(t, 8.50, DefaultPriceBook("plumbing")["pipe_copper_per_ft"])
}

func TestDefaultPriceBook_UnknownFallsBackToGeneric(t *testing.T) {
	book := DefaultPriceBook("landscaping")
	assert.Equal(t, 50.00, book["material_standard"])
	assert.Equal(t, 150.00, book["equipment_rental"])
	assert.Equal(t, 100.00, book["specialty_item"])
	assert.NotContains(t, book, "outlet_gfci")
}

func TestResolver_OverridesWin(t *testing.T) {
	r := NewResolver(nil)
	book := r.Resolve(context.Background(), "electrical", map[string]float64{
		"outlet_gfci": 20.00,
		"custom_part": 9.99,
	})
	assert.Equal(t, 20.00, book["outlet_gfci"])
	assert.Equal(t, 9.99, book["custom_part"])
	assert.Equal(t, 85.0, book["labor_standard"])
}

type stubBookStore struct {
	book map[string]float64
	err  error
}

func (s *stubBookStore) GetPriceBook(ctx context.Context, serviceType string) (map[string]float64, error) {
	return s.book, s.err
}

func TestResolver_StoreLayerBetweenDefaultsAndOverrides(t *testing.T) {
	store := &stubBookStore{book: map[string]float64{
		"outlet_gfci":    14.00,
		"labor_standard": 110,
	}}
	r := NewResolver(store)

	book := r.Resolve(context.Background(), "electrical", map[string]float64{"labor_standard": 120})
	assert.Equal(t, 14.00, book["outlet_gfci"], "store overrides defaults")
	assert.Equal(t, 120.0, book["labor_standard"], "caller overrides store")
}

func TestResolver_StoreErrorDowngradesToDefaults(t *testing.T) {
	r := NewResolver(&stubBookStore{err: errors.New("connection refused")})
	book := r.Resolve(context.Background(), "electrical", nil)
	require.NotNil(t, book)
	assert.Equal(t, 12.00, book["outlet_gfci"])
}
