package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchPrice_PhraseContainment(t *testing.T) {
	book := map[string]float64{"drain_cleanout": 185.00}
	assert.Equal(t, 185.00, MatchPrice("Snake and drain cleanout at main stack", book))
}

func TestMatchPrice_LongestPhraseWins(t *testing.T) {
	// Both phrases appear in the description; the longer one must win even
	// though map iteration order is arbitrary.
	book := map[string]float64{
		"panel":           10.00,
		"panel_200a_main": 285.00,
	}
	assert.Equal(t, 285.00, MatchPrice("replace panel 200a main service", book))
}

func TestMatchPrice_KeywordRuleOrder(t *testing.T) {
	book := DefaultPriceBook("electrical")

	// outlet+gfci must shadow the bare outlet rule.
	assert.Equal(t, 12.00, MatchPrice("Install GFCI outlet", book))
	assert.Equal(t, 3.50, MatchPrice("Swap outlet in bedroom", book))

	// afci outlet has no electrical book entry; rule literal applies.
	assert.Equal(t, 15.00, MatchPrice("Fit AFCI outlet in nursery", book))

	assert.Equal(t, 9.25, MatchPrice("Swap tripped breaker", book))
	assert.Equal(t, 38.00, MatchPrice("AFCI breaker for bedroom circuit", book))
	assert.Equal(t, 42.00, MatchPrice("GFCI breaker for bath", book))

	assert.Equal(t, 0.85, MatchPrice("Run 12 gauge wire to garage", book))
	assert.Equal(t, 0.65, MatchPrice("Run 14 gauge wire to porch light", book))

	assert.Equal(t, 285.00, MatchPrice("Upgrade to 200 amp panel", book))
	assert.Equal(t, 185.00, MatchPrice("Service panel work", book))
}

func TestMatchPrice_LaborFallbackChain(t *testing.T) {
	// labor_standard wins when present.
	assert.Equal(t, 85.00, MatchPrice("Rough-in installation work", DefaultPriceBook("electrical")))

	// Without labor_standard, any key containing "labor" is used.
	book := map[string]float64{"hvac_labor_standard": 95}
	assert.Equal(t, 95.00, MatchPrice("two hours on site", book))

	// With no labor keys at all, the literal applies.
	assert.Equal(t, 85.00, MatchPrice("installation visit", map[string]float64{"widget": 5}))
}

func TestMatchPrice_CategoryFallbacks(t *testing.T) {
	book := map[string]float64{}
	assert.Equal(t, 125.00, MatchPrice("Upgrade old fixture", book))
	assert.Equal(t, 125.00, MatchPrice("Replace worn gasket", book))
	assert.Equal(t, 45.00, MatchPrice("Repair loose hinge", book))
	assert.Equal(t, 25.00, MatchPrice("Misc sundries", book))
}

func TestMatchPrice_AlwaysPositiveFinite(t *testing.T) {
	books := []map[string]float64{
		{},
		DefaultPriceBook("electrical"),
		DefaultPriceBook(""),
		{"odd_key": 3.14},
	}
	descs := []string{
		"Install GFCI outlet", "x", "REPLACE EVERYTHING", "репair", "wire 12 panel 200 gfci",
	}
	for _, book := range books {
		for _, desc := range descs {
			p := MatchPrice(desc, book)
			assert.Greater(t, p, 0.0, "desc=%q", desc)
			assert.False(t, math.IsNaN(p) || math.IsInf(p, 0))
		}
	}
}

func TestMatchPrice_CaseInsensitive(t *testing.T) {
	book := DefaultPriceBook("electrical")
	assert.Equal(t, MatchPrice("install gfci outlet", book), MatchPrice("INSTALL GFCI OUTLET", book))
}
