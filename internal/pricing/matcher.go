package pricing

import (
	"sort"
	"strings"
)

// keywordRule maps a description predicate to a price book key, with a
// literal price when the book has no usable entry for that key.
type keywordRule struct {
	match   func(desc string) bool
	bookKey string
	price   float64
}

func has(term string) func(string) bool {
	return func(desc string) bool { return strings.Contains(desc, term) }
}

func hasBoth(a, b string) func(string) bool {
	return func(desc string) bool {
		return strings.Contains(desc, a) && strings.Contains(desc, b)
	}
}

// keywordRules is an ordered decision list: earlier rules intentionally
// shadow later, more general ones (outlet+gfci before bare outlet), so it
// must be evaluated top to bottom.
var keywordRules = []keywordRule{
	{hasBoth("outlet", "gfci"), "outlet_gfci", 12.00},
	{hasBoth("outlet", "afci"), "outlet_afci", 15.00},
	{has("outlet"), "outlet_standard", 3.50},

	{hasBoth("breaker", "afci"), "breaker_afci_20a", 38.00},
	{hasBoth("breaker", "gfci"), "breaker_gfci_20a", 42.00},
	{has("breaker"), "breaker_single_pole_20a", 9.25},

	{hasBoth("wire", "12"), "wire_12awg_romex_per_ft", 0.85},
	{hasBoth("wire", "14"), "wire_14awg_romex_per_ft", 0.65},
	{has("wire"), "wire_12awg_romex_per_ft", 0.85},

	{hasBoth("panel", "200"), "panel_200a_main", 285.00},
	{has("panel"), "panel_100a_main", 185.00},

	{has("permit"), "electrical_permit", 150.00},
	{has("disposal"), "disposal_fee", 75.00},
	{has("surge"), "surge_protector_whole_house", 185.00},
}

// MatchPrice resolves a unit price for a free-text line-item description.
// It tries, in order: phrase containment against every book key (longest
// phrase wins), the keyword decision list, labor keywords, and finally fixed
// category fallbacks. It always returns a positive price.
func MatchPrice(description string, priceBook map[string]float64) float64 {
	desc := strings.ToLower(description)

	// Phrase containment: keys with underscores replaced by spaces, tested
	// longest-first so "outlet gfci" beats "outlet".
	keys := make([]string, 0, len(priceBook))
	for k := range priceBook {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		phrase := strings.ReplaceAll(k, "_", " ")
		if strings.Contains(desc, phrase) {
			return priceBook[k]
		}
	}

	for _, r := range keywordRules {
		if !r.match(desc) {
			continue
		}
		if p, ok := priceBook[r.bookKey]; ok && p != 0 {
			return p
		}
		return r.price
	}

	if strings.Contains(desc, "install") || strings.Contains(desc, "labor") || strings.Contains(desc, "hour") {
		if p, ok := priceBook["labor_standard"]; ok && p != 0 {
			return p
		}
		for _, k := range keys {
			if strings.Contains(k, "labor") && priceBook[k] != 0 {
				return priceBook[k]
			}
		}
		return 85.00
	}

	if strings.Contains(desc, "upgrade") || strings.Contains(desc, "replace") {
		return 125.00
	}
	if strings.Contains(desc, "repair") {
		return 45.00
	}
	return 25.00
}
