package analysis

import (
	"encoding/json"
	"regexp"
	"strings"

	"tradeworks-estimate/pkg/api"
)

// Parse sources, reported for observability.
const (
	sourceJSON      = "json"
	sourceExtracted = "extracted"
	sourceFallback  = "fallback"
)

var jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

// ParsePricingSuggestions turns model output into priced tiers, degrading in
// stages: strict JSON parse, then extraction of the first JSON array
// substring, then a hardcoded realistic structure. Model-response parsing
// never fails the request.
func ParsePricingSuggestions(content string) ([]api.PricedTier, string) {
	var tiers []api.PricedTier
	if err := json.Unmarshal([]byte(content), &tiers); err == nil && len(tiers) > 0 {
		return tiers, sourceJSON
	}

	if m := jsonArrayPattern.FindString(content); m != "" {
		tiers = nil
		if err := json.Unmarshal([]byte(m), &tiers); err == nil && len(tiers) > 0 {
			return tiers, sourceExtracted
		}
	}

	return FallbackPricingSuggestions(), sourceFallback
}

// FallbackPricingSuggestions is the degraded-but-usable tier structure
// substituted when the model's pricing output cannot be parsed at all.
func FallbackPricingSuggestions() []api.PricedTier {
	return []api.PricedTier{
		{
			TierName:    "Good",
			Description: "Basic repair based on AI analysis",
			TotalAmount: 350,
			LineItems: []api.LineItem{
				item("Emergency repair - immediate safety concerns", 1, "service", 250),
				item("Parts and materials", 1, "material", 100),
			},
		},
		{
			TierName:    "Better",
			Description: "Comprehensive repair with improvements",
			TotalAmount: 650,
			LineItems: []api.LineItem{
				item("Full repair and safety upgrade", 1, "service", 450),
				item("Enhanced components and materials", 1, "material", 200),
			},
		},
		{
			TierName:    "Best",
			Description: "Complete system upgrade with warranty",
			TotalAmount: 1200,
			LineItems: []api.LineItem{
				item("Full system replacement and upgrade", 1, "service", 800),
				item("Premium components with extended warranty", 1, "material", 400),
			},
		},
	}
}

func item(desc string, qty float64, itemType string, unitPrice float64) api.LineItem {
	total := unitPrice * qty
	return api.LineItem{
		Description: desc,
		Quantity:    qty,
		Unit:        "ea",
		ItemType:    itemType,
		UnitPrice:   &unitPrice,
		TotalPrice:  &total,
	}
}

func serializePhotoAnalyses(analyses []api.PhotoAnalysis) string {
	if len(analyses) == 0 {
		return ""
	}
	b, _ := json.Marshal(analyses)
	return string(b)
}

func serializeStrings(parts []string) string {
	return strings.Join(parts, "\n\n")
}
