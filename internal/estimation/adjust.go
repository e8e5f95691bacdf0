package estimation

import (
	"strings"

	"tradeworks-estimate/pkg/api"
	"tradeworks-estimate/pkg/platform"
)

// Band of believable Good-tier totals; anything outside is clamped to the
// anchor. Better and Best are then re-derived as fixed multiples of Good.
// These values are business policy and must not drift.
const (
	goodFloor   = 200.0
	goodCeiling = 5000.0
	goodAnchor  = 800.0

	betterMultiplier = 1.3
	bestMultiplier   = 1.6
)

func lower(s string) string { return strings.ToLower(s) }

// ApplyDefaultSpread enforces the default tier spread when the caller gave
// no target prices: Good is clamped into [200, 5000] (anchored at 800 when
// outside), then Better and Best become Good x1.3 and x1.6 with their line
// items rescaled. Tiers are copied, not mutated; unknown tier names pass
// through unchanged.
func ApplyDefaultSpread(tiers []api.PricedTier) []api.PricedTier {
	out := make([]api.PricedTier, len(tiers))
	for i, t := range tiers {
		out[i] = t
		out[i].LineItems = cloneItems(t.LineItems)
	}

	var good, better, best *api.PricedTier
	for i := range out {
		switch lower(out[i].TierName) {
		case "good":
			if good == nil {
				good = &out[i]
			}
		case "better":
			if better == nil {
				better = &out[i]
			}
		case "best":
			if best == nil {
				best = &out[i]
			}
		}
	}

	var goodTotal float64
	if good != nil {
		goodTotal = good.TotalAmount
	}

	if goodTotal < goodFloor || goodTotal > goodCeiling {
		if good != nil && goodTotal > 0 {
			scaleItems(good.LineItems, goodAnchor/goodTotal)
			good.TotalAmount = goodAnchor
			goodTotal = goodAnchor
		}
	}

	if better != nil && goodTotal > 0 {
		rescaleTo(better, platform.Round2(goodTotal*betterMultiplier))
	}
	if best != nil && goodTotal > 0 {
		rescaleTo(best, platform.Round2(goodTotal*bestMultiplier))
	}

	return out
}

// rescaleTo sets a tier's total to target and scales its line items to
// match. A zero current total is treated as 1 so empty or unpriced tiers
// still land on the target without dividing by zero.
func rescaleTo(tier *api.PricedTier, target float64) {
	current := tier.TotalAmount
	if current == 0 {
		current = 1
	}
	scaleItems(tier.LineItems, target/current)
	tier.TotalAmount = target
}

func cloneItems(items []api.LineItem) []api.LineItem {
	out := make([]api.LineItem, len(items))
	for i, it := range items {
		if it.UnitPrice != nil {
			v := *it.UnitPrice
			it.UnitPrice = &v
		}
		if it.TotalPrice != nil {
			v := *it.TotalPrice
			it.TotalPrice = &v
		}
		out[i] = it
	}
	return out
}
