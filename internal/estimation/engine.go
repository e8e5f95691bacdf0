// Package estimation prices quality tiers: it assigns unit prices to every
// line item, applies caller target totals, and enforces the default
// Good/Better/Best spread when no targets are given.
package estimation

import (
	"context"
	"fmt"

	"tradeworks-estimate/internal/pricing"
	"tradeworks-estimate/pkg/api"
	"tradeworks-estimate/pkg/platform"
)

// Tier descriptions for the conventional tier names; anything else gets the
// generic professional-service blurb.
const (
	descGood   = "Essential repairs and code compliance"
	descBetter = "Enhanced safety with modern upgrades"
	descBest   = "Premium solution with comprehensive improvements"
)

// Engine runs the tier pricing pipeline. It holds no per-request state.
type Engine struct {
	resolver *pricing.Resolver
}

// NewEngine creates an engine over a price book resolver.
func NewEngine(resolver *pricing.Resolver) *Engine {
	return &Engine{resolver: resolver}
}

// Price validates the request, prices every tier against the resolved price
// book, applies target overrides, and runs the default proportional
// adjustment when no custom targets were supplied.
func (e *Engine) Price(ctx context.Context, req api.PriceAndNarrateRequest) ([]api.PricedTier, error) {
	if len(req.Tiers) == 0 {
		return nil, fmt.Errorf("tiers array is required and must not be empty")
	}
	for _, tier := range req.Tiers {
		if tier.LineItems == nil {
			return nil, fmt.Errorf("Invalid tier structure: %s missing line_items array", tier.TierName)
		}
	}

	serviceType := req.JobMeta.ServiceTypeOr("general")
	book := e.resolver.Resolve(ctx, serviceType, req.PriceBook)

	priced := make([]api.PricedTier, len(req.Tiers))
	for i, tier := range req.Tiers {
		priced[i] = priceTier(tier, book, req.TargetPrices, req.JobMeta)
	}

	if !req.TargetPrices.HasCustom() {
		priced = ApplyDefaultSpread(priced)
	}
	return priced, nil
}

func priceTier(tier api.Tier, book map[string]float64, targets api.TargetPrices, meta *api.JobMeta) api.PricedTier {
	items := make([]api.LineItem, len(tier.LineItems))
	var natural float64
	for i, item := range tier.LineItems {
		unit := platform.Round2(pricing.MatchPrice(item.Description, book))
		total := platform.Round2(unit * item.Quantity)
		item.UnitPrice = &unit
		item.TotalPrice = &total
		items[i] = item
		natural += total
	}

	totalAmount := natural

	// Caller target wins exactly; line items are rescaled proportionally so
	// relative item weights survive. A zero natural total cannot be rescaled.
	if target, ok := targets[tier.TierName]; ok && target > 0 {
		totalAmount = target
		if natural > 0 {
			scaleItems(items, target/natural)
		}
	}

	return api.PricedTier{
		TierName:    tier.TierName,
		Description: tierDescription(tier.TierName, meta),
		TotalAmount: platform.Round2(totalAmount),
		LineItems:   items,
	}
}

func tierDescription(tierName string, meta *api.JobMeta) string {
	switch lower(tierName) {
	case "good":
		return descGood
	case "better":
		return descBetter
	case "best":
		return descBest
	default:
		return fmt.Sprintf("Professional %s service", meta.ServiceTypeOr("repair"))
	}
}

// scaleItems multiplies every line item's unit and total price by factor,
// rounding each to 2 decimals. Prices that were never assigned stay nil.
func scaleItems(items []api.LineItem, factor float64) {
	for i := range items {
		if items[i].UnitPrice != nil {
			v := platform.Round2(*items[i].UnitPrice * factor)
			items[i].UnitPrice = &v
		}
		if items[i].TotalPrice != nil {
			v := platform.Round2(*items[i].TotalPrice * factor)
			items[i].TotalPrice = &v
		}
	}
}
