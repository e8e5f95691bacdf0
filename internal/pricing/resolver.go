// Package pricing provides trade price book resolution and free-text
// line-item price matching.
package pricing

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// BookStore is an optional persistent layer of tenant price book entries,
// merged between the built-in defaults and caller overrides.
type BookStore interface {
	GetPriceBook(ctx context.Context, serviceType string) (map[string]float64, error)
}

// baseRates are shared by every trade: hourly labor plus flat permit and
// disposal charges.
func baseRates() map[string]float64 {
	return map[string]float64{
		"labor_standard":   85,
		"labor_emergency":  125,
		"labor_apprentice": 65,
		"permit_standard":  150.00,
		"disposal_fee":     75.00,
	}
}

// DefaultPriceBook returns the built-in price book for a service type.
// Unrecognized types get the general construction/repair book; this never
// fails.
func DefaultPriceBook(serviceType string) map[string]float64 {
	book := baseRates()

	switch strings.ToLower(serviceType) {
	case "electrical", "electric":
		book["electrical_labor_standard"] = 85
		book["outlet_standard"] = 3.50
		book["outlet_gfci"] = 12.00
		book["breaker_single_pole_20a"] = 9.25
		book["wire_12awg_romex_per_ft"] = 0.85
		book["panel_200a_main"] = 285.00
		book["surge_protector_whole_house"] = 185.00

	case "roofing", "roof":
		book["roofing_labor_standard"] = 75
		book["shingle_bundle"] = 35.00
		book["underlayment_roll"] = 45.00
		book["ridge_cap_bundle"] = 55.00
		book["flashing_linear_ft"] = 8.50
		book["roof_vent"] = 65.00
		book["drip_edge_linear_ft"] = 5.50

	case "hvac", "heating", "cooling":
		book["hvac_labor_standard"] = 95
		book["filter_standard"] = 25.00
		book["thermostat_basic"] = 85.00
		book["refrigerant_per_lb"] = 75.00
		book["ductwork_linear_ft"] = 12.50
		book["capacitor"] = 125.00

	case "plumbing":
		book["plumbing_labor_standard"] = 90
		book["pipe_copper_per_ft"] = 8.50
		book["pipe_pvc_per_ft"] = 3.25
		book["faucet_standard"] = 125.00
		book["valve_shutoff"] = 35.00
		book["drain_cleanout"] = 185.00

	default:
		book["material_standard"] = 50.00
		book["equipment_rental"] = 150.00
		book["specialty_item"] = 100.00
	}

	return book
}

// Resolver builds the effective price book for a request: built-in defaults,
// then stored tenant entries, then caller overrides, later layers winning on
// key collision.
type Resolver struct {
	store BookStore
	log   zerolog.Logger
}

// NewResolver creates a resolver. store may be nil, in which case only the
// built-in defaults and caller overrides apply.
func NewResolver(store BookStore) *Resolver {
	return &Resolver{store: store, log: log.Logger}
}

// Resolve never fails: a store read error downgrades to the built-in
// defaults with a warning.
func (r *Resolver) Resolve(ctx context.Context, serviceType string, overrides map[string]float64) map[string]float64 {
	book := DefaultPriceBook(serviceType)

	if r.store != nil {
		stored, err := r.store.GetPriceBook(ctx, serviceType)
		if err != nil {
			r.log.Warn().Err(err).Str("service_type", serviceType).Msg("price book store unavailable, using defaults")
		} else {
			for k, v := range stored {
				book[k] = v
			}
		}
	}

	for k, v := range overrides {
		book[k] = v
	}
	return book
}
