package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownTier    = errors.New("catalog: unknown tier")
	ErrInvalidPricing = errors.New("catalog: invalid pricing")
)

// MinTier and MaxTier bound the tier scale.
const (
	MinTier = 1
	MaxTier = 4
)

// TierPricing is the price sheet of one tier.
type TierPricing struct {
	Tier           int             `json:"tier"`
	MonthlyPremium decimal.Decimal `json:"monthly_premium"`
	Deductible     decimal.Decimal `json:"deductible"`
	Label          string          `json:"label"`
}

// DefaultPricing returns the built-in per-tier price sheet.
func DefaultPricing() map[int]TierPricing {
	return map[int]TierPricing{
		1: {Tier: 1, MonthlyPremium: decimal.NewFromInt(6), Deductible: decimal.NewFromInt(25), Label: "Basic"},
		2: {Tier: 2, MonthlyPremium: decimal.NewFromInt(9), Deductible: decimal.NewFromInt(50), Label: "Standard"},
		3: {Tier: 3, MonthlyPremium: decimal.NewFromInt(12), Deductible: decimal.NewFromInt(75), Label: "Premium"},
		4: {Tier: 4, MonthlyPremium: decimal.NewFromInt(14), Deductible: decimal.NewFromInt(100), Label: "Elite"},
	}
}

// Catalog resolves a device to its tier and price. It is immutable after
// construction and safe for concurrent use.
type Catalog struct {
	pricing map[int]TierPricing
	models  map[Category][]BrandModels
}

// New builds a catalog from the built-in model table with optional per-tier
// pricing overrides. Fields left zero in an override keep their default.
func New(overrides map[int]TierPricing) (*Catalog, error) {
	pricing := DefaultPricing()
	for tier, override := range overrides {
		base, ok := pricing[tier]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownTier, tier)
		}
		if override.MonthlyPremium.IsNegative() || override.Deductible.IsNegative() {
			return nil, fmt.Errorf("%w: tier %d has a negative amount", ErrInvalidPricing, tier)
		}
		if !override.MonthlyPremium.IsZero() {
			base.MonthlyPremium = override.MonthlyPremium
		}
		if !override.Deductible.IsZero() {
			base.Deductible = override.Deductible
		}
		if override.Label != "" {
			base.Label = override.Label
		}
		pricing[tier] = base
	}
	return &Catalog{pricing: pricing, models: defaultModels}, nil
}

var defaultCatalog, _ = New(nil)

// Default returns the catalog with built-in pricing.
func Default() *Catalog {
	return defaultCatalog
}

// Resolve resolves a device against the built-in catalog.
func Resolve(category, brand, model string) (TierPricing, bool) {
	return defaultCatalog.Resolve(category, brand, model)
}

// Resolve returns the pricing of the tier a model maps to. The boolean is
// false for any unknown category, brand or model; callers treat that as an
// incomplete selection.
func (c *Catalog) Resolve(category, brand, model string) (TierPricing, bool) {
	if c == nil {
		return TierPricing{}, false
	}
	for _, bm := range c.models[Category(category)] {
		if bm.Brand != brand {
			continue
		}
		for _, m := range bm.Models {
			if m.Name == model {
				pricing, ok := c.pricing[m.Tier]
				return pricing, ok
			}
		}
		return TierPricing{}, false
	}
	return TierPricing{}, false
}

// Pricing returns the price sheet of a tier.
func (c *Catalog) Pricing(tier int) (TierPricing, bool) {
	if c == nil {
		return TierPricing{}, false
	}
	pricing, ok := c.pricing[tier]
	return pricing, ok
}

// Tiers returns every tier price sheet ordered by tier.
func (c *Catalog) Tiers() []TierPricing {
	if c == nil {
		return nil
	}
	out := make([]TierPricing, 0, len(c.pricing))
	for _, pricing := range c.pricing {
		out = append(out, pricing)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tier < out[j].Tier })
	return out
}

// Categories lists the offered categories in display order.
func (c *Catalog) Categories() []Category {
	return append([]Category(nil), categoryOrder...)
}

// Brands lists the brands of a category.
func (c *Catalog) Brands(category string) []string {
	if c == nil {
		return nil
	}
	entries := c.models[Category(category)]
	out := make([]string, 0, len(entries))
	for _, bm := range entries {
		out = append(out, bm.Brand)
	}
	return out
}

// Models lists the models of a brand within a category.
func (c *Catalog) Models(category, brand string) []Model {
	if c == nil {
		return nil
	}
	for _, bm := range c.models[Category(category)] {
		if bm.Brand == brand {
			return append([]Model(nil), bm.Models...)
		}
	}
	return nil
}
