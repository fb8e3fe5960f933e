package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_KnownModels(t *testing.T) {
	cases := []struct {
		category, brand, model string
		tier                   int
		premium, deductible    int64
		label                  string
	}{
		{"smartphone", "Apple", "iPhone 15 Pro Max", 4, 14, 100, "Elite"},
		{"smartphone", "Apple", "iPhone SE", 1, 6, 25, "Basic"},
		{"smartphone", "Google", "Pixel 7a", 2, 9, 50, "Standard"},
		{"console", "Sony", "PlayStation 5", 3, 12, 75, "Premium"},
		{"laptop", "Apple", `MacBook Pro 16"`, 4, 14, 100, "Elite"},
		{"audio", "Sennheiser", "Momentum True Wireless 3", 2, 9, 50, "Standard"},
		{"drone", "DJI", "Mini 2 SE", 1, 6, 25, "Basic"},
	}
	for _, tc := range cases {
		got, ok := Resolve(tc.category, tc.brand, tc.model)
		require.True(t, ok, "%s/%s/%s", tc.category, tc.brand, tc.model)
		assert.Equal(t, tc.tier, got.Tier)
		assert.True(t, got.MonthlyPremium.Equal(decimal.NewFromInt(tc.premium)))
		assert.True(t, got.Deductible.Equal(decimal.NewFromInt(tc.deductible)))
		assert.Equal(t, tc.label, got.Label)
	}
}

func TestResolve_Unknown(t *testing.T) {
	_, ok := Resolve("smartphone", "Apple", "iPhone 3G")
	assert.False(t, ok)
	_, ok = Resolve("smartphone", "Nokia", "3310")
	assert.False(t, ok)
	_, ok = Resolve("toaster", "Apple", "iPhone 15")
	assert.False(t, ok)
	// Brand lookup is exact.
	_, ok = Resolve("smartphone", "apple", "iPhone 15")
	assert.False(t, ok)
}

func TestResolve_Deterministic(t *testing.T) {
	first, ok := Resolve("tablet", "Samsung", "Galaxy Tab S9")
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		again, _ := Resolve("tablet", "Samsung", "Galaxy Tab S9")
		assert.Equal(t, first.Tier, again.Tier)
	}
}

func TestEveryModelResolves(t *testing.T) {
	c := Default()
	for _, category := range c.Categories() {
		brands := c.Brands(string(category))
		require.NotEmpty(t, brands, "category %s", category)
		for _, brand := range brands {
			for _, model := range c.Models(string(category), brand) {
				got, ok := c.Resolve(string(category), brand, model.Name)
				require.True(t, ok)
				assert.Equal(t, model.Tier, got.Tier)
				assert.GreaterOrEqual(t, got.Tier, MinTier)
				assert.LessOrEqual(t, got.Tier, MaxTier)
			}
		}
	}
}

func TestNew_PricingOverride(t *testing.T) {
	c, err := New(map[int]TierPricing{
		4: {MonthlyPremium: decimal.RequireFromString("15.50")},
	})
	require.NoError(t, err)

	got, ok := c.Resolve("smartphone", "Apple", "iPhone 15 Pro")
	require.True(t, ok)
	assert.True(t, got.MonthlyPremium.Equal(decimal.RequireFromString("15.50")))
	assert.True(t, got.Deductible.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "Elite", got.Label)

	// The shared default is untouched.
	def, _ := Resolve("smartphone", "Apple", "iPhone 15 Pro")
	assert.True(t, def.MonthlyPremium.Equal(decimal.NewFromInt(14)))
}

func TestNew_RejectsBadOverride(t *testing.T) {
	_, err := New(map[int]TierPricing{5: {Label: "Ultra"}})
	assert.ErrorIs(t, err, ErrUnknownTier)

	_, err = New(map[int]TierPricing{1: {Deductible: decimal.NewFromInt(-1)}})
	assert.ErrorIs(t, err, ErrInvalidPricing)
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "Wearable", CategoryWearable.Label())
	assert.False(t, Category("fridge").Valid())
}
