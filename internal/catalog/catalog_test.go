package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	cat := Default()

	rule, ok := cat.Lookup("httpRequest")
	require.True(t, ok)
	assert.Equal(t, 10.0, rule.BasePrice)

	_, ok = cat.Lookup("doesNotExist")
	assert.False(t, ok)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	fixture := `
httpRequest:
  base_price: 10
  modifiers:
    - name: attachment_mb
      type: per_mb
      price_per_unit: 1.0
  price_rules:
    min: 5
    max: 100
set:
  base_price: 4
`
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))

	cat, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Len())

	rule, ok := cat.Lookup("httpRequest")
	require.True(t, ok)
	require.NotNil(t, rule.PriceRules.Min)
	assert.Equal(t, 5.0, *rule.PriceRules.Min)
	require.Len(t, rule.Modifiers, 1)
	assert.Equal(t, ModifierPerMB, rule.Modifiers[0].Type)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestComputePrice_ModifierSum(t *testing.T) {
	rule := PricingRule{
		BasePrice: 10,
		Modifiers: []Modifier{
			{Name: "attachment_mb", Type: ModifierPerMB, PricePerUnit: 1.0},
			{Name: "concurrency", Type: ModifierPerUnit, PricePerUnit: 2.0},
		},
		PriceRules: PriceRules{Min: fptr(5), Max: fptr(100)},
	}

	price, breakdown := ComputePrice(rule, map[string]any{
		"attachment_mb": float64(5),
		"concurrency":   float64(3),
	})

	// base 10 + 5*1 + 3*2 = 21, within bounds
	assert.Equal(t, 21.0, price)
	require.Len(t, breakdown, 3)
	assert.Equal(t, "Base price", breakdown[0].Description)
	assert.Equal(t, 5.0, breakdown[1].Amount)
	assert.Equal(t, 6.0, breakdown[2].Amount)
}

func TestComputePrice_UnknownModifierIgnored(t *testing.T) {
	rule := PricingRule{BasePrice: 10}

	price, breakdown := ComputePrice(rule, map[string]any{"mystery": float64(99)})

	assert.Equal(t, 10.0, price)
	assert.Len(t, breakdown, 1)
}

func TestComputePrice_Boolean(t *testing.T) {
	rule := PricingRule{
		BasePrice: 10,
		Modifiers: []Modifier{{Name: "retry_enabled", Type: ModifierBoolean, PricePerUnit: 3}},
	}

	price, _ := ComputePrice(rule, map[string]any{"retry_enabled": true})
	assert.Equal(t, 13.0, price)

	price, _ = ComputePrice(rule, map[string]any{"retry_enabled": false})
	assert.Equal(t, 10.0, price)
}

func TestComputePrice_Multiplier(t *testing.T) {
	rule := PricingRule{
		BasePrice: 20,
		Modifiers: []Modifier{{Name: "complexity", Type: ModifierMultiplier, PricePerUnit: 1.0}},
	}

	price, breakdown := ComputePrice(rule, map[string]any{"complexity": float64(1.5)})
	assert.Equal(t, 30.0, price)
	require.Len(t, breakdown, 2)
	assert.Equal(t, 10.0, breakdown[1].Amount)
}

func TestComputePrice_ClampMax(t *testing.T) {
	rule := PricingRule{
		BasePrice: 10,
		Modifiers: []Modifier{{Name: "units", Type: ModifierPerUnit, PricePerUnit: 50}},
		PriceRules: PriceRules{
			Min: fptr(5),
			Max: fptr(100),
		},
	}

	price, breakdown := ComputePrice(rule, map[string]any{"units": float64(10)})

	assert.Equal(t, 100.0, price)
	// The clamping adjustment appears as its own breakdown line.
	last := breakdown[len(breakdown)-1]
	assert.Equal(t, "Adjusted to maximum price", last.Description)
	assert.Equal(t, -410.0, last.Amount)
}

func TestComputePrice_ClampMin(t *testing.T) {
	rule := PricingRule{
		BasePrice:  2,
		PriceRules: PriceRules{Min: fptr(5)},
	}

	price, breakdown := ComputePrice(rule, nil)
	assert.Equal(t, 5.0, price)
	assert.Equal(t, "Adjusted to minimum price", breakdown[len(breakdown)-1].Description)
}

func TestComputePrice_FloorsAtZeroAndRounds(t *testing.T) {
	rule := PricingRule{
		BasePrice: 1,
		Modifiers: []Modifier{{Name: "discount", Type: ModifierPerUnit, PricePerUnit: -1}},
	}

	price, _ := ComputePrice(rule, map[string]any{"discount": float64(10)})
	assert.Equal(t, 0.0, price)

	rule2 := PricingRule{
		BasePrice: 10,
		Modifiers: []Modifier{{Name: "units", Type: ModifierPerUnit, PricePerUnit: 0.333}},
	}
	price, _ = ComputePrice(rule2, map[string]any{"units": float64(1)})
	assert.Equal(t, 10.33, price)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 21.0, Round2(21.004))
	assert.Equal(t, 21.01, Round2(21.006))
	assert.Equal(t, -3.33, Round2(-3.3349))
}
