package catalog

import (
	"fmt"
	"math"
)

// BreakdownLine is one customer-facing entry explaining how a line price
// was reached.
type BreakdownLine struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// ComputePrice computes a line price for a catalog rule given the supplied
// modifier values. Modifier names present in the map but absent from the
// rule are ignored. The result is clamped into the rule's price bounds,
// floored at zero, and rounded to 2 decimals. The breakdown records every
// contribution, including any clamping adjustment.
func ComputePrice(rule PricingRule, values map[string]any) (float64, []BreakdownLine) {
	price := rule.BasePrice
	breakdown := []BreakdownLine{
		{Description: "Base price", Amount: rule.BasePrice},
	}

	for _, mod := range rule.Modifiers {
		raw, ok := values[mod.Name]
		if !ok {
			continue
		}

		switch mod.Type {
		case ModifierPerUnit, ModifierPerMB, ModifierPerKB:
			amount := toFloat(raw) * mod.PricePerUnit
			price += amount
			breakdown = append(breakdown, BreakdownLine{
				Description: fmt.Sprintf("%s (%s)", mod.Name, mod.Type),
				Amount:      amount,
			})
		case ModifierBoolean:
			if truthy(raw) {
				price += mod.PricePerUnit
				breakdown = append(breakdown, BreakdownLine{
					Description: mod.Name,
					Amount:      mod.PricePerUnit,
				})
			}
		case ModifierMultiplier:
			factor := toFloat(raw) * mod.PricePerUnit
			adjustment := price*factor - price
			price *= factor
			breakdown = append(breakdown, BreakdownLine{
				Description: fmt.Sprintf("%s (x%.2f)", mod.Name, factor),
				Amount:      adjustment,
			})
		}
	}

	if rule.PriceRules.Min != nil && price < *rule.PriceRules.Min {
		breakdown = append(breakdown, BreakdownLine{
			Description: "Adjusted to minimum price",
			Amount:      *rule.PriceRules.Min - price,
		})
		price = *rule.PriceRules.Min
	}
	if rule.PriceRules.Max != nil && price > *rule.PriceRules.Max {
		breakdown = append(breakdown, BreakdownLine{
			Description: "Adjusted to maximum price",
			Amount:      *rule.PriceRules.Max - price,
		})
		price = *rule.PriceRules.Max
	}

	if price < 0 {
		price = 0
	}
	return Round2(price), breakdown
}

// Round2 rounds to 2 decimal places, the precision of every customer-facing
// amount in the pipeline.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func truthy(v any) bool {
	switch n := v.(type) {
	case bool:
		return n
	case float64:
		return n != 0
	case int:
		return n != 0
	case string:
		return n == "true" || n == "yes" || n == "1"
	default:
		return false
	}
}
