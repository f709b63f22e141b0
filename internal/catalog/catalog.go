// Package catalog holds the read-only pricing reference data. The catalog
// is loaded once at process start and only read afterwards, so concurrent
// lookups need no synchronization.
package catalog

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ModifierType describes how a modifier value contributes to a price.
type ModifierType string

const (
	ModifierPerUnit    ModifierType = "per_unit"
	ModifierPerMB      ModifierType = "per_mb"
	ModifierPerKB      ModifierType = "per_kb"
	ModifierBoolean    ModifierType = "boolean"
	ModifierMultiplier ModifierType = "multiplier"
)

// Modifier is a named, typed adjustment to a node's base price.
type Modifier struct {
	Name         string       `yaml:"name" json:"name"`
	Type         ModifierType `yaml:"type" json:"type"`
	PricePerUnit float64      `yaml:"price_per_unit" json:"price_per_unit"`
}

// PriceRules bounds the final line price. Nil means unbounded on that side.
type PriceRules struct {
	Min *float64 `yaml:"min" json:"min,omitempty"`
	Max *float64 `yaml:"max" json:"max,omitempty"`
}

// PricingRule is one catalog entry, keyed by node type.
type PricingRule struct {
	BasePrice  float64    `yaml:"base_price" json:"base_price"`
	Modifiers  []Modifier `yaml:"modifiers" json:"modifiers"`
	PriceRules PriceRules `yaml:"price_rules" json:"price_rules"`
}

// Catalog maps node types to pricing rules.
type Catalog struct {
	rules map[string]PricingRule
}

// New builds a catalog from a rule map.
func New(rules map[string]PricingRule) *Catalog {
	if rules == nil {
		rules = map[string]PricingRule{}
	}
	return &Catalog{rules: rules}
}

// Lookup returns the pricing rule for a node type. Absence is not an error.
func (c *Catalog) Lookup(nodeType string) (PricingRule, bool) {
	rule, ok := c.rules[nodeType]
	return rule, ok
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.rules)
}

// LoadFromFile reads a YAML rule map from the given path.
func LoadFromFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: read pricing fixture")
	}

	var rules map[string]PricingRule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, eris.Wrap(err, "catalog: unmarshal pricing fixture")
	}

	return New(rules), nil
}
