// Package pricing joins normalized workflow nodes against the pricing
// catalog and prepares the compact payload for the pricing model.
package pricing

import (
	"fmt"

	"github.com/sells-group/quoteflow/internal/catalog"
	"github.com/sells-group/quoteflow/internal/model"
)

// GeneratePriceList prices every normalized node against the catalog. Nodes
// with no catalog entry are emitted at price zero and flagged for manual
// review; zero-priced catalog entries are flagged too. An empty node list
// yields an empty list with zero totals, not an error.
func GeneratePriceList(nodes []model.NormalizedNode, cat *catalog.Catalog) model.PriceList {
	items := make([]model.PriceListItem, 0, len(nodes))
	var baseTotal float64

	for _, node := range nodes {
		item := model.PriceListItem{
			ID:       node.NodeID,
			Label:    node.ShortLabel,
			NodeType: node.NodeType,
		}

		rule, ok := cat.Lookup(node.NodeType)
		if !ok {
			item.RequiresManualReview = true
			item.Notes = fmt.Sprintf("Node type %q not in pricing database", node.NodeType)
			items = append(items, item)
			continue
		}

		item.BasePrice = rule.BasePrice
		item.Modifiers = modifierNames(rule)
		item.RequiresManualReview = rule.BasePrice == 0
		if item.RequiresManualReview {
			item.Notes = fmt.Sprintf("Node type %q has no base price set", node.NodeType)
		}
		baseTotal += rule.BasePrice
		items = append(items, item)
	}

	return model.PriceList{
		Items: items,
		Summary: model.PriceListSummary{
			TotalItems:         len(items),
			EstimatedBaseTotal: catalog.Round2(baseTotal),
		},
	}
}

func modifierNames(rule catalog.PricingRule) []string {
	if len(rule.Modifiers) == 0 {
		return nil
	}
	names := make([]string, 0, len(rule.Modifiers))
	for _, m := range rule.Modifiers {
		names = append(names, m.Name)
	}
	return names
}
