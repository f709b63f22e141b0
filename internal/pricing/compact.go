package pricing

import "github.com/sells-group/quoteflow/internal/model"

// BuildCompactPayload projects a price list down to the minimal fields the
// pricing model needs, bounding request size. Notes and review flags are
// dropped on purpose: the response validator re-derives them from the
// catalog rather than trusting the compact form.
func BuildCompactPayload(pl model.PriceList, customerText string, rules model.BusinessRules) model.CompactPayload {
	workflow := make([]model.CompactItem, 0, len(pl.Items))
	for _, item := range pl.Items {
		workflow = append(workflow, model.CompactItem{
			ID:        item.ID,
			Label:     item.Label,
			Base:      item.BasePrice,
			Modifiers: item.Modifiers,
		})
	}

	return model.CompactPayload{
		Workflow:      workflow,
		CustomerText:  customerText,
		BusinessRules: rules,
	}
}

// ItemIndex builds the id-to-item map the response validator checks
// proposals against. Only ids present here may appear in a quote.
func ItemIndex(pl model.PriceList) map[string]model.PriceListItem {
	idx := make(map[string]model.PriceListItem, len(pl.Items))
	for _, item := range pl.Items {
		idx[item.ID] = item
	}
	return idx
}
