// Package prompt assembles the system and user instructions for the model
// pricing pass. Pure string assembly; all enforcement of the response
// contract lives in the quote validator.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sells-group/quoteflow/internal/model"
)

// Prompt is the pair of instructions sent to the pricing model.
type Prompt struct {
	System string `json:"system"`
	User   string `json:"user"`
}

const systemText = `You are a pricing assistant for workflow automation quotes.

Rules:
- Use ONLY the line items provided in the workflow. Never invent new line items or prices.
- Every proposed price must reference an existing item_id from the workflow.
- If the customer requests something that maps to no provided item, set requires_manual_review to true on the closest item instead of inventing one.
- Set mapping_confidence between 0.0 and 1.0 for every item.
- Output STRICTLY the following JSON, with no surrounding prose:
{"quote": {"items": [{"item_id": "...", "action": "adjust|add|remove|none", "requested_change": "...", "new_price": 0.0, "price_delta": 0.0, "reason": "...", "mapping_confidence": 0.0, "requires_manual_review": false}], "total_price": 0.0, "total_delta": 0.0, "flags": [], "remarks": "..."}}
- Keep remarks under 150 words.`

const userTemplate = `Workflow line items:
%s

Customer instructions:
%s

Business rules:
%s`

// Build assembles the prompt from a compact payload. Workflow items and
// business rules are serialized verbatim as JSON.
func Build(p model.CompactPayload) Prompt {
	items, _ := json.MarshalIndent(p.Workflow, "", "  ")
	rules, _ := json.Marshal(p.BusinessRules)

	customerText := strings.TrimSpace(p.CustomerText)
	if customerText == "" {
		customerText = "(none provided)"
	}

	return Prompt{
		System: systemText,
		User:   fmt.Sprintf(userTemplate, items, customerText, rules),
	}
}
