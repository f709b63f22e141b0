// Package quote validates the pricing model's proposed quote against the
// original workflow, the pricing catalog, and business rules. This is the
// stage that prevents a malformed or adversarial model response from
// becoming a customer-facing price.
package quote

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/sells-group/quoteflow/internal/catalog"
	"github.com/sells-group/quoteflow/internal/model"
)

// Policy holds the business constants of the validation stage. The source
// values (0.6 confidence gate, ±0.01 total tolerance) have no stated
// derivation, so they are kept configurable rather than inferred.
type Policy struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
	TotalTolerance      float64 `yaml:"total_tolerance" mapstructure:"total_tolerance"`
}

// DefaultPolicy returns the reference policy values.
func DefaultPolicy() Policy {
	return Policy{
		ConfidenceThreshold: 0.6,
		TotalTolerance:      0.01,
	}
}

type rawResponse struct {
	Quote *rawQuote `json:"quote"`
}

type rawQuote struct {
	Items      []model.QuoteItemProposal `json:"items"`
	TotalPrice *float64                  `json:"total_price"`
	TotalDelta *float64                  `json:"total_delta"`
	Flags      []string                  `json:"flags"`
	Remarks    string                    `json:"remarks"`
}

// codeFenceRe matches markdown code fences the model may wrap its JSON in.
var codeFenceRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// ValidateResponse checks a raw model response against the original item
// map, the catalog, and business rules. It never returns an error: a
// malformed response from an untrusted generator is an expected condition
// and always comes back as a ValidationResult with RequiresReview set.
func ValidateResponse(raw []byte, items map[string]model.PriceListItem, cat *catalog.Catalog, rules model.BusinessRules, pol Policy) model.ValidationResult {
	res := model.ValidationResult{}

	if len(raw) == 0 || items == nil {
		return structuralFailure(res, "missing model response or original workflow")
	}

	text := strings.TrimSpace(string(raw))
	if m := codeFenceRe.FindStringSubmatch(text); len(m) > 1 {
		text = m[1]
	}

	var parsed rawResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return structuralFailure(res, "model response is not valid JSON")
	}
	if parsed.Quote == nil {
		return structuralFailure(res, "model response has no quote object")
	}

	q := parsed.Quote
	if q.TotalPrice == nil {
		res.ValidationErrors = append(res.ValidationErrors, "quote missing required field: total_price")
	}
	if q.TotalDelta == nil {
		res.ValidationErrors = append(res.ValidationErrors, "quote missing required field: total_delta")
	}

	var (
		sumPrice    float64
		sumDelta    float64
		itemsReview bool
		outOfBounds bool
	)

	validated := make([]model.QuoteItemProposal, 0, len(q.Items))
	for i, item := range q.Items {
		if missing := missingItemFields(item); len(missing) > 0 {
			res.ValidationErrors = append(res.ValidationErrors,
				fmt.Sprintf("item %d missing required fields: %s", i, strings.Join(missing, ", ")))
			item.RequiresManualReview = true
			itemsReview = true
			validated = append(validated, item)
			continue
		}

		orig, known := items[item.ItemID]
		if !known {
			res.ValidationErrors = append(res.ValidationErrors,
				fmt.Sprintf("item %q does not exist in the original workflow", item.ItemID))
			item.RequiresManualReview = true
			itemsReview = true
		}

		conf := *item.MappingConfidence
		if conf < 0 || conf > 1 {
			res.ValidationErrors = append(res.ValidationErrors,
				fmt.Sprintf("item %q mapping_confidence %.2f outside [0,1]", item.ItemID, conf))
			item.RequiresManualReview = true
			itemsReview = true
		} else if conf < pol.ConfidenceThreshold {
			item.RequiresManualReview = true
			itemsReview = true
			res.ReviewReasons = append(res.ReviewReasons,
				fmt.Sprintf("Low mapping confidence (%.2f) on item %q", conf, item.ItemID))
		}

		if known {
			if rule, ok := cat.Lookup(orig.NodeType); ok {
				if oob(*item.NewPrice, rule.PriceRules) {
					res.ValidationErrors = append(res.ValidationErrors,
						fmt.Sprintf("item %q price %.2f outside catalog bounds", item.ItemID, *item.NewPrice))
					res.ReviewReasons = append(res.ReviewReasons, "Price out of bounds")
					item.RequiresManualReview = true
					itemsReview = true
					outOfBounds = true
				}
			}
		}

		if item.Action == model.ActionAdd && !rules.AllowNewItem {
			item.RequiresManualReview = true
			itemsReview = true
			res.ReviewReasons = append(res.ReviewReasons,
				fmt.Sprintf("New items are not allowed by business rules (item %q)", item.ItemID))
		}

		if item.RequiresManualReview {
			itemsReview = true
		}

		sumPrice += *item.NewPrice
		sumDelta += *item.PriceDelta
		validated = append(validated, item)
	}

	sumPrice = catalog.Round2(sumPrice)
	sumDelta = catalog.Round2(sumDelta)

	// The model's arithmetic is never trusted, only its per-item actions:
	// totals are recomputed and any discrepancy is reported rather than
	// silently corrected.
	if q.TotalPrice != nil && math.Abs(*q.TotalPrice-sumPrice) > pol.TotalTolerance {
		res.ValidationErrors = append(res.ValidationErrors,
			fmt.Sprintf("Total price mismatch: reported %.2f, recomputed %.2f", *q.TotalPrice, sumPrice))
	}
	if q.TotalDelta != nil && math.Abs(*q.TotalDelta-sumDelta) > pol.TotalTolerance {
		res.ValidationErrors = append(res.ValidationErrors,
			fmt.Sprintf("Total delta mismatch: reported %.2f, recomputed %.2f", *q.TotalDelta, sumDelta))
	}

	// Honor flags the model set about its own output.
	for _, f := range q.Flags {
		switch model.QuoteFlag(f) {
		case model.FlagOutOfBounds:
			outOfBounds = true
			res.ReviewReasons = append(res.ReviewReasons, "Model flagged quote as out of bounds")
		case model.FlagRequiresManualReview:
			itemsReview = true
			res.ReviewReasons = append(res.ReviewReasons, "Model requested manual review")
		}
	}

	res.RequiresReview = len(res.ValidationErrors) > 0 || itemsReview || outOfBounds
	if len(res.ValidationErrors) > 0 {
		res.ReviewReasons = append(res.ReviewReasons, "Validation errors present")
	}

	flags := []model.QuoteFlag{model.FlagOK}
	if res.RequiresReview {
		flags = []model.QuoteFlag{model.FlagRequiresManualReview}
	}
	if outOfBounds {
		flags = append(flags, model.FlagOutOfBounds)
	}

	res.ValidatedQuote = &model.ValidatedQuote{
		Items:      validated,
		TotalPrice: sumPrice,
		TotalDelta: sumDelta,
		Flags:      flags,
		Remarks:    q.Remarks,
	}
	return res
}

func structuralFailure(res model.ValidationResult, msg string) model.ValidationResult {
	res.ValidationErrors = append(res.ValidationErrors, msg)
	res.RequiresReview = true
	res.ReviewReasons = append(res.ReviewReasons, "Malformed model response")
	return res
}

// missingItemFields reports which required fields are absent from a
// proposed item. An incomplete item skips all numeric checks.
func missingItemFields(item model.QuoteItemProposal) []string {
	var missing []string
	if item.ItemID == "" {
		missing = append(missing, "item_id")
	}
	if item.Action == "" {
		missing = append(missing, "action")
	}
	if item.NewPrice == nil {
		missing = append(missing, "new_price")
	}
	if item.PriceDelta == nil {
		missing = append(missing, "price_delta")
	}
	if item.MappingConfidence == nil {
		missing = append(missing, "mapping_confidence")
	}
	return missing
}

// oob reports whether a price violates the rule bounds.
func oob(price float64, bounds catalog.PriceRules) bool {
	if bounds.Min != nil && price < *bounds.Min {
		return true
	}
	if bounds.Max != nil && price > *bounds.Max {
		return true
	}
	return false
}
