package model

// ItemAction is the action the pricing model proposes for one line item.
type ItemAction string

const (
	ActionAdjust ItemAction = "adjust"
	ActionAdd    ItemAction = "add"
	ActionRemove ItemAction = "remove"
	ActionNone   ItemAction = "none"
)

// QuoteFlag marks a condition on a validated quote.
type QuoteFlag string

const (
	FlagOK                   QuoteFlag = "ok"
	FlagRequiresManualReview QuoteFlag = "requires_manual_review"
	FlagOutOfBounds          QuoteFlag = "out_of_bounds"
)

// QuoteItemProposal is one line item of the model's proposed quote.
// Pointer fields distinguish absent from zero so the validator can report
// missing required fields instead of silently treating them as 0.
type QuoteItemProposal struct {
	ItemID               string     `json:"item_id"`
	Action               ItemAction `json:"action"`
	RequestedChange      string     `json:"requested_change"`
	NewPrice             *float64   `json:"new_price"`
	PriceDelta           *float64   `json:"price_delta"`
	Reason               string     `json:"reason"`
	MappingConfidence    *float64   `json:"mapping_confidence"`
	RequiresManualReview bool       `json:"requires_manual_review"`
}

// ValidatedQuote is a quote that passed structural validation. TotalPrice
// and TotalDelta are always the validator's recomputed numbers, never the
// model's.
type ValidatedQuote struct {
	Items      []QuoteItemProposal `json:"items"`
	TotalPrice float64             `json:"total_price"`
	TotalDelta float64             `json:"total_delta"`
	Flags      []QuoteFlag         `json:"flags"`
	Remarks    string              `json:"remarks"`
}

// ValidationResult is the outcome of validating a model response. A nil
// ValidatedQuote with RequiresReview set means the response could not be
// trusted at all.
type ValidationResult struct {
	ValidatedQuote   *ValidatedQuote `json:"validated_quote,omitempty"`
	ValidationErrors []string        `json:"validation_errors"`
	RequiresReview   bool            `json:"requires_review"`
	ReviewReasons    []string        `json:"review_reasons"`
}
