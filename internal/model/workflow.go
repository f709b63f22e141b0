package model

// WorkflowImport is the raw automation-export graph as uploaded by a
// customer. It exists only for the duration of one request.
type WorkflowImport struct {
	Name  string    `json:"name"`
	Nodes []RawNode `json:"nodes"`
}

// RawNode is a single node of the imported graph, before normalization.
type RawNode struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters"`
}

// NormalizedNode is the canonical, immutable form of a RawNode. NodeType is
// the trailing dotted segment of the raw type, ParamsHash is deterministic
// over the node's parameters regardless of key order.
type NormalizedNode struct {
	NodeID         string `json:"node_id"`
	NodeType       string `json:"node_type"`
	ShortLabel     string `json:"short_label"`
	ParamsHash     string `json:"params_hash"`
	EstimatedUnits int    `json:"estimated_units"`
}

// PriceListItem is one priced line of a workflow.
type PriceListItem struct {
	ID                   string   `json:"id"`
	Label                string   `json:"label"`
	NodeType             string   `json:"node_type"`
	BasePrice            float64  `json:"base_price"`
	Modifiers            []string `json:"modifiers"`
	Notes                string   `json:"notes,omitempty"`
	RequiresManualReview bool     `json:"requires_manual_review"`
}

// PriceListSummary aggregates a PriceList.
type PriceListSummary struct {
	TotalItems         int     `json:"total_items"`
	EstimatedBaseTotal float64 `json:"estimated_base_total"`
}

// PriceList is the priced line-item view of a normalized workflow.
type PriceList struct {
	Items   []PriceListItem  `json:"items"`
	Summary PriceListSummary `json:"summary"`
}

// CompactItem is the minimal projection of a PriceListItem sent to the
// pricing model. Notes and review flags are dropped; they are re-derived
// from the catalog downstream rather than trusted from the compact form.
type CompactItem struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Base      float64  `json:"base"`
	Modifiers []string `json:"modifiers"`
}

// BusinessRules are the caller-supplied policy knobs forwarded with a
// pricing request.
type BusinessRules struct {
	AllowNewItem             bool    `json:"allow_new_item"`
	ApprovalThresholdPercent float64 `json:"approval_threshold_percent"`
}

// CompactPayload bounds the size of the data sent to the pricing stage.
type CompactPayload struct {
	Workflow      []CompactItem `json:"workflow"`
	CustomerText  string        `json:"customer_text"`
	BusinessRules BusinessRules `json:"business_rules"`
}

// DetectedPattern is one intent-rule match against customer text.
type DetectedPattern struct {
	Pattern     string  `json:"pattern"`
	Confidence  float64 `json:"confidence"`
	MatchedText string  `json:"matched_text"`
}

// ParsedDirective is the action/target/change triple derived from a
// detected pattern.
type ParsedDirective struct {
	Action  string   `json:"action"`
	Target  string   `json:"target"`
	Change  string   `json:"change"`
	Details []string `json:"details,omitempty"`
}

// ParsedIntent is the pre-pass signal extracted from customer text. It
// steers prompting; it never replaces the model pricing pass, so NeedsLLM
// is always true.
type ParsedIntent struct {
	DetectedPatterns []DetectedPattern `json:"detected_patterns"`
	ParsedDirectives []ParsedDirective `json:"parsed_directives"`
	NeedsLLM         bool              `json:"needs_llm"`
}
