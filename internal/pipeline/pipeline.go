// Package pipeline orchestrates the quote-generation stages: schema
// validation, normalization, pricing, the model pricing pass, response
// validation, and routing to the review queue.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/quoteflow/internal/catalog"
	"github.com/sells-group/quoteflow/internal/config"
	"github.com/sells-group/quoteflow/internal/intent"
	"github.com/sells-group/quoteflow/internal/model"
	"github.com/sells-group/quoteflow/internal/normalize"
	"github.com/sells-group/quoteflow/internal/pricing"
	"github.com/sells-group/quoteflow/internal/prompt"
	"github.com/sells-group/quoteflow/internal/quote"
	"github.com/sells-group/quoteflow/internal/review"
	"github.com/sells-group/quoteflow/internal/schema"
	"github.com/sells-group/quoteflow/pkg/anthropic"
)

// Pipeline wires the pure quote stages to the model client and the review
// queue. Stages share no mutable state, so one Pipeline serves concurrent
// requests without locking.
type Pipeline struct {
	cfg     *config.Config
	catalog *catalog.Catalog
	client  anthropic.Client
	reviews *review.Service
	policy  quote.Policy
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, cat *catalog.Catalog, client anthropic.Client, reviews *review.Service) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		catalog: cat,
		client:  client,
		reviews: reviews,
		policy: quote.Policy{
			ConfidenceThreshold: cfg.Quote.ConfidenceThreshold,
			TotalTolerance:      cfg.Quote.TotalTolerance,
		},
	}
}

// QuoteRequest is one customer quote request.
type QuoteRequest struct {
	Workflow      []byte `json:"workflow"`
	CustomerText  string `json:"customer_text"`
	CustomerEmail string `json:"customer_email"`
}

// QuoteOutcome is the result of a full pipeline run. Rejection is set when
// the import failed schema validation and nothing else ran.
type QuoteOutcome struct {
	Rejection *schema.Result         `json:"rejection,omitempty"`
	PriceList model.PriceList        `json:"price_list"`
	Intent    model.ParsedIntent     `json:"intent"`
	Result    model.ValidationResult `json:"result"`
	QueueID   string                 `json:"queue_id,omitempty"`
}

// Price validates an import and produces its price list without invoking
// the model. Used by the import command and endpoint.
func (p *Pipeline) Price(data []byte) (*schema.Result, model.PriceList) {
	res := schema.ValidateWorkflow(data, int64(len(data)), p.cfg.Import.MaxBytes)
	if !res.Valid {
		return res, model.PriceList{}
	}
	nodes := normalize.Workflow(*res.Workflow)
	return res, pricing.GeneratePriceList(nodes, p.catalog)
}

// GenerateQuote runs the full pipeline for one request. Quotes that fail
// validation are routed to the review queue, never returned as final.
func (p *Pipeline) GenerateQuote(ctx context.Context, req QuoteRequest) (*QuoteOutcome, error) {
	log := zap.L().With(zap.String("customer", req.CustomerEmail))

	validated := schema.ValidateWorkflow(req.Workflow, int64(len(req.Workflow)), p.cfg.Import.MaxBytes)
	if !validated.Valid {
		log.Info("pipeline: import rejected",
			zap.String("code", string(validated.Code)),
			zap.String("field", validated.FieldPath),
		)
		return &QuoteOutcome{Rejection: validated}, nil
	}

	nodes := normalize.Workflow(*validated.Workflow)
	priceList := pricing.GeneratePriceList(nodes, p.catalog)
	parsedIntent := intent.Parse(req.CustomerText)

	rules := model.BusinessRules{
		AllowNewItem:             p.cfg.Quote.AllowNewItem,
		ApprovalThresholdPercent: p.cfg.Quote.ApprovalThresholdPercent,
	}
	payload := pricing.BuildCompactPayload(priceList, req.CustomerText, rules)
	pr := prompt.Build(payload)

	user := pr.User
	if hint := intentHint(parsedIntent); hint != "" {
		user += "\n\n" + hint
	}

	resp, err := p.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     p.cfg.Anthropic.Model,
		MaxTokens: p.cfg.Anthropic.MaxTokens,
		System:    pr.System,
		Messages:  []anthropic.Message{{Role: "user", Content: user}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: pricing pass")
	}
	resp.Usage.LogCost(p.cfg.Anthropic.Model, "quote")

	items := pricing.ItemIndex(priceList)
	result := quote.ValidateResponse([]byte(resp.Text()), items, p.catalog, rules, p.policy)

	outcome := &QuoteOutcome{
		PriceList: priceList,
		Intent:    parsedIntent,
		Result:    result,
	}

	if result.RequiresReview {
		queueID, err := p.reviews.Enqueue(ctx, result.ValidatedQuote, result.ReviewReasons, req.CustomerText, req.CustomerEmail)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: enqueue review")
		}
		outcome.QueueID = queueID
		log.Info("pipeline: quote routed to manual review",
			zap.String("queue_id", queueID),
			zap.Int("validation_errors", len(result.ValidationErrors)),
		)
		return outcome, nil
	}

	log.Info("pipeline: quote validated",
		zap.Float64("total_price", result.ValidatedQuote.TotalPrice),
		zap.Int("items", len(result.ValidatedQuote.Items)),
	)
	return outcome, nil
}

// intentHint renders the pre-pass intent signal as an auxiliary block for
// the user prompt.
func intentHint(pi model.ParsedIntent) string {
	if len(pi.ParsedDirectives) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Pre-parsed intent signals (advisory only):\n")
	for _, d := range pi.ParsedDirectives {
		fmt.Fprintf(&b, "- action=%s target=%s change=%s\n", d.Action, d.Target, d.Change)
	}
	return b.String()
}
