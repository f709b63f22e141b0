package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/quoteflow/internal/catalog"
	"github.com/sells-group/quoteflow/internal/config"
	"github.com/sells-group/quoteflow/internal/model"
	"github.com/sells-group/quoteflow/internal/notify"
	"github.com/sells-group/quoteflow/internal/review"
	"github.com/sells-group/quoteflow/internal/schema"
	"github.com/sells-group/quoteflow/pkg/anthropic"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

const testWorkflow = `{
	"name": "Order sync",
	"nodes": [
		{"id": "n1", "type": "n8n-nodes-base.httpRequest", "name": "Fetch orders"},
		{"id": "n2", "type": "n8n-nodes-base.set", "name": "Map fields"}
	]
}`

func testConfig() *config.Config {
	return &config.Config{
		Anthropic: config.AnthropicConfig{
			Model:     "claude-sonnet-4-5-20250929",
			MaxTokens: 4096,
		},
		Import: config.ImportConfig{MaxBytes: 1 << 20},
		Quote: config.QuoteConfig{
			ConfidenceThreshold:      0.6,
			TotalTolerance:           0.01,
			AllowNewItem:             false,
			ApprovalThresholdPercent: 20,
		},
	}
}

func testPipelineCatalog() *catalog.Catalog {
	min, max := 5.0, 100.0
	return catalog.New(map[string]catalog.PricingRule{
		"httpRequest": {BasePrice: 10, PriceRules: catalog.PriceRules{Min: &min, Max: &max}},
		"set":         {BasePrice: 4},
	})
}

func newTestPipeline(t *testing.T, client *mockAnthropicClient) (*Pipeline, *review.Service) {
	t.Helper()

	store, err := review.NewSQLite(filepath.Join(t.TempDir(), "reviews.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	reviews := review.NewService(store, notify.NewWebhook(""))
	return New(testConfig(), testPipelineCatalog(), client, reviews), reviews
}

func TestPrice_ValidWorkflow(t *testing.T) {
	p, _ := newTestPipeline(t, &mockAnthropicClient{})

	rejection, priceList := p.Price([]byte(testWorkflow))
	assert.True(t, rejection.Valid)
	require.Len(t, priceList.Items, 2)
	assert.Equal(t, "httpRequest", priceList.Items[0].NodeType)
	assert.Equal(t, 14.0, priceList.Summary.EstimatedBaseTotal)
}

func TestPrice_InvalidImport(t *testing.T) {
	p, _ := newTestPipeline(t, &mockAnthropicClient{})

	rejection, priceList := p.Price([]byte(`{"nodes": []}`))
	assert.False(t, rejection.Valid)
	assert.Equal(t, schema.CodeInvalidSchema, rejection.Code)
	assert.Empty(t, priceList.Items)
}

func TestGenerateQuote_SchemaRejectionSkipsModel(t *testing.T) {
	client := &mockAnthropicClient{}
	p, _ := newTestPipeline(t, client)

	outcome, err := p.GenerateQuote(context.Background(), QuoteRequest{
		Workflow: []byte(`not json`),
	})
	require.NoError(t, err)
	require.NotNil(t, outcome.Rejection)
	assert.Equal(t, schema.CodeInvalidJSON, outcome.Rejection.Code)

	client.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestGenerateQuote_CleanQuoteSkipsReview(t *testing.T) {
	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(`{"quote": {
		"items": [
			{"item_id": "n1", "action": "none", "requested_change": "", "new_price": 10.0, "price_delta": 0.0, "reason": "", "mapping_confidence": 0.95, "requires_manual_review": false},
			{"item_id": "n2", "action": "none", "requested_change": "", "new_price": 4.0, "price_delta": 0.0, "reason": "", "mapping_confidence": 0.9, "requires_manual_review": false}
		],
		"total_price": 14.0, "total_delta": 0.0, "flags": [], "remarks": "No changes requested."
	}}`), nil)

	p, reviews := newTestPipeline(t, client)

	outcome, err := p.GenerateQuote(context.Background(), QuoteRequest{
		Workflow:      []byte(testWorkflow),
		CustomerEmail: "buyer@example.com",
	})
	require.NoError(t, err)
	assert.Nil(t, outcome.Rejection)
	assert.False(t, outcome.Result.RequiresReview)
	assert.Empty(t, outcome.QueueID)
	require.NotNil(t, outcome.Result.ValidatedQuote)
	assert.Equal(t, 14.0, outcome.Result.ValidatedQuote.TotalPrice)

	pending, err := reviews.ListPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestGenerateQuote_BadTotalsRoutedToReview(t *testing.T) {
	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(`{"quote": {
		"items": [
			{"item_id": "n1", "action": "adjust", "requested_change": "add retry", "new_price": 14.0, "price_delta": 4.0, "reason": "retry handling", "mapping_confidence": 0.9, "requires_manual_review": false},
			{"item_id": "n2", "action": "none", "requested_change": "", "new_price": 10.0, "price_delta": 0.0, "reason": "", "mapping_confidence": 0.9, "requires_manual_review": false}
		],
		"total_price": 27.0, "total_delta": 4.0, "flags": [], "remarks": ""
	}}`), nil)

	p, reviews := newTestPipeline(t, client)

	outcome, err := p.GenerateQuote(context.Background(), QuoteRequest{
		Workflow:      []byte(testWorkflow),
		CustomerText:  "add retry to the fetch step",
		CustomerEmail: "buyer@example.com",
	})
	require.NoError(t, err)
	assert.True(t, outcome.Result.RequiresReview)
	require.NotEmpty(t, outcome.QueueID)

	item, err := reviews.Get(context.Background(), outcome.QueueID)
	require.NoError(t, err)
	assert.Equal(t, model.ReviewPending, item.Status)
	assert.Equal(t, "buyer@example.com", item.CustomerEmail)
	require.NotNil(t, item.GeneratedQuote)
	assert.Equal(t, 24.0, item.GeneratedQuote.TotalPrice)
}

func TestGenerateQuote_ModelErrorPropagates(t *testing.T) {
	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, assert.AnError)

	p, _ := newTestPipeline(t, client)

	_, err := p.GenerateQuote(context.Background(), QuoteRequest{Workflow: []byte(testWorkflow)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pricing pass")
}

func TestGenerateQuote_IntentHintReachesPrompt(t *testing.T) {
	client := &mockAnthropicClient{}
	var captured anthropic.MessageRequest
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(anthropic.MessageRequest)
		}).
		Return(textResponse(`{"quote": {"items": [], "total_price": 0.0, "total_delta": 0.0, "flags": [], "remarks": ""}}`), nil)

	p, _ := newTestPipeline(t, client)
	_, err := p.GenerateQuote(context.Background(), QuoteRequest{
		Workflow:     []byte(testWorkflow),
		CustomerText: "make it async and urgent",
	})
	require.NoError(t, err)

	require.Len(t, captured.Messages, 1)
	user := captured.Messages[0].Content
	assert.Contains(t, user, "Pre-parsed intent signals")
	assert.Contains(t, user, "target=execution change=async")
	assert.NotEmpty(t, captured.System)
	assert.Equal(t, "claude-sonnet-4-5-20250929", captured.Model)
}
