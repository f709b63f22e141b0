package review

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/quoteflow/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "review.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func pendingItem(id string) model.ReviewQueueItem {
	price := 17.0
	return model.ReviewQueueItem{
		QueueID:         id,
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
		CustomerEmail:   "buyer@example.com",
		OriginalRequest: "add retry to the http step",
		GeneratedQuote: &model.ValidatedQuote{
			TotalPrice: price,
			TotalDelta: 3.0,
			Flags:      []model.QuoteFlag{model.FlagRequiresManualReview},
		},
		ReviewReasons: []string{"Low mapping confidence (0.50) on item \"n1\""},
		Status:        model.ReviewPending,
	}
}

func TestSQLiteStore_InsertGetRoundtrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	item := pendingItem("q-1")
	require.NoError(t, store.Insert(ctx, item))

	got, err := store.Get(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, item.QueueID, got.QueueID)
	assert.Equal(t, item.CustomerEmail, got.CustomerEmail)
	assert.Equal(t, item.OriginalRequest, got.OriginalRequest)
	assert.Equal(t, model.ReviewPending, got.Status)
	assert.Equal(t, item.ReviewReasons, got.ReviewReasons)
	require.NotNil(t, got.GeneratedQuote)
	assert.Equal(t, 17.0, got.GeneratedQuote.TotalPrice)
	assert.False(t, got.CustomerNotified)
	assert.Nil(t, got.ReviewedAt)
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	store := newTestSQLiteStore(t)

	_, err := store.Get(context.Background(), "nope")
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLiteStore_ListFiltersByStatus(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, pendingItem("q-1")))
	require.NoError(t, store.Insert(ctx, pendingItem("q-2")))

	ok, err := store.Resolve(ctx, "q-2", model.ReviewApproved, "alex", "", time.Now().UTC())
	require.NoError(t, err)
	require.True(t, ok)

	pending, err := store.List(ctx, model.ReviewPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "q-1", pending[0].QueueID)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLiteStore_ResolveIsTerminal(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, pendingItem("q-1")))

	ok, err := store.Resolve(ctx, "q-1", model.ReviewApproved, "alex", "looks fine", time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := store.Get(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, model.ReviewApproved, got.Status)
	assert.Equal(t, "alex", got.ReviewedBy)
	assert.Equal(t, "looks fine", got.Notes)
	require.NotNil(t, got.ReviewedAt)

	// Second resolution is a no-op and must not touch the record.
	ok, err = store.Resolve(ctx, "q-1", model.ReviewRejected, "pat", "changed my mind", time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, ok)

	got, err = store.Get(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, model.ReviewApproved, got.Status)
	assert.Equal(t, "alex", got.ReviewedBy)
	assert.Equal(t, "looks fine", got.Notes)
}

func TestSQLiteStore_ResolveMissing(t *testing.T) {
	store := newTestSQLiteStore(t)

	ok, err := store.Resolve(context.Background(), "nope", model.ReviewApproved, "alex", "", time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_SetCustomerNotified(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, pendingItem("q-1")))
	require.NoError(t, store.SetCustomerNotified(ctx, "q-1", true))

	got, err := store.Get(ctx, "q-1")
	require.NoError(t, err)
	assert.True(t, got.CustomerNotified)

	err = store.SetCustomerNotified(ctx, "missing", true)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLiteStore_NilQuoteSurvivesRoundtrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	item := pendingItem("q-1")
	item.GeneratedQuote = nil
	require.NoError(t, store.Insert(ctx, item))

	got, err := store.Get(ctx, "q-1")
	require.NoError(t, err)
	assert.Nil(t, got.GeneratedQuote)
}
