package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/quoteflow/internal/catalog"
	"github.com/sells-group/quoteflow/internal/notify"
	"github.com/sells-group/quoteflow/internal/pipeline"
	"github.com/sells-group/quoteflow/internal/review"
	"github.com/sells-group/quoteflow/pkg/anthropic"
)

// env bundles the long-lived dependencies shared by commands.
type env struct {
	Catalog  *catalog.Catalog
	Store    review.Store
	Reviews  *review.Service
	Pipeline *pipeline.Pipeline
}

// initEnv builds the store, catalog, review service, and pipeline from the
// loaded config.
func initEnv(ctx context.Context) (*env, error) {
	cat := catalog.Default()
	if cfg.Catalog.Path != "" {
		loaded, err := catalog.LoadFromFile(cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
		cat = loaded
	}

	store, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}

	notifier := notify.NewWebhook(cfg.Notify.WebhookURL)
	reviews := review.NewService(store, notifier)
	client := anthropic.NewClient(cfg.Anthropic.Key)

	return &env{
		Catalog:  cat,
		Store:    store,
		Reviews:  reviews,
		Pipeline: pipeline.New(cfg, cat, client, reviews),
	}, nil
}

func openStore(ctx context.Context) (review.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return review.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite", "":
		return review.NewSQLite(cfg.Store.SQLitePath)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func (e *env) Close() {
	e.Store.Close()
}
