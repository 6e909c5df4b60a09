package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/arc-research/harvest-cli/internal/tracker"
)

func initStore(ctx context.Context) (tracker.Store, error) {
	var store tracker.Store
	var err error

	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "harvest.db"
		}
		store, err = tracker.NewSQLite(path)
	case "postgres":
		store, err = tracker.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close() //nolint:errcheck
		return nil, err
	}
	return store, nil
}
