package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/tephra-labs/volcmatch/internal/matcher"
	"github.com/tephra-labs/volcmatch/internal/store"
)

// openStore constructs the configured store backend and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	var (
		s   store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		s, err = store.NewSQLite(cfg.Store.Path)
	case "postgres":
		s, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// loadPolicy resolves the scoring policy from config, falling back to the
// built-in defaults when no policy file is configured.
func loadPolicy() (matcher.Policy, error) {
	if cfg.Match.PolicyPath == "" {
		return matcher.DefaultPolicy(), nil
	}
	return matcher.LoadPolicy(cfg.Match.PolicyPath)
}
