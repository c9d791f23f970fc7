package repository

import (
	"context"
	"fmt"

	"timer-sync-server/internal/config"
)

// Open builds the repository selected by cfg.Backend. The returned close
// function releases any underlying handle and is never nil.
func Open(ctx context.Context, cfg config.StoreConfig) (DocumentRepository, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileDocumentRepository(cfg.DataFile), noop, nil

	case config.BackendSQLite:
		repo, err := OpenSQLiteDocumentRepository(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return repo, repo.Close, nil

	case config.BackendCouchDB:
		repo, err := NewCouchDocumentRepository(ctx, cfg.CouchURL, cfg.CouchDB)
		if err != nil {
			return nil, noop, err
		}
		return repo, noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
