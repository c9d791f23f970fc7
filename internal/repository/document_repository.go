package repository

import (
	"context"

	"timer-sync-server/internal/domain"
)

// DocumentRepository holds the single authoritative document.
//
// Load returns (nil, nil) both when nothing was ever stored and when the
// stored content cannot be parsed; only physical I/O failures are errors.
// Save replaces the stored document entirely and is durable on return.
type DocumentRepository interface {
	Load(ctx context.Context) (*domain.Document, error)
	Save(ctx context.Context, doc *domain.Document) error
}
