package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"timer-sync-server/internal/domain"
)

const defaultFileMode os.FileMode = 0o644

type fileDocumentRepository struct {
	path string
}

func NewFileDocumentRepository(path string) DocumentRepository {
	return &fileDocumentRepository{
		path: path,
	}
}

func (r *fileDocumentRepository) Load(ctx context.Context) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.path, err)
	}

	doc, err := domain.ParseDocument(data)
	if err != nil {
		return nil, nil
	}

	return doc, nil
}

// Save writes to a temporary file in the same directory, syncs it and
// renames it over the data file so readers never observe a partial write.
func (r *fileDocumentRepository) Save(ctx context.Context, doc *domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, doc.Raw(), "", "  "); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	buf.WriteByte('\n')

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	// CreateTemp uses 0600; keep whatever mode the data file already has.
	mode := defaultFileMode
	if info, err := os.Stat(r.path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set file mode: %w", err)
	}

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", r.path, err)
	}

	// Persist the rename itself. Not every platform allows syncing a
	// directory, so failures here are ignored.
	if d, err := os.Open(dir); err == nil {
		d.Sync()
		d.Close()
	}

	return nil
}
