package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"timer-sync-server/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sync_document (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	body       TEXT    NOT NULL,
	updated_at INTEGER NOT NULL,
	saved_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQLiteDocumentRepository keeps the document in a single-row table.
type SQLiteDocumentRepository struct {
	db *sql.DB
}

func OpenSQLiteDocumentRepository(path string) (*SQLiteDocumentRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteDocumentRepository{db: db}, nil
}

func (r *SQLiteDocumentRepository) Load(ctx context.Context) (*domain.Document, error) {
	var body string
	err := r.db.QueryRowContext(ctx, `SELECT body FROM sync_document WHERE id = 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	doc, err := domain.ParseDocument([]byte(body))
	if err != nil {
		return nil, nil
	}

	return doc, nil
}

func (r *SQLiteDocumentRepository) Save(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_document (id, body, updated_at, saved_at)
		VALUES (1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			body = excluded.body,
			updated_at = excluded.updated_at,
			saved_at = excluded.saved_at`,
		string(doc.Raw()),
		doc.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	return nil
}

func (r *SQLiteDocumentRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}
