package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"timer-sync-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb"
)

const couchDocumentID = "timer_sync:document"

type couchEnvelope struct {
	ID       string          `json:"_id"`
	Rev      string          `json:"_rev,omitempty"`
	Document json.RawMessage `json:"document"`
}

type couchDocumentRepository struct {
	client *kivik.Client
	dbName string
}

// NewCouchDocumentRepository connects to CouchDB and creates dbName if it
// does not exist yet.
func NewCouchDocumentRepository(ctx context.Context, url, dbName string) (DocumentRepository, error) {
	client, err := kivik.New("couch", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to CouchDB: %w", err)
	}

	exists, err := client.DBExists(ctx, dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to check database existence: %w", err)
	}
	if !exists {
		if err := client.CreateDB(ctx, dbName); err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	return &couchDocumentRepository{
		client: client,
		dbName: dbName,
	}, nil
}

func (r *couchDocumentRepository) fetch(ctx context.Context) (*couchEnvelope, error) {
	db := r.client.DB(r.dbName)

	var env couchEnvelope
	if err := db.Get(ctx, couchDocumentID).ScanDoc(&env); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	return &env, nil
}

func (r *couchDocumentRepository) Load(ctx context.Context) (*domain.Document, error) {
	env, err := r.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	if env == nil {
		return nil, nil
	}

	doc, err := domain.ParseDocument(env.Document)
	if err != nil {
		return nil, nil
	}

	return doc, nil
}

func (r *couchDocumentRepository) Save(ctx context.Context, doc *domain.Document) error {
	existing, err := r.fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch existing document for update: %w", err)
	}

	env := couchEnvelope{
		ID:       couchDocumentID,
		Document: doc.Raw(),
	}
	if existing != nil {
		env.Rev = existing.Rev
	}

	if _, err := r.client.DB(r.dbName).Put(ctx, couchDocumentID, env); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	return nil
}
