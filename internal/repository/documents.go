package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nhl_sync/ingestion/internal/metrics"
	"nhl_sync/ingestion/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

const documentsSchema = `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT        NOT NULL,
		id         TEXT        NOT NULL,
		data       JSONB       NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (collection, id)
	)
`

// DocumentRepository stores schemaless documents keyed by collection and id
// in a single JSONB table. It implements store.Store.
type DocumentRepository struct {
	db *Database
}

var _ store.Store = (*DocumentRepository)(nil)

// EnsureSchema creates the documents table if it does not exist
func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Pool.Exec(ctx, documentsSchema); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	log.Debug().Msg("Documents table ready")
	return nil
}

// Get retrieves a document by collection and id
func (r *DocumentRepository) Get(ctx context.Context, collection, id string) (store.Document, bool, error) {
	start := time.Now()

	var data []byte
	err := r.db.Pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&data)

	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordStoreOperation("get", collection, "not_found", time.Since(start).Seconds())
		return nil, false, nil
	}
	if err != nil {
		metrics.RecordStoreOperation("get", collection, "error", time.Since(start).Seconds())
		return nil, false, fmt.Errorf("failed to get document: %w", err)
	}

	doc, err := decodeDocument(data)
	if err != nil {
		metrics.RecordStoreOperation("get", collection, "error", time.Since(start).Seconds())
		return nil, false, err
	}

	metrics.RecordStoreOperation("get", collection, "success", time.Since(start).Seconds())
	return doc, true, nil
}

// Set writes doc at collection/id. Placeholders resolve to the transaction
// time. With merge the existing row is locked, merged in process and
// written back in the same transaction.
func (r *DocumentRepository) Set(ctx context.Context, collection, id string, doc store.Document, merge bool) error {
	start := time.Now()

	err := r.set(ctx, collection, id, doc, merge)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordStoreOperation("set", collection, status, time.Since(start).Seconds())

	return err
}

func (r *DocumentRepository) set(ctx context.Context, collection, id string, doc store.Document, merge bool) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var now time.Time
	if err := tx.QueryRow(ctx, `SELECT NOW()`).Scan(&now); err != nil {
		return fmt.Errorf("failed to read transaction time: %w", err)
	}
	now = now.UTC()

	out := store.ResolveTimestamps(doc, now)

	if merge {
		var existing []byte
		err := tx.QueryRow(ctx,
			`SELECT data FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`,
			collection, id,
		).Scan(&existing)

		switch {
		case errors.Is(err, pgx.ErrNoRows):
			// First write
		case err != nil:
			return fmt.Errorf("failed to lock document: %w", err)
		default:
			current, err := decodeDocument(existing)
			if err != nil {
				return err
			}
			out = store.Merge(current, out)
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	query := `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (collection, id) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := tx.Exec(ctx, query, collection, id, data, now); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit document: %w", err)
	}

	log.Debug().
		Str("collection", collection).
		Str("id", id).
		Bool("merge", merge).
		Msg("Document written")

	return nil
}

// Count returns the number of documents in a collection
func (r *DocumentRepository) Count(ctx context.Context, collection string) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = $1`,
		collection,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// Delete removes a document
func (r *DocumentRepository) Delete(ctx context.Context, collection, id string) error {
	if _, err := r.db.Pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func decodeDocument(data []byte) (store.Document, error) {
	var doc store.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	if doc == nil {
		doc = store.Document{}
	}
	return doc, nil
}
