package store

import (
	"context"
)

// FieldCreatedAt is preserved across upserts by UpsertPreservingCreatedAt.
const FieldCreatedAt = "createdAt"

// Upserter performs merge-upserts against a Store. It does not retry.
type Upserter struct {
	store Store
}

// NewUpserter wraps a store.
func NewUpserter(s Store) *Upserter {
	return &Upserter{store: s}
}

// Upsert merges doc onto any existing document at collection/id.
func (u *Upserter) Upsert(ctx context.Context, collection, id string, doc Document) error {
	if err := u.store.Set(ctx, collection, id, doc, true); err != nil {
		return &StorageError{Op: "set", Collection: collection, ID: id, Err: err}
	}
	return nil
}

// UpsertPreservingCreatedAt merges doc onto the existing document while
// keeping the first createdAt ever written for id. An existing non-empty
// createdAt overrides whatever the caller set; otherwise createdAt becomes
// the store's write time.
//
// The read and the write are separate calls, so two concurrent writers on
// the same id could both observe a missing createdAt.
func (u *Upserter) UpsertPreservingCreatedAt(ctx context.Context, collection, id string, doc Document) error {
	existing, found, err := u.store.Get(ctx, collection, id)
	if err != nil {
		return &StorageError{Op: "get", Collection: collection, ID: id, Err: err}
	}

	out := make(Document, len(doc)+1)
	for key, value := range doc {
		out[key] = value
	}

	if found && !IsEmptyValue(existing[FieldCreatedAt]) {
		out[FieldCreatedAt] = existing[FieldCreatedAt]
	} else {
		out[FieldCreatedAt] = ServerTimestamp
	}

	return u.Upsert(ctx, collection, id, out)
}
