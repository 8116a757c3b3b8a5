package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps documents in process. Used for dry runs and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]Document
	now  func() time.Time
}

// NewMemoryStore constructs an empty MemoryStore. A nil clock defaults to
// time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		docs: make(map[string]map[string]Document),
		now:  now,
	}
}

// Get returns a copy of the stored document.
func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[collection][id]
	if !ok {
		return nil, false, nil
	}
	return cloneMap(doc), true, nil
}

// Set writes doc, resolving ServerTimestamp placeholders to the store clock.
func (s *MemoryStore) Set(ctx context.Context, collection, id string, doc Document, merge bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resolved := ResolveTimestamps(doc, s.now().UTC())

	coll, ok := s.docs[collection]
	if !ok {
		coll = make(map[string]Document)
		s.docs[collection] = coll
	}

	if existing, ok := coll[id]; ok && merge {
		coll[id] = Merge(existing, resolved)
		return nil
	}
	coll[id] = Merge(nil, resolved)
	return nil
}

// Len returns the number of documents in a collection.
func (s *MemoryStore) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs[collection])
}

// IDs returns the document ids stored in a collection.
func (s *MemoryStore) IDs(collection string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.docs[collection]))
	for id := range s.docs[collection] {
		ids = append(ids, id)
	}
	return ids
}
