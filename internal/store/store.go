package store

import (
	"context"
	"time"
)

// Document is a schemaless stored record. Nested maps are merged field by
// field when written with merge enabled.
type Document map[string]interface{}

type serverTimestamp struct{}

// ServerTimestamp is a placeholder value the store replaces with its own
// write time when the document is persisted.
var ServerTimestamp = serverTimestamp{}

// Store is a keyed document collection.
type Store interface {
	// Get returns the document stored at collection/id. The boolean reports
	// whether it exists.
	Get(ctx context.Context, collection, id string) (Document, bool, error)

	// Set writes doc at collection/id. With merge, fields present in doc
	// overwrite and absent fields are left untouched; without merge the
	// document is replaced.
	Set(ctx context.Context, collection, id string, doc Document, merge bool) error
}

// Merge returns a copy of dst with src merged on top of it. Non-empty nested
// maps are merged recursively; every other value, including an empty map,
// overwrites.
func Merge(dst, src Document) Document {
	out := cloneMap(dst)
	if out == nil {
		out = Document{}
	}
	for key, value := range src {
		srcMap, srcIsMap := asMap(value)
		dstMap, dstIsMap := asMap(out[key])
		if srcIsMap && dstIsMap && len(srcMap) > 0 {
			out[key] = Merge(dstMap, srcMap)
			continue
		}
		out[key] = cloneValue(value)
	}
	return out
}

// ResolveTimestamps returns a copy of doc with every ServerTimestamp
// placeholder replaced by at.
func ResolveTimestamps(doc Document, at time.Time) Document {
	out := make(Document, len(doc))
	for key, value := range doc {
		out[key] = resolveValue(value, at)
	}
	return out
}

func resolveValue(value interface{}, at time.Time) interface{} {
	switch v := value.(type) {
	case serverTimestamp:
		return at
	case Document:
		return ResolveTimestamps(v, at)
	case map[string]interface{}:
		return ResolveTimestamps(v, at)
	case []interface{}:
		items := make([]interface{}, len(v))
		for i, item := range v {
			items[i] = resolveValue(item, at)
		}
		return items
	default:
		return value
	}
}

// IsEmptyValue reports whether a stored field holds no usable value.
func IsEmptyValue(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case time.Time:
		return v.IsZero()
	default:
		return false
	}
}

func asMap(value interface{}) (Document, bool) {
	switch v := value.(type) {
	case Document:
		return v, true
	case map[string]interface{}:
		return Document(v), true
	default:
		return nil, false
	}
}

func cloneMap(m Document) Document {
	if m == nil {
		return nil
	}
	out := make(Document, len(m))
	for key, value := range m {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value interface{}) interface{} {
	switch v := value.(type) {
	case Document:
		return cloneMap(v)
	case map[string]interface{}:
		return cloneMap(v)
	case []interface{}:
		items := make([]interface{}, len(v))
		for i, item := range v {
			items[i] = cloneValue(item)
		}
		return items
	default:
		return value
	}
}
