// Package docstore is a path-addressed hierarchical document store. Paths look like
// "<collection>/<key>/<field>/..."; the first two segments address a stored document and
// any further segments address a value nested inside it.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidPath is returned for empty paths or operations a path depth does not support.
	ErrInvalidPath = errors.New("invalid document path")
	// ErrNotObject is returned when a nested write targets a value that is not an object.
	ErrNotObject = errors.New("document path does not address an object")
)

// Gateway reads and writes values by path.
type Gateway interface {
	// Get returns the value at path. A missing value is an empty snapshot, not an error.
	Get(ctx context.Context, path string) (Snapshot, error)
	// Set overwrites the value at path. A nil value deletes it.
	Set(ctx context.Context, path string, value any) error
	// Update shallow-merges fields into the object at path. Nil field values delete keys.
	Update(ctx context.Context, path string, fields map[string]any) error
	// Delete removes the value at path.
	Delete(ctx context.Context, path string) error
	// Push stores value under a generated, time-ordered key and returns the key.
	Push(ctx context.Context, collection string, value any) (string, error)
	// SetMany overwrites several documents of one collection in a single batch.
	SetMany(ctx context.Context, collection string, values map[string]any) error
	// Query returns the documents of collection whose top-level field equals value,
	// as an object keyed by document key.
	Query(ctx context.Context, collection, field, value string) (Snapshot, error)
}

// Snapshot is an immutable view of a value read from the store.
type Snapshot struct {
	key string
	raw json.RawMessage
}

// NewSnapshot wraps raw JSON read for key.
func NewSnapshot(key string, raw []byte) Snapshot {
	return Snapshot{key: key, raw: raw}
}

// Key is the last path segment the snapshot was read from.
func (s Snapshot) Key() string {
	return s.key
}

// Exists reports whether a value was found.
func (s Snapshot) Exists() bool {
	trimmed := strings.TrimSpace(string(s.raw))
	return trimmed != "" && trimmed != "null"
}

// Raw returns the JSON encoding of the value.
func (s Snapshot) Raw() json.RawMessage {
	return s.raw
}

// Decode unmarshals the value into dst.
func (s Snapshot) Decode(dst any) error {
	if !s.Exists() {
		return fmt.Errorf("decode %q: value does not exist", s.key)
	}
	return json.Unmarshal(s.raw, dst)
}

// Children returns the entries of an object value ordered by key.
func (s Snapshot) Children() ([]Snapshot, error) {
	if !s.Exists() {
		return nil, nil
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(s.raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrNotObject, s.key)
	}
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	children := make([]Snapshot, 0, len(keys))
	for _, key := range keys {
		children = append(children, Snapshot{key: key, raw: entries[key]})
	}
	return children, nil
}

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

func splitPath(path string) ([]string, error) {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	if trimmed == "" {
		return nil, ErrInvalidPath
	}
	segments := strings.Split(trimmed, "/")
	for _, segment := range segments {
		if strings.TrimSpace(segment) == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, path)
		}
	}
	return segments, nil
}
