package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/olympiad-api/internal/docstore"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Collection names inside the document store.
const (
	StudentsCollection       = "students"
	CoordinatorsCollection   = "coordinators"
	SchoolsCollection        = "schools"
	AdminsCollection         = "admins"
	CertificatesCollection   = "certificates"
	ReferenceCodesCollection = "reference_codes"
	CallbacksCollection      = "callbacks"
)

// collection is a typed view over one document collection.
type collection[T any] struct {
	store docstore.Gateway
	name  string
}

func (c collection[T]) path(id string, sub ...string) string {
	return docstore.Join(append([]string{c.name, id}, sub...)...)
}

func (c collection[T]) get(ctx context.Context, id string) (T, error) {
	var out T
	if id == "" {
		return out, ErrNotFound
	}
	snap, err := c.store.Get(ctx, c.path(id))
	if err != nil {
		return out, err
	}
	if !snap.Exists() {
		return out, ErrNotFound
	}
	if err := snap.Decode(&out); err != nil {
		return out, fmt.Errorf("decode %s/%s: %w", c.name, id, err)
	}
	return out, nil
}

func (c collection[T]) exists(ctx context.Context, id string) (bool, error) {
	snap, err := c.store.Get(ctx, c.path(id))
	if err != nil {
		return false, err
	}
	return snap.Exists(), nil
}

func (c collection[T]) put(ctx context.Context, id string, value T) error {
	return c.store.Set(ctx, c.path(id), value)
}

func (c collection[T]) putMany(ctx context.Context, values map[string]T) error {
	batch := make(map[string]any, len(values))
	for id, value := range values {
		batch[id] = value
	}
	return c.store.SetMany(ctx, c.name, batch)
}

// update merges fields into an existing record.
func (c collection[T]) update(ctx context.Context, id string, fields map[string]any) error {
	ok, err := c.exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return c.store.Update(ctx, c.path(id), fields)
}

func (c collection[T]) remove(ctx context.Context, id string) error {
	return c.store.Delete(ctx, c.path(id))
}

func (c collection[T]) list(ctx context.Context) ([]T, error) {
	snap, err := c.store.Get(ctx, c.name)
	if err != nil {
		return nil, err
	}
	return decodeChildren[T](snap)
}

func (c collection[T]) find(ctx context.Context, field, value string) ([]T, error) {
	snap, err := c.store.Query(ctx, c.name, field, value)
	if err != nil {
		return nil, err
	}
	return decodeChildren[T](snap)
}

func (c collection[T]) first(ctx context.Context, field, value string) (T, error) {
	var zero T
	items, err := c.find(ctx, field, value)
	if err != nil {
		return zero, err
	}
	if len(items) == 0 {
		return zero, ErrNotFound
	}
	return items[0], nil
}

func decodeChildren[T any](snap docstore.Snapshot) ([]T, error) {
	children, err := snap.Children()
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, len(children))
	for _, child := range children {
		var item T
		if err := child.Decode(&item); err != nil {
			return nil, fmt.Errorf("decode %s: %w", child.Key(), err)
		}
		items = append(items, item)
	}
	return items, nil
}
