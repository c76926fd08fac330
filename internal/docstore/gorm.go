package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const batchSize = 100

// Document is one stored top-level value.
type Document struct {
	Collection string         `gorm:"primaryKey;size:64"`
	Key        string         `gorm:"primaryKey;column:doc_key;size:128"`
	Body       datatypes.JSON `gorm:"type:json"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName pins the table used for every collection.
func (Document) TableName() string {
	return "documents"
}

type gormGateway struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormGateway stores documents in a single relational table through gorm.
func NewGormGateway(db *gorm.DB) Gateway {
	return &gormGateway{db: db, now: time.Now}
}

// AutoMigrate creates the documents table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Document{})
}

func (g *gormGateway) Get(ctx context.Context, path string) (Snapshot, error) {
	segments, err := splitPath(path)
	if err != nil {
		return Snapshot{}, err
	}

	if len(segments) == 1 {
		var docs []Document
		if err := g.db.WithContext(ctx).Where("collection = ?", segments[0]).Order("doc_key").Find(&docs).Error; err != nil {
			return Snapshot{}, err
		}
		return collect(segments[0], docs)
	}

	doc, found, err := g.load(g.db.WithContext(ctx), segments[0], segments[1])
	if err != nil || !found {
		return Snapshot{key: segments[len(segments)-1]}, err
	}
	if len(segments) == 2 {
		return Snapshot{key: doc.Key, raw: json.RawMessage(doc.Body)}, nil
	}

	tree, err := decodeTree(doc.Body)
	if err != nil {
		return Snapshot{}, err
	}
	value, ok := lookup(tree, segments[2:])
	if !ok {
		return Snapshot{key: segments[len(segments)-1]}, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{key: segments[len(segments)-1], raw: raw}, nil
}

func (g *gormGateway) Set(ctx context.Context, path string, value any) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	if len(segments) == 1 {
		return fmt.Errorf("%w: cannot overwrite collection %q", ErrInvalidPath, path)
	}
	if value == nil {
		return g.Delete(ctx, path)
	}

	if len(segments) == 2 {
		body, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %q: %w", path, err)
		}
		return g.upsert(g.db.WithContext(ctx), []Document{g.document(segments[0], segments[1], body)})
	}

	generic, err := toGeneric(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", path, err)
	}
	return g.mutate(ctx, segments, true, func(tree map[string]any) error {
		parent, err := ensureParent(tree, segments[2:])
		if err != nil {
			return err
		}
		parent[segments[len(segments)-1]] = generic
		return nil
	})
}

func (g *gormGateway) Update(ctx context.Context, path string, fields map[string]any) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}
	if len(segments) == 1 {
		return fmt.Errorf("%w: cannot update collection %q", ErrInvalidPath, path)
	}
	if len(fields) == 0 {
		return nil
	}

	generic := make(map[string]any, len(fields))
	for name, value := range fields {
		if value == nil {
			generic[name] = nil
			continue
		}
		converted, err := toGeneric(value)
		if err != nil {
			return fmt.Errorf("encode %q.%s: %w", path, name, err)
		}
		generic[name] = converted
	}

	return g.mutate(ctx, segments, true, func(tree map[string]any) error {
		target := tree
		if len(segments) > 2 {
			parent, err := ensureParent(tree, segments[2:])
			if err != nil {
				return err
			}
			last := segments[len(segments)-1]
			child, ok := parent[last].(map[string]any)
			if !ok {
				if parent[last] != nil {
					return fmt.Errorf("%w: %q", ErrNotObject, path)
				}
				child = map[string]any{}
				parent[last] = child
			}
			target = child
		}
		for name, value := range generic {
			if value == nil {
				delete(target, name)
				continue
			}
			target[name] = value
		}
		return nil
	})
}

func (g *gormGateway) Delete(ctx context.Context, path string) error {
	segments, err := splitPath(path)
	if err != nil {
		return err
	}

	db := g.db.WithContext(ctx)
	switch len(segments) {
	case 1:
		return db.Where("collection = ?", segments[0]).Delete(&Document{}).Error
	case 2:
		return db.Where("collection = ? AND doc_key = ?", segments[0], segments[1]).Delete(&Document{}).Error
	}

	return g.mutate(ctx, segments, false, func(tree map[string]any) error {
		parent, ok := lookup(tree, segments[2:len(segments)-1])
		if !ok {
			return nil
		}
		if object, isObject := parent.(map[string]any); isObject {
			delete(object, segments[len(segments)-1])
		}
		return nil
	})
}

func (g *gormGateway) Push(ctx context.Context, collection string, value any) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	key := id.String()
	if err := g.Set(ctx, Join(collection, key), value); err != nil {
		return "", err
	}
	return key, nil
}

func (g *gormGateway) SetMany(ctx context.Context, collection string, values map[string]any) error {
	if _, err := splitPath(collection); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}

	docs := make([]Document, 0, len(values))
	for key, value := range values {
		body, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", collection, key, err)
		}
		docs = append(docs, g.document(collection, key, body))
	}

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return g.upsert(tx, docs)
	})
}

func (g *gormGateway) Query(ctx context.Context, collection, field, value string) (Snapshot, error) {
	var docs []Document
	err := g.db.WithContext(ctx).
		Where("collection = ?", collection).
		Where(datatypes.JSONQuery("body").Equals(value, field)).
		Order("doc_key").
		Find(&docs).Error
	if err != nil {
		return Snapshot{}, err
	}
	return collect(collection, docs)
}

func (g *gormGateway) document(collection, key string, body []byte) Document {
	now := g.now().UTC()
	return Document{Collection: collection, Key: key, Body: datatypes.JSON(body), CreatedAt: now, UpdatedAt: now}
}

func (g *gormGateway) upsert(tx *gorm.DB, docs []Document) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
	}).CreateInBatches(&docs, batchSize).Error
}

func (g *gormGateway) load(tx *gorm.DB, collection, key string) (Document, bool, error) {
	var doc Document
	err := tx.Where("collection = ? AND doc_key = ?", collection, key).Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, err
	}
	return doc, true, nil
}

// mutate runs a read-modify-write of one document inside a transaction. A missing
// document is only created when create is set.
func (g *gormGateway) mutate(ctx context.Context, segments []string, create bool, apply func(map[string]any) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, found, err := g.load(tx, segments[0], segments[1])
		if err != nil {
			return err
		}
		if !found && !create {
			return nil
		}

		tree := map[string]any{}
		if found {
			if tree, err = decodeTree(doc.Body); err != nil {
				return err
			}
		}
		if err := apply(tree); err != nil {
			return err
		}

		body, err := json.Marshal(tree)
		if err != nil {
			return err
		}
		return g.upsert(tx, []Document{g.document(segments[0], segments[1], body)})
	})
}

func collect(collection string, docs []Document) (Snapshot, error) {
	if len(docs) == 0 {
		return Snapshot{key: collection}, nil
	}
	entries := make(map[string]json.RawMessage, len(docs))
	for _, doc := range docs {
		entries[doc.Key] = json.RawMessage(doc.Body)
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{key: collection, raw: raw}, nil
}

func decodeTree(body []byte) (map[string]any, error) {
	tree := map[string]any{}
	if len(bytes.TrimSpace(body)) == 0 {
		return tree, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	object, ok := value.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return object, nil
}

func toGeneric(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var out any
	if err := decoder.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func lookup(tree map[string]any, segments []string) (any, bool) {
	var current any = tree
	for _, segment := range segments {
		object, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = object[segment]; !ok {
			return nil, false
		}
	}
	return current, true
}

// ensureParent walks to the object that holds the last segment, creating missing objects.
func ensureParent(tree map[string]any, segments []string) (map[string]any, error) {
	current := tree
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment]
		if !ok || next == nil {
			child := map[string]any{}
			current[segment] = child
			current = child
			continue
		}
		child, isObject := next.(map[string]any)
		if !isObject {
			return nil, fmt.Errorf("%w: %q", ErrNotObject, segment)
		}
		current = child
	}
	return current, nil
}
