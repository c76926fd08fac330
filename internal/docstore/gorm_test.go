package docstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/olympiad-api/internal/database"
)

type profile struct {
	Name   string         `json:"name"`
	School string         `json:"schoolName,omitempty"`
	Score  int            `json:"score,omitempty"`
	Ranks  map[string]any `json:"ranks,omitempty"`
}

func setupGateway(t *testing.T) Gateway {
	t.Helper()
	db, err := database.ConnectSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return NewGormGateway(db)
}

func TestGetMissingValueDoesNotExist(t *testing.T) {
	store := setupGateway(t)

	snap, err := store.Get(context.Background(), "students/nobody")
	require.NoError(t, err)
	require.False(t, snap.Exists())
	require.Equal(t, "nobody", snap.Key())

	snap, err = store.Get(context.Background(), "students/nobody/marks/mock")
	require.NoError(t, err)
	require.False(t, snap.Exists())
}

func TestSetAndGetDocument(t *testing.T) {
	store := setupGateway(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "students/s1", profile{Name: "Asha", School: "Green Valley"}))

	snap, err := store.Get(ctx, "students/s1")
	require.NoError(t, err)
	require.True(t, snap.Exists())

	var got profile
	require.NoError(t, snap.Decode(&got))
	require.Equal(t, "Asha", got.Name)

	require.NoError(t, store.Set(ctx, "students/s1", profile{Name: "Asha K"}))
	snap, err = store.Get(ctx, "students/s1/schoolName")
	require.NoError(t, err)
	require.False(t, snap.Exists(), "set overwrites the whole document")
}

func TestNestedSetCreatesIntermediateObjects(t *testing.T) {
	store := setupGateway(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "students/s1", profile{Name: "Asha"}))
	require.NoError(t, store.Set(ctx, "students/s1/marks/mock/test-1", map[string]int{"score": 80, "total": 100}))

	snap, err := store.Get(ctx, "students/s1/marks/mock/test-1/score")
	require.NoError(t, err)
	var score int
	require.NoError(t, snap.Decode(&score))
	require.Equal(t, 80, score)

	snap, err = store.Get(ctx, "students/s1/name")
	require.NoError(t, err)
	var name string
	require.NoError(t, snap.Decode(&name))
	require.Equal(t, "Asha", name, "nested writes keep sibling fields")
}

func TestUpdateMergesShallowly(t *testing.T) {
	store := setupGateway(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "students/s1", map[string]any{
		"name":  "Asha",
		"ranks": map[string]any{"mock": map[string]any{"school": map[string]any{"rank": 3}}},
	}))

	require.NoError(t, store.Update(ctx, "students/s1/ranks/mock", map[string]any{
		"global": map[string]any{"rank": 10, "category": "Gold"},
	}))
	require.NoError(t, store.Update(ctx, "students/s1", map[string]any{"paymentStatus": "paid", "name": nil}))

	snap, err := store.Get(ctx, "students/s1")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, snap.Decode(&doc))
	require.Equal(t, "paid", doc["paymentStatus"])
	require.NotContains(t, doc, "name")

	mock := doc["ranks"].(map[string]any)["mock"].(map[string]any)
	require.Contains(t, mock, "school", "update keeps untouched keys")
	require.Contains(t, mock, "global")
}

func TestUpdateRejectsNonObjectTarget(t *testing.T) {
	store := setupGateway(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "students/s1", map[string]any{"name": "Asha"}))
	err := store.Update(ctx, "students/s1/name", map[string]any{"first": "A"})
	require.ErrorIs(t, err, ErrNotObject)
}

func TestDeleteAtEveryDepth(t *testing.T) {
	store := setupGateway(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "students/s1", map[string]any{"name": "Asha", "city": "Pune"}))
	require.NoError(t, store.Set(ctx, "students/s2", map[string]any{"name": "Ravi"}))

	require.NoError(t, store.Delete(ctx, "students/s1/city"))
	snap, err := store.Get(ctx, "students/s1/city")
	require.NoError(t, err)
	require.False(t, snap.Exists())

	require.NoError(t, store.Set(ctx, "students/s1/name", nil))
	snap, err = store.Get(ctx, "students/s1/name")
	require.NoError(t, err)
	require.False(t, snap.Exists())

	require.NoError(t, store.Delete(ctx, "students/ghost/field"))
	snap, err = store.Get(ctx, "students/ghost")
	require.NoError(t, err)
	require.False(t, snap.Exists(), "deleting inside a missing document does not create it")

	require.NoError(t, store.Delete(ctx, "students/s2"))
	require.NoError(t, store.Delete(ctx, "students"))
	snap, err = store.Get(ctx, "students")
	require.NoError(t, err)
	require.False(t, snap.Exists())
}

func TestPushGeneratesOrderedKeys(t *testing.T) {
	store := setupGateway(t)
	ctx := context.Background()

	first, err := store.Push(ctx, "callbacks", map[string]string{"name": "A"})
	require.NoError(t, err)
	second, err := store.Push(ctx, "callbacks", map[string]string{"name": "B"})
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	snap, err := store.Get(ctx, "callbacks")
	require.NoError(t, err)
	children, err := snap.Children()
	require.NoError(t, err)
	require.Len(t, children, 2)
	require.Equal(t, first, children[0].Key())
}

func TestSetManyAndQuery(t *testing.T) {
	store := setupGateway(t)
	ctx := context.Background()

	values := map[string]any{}
	for i := 0; i < 120; i++ {
		addedBy := "c1"
		if i%2 == 1 {
			addedBy = "c2"
		}
		values[fmt.Sprintf("s%03d", i)] = map[string]any{"name": fmt.Sprintf("Student %d", i), "addedBy": addedBy}
	}
	require.NoError(t, store.SetMany(ctx, "students", values))

	snap, err := store.Query(ctx, "students", "addedBy", "c2")
	require.NoError(t, err)
	children, err := snap.Children()
	require.NoError(t, err)
	require.Len(t, children, 60)
	require.Equal(t, "s001", children[0].Key())

	require.NoError(t, store.SetMany(ctx, "students", map[string]any{"s001": map[string]any{"addedBy": "c1"}}))
	snap, err = store.Query(ctx, "students", "addedBy", "c2")
	require.NoError(t, err)
	children, err = snap.Children()
	require.NoError(t, err)
	require.Len(t, children, 59, "set many overwrites existing documents")

	snap, err = store.Query(ctx, "students", "addedBy", "nobody")
	require.NoError(t, err)
	require.False(t, snap.Exists())
}

func TestInvalidPaths(t *testing.T) {
	store := setupGateway(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "")
	require.ErrorIs(t, err, ErrInvalidPath)
	require.ErrorIs(t, store.Set(ctx, "students", map[string]string{}), ErrInvalidPath)
	require.ErrorIs(t, store.Update(ctx, "students//x", map[string]any{"a": 1}), ErrInvalidPath)
}
