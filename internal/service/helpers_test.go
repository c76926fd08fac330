package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/olympiad-api/internal/database"
	"github.com/noah-isme/olympiad-api/internal/docstore"
	"github.com/noah-isme/olympiad-api/internal/scoring"
	"github.com/noah-isme/olympiad-api/internal/tables"
)

// Single-rank buckets keep resolved ranks deterministic.
const testTablesYAML = `
categories:
  - {name: Starter Partner, min: 1, max: 100, per_student_share: 75}
  - {name: Bronze Partner, min: 101, max: 200, per_student_share: 85}
  - {name: Platinum Partner, min: 201, per_student_share: 125}
engagement_bonuses:
  - {threshold: 50, bonus: 20}
  - {threshold: 20, bonus: 15}
  - {threshold: 10, bonus: 10}
  - {threshold: 5, bonus: 5}
  - {threshold: 0, bonus: 0}
tests:
  mock:
    max_score: 100
    global: [{score: 90, range: "7 to 7", category: Gold}]
    country: [{score: 90, range: "3 to 3", category: Gold}]
    state: []
  live:
    max_score: 400
    global: [{score: 396, range: "2 to 2", category: Gold}]
    country: []
    state: []
`

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func testTables(t *testing.T) *tables.Tables {
	t.Helper()
	tbl, err := tables.Parse([]byte(testTablesYAML))
	require.NoError(t, err)
	return tbl
}

func testResolver() *scoring.Resolver {
	return scoring.NewResolver(rand.NewPCG(1, 2))
}

func setupStore(t *testing.T) docstore.Gateway {
	t.Helper()
	db, err := database.ConnectSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, docstore.AutoMigrate(db))
	return docstore.NewGormGateway(db)
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// recordingPublisher captures published event names.
type recordingPublisher struct {
	events []string
}

func (r *recordingPublisher) Publish(_ context.Context, event string, _ any) {
	r.events = append(r.events, event)
}
