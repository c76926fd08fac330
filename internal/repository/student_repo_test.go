package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/olympiad-api/internal/database"
	"github.com/noah-isme/olympiad-api/internal/docstore"
	"github.com/noah-isme/olympiad-api/internal/models"
	"github.com/noah-isme/olympiad-api/internal/scoring"
)

func setupStore(t *testing.T) docstore.Gateway {
	t.Helper()
	db, err := database.ConnectSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, docstore.AutoMigrate(db))
	return docstore.NewGormGateway(db)
}

func TestStudentRepositoryCreateAndFind(t *testing.T) {
	repo := NewStudentRepository(setupStore(t))
	ctx := context.Background()

	student := models.Student{UID: "s1", Name: "Asha", Username: "asha", SchoolName: "Green Valley", PaymentStatus: models.PaymentUnpaid}
	require.NoError(t, repo.Create(ctx, student))

	got, err := repo.FindByUsername(ctx, "asha")
	require.NoError(t, err)
	require.Equal(t, "s1", got.UID)

	_, err = repo.FindByUsername(ctx, "nobody")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, repo.Update(ctx, "missing", map[string]any{"name": "x"}), ErrNotFound)
	require.ErrorIs(t, repo.Save(ctx, models.Student{UID: "missing"}), ErrNotFound)
}

func TestStudentRepositoryCohortQueries(t *testing.T) {
	repo := NewStudentRepository(setupStore(t))
	ctx := context.Background()

	require.NoError(t, repo.CreateBatch(ctx, []models.Student{
		{UID: "a", SchoolName: " Green Valley ", AddedBy: "c1"},
		{UID: "b", SchoolName: "green valley", AddedBy: "c2"},
		{UID: "c", SchoolName: "Hill Top", AddedBy: "c1"},
	}))

	cohort, err := repo.ListBySchool(ctx, "GREEN VALLEY")
	require.NoError(t, err)
	require.Len(t, cohort, 2)

	recruited, err := repo.ListByCoordinator(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, recruited, 2)
	require.Equal(t, "a", recruited[0].UID)
	require.Equal(t, "c", recruited[1].UID)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestStudentRepositoryScoreWrites(t *testing.T) {
	repo := NewStudentRepository(setupStore(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, models.Student{UID: "s1", Name: "Asha"}))

	at := time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.AddAttempt(ctx, "s1", "mock", "test-1", scoring.Attempt{Score: 90, Total: 100, Timestamp: at}))
	require.NoError(t, repo.AddAttempt(ctx, "s1", "mock", "test-2", scoring.Attempt{Score: 70, Total: 100, Timestamp: at.Add(time.Hour)}))
	require.NoError(t, repo.SetSubjectMarks(ctx, "s1", "mock", scoring.SubjectScores{"english": {Score: 4, Total: 4}}))

	require.NoError(t, repo.SetSchoolRank(ctx, "s1", "mock", scoring.Placement{Rank: 2, Category: scoring.CategoryGold}))
	require.NoError(t, repo.SetRanks(ctx, "s1", "mock", scoring.ScopePlacements{
		Global:  scoring.Placement{Rank: 40, Category: "Silver"},
		Country: scoring.UnrankedPlacement(),
		State:   scoring.UnrankedPlacement(),
	}))
	require.NoError(t, repo.AddCertificate(ctx, "s1", models.Certificate{Code: "GIO-GQC-1234", Name: "Asha", Type: models.CertificateTypeGQC}))

	student, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, 2, student.AttemptCount("mock"))
	require.Equal(t, 0, student.AttemptCount("live"))
	require.Equal(t, scoring.Score{Score: 4, Total: 4}, student.SubjectMarks["mock"][scoring.SubjectEnglish])
	require.Len(t, student.SubjectMarks["mock"], 5)

	ranks := student.Ranks["mock"]
	require.Equal(t, scoring.Rank(40), ranks.Global.Rank)
	require.False(t, ranks.Country.Rank.Ranked())
	require.NotNil(t, ranks.School, "table ranks do not clobber the school rank")
	require.Equal(t, scoring.Rank(2), ranks.School.Rank)

	require.Contains(t, student.Certificates, "GIO-GQC-1234")
	require.Equal(t, "Asha", student.Name)
}

func TestStudentRepositoryDelete(t *testing.T) {
	repo := NewStudentRepository(setupStore(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, models.Student{UID: "s1"}))

	require.NoError(t, repo.Delete(ctx, "s1"))
	_, err := repo.Get(ctx, "s1")
	require.ErrorIs(t, err, ErrNotFound)
}
