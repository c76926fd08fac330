package repository

import (
	"context"

	"github.com/noah-isme/olympiad-api/internal/docstore"
	"github.com/noah-isme/olympiad-api/internal/models"
	"github.com/noah-isme/olympiad-api/internal/scoring"
)

// StudentRepository provides access to student records.
type StudentRepository interface {
	Get(ctx context.Context, uid string) (models.Student, error)
	Create(ctx context.Context, student models.Student) error
	CreateBatch(ctx context.Context, students []models.Student) error
	Save(ctx context.Context, student models.Student) error
	Update(ctx context.Context, uid string, fields map[string]any) error
	Delete(ctx context.Context, uid string) error
	FindByUsername(ctx context.Context, username string) (models.Student, error)
	List(ctx context.Context) ([]models.Student, error)
	ListBySchool(ctx context.Context, schoolName string) ([]models.Student, error)
	ListByCoordinator(ctx context.Context, coordinatorID string) ([]models.Student, error)
	AddAttempt(ctx context.Context, uid, testType, attemptID string, attempt scoring.Attempt) error
	SetSubjectMarks(ctx context.Context, uid, testType string, scores scoring.SubjectScores) error
	SetRanks(ctx context.Context, uid, testType string, scopes scoring.ScopePlacements) error
	SetSchoolRank(ctx context.Context, uid, testType string, placement scoring.Placement) error
	AddCertificate(ctx context.Context, uid string, certificate models.Certificate) error
}

type studentRepository struct {
	students collection[models.Student]
}

// NewStudentRepository constructs a student repository over the document store.
func NewStudentRepository(store docstore.Gateway) StudentRepository {
	return &studentRepository{students: collection[models.Student]{store: store, name: StudentsCollection}}
}

func (r *studentRepository) Get(ctx context.Context, uid string) (models.Student, error) {
	return r.students.get(ctx, uid)
}

func (r *studentRepository) Create(ctx context.Context, student models.Student) error {
	return r.students.put(ctx, student.UID, student)
}

func (r *studentRepository) CreateBatch(ctx context.Context, students []models.Student) error {
	if len(students) == 0 {
		return nil
	}
	batch := make(map[string]models.Student, len(students))
	for _, student := range students {
		batch[student.UID] = student
	}
	return r.students.putMany(ctx, batch)
}

func (r *studentRepository) Save(ctx context.Context, student models.Student) error {
	ok, err := r.students.exists(ctx, student.UID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return r.students.put(ctx, student.UID, student)
}

func (r *studentRepository) Update(ctx context.Context, uid string, fields map[string]any) error {
	return r.students.update(ctx, uid, fields)
}

func (r *studentRepository) Delete(ctx context.Context, uid string) error {
	return r.students.remove(ctx, uid)
}

func (r *studentRepository) FindByUsername(ctx context.Context, username string) (models.Student, error) {
	return r.students.first(ctx, "username", username)
}

func (r *studentRepository) List(ctx context.Context) ([]models.Student, error) {
	return r.students.list(ctx)
}

// ListBySchool matches school names case-insensitively after trimming, so it scans the
// whole collection.
func (r *studentRepository) ListBySchool(ctx context.Context, schoolName string) ([]models.Student, error) {
	all, err := r.students.list(ctx)
	if err != nil {
		return nil, err
	}
	cohort := make([]models.Student, 0)
	for _, student := range all {
		if scoring.SameSchool(student.SchoolName, schoolName) {
			cohort = append(cohort, student)
		}
	}
	return cohort, nil
}

func (r *studentRepository) ListByCoordinator(ctx context.Context, coordinatorID string) ([]models.Student, error) {
	return r.students.find(ctx, "addedBy", coordinatorID)
}

func (r *studentRepository) AddAttempt(ctx context.Context, uid, testType, attemptID string, attempt scoring.Attempt) error {
	return r.students.store.Set(ctx, r.students.path(uid, "marks", testType, attemptID), attempt)
}

func (r *studentRepository) SetSubjectMarks(ctx context.Context, uid, testType string, scores scoring.SubjectScores) error {
	return r.students.store.Update(ctx, r.students.path(uid, "subjectMarks"), map[string]any{
		testType: scores.Normalize(),
	})
}

// SetRanks overwrites the table-driven placements and leaves the school placement untouched.
func (r *studentRepository) SetRanks(ctx context.Context, uid, testType string, scopes scoring.ScopePlacements) error {
	return r.students.store.Update(ctx, r.students.path(uid, "ranks", testType), map[string]any{
		"global":  scopes.Global,
		"country": scopes.Country,
		"state":   scopes.State,
	})
}

func (r *studentRepository) SetSchoolRank(ctx context.Context, uid, testType string, placement scoring.Placement) error {
	return r.students.store.Set(ctx, r.students.path(uid, "ranks", testType, "school"), placement)
}

func (r *studentRepository) AddCertificate(ctx context.Context, uid string, certificate models.Certificate) error {
	return r.students.store.Set(ctx, r.students.path(uid, "certificateCodes", certificate.Code), certificate)
}
