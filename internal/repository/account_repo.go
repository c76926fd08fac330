package repository

import (
	"context"
	"strings"

	"github.com/noah-isme/olympiad-api/internal/docstore"
	"github.com/noah-isme/olympiad-api/internal/models"
	"github.com/noah-isme/olympiad-api/internal/scoring"
)

// SchoolRepository persists school representative accounts.
type SchoolRepository interface {
	Get(ctx context.Context, uid string) (models.School, error)
	Create(ctx context.Context, school models.School) error
	FindByEmail(ctx context.Context, email string) (models.School, error)
	FindByName(ctx context.Context, schoolName string) (models.School, error)
	List(ctx context.Context) ([]models.School, error)
}

type schoolRepository struct {
	schools collection[models.School]
}

// NewSchoolRepository constructs a school repository over the document store.
func NewSchoolRepository(store docstore.Gateway) SchoolRepository {
	return &schoolRepository{schools: collection[models.School]{store: store, name: SchoolsCollection}}
}

func (r *schoolRepository) Get(ctx context.Context, uid string) (models.School, error) {
	return r.schools.get(ctx, uid)
}

func (r *schoolRepository) Create(ctx context.Context, school models.School) error {
	return r.schools.put(ctx, school.UID, school)
}

func (r *schoolRepository) FindByEmail(ctx context.Context, email string) (models.School, error) {
	return r.schools.first(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

func (r *schoolRepository) FindByName(ctx context.Context, schoolName string) (models.School, error) {
	schools, err := r.schools.list(ctx)
	if err != nil {
		return models.School{}, err
	}
	for _, school := range schools {
		if scoring.SameSchool(school.SchoolName, schoolName) {
			return school, nil
		}
	}
	return models.School{}, ErrNotFound
}

func (r *schoolRepository) List(ctx context.Context) ([]models.School, error) {
	return r.schools.list(ctx)
}

// AdminRepository persists admin accounts.
type AdminRepository interface {
	Get(ctx context.Context, uid string) (models.Admin, error)
	Create(ctx context.Context, admin models.Admin) error
	FindByEmail(ctx context.Context, email string) (models.Admin, error)
}

type adminRepository struct {
	admins collection[models.Admin]
}

// NewAdminRepository constructs an admin repository over the document store.
func NewAdminRepository(store docstore.Gateway) AdminRepository {
	return &adminRepository{admins: collection[models.Admin]{store: store, name: AdminsCollection}}
}

func (r *adminRepository) Get(ctx context.Context, uid string) (models.Admin, error) {
	return r.admins.get(ctx, uid)
}

func (r *adminRepository) Create(ctx context.Context, admin models.Admin) error {
	return r.admins.put(ctx, admin.UID, admin)
}

func (r *adminRepository) FindByEmail(ctx context.Context, email string) (models.Admin, error) {
	return r.admins.first(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}
