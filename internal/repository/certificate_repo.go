package repository

import (
	"context"

	"github.com/noah-isme/olympiad-api/internal/docstore"
	"github.com/noah-isme/olympiad-api/internal/models"
)

// CertificateRepository is the global certificate index keyed by code.
type CertificateRepository interface {
	Get(ctx context.Context, code string) (models.Certificate, error)
	Exists(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, certificate models.Certificate) error
}

type certificateRepository struct {
	certificates collection[models.Certificate]
}

// NewCertificateRepository constructs a certificate repository over the document store.
func NewCertificateRepository(store docstore.Gateway) CertificateRepository {
	return &certificateRepository{certificates: collection[models.Certificate]{store: store, name: CertificatesCollection}}
}

func (r *certificateRepository) Get(ctx context.Context, code string) (models.Certificate, error) {
	return r.certificates.get(ctx, code)
}

func (r *certificateRepository) Exists(ctx context.Context, code string) (bool, error) {
	return r.certificates.exists(ctx, code)
}

func (r *certificateRepository) Create(ctx context.Context, certificate models.Certificate) error {
	return r.certificates.put(ctx, certificate.Code, certificate)
}

// ReferenceCodeRepository persists generated school reference codes.
type ReferenceCodeRepository interface {
	Get(ctx context.Context, code string) (models.ReferenceCode, error)
	Exists(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, code models.ReferenceCode) error
	List(ctx context.Context) ([]models.ReferenceCode, error)
}

type referenceCodeRepository struct {
	codes collection[models.ReferenceCode]
}

// NewReferenceCodeRepository constructs a reference code repository over the document store.
func NewReferenceCodeRepository(store docstore.Gateway) ReferenceCodeRepository {
	return &referenceCodeRepository{codes: collection[models.ReferenceCode]{store: store, name: ReferenceCodesCollection}}
}

func (r *referenceCodeRepository) Get(ctx context.Context, code string) (models.ReferenceCode, error) {
	return r.codes.get(ctx, code)
}

func (r *referenceCodeRepository) Exists(ctx context.Context, code string) (bool, error) {
	return r.codes.exists(ctx, code)
}

func (r *referenceCodeRepository) Create(ctx context.Context, code models.ReferenceCode) error {
	return r.codes.put(ctx, code.ReferenceCode, code)
}

func (r *referenceCodeRepository) List(ctx context.Context) ([]models.ReferenceCode, error) {
	return r.codes.list(ctx)
}
