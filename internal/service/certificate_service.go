package service

import (
	"context"
	"strings"

	"github.com/noah-isme/olympiad-api/internal/dto"
	"github.com/noah-isme/olympiad-api/internal/repository"
)

// CertificateService verifies issued certificates.
type CertificateService interface {
	Verify(ctx context.Context, code string) (dto.CertificateResponse, error)
}

type certificateService struct {
	certificates repository.CertificateRepository
}

// NewCertificateService constructs a certificate service.
func NewCertificateService(certificates repository.CertificateRepository) CertificateService {
	return &certificateService{certificates: certificates}
}

func (s *certificateService) Verify(ctx context.Context, code string) (dto.CertificateResponse, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return dto.CertificateResponse{}, ErrNotFound
	}
	certificate, err := s.certificates.Get(ctx, code)
	if err != nil {
		return dto.CertificateResponse{}, err
	}
	return dto.NewCertificateResponse(certificate), nil
}
