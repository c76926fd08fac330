package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/olympiad-api/internal/dto"
	"github.com/noah-isme/olympiad-api/internal/models"
	"github.com/noah-isme/olympiad-api/internal/repository"
	"github.com/noah-isme/olympiad-api/internal/scoring"
)

const referenceCodeAttempts = 10

var (
	// ErrInvalidReferenceCode indicates a code that is not PREFIX-NUMBER.
	ErrInvalidReferenceCode = errors.New("invalid reference code format")
	// ErrReferenceCodeExhausted indicates every drawn number for the prefix was taken.
	ErrReferenceCodeExhausted = errors.New("could not allocate a unique reference code")
)

// ReferenceCodeService issues and checks school reference codes.
type ReferenceCodeService interface {
	Generate(ctx context.Context, req dto.ReferenceCodeRequest) (models.ReferenceCode, error)
	Validate(ctx context.Context, code string) error
	List(ctx context.Context) ([]models.ReferenceCode, error)
}

type referenceCodeService struct {
	codes     repository.ReferenceCodeRepository
	resolver  *scoring.Resolver
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewReferenceCodeService constructs the reference code service. Numbers are drawn from resolver.
func NewReferenceCodeService(codes repository.ReferenceCodeRepository, resolver *scoring.Resolver, validate *validator.Validate, logger zerolog.Logger) ReferenceCodeService {
	if resolver == nil {
		resolver = scoring.NewResolver(nil)
	}
	return &referenceCodeService{
		codes:     codes,
		resolver:  resolver,
		validator: validate,
		logger:    logger.With().Str("component", "reference_code_service").Logger(),
		now:       time.Now,
	}
}

func (s *referenceCodeService) Generate(ctx context.Context, req dto.ReferenceCodeRequest) (models.ReferenceCode, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.ReferenceCode{}, err
	}

	prefix := strings.TrimSpace(req.Prefix)
	for i := 0; i < referenceCodeAttempts; i++ {
		code := fmt.Sprintf("%s-%d", strings.ToUpper(prefix), 1000+s.resolver.IntN(9000))
		exists, err := s.codes.Exists(ctx, code)
		if err != nil {
			return models.ReferenceCode{}, err
		}
		if exists {
			continue
		}

		record := models.ReferenceCode{
			ReferenceCode: code,
			Prefix:        prefix,
			SchoolName:    strings.TrimSpace(req.SchoolName),
			CreatedAt:     s.now().UTC(),
		}
		if err := s.codes.Create(ctx, record); err != nil {
			return models.ReferenceCode{}, err
		}
		s.logger.Info().Str("code", code).Str("school", record.SchoolName).Msg("reference code generated")
		return record, nil
	}
	return models.ReferenceCode{}, ErrReferenceCodeExhausted
}

// Validate accepts codes of the form PREFIX-NUMBER that were previously generated.
func (s *referenceCodeService) Validate(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	parts := strings.Split(code, "-")
	if len(parts) != 2 || parts[0] == "" {
		return ErrInvalidReferenceCode
	}
	if _, err := strconv.Atoi(parts[1]); err != nil {
		return ErrInvalidReferenceCode
	}

	exists, err := s.codes.Exists(ctx, code)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

func (s *referenceCodeService) List(ctx context.Context) ([]models.ReferenceCode, error) {
	return s.codes.List(ctx)
}
