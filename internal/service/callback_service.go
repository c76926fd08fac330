package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/olympiad-api/internal/dto"
	"github.com/noah-isme/olympiad-api/internal/models"
	"github.com/noah-isme/olympiad-api/internal/observability"
	"github.com/noah-isme/olympiad-api/internal/repository"
)

// ErrCallbackDuplicate indicates the same request was submitted moments ago.
var ErrCallbackDuplicate = errors.New("duplicate callback request")

// CallbackService stores public call-back requests for the admin team.
type CallbackService interface {
	Submit(ctx context.Context, req dto.CallbackRequest) (dto.CallbackResponse, error)
	List(ctx context.Context) ([]models.CallbackRequest, error)
}

type callbackService struct {
	repo      repository.CallbackRepository
	cache     *redis.Client
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	dedupeTTL time.Duration
	tracer    trace.Tracer
	now       func() time.Time
}

// NewCallbackService constructs the callback service. cache may be nil, which disables dedupe.
func NewCallbackService(repo repository.CallbackRepository, cache *redis.Client, validate *validator.Validate, logger zerolog.Logger) CallbackService {
	return &callbackService{
		repo:      repo,
		cache:     cache,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "callback_service").Logger(),
		dedupeTTL: 5 * time.Minute,
		tracer:    otel.Tracer("github.com/noah-isme/olympiad-api/internal/service/callback"),
		now:       time.Now,
	}
}

func (s *callbackService) Submit(ctx context.Context, req dto.CallbackRequest) (dto.CallbackResponse, error) {
	ctx, span := s.tracer.Start(ctx, "callback.submit")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		observability.CallbackRequests().WithLabelValues("invalid").Inc()
		return dto.CallbackResponse{}, err
	}

	checksum := requestFingerprint(req.Name, req.Mobile, req.Message)
	span.SetAttributes(attribute.String("callback.checksum", checksum))

	if s.cache != nil {
		key := fmt.Sprintf("callback:dedupe:%s", checksum)
		ok, err := s.cache.SetNX(ctx, key, 1, s.dedupeTTL).Result()
		if err != nil {
			span.RecordError(err)
			return dto.CallbackResponse{}, err
		}
		if !ok {
			span.SetStatus(codes.Error, "duplicate request")
			observability.CallbackRequests().WithLabelValues("duplicate").Inc()
			return dto.CallbackResponse{}, ErrCallbackDuplicate
		}
	}

	request := models.CallbackRequest{
		Name:      strings.TrimSpace(s.sanitizer.Sanitize(req.Name)),
		Mobile:    strings.TrimSpace(req.Mobile),
		Message:   strings.TrimSpace(s.sanitizer.Sanitize(req.Message)),
		CreatedAt: s.now().UTC(),
	}

	id, err := s.repo.Create(ctx, request)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		observability.CallbackRequests().WithLabelValues("error").Inc()
		return dto.CallbackResponse{}, err
	}

	observability.CallbackRequests().WithLabelValues("stored").Inc()
	s.logger.Info().Str("id", id).Str("mobile", maskMobile(request.Mobile)).Msg("callback request stored")
	span.SetStatus(codes.Ok, "stored")
	return dto.CallbackResponse{ID: id, Status: "received"}, nil
}

func (s *callbackService) List(ctx context.Context) ([]models.CallbackRequest, error) {
	return s.repo.List(ctx)
}
