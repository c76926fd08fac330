package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/olympiad-api/internal/dto"
	"github.com/noah-isme/olympiad-api/internal/incentive"
	"github.com/noah-isme/olympiad-api/internal/observability"
	"github.com/noah-isme/olympiad-api/internal/repository"
)

// Recalculation triggers, used as metric labels.
const (
	TriggerRequest       = "request"
	TriggerPaymentStatus = "payment_status"
	TriggerBulkUpload    = "bulk_upload"
	TriggerCLI           = "cli"
)

// IncentiveService recomputes coordinator incentives from their paid students.
type IncentiveService interface {
	Recalculate(ctx context.Context, coordinatorID, trigger string) (dto.IncentiveResponse, error)
	RecalculateAll(ctx context.Context, trigger string) (int, error)
}

type incentiveService struct {
	coordinators repository.CoordinatorRepository
	students     repository.StudentRepository
	calculator   *incentive.Calculator
	cache        *redis.Client
	events       EventPublisher
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewIncentiveService constructs an incentive service. cache may be nil.
func NewIncentiveService(coordinators repository.CoordinatorRepository, students repository.StudentRepository, calculator *incentive.Calculator, cache *redis.Client, events EventPublisher, logger zerolog.Logger) IncentiveService {
	if events == nil {
		events = noopPublisher{}
	}
	return &incentiveService{
		coordinators: coordinators,
		students:     students,
		calculator:   calculator,
		cache:        cache,
		events:       events,
		logger:       logger.With().Str("component", "incentive_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/olympiad-api/internal/service/incentive"),
		now:          time.Now,
	}
}

func (s *incentiveService) Recalculate(ctx context.Context, coordinatorID, trigger string) (dto.IncentiveResponse, error) {
	ctx, span := s.tracer.Start(ctx, "incentives.recalculate", trace.WithAttributes(
		attribute.String("coordinator.id", coordinatorID),
		attribute.String("incentives.trigger", trigger),
	))
	defer span.End()

	if _, err := s.coordinators.Get(ctx, coordinatorID); err != nil {
		span.RecordError(err)
		return dto.IncentiveResponse{}, err
	}

	students, err := s.students.ListByCoordinator(ctx, coordinatorID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list students failed")
		return dto.IncentiveResponse{}, err
	}

	var practiceTests []int
	for _, student := range students {
		if incentive.Eligible(student.PaymentStatus) {
			practiceTests = append(practiceTests, student.PracticeTestsAttempted)
		}
	}

	result := s.calculator.Calculate(practiceTests)
	calculatedAt := s.now().UTC()

	err = s.coordinators.Update(ctx, coordinatorID, map[string]any{
		"category":                 result.Category,
		"totalRegistrations":       result.TotalRegistrations,
		"totalIncentives":          result.TotalIncentives,
		"totalEngagementBonus":     result.TotalEngagementBonus,
		"totalEarnings":            result.TotalEarnings,
		"lastIncentiveCalculation": calculatedAt,
		"updatedAt":                calculatedAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return dto.IncentiveResponse{}, fmt.Errorf("store incentives: %w", err)
	}

	response := dto.IncentiveResponse{
		UserID:                   coordinatorID,
		Category:                 result.Category,
		PerStudentShare:          result.PerStudentShare,
		TotalRegistrations:       result.TotalRegistrations,
		TotalIncentives:          result.TotalIncentives,
		TotalEngagementBonus:     result.TotalEngagementBonus,
		TotalEarnings:            result.TotalEarnings,
		LastIncentiveCalculation: calculatedAt,
	}

	invalidateStandings(ctx, s.cache, s.logger)
	observability.IncentiveRecalculations().WithLabelValues(trigger).Inc()
	s.events.Publish(ctx, EventIncentivesRecalculated, response)
	s.logger.Info().
		Str("coordinator_id", coordinatorID).
		Str("trigger", trigger).
		Str("category", result.Category).
		Int("registrations", result.TotalRegistrations).
		Msg("incentives recalculated")

	return response, nil
}

func (s *incentiveService) RecalculateAll(ctx context.Context, trigger string) (int, error) {
	coordinators, err := s.coordinators.List(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, coordinator := range coordinators {
		if _, err := s.Recalculate(ctx, coordinator.UserID, trigger); err != nil {
			return updated, fmt.Errorf("recalculate %s: %w", coordinator.UserID, err)
		}
		updated++
	}
	return updated, nil
}

