package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/olympiad-api/internal/dto"
	"github.com/noah-isme/olympiad-api/internal/models"
	"github.com/noah-isme/olympiad-api/internal/observability"
	"github.com/noah-isme/olympiad-api/internal/repository"
	"github.com/noah-isme/olympiad-api/internal/scoring"
	"github.com/noah-isme/olympiad-api/internal/tables"
)

const (
	certificatePrefix   = "GIO-GQC-"
	certificateAttempts = 10
)

// ErrCertificateCodeExhausted indicates no free certificate code was found.
var ErrCertificateCodeExhausted = errors.New("could not allocate a unique certificate code")

// SeedAttempt is a score imported from a roster instead of a quiz submission.
type SeedAttempt struct {
	Student models.Student
	Type    string
	Score   int
}

// RankingService stores quiz attempts and keeps ranks, school ranks and certificates current.
type RankingService interface {
	SaveQuizMarks(ctx context.Context, studentID string, req dto.QuizSubmission) (dto.QuizResult, error)
	RecordAttempt(ctx context.Context, student models.Student, testType string, attempt scoring.Attempt) (dto.QuizResult, error)
	SeedAttempts(ctx context.Context, seeds []SeedAttempt) error
	Ranks(ctx context.Context, studentID, testType string) (dto.RankResponse, error)
	SchoolRankings(ctx context.Context, schoolName, testType string) ([]scoring.SchoolPlacement, error)
}

type rankingService struct {
	students     repository.StudentRepository
	certificates repository.CertificateRepository
	tables       *tables.Tables
	resolver     *scoring.Resolver
	events       EventPublisher
	validator    *validator.Validate
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewRankingService constructs the ranking pipeline.
func NewRankingService(students repository.StudentRepository, certificates repository.CertificateRepository, refTables *tables.Tables, resolver *scoring.Resolver, events EventPublisher, validate *validator.Validate, logger zerolog.Logger) RankingService {
	if events == nil {
		events = noopPublisher{}
	}
	if resolver == nil {
		resolver = scoring.NewResolver(nil)
	}
	return &rankingService{
		students:     students,
		certificates: certificates,
		tables:       refTables,
		resolver:     resolver,
		events:       events,
		validator:    validate,
		logger:       logger.With().Str("component", "ranking_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/olympiad-api/internal/service/ranking"),
		now:          time.Now,
	}
}

func (s *rankingService) SaveQuizMarks(ctx context.Context, studentID string, req dto.QuizSubmission) (dto.QuizResult, error) {
	ctx, span := s.tracer.Start(ctx, "quiz.save_marks", trace.WithAttributes(
		attribute.String("quiz.type", req.Type),
		attribute.String("student.uid", studentID),
	))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.QuizResult{}, err
	}
	if _, ok := s.tables.Test(req.Type); !ok {
		span.SetStatus(codes.Error, "unknown test type")
		return dto.QuizResult{}, ErrInvalidTestType
	}

	student, err := s.students.Get(ctx, studentID)
	if err != nil {
		span.RecordError(err)
		return dto.QuizResult{}, err
	}
	if strings.TrimSpace(student.Standard) == "" {
		span.SetStatus(codes.Error, "standard missing")
		return dto.QuizResult{}, ErrStandardRequired
	}

	subjectScores := scoring.Aggregate(req.Questions, req.SelectedAnswers, func(index int, subject string) {
		s.logger.Warn().Str("uid", studentID).Int("question", index).Str("subject", subject).Msg("ignoring question with unrecognised subject")
	})

	attempt := scoring.Attempt{
		Score:         req.Score,
		Total:         req.Total,
		SubjectScores: subjectScores,
		Timestamp:     s.now().UTC(),
	}

	result, err := s.RecordAttempt(ctx, student, req.Type, attempt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record failed")
		return dto.QuizResult{}, err
	}

	observability.QuizSubmissions().WithLabelValues(req.Type).Inc()
	span.SetStatus(codes.Ok, "saved")
	return result, nil
}

func (s *rankingService) RecordAttempt(ctx context.Context, student models.Student, testType string, attempt scoring.Attempt) (dto.QuizResult, error) {
	result, err := s.record(ctx, student, testType, attempt)
	if err != nil {
		return dto.QuizResult{}, err
	}

	if placement, ok := s.rankSchool(ctx, student.SchoolName, testType, student.UID); ok {
		result.Ranks.School = &placement
	}

	if err := s.maybeIssueCertificate(ctx, student, testType, attempt.Score, &result); err != nil {
		return dto.QuizResult{}, err
	}
	return result, nil
}

// SeedAttempts records imported scores and ranks every affected school cohort once at the end.
func (s *rankingService) SeedAttempts(ctx context.Context, seeds []SeedAttempt) error {
	type cohortKey struct{ school, testType string }
	cohorts := map[cohortKey]struct{}{}
	var order []cohortKey

	for _, seed := range seeds {
		attempt := scoring.Attempt{Score: seed.Score, Total: s.maxScore(seed.Type), Timestamp: s.now().UTC()}
		result, err := s.record(ctx, seed.Student, seed.Type, attempt)
		if err != nil {
			return fmt.Errorf("seed %s %s attempt: %w", seed.Student.UID, seed.Type, err)
		}
		if err := s.maybeIssueCertificate(ctx, seed.Student, seed.Type, seed.Score, &result); err != nil {
			return err
		}

		school := strings.ToLower(strings.TrimSpace(seed.Student.SchoolName))
		if school == "" {
			continue
		}
		key := cohortKey{school: school, testType: seed.Type}
		if _, seen := cohorts[key]; !seen {
			cohorts[key] = struct{}{}
			order = append(order, key)
		}
	}

	for _, key := range order {
		s.rankSchool(ctx, key.school, key.testType, "")
	}
	return nil
}

func (s *rankingService) Ranks(ctx context.Context, studentID, testType string) (dto.RankResponse, error) {
	if _, ok := s.tables.Test(testType); !ok {
		return dto.RankResponse{}, ErrInvalidTestType
	}
	student, err := s.students.Get(ctx, studentID)
	if err != nil {
		return dto.RankResponse{}, err
	}

	ranks, ok := student.Ranks[testType]
	if !ok {
		ranks = models.UnrankedSet()
	}
	return dto.RankResponse{Type: testType, Ranks: ranks}, nil
}

func (s *rankingService) SchoolRankings(ctx context.Context, schoolName, testType string) ([]scoring.SchoolPlacement, error) {
	if _, ok := s.tables.Test(testType); !ok {
		return nil, ErrInvalidTestType
	}
	cohort, err := s.students.ListBySchool(ctx, schoolName)
	if err != nil {
		return nil, err
	}
	return scoring.RankSchool(cohortMembers(cohort, testType)), nil
}

func (s *rankingService) record(ctx context.Context, student models.Student, testType string, attempt scoring.Attempt) (dto.QuizResult, error) {
	test, ok := s.tables.Test(testType)
	if !ok {
		return dto.QuizResult{}, ErrInvalidTestType
	}

	attemptID := newAttemptID(attempt.Timestamp)
	if err := s.students.AddAttempt(ctx, student.UID, testType, attemptID, attempt); err != nil {
		return dto.QuizResult{}, fmt.Errorf("store attempt: %w", err)
	}
	if attempt.SubjectScores != nil {
		if err := s.students.SetSubjectMarks(ctx, student.UID, testType, attempt.SubjectScores); err != nil {
			return dto.QuizResult{}, fmt.Errorf("store subject marks: %w", err)
		}
	}

	scopes := s.resolver.ResolveScopes(attempt.Score, test)
	if err := s.students.SetRanks(ctx, student.UID, testType, scopes); err != nil {
		return dto.QuizResult{}, fmt.Errorf("store ranks: %w", err)
	}

	return dto.QuizResult{
		AttemptID:     attemptID,
		Type:          testType,
		Score:         attempt.Score,
		Total:         attempt.Total,
		SubjectScores: attempt.SubjectScores,
		Ranks:         models.RankSet{Global: scopes.Global, Country: scopes.Country, State: scopes.State},
	}, nil
}

// rankSchool re-ranks the whole cohort of schoolName and stores every member's school rank.
// Failures are logged only. The placement of uid is returned when present.
func (s *rankingService) rankSchool(ctx context.Context, schoolName, testType, uid string) (scoring.Placement, bool) {
	if strings.TrimSpace(schoolName) == "" {
		return scoring.Placement{}, false
	}

	cohort, err := s.students.ListBySchool(ctx, schoolName)
	if err != nil {
		s.logger.Error().Err(err).Str("school", schoolName).Msg("failed to load school cohort")
		return scoring.Placement{}, false
	}

	var own scoring.Placement
	found := false
	for _, placement := range scoring.RankSchool(cohortMembers(cohort, testType)) {
		if err := s.students.SetSchoolRank(ctx, placement.ID, testType, placement.Placement()); err != nil {
			s.logger.Error().Err(err).Str("uid", placement.ID).Str("school", schoolName).Msg("failed to store school rank")
			continue
		}
		if placement.ID == uid {
			own = placement.Placement()
			found = true
		}
	}
	return own, found
}

func (s *rankingService) maybeIssueCertificate(ctx context.Context, student models.Student, testType string, score int, result *dto.QuizResult) error {
	if testType != tables.TestLive || score != s.maxScore(testType) {
		return nil
	}

	code, err := s.allocateCertificateCode(ctx)
	if err != nil {
		return err
	}

	ranks := result.Ranks
	certificate := models.Certificate{
		Code:       code,
		StudentID:  student.UID,
		Name:       student.Name,
		SchoolName: student.SchoolName,
		Type:       models.CertificateTypeGQC,
		Rankings:   &ranks,
		Timestamp:  s.now().UTC(),
	}

	if err := s.certificates.Create(ctx, certificate); err != nil {
		return fmt.Errorf("store certificate: %w", err)
	}
	if err := s.students.AddCertificate(ctx, student.UID, certificate); err != nil {
		return fmt.Errorf("store student certificate: %w", err)
	}

	observability.CertificatesIssued().Inc()
	s.events.Publish(ctx, EventCertificateIssued, certificate)
	s.logger.Info().Str("uid", student.UID).Str("code", code).Msg("certificate issued")

	response := dto.NewCertificateResponse(certificate)
	result.Certificate = &response
	return nil
}

func (s *rankingService) allocateCertificateCode(ctx context.Context) (string, error) {
	for i := 0; i < certificateAttempts; i++ {
		code := fmt.Sprintf("%s%04d", certificatePrefix, 1000+s.resolver.IntN(9000))
		exists, err := s.certificates.Exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrCertificateCodeExhausted
}

func (s *rankingService) maxScore(testType string) int {
	test, _ := s.tables.Test(testType)
	return test.MaxScore
}

func cohortMembers(students []models.Student, testType string) []scoring.CohortMember {
	members := make([]scoring.CohortMember, 0, len(students))
	for _, student := range students {
		members = append(members, scoring.CohortMember{
			ID:       student.UID,
			Name:     student.Name,
			Attempts: student.Attempts(testType),
		})
	}
	return members
}

func newAttemptID(at time.Time) string {
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(at.UTC().Format("2006-01-02T15:04:05.000Z"))
	return fmt.Sprintf("test-%s-%s", stamp, uuid.NewString()[:8])
}
