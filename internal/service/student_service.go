package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/olympiad-api/internal/dto"
	"github.com/noah-isme/olympiad-api/internal/models"
	"github.com/noah-isme/olympiad-api/internal/repository"
	"github.com/noah-isme/olympiad-api/internal/scoring"
	"github.com/noah-isme/olympiad-api/internal/tables"
)

// ErrUnknownReferenceCode indicates a registration quoted a code that was never generated.
var ErrUnknownReferenceCode = errors.New("unknown reference code")

// StudentService manages student accounts and their self-service views.
type StudentService interface {
	Register(ctx context.Context, req dto.StudentRegisterRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, req dto.StudentLoginRequest) (dto.AuthResponse, error)
	Profile(ctx context.Context, uid string) (dto.StudentProfile, error)
	UpdateProfile(ctx context.Context, uid string, req dto.StudentUpdateRequest) (dto.StudentProfile, error)
	UpdatePaymentStatus(ctx context.Context, uid, status string) (dto.StudentProfile, error)
	Delete(ctx context.Context, uid string) error
	TestCounts(ctx context.Context, uid string) (dto.TestCounts, error)
	SubjectMarks(ctx context.Context, uid string) (map[string]scoring.SubjectScores, error)
}

type studentService struct {
	students   repository.StudentRepository
	codes      repository.ReferenceCodeRepository
	incentives IncentiveService
	tokens     *TokenIssuer
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewStudentService constructs a student service. incentives may be nil.
func NewStudentService(students repository.StudentRepository, codes repository.ReferenceCodeRepository, incentives IncentiveService, tokens *TokenIssuer, validate *validator.Validate, logger zerolog.Logger) StudentService {
	return &studentService{
		students:   students,
		codes:      codes,
		incentives: incentives,
		tokens:     tokens,
		validator:  validate,
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger.With().Str("component", "student_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/olympiad-api/internal/service/student"),
		now:        time.Now,
	}
}

func (s *studentService) Register(ctx context.Context, req dto.StudentRegisterRequest) (dto.AuthResponse, error) {
	ctx, span := s.tracer.Start(ctx, "students.register")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.AuthResponse{}, err
	}

	username := strings.TrimSpace(req.Username)
	if _, err := s.students.FindByUsername(ctx, username); err == nil {
		span.SetStatus(codes.Error, "duplicate username")
		return dto.AuthResponse{}, ErrAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		span.RecordError(err)
		return dto.AuthResponse{}, err
	}

	referenceCode := strings.ToUpper(strings.TrimSpace(req.ReferenceCode))
	if referenceCode != "" {
		exists, err := s.codes.Exists(ctx, referenceCode)
		if err != nil {
			span.RecordError(err)
			return dto.AuthResponse{}, err
		}
		if !exists {
			return dto.AuthResponse{}, ErrUnknownReferenceCode
		}
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		span.RecordError(err)
		return dto.AuthResponse{}, err
	}

	now := s.now().UTC()
	student := models.Student{
		UID:                uuid.NewString(),
		Name:               s.clean(req.Name),
		Username:           username,
		Password:           hash,
		PhoneNumber:        strings.TrimSpace(req.PhoneNumber),
		TeacherPhoneNumber: strings.TrimSpace(req.TeacherPhoneNumber),
		WhatsappNumber:     strings.TrimSpace(req.WhatsappNumber),
		Standard:           strings.TrimSpace(req.Standard),
		SchoolName:         s.clean(req.SchoolName),
		Country:            s.clean(req.Country),
		State:              s.clean(req.State),
		City:               s.clean(req.City),
		ReferenceCode:      referenceCode,
		PaymentStatus:      models.PaymentUnpaid,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	span.SetAttributes(attribute.String("student.uid", student.UID))

	if err := s.students.Create(ctx, student); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Str("uid", student.UID).Msg("student registered")
	return s.authResponse(student)
}

func (s *studentService) Login(ctx context.Context, req dto.StudentLoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	student, err := s.students.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if errors.Is(err, repository.ErrNotFound) {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return dto.AuthResponse{}, err
	}
	if err := CheckPassword(student.Password, req.Password); err != nil {
		return dto.AuthResponse{}, err
	}

	return s.authResponse(student)
}

func (s *studentService) Profile(ctx context.Context, uid string) (dto.StudentProfile, error) {
	student, err := s.students.Get(ctx, uid)
	if err != nil {
		return dto.StudentProfile{}, err
	}
	return dto.NewStudentProfile(student), nil
}

func (s *studentService) UpdateProfile(ctx context.Context, uid string, req dto.StudentUpdateRequest) (dto.StudentProfile, error) {
	ctx, span := s.tracer.Start(ctx, "students.update_profile", trace.WithAttributes(attribute.String("student.uid", uid)))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		return dto.StudentProfile{}, err
	}

	fields := req.Fields()
	for _, key := range []string{"name", "schoolName", "country", "state", "city"} {
		if value, ok := fields[key].(string); ok {
			fields[key] = s.clean(value)
		}
	}
	if req.Password != nil {
		hash, err := HashPassword(*req.Password)
		if err != nil {
			span.RecordError(err)
			return dto.StudentProfile{}, err
		}
		fields["password"] = hash
	}
	fields["updatedAt"] = s.now().UTC()

	if err := s.students.Update(ctx, uid, fields); err != nil {
		span.RecordError(err)
		return dto.StudentProfile{}, err
	}
	return s.Profile(ctx, uid)
}

func (s *studentService) UpdatePaymentStatus(ctx context.Context, uid, status string) (dto.StudentProfile, error) {
	ctx, span := s.tracer.Start(ctx, "students.update_payment_status", trace.WithAttributes(
		attribute.String("student.uid", uid),
		attribute.String("student.payment_status", status),
	))
	defer span.End()

	if !models.ValidPaymentStatus(status) {
		return dto.StudentProfile{}, ErrInvalidPaymentStatus
	}

	student, err := s.students.Get(ctx, uid)
	if err != nil {
		span.RecordError(err)
		return dto.StudentProfile{}, err
	}

	fields := map[string]any{"paymentStatus": status, "updatedAt": s.now().UTC()}
	switch status {
	case models.PaymentQuizAttempted:
		fields["testCompleted"] = true
	case models.PaymentUnpaid:
		fields["testCompleted"] = false
	}
	if err := s.students.Update(ctx, uid, fields); err != nil {
		span.RecordError(err)
		return dto.StudentProfile{}, err
	}

	if student.AddedBy != "" && s.incentives != nil {
		if _, err := s.incentives.Recalculate(ctx, student.AddedBy, TriggerPaymentStatus); err != nil {
			s.logger.Warn().Err(err).Str("uid", uid).Str("coordinator_id", student.AddedBy).Msg("incentive recalculation after payment change failed")
		}
	}

	return s.Profile(ctx, uid)
}

func (s *studentService) Delete(ctx context.Context, uid string) error {
	if _, err := s.students.Get(ctx, uid); err != nil {
		return err
	}
	return s.students.Delete(ctx, uid)
}

func (s *studentService) TestCounts(ctx context.Context, uid string) (dto.TestCounts, error) {
	student, err := s.students.Get(ctx, uid)
	if err != nil {
		return dto.TestCounts{}, err
	}
	return dto.TestCounts{Mock: student.AttemptCount(tables.TestMock), Live: student.AttemptCount(tables.TestLive)}, nil
}

func (s *studentService) SubjectMarks(ctx context.Context, uid string) (map[string]scoring.SubjectScores, error) {
	student, err := s.students.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	marks := make(map[string]scoring.SubjectScores, len(student.SubjectMarks))
	for testType, scores := range student.SubjectMarks {
		marks[testType] = scores.Normalize()
	}
	return marks, nil
}

func (s *studentService) authResponse(student models.Student) (dto.AuthResponse, error) {
	token, expires, err := s.tokens.Issue(student.UID, models.RoleStudent, "")
	if err != nil {
		return dto.AuthResponse{}, err
	}
	return dto.AuthResponse{Token: token, ExpiresAt: expires, Role: models.RoleStudent, Profile: dto.NewStudentProfile(student)}, nil
}

func (s *studentService) clean(value string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(value))
}
