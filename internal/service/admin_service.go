package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/olympiad-api/internal/dto"
	"github.com/noah-isme/olympiad-api/internal/models"
	"github.com/noah-isme/olympiad-api/internal/repository"
)

// ErrAlreadyApproved indicates an approval of an approved coordinator.
var ErrAlreadyApproved = errors.New("coordinator is already approved")

// AdminService is the back-office surface over every account type.
type AdminService interface {
	Login(ctx context.Context, req dto.StaffLoginRequest) (dto.AuthResponse, error)
	Register(ctx context.Context, req dto.AdminRegisterRequest) (models.Admin, error)
	Students(ctx context.Context) ([]dto.StudentProfile, error)
	UpdateStudent(ctx context.Context, req dto.AdminStudentUpdateRequest) (*dto.StudentProfile, error)
	Schools(ctx context.Context) ([]models.School, error)
	Coordinators(ctx context.Context, status string) ([]models.Coordinator, error)
	ApproveCoordinator(ctx context.Context, id string) (models.Coordinator, error)
	DeleteCoordinator(ctx context.Context, id string) error
	PaymentDetails(ctx context.Context, id string) (dto.PaymentDetailsResponse, error)
	TestCounts(ctx context.Context) (dto.AllTestCounts, error)
}

// AdminServiceDeps groups the collaborators of the admin service.
type AdminServiceDeps struct {
	Admins       repository.AdminRepository
	Students     repository.StudentRepository
	Schools      repository.SchoolRepository
	Coordinators repository.CoordinatorRepository
	StudentSvc   StudentService
	Mailer       Mailer
	Events       EventPublisher
	Cache        *redis.Client
	Tokens       *TokenIssuer
	Validator    *validator.Validate
	Logger       zerolog.Logger
}

type adminService struct {
	admins       repository.AdminRepository
	students     repository.StudentRepository
	schools      repository.SchoolRepository
	coordinators repository.CoordinatorRepository
	studentSvc   StudentService
	mailer       Mailer
	events       EventPublisher
	cache        *redis.Client
	tokens       *TokenIssuer
	validator    *validator.Validate
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewAdminService constructs the admin service.
func NewAdminService(deps AdminServiceDeps) AdminService {
	events := deps.Events
	if events == nil {
		events = noopPublisher{}
	}
	return &adminService{
		admins:       deps.Admins,
		students:     deps.Students,
		schools:      deps.Schools,
		coordinators: deps.Coordinators,
		studentSvc:   deps.StudentSvc,
		mailer:       deps.Mailer,
		events:       events,
		cache:        deps.Cache,
		tokens:       deps.Tokens,
		validator:    deps.Validator,
		logger:       deps.Logger.With().Str("component", "admin_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/olympiad-api/internal/service/admin"),
		now:          time.Now,
	}
}

func (s *adminService) Login(ctx context.Context, req dto.StaffLoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	admin, err := s.admins.FindByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return dto.AuthResponse{}, err
	}
	if err := CheckPassword(admin.Password, req.Password); err != nil {
		return dto.AuthResponse{}, err
	}

	token, expires, err := s.tokens.Issue(admin.UID, models.RoleAdmin, "")
	if err != nil {
		return dto.AuthResponse{}, err
	}
	return dto.AuthResponse{Token: token, ExpiresAt: expires, Role: models.RoleAdmin, Profile: dto.NewAdminProfile(admin)}, nil
}

func (s *adminService) Register(ctx context.Context, req dto.AdminRegisterRequest) (models.Admin, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Admin{}, err
	}

	email := normalizeEmail(req.Email)
	if _, err := s.admins.FindByEmail(ctx, email); err == nil {
		return models.Admin{}, ErrAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return models.Admin{}, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return models.Admin{}, err
	}
	admin := models.Admin{
		UID:       uuid.NewString(),
		Email:     email,
		Password:  hash,
		Name:      strings.TrimSpace(req.Name),
		Role:      models.RoleAdmin,
		CreatedAt: s.now().UTC(),
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return models.Admin{}, err
	}

	s.logger.Info().Str("uid", admin.UID).Msg("admin registered")
	return dto.NewAdminProfile(admin), nil
}

func (s *adminService) Students(ctx context.Context) ([]dto.StudentProfile, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewStudentProfiles(students), nil
}

// UpdateStudent deletes the student when DeleteAccount is set and returns nil; otherwise it
// applies the profile fields and then the payment status, if any.
func (s *adminService) UpdateStudent(ctx context.Context, req dto.AdminStudentUpdateRequest) (*dto.StudentProfile, error) {
	ctx, span := s.tracer.Start(ctx, "admin.update_student", trace.WithAttributes(attribute.String("student.uid", req.UID)))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if req.DeleteAccount {
		if err := s.studentSvc.Delete(ctx, req.UID); err != nil {
			span.RecordError(err)
			return nil, err
		}
		s.logger.Info().Str("uid", req.UID).Msg("student deleted by admin")
		return nil, nil
	}

	profile, err := s.studentSvc.UpdateProfile(ctx, req.UID, req.StudentUpdateRequest)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if req.PaymentStatus != nil && *req.PaymentStatus != profile.PaymentStatus {
		profile, err = s.studentSvc.UpdatePaymentStatus(ctx, req.UID, *req.PaymentStatus)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
	}
	return &profile, nil
}

func (s *adminService) Schools(ctx context.Context) ([]models.School, error) {
	schools, err := s.schools.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewSchoolProfiles(schools), nil
}

func (s *adminService) Coordinators(ctx context.Context, status string) ([]models.Coordinator, error) {
	var (
		coordinators []models.Coordinator
		err          error
	)
	switch status {
	case "":
		coordinators, err = s.coordinators.List(ctx)
	case models.CoordinatorPending, models.CoordinatorApproved:
		coordinators, err = s.coordinators.ListByStatus(ctx, status)
	default:
		return nil, ErrInvalidCoordinatorStatus
	}
	if err != nil {
		return nil, err
	}
	return dto.NewCoordinatorProfiles(coordinators), nil
}

func (s *adminService) ApproveCoordinator(ctx context.Context, id string) (models.Coordinator, error) {
	ctx, span := s.tracer.Start(ctx, "admin.approve_coordinator", trace.WithAttributes(attribute.String("coordinator.id", id)))
	defer span.End()

	coordinator, err := s.coordinators.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		return models.Coordinator{}, err
	}
	if coordinator.Approved() {
		span.SetStatus(codes.Error, "already approved")
		return models.Coordinator{}, ErrAlreadyApproved
	}

	now := s.now().UTC()
	if err := s.coordinators.Update(ctx, id, map[string]any{
		"status":     models.CoordinatorApproved,
		"approvedAt": now,
		"updatedAt":  now,
	}); err != nil {
		span.RecordError(err)
		return models.Coordinator{}, err
	}
	coordinator.Status = models.CoordinatorApproved
	coordinator.ApprovedAt = &now
	coordinator.UpdatedAt = now
	invalidateStandings(ctx, s.cache, s.logger)

	if s.mailer != nil {
		if err := s.mailer.SendCoordinatorApproval(ctx, coordinator.Name, coordinator.Email); err != nil {
			s.logger.Warn().Err(err).Str("coordinator_id", id).Msg("approval email not sent")
		}
	}
	profile := dto.NewCoordinatorProfile(coordinator)
	s.events.Publish(ctx, EventCoordinatorApproved, profile)
	s.logger.Info().Str("coordinator_id", id).Msg("coordinator approved")
	return profile, nil
}

func (s *adminService) DeleteCoordinator(ctx context.Context, id string) error {
	if _, err := s.coordinators.Get(ctx, id); err != nil {
		return err
	}
	if err := s.coordinators.Delete(ctx, id); err != nil {
		return err
	}
	invalidateStandings(ctx, s.cache, s.logger)
	s.logger.Info().Str("coordinator_id", id).Msg("coordinator deleted")
	return nil
}

func (s *adminService) PaymentDetails(ctx context.Context, id string) (dto.PaymentDetailsResponse, error) {
	coordinator, err := s.coordinators.Get(ctx, id)
	if err != nil {
		return dto.PaymentDetailsResponse{}, err
	}
	return dto.NewPaymentDetailsResponse(coordinator), nil
}

func (s *adminService) TestCounts(ctx context.Context) (dto.AllTestCounts, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return dto.AllTestCounts{}, err
	}
	return dto.AllTestCounts{Students: len(students), PracticeTestCounts: countPracticeTests(students)}, nil
}
