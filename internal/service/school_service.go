package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/olympiad-api/internal/dto"
	"github.com/noah-isme/olympiad-api/internal/models"
	"github.com/noah-isme/olympiad-api/internal/repository"
	"github.com/noah-isme/olympiad-api/internal/scoring"
	"github.com/noah-isme/olympiad-api/internal/tables"
)

// SchoolService covers school representative accounts and school-wide reports.
type SchoolService interface {
	Register(ctx context.Context, req dto.SchoolRegisterRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, req dto.StaffLoginRequest) (dto.AuthResponse, error)
	Representative(ctx context.Context, uid string) (dto.RepresentativeResponse, error)
	Students(ctx context.Context, schoolName, standard string) ([]dto.StudentProfile, error)
	SubjectMarks(ctx context.Context, schoolName string) (dto.SubjectMarksReport, error)
	Rankings(ctx context.Context, schoolName, testType string) ([]scoring.SchoolPlacement, error)
}

type schoolService struct {
	schools   repository.SchoolRepository
	students  repository.StudentRepository
	rankings  RankingService
	tokens    *TokenIssuer
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewSchoolService constructs the school service.
func NewSchoolService(schools repository.SchoolRepository, students repository.StudentRepository, rankings RankingService, tokens *TokenIssuer, validate *validator.Validate, logger zerolog.Logger) SchoolService {
	return &schoolService{
		schools:   schools,
		students:  students,
		rankings:  rankings,
		tokens:    tokens,
		validator: validate,
		logger:    logger.With().Str("component", "school_service").Logger(),
		now:       time.Now,
	}
}

func (s *schoolService) Register(ctx context.Context, req dto.SchoolRegisterRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	email := normalizeEmail(req.Email)
	if _, err := s.schools.FindByEmail(ctx, email); err == nil {
		return dto.AuthResponse{}, ErrAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return dto.AuthResponse{}, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	school := models.School{
		UID:           uuid.NewString(),
		Email:         email,
		Password:      hash,
		SchoolName:    strings.TrimSpace(req.SchoolName),
		PrincipalName: strings.TrimSpace(req.PrincipalName),
		Role:          models.RoleSchool,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.schools.Create(ctx, school); err != nil {
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Str("uid", school.UID).Str("school", school.SchoolName).Msg("school registered")
	return s.authResponse(school)
}

func (s *schoolService) Login(ctx context.Context, req dto.StaffLoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	school, err := s.schools.FindByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return dto.AuthResponse{}, err
	}
	if err := CheckPassword(school.Password, req.Password); err != nil {
		return dto.AuthResponse{}, err
	}
	return s.authResponse(school)
}

func (s *schoolService) Representative(ctx context.Context, uid string) (dto.RepresentativeResponse, error) {
	school, err := s.schools.Get(ctx, uid)
	if err != nil {
		return dto.RepresentativeResponse{}, err
	}
	if school.Role == "" {
		school.Role = models.RoleSchool
	}

	cohort, err := s.students.ListBySchool(ctx, school.SchoolName)
	if err != nil {
		return dto.RepresentativeResponse{}, err
	}
	return dto.RepresentativeResponse{
		School:             dto.NewSchoolProfile(school),
		PracticeTestCounts: countPracticeTests(cohort),
	}, nil
}

func (s *schoolService) Students(ctx context.Context, schoolName, standard string) ([]dto.StudentProfile, error) {
	cohort, err := s.students.ListBySchool(ctx, schoolName)
	if err != nil {
		return nil, err
	}

	wanted := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(standard)), "th")
	profiles := make([]dto.StudentProfile, 0, len(cohort))
	for _, student := range cohort {
		if wanted != "" {
			have := strings.ToLower(strings.TrimSpace(student.Standard))
			if have != wanted && have != wanted+"th" {
				continue
			}
		}
		profiles = append(profiles, dto.NewStudentProfile(student))
	}
	return profiles, nil
}

// SubjectMarks reports the latest subject marks of every student grouped by test type,
// numeric standard and subject, best first. Students without a usable standard are skipped.
func (s *schoolService) SubjectMarks(ctx context.Context, schoolName string) (dto.SubjectMarksReport, error) {
	if _, err := s.schools.FindByName(ctx, schoolName); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	cohort, err := s.students.ListBySchool(ctx, schoolName)
	if err != nil {
		return nil, err
	}

	report := dto.SubjectMarksReport{tables.TestMock: {}, tables.TestLive: {}}
	for _, student := range cohort {
		standard := digitsOnly(student.Standard)
		if standard == "" {
			s.logger.Debug().Str("uid", student.UID).Msg("skipping student without a standard")
			continue
		}

		for testType, byStandard := range report {
			subjects, ok := byStandard[standard]
			if !ok {
				subjects = make(map[string][]dto.SubjectMark, len(scoring.Subjects()))
				for _, subject := range scoring.Subjects() {
					subjects[subject] = []dto.SubjectMark{}
				}
				byStandard[standard] = subjects
			}

			for label, score := range student.SubjectMarks[testType] {
				subject, ok := scoring.CanonicalSubject(label)
				if !ok {
					continue
				}
				subjects[subject] = append(subjects[subject], dto.SubjectMark{StudentName: student.Name, Marks: score.Score})
			}
		}
	}

	for _, byStandard := range report {
		for _, subjects := range byStandard {
			for _, marks := range subjects {
				sort.SliceStable(marks, func(i, j int) bool { return marks[i].Marks > marks[j].Marks })
			}
		}
	}
	return report, nil
}

func (s *schoolService) Rankings(ctx context.Context, schoolName, testType string) ([]scoring.SchoolPlacement, error) {
	placements, err := s.rankings.SchoolRankings(ctx, schoolName, testType)
	if err != nil {
		return nil, err
	}
	if len(placements) == 0 {
		return nil, ErrNotFound
	}
	return placements, nil
}

func (s *schoolService) authResponse(school models.School) (dto.AuthResponse, error) {
	token, expires, err := s.tokens.Issue(school.UID, models.RoleSchool, "")
	if err != nil {
		return dto.AuthResponse{}, err
	}
	return dto.AuthResponse{Token: token, ExpiresAt: expires, Role: models.RoleSchool, Profile: dto.NewSchoolProfile(school)}, nil
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
