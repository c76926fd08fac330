package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
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
	"github.com/noah-isme/olympiad-api/internal/tables"
	"github.com/noah-isme/olympiad-api/pkg/razorpay"
)

const (
	leaderboardCacheKey = "coordinators:leaderboard"
	earningsCacheKey    = "coordinators:earnings"
	leaderboardSize     = 10
	uncategorised       = "N/A"
)

var (
	// ErrPayoutDetailsRequired indicates neither bank nor UPI details were supplied.
	ErrPayoutDetailsRequired = errors.New("bank or UPI details are required")
	// ErrIncompleteBankDetails indicates a partial set of bank fields.
	ErrIncompleteBankDetails = errors.New("all bank details are required")
	// ErrInvalidIFSC indicates the bank directory does not know the IFSC code.
	ErrInvalidIFSC = errors.New("invalid IFSC code")
	// ErrInvalidAccountNumber indicates an account number outside 9 to 18 digits.
	ErrInvalidAccountNumber = errors.New("invalid account number")
	// ErrInvalidUPI indicates a malformed UPI handle.
	ErrInvalidUPI = errors.New("invalid UPI ID")

	accountNumberPattern = regexp.MustCompile(`^[0-9]{9,18}$`)
	upiPattern           = regexp.MustCompile(`^[\w.-]{2,256}@[a-zA-Z]{2,64}$`)
)

// BankLookup resolves IFSC codes to branches.
type BankLookup interface {
	LookupIFSC(ctx context.Context, code string) (razorpay.Branch, error)
}

// CoordinatorService covers the coordinator self-service surface.
type CoordinatorService interface {
	Register(ctx context.Context, req dto.CoordinatorRegisterRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, req dto.StaffLoginRequest) (dto.AuthResponse, error)
	Profile(ctx context.Context, id string) (models.Coordinator, error)
	UpdateBankProfile(ctx context.Context, id string, req dto.BankProfileRequest) (models.Coordinator, error)
	VerifyDetails(ctx context.Context, id string, req dto.VerifyDetailsRequest) (dto.VerifyDetailsResponse, error)
	Students(ctx context.Context, id string) ([]dto.StudentProfile, error)
	PartnerRank(ctx context.Context, id string) (dto.PartnerRankResponse, error)
	Leaderboard(ctx context.Context) ([]dto.LeaderboardGroup, error)
	Achievements(ctx context.Context, id string) ([]models.Achievement, error)
	TestCounts(ctx context.Context, id string) (dto.PracticeTestCounts, error)
	UpdateStudentPaymentStatus(ctx context.Context, id string, req dto.StudentPaymentStatusRequest) (dto.StudentProfile, error)
}

// CoordinatorServiceDeps groups the collaborators of the coordinator service.
type CoordinatorServiceDeps struct {
	Coordinators repository.CoordinatorRepository
	Students     repository.StudentRepository
	Incentives   IncentiveService
	Mailer       Mailer
	Tokens       *TokenIssuer
	Banks        BankLookup
	Cache        *redis.Client
	CacheTTL     time.Duration
	Validator    *validator.Validate
	Logger       zerolog.Logger
}

type coordinatorService struct {
	coordinators repository.CoordinatorRepository
	students     repository.StudentRepository
	incentives   IncentiveService
	mailer       Mailer
	tokens       *TokenIssuer
	banks        BankLookup
	cache        *redis.Client
	cacheTTL     time.Duration
	validator    *validator.Validate
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewCoordinatorService constructs the coordinator service.
func NewCoordinatorService(deps CoordinatorServiceDeps) CoordinatorService {
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &coordinatorService{
		coordinators: deps.Coordinators,
		students:     deps.Students,
		incentives:   deps.Incentives,
		mailer:       deps.Mailer,
		tokens:       deps.Tokens,
		banks:        deps.Banks,
		cache:        deps.Cache,
		cacheTTL:     ttl,
		validator:    deps.Validator,
		logger:       deps.Logger.With().Str("component", "coordinator_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/olympiad-api/internal/service/coordinator"),
		now:          time.Now,
	}
}

func (s *coordinatorService) Register(ctx context.Context, req dto.CoordinatorRegisterRequest) (dto.AuthResponse, error) {
	ctx, span := s.tracer.Start(ctx, "coordinators.register")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.AuthResponse{}, err
	}

	email := normalizeEmail(req.Email)
	if _, err := s.coordinators.FindByEmail(ctx, email); err == nil {
		return dto.AuthResponse{}, ErrAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		span.RecordError(err)
		return dto.AuthResponse{}, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	now := s.now().UTC()
	coordinator := models.Coordinator{
		UserID:         uuid.NewString(),
		Name:           strings.TrimSpace(req.Name),
		Email:          email,
		Password:       hash,
		PhoneNumber:    strings.TrimSpace(req.PhoneNumber),
		WhatsappNumber: strings.TrimSpace(req.WhatsappNumber),
		Country:        strings.TrimSpace(req.Country),
		State:          strings.TrimSpace(req.State),
		City:           strings.TrimSpace(req.City),
		Role:           models.RoleCoordinator,
		Status:         models.CoordinatorPending,
		Category:       tables.DefaultCategory,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	span.SetAttributes(attribute.String("coordinator.id", coordinator.UserID))

	if err := s.coordinators.Create(ctx, coordinator); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.AuthResponse{}, err
	}

	invalidateStandings(ctx, s.cache, s.logger)

	if s.mailer != nil {
		if err := s.mailer.SendCoordinatorRegistration(ctx, coordinator.Name, coordinator.Email); err != nil {
			s.logger.Warn().Err(err).Str("coordinator_id", coordinator.UserID).Msg("registration email not sent")
		}
	}

	s.logger.Info().Str("coordinator_id", coordinator.UserID).Msg("coordinator registered")
	return s.authResponse(coordinator)
}

func (s *coordinatorService) Login(ctx context.Context, req dto.StaffLoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	coordinator, err := s.coordinators.FindByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return dto.AuthResponse{}, err
	}
	if err := CheckPassword(coordinator.Password, req.Password); err != nil {
		return dto.AuthResponse{}, err
	}
	return s.authResponse(coordinator)
}

func (s *coordinatorService) Profile(ctx context.Context, id string) (models.Coordinator, error) {
	coordinator, err := s.coordinators.Get(ctx, id)
	if err != nil {
		return models.Coordinator{}, err
	}
	return dto.NewCoordinatorProfile(coordinator), nil
}

func (s *coordinatorService) UpdateBankProfile(ctx context.Context, id string, req dto.BankProfileRequest) (models.Coordinator, error) {
	ctx, span := s.tracer.Start(ctx, "coordinators.update_bank_profile", trace.WithAttributes(attribute.String("coordinator.id", id)))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		return models.Coordinator{}, err
	}
	if _, err := s.coordinators.Get(ctx, id); err != nil {
		return models.Coordinator{}, err
	}

	branch, err := s.lookupBranch(ctx, req.IFSC)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ifsc lookup failed")
		return models.Coordinator{}, err
	}

	err = s.coordinators.Update(ctx, id, map[string]any{
		"upiId":             strings.TrimSpace(req.UpiID),
		"ifsc":              strings.ToUpper(strings.TrimSpace(req.IFSC)),
		"accountHolderName": strings.TrimSpace(req.AccountHolderName),
		"accountNumber":     strings.TrimSpace(req.AccountNumber),
		"bankName":          branch.Bank,
		"branch":            branch.Branch,
		"updatedAt":         s.now().UTC(),
	})
	if err != nil {
		span.RecordError(err)
		return models.Coordinator{}, err
	}
	return s.Profile(ctx, id)
}

func (s *coordinatorService) VerifyDetails(ctx context.Context, id string, req dto.VerifyDetailsRequest) (dto.VerifyDetailsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "coordinators.verify_details", trace.WithAttributes(attribute.String("coordinator.id", id)))
	defer span.End()

	if _, err := s.coordinators.Get(ctx, id); err != nil {
		return dto.VerifyDetailsResponse{}, err
	}

	bankName := strings.TrimSpace(req.BankName)
	upiID := strings.TrimSpace(req.UpiID)
	if bankName == "" && upiID == "" {
		return dto.VerifyDetailsResponse{}, ErrPayoutDetailsRequired
	}

	var result dto.VerifyDetailsResponse
	fields := map[string]any{}

	if bankName != "" {
		accountNumber := strings.TrimSpace(req.AccountNumber)
		if accountNumber == "" || strings.TrimSpace(req.IFSC) == "" || strings.TrimSpace(req.AccountHolderName) == "" {
			return dto.VerifyDetailsResponse{}, ErrIncompleteBankDetails
		}
		if _, err := s.lookupBranch(ctx, req.IFSC); err != nil {
			span.RecordError(err)
			return dto.VerifyDetailsResponse{}, err
		}
		if !accountNumberPattern.MatchString(accountNumber) {
			return dto.VerifyDetailsResponse{}, ErrInvalidAccountNumber
		}
		result.BankVerified = true
		fields["bankVerified"] = true
	}

	if upiID != "" {
		if !upiPattern.MatchString(upiID) {
			return dto.VerifyDetailsResponse{}, ErrInvalidUPI
		}
		result.UpiVerified = true
		fields["upiVerified"] = true
	}

	fields["updatedAt"] = s.now().UTC()
	if err := s.coordinators.Update(ctx, id, fields); err != nil {
		span.RecordError(err)
		return dto.VerifyDetailsResponse{}, err
	}
	return result, nil
}

func (s *coordinatorService) Students(ctx context.Context, id string) ([]dto.StudentProfile, error) {
	students, err := s.students.ListByCoordinator(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewStudentProfiles(students), nil
}

type earningsStanding struct {
	UserID        string `json:"userId"`
	TotalEarnings int    `json:"totalEarnings"`
}

func (s *coordinatorService) PartnerRank(ctx context.Context, id string) (dto.PartnerRankResponse, error) {
	var standings []earningsStanding
	if !s.cached(ctx, earningsCacheKey, &standings) {
		coordinators, err := s.coordinators.List(ctx)
		if err != nil {
			return dto.PartnerRankResponse{}, err
		}
		standings = make([]earningsStanding, 0, len(coordinators))
		for _, coordinator := range coordinators {
			standings = append(standings, earningsStanding{UserID: coordinator.UserID, TotalEarnings: coordinator.TotalEarnings})
		}
		sort.SliceStable(standings, func(i, j int) bool {
			return standings[i].TotalEarnings > standings[j].TotalEarnings
		})
		s.store(ctx, earningsCacheKey, standings)
	}

	if len(standings) == 0 {
		return dto.PartnerRankResponse{}, ErrNotFound
	}

	for i, standing := range standings {
		if standing.UserID == id {
			return dto.PartnerRankResponse{
				Rank:              i + 1,
				TotalCoordinators: len(standings),
				TotalEarnings:     standing.TotalEarnings,
			}, nil
		}
	}
	return dto.PartnerRankResponse{}, ErrNotFound
}

func (s *coordinatorService) Leaderboard(ctx context.Context) ([]dto.LeaderboardGroup, error) {
	var groups []dto.LeaderboardGroup
	if s.cached(ctx, leaderboardCacheKey, &groups) {
		return groups, nil
	}

	approved, err := s.coordinators.ListByStatus(ctx, models.CoordinatorApproved)
	if err != nil {
		return nil, err
	}
	if len(approved) == 0 {
		return nil, ErrNotFound
	}

	entries := make([]dto.LeaderboardEntry, 0, len(approved))
	for _, coordinator := range approved {
		category := coordinator.Category
		if category == "" {
			category = uncategorised
		}
		entries = append(entries, dto.LeaderboardEntry{
			UserID:      coordinator.UserID,
			Name:        coordinator.Name,
			Category:    category,
			BonusAmount: coordinator.TotalEngagementBonus,
			Status:      coordinator.Status,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].BonusAmount > entries[j].BonusAmount
	})
	if len(entries) > leaderboardSize {
		entries = entries[:leaderboardSize]
	}

	index := map[string]int{}
	for _, entry := range entries {
		pos, ok := index[entry.Category]
		if !ok {
			pos = len(groups)
			index[entry.Category] = pos
			groups = append(groups, dto.LeaderboardGroup{Category: entry.Category})
		}
		groups[pos].TopCoordinators = append(groups[pos].TopCoordinators, entry)
	}

	s.store(ctx, leaderboardCacheKey, groups)
	return groups, nil
}

func (s *coordinatorService) Achievements(ctx context.Context, id string) ([]models.Achievement, error) {
	return s.coordinators.Achievements(ctx, id)
}

func (s *coordinatorService) TestCounts(ctx context.Context, id string) (dto.PracticeTestCounts, error) {
	students, err := s.students.ListByCoordinator(ctx, id)
	if err != nil {
		return dto.PracticeTestCounts{}, err
	}
	return countPracticeTests(students), nil
}

func (s *coordinatorService) UpdateStudentPaymentStatus(ctx context.Context, id string, req dto.StudentPaymentStatusRequest) (dto.StudentProfile, error) {
	ctx, span := s.tracer.Start(ctx, "coordinators.update_student_payment", trace.WithAttributes(
		attribute.String("coordinator.id", id),
		attribute.String("student.uid", req.StudentID),
	))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		return dto.StudentProfile{}, err
	}

	student, err := s.students.Get(ctx, req.StudentID)
	if err != nil {
		return dto.StudentProfile{}, err
	}
	if student.AddedBy != id {
		span.SetStatus(codes.Error, "not owner")
		return dto.StudentProfile{}, ErrForbidden
	}

	now := s.now().UTC()
	if err := s.students.Update(ctx, student.UID, map[string]any{"paymentStatus": req.PaymentStatus, "updatedAt": now}); err != nil {
		span.RecordError(err)
		return dto.StudentProfile{}, err
	}
	if s.incentives != nil {
		if _, err := s.incentives.Recalculate(ctx, id, TriggerPaymentStatus); err != nil {
			span.RecordError(err)
			return dto.StudentProfile{}, fmt.Errorf("recalculate incentives: %w", err)
		}
	}

	student.PaymentStatus = req.PaymentStatus
	return dto.NewStudentProfile(student), nil
}

func (s *coordinatorService) lookupBranch(ctx context.Context, code string) (razorpay.Branch, error) {
	if s.banks == nil {
		return razorpay.Branch{}, ErrUpstream
	}
	branch, err := s.banks.LookupIFSC(ctx, code)
	switch {
	case err == nil:
		return branch, nil
	case errors.Is(err, razorpay.ErrNotFound), errors.Is(err, razorpay.ErrInvalidIFSC):
		return razorpay.Branch{}, ErrInvalidIFSC
	default:
		s.logger.Warn().Err(err).Str("ifsc", code).Msg("ifsc lookup failed")
		return razorpay.Branch{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
}

func (s *coordinatorService) authResponse(coordinator models.Coordinator) (dto.AuthResponse, error) {
	token, expires, err := s.tokens.Issue(coordinator.UserID, models.RoleCoordinator, coordinator.Status)
	if err != nil {
		return dto.AuthResponse{}, err
	}
	return dto.AuthResponse{Token: token, ExpiresAt: expires, Role: models.RoleCoordinator, Profile: dto.NewCoordinatorProfile(coordinator)}, nil
}

// invalidateStandings drops the cached partner ranks and leaderboard. Any change to the
// set of coordinators, their status or their earnings must call it.
func invalidateStandings(ctx context.Context, cache *redis.Client, logger zerolog.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Del(ctx, leaderboardCacheKey, earningsCacheKey).Err(); err != nil {
		logger.Warn().Err(err).Msg("failed to invalidate coordinator standings cache")
	}
}

func (s *coordinatorService) cached(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding unreadable cache entry")
		return false
	}
	return true
}

func (s *coordinatorService) store(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func countPracticeTests(students []models.Student) dto.PracticeTestCounts {
	var counts dto.PracticeTestCounts
	for _, student := range students {
		counts.TotalPracticeTests += student.AttemptCount(tables.TestMock)
		counts.FinalPracticeTests += student.AttemptCount(tables.TestLive)
	}
	return counts
}
