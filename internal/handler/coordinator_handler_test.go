package handler_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/olympiad-api/internal/dto"
	"github.com/noah-isme/olympiad-api/internal/handler"
	"github.com/noah-isme/olympiad-api/internal/models"
	"github.com/noah-isme/olympiad-api/internal/service"
)

type mockCoordinatorService struct {
	lastID      string
	lastBank    dto.BankProfileRequest
	lastPayment dto.StudentPaymentStatusRequest
	auth        dto.AuthResponse
	profile     models.Coordinator
	verified    dto.VerifyDetailsResponse
	students    []dto.StudentProfile
	rank        dto.PartnerRankResponse
	groups      []dto.LeaderboardGroup
	counts      dto.PracticeTestCounts
	err         error
}

func (m *mockCoordinatorService) Register(context.Context, dto.CoordinatorRegisterRequest) (dto.AuthResponse, error) {
	return m.auth, m.err
}

func (m *mockCoordinatorService) Login(context.Context, dto.StaffLoginRequest) (dto.AuthResponse, error) {
	return m.auth, m.err
}

func (m *mockCoordinatorService) Profile(_ context.Context, id string) (models.Coordinator, error) {
	m.lastID = id
	return m.profile, m.err
}

func (m *mockCoordinatorService) UpdateBankProfile(_ context.Context, id string, req dto.BankProfileRequest) (models.Coordinator, error) {
	m.lastID = id
	m.lastBank = req
	return m.profile, m.err
}

func (m *mockCoordinatorService) VerifyDetails(_ context.Context, id string, _ dto.VerifyDetailsRequest) (dto.VerifyDetailsResponse, error) {
	m.lastID = id
	return m.verified, m.err
}

func (m *mockCoordinatorService) Students(_ context.Context, id string) ([]dto.StudentProfile, error) {
	m.lastID = id
	return m.students, m.err
}

func (m *mockCoordinatorService) PartnerRank(_ context.Context, id string) (dto.PartnerRankResponse, error) {
	m.lastID = id
	return m.rank, m.err
}

func (m *mockCoordinatorService) Leaderboard(context.Context) ([]dto.LeaderboardGroup, error) {
	return m.groups, m.err
}

func (m *mockCoordinatorService) Achievements(_ context.Context, id string) ([]models.Achievement, error) {
	m.lastID = id
	return nil, m.err
}

func (m *mockCoordinatorService) TestCounts(_ context.Context, id string) (dto.PracticeTestCounts, error) {
	m.lastID = id
	return m.counts, m.err
}

func (m *mockCoordinatorService) UpdateStudentPaymentStatus(_ context.Context, id string, req dto.StudentPaymentStatusRequest) (dto.StudentProfile, error) {
	m.lastID = id
	m.lastPayment = req
	return dto.StudentProfile{UID: req.StudentID, PaymentStatus: req.PaymentStatus}, m.err
}

type coordinatorFixture struct {
	app          *fiber.App
	coordinators *mockCoordinatorService
	incentives   *mockIncentiveService
	imports      *mockImportService
}

func newCoordinatorHandlerFixture(auth fiber.Handler) coordinatorFixture {
	f := coordinatorFixture{
		app:          fiber.New(),
		coordinators: &mockCoordinatorService{},
		incentives:   &mockIncentiveService{},
		imports:      &mockImportService{},
	}
	handler.NewCoordinatorHandler(f.coordinators, f.incentives, f.imports, zerolog.Nop()).
		Register(f.app.Group("/api/coordinator"), auth)
	return f
}

func workbookUpload(t *testing.T, path, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestCoordinatorHandler_PendingCoordinatorLimitedToProfile(t *testing.T) {
	f := newCoordinatorHandlerFixture(asCaller("c1", models.RoleCoordinator, models.CoordinatorPending))
	f.coordinators.profile = models.Coordinator{UserID: "c1", Status: models.CoordinatorPending}

	resp, err := f.app.Test(jsonRequest(t, http.MethodGet, "/api/coordinator/profile", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = f.app.Test(jsonRequest(t, http.MethodPost, "/api/coordinator/calculate-incentives", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Empty(t, f.incentives.lastID)
}

func TestCoordinatorHandler_CalculateIncentives(t *testing.T) {
	f := newCoordinatorHandlerFixture(asCaller("c1", models.RoleCoordinator, models.CoordinatorApproved))
	f.incentives.response = dto.IncentiveResponse{UserID: "c1", Category: "Bronze Partner", TotalEarnings: 8585}

	resp, err := f.app.Test(jsonRequest(t, http.MethodPost, "/api/coordinator/calculate-incentives", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body envelope[dto.IncentiveResponse]
	decodeResponse(t, resp, &body)
	require.Equal(t, 8585, body.Data.TotalEarnings)
	require.Equal(t, "c1", f.incentives.lastID)
	require.Equal(t, service.TriggerRequest, f.incentives.lastTrigger)
}

func TestCoordinatorHandler_UpdateProfileMapsBankErrors(t *testing.T) {
	f := newCoordinatorHandlerFixture(asCaller("c1", models.RoleCoordinator, models.CoordinatorPending))

	payload := dto.BankProfileRequest{UpiID: "asha@upi", IFSC: "HDFC0001234", AccountHolderName: "Asha", AccountNumber: "123456789"}
	resp, err := f.app.Test(jsonRequest(t, http.MethodPut, "/api/coordinator/profile", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "HDFC0001234", f.coordinators.lastBank.IFSC)

	f.coordinators.err = service.ErrInvalidIFSC
	resp, err = f.app.Test(jsonRequest(t, http.MethodPut, "/api/coordinator/profile", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body envelope[any]
	decodeResponse(t, resp, &body)
	require.Equal(t, service.ErrInvalidIFSC.Error(), body.Message)

	f.coordinators.err = service.ErrUpstream
	resp, err = f.app.Test(jsonRequest(t, http.MethodPut, "/api/coordinator/profile", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestCoordinatorHandler_BulkUploadScopesToCaller(t *testing.T) {
	f := newCoordinatorHandlerFixture(asCaller("c1", models.RoleCoordinator, models.CoordinatorApproved))
	f.imports.result = dto.BulkResult{SuccessCount: 2, TotalPracticeTests: 3}

	resp, err := f.app.Test(workbookUpload(t, "/api/coordinator/bulk-upload", "roster.xlsx", []byte("PK-data")))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body envelope[dto.BulkResult]
	decodeResponse(t, resp, &body)
	require.Equal(t, 2, body.Data.SuccessCount)
	require.Equal(t, "roster.xlsx", f.imports.lastName)
	require.Equal(t, "c1", f.imports.lastOptions.CoordinatorID)
	require.Empty(t, f.imports.lastOptions.SchoolName)
	require.Equal(t, []byte("PK-data"), f.imports.lastBody)
}

func TestCoordinatorHandler_BulkUploadErrors(t *testing.T) {
	f := newCoordinatorHandlerFixture(asCaller("c1", models.RoleCoordinator, models.CoordinatorApproved))

	resp, err := f.app.Test(jsonRequest(t, http.MethodPost, "/api/coordinator/bulk-upload", map[string]string{}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	f.imports.err = service.ErrUploadTooLarge
	resp, err = f.app.Test(workbookUpload(t, "/api/coordinator/bulk-upload", "big.xlsx", []byte("PK")))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestCoordinatorHandler_PaymentStatusOwnership(t *testing.T) {
	f := newCoordinatorHandlerFixture(asCaller("c1", models.RoleCoordinator, models.CoordinatorApproved))

	payload := dto.StudentPaymentStatusRequest{StudentID: "s1", PaymentStatus: models.PaymentPaid}
	resp, err := f.app.Test(jsonRequest(t, http.MethodPut, "/api/coordinator/students/payment-status", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "s1", f.coordinators.lastPayment.StudentID)

	f.coordinators.err = service.ErrForbidden
	resp, err = f.app.Test(jsonRequest(t, http.MethodPut, "/api/coordinator/students/payment-status", payload))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestCoordinatorHandler_RankAndLeaderboard(t *testing.T) {
	f := newCoordinatorHandlerFixture(asCaller("c2", models.RoleCoordinator, models.CoordinatorApproved))
	f.coordinators.rank = dto.PartnerRankResponse{Rank: 2, TotalCoordinators: 5, TotalEarnings: 900}
	f.coordinators.groups = []dto.LeaderboardGroup{{
		Category:        "Starter Partner",
		TopCoordinators: []dto.LeaderboardEntry{{UserID: "c1", Name: "Asha", Category: "Starter Partner", BonusAmount: 110}},
	}}

	resp, err := f.app.Test(jsonRequest(t, http.MethodGet, "/api/coordinator/rank", nil))
	require.NoError(t, err)
	var rank envelope[dto.PartnerRankResponse]
	decodeResponse(t, resp, &rank)
	require.Equal(t, 2, rank.Data.Rank)
	require.Equal(t, "c2", f.coordinators.lastID)

	resp, err = f.app.Test(jsonRequest(t, http.MethodGet, "/api/coordinator/leaderboard", nil))
	require.NoError(t, err)
	var board envelope[[]dto.LeaderboardGroup]
	decodeResponse(t, resp, &board)
	require.Len(t, board.Data, 1)
	require.Equal(t, 110, board.Data[0].TopCoordinators[0].BonusAmount)
}
