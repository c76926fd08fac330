package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/olympiad-api/internal/dto"
	"github.com/noah-isme/olympiad-api/internal/handler"
	"github.com/noah-isme/olympiad-api/internal/models"
	"github.com/noah-isme/olympiad-api/internal/service"
)

type mockAdminService struct {
	lastID       string
	lastStatus   string
	lastUpdate   dto.AdminStudentUpdateRequest
	updated      *dto.StudentProfile
	coordinators []models.Coordinator
	details      dto.PaymentDetailsResponse
	counts       dto.AllTestCounts
	err          error
}

func (m *mockAdminService) Login(context.Context, dto.StaffLoginRequest) (dto.AuthResponse, error) {
	return dto.AuthResponse{Token: "admin-token", Role: models.RoleAdmin}, m.err
}

func (m *mockAdminService) Register(_ context.Context, req dto.AdminRegisterRequest) (models.Admin, error) {
	return models.Admin{UID: "a2", Email: req.Email, Name: req.Name, Role: models.RoleAdmin}, m.err
}

func (m *mockAdminService) Students(context.Context) ([]dto.StudentProfile, error) {
	return []dto.StudentProfile{{UID: "s1"}}, m.err
}

func (m *mockAdminService) UpdateStudent(_ context.Context, req dto.AdminStudentUpdateRequest) (*dto.StudentProfile, error) {
	m.lastUpdate = req
	return m.updated, m.err
}

func (m *mockAdminService) Schools(context.Context) ([]models.School, error) {
	return nil, m.err
}

func (m *mockAdminService) Coordinators(_ context.Context, status string) ([]models.Coordinator, error) {
	m.lastStatus = status
	return m.coordinators, m.err
}

func (m *mockAdminService) ApproveCoordinator(_ context.Context, id string) (models.Coordinator, error) {
	m.lastID = id
	return models.Coordinator{UserID: id, Status: models.CoordinatorApproved}, m.err
}

func (m *mockAdminService) DeleteCoordinator(_ context.Context, id string) error {
	m.lastID = id
	return m.err
}

func (m *mockAdminService) PaymentDetails(_ context.Context, id string) (dto.PaymentDetailsResponse, error) {
	m.lastID = id
	return m.details, m.err
}

func (m *mockAdminService) TestCounts(context.Context) (dto.AllTestCounts, error) {
	return m.counts, m.err
}

type mockReferenceCodeService struct {
	lastCode string
	code     models.ReferenceCode
	err      error
}

func (m *mockReferenceCodeService) Generate(_ context.Context, req dto.ReferenceCodeRequest) (models.ReferenceCode, error) {
	return models.ReferenceCode{ReferenceCode: m.code.ReferenceCode, Prefix: req.Prefix, SchoolName: req.SchoolName}, m.err
}

func (m *mockReferenceCodeService) Validate(_ context.Context, code string) error {
	m.lastCode = code
	return m.err
}

func (m *mockReferenceCodeService) List(context.Context) ([]models.ReferenceCode, error) {
	return []models.ReferenceCode{m.code}, m.err
}

type adminFixture struct {
	app       *fiber.App
	admin     *mockAdminService
	codes     *mockReferenceCodeService
	callbacks *mockCallbackService
	imports   *mockImportService
}

func newAdminFixture(auth fiber.Handler) adminFixture {
	f := adminFixture{
		app:       fiber.New(),
		admin:     &mockAdminService{},
		codes:     &mockReferenceCodeService{},
		callbacks: &mockCallbackService{},
		imports:   &mockImportService{},
	}
	handler.NewAdminHandler(handler.AdminHandlerDeps{
		Admin:          f.admin,
		ReferenceCodes: f.codes,
		Callbacks:      f.callbacks,
		Imports:        f.imports,
		Logger:         zerolog.Nop(),
	}).Register(f.app.Group("/api/admin"), auth)
	return f
}

func TestAdminHandler_RequiresAdminRole(t *testing.T) {
	f := newAdminFixture(asCaller("sc1", models.RoleSchool, ""))

	for _, path := range []string{"/api/admin/students", "/api/admin/coordinators", "/api/admin/request-callbacks"} {
		resp, err := f.app.Test(jsonRequest(t, http.MethodGet, path, nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusForbidden, resp.StatusCode, path)
	}

	resp, err := f.app.Test(jsonRequest(t, http.MethodPost, "/api/admin/register", dto.AdminRegisterRequest{Name: "Ops"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestAdminHandler_ValidateReferenceCodeIsPublic(t *testing.T) {
	f := newAdminFixture(asCaller("", "", ""))

	resp, err := f.app.Test(jsonRequest(t, http.MethodPost, "/api/admin/reference-codes/validate", dto.ValidateReferenceCodeRequest{ReferenceCode: "GV-1234"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "GV-1234", f.codes.lastCode)

	f.codes.err = service.ErrInvalidReferenceCode
	resp, err = f.app.Test(jsonRequest(t, http.MethodPost, "/api/admin/reference-codes/validate", dto.ValidateReferenceCodeRequest{ReferenceCode: "GV1234"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	f.codes.err = service.ErrNotFound
	resp, err = f.app.Test(jsonRequest(t, http.MethodPost, "/api/admin/reference-codes/validate", dto.ValidateReferenceCodeRequest{ReferenceCode: "GV-9999"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAdminHandler_GenerateReferenceCode(t *testing.T) {
	f := newAdminFixture(asCaller("a1", models.RoleAdmin, ""))
	f.codes.code = models.ReferenceCode{ReferenceCode: "GV-4821"}

	resp, err := f.app.Test(jsonRequest(t, http.MethodPost, "/api/admin/reference-codes", dto.ReferenceCodeRequest{Prefix: "gv", SchoolName: "Green Valley"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body envelope[models.ReferenceCode]
	decodeResponse(t, resp, &body)
	require.Equal(t, "GV-4821", body.Data.ReferenceCode)
	require.Equal(t, "Green Valley", body.Data.SchoolName)
}

func TestAdminHandler_UpdateStudentDelete(t *testing.T) {
	f := newAdminFixture(asCaller("a1", models.RoleAdmin, ""))

	resp, err := f.app.Test(jsonRequest(t, http.MethodPost, "/api/admin/students/update", map[string]any{"uid": "s1", "deleteAccount": true}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, f.admin.lastUpdate.DeleteAccount)

	var body envelope[any]
	decodeResponse(t, resp, &body)
	require.Equal(t, "student deleted", body.Message)

	f.admin.updated = &dto.StudentProfile{UID: "s1", Name: "Asha K"}
	resp, err = f.app.Test(jsonRequest(t, http.MethodPost, "/api/admin/students/update", map[string]any{"uid": "s1", "name": "Asha K"}))
	require.NoError(t, err)
	var updated envelope[dto.StudentProfile]
	decodeResponse(t, resp, &updated)
	require.Equal(t, "student updated", updated.Message)
	require.Equal(t, "Asha K", *f.admin.lastUpdate.Name)
}

func TestAdminHandler_CoordinatorLifecycle(t *testing.T) {
	f := newAdminFixture(asCaller("a1", models.RoleAdmin, ""))

	resp, err := f.app.Test(jsonRequest(t, http.MethodGet, "/api/admin/coordinators?status=Pending", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, models.CoordinatorPending, f.admin.lastStatus)

	resp, err = f.app.Test(jsonRequest(t, http.MethodPost, "/api/admin/coordinators/approve", dto.ApproveCoordinatorRequest{UID: "c1"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "c1", f.admin.lastID)

	resp, err = f.app.Test(jsonRequest(t, http.MethodPost, "/api/admin/coordinators/approve", map[string]string{}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	f.admin.details = dto.PaymentDetailsResponse{UserID: "c7", UpiID: "c7@upi", UpiVerified: true}
	resp, err = f.app.Test(jsonRequest(t, http.MethodGet, "/api/admin/coordinators/c7/payment-details", nil))
	require.NoError(t, err)
	var details envelope[dto.PaymentDetailsResponse]
	decodeResponse(t, resp, &details)
	require.True(t, details.Data.UpiVerified)
	require.Equal(t, "c7", f.admin.lastID)

	resp, err = f.app.Test(jsonRequest(t, http.MethodDelete, "/api/admin/coordinators/c9", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "c9", f.admin.lastID)

	f.admin.err = service.ErrInvalidCoordinatorStatus
	resp, err = f.app.Test(jsonRequest(t, http.MethodGet, "/api/admin/coordinators?status=banned", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAdminHandler_BulkUploadCoordinatorsWithReport(t *testing.T) {
	f := newAdminFixture(asCaller("a1", models.RoleAdmin, ""))
	f.imports.result = dto.BulkResult{SuccessCount: 1, FailedCount: 1, FailedEntries: []dto.BulkFailure{{Row: 3, Reason: "Missing required fields"}}}
	f.imports.report = []byte("xlsx-bytes")

	resp, err := f.app.Test(workbookUpload(t, "/api/admin/bulk-upload/coordinators?report=xlsx", "partners.xlsx", []byte("PK")))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")
	require.Contains(t, resp.Header.Get("Content-Disposition"), "bulk-upload-failures.xlsx")
	require.True(t, f.imports.coordinator)

	resp, err = f.app.Test(workbookUpload(t, "/api/admin/bulk-upload/students", "students.xlsx", []byte("PK")))
	require.NoError(t, err)
	var body envelope[dto.BulkResult]
	decodeResponse(t, resp, &body)
	require.Equal(t, 1, body.Data.FailedCount)
	require.Equal(t, 3, body.Data.FailedEntries[0].Row)
	require.Equal(t, service.StudentImportOptions{}, f.imports.lastOptions)
}

func TestAdminHandler_TestCounts(t *testing.T) {
	f := newAdminFixture(asCaller("a1", models.RoleAdmin, ""))
	f.admin.counts = dto.AllTestCounts{Students: 4, PracticeTestCounts: dto.PracticeTestCounts{TotalPracticeTests: 9, FinalPracticeTests: 2}}

	resp, err := f.app.Test(jsonRequest(t, http.MethodGet, "/api/admin/students/test-counts", nil))
	require.NoError(t, err)

	var body envelope[dto.AllTestCounts]
	decodeResponse(t, resp, &body)
	require.Equal(t, 4, body.Data.Students)
	require.Equal(t, 9, body.Data.TotalPracticeTests)
}
