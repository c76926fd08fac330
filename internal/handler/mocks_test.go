package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/olympiad-api/internal/dto"
	"github.com/noah-isme/olympiad-api/internal/models"
	"github.com/noah-isme/olympiad-api/internal/scoring"
	"github.com/noah-isme/olympiad-api/internal/service"
)

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

// asCaller stands in for the JWT middleware.
func asCaller(uid, role, status string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if uid != "" {
			c.Locals("user_id", uid)
			c.Locals("user_role", role)
		}
		if status != "" {
			c.Locals("user_status", status)
		}
		return c.Next()
	}
}

func jsonRequest(t *testing.T, method, path string, payload any) *http.Request {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

type mockStudentService struct {
	lastUID      string
	lastStatus   string
	lastRegister dto.StudentRegisterRequest
	auth         dto.AuthResponse
	profile      dto.StudentProfile
	counts       dto.TestCounts
	marks        map[string]scoring.SubjectScores
	err          error
}

func (m *mockStudentService) Register(_ context.Context, req dto.StudentRegisterRequest) (dto.AuthResponse, error) {
	m.lastRegister = req
	return m.auth, m.err
}

func (m *mockStudentService) Login(_ context.Context, _ dto.StudentLoginRequest) (dto.AuthResponse, error) {
	return m.auth, m.err
}

func (m *mockStudentService) Profile(_ context.Context, uid string) (dto.StudentProfile, error) {
	m.lastUID = uid
	return m.profile, m.err
}

func (m *mockStudentService) UpdateProfile(_ context.Context, uid string, _ dto.StudentUpdateRequest) (dto.StudentProfile, error) {
	m.lastUID = uid
	return m.profile, m.err
}

func (m *mockStudentService) UpdatePaymentStatus(_ context.Context, uid, status string) (dto.StudentProfile, error) {
	m.lastUID = uid
	m.lastStatus = status
	return m.profile, m.err
}

func (m *mockStudentService) Delete(_ context.Context, uid string) error {
	m.lastUID = uid
	return m.err
}

func (m *mockStudentService) TestCounts(_ context.Context, uid string) (dto.TestCounts, error) {
	m.lastUID = uid
	return m.counts, m.err
}

func (m *mockStudentService) SubjectMarks(_ context.Context, uid string) (map[string]scoring.SubjectScores, error) {
	m.lastUID = uid
	return m.marks, m.err
}

type mockRankingService struct {
	lastStudent    string
	lastType       string
	lastSubmission dto.QuizSubmission
	result         dto.QuizResult
	ranks          dto.RankResponse
	placements     []scoring.SchoolPlacement
	err            error
}

func (m *mockRankingService) SaveQuizMarks(_ context.Context, studentID string, req dto.QuizSubmission) (dto.QuizResult, error) {
	m.lastStudent = studentID
	m.lastSubmission = req
	return m.result, m.err
}

func (m *mockRankingService) RecordAttempt(context.Context, models.Student, string, scoring.Attempt) (dto.QuizResult, error) {
	return m.result, m.err
}

func (m *mockRankingService) SeedAttempts(context.Context, []service.SeedAttempt) error {
	return m.err
}

func (m *mockRankingService) Ranks(_ context.Context, studentID, testType string) (dto.RankResponse, error) {
	m.lastStudent = studentID
	m.lastType = testType
	return m.ranks, m.err
}

func (m *mockRankingService) SchoolRankings(_ context.Context, _ string, testType string) ([]scoring.SchoolPlacement, error) {
	m.lastType = testType
	return m.placements, m.err
}

type mockCertificateService struct {
	lastCode    string
	certificate dto.CertificateResponse
	err         error
}

func (m *mockCertificateService) Verify(_ context.Context, code string) (dto.CertificateResponse, error) {
	m.lastCode = code
	return m.certificate, m.err
}

type mockCallbackService struct {
	lastRequest dto.CallbackRequest
	response    dto.CallbackResponse
	requests    []models.CallbackRequest
	err         error
}

func (m *mockCallbackService) Submit(_ context.Context, req dto.CallbackRequest) (dto.CallbackResponse, error) {
	m.lastRequest = req
	return m.response, m.err
}

func (m *mockCallbackService) List(context.Context) ([]models.CallbackRequest, error) {
	return m.requests, m.err
}

type mockImportService struct {
	lastName    string
	lastOptions service.StudentImportOptions
	lastBody    []byte
	coordinator bool
	result      dto.BulkResult
	report      []byte
	err         error
}

func (m *mockImportService) ImportStudents(_ context.Context, name string, data io.Reader, opts service.StudentImportOptions) (dto.BulkResult, error) {
	m.lastName = name
	m.lastOptions = opts
	m.lastBody, _ = io.ReadAll(data)
	return m.result, m.err
}

func (m *mockImportService) ImportCoordinators(_ context.Context, name string, data io.Reader) (dto.BulkResult, error) {
	m.lastName = name
	m.coordinator = true
	m.lastBody, _ = io.ReadAll(data)
	return m.result, m.err
}

func (m *mockImportService) FailureReport(dto.BulkResult) ([]byte, error) {
	return m.report, nil
}

type mockIncentiveService struct {
	lastID      string
	lastTrigger string
	response    dto.IncentiveResponse
	err         error
}

func (m *mockIncentiveService) Recalculate(_ context.Context, coordinatorID, trigger string) (dto.IncentiveResponse, error) {
	m.lastID = coordinatorID
	m.lastTrigger = trigger
	return m.response, m.err
}

func (m *mockIncentiveService) RecalculateAll(context.Context, string) (int, error) {
	return 0, m.err
}
