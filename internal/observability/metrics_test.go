package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerExposesDomainCollectors(t *testing.T) {
	QuizSubmissions().WithLabelValues("live").Inc()
	CertificatesIssued().Inc()
	BulkRows().WithLabelValues("student", "success").Add(3)

	app := fiber.New()
	app.Get("/metrics", MetricsHandler())

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)
	require.True(t, strings.Contains(text, `olympiad_quiz_submissions_total{type="live"}`))
	require.True(t, strings.Contains(text, "olympiad_certificates_issued_total"))
	require.True(t, strings.Contains(text, `olympiad_bulk_rows_total{entity="student",outcome="success"} 3`))
}
