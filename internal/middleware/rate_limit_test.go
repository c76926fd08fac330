package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func loginAttempt(t *testing.T, app *fiber.App, username string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"`+username+`","password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestRateLimitPerSubmittedAccount(t *testing.T) {
	app := fiber.New()
	app.Use("/login", RateLimit("student-login", 2, time.Minute))
	app.Post("/login", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	require.Equal(t, fiber.StatusOK, loginAttempt(t, app, "asha").StatusCode)
	require.Equal(t, fiber.StatusOK, loginAttempt(t, app, "ASHA ").StatusCode)

	limited := loginAttempt(t, app, "asha")
	require.Equal(t, fiber.StatusTooManyRequests, limited.StatusCode)
	require.Equal(t, "60", limited.Header.Get(fiber.HeaderRetryAfter))

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, decodeJSON(limited, &body))
	require.False(t, body.Success)
	require.Contains(t, body.Message, "too many requests")

	require.Equal(t, fiber.StatusOK, loginAttempt(t, app, "ravi").StatusCode, "other accounts keep their budget")
}

func TestRateLimitKeyPrefersUser(t *testing.T) {
	app := fiber.New()
	var key string
	app.Post("/", func(c *fiber.Ctx) error {
		c.Locals("user_id", "s1")
		key = rateLimitKey("callback", c)
		return nil
	})

	_, err := app.Test(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c"}`)))
	require.NoError(t, err)
	require.Equal(t, "callback:user:s1", key)
}
