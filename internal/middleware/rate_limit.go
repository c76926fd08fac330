package middleware

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/olympiad-api/internal/utils"
)

// RateLimit throttles a route group to max requests per window. Requests are bucketed by
// identifier, the authenticated user or client IP, and for unauthenticated JSON posts the
// submitted email or username, so one address cannot exhaust another account's budget.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Minute
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return rateLimitKey(identifier, c)
		},
		LimitReached: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(window.Seconds())))
			return utils.SendError(c, fiber.StatusTooManyRequests, "too many requests, please try again later")
		},
	})
}

func rateLimitKey(identifier string, c *fiber.Ctx) string {
	parts := []string{identifier}
	if userID := UserID(c); userID != "" {
		return strings.Join(append(parts, "user", userID), ":")
	}
	parts = append(parts, c.IP())

	var account struct {
		Email    string `json:"email"`
		Username string `json:"username"`
	}
	if body := c.Body(); len(body) > 0 && json.Unmarshal(body, &account) == nil {
		if subject := strings.ToLower(strings.TrimSpace(account.Email + account.Username)); subject != "" {
			parts = append(parts, subject)
		}
	}
	return strings.Join(parts, ":")
}
