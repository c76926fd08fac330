package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/olympiad-api/internal/utils"
)

const (
	localUserID     = "user_id"
	localUserRole   = "user_role"
	localUserStatus = "user_status"
)

// accessClaims mirrors the claims minted by service.TokenIssuer.
type accessClaims struct {
	Role   string `json:"role"`
	Status string `json:"status,omitempty"`
	jwt.RegisteredClaims
}

// JWTProtected verifies the HS256 bearer token and binds subject, role and account
// status to the request locals.
func JWTProtected(secret string) fiber.Handler {
	key := []byte(secret)
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "missing or malformed bearer token")
		}

		claims := &accessClaims{}
		if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return key, nil
		}); err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid or expired token")
		}

		subject := strings.TrimSpace(claims.Subject)
		if subject == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "token has no subject")
		}

		c.Locals(localUserID, subject)
		if role := normalizeRoleValue(claims.Role); role != "" {
			c.Locals(localUserRole, role)
		}
		if status := strings.ToLower(strings.TrimSpace(claims.Status)); status != "" {
			c.Locals(localUserStatus, status)
		}
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// UserID returns the authenticated subject.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

// UserRole returns the lower-cased role of the caller, or "" when anonymous.
func UserRole(c *fiber.Ctx) string {
	return normalizeRoleValue(c.Locals(localUserRole))
}

// UserStatus returns the account status carried by coordinator tokens.
func UserStatus(c *fiber.Ctx) string {
	status, _ := c.Locals(localUserStatus).(string)
	return status
}
