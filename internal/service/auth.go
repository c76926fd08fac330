package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/olympiad-api/internal/models"
)

const passwordCost = 10

// TokenIssuer signs HS256 bearer tokens understood by middleware.JWTProtected.
type TokenIssuer struct {
	secret     []byte
	studentTTL time.Duration
	staffTTL   time.Duration
	now        func() time.Time
}

// NewTokenIssuer constructs an issuer. Students get studentTTL; admins, schools and
// coordinators get staffTTL.
func NewTokenIssuer(secret string, studentTTL, staffTTL time.Duration) *TokenIssuer {
	if studentTTL <= 0 {
		studentTTL = 24 * time.Hour
	}
	if staffTTL <= 0 {
		staffTTL = 30 * 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), studentTTL: studentTTL, staffTTL: staffTTL, now: time.Now}
}

// Issue signs a token for subject. status is only embedded when non-empty.
func (t *TokenIssuer) Issue(subject, role, status string) (string, time.Time, error) {
	if strings.TrimSpace(subject) == "" {
		return "", time.Time{}, errors.New("token subject is required")
	}

	ttl := t.staffTTL
	if role == models.RoleStudent {
		ttl = t.studentTTL
	}
	now := t.now()
	expires := now.Add(ttl)

	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  now.Unix(),
		"exp":  expires.Unix(),
	}
	if status != "" {
		claims["status"] = status
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// HashPassword hashes a plain-text password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a stored hash with a plain-text candidate.
func CheckPassword(hash, password string) error {
	if hash == "" {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
