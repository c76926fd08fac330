package service

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// maskEmailAddress keeps the first and last character of the local part for log lines.
func maskEmailAddress(email string) string {
	email = normalizeEmail(email)
	if email == "" {
		return ""
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return "***"
	}
	masked := local[:1] + "***"
	if len(local) > 2 {
		masked += local[len(local)-1:]
	}
	return masked + "@" + domain
}

// maskMobile keeps the last four digits.
func maskMobile(mobile string) string {
	mobile = strings.TrimSpace(mobile)
	visible := len(mobile) - 4
	if visible <= 0 {
		return "****"
	}
	return strings.Repeat("*", visible) + mobile[visible:]
}

// requestFingerprint identifies a callback request independently of case and padding.
func requestFingerprint(fields ...string) string {
	normalized := make([]string, len(fields))
	for i, field := range fields {
		normalized[i] = strings.ToLower(strings.TrimSpace(field))
	}
	sum := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(sum[:])
}
