package dto

import (
	"sort"
	"time"
)

// AuthResponse is returned by every login and registration endpoint.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Role      string    `json:"role"`
	Profile   any       `json:"profile"`
}

// StaffLoginRequest authenticates admins, schools and coordinators by email.
type StaffLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func sortStrings(values []string) {
	sort.Strings(values)
}
