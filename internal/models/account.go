package models

import "time"

// School is a school representative account.
type School struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email"`
	Password      string    `json:"password,omitempty"`
	SchoolName    string    `json:"schoolName"`
	PrincipalName string    `json:"principalName"`
	Role          string    `json:"role"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Admin is a back-office operator.
type Admin struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	Password  string    `json:"password,omitempty"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}
