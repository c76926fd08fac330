package service

import (
	"errors"

	"github.com/noah-isme/olympiad-api/internal/repository"
)

// ErrNotFound is returned when the addressed account or record does not exist.
var ErrNotFound = repository.ErrNotFound

var (
	// ErrInvalidCredentials hides whether the username/email or password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAlreadyExists indicates a duplicate username or email.
	ErrAlreadyExists = errors.New("account already exists")
	// ErrForbidden indicates the caller does not own the target resource.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidTestType indicates a test type outside mock/live.
	ErrInvalidTestType = errors.New("invalid test type")
	// ErrStandardRequired indicates the student profile lacks a standard.
	ErrStandardRequired = errors.New("student standard is required")
	// ErrInvalidPaymentStatus indicates an unknown payment status.
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
	// ErrInvalidCoordinatorStatus indicates a status filter other than pending or approved.
	ErrInvalidCoordinatorStatus = errors.New("invalid coordinator status")
	// ErrUpstream indicates a dependency such as the bank directory or payment gateway failed.
	ErrUpstream = errors.New("upstream service unavailable")
)
