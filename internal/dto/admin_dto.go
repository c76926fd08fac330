package dto

import "github.com/noah-isme/olympiad-api/internal/models"

// AdminRegisterRequest creates another admin account.
type AdminRegisterRequest struct {
	Name            string `json:"name" validate:"required,max=120"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// AdminStudentUpdateRequest either deletes a student or applies a partial profile update.
type AdminStudentUpdateRequest struct {
	UID           string  `json:"uid" validate:"required"`
	DeleteAccount bool    `json:"deleteAccount"`
	PaymentStatus *string `json:"paymentStatus" validate:"omitempty,oneof=unpaid paid paid_but_not_attempted quiz_attempted"`
	StudentUpdateRequest
}

// ReferenceCodeRequest generates a code bound to a school.
type ReferenceCodeRequest struct {
	Prefix     string `json:"prefix" validate:"required,alphanum,max=10"`
	SchoolName string `json:"schoolName" validate:"required,max=200"`
}

// ValidateReferenceCodeRequest checks a code supplied at registration.
type ValidateReferenceCodeRequest struct {
	ReferenceCode string `json:"referenceCode" validate:"required,max=32"`
}

// ApproveCoordinatorRequest approves a pending coordinator.
type ApproveCoordinatorRequest struct {
	UID string `json:"uid" validate:"required"`
}

// PaymentDetailsResponse exposes a coordinator's payout details to admins.
type PaymentDetailsResponse struct {
	UserID            string `json:"userId"`
	Name              string `json:"name"`
	BankName          string `json:"bankName"`
	AccountNumber     string `json:"accountNumber"`
	IFSC              string `json:"ifsc"`
	Branch            string `json:"branch"`
	AccountHolderName string `json:"accountHolderName"`
	BankVerified      bool   `json:"bankVerified"`
	UpiID             string `json:"upiId"`
	UpiVerified       bool   `json:"upiVerified"`
	TotalEarnings     int    `json:"totalEarnings"`
}

// NewPaymentDetailsResponse maps a coordinator's payout fields.
func NewPaymentDetailsResponse(c models.Coordinator) PaymentDetailsResponse {
	return PaymentDetailsResponse{
		UserID:            c.UserID,
		Name:              c.Name,
		BankName:          c.BankName,
		AccountNumber:     c.AccountNumber,
		IFSC:              c.IFSC,
		Branch:            c.Branch,
		AccountHolderName: c.AccountHolderName,
		BankVerified:      c.BankVerified,
		UpiID:             c.UpiID,
		UpiVerified:       c.UpiVerified,
		TotalEarnings:     c.TotalEarnings,
	}
}

// AllTestCounts aggregates attempts across every student.
type AllTestCounts struct {
	Students int `json:"students"`
	PracticeTestCounts
}

// NewAdminProfile strips the password hash.
func NewAdminProfile(a models.Admin) models.Admin {
	a.Password = ""
	return a
}
