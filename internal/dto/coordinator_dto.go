package dto

import (
	"time"

	"github.com/noah-isme/olympiad-api/internal/models"
)

// CoordinatorRegisterRequest captures the partner sign-up form.
type CoordinatorRegisterRequest struct {
	Name           string `json:"name" validate:"required,max=120"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8"`
	PhoneNumber    string `json:"phoneNumber" validate:"required,min=7,max=20"`
	WhatsappNumber string `json:"whatsappNumber" validate:"omitempty,max=20"`
	Country        string `json:"country" validate:"required,max=80"`
	State          string `json:"state" validate:"required,max=80"`
	City           string `json:"city" validate:"required,max=80"`
}

// BankProfileRequest sets payout details. The IFSC is resolved to bank and branch.
type BankProfileRequest struct {
	UpiID             string `json:"upiId" validate:"required"`
	IFSC              string `json:"ifsc" validate:"required"`
	AccountHolderName string `json:"accountHolderName" validate:"required,max=120"`
	AccountNumber     string `json:"accountNumber" validate:"required"`
}

// VerifyDetailsRequest checks bank and UPI payout details independently.
type VerifyDetailsRequest struct {
	BankName          string `json:"bankName"`
	AccountNumber     string `json:"accountNumber"`
	IFSC              string `json:"ifsc"`
	AccountHolderName string `json:"accountHolderName"`
	UpiID             string `json:"upiId"`
}

// VerifyDetailsResponse reports which payout channels passed verification.
type VerifyDetailsResponse struct {
	BankVerified bool `json:"bankVerified"`
	UpiVerified  bool `json:"upiVerified"`
}

// PartnerRankResponse is a coordinator's position by total earnings.
type PartnerRankResponse struct {
	Rank              int `json:"rank"`
	TotalCoordinators int `json:"totalCoordinators"`
	TotalEarnings     int `json:"totalEarnings"`
}

// LeaderboardEntry is one coordinator on the leaderboard.
type LeaderboardEntry struct {
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	BonusAmount int    `json:"bonusAmount"`
	Status      string `json:"status"`
}

// LeaderboardGroup lists the top coordinators of one category.
type LeaderboardGroup struct {
	Category        string             `json:"category"`
	TopCoordinators []LeaderboardEntry `json:"topCoordinators"`
}

// PracticeTestCounts sums mock and live attempts across a set of students.
type PracticeTestCounts struct {
	TotalPracticeTests int `json:"totalPracticeTests"`
	FinalPracticeTests int `json:"finalPracticeTests"`
}

// StudentPaymentStatusRequest lets a coordinator change one of their students' status.
type StudentPaymentStatusRequest struct {
	StudentID     string `json:"studentId" validate:"required"`
	PaymentStatus string `json:"paymentStatus" validate:"required,oneof=unpaid paid paid_but_not_attempted quiz_attempted"`
}

// IncentiveResponse reports a coordinator's recomputed incentive fields.
type IncentiveResponse struct {
	UserID                   string    `json:"userId"`
	Category                 string    `json:"category"`
	PerStudentShare          int       `json:"perStudentShare"`
	TotalRegistrations       int       `json:"totalRegistrations"`
	TotalIncentives          int       `json:"totalIncentives"`
	TotalEngagementBonus     int       `json:"totalEngagementBonus"`
	TotalEarnings            int       `json:"totalEarnings"`
	LastIncentiveCalculation time.Time `json:"lastIncentiveCalculation"`
}

// NewCoordinatorProfile strips the password hash.
func NewCoordinatorProfile(c models.Coordinator) models.Coordinator {
	c.Password = ""
	return c
}

// NewCoordinatorProfiles maps a slice of coordinators.
func NewCoordinatorProfiles(coordinators []models.Coordinator) []models.Coordinator {
	out := make([]models.Coordinator, 0, len(coordinators))
	for _, coordinator := range coordinators {
		out = append(out, NewCoordinatorProfile(coordinator))
	}
	return out
}
