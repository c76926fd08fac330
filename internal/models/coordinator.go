package models

import "time"

// Coordinator approval states.
const (
	CoordinatorPending  = "pending"
	CoordinatorApproved = "approved"
)

// Achievement is a badge awarded to a coordinator.
type Achievement struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	AwardedAt   time.Time `json:"awardedAt"`
}

// Coordinator is a referral partner who recruits students and earns incentives.
type Coordinator struct {
	UserID         string `json:"userId"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password,omitempty"`
	PhoneNumber    string `json:"phoneNumber"`
	WhatsappNumber string `json:"whatsappNumber"`
	Country        string `json:"country"`
	State          string `json:"state"`
	City           string `json:"city"`
	Role           string `json:"role"`
	Status         string `json:"status"`

	Category                 string     `json:"category"`
	TotalStudents            int        `json:"totalStudents"`
	TotalRegistrations       int        `json:"totalRegistrations"`
	TotalIncentives          int        `json:"totalIncentives"`
	TotalEngagementBonus     int        `json:"totalEngagementBonus"`
	TotalEarnings            int        `json:"totalEarnings"`
	LastIncentiveCalculation *time.Time `json:"lastIncentiveCalculation,omitempty"`

	BankName          string `json:"bankName,omitempty"`
	AccountNumber     string `json:"accountNumber,omitempty"`
	IFSC              string `json:"ifsc,omitempty"`
	Branch            string `json:"branch,omitempty"`
	AccountHolderName string `json:"accountHolderName,omitempty"`
	BankVerified      bool   `json:"bankVerified"`
	UpiID             string `json:"upiId,omitempty"`
	UpiVerified       bool   `json:"upiVerified"`

	Achievements map[string]Achievement `json:"achievements,omitempty"`
	ApprovedAt   *time.Time             `json:"approvedAt,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

// Approved reports whether an admin approved the coordinator.
func (c Coordinator) Approved() bool {
	return c.Status == CoordinatorApproved
}
