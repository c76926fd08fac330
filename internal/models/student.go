package models

import (
	"time"

	"github.com/noah-isme/olympiad-api/internal/scoring"
)

// Account roles carried in tokens.
const (
	RoleStudent     = "student"
	RoleAdmin       = "admin"
	RoleSchool      = "school"
	RoleCoordinator = "coordinator"
)

// Student payment states.
const (
	PaymentUnpaid              = "unpaid"
	PaymentPaid                = "paid"
	PaymentPaidButNotAttempted = "paid_but_not_attempted"
	PaymentQuizAttempted       = "quiz_attempted"
)

// ValidPaymentStatus reports whether status is one of the known payment states.
func ValidPaymentStatus(status string) bool {
	switch status {
	case PaymentUnpaid, PaymentPaid, PaymentPaidButNotAttempted, PaymentQuizAttempted:
		return true
	}
	return false
}

// RankSet holds the placements of one test type. School is absent until the cohort is ranked.
type RankSet struct {
	Global  scoring.Placement  `json:"global"`
	Country scoring.Placement  `json:"country"`
	State   scoring.Placement  `json:"state"`
	School  *scoring.Placement `json:"school,omitempty"`
}

// UnrankedSet is returned when a student has no ranks for a test type yet.
func UnrankedSet() RankSet {
	return RankSet{
		Global:  scoring.UnrankedPlacement(),
		Country: scoring.UnrankedPlacement(),
		State:   scoring.UnrankedPlacement(),
	}
}

// Student is a registered participant.
type Student struct {
	UID                    string                                `json:"uid"`
	Name                   string                                `json:"name"`
	Username               string                                `json:"username"`
	Password               string                                `json:"password,omitempty"`
	PhoneNumber            string                                `json:"PhoneNumber"`
	TeacherPhoneNumber     string                                `json:"teacherPhoneNumber"`
	WhatsappNumber         string                                `json:"whatsappNumber"`
	Standard               string                                `json:"standard"`
	SchoolName             string                                `json:"schoolName"`
	Country                string                                `json:"country"`
	State                  string                                `json:"state"`
	City                   string                                `json:"city"`
	ReferenceCode          string                                `json:"referenceCode,omitempty"`
	PaymentStatus          string                                `json:"paymentStatus"`
	TestCompleted          bool                                  `json:"testCompleted"`
	PracticeTestsAttempted int                                   `json:"practiceTestsAttempted"`
	AddedBy                string                                `json:"addedBy,omitempty"`
	Marks                  map[string]map[string]scoring.Attempt `json:"marks,omitempty"`
	SubjectMarks           map[string]scoring.SubjectScores      `json:"subjectMarks,omitempty"`
	Ranks                  map[string]RankSet                    `json:"ranks,omitempty"`
	Certificates           map[string]Certificate                `json:"certificateCodes,omitempty"`
	CreatedAt              time.Time                             `json:"createdAt"`
	UpdatedAt              time.Time                             `json:"updatedAt"`
}

// AttemptCount returns how many attempts of testType the student has stored.
func (s Student) AttemptCount(testType string) int {
	return len(s.Marks[testType])
}

// Attempts returns the stored attempts of testType.
func (s Student) Attempts(testType string) []scoring.Attempt {
	attempts := make([]scoring.Attempt, 0, len(s.Marks[testType]))
	for _, attempt := range s.Marks[testType] {
		attempts = append(attempts, attempt)
	}
	return attempts
}
