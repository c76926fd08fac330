package dto

import (
	"time"

	"github.com/noah-isme/olympiad-api/internal/models"
	"github.com/noah-isme/olympiad-api/internal/scoring"
)

// StudentRegisterRequest captures the self-registration form.
type StudentRegisterRequest struct {
	Name               string `json:"name" validate:"required,max=120"`
	Username           string `json:"username" validate:"required,min=3,max=64"`
	Password           string `json:"password" validate:"required,min=6"`
	ConfirmPassword    string `json:"confirmPassword" validate:"required,eqfield=Password"`
	PhoneNumber        string `json:"PhoneNumber" validate:"required,min=7,max=20"`
	TeacherPhoneNumber string `json:"teacherPhoneNumber" validate:"omitempty,max=20"`
	WhatsappNumber     string `json:"whatsappNumber" validate:"omitempty,max=20"`
	Standard           string `json:"standard" validate:"omitempty,max=20"`
	SchoolName         string `json:"schoolName" validate:"omitempty,max=200"`
	Country            string `json:"country" validate:"omitempty,max=80"`
	State              string `json:"state" validate:"omitempty,max=80"`
	City               string `json:"city" validate:"omitempty,max=80"`
	ReferenceCode      string `json:"referenceCode" validate:"omitempty,max=32"`
}

// StudentLoginRequest authenticates a student by username.
type StudentLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// StudentUpdateRequest is a partial profile update. Nil fields are left untouched.
type StudentUpdateRequest struct {
	Name               *string `json:"name" validate:"omitempty,min=1,max=120"`
	PhoneNumber        *string `json:"PhoneNumber" validate:"omitempty,min=7,max=20"`
	TeacherPhoneNumber *string `json:"teacherPhoneNumber" validate:"omitempty,max=20"`
	WhatsappNumber     *string `json:"whatsappNumber" validate:"omitempty,max=20"`
	Standard           *string `json:"standard" validate:"omitempty,max=20"`
	SchoolName         *string `json:"schoolName" validate:"omitempty,max=200"`
	Country            *string `json:"country" validate:"omitempty,max=80"`
	State              *string `json:"state" validate:"omitempty,max=80"`
	City               *string `json:"city" validate:"omitempty,max=80"`
	Password           *string `json:"password" validate:"omitempty,min=6"`
}

// Fields converts the populated fields into a document merge.
func (r StudentUpdateRequest) Fields() map[string]any {
	fields := map[string]any{}
	set := func(key string, value *string) {
		if value != nil {
			fields[key] = *value
		}
	}
	set("name", r.Name)
	set("PhoneNumber", r.PhoneNumber)
	set("teacherPhoneNumber", r.TeacherPhoneNumber)
	set("whatsappNumber", r.WhatsappNumber)
	set("standard", r.Standard)
	set("schoolName", r.SchoolName)
	set("country", r.Country)
	set("state", r.State)
	set("city", r.City)
	return fields
}

// PaymentStatusRequest changes the caller's own payment status.
type PaymentStatusRequest struct {
	PaymentStatus string `json:"paymentStatus" validate:"required,oneof=unpaid paid paid_but_not_attempted quiz_attempted"`
}

// StudentProfile is the public view of a student document.
type StudentProfile struct {
	UID                    string                           `json:"uid"`
	Name                   string                           `json:"name"`
	Username               string                           `json:"username"`
	PhoneNumber            string                           `json:"PhoneNumber"`
	TeacherPhoneNumber     string                           `json:"teacherPhoneNumber"`
	WhatsappNumber         string                           `json:"whatsappNumber"`
	Standard               string                           `json:"standard"`
	SchoolName             string                           `json:"schoolName"`
	Country                string                           `json:"country"`
	State                  string                           `json:"state"`
	City                   string                           `json:"city"`
	ReferenceCode          string                           `json:"referenceCode,omitempty"`
	PaymentStatus          string                           `json:"paymentStatus"`
	TestCompleted          bool                             `json:"testCompleted"`
	PracticeTestsAttempted int                              `json:"practiceTestsAttempted"`
	AddedBy                string                           `json:"addedBy,omitempty"`
	SubjectMarks           map[string]scoring.SubjectScores `json:"subjectMarks,omitempty"`
	Ranks                  map[string]models.RankSet        `json:"ranks,omitempty"`
	CertificateCodes       []string                         `json:"certificateCodes,omitempty"`
	CreatedAt              time.Time                        `json:"createdAt"`
}

// NewStudentProfile strips credentials and flattens certificate codes.
func NewStudentProfile(s models.Student) StudentProfile {
	var codes []string
	for code := range s.Certificates {
		codes = append(codes, code)
	}
	sortStrings(codes)

	return StudentProfile{
		UID:                    s.UID,
		Name:                   s.Name,
		Username:               s.Username,
		PhoneNumber:            s.PhoneNumber,
		TeacherPhoneNumber:     s.TeacherPhoneNumber,
		WhatsappNumber:         s.WhatsappNumber,
		Standard:               s.Standard,
		SchoolName:             s.SchoolName,
		Country:                s.Country,
		State:                  s.State,
		City:                   s.City,
		ReferenceCode:          s.ReferenceCode,
		PaymentStatus:          s.PaymentStatus,
		TestCompleted:          s.TestCompleted,
		PracticeTestsAttempted: s.PracticeTestsAttempted,
		AddedBy:                s.AddedBy,
		SubjectMarks:           s.SubjectMarks,
		Ranks:                  s.Ranks,
		CertificateCodes:       codes,
		CreatedAt:              s.CreatedAt,
	}
}

// NewStudentProfiles maps a slice of students.
func NewStudentProfiles(students []models.Student) []StudentProfile {
	out := make([]StudentProfile, 0, len(students))
	for _, student := range students {
		out = append(out, NewStudentProfile(student))
	}
	return out
}

// TestCounts reports attempts per test type.
type TestCounts struct {
	Mock int `json:"mock"`
	Live int `json:"live"`
}

// RankResponse carries one test type's placements.
type RankResponse struct {
	Type  string         `json:"type"`
	Ranks models.RankSet `json:"ranks"`
}
