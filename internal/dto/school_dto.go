package dto

import "github.com/noah-isme/olympiad-api/internal/models"

// SchoolRegisterRequest registers a school representative.
type SchoolRegisterRequest struct {
	SchoolName      string `json:"schoolName" validate:"required,max=200"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	PrincipalName   string `json:"principalName" validate:"required,max=120"`
}

// RepresentativeResponse is the school dashboard header.
type RepresentativeResponse struct {
	models.School
	PracticeTestCounts PracticeTestCounts `json:"practiceTestCounts"`
}

// SubjectMark is one student's marks in a subject.
type SubjectMark struct {
	StudentName string `json:"studentName"`
	Marks       int    `json:"marks"`
}

// SubjectMarksReport groups marks by test type, standard and subject.
type SubjectMarksReport map[string]map[string]map[string][]SubjectMark

// NewSchoolProfile strips the password hash.
func NewSchoolProfile(s models.School) models.School {
	s.Password = ""
	return s
}

// NewSchoolProfiles maps a slice of schools.
func NewSchoolProfiles(schools []models.School) []models.School {
	out := make([]models.School, 0, len(schools))
	for _, school := range schools {
		out = append(out, NewSchoolProfile(school))
	}
	return out
}
