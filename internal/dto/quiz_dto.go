package dto

import (
	"time"

	"github.com/noah-isme/olympiad-api/internal/models"
	"github.com/noah-isme/olympiad-api/internal/scoring"
)

// QuizSubmission is a completed quiz sent by a student.
type QuizSubmission struct {
	Score           int                `json:"score" validate:"gte=0,ltefield=Total"`
	Total           int                `json:"total" validate:"required,gt=0"`
	Type            string             `json:"type" validate:"required,oneof=mock live"`
	SelectedAnswers []string           `json:"selectedAnswers"`
	Questions       []scoring.Question `json:"questions" validate:"omitempty,dive"`
}

// QuizResult reports what was stored for a submission.
type QuizResult struct {
	AttemptID     string                `json:"attemptId"`
	Type          string                `json:"type"`
	Score         int                   `json:"score"`
	Total         int                   `json:"total"`
	SubjectScores scoring.SubjectScores `json:"subjectScores"`
	Ranks         models.RankSet        `json:"ranks"`
	Certificate   *CertificateResponse  `json:"certificate,omitempty"`
}

// VerifyCertificateRequest looks up a certificate by code.
type VerifyCertificateRequest struct {
	CertificateCode string `json:"certificateCode" validate:"required,max=32"`
}

// CertificateResponse is the public view of an issued certificate.
type CertificateResponse struct {
	CertificateCode string          `json:"certificateCode"`
	Name            string          `json:"name"`
	SchoolName      string          `json:"schoolName"`
	Type            string          `json:"type"`
	Rankings        *models.RankSet `json:"rankings,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
}

// NewCertificateResponse maps a stored certificate.
func NewCertificateResponse(c models.Certificate) CertificateResponse {
	return CertificateResponse{
		CertificateCode: c.Code,
		Name:            c.Name,
		SchoolName:      c.SchoolName,
		Type:            c.Type,
		Rankings:        c.Rankings,
		Timestamp:       c.Timestamp,
	}
}
