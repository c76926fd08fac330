package models

import "time"

// CertificateTypeGQC marks certificates issued for a perfect live score.
const CertificateTypeGQC = "GQC"

// Certificate is issued once and keeps a snapshot of the holder's ranks at that moment.
type Certificate struct {
	Code       string    `json:"code"`
	StudentID  string    `json:"uid"`
	Name       string    `json:"name"`
	SchoolName string    `json:"schoolName"`
	Type       string    `json:"type"`
	Rankings   *RankSet  `json:"rankings,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// ReferenceCode binds a generated code to a school.
type ReferenceCode struct {
	ReferenceCode string    `json:"referenceCode"`
	Prefix        string    `json:"prefix"`
	SchoolName    string    `json:"schoolName"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CallbackRequest is a public "call me back" request.
type CallbackRequest struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	Mobile    string    `json:"mobile"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
